package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// DevQRSecret signs scan tokens when QR_SECRET is unset. Only development
// may run with it.
const DevQRSecret = "change-me-qr-secret"

type Config struct {
	Port                    string
	Env                     string
	LogLevel                string
	FirebaseCredentialsPath string
	PostgresConnStr         string
	MongoURI                string
	MongoDatabase           string
	MetricsPort             string
	PublicBaseURL           string
	AllowedOrigins          []string

	// Geo
	DefaultGPS    string
	MatchRadiusKm float64
	MatchLimit    int

	// Push
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubscriber string
	PushIcon        string
	PushBadge       string

	// Media
	S3Region       string
	S3Bucket       string
	S3Endpoint     string
	S3AccessKey    string
	S3SecretKey    string
	S3PublicURL    string
	MaxUploadBytes int64

	QRSecret string
}

// Load reads the .env file when present and builds the configuration from the environment
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, assuming environment variables are set.")
	}

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase_credentials.json"),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DB", "lostfound"),
		MetricsPort:             getEnv("METRICS_PORT", "9090"),
		PublicBaseURL:           getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		AllowedOrigins:          getEnvList("ALLOWED_ORIGINS"),

		DefaultGPS:    getEnv("DEFAULT_GPS", "6.9271,79.8612"),
		MatchRadiusKm: getEnvFloat("MATCH_RADIUS_KM", 20),
		MatchLimit:    getEnvInt("MATCH_LIMIT", 10),

		VAPIDPublicKey:  getEnv("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey: getEnv("VAPID_PRIVATE_KEY", ""),
		VAPIDSubscriber: getEnv("VAPID_SUBSCRIBER", "mailto:admin@example.com"),
		PushIcon:        getEnv("PUSH_ICON", "/icons/icon-192x192.png"),
		PushBadge:       getEnv("PUSH_BADGE", "/icons/badge-72x72.png"),

		S3Region:       getEnv("S3_REGION", "us-east-1"),
		S3Bucket:       getEnv("S3_BUCKET", ""),
		S3Endpoint:     getEnv("S3_ENDPOINT", ""),
		S3AccessKey:    getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:    getEnv("S3_SECRET_KEY", ""),
		S3PublicURL:    getEnv("S3_PUBLIC_URL", ""),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 10)) << 20,

		QRSecret: getEnv("QR_SECRET", DevQRSecret),
	}
}

// IsDevelopment reports whether the service runs with developer defaults
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Validate rejects settings that are unsafe outside development
func (c *Config) Validate() error {
	if c.QRSecret == DevQRSecret {
		if !c.IsDevelopment() {
			return errors.New("QR_SECRET must be set outside development")
		}
		log.Warn().Msg("QR_SECRET not set, scan tokens are signed with the development secret")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return v
}

// getEnvList splits a comma separated variable, dropping blanks
func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
