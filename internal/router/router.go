package router

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/findit/backend/internal/handlers"
	"github.com/anonto42/findit/backend/internal/middleware"
	"github.com/anonto42/findit/backend/internal/models"
	"github.com/anonto42/findit/backend/internal/push"
	"github.com/anonto42/findit/backend/internal/repositories"
	"github.com/anonto42/findit/backend/internal/services"
	"github.com/anonto42/findit/backend/internal/ws"
	"github.com/anonto42/findit/backend/pkg/config"
	"github.com/anonto42/findit/backend/pkg/geo"
	"github.com/anonto42/findit/backend/pkg/jsonx"
	"github.com/anonto42/findit/backend/validators"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// Dependencies are the external clients the routes are built on. Messaging
// and S3 are optional; their features are disabled when nil.
type Dependencies struct {
	Config    *config.Config
	Postgres  *gorm.DB
	Mongo     *mongo.Database
	Verifier  middleware.TokenVerifier
	Messaging push.SenderProvider
	S3        *s3.Client
}

type indexed interface {
	EnsureIndexes(ctx context.Context) error
}

// rateLimit allows r requests per second per client IP with the given burst
func rateLimit(r float64, burst int) echo.MiddlewareFunc {
	return eMiddleware.RateLimiterWithConfig(eMiddleware.RateLimiterConfig{
		Store: eMiddleware.NewRateLimiterMemoryStoreWithConfig(eMiddleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(r),
			Burst:     burst,
			ExpiresIn: 3 * time.Minute,
		}),
	})
}

// SetupRoutes migrates the schema, wires repositories, services and handlers,
// and registers every route on e
func SetupRoutes(ctx context.Context, e *echo.Echo, deps Dependencies) error {
	cfg := deps.Config

	e.Validator = validators.NewValidator()
	e.JSONSerializer = jsonx.Serializer{}

	if err := deps.Postgres.AutoMigrate(&models.User{}, &models.Item{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	log.Info().Msg("PostgreSQL auto-migrations completed")

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(deps.Postgres)
	itemRepo := repositories.NewPostgresItemRepository(deps.Postgres)
	notificationRepo := repositories.NewMongoNotificationRepository(deps.Mongo)
	subscriptionRepo := repositories.NewMongoPushSubscriptionRepository(deps.Mongo)
	chatRepo := repositories.NewMongoChatRepository(deps.Mongo)

	for _, repo := range []indexed{notificationRepo, subscriptionRepo, chatRepo} {
		if err := repo.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
	}
	log.Info().Msg("MongoDB indexes ensured")

	// --- Push transports ---
	var transports []push.Transport
	if cfg.VAPIDPublicKey != "" && cfg.VAPIDPrivateKey != "" {
		transports = append(transports, push.WithBreaker(
			push.NewWebPushTransport(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubscriber),
			push.DefaultBreakerConfig,
		))
	} else {
		log.Warn().Msg("VAPID keys not set, web push disabled")
	}
	if deps.Messaging != nil {
		transports = append(transports, push.WithBreaker(push.NewFCMTransport(deps.Messaging), push.DefaultBreakerConfig))
	}
	dispatcher := push.NewDispatcher(subscriptionRepo, cfg.PushIcon, cfg.PushBadge, transports...)

	// --- Services ---
	hub := ws.NewHub()
	notifier := services.NewNotifier(notificationRepo, hub, dispatcher)
	itemService := services.NewItemService(itemRepo, notifier, geo.NewLocator(cfg.DefaultGPS), geo.MatchOptions{
		RadiusKm: cfg.MatchRadiusKm,
		Limit:    cfg.MatchLimit,
	})
	userService := services.NewUserService(userRepo, notifier)
	chatService := services.NewChatService(chatRepo, itemRepo, notifier, hub)
	qrService := services.NewQRService(cfg.QRSecret, cfg.PublicBaseURL, itemService, notifier)

	authMiddleware := middleware.FirebaseAuthMiddleware(deps.Verifier)

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Public routes ---
	public := e.Group("")
	qrHandler := handlers.NewQRHandler(qrService)
	qrHandler.RegisterScanRoutes(public, rateLimit(1, 5))

	wsHandler := handlers.NewWSHandler(hub, cfg.AllowedOrigins)
	e.GET("/ws", wsHandler.Connect, authMiddleware)

	authGroup := e.Group("/api/v1/auth")
	handlers.NewAuthHandler(userService, deps.Verifier).RegisterAuthRoutes(authGroup)

	pushHandler := handlers.NewPushHandler(subscriptionRepo, dispatcher, cfg.VAPIDPublicKey)
	pushHandler.RegisterPublicPushRoutes(e.Group("/api/v1"))

	// --- Protected routes (require a Firebase ID token) ---
	api := e.Group("/api/v1")
	api.Use(authMiddleware)

	handlers.NewUserHandler(userService).RegisterProfileRoutes(api)
	handlers.NewItemHandler(itemService).RegisterItemRoutes(api)
	qrHandler.RegisterQRRoutes(api)
	handlers.NewNotificationHandler(notificationRepo).RegisterNotificationRoutes(api)
	pushHandler.RegisterPushRoutes(api, rateLimit(0.5, 5))
	handlers.NewChatHandler(chatService).RegisterChatRoutes(api)

	if deps.S3 != nil && cfg.S3Bucket != "" {
		media := services.NewMediaService(deps.S3, services.MediaConfig{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			PublicURL: cfg.S3PublicURL,
			MaxBytes:  cfg.MaxUploadBytes,
		})
		handlers.NewMediaHandler(media).RegisterMediaRoutes(api)
	} else {
		log.Warn().Msg("S3 bucket not configured, media routes disabled")
	}

	log.Info().Msg("All routes configured")
	return nil
}
