package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const connectTimeout = 10 * time.Second

// Stores holds the item/user database and the notification/chat document store
type Stores struct {
	Postgres *gorm.DB
	Mongo    *mongo.Client
}

// Connect opens both stores and pings them. A store that fails leaves the
// other closed.
func Connect(ctx context.Context, cfg *Config) (*Stores, error) {
	if cfg.PostgresConnStr == "" {
		return nil, errors.New("POSTGRES_CONN_STR environment variable not set")
	}
	if cfg.MongoURI == "" {
		return nil, errors.New("MONGO_URI environment variable not set")
	}

	pg, err := openPostgres(ctx, cfg.PostgresConnStr, cfg.IsDevelopment())
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	stores := &Stores{Postgres: pg}

	stores.Mongo, err = openMongo(ctx, cfg.MongoURI)
	if err != nil {
		stores.Close()
		return nil, fmt.Errorf("mongo: %w", err)
	}
	return stores, nil
}

func openPostgres(ctx context.Context, dsn string, verbose bool) (*gorm.DB, error) {
	level := logger.Warn
	if verbose {
		level = logger.Info
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	log.Info().Msg("Connected to PostgreSQL")
	return db, nil
}

func openMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetAppName("findit-api").
		SetServerSelectionTimeout(connectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	log.Info().Msg("Connected to MongoDB")
	return client, nil
}

// Close releases both stores, logging rather than returning failures
func (s *Stores) Close() {
	if s.Postgres != nil {
		if sqlDB, err := s.Postgres.DB(); err != nil {
			log.Error().Err(err).Msg("postgres handle unavailable")
		} else if err := sqlDB.Close(); err != nil {
			log.Error().Err(err).Msg("closing postgres")
		}
	}

	if s.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Mongo.Disconnect(ctx); err != nil {
			log.Error().Err(err).Msg("closing mongo")
		}
	}
	log.Info().Msg("Database connections closed")
}
