package database

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"

	"github.com/authgate/authgate/internal/shared/config"
)

// NewMongoDatabase connects to MongoDB and returns a handle to the configured
// database. The client is pinged on startup and disconnected on shutdown via
// the fx lifecycle.
func NewMongoDatabase(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) (*mongo.Database, error) {
	logger.Debug().Str("MONGO_URI", cfg.MongoURI).Msg("Initializing MongoDB client")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(cfg.MongoURI).
		SetMaxPoolSize(10).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(30 * time.Minute)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create MongoDB client")
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		logger.Error().Err(err).Msg("Failed to ping MongoDB")
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Debug().Msg("Disconnecting MongoDB client")
			return client.Disconnect(ctx)
		},
	})

	logger.Debug().
		Str("database", cfg.MongoDatabase).
		Msg("MongoDB client created successfully")
	return client.Database(cfg.MongoDatabase), nil
}
