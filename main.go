package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"pizza-delivery/cmd"
	"pizza-delivery/internal/data/repository"
	"pizza-delivery/internal/usecase"
	"pizza-delivery/internal/wire"
	"pizza-delivery/pkg/cache"
	"pizza-delivery/pkg/database"
	"pizza-delivery/pkg/events"
	"pizza-delivery/pkg/token"
	"pizza-delivery/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.Name, config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
		zap.Bool("permissive_mutations", config.Order.PermissiveMutations),
	)

	// Connect to database
	db, err := database.InitDB(ctx, config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	if config.Database.Migrate {
		if err := database.RunMigrations(ctx, db, logger); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	// Token signing
	tokens, err := token.NewManager(config.JWT.Secret, config.JWT.Issuer, config.JWT.AccessTTL, config.JWT.RefreshTTL)
	if err != nil {
		logger.Fatal("Invalid JWT configuration", zap.Error(err))
	}

	// Access-token denylist
	var denylist cache.TokenDenylist
	if config.Redis.Addr != "" {
		client, err := cache.NewRedisClient(ctx, config.Redis.Addr, config.Redis.Password, config.Redis.DB)
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer client.Close()
		denylist = cache.NewRedisDenylist(client)
		logger.Info("Redis connected", zap.String("addr", config.Redis.Addr))
	} else {
		denylist = cache.NewMemoryDenylist()
		logger.Warn("REDIS_ADDR not set, keeping revoked tokens in memory")
	}

	// Order events
	var publisher events.Publisher = events.NoopPublisher{}
	if len(config.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(config.Kafka.Brokers, config.Kafka.OrderTopic)
		logger.Info("Publishing order events",
			zap.Strings("brokers", config.Kafka.Brokers),
			zap.String("topic", config.Kafka.OrderTopic),
		)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("Failed to close event publisher", zap.Error(err))
		}
	}()

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	// Wire all dependencies
	app := wire.Wiring(repos, usecase.Deps{
		Tokens:    tokens,
		Denylist:  denylist,
		Publisher: publisher,
	}, config, logger)

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return
	}

	logger.Info("Server stopped")
}
