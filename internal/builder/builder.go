package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/qachat/qa-backend/internal/api"
	chatapi "github.com/qachat/qa-backend/internal/api/chat"
	datasetapi "github.com/qachat/qa-backend/internal/api/dataset"
	"github.com/qachat/qa-backend/internal/config"
	"github.com/qachat/qa-backend/internal/index"
	"github.com/qachat/qa-backend/internal/integration/embedder"
	"github.com/qachat/qa-backend/internal/integration/rephrase"
	"github.com/qachat/qa-backend/internal/pkg/validator"
	"github.com/qachat/qa-backend/internal/repository"
	"github.com/qachat/qa-backend/internal/telegram"
	chatuc "github.com/qachat/qa-backend/internal/usecase/chat"
	datasetuc "github.com/qachat/qa-backend/internal/usecase/dataset"
)

// embeddingClient is the full surface both usecases and the startup
// healthcheck need from the embedding service.
type embeddingClient interface {
	Healthcheck(ctx context.Context) error
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

func Build() (*App, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	// Setup database connection
	db, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}

	// Run database migrations
	logger.Info("Running database migrations")
	if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize repositories
	datasetRepo := repository.NewDatasetPostgres(db)
	entryRepo := repository.NewEntryPostgres(db)
	logger.Info("Repositories initialized")

	// Initialize external service connectors (with mock support)
	embedderConn, rephraser := setupConnectors(cfg, logger)

	if err := checkEmbedder(ctx, embedderConn); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("Embedding service is reachable")

	// Initialize validators
	fileValidator := validator.NewFileValidator(cfg.FileUploadCfg)
	logger.Info("Validators initialized")

	// Initialize the similarity index and use cases
	vectorIndex := index.NewCosineIndex()

	datasetUC := datasetuc.NewUsecase(
		datasetRepo,
		entryRepo,
		embedderConn,
		vectorIndex,
		logger,
	)

	chatUC := chatuc.NewUsecase(
		embedderConn,
		vectorIndex,
		entryRepo,
		rephraser,
		cfg.SearchCfg,
		logger,
	)
	logger.Info("Use cases initialized")

	// Warm up the index from persisted entries
	if err := datasetUC.RebuildIndex(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("rebuild similarity index: %w", err)
	}
	logger.Info("Similarity index rebuilt", zap.Int("entries", vectorIndex.Len()))

	// Setup API handlers
	datasetHandler := datasetapi.NewHandler(datasetUC, cfg.FileUploadCfg, fileValidator)
	chatHandler := chatapi.NewHandler(chatUC)
	logger.Info("API handlers initialized")

	// Setup router
	router := api.SetupRouter(datasetHandler, chatHandler, logger)
	logger.Info("HTTP router configured")

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server: server,
		db:     db,
		logger: logger,
	}, nil
}

// BuildTelegramBot creates and initializes the Telegram relay bot.
func BuildTelegramBot() (*telegram.Bot, *zap.Logger, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building Telegram bot",
		zap.String("environment", cfg.Environment),
	)

	// Setup database connection
	db, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("setup database: %w", err)
	}

	// Run database migrations
	logger.Info("Running database migrations")
	if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize repositories
	datasetRepo := repository.NewDatasetPostgres(db)
	entryRepo := repository.NewEntryPostgres(db)
	logger.Info("Repositories initialized")

	// Initialize external service connectors (with mock support)
	embedderConn, rephraser := setupConnectors(cfg, logger)

	if err := checkEmbedder(ctx, embedderConn); err != nil {
		db.Close()
		return nil, nil, err
	}
	logger.Info("Embedding service is reachable")

	// Initialize the similarity index and use cases
	vectorIndex := index.NewCosineIndex()

	datasetUC := datasetuc.NewUsecase(
		datasetRepo,
		entryRepo,
		embedderConn,
		vectorIndex,
		logger,
	)

	chatUC := chatuc.NewUsecase(
		embedderConn,
		vectorIndex,
		entryRepo,
		rephraser,
		cfg.SearchCfg,
		logger,
	)
	logger.Info("Use cases initialized")

	// Warm up the index from persisted entries
	if err := datasetUC.RebuildIndex(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("rebuild similarity index: %w", err)
	}
	logger.Info("Similarity index rebuilt", zap.Int("entries", vectorIndex.Len()))

	// Initialize Telegram bot
	bot, err := telegram.NewBot(&cfg.TelegramCfg, chatUC, logger)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	logger.Info("Telegram bot built successfully",
		zap.String("environment", cfg.Environment),
	)

	return bot, logger, nil
}

// checkEmbedder verifies the embedding service is reachable. Both binaries
// refuse to start when it is not: a resolver without an embedder cannot
// answer anything.
func checkEmbedder(ctx context.Context, conn embeddingClient) error {
	healthCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := conn.Healthcheck(healthCtx); err != nil {
		return fmt.Errorf("embedding service healthcheck: %w", err)
	}
	return nil
}

func setupConnectors(cfg *config.Config, logger *zap.Logger) (embeddingClient, chatuc.Rephraser) {
	var embedderConn embeddingClient
	var rephraser chatuc.Rephraser

	if cfg.EnableMocks {
		logger.Info("Using mock connectors for external services")
		embedderConn = embedder.NewMockConnector(logger)
		if cfg.RephraseCfg.Enabled {
			rephraser = rephrase.NewMockConnector(logger)
		}
	} else {
		logger.Info("Using real connectors for external services")
		embedderConn = embedder.NewConnector(cfg.EmbedderCfg, logger)
		if cfg.RephraseCfg.Enabled {
			rephraser = rephrase.NewConnector(cfg.RephraseCfg, logger)
		}
	}

	return embedderConn, rephraser
}
