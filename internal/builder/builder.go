package builder

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dominiq/maturity-backend/internal/api"
	surveyapi "github.com/dominiq/maturity-backend/internal/api/survey"
	"github.com/dominiq/maturity-backend/internal/config"
	"github.com/dominiq/maturity-backend/internal/integration/llm"
	"github.com/dominiq/maturity-backend/internal/pkg/validator"
	"github.com/dominiq/maturity-backend/internal/repository"
	"github.com/dominiq/maturity-backend/internal/usecase/survey"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

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
		zap.Bool("mocks", cfg.EnableMocks),
	)

	var db *pgxpool.Pool
	if cfg.NeedsDatabase() {
		db, err = setupDatabase(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("setup database: %w", err)
		}

		if cfg.RunMigrations {
			logger.Info("Running database migrations")
			if err := repository.RunMigrations(cfg.DatabaseURL, logger); err != nil {
				db.Close()
				return nil, fmt.Errorf("run migrations: %w", err)
			}
			logger.Info("Database migrations completed successfully")
		}
	}

	var closers []io.Closer
	blobRepo, closer, err := setupBlobStore(cfg, db)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, fmt.Errorf("setup blob store: %w", err)
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	catalogRepo := setupCatalog(cfg, db)

	var answerRepo repository.SurveyAnswerRepository
	if db != nil && cfg.SurveyCfg.RecordAnswers && !cfg.EnableMocks {
		answerRepo = repository.NewSurveyAnswerPostgres(db)
	}
	logger.Info("Repositories initialized",
		zap.String("blob_backend", string(cfg.BlobStoreCfg.Backend)),
		zap.Bool("record_answers", answerRepo != nil),
	)

	var llmConnector survey.LLMConnector
	switch {
	case cfg.EnableMocks:
		logger.Info("Using mock connector for the assistant")
		llmConnector = llm.NewMockConnector(logger)
	case cfg.LLMConnectorCfg.Provider == config.LLMProviderOpenAI:
		llmConnector = llm.NewOpenAIConnector(cfg.LLMConnectorCfg, logger)
	default:
		llmConnector = llm.NewConnector(cfg.LLMConnectorCfg, logger)
	}

	parser, err := llm.NewParser()
	if err != nil {
		releaseAll(closers, db)
		return nil, fmt.Errorf("compile reply schema: %w", err)
	}

	surveyUC := survey.NewUsecase(
		catalogRepo,
		blobRepo,
		answerRepo,
		llmConnector,
		parser,
		survey.Options{
			KeySuffix:         cfg.BlobStoreCfg.KeySuffix,
			ApologyMessage:    cfg.SurveyCfg.ApologyMessage,
			CompletionMessage: cfg.SurveyCfg.CompletionMessage,
		},
		logger,
	)
	logger.Info("Use cases initialized")

	surveyHandler := surveyapi.NewHandler(surveyUC, validator.NewValidator(cfg.SurveyCfg))

	router := api.SetupRouter(surveyHandler, logger)
	logger.Info("HTTP router configured")

	// WriteTimeout leaves room for the assistant call and its retries
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server:  server,
		db:      db,
		closers: closers,
		logger:  logger,
	}, nil
}

// setupBlobStore returns the configured session blob store and, when it holds a handle, its closer
func setupBlobStore(cfg *config.Config, db *pgxpool.Pool) (repository.SessionBlobRepository, io.Closer, error) {
	switch cfg.BlobStoreCfg.Backend {
	case config.BlobBackendSQLite:
		store, err := repository.NewSessionBlobSQLite(cfg.BlobStoreCfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case config.BlobBackendMemory:
		return repository.NewSessionBlobMemory(cfg.BlobStoreCfg.Retention), nil, nil
	default:
		if db == nil {
			return nil, nil, fmt.Errorf("blob backend %q needs a database", cfg.BlobStoreCfg.Backend)
		}
		return repository.NewSessionBlobPostgres(db), nil, nil
	}
}

func setupCatalog(cfg *config.Config, db *pgxpool.Pool) repository.CatalogRepository {
	if cfg.EnableMocks || cfg.CatalogCfg.Source == config.CatalogSourceFile || db == nil {
		return repository.NewCatalogFile(cfg.CatalogCfg.FilePath)
	}
	return repository.NewCatalogPostgres(db, cfg.DBSchema)
}

func releaseAll(closers []io.Closer, db *pgxpool.Pool) {
	for _, c := range closers {
		c.Close()
	}
	if db != nil {
		db.Close()
	}
}
