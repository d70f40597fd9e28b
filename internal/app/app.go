package app

import (
	"context"
	"fmt"
	"time"

	"github.com/brandforge-app/brandforge/internal/background"
	"github.com/brandforge-app/brandforge/internal/cache"
	"github.com/brandforge-app/brandforge/internal/config"
	"github.com/brandforge-app/brandforge/internal/content"
	"github.com/brandforge-app/brandforge/internal/core"
	db "github.com/brandforge-app/brandforge/internal/core/database"
	"github.com/brandforge-app/brandforge/internal/core/llm"
	objectclient "github.com/brandforge-app/brandforge/internal/core/object-client"
	"github.com/brandforge-app/brandforge/internal/logger"
	"github.com/brandforge-app/brandforge/internal/media"
	"github.com/brandforge-app/brandforge/internal/onboarding"
	"github.com/brandforge-app/brandforge/internal/onboarding/steps"
	"github.com/brandforge-app/brandforge/internal/services"
	"github.com/brandforge-app/brandforge/internal/versioning"
)

// App owns every long-lived component and wires them together at startup.
type App struct {
	DBClient  core.DbClient
	Snapshots *cache.SnapshotCache
	Indexer   *content.ContentIndexer
	Tasks     *background.Runner
	Server    *Server

	log *logger.Logger
}

func NewApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database init: %w", err)
	}
	log.Info("database initialized and ready")

	objClient, err := objectclient.NewS3Client(appCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("object storage init: %w", err)
	}
	log.Info("object client initialized and ready")

	snapshots := cache.New(cfg.RedisAddr, cfg.RedisPassword)

	geminiEmbedder, err := llm.NewGeminiEmbedder(appCtx, cfg.AIAPIKey, cfg.EmbedModel)
	if err != nil {
		return nil, fmt.Errorf("embedder init: %w", err)
	}

	llmProvider, err := llm.NewGeminiLLM(appCtx, cfg.AIAPIKey, cfg.GenModel, cfg.ExtractModel)
	if err != nil {
		return nil, fmt.Errorf("llm init: %w", err)
	}

	extractor := content.NewDocconvExtractor(false, log)
	indexer := content.NewContentIndexer(dbClient, objClient, geminiEmbedder, extractor, &content.IndexConfig{
		TargetTokens:  100,
		OverlapTokens: 5,
		BatchSize:     16,
	}, log)
	indexer.Start(ctx, 2)

	tasks := background.NewRunner(log, 30*time.Second)
	catalog := steps.NewCatalog()
	ledger := versioning.NewLedger(dbClient, snapshots, log)
	revisions := media.NewController(dbClient, objClient, cfg.BucketName, log)

	fieldExtractor := onboarding.NewExtractor(llmProvider, log)
	orchestrator := onboarding.NewOrchestrator(
		dbClient, llmProvider, geminiEmbedder, fieldExtractor,
		catalog, ledger, snapshots, tasks, log, cfg.GenModelDisplay,
	)

	profileSvc := services.NewProfileService(dbClient, snapshots)
	contentSvc := services.NewContentService(dbClient, objClient, indexer, cfg.BucketName)

	server := NewServer(cfg, log, dbClient, profileSvc, contentSvc, ledger, revisions, orchestrator)

	return &App{
		DBClient:  dbClient,
		Snapshots: snapshots,
		Indexer:   indexer,
		Tasks:     tasks,
		Server:    server,
		log:       log,
	}, nil
}

// Close drains background work and releases connections.
func (a *App) Close(ctx context.Context) {
	if a.Tasks != nil {
		if err := a.Tasks.Drain(ctx); err != nil {
			a.log.Warn("background tasks did not drain cleanly", "error", err)
		}
	}
	if a.Snapshots != nil {
		_ = a.Snapshots.Close()
	}
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
