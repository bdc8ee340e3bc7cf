// Package app assembles the records backend from configuration. The API
// gateway and the gwdctl operator CLI share it.
package app

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/gwd-records-api/internal/authz"
	"github.com/noah-isme/gwd-records-api/internal/repository"
	"github.com/noah-isme/gwd-records-api/internal/search"
	"github.com/noah-isme/gwd-records-api/internal/service"
	"github.com/noah-isme/gwd-records-api/pkg/cache"
	"github.com/noah-isme/gwd-records-api/pkg/config"
	"github.com/noah-isme/gwd-records-api/pkg/database"
	"github.com/noah-isme/gwd-records-api/pkg/pubsub"
	"github.com/noah-isme/gwd-records-api/pkg/storage"
)

// App holds the wired services and the connections they share.
type App struct {
	Config *config.Config
	Logger *zap.Logger

	DB    *sqlx.DB
	Redis *redis.Client

	Metrics *service.MetricsService
	Access  *authz.Service
	Audit   *repository.AuditRepository
	Search  *search.Service

	Files         *repository.FileEntryRepository
	PendingStore  *repository.PendingUpdateRepository
	UserStore     *repository.UserRepository
	ExportStore   storage.ObjectStore
	ExportSigner  *storage.DownloadSigner
	EventBroker   pubsub.Broker
	DashboardKeys *service.CacheService

	PendingUpdates *service.PendingUpdateService
	FileEntries    *service.FileEntryService
	Users          *service.UserService
	Sessions       *service.SessionService
	Dashboard      *service.DashboardService
	Exports        *service.ExportService
	Sweeper        *service.OrphanSweeper

	closers []func()
}

// New connects to Postgres, and to Redis, MinIO and Meilisearch when they are
// configured, then builds every service.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: logger, Metrics: service.NewMetricsService()}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	a.DB = db
	a.closers = append(a.closers, func() { _ = db.Close() })

	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Redis = client
		a.closers = append(a.closers, func() { _ = client.Close() })
		a.EventBroker = pubsub.NewRedisBroker(client)
	} else {
		logger.Info("redis disabled, using in-process event broker and no dashboard cache")
		a.EventBroker = pubsub.NewMemoryBroker()
	}

	if a.Access, err = authz.NewService(nil, logger); err != nil {
		a.Close()
		return nil, err
	}

	a.Files = repository.NewFileEntryRepository(db)
	a.PendingStore = repository.NewPendingUpdateRepository(db)
	a.UserStore = repository.NewUserRepository(db)
	a.Audit = repository.NewAuditRepository(db)

	var index search.Index
	if cfg.Search.Enabled {
		meili := search.NewMeili(cfg.Search.MeiliURL, cfg.Search.MeiliAPIKey, logger)
		a.closers = append(a.closers, meili.Close)
		index = meili
	}
	a.Search = search.NewService(index, a.Files, logger)

	if a.ExportStore, err = newObjectStore(ctx, cfg); err != nil {
		a.Close()
		return nil, err
	}
	a.ExportSigner = storage.NewDownloadSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	var cacheRepo service.CacheRepository
	if a.Redis != nil {
		cacheRepo = repository.NewCacheRepository(a.Redis, logger)
	}
	a.DashboardKeys = service.NewCacheService(cacheRepo, a.Metrics, cfg.Dashboard.CacheTTL, logger, cfg.Dashboard.CacheEnabled)

	validate := validator.New()

	a.PendingUpdates = service.NewPendingUpdateService(a.PendingStore, a.Files, a.Access, a.Audit, a.EventBroker, validate, logger,
		service.WithPendingUpdateTopic(cfg.Workflow.EventsTopic),
		service.WithSubmitterRoles(a.UserStore),
		service.WithFileIndexer(a.Search),
		service.WithDashboardCache(a.DashboardKeys),
		service.WithPendingUpdateMetrics(a.Metrics),
	)

	a.Sweeper = service.NewOrphanSweeper(a.PendingUpdates, service.OrphanSweeperConfig{
		Workers:    cfg.Workflow.OrphanWorkers,
		MaxRetries: cfg.Workflow.OrphanRetries,
		Interval:   cfg.Workflow.OrphanSweepInterval,
	}, a.Metrics, logger)

	a.FileEntries = service.NewFileEntryService(a.Files, a.PendingStore, a.UserStore, a.Access, a.Audit, validate, logger,
		service.WithFileSearch(a.Search),
		service.WithFileSweeper(a.Sweeper),
		service.WithFileDashboardCache(a.DashboardKeys),
	)

	a.Users = service.NewUserService(a.UserStore, a.Files, a.Sweeper, a.Access, a.Audit, a.DashboardKeys, validate, logger)

	a.Sessions = service.NewSessionService(a.UserStore, service.SessionConfig{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
	}, logger)

	a.Dashboard = service.NewDashboardService(service.DashboardServiceParams{
		Files:   a.Files,
		Pending: a.PendingStore,
		Access:  a.Access,
		Cache:   a.DashboardKeys,
		Logger:  logger,
		Config:  service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL},
	})

	a.Exports = service.NewExportService(service.ExportServiceParams{
		Files:     a.Files,
		Pending:   a.PendingStore,
		Store:     a.ExportStore,
		Signer:    a.ExportSigner,
		Access:    a.Access,
		Audit:     a.Audit,
		Metrics:   a.Metrics,
		Validator: validate,
		Logger:    logger,
		Config:    service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Exports.SignedURLTTL},
	})

	return a, nil
}

// Reindex loads every file into the search index. It is a no-op when search
// is disabled.
func (a *App) Reindex(ctx context.Context) error {
	if !a.Config.Search.Enabled {
		return nil
	}
	files, err := a.Files.All(ctx)
	if err != nil {
		return fmt.Errorf("load files for reindex: %w", err)
	}
	return a.Search.Reindex(files)
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func newObjectStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, error) {
	switch cfg.Exports.Backend {
	case config.StorageBackendMinIO:
		store, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
		if err != nil {
			return nil, fmt.Errorf("connect minio: %w", err)
		}
		return store, nil
	case config.StorageBackendLocal, "":
		store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			return nil, fmt.Errorf("prepare export dir: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown exports backend %q", cfg.Exports.Backend)
	}
}
