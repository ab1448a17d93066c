package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	httpapp "memorial/internal/app/http"
	"memorial/internal/config"
	"memorial/internal/lib/logger/sl"
	"memorial/internal/lib/retry"
	"memorial/internal/repository"
	"memorial/internal/services/auth"
	"memorial/internal/storage"
	"memorial/internal/storage/breaker"
	filestorage "memorial/internal/storage/filestorage"
	"memorial/internal/storage/memstore"
	"memorial/internal/storage/postgresql"
	redisapp "memorial/internal/storage/redis"
	"memorial/internal/storage/s3store"
	httprouters "memorial/internal/transport/http"

	media "memorial/internal/services/media_service"
	slideshow "memorial/internal/services/slideshow_service"
	syncsvc "memorial/internal/services/sync_service"
	tributes "memorial/internal/services/tribute_service"
)

const (
	envProd = "prod"

	driverS3       = "s3"
	driverFS       = "fs"
	driverMemory   = "memory"
	driverRedis    = "redis"
	driverPostgres = "postgres"
)

type App struct {
	HTTPServer *httpapp.Server
	closers    []func()
}

func New(ctx context.Context, log *slog.Logger, cfg *config.Config) (*App, error) {
	const op = "app.New"

	a := &App{}

	store, staticDir, err := newObjectStore(ctx, log, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cache, err := a.newSlideshowCache(ctx, log, cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tributeRepo, err := a.newTributeRepo(ctx, log, cfg, store)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	policy := retry.Policy{Attempts: cfg.Upload.Attempts, BaseDelay: cfg.Upload.BaseDelay}

	syncService := syncsvc.NewSyncService(log, store)
	mediaService := media.NewMediaService(log, store, syncService, policy, cfg.Cache.AdminTTL)
	tributeService := tributes.NewTributeService(log, tributeRepo)
	slideshowService := slideshow.NewSlideshowService(log, mediaService, tributeRepo, cache, cfg.Slideshow.Title)
	mediaService.WithSlideshowInvalidator(slideshowService)
	authService := auth.New(log, repository.NewAccountRepo(cfg.Auth.Accounts), cfg.Auth.Secret, cfg.Auth.TokenTTL)

	routers := httprouters.NewRouter(log, mediaService, syncService, slideshowService, tributeService, authService)

	a.HTTPServer = httpapp.New(log, httpapp.Options{
		Host:          cfg.HTTP.Host,
		Port:          cfg.HTTP.Port,
		CORSOrigins:   cfg.HTTP.CORSOrigins,
		BodyLimit:     cfg.HTTP.BodyLimit,
		SessionSecret: cfg.Auth.SessionSecret,
		ReadTimeout:   cfg.HTTP.ReadTimeout,
		WriteTimeout:  cfg.HTTP.WriteTimeout,
		Debug:         cfg.Env != envProd,
		StaticDir:     staticDir,
	}, routers)

	return a, nil
}

// Close освобождает соединения с redis и postgres
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func newObjectStore(ctx context.Context, log *slog.Logger, cfg *config.Config) (storage.ObjectStore, string, error) {
	var (
		store     storage.ObjectStore
		staticDir string
	)

	switch cfg.Storage.Driver {
	case driverS3:
		s3cfg := cfg.Storage.S3
		s, err := s3store.NewS3Store(ctx, s3store.Options{
			Region:          s3cfg.Region,
			Bucket:          s3cfg.Bucket,
			Endpoint:        s3cfg.Endpoint,
			AccessKeyID:     s3cfg.AccessKeyID,
			SecretAccessKey: s3cfg.SecretAccessKey,
			PublicBaseURL:   s3cfg.PublicBaseURL,
			UsePathStyle:    s3cfg.UsePathStyle,
		})
		if err != nil {
			return nil, "", err
		}
		store = s
	case driverFS:
		s, err := filestorage.NewLocalFileStorage(cfg.Storage.FS.BaseDir, cfg.Storage.FS.BaseURL)
		if err != nil {
			return nil, "", err
		}
		store = s
		staticDir = s.GetBaseDir()
	case driverMemory:
		store = memstore.New(fmt.Sprintf("http://localhost:%s/uploads", cfg.HTTP.Port))
	default:
		return nil, "", fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	log.Info("object store ready", slog.String("driver", cfg.Storage.Driver))

	if !cfg.Breaker.Enabled {
		return store, staticDir, nil
	}

	return breaker.New(log, store, breaker.Settings{
		Name:             "object-store",
		MaxRequests:      cfg.Breaker.MaxRequests,
		Interval:         cfg.Breaker.Interval,
		Timeout:          cfg.Breaker.Timeout,
		FailureThreshold: cfg.Breaker.FailureThreshold,
	}), staticDir, nil
}

func (a *App) newSlideshowCache(ctx context.Context, log *slog.Logger, cfg *config.Config) (slideshow.SlideshowCache, error) {
	switch cfg.Cache.Driver {
	case driverRedis:
		client, err := redisapp.Connect(ctx, redisapp.Options{
			Addr:        cfg.Redis.RedisAddr,
			Password:    cfg.Redis.RedisPassword,
			DB:          cfg.Redis.RedisDB,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() {
			if err := client.Close(); err != nil {
				log.Warn("failed to close redis", sl.Err(err))
			}
		})

		return repository.NewRedisSlideshowCache(client, cfg.Cache.SlideshowTTL), nil
	case driverMemory, "":
		return repository.NewMemorySlideshowCache(cfg.Cache.SlideshowTTL, 10*time.Minute), nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Cache.Driver)
	}
}

func (a *App) newTributeRepo(ctx context.Context, log *slog.Logger, cfg *config.Config, store storage.ObjectStore) (repository.TributeRepository, error) {
	if cfg.Tributes.Driver != driverPostgres {
		return repository.NewObjectTributeRepo(store), nil
	}

	pg, err := postgresql.New(ctx, cfg.Tributes.DSN)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, pg.Stop)

	if err := pg.Migrate(ctx); err != nil {
		return nil, err
	}

	log.Info("tributes stored in postgres")

	return pg, nil
}
