package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"mediagate/media-api/internal/audit"
	"mediagate/media-api/internal/auth"
	"mediagate/media-api/internal/config"
	"mediagate/media-api/internal/httpserver"
	"mediagate/media-api/internal/media"
	"mediagate/media-api/internal/migrations"
	"mediagate/media-api/internal/observability"
	"mediagate/media-api/internal/storage"
)

type App struct {
	cfg     config.Config
	log     *slog.Logger
	backend *storage.Backend
	server  *httpserver.Server
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	backend, err := storage.Open(ctx, storage.Options{
		URI:            cfg.Store.URI,
		Database:       cfg.Store.Database,
		ConnectTimeout: cfg.Store.ConnectTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	fail := func(err error) (*App, error) {
		_ = backend.Close(context.Background())
		return nil, err
	}

	var (
		users            auth.UserStore
		mediaStore       media.Store
		migrationService httpserver.MigrationService
	)
	switch backend.Kind {
	case storage.KindPostgres:
		mig, err := migrations.New(backend.SQL)
		if err != nil {
			return fail(fmt.Errorf("create migration service: %w", err))
		}
		applied, err := mig.Apply(ctx)
		if err != nil {
			return fail(fmt.Errorf("apply migrations: %w", err))
		}
		if len(applied) > 0 {
			logger.Info("migrations applied", "names", applied)
		}
		migrationService = mig

		if users, err = auth.NewPostgresUserStore(backend.SQL); err != nil {
			return fail(fmt.Errorf("create postgres user store: %w", err))
		}
		if mediaStore, err = media.NewPostgresStore(backend.SQL); err != nil {
			return fail(fmt.Errorf("create postgres media store: %w", err))
		}
	case storage.KindMongo:
		if users, err = auth.NewMongoUserStore(ctx, backend.Mongo); err != nil {
			return fail(fmt.Errorf("create mongo user store: %w", err))
		}
		if mediaStore, err = media.NewMongoStore(ctx, backend.Mongo); err != nil {
			return fail(fmt.Errorf("create mongo media store: %w", err))
		}
	default:
		return fail(fmt.Errorf("unsupported store kind %q", backend.Kind))
	}

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret)
	if err != nil {
		return fail(fmt.Errorf("create token service: %w", err))
	}
	authService, err := auth.NewService(users, tokens, auth.ServiceConfig{BcryptCost: cfg.Auth.BcryptCost})
	if err != nil {
		return fail(fmt.Errorf("create auth service: %w", err))
	}
	mediaService, err := media.NewService(mediaStore, tokens, media.ServiceConfig{BaseURL: cfg.BaseURL})
	if err != nil {
		return fail(fmt.Errorf("create media service: %w", err))
	}

	server := httpserver.New(cfg.HTTP, httpserver.Deps{
		Auth:       authService,
		Media:      mediaService,
		Migrations: migrationService,
		Store:      backend,
		Audit:      audit.NewLogger(cfg.AuditLogFile),
		Logger:     logger,
		Metrics:    observability.NewMetrics(),
	})

	logger.Info("store connected", "kind", string(backend.Kind))
	return &App{
		cfg:     cfg,
		log:     logger,
		backend: backend,
		server:  server,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.backend.Close(closeCtx); err != nil {
			a.log.Warn("close store", "err", err)
		}
	}()

	errCh := make(chan error, 1)

	go func() {
		a.log.Info("http server starting", "addr", a.cfg.HTTP.Addr, "base_url", a.cfg.BaseURL)
		errCh <- a.server.Start()
	}()

	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server exited: %w", err)
	}
}
