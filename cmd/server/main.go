package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"chromastudio/internal/calc"
	"chromastudio/internal/config"
	"chromastudio/internal/db"
	"chromastudio/internal/db/mock"
	applog "chromastudio/internal/log"
	"chromastudio/internal/pantone"
	"chromastudio/internal/server"
	"chromastudio/internal/storage"
	"chromastudio/internal/ws"
)

type serverLifecycle interface {
	Start() error
	Stop() error
}

var (
	loadConfigFunc      = config.Load
	setLogLevelFunc     = applog.SetLevel
	newMockDatabaseFunc = mock.New
	configureDatabase   = db.Configure
	newPersisterFunc    = newPersister
	loadCatalogFunc     = pantone.New
	newServerFunc       = func(cfg server.Config) (serverLifecycle, error) {
		return server.New(cfg)
	}
	subscribeShutdownSig = func() (<-chan os.Signal, func()) {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
		return ch, func() { signal.Stop(ch) }
	}
)

func main() {
	os.Exit(run(context.Background()))
}

func run(ctx context.Context) int {
	cfg, err := loadConfigFunc()
	if err != nil {
		applog.Error(ctx, "failed to load configuration", "error", err)
		return 1
	}
	if err := setLogLevelFunc(cfg.Logging.Level); err != nil {
		applog.Error(ctx, "invalid log level", "level", cfg.Logging.Level, "error", err)
		return 1
	}

	var database *gorm.DB
	if cfg.Database.UseMock {
		applog.Info(ctx, "using in-memory mock database")
		database, err = newMockDatabaseFunc(ctx)
	} else {
		database, err = configureDatabase(cfg.Database)
	}
	if err != nil {
		applog.Error(ctx, "failed to configure database", "error", err)
		return 1
	}

	persister, err := newPersisterFunc(cfg.Calc, database)
	if err != nil {
		applog.Error(ctx, "failed to configure calculator storage", "storage", cfg.Calc.Storage, "error", err)
		return 1
	}
	store := calc.NewStore(persister, calc.WithDebounce(cfg.Calc.Debounce))
	if err := store.Load(ctx); err != nil {
		// a corrupt state document must not keep the studio offline
		applog.Warn(ctx, "calculator state not restored", "error", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			applog.Error(closeCtx, "failed to flush calculator state", "error", err)
		}
	}()

	catalog, err := loadCatalogFunc(cfg.Pantone.CatalogPath)
	if err != nil {
		applog.Error(ctx, "failed to load pantone catalog", "path", cfg.Pantone.CatalogPath, "error", err)
		return 1
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Pantone.Watch && catalog.Path() != "" {
		go func() {
			if err := catalog.Watch(runCtx); err != nil {
				applog.Error(runCtx, "pantone catalog watcher stopped", "error", err)
			}
		}()
	}

	hub := ws.NewHub()
	go hub.Run(runCtx)
	store.OnChange(hub.CalcListener())

	srv, err := newServerFunc(server.Config{
		Addr: cfg.Server.Addr,
		Session: server.SessionConfig{
			Lifetime:     cfg.Session.Lifetime,
			CookieName:   cfg.Session.CookieName,
			CookieDomain: cfg.Session.CookieDomain,
			CookieSecure: cfg.Session.CookieSecure,
		},
		Database:       database,
		Calculator:     store,
		Pantone:        catalog,
		Hub:            hub,
		MaxUploadBytes: cfg.Upload.MaxBytes,
	})
	if err != nil {
		applog.Error(ctx, "failed to build server", "error", err)
		return 1
	}

	shutdown, unsubscribe := subscribeShutdownSig()
	defer unsubscribe()

	errCh := make(chan error, 1)
	go func() {
		applog.Info(ctx, "starting http server", "addr", cfg.Server.Addr, "calcStorage", cfg.Calc.Storage, "pantoneSwatches", catalog.Len())
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Error(ctx, "server encountered an error", "error", err)
			return 1
		}
		return 0
	case sig := <-shutdown:
		applog.Info(ctx, "shutting down http server", "signal", sig.String())
	case <-ctx.Done():
		applog.Info(ctx, "context cancelled, shutting down http server")
	}

	if err := srv.Stop(); err != nil {
		applog.Error(ctx, "graceful shutdown failed", "error", err)
		return 1
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		applog.Error(ctx, "server exited with error", "error", err)
		return 1
	}
	return 0
}

func newPersister(cfg config.CalcConfig, database *gorm.DB) (calc.Persister, error) {
	switch cfg.Storage {
	case config.CalcStorageDatabase:
		return storage.NewGormStore(database)
	case config.CalcStorageFile, "":
		return storage.NewFileStore(cfg.StatePath)
	default:
		return nil, fmt.Errorf("unknown calculator storage %q", cfg.Storage)
	}
}
