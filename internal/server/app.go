// Package server initializes and runs the application server. It wires
// storage backends, the pinning client, the attestation pool and the
// HTTP endpoint, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrijs2005/chainvault/internal/logging"
	"github.com/dmitrijs2005/chainvault/internal/server/attest"
	"github.com/dmitrijs2005/chainvault/internal/server/blob"
	"github.com/dmitrijs2005/chainvault/internal/server/config"
	chttp "github.com/dmitrijs2005/chainvault/internal/server/http"
	"github.com/dmitrijs2005/chainvault/internal/server/pinning"
	"github.com/dmitrijs2005/chainvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/chainvault/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger

	db     *sql.DB
	rdb    *redis.Client
	driver *attest.Driver
	server *http.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	manager, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		return nil, fmt.Errorf("repository init error: %w", err)
	}
	if err := manager.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	archiver, err := blob.NewS3Archiver(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("blob storage init error: %w", err)
	}

	var pinner pinning.Pinner
	if cfg.PinataAPIKey != "" {
		pinner = pinning.NewPinataPinner(cfg.PinataBaseURL, cfg.PinataAPIKey, cfg.PinataAPISecret, nil)
	} else {
		logger.Warn(ctx, "no pinata credentials configured, using in-process pinner")
		pinner = pinning.NewLocalPinner()
	}

	var rdb *redis.Client
	var cache *services.VerificationCache
	var invalidator attest.Invalidator
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		cache = services.NewVerificationCache(rdb, cfg.CacheTTL)
		invalidator = cache
	}

	records := manager.FileRecords(db)
	driver := attest.NewDriver(attest.NewSimulatedAttestor(), records, invalidator, logger,
		cfg.AttestWorkers, cfg.AttestQueueSize, cfg.StageTimeout)

	uploadSvc := services.NewUploadService(db, manager, cfg, archiver, pinner, driver, logger)
	fileSvc := services.NewFileService(db, manager, archiver, logger)

	var verifySvc *services.VerificationService
	if cache != nil {
		verifySvc = services.NewVerificationService(db, manager, cache, logger)
	} else {
		verifySvc = services.NewVerificationService(db, manager, nil, logger)
	}

	handler := chttp.NewHandler(uploadSvc, verifySvc, fileSvc, logger)
	router := chttp.NewRouter(cfg, handler, logger)

	return &App{
		config: cfg,
		logger: logger,
		db:     db,
		rdb:    rdb,
		driver: driver,
		server: &http.Server{Addr: cfg.EndpointAddrHTTP, Handler: router},
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves HTTP until the context is canceled or a signal arrives,
// then drains the attestation pool and closes the backends.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting server", "addr", app.config.EndpointAddrHTTP)

	app.initSignalHandler(cancelFunc)

	errCh := make(chan error, 1)
	go func() {
		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		app.logger.Error(ctx, "http server failed", "error", err)
	case <-ctx.Done():
	}

	app.shutdown()
}

func (app *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	app.logger.Info(ctx, "shutting down")

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error(ctx, "http shutdown error", "error", err)
	}
	if err := app.driver.Stop(ctx); err != nil {
		app.logger.Error(ctx, "attestation pool shutdown error", "error", err)
	}
	if app.rdb != nil {
		if err := app.rdb.Close(); err != nil {
			app.logger.Error(ctx, "redis close error", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}

	app.logger.Info(ctx, "shutdown complete")
}
