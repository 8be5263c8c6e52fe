// Package server wires the farmhand components together and runs the
// HTTP API until the process is asked to stop.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/farmhand/internal/cryptox"
	"github.com/dmitrijs2005/farmhand/internal/logging"
	"github.com/dmitrijs2005/farmhand/internal/server/auth"
	"github.com/dmitrijs2005/farmhand/internal/server/config"
	"github.com/dmitrijs2005/farmhand/internal/server/metrics"
	"github.com/dmitrijs2005/farmhand/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/farmhand/internal/server/rest"
	"github.com/dmitrijs2005/farmhand/internal/server/services"
	"github.com/gin-gonic/gin"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	httpServer  *rest.HTTPServer
}

// openStore is a seam for tests that must not reach PostgreSQL.
var openStore = func(ctx context.Context, dsn string) (repomanager.RepositoryManager, error) {
	if dsn == "" {
		return repomanager.NewMemoryRepositoryManager(), nil
	}
	return repomanager.OpenPostgres(ctx, dsn)
}

// NewApp builds the server from c. The signing key is checked first, so a
// missing or short key fails with common.ErrSigningKeyUnavailable.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	codec, err := auth.NewTokenCodec([]byte(c.SecretKey))
	if err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	if c.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	hasher, err := cryptox.NewHasher(c.PasswordHasher, c.BcryptCost)
	if err != nil {
		return nil, err
	}

	rm, err := openStore(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	verifier, err := services.NewCredentialVerifier(rm.Users(), hasher, c.StoreTimeout)
	if err != nil {
		_ = rm.Close()
		return nil, err
	}
	us := services.NewUserService(rm, codec, verifier, hasher, c.StoreTimeout, logger)
	fs := services.NewFieldService(rm, c.StoreTimeout, logger)
	hs := rest.NewHTTPServer(c.EndpointAddrHTTP, logger, us, fs, codec, rm.Users(), c.StoreTimeout, metrics.New())

	return &App{config: c, logger: logger, repomanager: rm, httpServer: hs}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// releases the store.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "store", storeKind(app.config.DatabaseDSN))

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.repomanager.Close(); err != nil {
		app.logger.Error(ctx, "store close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}

func storeKind(dsn string) string {
	if dsn == "" {
		return "memory"
	}
	return "postgres"
}
