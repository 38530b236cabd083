// Package server assembles the application: it opens the database, applies
// migrations, builds the auth services and runs the HTTP API until the
// process is asked to stop.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/promptlazy/internal/logging"
	"github.com/dmitrijs2005/promptlazy/internal/server/auth"
	"github.com/dmitrijs2005/promptlazy/internal/server/config"
	"github.com/dmitrijs2005/promptlazy/internal/server/httpserver"
	"github.com/dmitrijs2005/promptlazy/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/promptlazy/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	httpServer *httpserver.HTTPServer
}

// openDB is a seam for tests.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

// NewApp wires every component from c. Logs go to w.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (*App, error) {
	logger, err := logging.New(c.LogBackend, w)
	if err != nil {
		return nil, err
	}

	hasher, err := auth.NewPasswordHasher(c.PasswordHashAlgorithm, c.PasswordHashCost)
	if err != nil {
		return nil, err
	}

	codec, err := auth.NewTokenCodec([]byte(c.SecretKey), c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration)
	if err != nil {
		return nil, err
	}

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	as, err := services.NewAuthService(db, rm, hasher, codec, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	resolver := services.NewCurrentUserResolver(db, rm, codec)

	router := httpserver.NewRouter(httpserver.NewHandler(as, logger), resolver, httpserver.RouterConfig{
		CORSAllowedOrigins: c.CORSAllowedOrigins,
		RateLimiter:        httpserver.NewRateLimiter(c.RateLimitPerMinute),
	})

	return &App{
		config:     c,
		logger:     logger,
		db:         db,
		httpServer: httpserver.NewHTTPServer(c.EndpointAddrHTTP, router, logger),
	}, nil
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM/SIGQUIT arrives, then
// closes the database.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.httpServer.Run(ctx)
	})

	err := g.Wait()
	if cerr := app.db.Close(); cerr != nil && err == nil {
		err = cerr
	}

	app.logger.Info(context.Background(), "App stopped")
	return err
}
