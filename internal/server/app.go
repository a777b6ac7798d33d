// Package server assembles the auth backend: it opens the database, applies
// migrations, builds the auth service and runs the HTTP API until a signal
// arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/aidesk/internal/dbx"
	"github.com/dmitrijs2005/aidesk/internal/logging"
	"github.com/dmitrijs2005/aidesk/internal/server/auth"
	"github.com/dmitrijs2005/aidesk/internal/server/config"
	"github.com/dmitrijs2005/aidesk/internal/server/httpapi"
	"github.com/dmitrijs2005/aidesk/internal/server/identity"
	"github.com/dmitrijs2005/aidesk/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/aidesk/internal/server/services"
)

// Seams for tests.
var (
	openDB     = dbx.Open
	newManager = func() repomanager.RepositoryManager { return repomanager.NewPostgresRepositoryManager() }
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	service *services.AuthService
	issuer  *auth.Issuer
}

// Backend is what both the server and the admin CLI need: a migrated
// database and an auth service on top of it.
type Backend struct {
	DB      *sql.DB
	Service *services.AuthService
	Issuer  *auth.Issuer
}

// OpenBackend connects to the database, applies migrations and builds the
// auth service. The caller owns Backend.DB.
func OpenBackend(ctx context.Context, c *config.Config, l logging.Logger) (*Backend, error) {
	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := newManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	issuer := auth.NewIssuer(c.SecretKey, c.TokenValidityDuration)
	svc := services.NewAuthService(db, m, issuer, c, l)

	return &Backend{DB: db, Service: svc, Issuer: issuer}, nil
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogBackend, c.Debug, os.Stdout)
	if err != nil {
		return nil, err
	}

	b, err := OpenBackend(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	return &App{config: c, logger: logger, db: b.DB, service: b.Service, issuer: b.Issuer}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// googleVerifier is nil while no client id is configured, which turns
// Google login off.
func (app *App) googleVerifier() identity.Verifier {
	if app.config.GoogleClientID == "" {
		return nil
	}
	return identity.NewGoogleVerifier(app.config.GoogleClientID, app.config.GoogleTokenInfoURL, nil)
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config, app.logger, app.service, app.issuer, app.googleVerifier(), app.db)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "close db", "error", err)
	}
	app.logger.Info(ctx, "App stopped")

	if z, ok := app.logger.(*logging.ZapLogger); ok {
		_ = z.Sync()
	}
}
