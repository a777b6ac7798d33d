// Package httpapi is the REST boundary of the auth backend. It translates
// JSON requests into auth service calls and service errors into the
// {success, data|error} envelope.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/aidesk/internal/dbx"
	"github.com/dmitrijs2005/aidesk/internal/logging"
	"github.com/dmitrijs2005/aidesk/internal/server/auth"
	"github.com/dmitrijs2005/aidesk/internal/server/config"
	"github.com/dmitrijs2005/aidesk/internal/server/identity"
	"github.com/dmitrijs2005/aidesk/internal/server/services"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// AuthService is the subset of services.AuthService the handlers call.
type AuthService interface {
	RegisterAdmin(ctx context.Context, in services.AdminRegistration) (*services.AdminSession, error)
	LoginAdmin(ctx context.Context, in services.Credentials) (*services.AdminSession, error)
	RegisterUser(ctx context.Context, in services.UserRegistration) (*services.UserSession, error)
	LoginUser(ctx context.Context, in services.Credentials) (*services.UserSession, error)
	LoginWithGoogle(ctx context.Context, in services.GoogleLogin) (*services.UserSession, error)
}

// TokenValidator checks bearer tokens on protected routes.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

type Server struct {
	address         string
	echo            *echo.Echo
	logger          logging.Logger
	auth            AuthService
	tokens          TokenValidator
	google          identity.Verifier
	db              dbx.Pinger
	metrics         *metrics
	shutdownTimeout time.Duration
}

// NewServer wires routes and middleware. google may be nil, in which case
// Google login answers 503. db may be nil, in which case /readyz only
// reports that the process is up.
func NewServer(cfg *config.Config, l logging.Logger, svc AuthService, tokens TokenValidator, google identity.Verifier, db dbx.Pinger) *Server {
	s := &Server{
		address:         cfg.EndpointAddrHTTP,
		logger:          l.With("module", "http_server"),
		auth:            svc,
		tokens:          tokens,
		google:          google,
		db:              db,
		metrics:         newMetrics(),
		shutdownTimeout: cfg.ShutdownTimeout,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.errorHandler

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestContext)
	e.Use(s.metrics.middleware)
	e.Use(s.requestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("64K"))

	e.GET("/", s.handleIndex)
	e.GET("/healthz", s.handleHealth)
	e.GET("/readyz", s.handleReady)
	e.GET("/metrics", echo.WrapHandler(s.metrics.handler()))

	g := e.Group("/api/auth")
	limited := g.Group("", s.rateLimit(cfg.AuthRateLimit, cfg.AuthRateBurst))
	if cfg.AllowAdminRegistration {
		limited.POST("/admin/register", s.handleRegisterAdmin)
	}
	limited.POST("/admin/login", s.handleLoginAdmin)
	limited.POST("/user/register", s.handleRegisterUser)
	limited.POST("/user/login", s.handleLoginUser)
	limited.POST("/user/google", s.handleGoogleLogin)
	g.GET("/me", s.handleMe, s.requireToken())

	s.echo = e
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	s.echo.Listener = listen

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())
		errCh <- s.echo.Start("")
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
