package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/aidesk/internal/common"
	"github.com/dmitrijs2005/aidesk/internal/logging"
	"github.com/dmitrijs2005/aidesk/internal/server/auth"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// claimsContextKey holds the *auth.Claims of an authenticated request.
const claimsContextKey = "claims"

// requireToken accepts only requests carrying a valid bearer token. A missing
// token is answered with 401, a bad or expired one with 403.
func (s *Server) requireToken() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  claimsContextKey,
		TokenLookup: "header:" + common.AuthorizationHeaderName + ":" + common.BearerScheme + " ",
		ParseTokenFunc: func(c echo.Context, token string) (any, error) {
			return s.tokens.Validate(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if errors.Is(err, common.ErrInvalidToken) || errors.Is(err, common.ErrTokenExpired) {
				s.logger.Debug(c.Request().Context(), "token rejected", "error", err)
				return fail(c, http.StatusForbidden, msgTokenInvalid)
			}
			return fail(c, http.StatusUnauthorized, msgTokenRequired)
		},
	})
}

// claimsFrom returns the claims stored by requireToken.
func claimsFrom(c echo.Context) (*auth.Claims, bool) {
	claims, ok := c.Get(claimsContextKey).(*auth.Claims)
	return claims, ok
}

// requestContext copies the request id set by the RequestID middleware into
// the request context, where the loggers pick it up.
func requestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Response().Header().Get(echo.HeaderXRequestID)
		req := c.Request()
		c.SetRequest(req.WithContext(logging.WithRequestID(req.Context(), id)))
		return next(c)
	}
}

// requestLogger logs one line per request through the server logger.
func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			args := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
			}
			if v.Error != nil {
				args = append(args, "error", v.Error.Error())
			}
			s.logger.Info(c.Request().Context(), "request", args...)
			return nil
		},
	})
}

// rateLimit returns a per-client-IP token bucket, or a pass-through when
// limit is zero.
func (s *Server) rateLimit(limit float64, burst int) echo.MiddlewareFunc {
	if limit <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(limit),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return fail(c, http.StatusForbidden, "Unable to identify client")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			s.metrics.authOutcome(flowForRoute(c.Path()), "rate_limited")
			return fail(c, http.StatusTooManyRequests, msgTooManyRequests)
		},
	})
}
