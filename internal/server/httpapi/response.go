package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/aidesk/internal/common"
	"github.com/labstack/echo/v4"
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func ok(c echo.Context, status int, data any) error {
	return c.JSON(status, envelope{Success: true, Data: data})
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, envelope{Success: false, Error: msg})
}

// Messages shown for errors that carry no client-facing text of their own.
const (
	msgInvalidCredentials = "Invalid credentials"
	msgInternal           = "Internal server error"
	msgTokenRequired      = "Access token required"
	msgTokenInvalid       = "Invalid or expired token"
	msgRouteNotFound      = "Route not found"
	msgInvalidBody        = "Invalid JSON body"
	msgTooManyRequests    = "Too many requests"
)

// classify maps a service error to an HTTP status, a client message and a
// metrics outcome label.
func classify(err error) (int, string, string) {
	msg := ""
	var ce *common.Error
	if errors.As(err, &ce) {
		msg = ce.Message
	}

	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, orDefault(msg, "Invalid request"), "invalid"
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict, orDefault(msg, "Already exists"), "conflict"
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, msgInvalidCredentials, "unauthorized"
	default:
		return http.StatusInternalServerError, msgInternal, "error"
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// errorHandler renders framework errors (unknown route, bad method, panics)
// in the same envelope as handler errors.
func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	msg := msgInternal

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		switch status {
		case http.StatusNotFound:
			msg = msgRouteNotFound
		case http.StatusInternalServerError:
		default:
			if m, ok := he.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(status)
			}
		}
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error(c.Request().Context(), "request failed", "uri", c.Request().RequestURI, "error", err)
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = fail(c, status, msg)
	}
	if werr != nil {
		s.logger.Error(c.Request().Context(), "write error response", "error", werr)
	}
}
