package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/aidesk/internal/server/identity"
	"github.com/dmitrijs2005/aidesk/internal/server/models"
	"github.com/dmitrijs2005/aidesk/internal/server/services"
	"github.com/labstack/echo/v4"
)

// Flow labels for aidesk_auth_outcomes_total.
const (
	flowAdminRegister = "admin_register"
	flowAdminLogin    = "admin_login"
	flowUserRegister  = "user_register"
	flowUserLogin     = "user_login"
	flowGoogleLogin   = "google_login"
)

// flowForRoute maps a route template to its flow label.
func flowForRoute(route string) string {
	switch route {
	case "/api/auth/admin/register":
		return flowAdminRegister
	case "/api/auth/admin/login":
		return flowAdminLogin
	case "/api/auth/user/register":
		return flowUserRegister
	case "/api/auth/user/login":
		return flowUserLogin
	case "/api/auth/user/google":
		return flowGoogleLogin
	default:
		return "other"
	}
}

type registerAdminRequest struct {
	Email    string  `json:"email"`
	Username string  `json:"username"`
	Password string  `json:"password"`
	Role     string  `json:"role"`
	Module   *string `json:"module"`
}

type registerUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// googleLoginRequest accepts the Google Identity Services field name
// (credential) as well as id_token.
type googleLoginRequest struct {
	Credential string `json:"credential"`
	IDToken    string `json:"id_token"`
	Name       string `json:"name"`
}

func (r googleLoginRequest) token() string {
	if r.Credential != "" {
		return r.Credential
	}
	return r.IDToken
}

type adminView struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Module    *string   `json:"module"`
	CreatedAt time.Time `json:"created_at"`
}

func newAdminView(a *models.Admin) adminView {
	return adminView{ID: a.ID, Email: a.Email, Username: a.Username, Role: a.Role, Module: a.Module, CreatedAt: a.CreatedAt}
}

type userView struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	UserAdminID    *int64    `json:"user_admin_id"`
	UserAdminEmail *string   `json:"user_admin_email"`
	CreatedAt      time.Time `json:"created_at"`
}

func newUserView(u *models.User) userView {
	return userView{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Role:           u.Role,
		UserAdminID:    u.UserAdminID,
		UserAdminEmail: u.UserAdminEmail,
		CreatedAt:      u.CreatedAt,
	}
}

type adminSessionView struct {
	Admin     adminView `json:"admin"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type userSessionView struct {
	User      userView  `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) bind(c echo.Context, dst any) bool {
	if err := c.Bind(dst); err != nil {
		s.logger.Debug(c.Request().Context(), "bad request body", "error", err)
		return false
	}
	return true
}

// serviceError records the outcome of a failed flow and writes the response.
func (s *Server) serviceError(c echo.Context, flow string, err error) error {
	status, msg, outcome := classify(err)
	s.metrics.authOutcome(flow, outcome)
	if status >= http.StatusInternalServerError {
		s.logger.Error(c.Request().Context(), "auth flow failed", "flow", flow, "error", err)
	}
	return fail(c, status, msg)
}

func (s *Server) adminSession(c echo.Context, flow string, status int, sess *services.AdminSession) error {
	s.metrics.authOutcome(flow, "success")
	return ok(c, status, adminSessionView{Admin: newAdminView(sess.Admin), Token: sess.Token, ExpiresAt: sess.ExpiresAt})
}

func (s *Server) userSession(c echo.Context, flow string, status int, sess *services.UserSession) error {
	s.metrics.authOutcome(flow, "success")
	return ok(c, status, userSessionView{User: newUserView(sess.User), Token: sess.Token, ExpiresAt: sess.ExpiresAt})
}

func (s *Server) handleRegisterAdmin(c echo.Context) error {
	var req registerAdminRequest
	if !s.bind(c, &req) {
		return fail(c, http.StatusBadRequest, msgInvalidBody)
	}

	sess, err := s.auth.RegisterAdmin(c.Request().Context(), services.AdminRegistration{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
		Module:   req.Module,
	})
	if err != nil {
		return s.serviceError(c, flowAdminRegister, err)
	}
	return s.adminSession(c, flowAdminRegister, http.StatusCreated, sess)
}

func (s *Server) handleLoginAdmin(c echo.Context) error {
	var req loginRequest
	if !s.bind(c, &req) {
		return fail(c, http.StatusBadRequest, msgInvalidBody)
	}

	sess, err := s.auth.LoginAdmin(c.Request().Context(), services.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		return s.serviceError(c, flowAdminLogin, err)
	}
	return s.adminSession(c, flowAdminLogin, http.StatusOK, sess)
}

func (s *Server) handleRegisterUser(c echo.Context) error {
	var req registerUserRequest
	if !s.bind(c, &req) {
		return fail(c, http.StatusBadRequest, msgInvalidBody)
	}

	sess, err := s.auth.RegisterUser(c.Request().Context(), services.UserRegistration{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return s.serviceError(c, flowUserRegister, err)
	}
	return s.userSession(c, flowUserRegister, http.StatusCreated, sess)
}

func (s *Server) handleLoginUser(c echo.Context) error {
	var req loginRequest
	if !s.bind(c, &req) {
		return fail(c, http.StatusBadRequest, msgInvalidBody)
	}

	sess, err := s.auth.LoginUser(c.Request().Context(), services.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		return s.serviceError(c, flowUserLogin, err)
	}
	return s.userSession(c, flowUserLogin, http.StatusOK, sess)
}

// handleGoogleLogin verifies the ID token with Google first; only the
// verified email and name reach the service.
func (s *Server) handleGoogleLogin(c echo.Context) error {
	if s.google == nil {
		s.metrics.authOutcome(flowGoogleLogin, "disabled")
		return fail(c, http.StatusServiceUnavailable, "Google login is not configured")
	}

	var req googleLoginRequest
	if !s.bind(c, &req) {
		return fail(c, http.StatusBadRequest, msgInvalidBody)
	}
	token := strings.TrimSpace(req.token())
	if token == "" {
		s.metrics.authOutcome(flowGoogleLogin, "invalid")
		return fail(c, http.StatusBadRequest, "credential is required")
	}

	ctx := c.Request().Context()
	verified, err := s.google.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, identity.ErrRejected) {
			s.metrics.authOutcome(flowGoogleLogin, "unauthorized")
			return fail(c, http.StatusUnauthorized, "Invalid Google credential")
		}
		s.metrics.authOutcome(flowGoogleLogin, "upstream_error")
		s.logger.Error(ctx, "google verification failed", "error", err)
		return fail(c, http.StatusBadGateway, "Google verification unavailable")
	}

	name := verified.Name
	if name == "" {
		name = req.Name
	}

	sess, err := s.auth.LoginWithGoogle(ctx, services.GoogleLogin{Email: verified.Email, Name: name})
	if err != nil {
		return s.serviceError(c, flowGoogleLogin, err)
	}
	return s.userSession(c, flowGoogleLogin, http.StatusOK, sess)
}

type meView struct {
	ID        int64                `json:"id"`
	Email     string               `json:"email"`
	Role      string               `json:"role"`
	Type      models.PrincipalType `json:"type"`
	ExpiresAt *time.Time           `json:"expires_at,omitempty"`
}

func (s *Server) handleMe(c echo.Context) error {
	claims, found := claimsFrom(c)
	if !found {
		return fail(c, http.StatusUnauthorized, msgTokenRequired)
	}

	v := meView{ID: claims.PrincipalID, Email: claims.Email, Role: claims.Role, Type: claims.Type}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		v.ExpiresAt = &exp
	}
	return ok(c, http.StatusOK, v)
}

func (s *Server) handleHealth(c echo.Context) error {
	return ok(c, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(c echo.Context) error {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Warn(ctx, "readiness check failed", "error", err)
			return fail(c, http.StatusServiceUnavailable, "Database unavailable")
		}
	}
	return ok(c, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleIndex(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"message": "aidesk auth API",
		"endpoints": map[string]string{
			"adminRegister": "POST /api/auth/admin/register",
			"adminLogin":    "POST /api/auth/admin/login",
			"userRegister":  "POST /api/auth/user/register",
			"userLogin":     "POST /api/auth/user/login",
			"googleLogin":   "POST /api/auth/user/google",
			"me":            "GET /api/auth/me",
		},
	})
}
