package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/aidesk/internal/common"
	"github.com/dmitrijs2005/aidesk/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

func fixedIssuer(secret string, ttl time.Duration, now time.Time) *Issuer {
	i := NewIssuer(secret, ttl)
	i.now = func() time.Time { return now }
	return i
}

func TestIssueAndValidate_Admin(t *testing.T) {
	t.Parallel()

	module := "sales"
	admin := &models.Admin{ID: 3, Email: "ops@acme.io", Username: "ops", Role: "admin", Module: &module}
	iss := NewIssuer("super-secret", time.Hour)

	tok, exp, err := iss.Issue(admin)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if d := time.Until(exp); d <= 59*time.Minute || d > time.Hour {
		t.Fatalf("unexpected expiry %v", exp)
	}

	claims, err := iss.Validate(tok)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	want := models.Identity{ID: 3, Email: "ops@acme.io", Role: "admin", Type: models.PrincipalAdmin}
	if got := claims.Identity(); got != want {
		t.Fatalf("identity mismatch: got %+v want %+v", got, want)
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		t.Fatalf("iat/exp must be set: %+v", claims.RegisteredClaims)
	}
}

func TestIssue_UserClaimsShape(t *testing.T) {
	t.Parallel()

	user := &models.User{ID: 42, Name: "Ann", Email: "ann@acme.io", Role: models.RoleUser, PasswordHash: "$2a$secret"}
	tok, _, err := NewIssuer("k", 24*time.Hour).Issue(user)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("want 3 token segments, got %d", len(parts))
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	for _, k := range []string{"id", "email", "role", "type", "exp", "iat"} {
		if _, ok := payload[k]; !ok {
			t.Fatalf("payload missing %q: %v", k, payload)
		}
	}
	if len(payload) != 6 {
		t.Fatalf("payload must carry exactly id/email/role/type/exp/iat, got %v", payload)
	}
	if payload["type"] != "user" || payload["id"] != float64(42) {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestValidate_Expired(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tok, _, err := fixedIssuer("secret", time.Hour, issuedAt).Issue(&models.User{ID: 1, Email: "u@x", Role: "user"})
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	later := fixedIssuer("secret", time.Hour, issuedAt.Add(time.Hour+time.Second))
	_, err = later.Validate(tok)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}

	within := fixedIssuer("secret", time.Hour, issuedAt.Add(59*time.Minute))
	if _, err := within.Validate(tok); err != nil {
		t.Fatalf("token must still be valid before expiry: %v", err)
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, _, err := NewIssuer("right-secret", time.Hour).Issue(&models.User{ID: 2, Email: "u@x", Role: "user"})
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = NewIssuer("wrong-secret", time.Hour).Validate(tok)
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected common.ErrInvalidToken, got %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	iss := NewIssuer(string(secret), time.Hour)
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	sign := func(method jwt.SigningMethod, key any, claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}

	tests := []struct {
		name  string
		token string
	}{
		{"malformed", "not.a.jwt"},
		{"empty", ""},
		{"alg none", sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType,
			Claims{PrincipalID: 1, Type: models.PrincipalAdmin, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}})},
		{"HS512", sign(jwt.SigningMethodHS512, secret,
			Claims{PrincipalID: 1, Type: models.PrincipalAdmin, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}})},
		{"no expiry", sign(jwt.SigningMethodHS256, secret,
			Claims{PrincipalID: 1, Type: models.PrincipalAdmin})},
		{"unknown type", sign(jwt.SigningMethodHS256, secret,
			Claims{PrincipalID: 1, Type: "root", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := iss.Validate(tt.token); !errors.Is(err, common.ErrInvalidToken) {
				t.Fatalf("expected common.ErrInvalidToken, got %v", err)
			}
		})
	}
}

type badPrincipal struct{}

func (badPrincipal) Identity() models.Identity { return models.Identity{ID: 1, Type: "guest"} }

func TestIssue_UnknownPrincipalType(t *testing.T) {
	t.Parallel()

	if _, _, err := NewIssuer("k", time.Hour).Issue(badPrincipal{}); err == nil {
		t.Fatalf("expected error for unknown principal type")
	}
}
