// Package identity verifies third-party identity tokens before the auth
// service trusts the email inside them.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrRejected means the provider (or our audience check) refused the token.
var ErrRejected = errors.New("identity token rejected")

// Verified is the identity vouched for by the provider.
type Verified struct {
	Subject string
	Email   string
	Name    string
}

// Verifier checks an ID token and returns the identity inside it.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (*Verified, error)
}

// GoogleVerifier checks Google ID tokens against the tokeninfo endpoint and
// requires them to be minted for our client id with a verified email.
type GoogleVerifier struct {
	clientID string
	endpoint string
	client   *http.Client
}

// NewGoogleVerifier returns a verifier for clientID. A nil client gets a
// default one with a 10s timeout.
func NewGoogleVerifier(clientID, endpoint string, client *http.Client) *GoogleVerifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &GoogleVerifier{clientID: clientID, endpoint: endpoint, client: client}
}

type tokenInfo struct {
	Audience      string `json:"aud"`
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified any    `json:"email_verified"`
	Name          string `json:"name"`
}

func (t tokenInfo) emailVerified() bool {
	switch v := t.EmailVerified.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	default:
		return false
	}
}

func (g *GoogleVerifier) Verify(ctx context.Context, idToken string) (*Verified, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, fmt.Errorf("%w: empty token", ErrRejected)
	}

	u, err := url.Parse(g.endpoint)
	if err != nil {
		return nil, fmt.Errorf("tokeninfo url: %w", err)
	}
	q := u.Query()
	q.Set("id_token", idToken)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("tokeninfo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tokeninfo call: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: tokeninfo status %d", ErrRejected, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("tokeninfo status %d", resp.StatusCode)
	}

	var info tokenInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&info); err != nil {
		return nil, fmt.Errorf("tokeninfo decode: %w", err)
	}

	if info.Audience != g.clientID {
		return nil, fmt.Errorf("%w: audience mismatch", ErrRejected)
	}
	if info.Email == "" || !info.emailVerified() {
		return nil, fmt.Errorf("%w: email not verified", ErrRejected)
	}

	return &Verified{Subject: info.Subject, Email: info.Email, Name: info.Name}, nil
}
