package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const clientID = "1234.apps.googleusercontent.com"

func tokeninfoServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "tok-123", r.URL.Query().Get("id_token"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGoogleVerifier_Verify(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		want     *Verified
		rejected bool
		wantErr  bool
	}{
		{
			name:   "ok string flag",
			status: http.StatusOK,
			body:   `{"aud":"` + clientID + `","sub":"42","email":"ann@gmail.com","email_verified":"true","name":"Ann"}`,
			want:   &Verified{Subject: "42", Email: "ann@gmail.com", Name: "Ann"},
		},
		{
			name:   "ok bool flag",
			status: http.StatusOK,
			body:   `{"aud":"` + clientID + `","sub":"7","email":"bob@gmail.com","email_verified":true}`,
			want:   &Verified{Subject: "7", Email: "bob@gmail.com"},
		},
		{
			name:     "other audience",
			status:   http.StatusOK,
			body:     `{"aud":"evil.apps.googleusercontent.com","email":"ann@gmail.com","email_verified":"true"}`,
			rejected: true,
		},
		{
			name:     "unverified email",
			status:   http.StatusOK,
			body:     `{"aud":"` + clientID + `","email":"ann@gmail.com","email_verified":"false"}`,
			rejected: true,
		},
		{
			name:     "no email",
			status:   http.StatusOK,
			body:     `{"aud":"` + clientID + `","email_verified":"true"}`,
			rejected: true,
		},
		{
			name:     "invalid token",
			status:   http.StatusBadRequest,
			body:     `{"error_description":"Invalid Value"}`,
			rejected: true,
		},
		{
			name:    "provider down",
			status:  http.StatusBadGateway,
			body:    `oops`,
			wantErr: true,
		},
		{
			name:    "garbage body",
			status:  http.StatusOK,
			body:    `not json`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := tokeninfoServer(t, tt.status, tt.body)
			v := NewGoogleVerifier(clientID, srv.URL+"/tokeninfo", srv.Client())

			got, err := v.Verify(context.Background(), "tok-123")
			switch {
			case tt.rejected:
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrRejected), err.Error())
			case tt.wantErr:
				require.Error(t, err)
				assert.False(t, errors.Is(err, ErrRejected), err.Error())
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestGoogleVerifier_EmptyToken(t *testing.T) {
	v := NewGoogleVerifier(clientID, "http://127.0.0.1:1/tokeninfo", nil)
	_, err := v.Verify(context.Background(), "  ")
	require.ErrorIs(t, err, ErrRejected)
}

func TestGoogleVerifier_ContextCanceled(t *testing.T) {
	srv := tokeninfoServer(t, http.StatusOK, `{}`)
	v := NewGoogleVerifier(clientID, srv.URL, srv.Client())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := v.Verify(ctx, "tok-123")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRejected))
}
