package adminctl

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/aidesk/internal/common"
	"github.com/dmitrijs2005/aidesk/internal/server/models"
	"github.com/dmitrijs2005/aidesk/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistrar struct {
	got services.AdminRegistration
	err error
}

func (f *fakeRegistrar) RegisterAdmin(_ context.Context, in services.AdminRegistration) (*services.AdminSession, error) {
	f.got = in
	if f.err != nil {
		return nil, f.err
	}
	return &services.AdminSession{
		Admin:     &models.Admin{ID: 42, Email: in.Email, Username: in.Username, Role: "admin"},
		Token:     "header.payload.sig",
		ExpiresAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}, nil
}

func newTestApp(r Registrar, input string) (*App, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &App{registrar: r, in: bufio.NewReader(strings.NewReader(input)), out: out}, out
}

func TestParseOptions(t *testing.T) {
	o, err := ParseOptions([]string{"-d", "postgres://x", "-email", "ops@acme.io", "-username=ops", "-module", "billing", "-s", "k"})
	require.NoError(t, err)
	assert.Equal(t, Options{Email: "ops@acme.io", Username: "ops", Module: "billing"}, o)

	o, err = ParseOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, Options{}, o)
}

func TestRun_FromFlags(t *testing.T) {
	stubTerminal(t, true, []byte("pw"), nil)
	r := &fakeRegistrar{}
	app, out := newTestApp(r, "")

	err := app.Run(context.Background(), Options{Email: "ops@acme.io", Username: "ops", Role: "superadmin", Module: "billing"})
	require.NoError(t, err)

	assert.Equal(t, "ops@acme.io", r.got.Email)
	assert.Equal(t, "pw", r.got.Password)
	assert.Equal(t, "superadmin", r.got.Role)
	require.NotNil(t, r.got.Module)
	assert.Equal(t, "billing", *r.got.Module)
	assert.Contains(t, out.String(), "Admin 42 created: ops@acme.io (admin)")
	assert.Contains(t, out.String(), "header.payload.sig")
}

func TestRun_Prompts(t *testing.T) {
	stubTerminal(t, false, nil, nil)
	r := &fakeRegistrar{}
	app, out := newTestApp(r, "ops@acme.io\nops\npw\n")

	require.NoError(t, app.Run(context.Background(), Options{}))
	assert.Equal(t, services.AdminRegistration{Email: "ops@acme.io", Username: "ops", Password: "pw"}, r.got)
	assert.Contains(t, out.String(), "Email: ")
	assert.Contains(t, out.String(), "Username: ")
}

func TestRun_ServiceErrorShowsMessage(t *testing.T) {
	stubTerminal(t, true, []byte("pw"), nil)
	r := &fakeRegistrar{err: common.NewError(common.ErrorAlreadyExists, "Admin with this email already exists")}
	app, _ := newTestApp(r, "")

	err := app.Run(context.Background(), Options{Email: "ops@acme.io", Username: "ops"})
	assert.EqualError(t, err, "Admin with this email already exists")

	r.err = errors.New("db error: boom")
	err = app.Run(context.Background(), Options{Email: "ops@acme.io", Username: "ops"})
	assert.EqualError(t, err, "db error: boom")
}
