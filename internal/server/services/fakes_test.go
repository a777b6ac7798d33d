package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/aidesk/internal/common"
	"github.com/dmitrijs2005/aidesk/internal/dbx"
	"github.com/dmitrijs2005/aidesk/internal/logging"
	"github.com/dmitrijs2005/aidesk/internal/server/auth"
	"github.com/dmitrijs2005/aidesk/internal/server/config"
	"github.com/dmitrijs2005/aidesk/internal/server/models"
	admrepo "github.com/dmitrijs2005/aidesk/internal/server/repositories/admins"
	usrrepo "github.com/dmitrijs2005/aidesk/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

// --- in-memory repositories ---

type fakeAdminsRepo struct {
	mu          sync.Mutex
	byEmail     map[string]*models.Admin
	nextID      int64
	createCalls int

	getErr    error
	createErr error
}

func newFakeAdminsRepo() *fakeAdminsRepo {
	return &fakeAdminsRepo{byEmail: map[string]*models.Admin{}, nextID: 1}
}

func (f *fakeAdminsRepo) Create(ctx context.Context, a *models.Admin) (*models.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.byEmail[a.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}
	stored := *a
	stored.ID = f.nextID
	stored.CreatedAt = time.Now()
	f.nextID++
	f.byEmail[a.Email] = &stored
	out := stored
	return &out, nil
}

func (f *fakeAdminsRepo) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	a, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *a
	return &out, nil
}

func (f *fakeAdminsRepo) seed(a models.Admin) *models.Admin {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = f.nextID
	f.nextID++
	f.byEmail[a.Email] = &a
	return &a
}

type fakeUsersRepo struct {
	mu          sync.Mutex
	byEmail     map[string]*models.User
	nextID      int64
	createCalls int

	getErr    error
	createErr error
	// hiddenLookups makes the next n GetByEmail calls miss, as if another
	// request inserted the row right after our lookup.
	hiddenLookups int
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{byEmail: map[string]*models.User{}, nextID: 100}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.byEmail[u.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}
	stored := *u
	stored.ID = f.nextID
	stored.CreatedAt = time.Now()
	f.nextID++
	f.byEmail[u.Email] = &stored
	out := stored
	return &out, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.hiddenLookups > 0 {
		f.hiddenLookups--
		return nil, common.ErrorNotFound
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *u
	return &out, nil
}

func (f *fakeUsersRepo) seed(u models.User) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.ID = f.nextID
	f.nextID++
	f.byEmail[u.Email] = &u
	return &u
}

func (f *fakeUsersRepo) stored(email string) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byEmail[email]
}

type fakeRepoManager struct {
	a *fakeAdminsRepo
	u *fakeUsersRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Admins(db dbx.DBTX) admrepo.Repository       { return m.a }
func (m *fakeRepoManager) Users(db dbx.DBTX) usrrepo.Repository        { return m.u }

// --- helpers ---

const testSecret = "test-secret"

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newAuthService(t *testing.T) (*AuthService, *fakeRepoManager) {
	t.Helper()
	rm := &fakeRepoManager{a: newFakeAdminsRepo(), u: newFakeUsersRepo()}
	cfg := &config.Config{
		SecretKey:             testSecret,
		TokenValidityDuration: 24 * time.Hour,
		BcryptCost:            bcrypt.MinCost,
	}
	issuer := auth.NewIssuer(cfg.SecretKey, cfg.TokenValidityDuration)
	return NewAuthService(nil, rm, issuer, cfg, discardLogger()), rm
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	h, err := auth.HashPassword(password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return h
}

func validateToken(t *testing.T, token string) *auth.Claims {
	t.Helper()
	claims, err := auth.NewIssuer(testSecret, time.Hour).Validate(token)
	if err != nil {
		t.Fatalf("token does not validate: %v", err)
	}
	return claims
}
