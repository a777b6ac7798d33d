// Package services contains server-side business logic. AuthService runs the
// five authentication flows: admin and user registration, admin and user
// password login, and login with an already verified Google identity.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/aidesk/internal/common"
	"github.com/dmitrijs2005/aidesk/internal/dbx"
	"github.com/dmitrijs2005/aidesk/internal/logging"
	"github.com/dmitrijs2005/aidesk/internal/server/auth"
	"github.com/dmitrijs2005/aidesk/internal/server/config"
	"github.com/dmitrijs2005/aidesk/internal/server/models"
	"github.com/dmitrijs2005/aidesk/internal/server/repositories/repomanager"
)

// randomPasswordBytes is the entropy of passwords minted for Google users.
const randomPasswordBytes = 32

var (
	errAdminExists = common.NewError(common.ErrorAlreadyExists, "Admin with this email already exists")
	errUserExists  = common.NewError(common.ErrorAlreadyExists, "User with this email already exists")
)

// AuthService looks principals up, verifies credentials and issues tokens.
// It holds no mutable state besides the lazily built decoy hash, so one
// instance serves concurrent requests.
type AuthService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	issuer      *auth.Issuer
	bcryptCost  int
	logger      logging.Logger

	decoyOnce sync.Once
	decoyHash string
}

// NewAuthService constructs an AuthService using repositories and server config.
func NewAuthService(db dbx.DBTX, m repomanager.RepositoryManager, issuer *auth.Issuer, cfg *config.Config, l logging.Logger) *AuthService {
	return &AuthService{
		db:          db,
		repomanager: m,
		issuer:      issuer,
		bcryptCost:  cfg.BcryptCost,
		logger:      l.With("module", "auth_service"),
	}
}

// RegisterAdmin creates an admin and returns it with a token of type admin.
// A taken email yields common.ErrorAlreadyExists before any hashing happens.
func (s *AuthService) RegisterAdmin(ctx context.Context, in AdminRegistration) (*AdminSession, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	repo := s.repomanager.Admins(s.db)

	_, err := repo.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, errAdminExists
	case !errors.Is(err, common.ErrorNotFound):
		return nil, s.storeError(ctx, "lookup admin", err)
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	admin, err := repo.Create(ctx, &models.Admin{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		Role:         in.Role,
		Module:       in.Module,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, errAdminExists
		}
		return nil, s.storeError(ctx, "create admin", err)
	}

	s.logger.Info(ctx, "admin registered", "admin_id", admin.ID, "role", admin.Role)
	return s.adminSession(admin)
}

// LoginAdmin accepts both bcrypt and legacy scrypt hashes. An unknown email
// and a wrong password yield the same common.ErrorUnauthorized.
func (s *AuthService) LoginAdmin(ctx context.Context, in Credentials) (*AdminSession, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	admin, err := s.repomanager.Admins(s.db).GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.burnDecoy(in.Password)
			s.logger.Warn(ctx, "admin login failed", "reason", "unknown email")
			return nil, common.ErrorUnauthorized
		}
		return nil, s.storeError(ctx, "lookup admin", err)
	}

	if !auth.Verify(in.Password, admin.PasswordHash) {
		s.logger.Warn(ctx, "admin login failed", "admin_id", admin.ID, "reason", "password mismatch")
		return nil, common.ErrorUnauthorized
	}

	return s.adminSession(admin)
}

// RegisterUser creates a self-registered end-user. The role is always
// models.RoleUser and the user is not linked to any admin.
func (s *AuthService) RegisterUser(ctx context.Context, in UserRegistration) (*UserSession, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, errUserExists
	case !errors.Is(err, common.ErrorNotFound):
		return nil, s.storeError(ctx, "lookup user", err)
	}

	user, err := s.createUser(ctx, in.Name, in.Email, in.Password)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, errUserExists
		}
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return s.userSession(user)
}

// LoginUser only accepts bcrypt hashes.
func (s *AuthService) LoginUser(ctx context.Context, in Credentials) (*UserSession, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.burnDecoy(in.Password)
			s.logger.Warn(ctx, "user login failed", "reason", "unknown email")
			return nil, common.ErrorUnauthorized
		}
		return nil, s.storeError(ctx, "lookup user", err)
	}

	if !auth.VerifyBcrypt(in.Password, user.PasswordHash) {
		s.logger.Warn(ctx, "user login failed", "user_id", user.ID, "reason", "password mismatch")
		return nil, common.ErrorUnauthorized
	}

	return s.userSession(user)
}

// LoginWithGoogle signs in the user owning in.Email, creating it with a
// random password on first sight. The identity must already be verified.
// Concurrent first logins for one email converge on a single user.
func (s *AuthService) LoginWithGoogle(ctx context.Context, in GoogleLogin) (*UserSession, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, in.Email)
	if err == nil {
		return s.userSession(user)
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, s.storeError(ctx, "lookup user", err)
	}

	password, err := common.MakeRandHexString(randomPasswordBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: random password: %w", common.ErrorInternal, err)
	}

	user, err = s.createUser(ctx, in.Name, in.Email, password)
	if errors.Is(err, common.ErrorAlreadyExists) {
		// lost the insert race; the winner's row is the account
		user, err = repo.GetByEmail(ctx, in.Email)
		if err != nil {
			return nil, s.storeError(ctx, "reload user", err)
		}
	} else if err != nil {
		return nil, err
	} else {
		s.logger.Info(ctx, "user created from google login", "user_id", user.ID)
	}

	return s.userSession(user)
}

func (s *AuthService) createUser(ctx context.Context, name, email, password string) (*models.User, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).Create(ctx, &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, s.storeError(ctx, "create user", err)
	}
	return user, nil
}

func (s *AuthService) adminSession(admin *models.Admin) (*AdminSession, error) {
	token, exp, err := s.issuer.Issue(admin)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	view := *admin
	view.PasswordHash = ""
	return &AdminSession{Admin: &view, Token: token, ExpiresAt: exp}, nil
}

func (s *AuthService) userSession(user *models.User) (*UserSession, error) {
	token, exp, err := s.issuer.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	view := *user
	view.PasswordHash = ""
	return &UserSession{User: &view, Token: token, ExpiresAt: exp}, nil
}

func (s *AuthService) storeError(ctx context.Context, op string, err error) error {
	s.logger.Error(ctx, "store failure", "op", op, "error", err)
	return fmt.Errorf("%w: %s: %w", common.ErrorInternal, op, err)
}

// burnDecoy spends one bcrypt comparison so that an unknown email costs
// about as much as a wrong password.
func (s *AuthService) burnDecoy(password string) {
	s.decoyOnce.Do(func() {
		seed, err := common.MakeRandHexString(16)
		if err != nil {
			seed = "decoy"
		}
		s.decoyHash, _ = auth.HashPassword(seed, s.bcryptCost)
	})
	_ = auth.VerifyBcrypt(password, s.decoyHash)
}
