// Package admins persists admin principals.
package admins

import (
	"context"

	"github.com/dmitrijs2005/aidesk/internal/server/models"
)

type Repository interface {
	// Create inserts admin and fills in its ID and CreatedAt.
	// A duplicate email yields common.ErrorAlreadyExists.
	Create(ctx context.Context, admin *models.Admin) (*models.Admin, error)
	// GetByEmail yields common.ErrorNotFound when no admin has the email.
	GetByEmail(ctx context.Context, email string) (*models.Admin, error)
}
