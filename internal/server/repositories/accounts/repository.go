package accounts

import (
	"context"

	"github.com/dmitrijs2005/csemotors/internal/server/models"
)

// Repository is the credential store. Lookups by email are
// case-insensitive; absent rows yield common.ErrorNotFound and unique
// email violations yield common.ErrorAlreadyExists.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByID(ctx context.Context, id int64) (*models.Account, error)
	Create(ctx context.Context, a *models.Account) (*models.Account, error)
	UpdateProfile(ctx context.Context, id int64, firstName, lastName, email string) (*models.Account, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) (int64, error)
	UpdateRole(ctx context.Context, id int64, role models.Role) (int64, error)
}
