// Package users is the credential store: user identity plus password hash,
// keyed by a unique email.
package users

import (
	"context"

	"github.com/dmitrijs2005/authcore/internal/server/models"
)

// Repository is the credential store contract. Lookups return
// common.ErrorNotFound when nothing matches; Create returns
// common.ErrDuplicateEmail when the email is already taken, which must be
// enforced at the storage layer, not by a prior lookup.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, email, displayName string, passwordHash []byte) (*models.User, error)
}
