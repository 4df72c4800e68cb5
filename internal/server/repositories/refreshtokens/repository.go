// Package refreshtokens is the session token store: one row per issued,
// not yet redeemed refresh token.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authcore/internal/server/models"
)

// TokenIDBytes is the number of random bytes behind a token id (256 bits).
const TokenIDBytes = 32

// Repository defines operations for issuing, looking up and retiring
// session token records.
type Repository interface {
	// Create stores a new record for userID with a fresh random token id
	// and an expiry of now+validity.
	Create(ctx context.Context, userID string, validity time.Duration) (*models.RefreshToken, error)

	// FindByTokenAndUser returns common.ErrorNotFound unless a record with
	// both the token id and the owner exists.
	FindByTokenAndUser(ctx context.Context, tokenID, userID string) (*models.RefreshToken, error)

	// DeleteByTokenID reports whether a record was removed. Deleting a
	// missing record is not an error.
	DeleteByTokenID(ctx context.Context, tokenID string) (bool, error)

	// DeleteAllForUser removes every record of userID and returns how many
	// there were.
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
}
