package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authcore/internal/common"
	"github.com/dmitrijs2005/authcore/internal/dbx"
	"github.com/dmitrijs2005/authcore/internal/server/models"
	"github.com/google/uuid"
)

// PostgresRepository implements Repository over dbx.DBTX, so it works the
// same on *sql.DB and inside a *sql.Tx.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, userID string, validity time.Duration) (*models.RefreshToken, error) {
	tokenID, err := common.MakeRandHexString(TokenIDBytes)
	if err != nil {
		return nil, fmt.Errorf("error generating token id: %w", err)
	}

	query := `
		INSERT INTO refresh_tokens (token_id, user_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	token := &models.RefreshToken{
		TokenID:   tokenID,
		UserID:    userID,
		ExpiresAt: time.Now().Add(validity).UTC(),
	}
	if err := r.db.QueryRowContext(ctx, query, token.TokenID, token.UserID, token.ExpiresAt).Scan(&token.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

func (r *PostgresRepository) FindByTokenAndUser(ctx context.Context, tokenID, userID string) (*models.RefreshToken, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, common.ErrorNotFound
	}

	query := `
		SELECT token_id, user_id, expires_at, created_at
		FROM refresh_tokens
		WHERE token_id = $1 AND user_id = $2
	`

	token := &models.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, tokenID, userID).
		Scan(&token.TokenID, &token.UserID, &token.ExpiresAt, &token.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return token, nil
}

func (r *PostgresRepository) DeleteByTokenID(ctx context.Context, tokenID string) (bool, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE token_id = $1
	`

	res, err := r.db.ExecContext(ctx, query, tokenID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return 0, nil
	}

	query := `
		DELETE FROM refresh_tokens
		WHERE user_id = $1
	`

	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
