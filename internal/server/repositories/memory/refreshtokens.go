package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authcore/internal/common"
	"github.com/dmitrijs2005/authcore/internal/server/models"
	"github.com/dmitrijs2005/authcore/internal/server/repositories/refreshtokens"
)

type tokenRepo struct {
	s      *Store
	locked bool
}

func (r *tokenRepo) Create(ctx context.Context, userID string, validity time.Duration) (*models.RefreshToken, error) {
	tokenID, err := common.MakeRandHexString(refreshtokens.TokenIDBytes)
	if err != nil {
		return nil, fmt.Errorf("error generating token id: %w", err)
	}

	var out models.RefreshToken
	err = r.s.run(r.locked, func(st *state) error {
		now := r.s.now().UTC()
		out = models.RefreshToken{
			TokenID:   tokenID,
			UserID:    userID,
			ExpiresAt: now.Add(validity),
			CreatedAt: now,
		}
		st.tokens[tokenID] = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *tokenRepo) FindByTokenAndUser(ctx context.Context, tokenID, userID string) (*models.RefreshToken, error) {
	var out models.RefreshToken
	err := r.s.run(r.locked, func(st *state) error {
		t, ok := st.tokens[tokenID]
		if !ok || t.UserID != userID {
			return common.ErrorNotFound
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *tokenRepo) DeleteByTokenID(ctx context.Context, tokenID string) (bool, error) {
	var removed bool
	err := r.s.run(r.locked, func(st *state) error {
		if _, ok := st.tokens[tokenID]; ok {
			delete(st.tokens, tokenID)
			removed = true
		}
		return nil
	})
	return removed, err
}

func (r *tokenRepo) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.s.run(r.locked, func(st *state) error {
		for id, t := range st.tokens {
			if t.UserID == userID {
				delete(st.tokens, id)
				n++
			}
		}
		return nil
	})
	return n, err
}
