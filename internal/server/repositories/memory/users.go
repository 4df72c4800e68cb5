package memory

import (
	"context"
	"slices"

	"github.com/dmitrijs2005/authcore/internal/common"
	"github.com/dmitrijs2005/authcore/internal/server/models"
	"github.com/google/uuid"
)

type userRepo struct {
	s      *Store
	locked bool
}

func copyUser(u models.User) *models.User {
	u.PasswordHash = slices.Clone(u.PasswordHash)
	return &u
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var out *models.User
	err := r.s.run(r.locked, func(st *state) error {
		id, ok := st.byEmail[email]
		if !ok {
			return common.ErrorNotFound
		}
		out = copyUser(st.users[id])
		return nil
	})
	return out, err
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	var out *models.User
	err := r.s.run(r.locked, func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return common.ErrorNotFound
		}
		out = copyUser(u)
		return nil
	})
	return out, err
}

func (r *userRepo) Create(ctx context.Context, email, displayName string, passwordHash []byte) (*models.User, error) {
	var out *models.User
	err := r.s.run(r.locked, func(st *state) error {
		if _, ok := st.byEmail[email]; ok {
			return common.ErrDuplicateEmail
		}
		u := models.User{
			ID:           uuid.NewString(),
			Email:        email,
			DisplayName:  displayName,
			PasswordHash: slices.Clone(passwordHash),
			CreatedAt:    r.s.now().UTC(),
		}
		st.users[u.ID] = u
		st.byEmail[email] = u.ID
		out = copyUser(u)
		return nil
	})
	return out, err
}
