// Package memory keeps credentials and session tokens in process memory.
// It backs the dev "memory" storage mode and the service tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/authcore/internal/server/models"
	"github.com/dmitrijs2005/authcore/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/authcore/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authcore/internal/server/repositories/users"
)

type state struct {
	users   map[string]models.User
	byEmail map[string]string
	tokens  map[string]models.RefreshToken
}

func newState() *state {
	return &state{
		users:   make(map[string]models.User),
		byEmail: make(map[string]string),
		tokens:  make(map[string]models.RefreshToken),
	}
}

func (s *state) clone() *state {
	c := &state{
		users:   make(map[string]models.User, len(s.users)),
		byEmail: make(map[string]string, len(s.byEmail)),
		tokens:  make(map[string]models.RefreshToken, len(s.tokens)),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.byEmail {
		c.byEmail[k] = v
	}
	for k, v := range s.tokens {
		c.tokens[k] = v
	}
	return c
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now for creation and expiry timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store implements repomanager.Store. Transactions are serialized: WithTx
// holds the store lock for the whole unit of work and restores a snapshot
// if fn fails.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

var _ repomanager.Store = (*Store)(nil)

func NewStore(opts ...Option) *Store {
	s := &Store{st: newState(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) Users() users.Repository {
	return &userRepo{s: s, locked: false}
}

func (s *Store) RefreshTokens() refreshtokens.Repository {
	return &tokenRepo{s: s, locked: false}
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) WithTx(ctx context.Context, fn repomanager.TxFunc) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	defer func() {
		if p := recover(); p != nil {
			s.st = snapshot
			panic(p)
		}
		if err != nil {
			s.st = snapshot
		}
	}()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	return fn(ctx, txRepos{s: s})
}

// TokenCount returns the number of live session token records.
func (s *Store) TokenCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.tokens)
}

// UserCount returns the number of stored credentials.
func (s *Store) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.users)
}

// run executes f on the current state, taking the lock unless the caller
// already holds it inside WithTx.
func (s *Store) run(locked bool, f func(st *state) error) error {
	if !locked {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return f(s.st)
}

type txRepos struct {
	s *Store
}

func (t txRepos) Users() users.Repository {
	return &userRepo{s: t.s, locked: true}
}

func (t txRepos) RefreshTokens() refreshtokens.Repository {
	return &tokenRepo{s: t.s, locked: true}
}
