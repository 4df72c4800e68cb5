// Package services contains server-side business logic. This file implements
// UserService, which registers users, verifies logins, rotates refresh
// tokens and revokes sessions.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/authcore/internal/common"
	"github.com/dmitrijs2005/authcore/internal/logging"
	"github.com/dmitrijs2005/authcore/internal/server/auth"
	"github.com/dmitrijs2005/authcore/internal/server/events"
	"github.com/dmitrijs2005/authcore/internal/server/metrics"
	"github.com/dmitrijs2005/authcore/internal/server/models"
	"github.com/dmitrijs2005/authcore/internal/server/passwords"
	"github.com/dmitrijs2005/authcore/internal/server/repositories/repomanager"
)

const (
	DefaultRefreshTTL   = 30 * 24 * time.Hour
	DefaultWriteTimeout = 10 * time.Second

	// dummyPassword is hashed once and verified against when the login
	// email is unknown, so both failure paths pay for one hash check.
	dummyPassword = "authcore-login-timing-equalizer"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthResult is returned by Register.
type AuthResult struct {
	TokenPair
	User models.PublicUser `json:"user"`
}

// Options tune UserService.
type Options struct {
	// RefreshTTL is the lifetime of a stored session token.
	RefreshTTL time.Duration

	// AtomicRotation makes "delete old token, create new token" one unit of
	// work. When false the two writes are independent and a failure between
	// them burns the old token.
	AtomicRotation bool

	// WriteTimeout bounds store writes. Writes are detached from the
	// caller's cancellation.
	WriteTimeout time.Duration

	Now func() time.Time
}

func DefaultOptions() Options {
	return Options{
		RefreshTTL:     DefaultRefreshTTL,
		AtomicRotation: true,
		WriteTimeout:   DefaultWriteTimeout,
		Now:            time.Now,
	}
}

type nopNotifier struct{}

func (nopNotifier) NotifyUserRegistered(models.UserRegistered) {}

// UserService orchestrates the credential store, the session token store,
// the token codec and the registration notifier.
type UserService struct {
	store    repomanager.Store
	hasher   passwords.Hasher
	codec    auth.TokenCodec
	notifier events.Notifier
	log      logging.Logger
	metrics  *metrics.Metrics
	opts     Options

	dummyOnce sync.Once
	dummyHash []byte
}

// NewUserService wires the service. notifier, log and m may be nil.
func NewUserService(
	store repomanager.Store,
	hasher passwords.Hasher,
	codec auth.TokenCodec,
	notifier events.Notifier,
	log logging.Logger,
	m *metrics.Metrics,
	opts Options,
) *UserService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if log == nil {
		log = logging.Nop{}
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = DefaultRefreshTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &UserService{
		store:    store,
		hasher:   hasher,
		codec:    codec,
		notifier: notifier,
		log:      log.With("module", "users"),
		metrics:  m,
		opts:     opts,
	}
}

// Register creates a credential together with its first session token and
// returns a signed token pair. An existing email yields common.ErrorConflict.
func (s *UserService) Register(ctx context.Context, email, password, displayName string) (res *AuthResult, err error) {
	defer s.observe("register", time.Now(), &err)

	_, err = s.store.Users().FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, common.ErrorConflict
	case !errors.Is(err, common.ErrorNotFound):
		return nil, internal("error looking up user", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, internal("error hashing password", err)
	}

	wctx, cancel := s.writeContext(ctx)
	defer cancel()

	var (
		user  *models.User
		token *models.RefreshToken
	)
	err = s.store.WithTx(wctx, func(ctx context.Context, repos repomanager.Repositories) error {
		u, err := repos.Users().Create(ctx, email, displayName, hash)
		if err != nil {
			return err
		}
		t, err := repos.RefreshTokens().Create(ctx, u.ID, s.opts.RefreshTTL)
		if err != nil {
			return err
		}
		user, token = u, t
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			return nil, common.ErrorConflict
		}
		return nil, internal("error registering user", err)
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID)

	pair, err := s.signPair(user.ID, user.Email, token.TokenID)
	if err != nil {
		return nil, err
	}
	s.notifier.NotifyUserRegistered(models.NewUserRegistered(user))
	return &AuthResult{TokenPair: *pair, User: user.Public()}, nil
}

// Login checks the password and opens a new session. Unknown email and
// wrong password fail with the same common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (pair *TokenPair, err error) {
	defer s.observe("login", time.Now(), &err)

	user, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.equalizeTiming(password)
			return nil, common.ErrorUnauthorized
		}
		return nil, internal("error looking up user", err)
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		return nil, internal("error verifying password", err)
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}

	wctx, cancel := s.writeContext(ctx)
	defer cancel()

	token, err := s.store.RefreshTokens().Create(wctx, user.ID, s.opts.RefreshTTL)
	if err != nil {
		return nil, internal("error creating session", err)
	}
	return s.signPair(user.ID, user.Email, token.TokenID)
}

// Refresh redeems a refresh token exactly once and returns a pair bound to
// a newly stored session token.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (pair *TokenPair, err error) {
	defer s.observe("refresh", time.Now(), &err)

	claims, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		s.log.Debug(ctx, "refresh token rejected", "error", err)
		return nil, common.ErrorUnauthorized
	}
	userID, tokenID := claims.Subject, claims.TokenID

	record, err := s.store.RefreshTokens().FindByTokenAndUser(ctx, tokenID, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, internal("error looking up session", err)
	}

	wctx, cancel := s.writeContext(ctx)
	defer cancel()

	if record.Expired(s.opts.Now()) {
		if _, err := s.store.RefreshTokens().DeleteByTokenID(wctx, tokenID); err != nil {
			s.log.Warn(ctx, "error removing expired session", "user_id", userID, "error", err)
		}
		return nil, common.ErrorUnauthorized
	}

	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.log.Warn(ctx, "session token without credential",
				"error", common.ErrIntegrityAnomaly, "user_id", userID, "token_id", tokenID)
			return nil, common.ErrorUnauthorized
		}
		return nil, internal("error looking up user", err)
	}

	var next *models.RefreshToken
	rotate := func(ctx context.Context, repos repomanager.Repositories) error {
		removed, err := repos.RefreshTokens().DeleteByTokenID(ctx, tokenID)
		if err != nil {
			return err
		}
		if !removed {
			return common.ErrorUnauthorized
		}
		next, err = repos.RefreshTokens().Create(ctx, userID, s.opts.RefreshTTL)
		return err
	}

	if s.opts.AtomicRotation {
		err = s.store.WithTx(wctx, rotate)
	} else {
		err = rotate(wctx, s.store)
	}
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			s.log.Info(ctx, "refresh token already redeemed", "user_id", userID)
			return nil, common.ErrorUnauthorized
		}
		return nil, internal("error rotating session", err)
	}

	return s.signPair(user.ID, user.Email, next.TokenID)
}

// Revoke ends every session of userID. Revoking a user without sessions
// succeeds.
func (s *UserService) Revoke(ctx context.Context, userID string) (err error) {
	defer s.observe("revoke", time.Now(), &err)

	wctx, cancel := s.writeContext(ctx)
	defer cancel()

	n, err := s.store.RefreshTokens().DeleteAllForUser(wctx, userID)
	if err != nil {
		return internal("error revoking sessions", err)
	}
	s.log.Info(ctx, "sessions revoked", "user_id", userID, "count", n)
	return nil
}

// VerifyAccess checks an access token for trusted callers.
func (s *UserService) VerifyAccess(ctx context.Context, token string) (claims *auth.AccessClaims, err error) {
	defer s.observe("verify_access", time.Now(), &err)

	claims, err = s.codec.VerifyAccess(token)
	if err != nil {
		s.log.Debug(ctx, "access token rejected", "error", err)
		return nil, common.ErrorUnauthorized
	}
	return claims, nil
}

// --- helpers below ---

func internal(msg string, err error) error {
	return fmt.Errorf("%w: %s: %w", common.ErrorInternal, msg, err)
}

func (s *UserService) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if s.opts.WriteTimeout > 0 {
		return context.WithTimeout(ctx, s.opts.WriteTimeout)
	}
	return ctx, func() {}
}

func (s *UserService) signPair(userID, email, tokenID string) (*TokenPair, error) {
	access, err := s.codec.SignAccess(userID, email)
	if err != nil {
		return nil, internal("error signing access token", err)
	}
	refresh, err := s.codec.SignRefresh(userID, tokenID)
	if err != nil {
		return nil, internal("error signing refresh token", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *UserService) equalizeTiming(password string) {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(dummyPassword)
		if err == nil {
			s.dummyHash = h
		}
	})
	if s.dummyHash != nil {
		_, _ = s.hasher.Verify(s.dummyHash, password)
	}
}

func (s *UserService) observe(op string, start time.Time, errp *error) {
	result := metrics.ResultOK
	if err := *errp; err != nil {
		switch {
		case errors.Is(err, common.ErrorConflict):
			result = metrics.ResultConflict
		case errors.Is(err, common.ErrorUnauthorized):
			result = metrics.ResultUnauthorized
		default:
			result = metrics.ResultError
		}
	}
	s.metrics.ObserveOperation(op, result, time.Since(start))
}
