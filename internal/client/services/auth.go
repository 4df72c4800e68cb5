// Package services contains application services for the authctl CLI.
// This file defines the session service: register, login, refresh,
// verify and logout, with the current token pair cached locally.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authcore/internal/client/client"
	"github.com/dmitrijs2005/authcore/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/authcore/internal/dbx"
	"github.com/golang-jwt/jwt/v5"
)

const (
	keyUserID       = "user_id"
	keyEmail        = "email"
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
)

// Session is the locally cached login state.
type Session struct {
	UserID       string
	Email        string
	AccessToken  string
	RefreshToken string
}

// Verifier checks access tokens against the server.
type Verifier interface {
	VerifyAccess(ctx context.Context, accessToken string) (*client.Identity, error)
}

// AuthService defines the session operations of the CLI.
//
// Every successful Register, Login or Refresh replaces the cached
// session; Logout revokes it server-side and wipes the cache.
type AuthService interface {
	Register(ctx context.Context, email, password, displayName string) (*client.User, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Refresh(ctx context.Context) (*Session, error)
	Verify(ctx context.Context) (*client.Identity, error)
	Logout(ctx context.Context) error
	Current(ctx context.Context) (*Session, error)
}

type authService struct {
	api      client.API
	verifier Verifier
	db       *sql.DB
}

// NewAuthService constructs an AuthService over the API client, an
// optional verifier and the session cache.
func NewAuthService(api client.API, verifier Verifier, db *sql.DB) AuthService {
	return &authService{api: api, verifier: verifier, db: db}
}

func (a *authService) getMetadataRepo() metadata.Repository {
	return metadata.NewSQLiteRepository(a.db)
}

func (a *authService) Register(ctx context.Context, email, password, displayName string) (*client.User, error) {
	reg, err := a.api.Register(ctx, email, password, displayName)
	if err != nil {
		return nil, fmt.Errorf("register error: %w", err)
	}

	s := &Session{
		UserID:       reg.User.ID,
		Email:        reg.User.Email,
		AccessToken:  reg.AccessToken,
		RefreshToken: reg.RefreshToken,
	}
	if err := a.saveSession(ctx, s); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return &reg.User, nil
}

func (a *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	pair, err := a.api.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}

	s, err := sessionFromPair(pair)
	if err != nil {
		return nil, err
	}
	if err := a.saveSession(ctx, s); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return s, nil
}

// Refresh rotates the cached refresh token. A rejected token clears the
// cache, since the server will never accept it again.
func (a *authService) Refresh(ctx context.Context) (*Session, error) {
	cur, err := a.Current(ctx)
	if err != nil {
		return nil, err
	}

	pair, err := a.api.Refresh(ctx, cur.RefreshToken)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			_ = a.getMetadataRepo().Clear(ctx)
		}
		return nil, fmt.Errorf("refresh error: %w", err)
	}

	s, err := sessionFromPair(pair)
	if err != nil {
		return nil, err
	}
	if err := a.saveSession(ctx, s); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return s, nil
}

func (a *authService) Verify(ctx context.Context) (*client.Identity, error) {
	if a.verifier == nil {
		return nil, fmt.Errorf("verify: no session endpoint configured")
	}
	cur, err := a.Current(ctx)
	if err != nil {
		return nil, err
	}
	return a.verifier.VerifyAccess(ctx, cur.AccessToken)
}

// Logout revokes every refresh token of the cached user and clears the
// cache. The cache is cleared even when the server is unreachable.
func (a *authService) Logout(ctx context.Context) error {
	cur, err := a.Current(ctx)
	if err != nil {
		return err
	}

	revokeErr := a.api.Revoke(ctx, cur.UserID)
	if err := a.getMetadataRepo().Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	if revokeErr != nil {
		return fmt.Errorf("revoke error: %w", revokeErr)
	}
	return nil
}

// Current returns the cached session or client.ErrNoSession.
func (a *authService) Current(ctx context.Context) (*Session, error) {
	repo := a.getMetadataRepo()

	var s Session
	for key, dst := range map[string]*string{
		keyUserID:       &s.UserID,
		keyEmail:        &s.Email,
		keyAccessToken:  &s.AccessToken,
		keyRefreshToken: &s.RefreshToken,
	} {
		v, err := repo.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		*dst = string(v)
	}
	if s.RefreshToken == "" || s.UserID == "" {
		return nil, client.ErrNoSession
	}
	return &s, nil
}

// saveSession replaces the cached session in a single transaction.
func (a *authService) saveSession(ctx context.Context, s *Session) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		for _, kv := range [][2]string{
			{keyUserID, s.UserID},
			{keyEmail, s.Email},
			{keyAccessToken, s.AccessToken},
			{keyRefreshToken, s.RefreshToken},
		} {
			if err := repo.Set(ctx, kv[0], []byte(kv[1])); err != nil {
				return err
			}
		}
		return nil
	})
}

type accessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// sessionFromPair reads the subject and email out of the access token.
// The signature is not checked here; the server does that on use.
func sessionFromPair(pair *client.TokenPair) (*Session, error) {
	var claims accessClaims
	if _, _, err := jwt.NewParser().ParseUnverified(pair.AccessToken, &claims); err != nil {
		return nil, fmt.Errorf("malformed access token: %w", err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("malformed access token: missing subject")
	}
	return &Session{
		UserID:       claims.Subject,
		Email:        claims.Email,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}
