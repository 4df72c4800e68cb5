// Package auth signs and verifies the two token classes issued by the
// service. Access and refresh tokens use independent HMAC secrets and
// independent lifetimes, so a leak of one secret cannot forge the other
// class. Access tokens are purely cryptographic; refresh tokens are also
// backed by a stored grant (see the refreshtokens repository).
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authcore/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// RefreshClaims is the payload of a refresh token. TokenID names the
// stored grant that must still exist for the token to be redeemable.
type RefreshClaims struct {
	jwt.RegisteredClaims
	TokenID string `json:"tid"`
}

// TokenCodec is the capability the user service depends on.
type TokenCodec interface {
	SignAccess(subjectID, email string) (string, error)
	SignRefresh(subjectID, tokenID string) (string, error)
	VerifyAccess(token string) (*AccessClaims, error)
	VerifyRefresh(token string) (*RefreshClaims, error)
}

// Config holds the codec secrets and lifetimes.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Codec is the HS256 TokenCodec.
type Codec struct {
	cfg Config
	now func() time.Time
}

// Option customises a Codec.
type Option func(*Codec)

// WithClock replaces time.Now, both for issuing and for validating.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

func NewCodec(cfg Config, opts ...Option) (*Codec, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("access and refresh secrets are required")
	}
	if string(cfg.AccessSecret) == string(cfg.RefreshSecret) {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}

	c := &Codec{cfg: cfg, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *Codec) registered(subjectID string, ttl time.Duration) jwt.RegisteredClaims {
	now := c.now()
	return jwt.RegisteredClaims{
		Subject:   subjectID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (c *Codec) SignAccess(subjectID, email string) (string, error) {
	claims := AccessClaims{
		RegisteredClaims: c.registered(subjectID, c.cfg.AccessTTL),
		Email:            email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.cfg.AccessSecret)
}

func (c *Codec) SignRefresh(subjectID, tokenID string) (string, error) {
	claims := RefreshClaims{
		RegisteredClaims: c.registered(subjectID, c.cfg.RefreshTTL),
		TokenID:          tokenID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.cfg.RefreshSecret)
}

func (c *Codec) VerifyAccess(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := c.parse(token, claims, c.cfg.AccessSecret); err != nil {
		return nil, err
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("%w: missing email claim", common.ErrInvalidToken)
	}
	return claims, nil
}

func (c *Codec) VerifyRefresh(token string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := c.parse(token, claims, c.cfg.RefreshSecret); err != nil {
		return nil, err
	}
	if claims.TokenID == "" {
		return nil, fmt.Errorf("%w: missing tid claim", common.ErrInvalidToken)
	}
	return claims, nil
}

func (c *Codec) parse(token string, claims jwt.Claims, secret []byte) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)

	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return common.ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return fmt.Errorf("%w: missing sub claim", common.ErrInvalidToken)
	}
	return nil
}
