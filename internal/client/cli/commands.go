package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authcore/internal/client/client"
	"github.com/dmitrijs2005/authcore/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) readCredentials() (string, []byte, error) {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return "", nil, err
	}
	return email, password, nil
}

// Register prompts for email, password and display name and creates the
// account. The new session is cached.
func (a *App) Register(ctx context.Context) error {
	email, password, err := a.readCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	displayName, err := getSimpleText(a.reader, "Enter display name", a.out)
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	u, err := a.authService.Register(ctx, email, string(password), displayName)
	if err != nil {
		if errors.Is(err, client.ErrConflict) {
			return fmt.Errorf("email %s is already registered", email)
		}
		return err
	}

	fmt.Fprintf(a.out, "Registered %s (%s)\n", u.Email, u.ID)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, password, err := a.readCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	s, err := a.authService.Login(ctx, email, string(password))
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			return errors.New("invalid credentials")
		}
		return err
	}

	fmt.Fprintf(a.out, "Logged in as %s\n", s.Email)
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if _, err := a.authService.Refresh(ctx); err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			return errors.New("session expired or revoked, log in again")
		}
		return err
	}

	fmt.Fprintln(a.out, "Tokens refreshed")
	return nil
}

func (a *App) Verify(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	id, err := a.authService.Verify(ctx)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			return errors.New("access token rejected, try refresh")
		}
		return err
	}

	fmt.Fprintf(a.out, "Access token valid: %s (%s)\n", id.Email, id.UserID)
	return nil
}

func (a *App) Status(ctx context.Context) error {
	s, err := a.authService.Current(ctx)
	if err != nil {
		if errors.Is(err, client.ErrNoSession) {
			fmt.Fprintln(a.out, "Not logged in")
			return nil
		}
		return err
	}

	fmt.Fprintf(a.out, "Logged in as %s (%s)\n", s.Email, s.UserID)
	return nil
}

// Logout revokes every session of the cached user and clears the cache.
func (a *App) Logout(ctx context.Context) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.authService.Logout(ctx); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Logged out")
	return nil
}
