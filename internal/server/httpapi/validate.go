package httpapi

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	maxEmailBytes      = 254
	minPasswordBytes   = 8
	maxPasswordBytes   = 72 // bcrypt ignores anything past this
	maxDisplayNameRune = 64
)

func validateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	if len(email) > maxEmailBytes {
		return errors.New("email is too long")
	}
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return errors.New("email is invalid")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordBytes {
		return errors.New("password must be at least 8 bytes")
	}
	if len(password) > maxPasswordBytes {
		return errors.New("password must be at most 72 bytes")
	}
	return nil
}

// validateRegister returns the trimmed display name.
func validateRegister(req registerRequest) (string, error) {
	if err := validateEmail(req.Email); err != nil {
		return "", err
	}
	if err := validatePassword(req.Password); err != nil {
		return "", err
	}
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		return "", errors.New("displayName is required")
	}
	if utf8.RuneCountInString(name) > maxDisplayNameRune {
		return "", errors.New("displayName must be at most 64 characters")
	}
	return name, nil
}

func validateLogin(req loginRequest) error {
	if err := validateEmail(req.Email); err != nil {
		return err
	}
	if req.Password == "" {
		return errors.New("password is required")
	}
	return nil
}
