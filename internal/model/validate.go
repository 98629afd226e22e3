package model

import (
	"errors"
	"net/mail"
	"unicode"
)

var (
	ErrInvalidPassword     = errors.New("password must be 8-20 characters with at least one digit and one uppercase letter")
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrInvalidRefreshToken = errors.New("refresh token must not be empty")
)

// ValidatePassword enforces the registration password policy: 8-20
// characters, at least one digit and one uppercase letter.
func ValidatePassword(password string) error {
	runes := []rune(password)
	if len(runes) < 8 || len(runes) > 20 {
		return ErrInvalidPassword
	}
	var hasDigit, hasUpper bool
	for _, r := range runes {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsUpper(r):
			hasUpper = true
		}
	}
	if !hasDigit || !hasUpper {
		return ErrInvalidPassword
	}
	return nil
}

func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}

func ValidateRefreshToken(token string) error {
	if token == "" {
		return ErrInvalidRefreshToken
	}
	return nil
}
