package domain

import (
	"fmt"
	"regexp"
)

var validUsernameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

// ValidateUsername checks the registration username shape. Uniqueness is the
// store's job; this only rejects names that could never be valid.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("%w: username cannot be empty", ErrInvalidInput)
	}
	if !validUsernameRegex.MatchString(username) {
		return fmt.Errorf("%w: username must be 1-64 characters of [a-zA-Z0-9._-]", ErrInvalidInput)
	}
	return nil
}

// ValidatePassword rejects secrets the credential layer cannot store.
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("%w: password cannot be empty", ErrInvalidInput)
	}
	if len(password) > 1024 {
		return fmt.Errorf("%w: password exceeds 1024 bytes", ErrInvalidInput)
	}
	return nil
}

// ValidateRealmName checks the administrative realm name shape.
func ValidateRealmName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: realm name cannot be empty", ErrInvalidInput)
	}
	if len(name) > 128 {
		return fmt.Errorf("%w: realm name exceeds 128 characters", ErrInvalidInput)
	}
	return nil
}
