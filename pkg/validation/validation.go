package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// EmailRegex validates email format.
var EmailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail validates an email address.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > 254 {
		return fmt.Errorf("email is too long (max 254 characters)")
	}
	if !EmailRegex.MatchString(email) {
		return fmt.Errorf("Email must be valid.")
	}
	return nil
}

// ValidatePassword validates password length bounds.
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("Password must be provided.")
	}
	if len(password) < 3 || len(password) > 20 {
		return fmt.Errorf("Password must be within 3-20 characters.")
	}
	return nil
}
