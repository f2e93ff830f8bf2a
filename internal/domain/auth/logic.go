package auth

import (
	"strings"
	"unicode/utf8"
)

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// NormalizeRole returns the canonical role name, defaulting to EMPLOYEE when empty.
func NormalizeRole(role string) (string, error) {
	role = strings.ToUpper(strings.TrimSpace(role))
	if role == "" {
		return RoleEmployee, nil
	}
	for _, candidate := range Roles {
		if role == candidate {
			return role, nil
		}
	}
	return "", ErrInvalidRole
}
