// Package validate holds the shape checks applied to registration and login
// input before any store or hashing work happens. All checks are pure.
package validate

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Field length ceilings. Only upper bounds are enforced beyond presence; a
// one-character name or a two-character username is a valid account. The
// password ceiling is the bcrypt input limit; longer plaintexts would be
// silently truncated by the hasher otherwise.
const (
	MaxNameLen     = 50
	MaxUsernameLen = 30
	MaxPasswordLen = 72
)

// Error reports a single failed field with a human-readable reason. Callers
// map it to a client error response.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return e.Field + ": " + e.Reason
}

// Registration checks all four registration fields for presence, ceilings,
// and shape, and returns the first failure as an [*Error].
func Registration(name, email, username, password string) error {
	if name == "" {
		return &Error{Field: "name", Reason: "is required"}
	}
	if utf8.RuneCountInString(name) > MaxNameLen {
		return &Error{Field: "name", Reason: "must be at most 50 characters"}
	}

	if email == "" {
		return &Error{Field: "email", Reason: "is required"}
	}
	if !IsEmailLike(email) {
		return &Error{Field: "email", Reason: "is not a valid email address"}
	}

	if username == "" {
		return &Error{Field: "username", Reason: "is required"}
	}
	if utf8.RuneCountInString(username) > MaxUsernameLen {
		return &Error{Field: "username", Reason: "must be at most 30 characters"}
	}
	if !usernameCharsetOK(username) {
		return &Error{Field: "username", Reason: "may only contain letters, digits, '.', '_' and '-'"}
	}

	if password == "" {
		return &Error{Field: "password", Reason: "is required"}
	}
	if len(password) > MaxPasswordLen {
		return &Error{Field: "password", Reason: "must be at most 72 bytes"}
	}

	return nil
}

// Login checks only presence; identifier resolution and credential checks
// belong to the engine.
func Login(loginID, password string) error {
	if loginID == "" {
		return &Error{Field: "loginId", Reason: "is required"}
	}
	if password == "" {
		return &Error{Field: "password", Reason: "is required"}
	}
	return nil
}

// IsEmailLike reports whether s parses as a bare RFC 5322 address. It decides
// which column a login identifier is matched against; it is a heuristic, not
// proof the address exists.
func IsEmailLike(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\r\n") || !strings.Contains(s, "@") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	// Reject display-name forms like `Bob <bob@x.com>`.
	return err == nil && addr.Address == s
}

func usernameCharsetOK(username string) bool {
	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '_' || r == '-':
		default:
			return false
		}
	}
	return true
}
