// Package auth checks request tokens against the configured token set.
package auth

import "crypto/subtle"

// Role tells which configured token matched.
type Role string

const (
	RoleNone  Role = ""
	RoleMain  Role = "main"
	RoleGuest Role = "guest"
)

// Tokens is the set of accepted tokens. Empty configured tokens never match.
type Tokens struct {
	main  string
	guest string
}

func NewTokens(main, guest string) Tokens {
	return Tokens{main: main, guest: guest}
}

// Configured reports whether any token can ever match.
func (t Tokens) Configured() bool {
	return t.main != "" || t.guest != ""
}

func (t Tokens) Valid(token string) bool {
	return t.Role(token) != RoleNone
}

// Role compares token against both configured tokens in constant time.
func (t Tokens) Role(token string) Role {
	if token == "" {
		return RoleNone
	}
	mainOK := equal(token, t.main)
	guestOK := equal(token, t.guest)
	switch {
	case mainOK:
		return RoleMain
	case guestOK:
		return RoleGuest
	default:
		return RoleNone
	}
}

func equal(got, want string) bool {
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
