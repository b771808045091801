// Package user contains the Brotherhood user record and helpers for presenting it.
package user

import (
	"strings"
	"unicode/utf8"
)

// User is the account record returned by /auth/me, /auth/login and /auth/register.
type User struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	Username    string    `json:"username,omitempty"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	DateOfBirth string    `json:"date_of_birth,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   Timestamp `json:"created_at,omitzero"`
}

// Credentials is the body of POST /auth/login.
type Credentials struct {
	Email    string `json:"email" validate:"email_address"`
	Password string `json:"password" validate:"required"`
}

// Registration is the body of POST /auth/register.
type Registration struct {
	Email       string `json:"email" validate:"email_address"`
	FirstName   string `json:"first_name" validate:"person_name"`
	LastName    string `json:"last_name" validate:"person_name"`
	Password    string `json:"password" validate:"strong_password"`
	DateOfBirth string `json:"date_of_birth,omitempty" validate:"omitempty,birth_date"`
}

// ProfileUpdate is the body of PATCH /auth/profile. Empty fields are omitted
// so the server only changes what was provided.
type ProfileUpdate struct {
	FirstName   string `json:"first_name,omitempty" validate:"omitempty,person_name"`
	LastName    string `json:"last_name,omitempty" validate:"omitempty,person_name"`
	DateOfBirth string `json:"date_of_birth,omitempty" validate:"omitempty,birth_date"`
	Phone       string `json:"phone,omitempty" validate:"omitempty,phone_number"`
	Website     string `json:"website,omitempty" validate:"omitempty,web_url"`
}

// IsEmpty reports whether the update carries no changes.
func (p ProfileUpdate) IsEmpty() bool {
	return p == ProfileUpdate{}
}

// Initials returns the upper-cased first letters of first and last name,
// or "U" when neither is known.
func Initials(u *User) string {
	if u == nil {
		return "U"
	}
	initials := firstRune(u.FirstName) + firstRune(u.LastName)
	if initials == "" {
		return "U"
	}
	return strings.ToUpper(initials)
}

// FullName joins first and last name, or returns "User".
func FullName(u *User) string {
	if u == nil {
		return "User"
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return "User"
	}
	return name
}

// DisplayName prefers the first name, then the username, then "User".
func DisplayName(u *User) string {
	switch {
	case u == nil:
		return "User"
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return u.Username
	default:
		return "User"
	}
}

func firstRune(s string) string {
	if s == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(s)
	return string(r)
}
