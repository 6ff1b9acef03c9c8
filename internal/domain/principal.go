package domain

import (
	"net/mail"
	"strings"
	"time"
)

// Role is the authorization role of a principal.
type Role string

// List of roles
const (
	RoleAdmin           Role = "admin"
	RoleDeliveryPartner Role = "delivery_partner"
)

var allowedRoles = [...]Role{RoleAdmin, RoleDeliveryPartner}

// Valid checks if the Role is valid
func (r Role) Valid() bool {
	for _, v := range allowedRoles {
		if r == v {
			return true
		}
	}
	return false
}

// Principal is an authenticated user. It never changes after registration.
type Principal struct {
	ID        string
	Email     string
	Role      Role
	CreatedAt time.Time
}

// Account is a stored principal together with its password hash.
type Account struct {
	Principal
	PasswordHash string
}

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// NormalizeEmail trims and lower-cases s and reports whether it is a bare address.
func NormalizeEmail(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "", false
	}
	return s, true
}
