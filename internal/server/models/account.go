package models

import (
	"fmt"
	"strings"
)

// Role is the closed set of account types stored in account.account_type.
type Role string

const (
	RoleClient   Role = "Client"
	RoleEmployee Role = "Employee"
	RoleAdmin    Role = "Admin"
)

// ParseRole accepts the three known role names case-insensitively.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "client":
		return RoleClient, nil
	case "employee":
		return RoleEmployee, nil
	case "admin":
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Privileged reports whether the role may mutate inventory data.
func (r Role) Privileged() bool {
	switch r {
	case RoleEmployee, RoleAdmin:
		return true
	case RoleClient:
		return false
	}
	return false
}

func (r Role) String() string { return string(r) }

// Account is a dealership site account. PasswordHash never leaves the
// server: it is excluded from JSON and from token claims.
type Account struct {
	ID           int64  `json:"account_id"`
	FirstName    string `json:"account_firstname"`
	LastName     string `json:"account_lastname"`
	Email        string `json:"account_email"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"account_type"`
}
