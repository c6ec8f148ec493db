package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role is the fixed authorization tier attached to a user.
type Role string

const (
	RoleCitizen    Role = "citizen"
	RoleInspector  Role = "inspector"
	RoleContractor Role = "contractor"
	RoleAdmin      Role = "admin"
)

// Roles lists every valid role.
var Roles = []Role{RoleCitizen, RoleInspector, RoleContractor, RoleAdmin}

// ParseRole normalizes a role string and rejects anything outside the enumeration.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if role.Valid() {
		return role, nil
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

// Valid reports whether r is one of the four fixed roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleInspector, RoleContractor, RoleAdmin:
		return true
	}
	return false
}

// User is an account that can report or act on problems.
type User struct {
	ID           string
	Email        string
	Name         string
	Role         Role
	PasswordHash string
	IsActive     bool
	Organization *string
	CreatedAt    time.Time
}
