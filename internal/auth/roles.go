package auth

import (
	"github.com/spec-kit/roadguard/internal/domain"
)

// Policy is a set of roles allowed to perform an action.
type Policy struct {
	name  string
	roles map[domain.Role]struct{}
}

// NewPolicy builds a policy admitting the given roles.
func NewPolicy(name string, roles ...domain.Role) Policy {
	set := make(map[domain.Role]struct{}, len(roles))
	for _, role := range roles {
		set[role] = struct{}{}
	}
	return Policy{name: name, roles: set}
}

// Standing policies.
var (
	AdminOnly         = NewPolicy("admin", domain.RoleAdmin)
	AdminOrContractor = NewPolicy("admin or contractor", domain.RoleAdmin, domain.RoleContractor)
)

// Allows reports whether role is a member of the policy.
func (p Policy) Allows(role domain.Role) bool {
	_, ok := p.roles[role]
	return ok
}

// Name describes the policy in error messages.
func (p Policy) Name() string {
	return p.name
}
