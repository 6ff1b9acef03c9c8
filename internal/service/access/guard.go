// Package access decides whether a principal may run a command.
package access

import (
	"service-dispatch/internal/apperr"
	"service-dispatch/internal/domain"
)

// Policy is the set of roles allowed to run a command.
type Policy struct {
	roles []domain.Role
}

// Require builds a Policy admitting any of roles.
func Require(roles ...domain.Role) Policy {
	return Policy{roles: append([]domain.Role(nil), roles...)}
}

// Predefined policies.
var (
	AdminOnly   = Require(domain.RoleAdmin)
	PartnerOnly = Require(domain.RoleDeliveryPartner)
	AnyRole     = Require(domain.RoleAdmin, domain.RoleDeliveryPartner)
)

// Authorize returns apperr.ErrUnauthenticated for a nil principal and an
// *apperr.RoleError when the principal's role is outside the policy.
func (p Policy) Authorize(principal *domain.Principal) error {
	if principal == nil {
		return apperr.New(apperr.ErrUnauthenticated, "authentication required")
	}
	for _, r := range p.roles {
		if principal.Role == r {
			return nil
		}
	}
	required := make([]string, len(p.roles))
	for i, r := range p.roles {
		required[i] = string(r)
	}
	return &apperr.RoleError{Actual: string(principal.Role), Required: required}
}

// Roles returns the admitted roles.
func (p Policy) Roles() []domain.Role {
	return append([]domain.Role(nil), p.roles...)
}
