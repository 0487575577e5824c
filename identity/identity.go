package identity

import (
	"github.com/arghyam/jalsoochak-session/internal/errors"
	"github.com/arghyam/jalsoochak-session/token"
)

// RoleType represents a JalSoochak dashboard role
type RoleType string

const (
	RoleCentralAdmin RoleType = "central_admin" // Programme-wide (super) admin
	RoleStateAdmin   RoleType = "state_admin"   // Admin scoped to one state tenant
	RoleViewer       RoleType = "viewer"        // Read-only dashboard access
)

// rolePrecedence orders roles from highest privilege to lowest. When a token
// carries several role strings the effective role is the first match here.
var rolePrecedence = []RoleType{
	RoleCentralAdmin,
	RoleStateAdmin,
	RoleViewer,
}

// UserIdentity is derived from a decoded token, never constructed
// field-by-field by callers. It is immutable once computed.
type UserIdentity struct {
	ID          string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	Email       string   `json:"email,omitempty"`
	PhoneNumber string   `json:"phone_number,omitempty"`
	Role        RoleType `json:"role"`
	TenantID    string   `json:"tenant_id,omitempty"`
}

// ResolveRole picks the highest-privilege role present in the roster,
// regardless of roster order. An empty or unrecognised roster resolves to
// the lowest-privilege role.
func ResolveRole(roster []string) RoleType {
	present := make(map[string]bool, len(roster))
	for _, r := range roster {
		present[r] = true
	}
	for _, role := range rolePrecedence {
		if present[string(role)] {
			return role
		}
	}
	return RoleViewer
}

// FromClaims derives a UserIdentity from decoded token claims.
func FromClaims(c *token.Claims) (*UserIdentity, error) {
	if c == nil || c.Sub == "" {
		return nil, errors.ErrMissingUserInfo
	}
	return &UserIdentity{
		ID:          c.Sub,
		Name:        c.Name,
		Email:       c.Email,
		PhoneNumber: c.PhoneNumber,
		Role:        ResolveRole(c.Roles),
		TenantID:    c.TenantID,
	}, nil
}

// WithOverrides returns a copy with the out-of-band role and tenant fields
// from a token response applied. Empty override values leave the
// claim-derived fields alone; an unrecognised role string is ignored.
func (u *UserIdentity) WithOverrides(personType, tenantID string) *UserIdentity {
	out := *u
	if personType != "" && isKnownRole(personType) {
		out.Role = RoleType(personType)
	}
	if tenantID != "" {
		out.TenantID = tenantID
	}
	return &out
}

func isKnownRole(role string) bool {
	for _, r := range rolePrecedence {
		if string(r) == role {
			return true
		}
	}
	return false
}

// IsCentralAdmin returns true if the user has programme-wide privileges
func (u *UserIdentity) IsCentralAdmin() bool {
	return u.Role == RoleCentralAdmin
}

// HasTenant checks if the user belongs to the given tenant. Central admins
// belong to every tenant.
func (u *UserIdentity) HasTenant(tenantID string) bool {
	if tenantID == "" || u.IsCentralAdmin() {
		return true
	}
	return u.TenantID == tenantID
}
