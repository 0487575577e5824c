package identity_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arghyam/jalsoochak-session/identity"
	"github.com/arghyam/jalsoochak-session/internal/errors"
	"github.com/arghyam/jalsoochak-session/token"
)

func TestResolveRolePrecedence(t *testing.T) {
	// Highest privilege wins regardless of roster order.
	require.Equal(t, identity.RoleCentralAdmin,
		identity.ResolveRole([]string{"viewer", "central_admin"}))
	require.Equal(t, identity.RoleCentralAdmin,
		identity.ResolveRole([]string{"central_admin", "viewer"}))
	require.Equal(t, identity.RoleStateAdmin,
		identity.ResolveRole([]string{"viewer", "state_admin"}))
	require.Equal(t, identity.RoleStateAdmin,
		identity.ResolveRole([]string{"state_admin", "central_manager"}))
}

func TestResolveRoleDefaultsToViewer(t *testing.T) {
	require.Equal(t, identity.RoleViewer, identity.ResolveRole(nil))
	require.Equal(t, identity.RoleViewer, identity.ResolveRole([]string{}))
	require.Equal(t, identity.RoleViewer, identity.ResolveRole([]string{"offline_access", "gis_editor"}))
}

func TestFromClaims(t *testing.T) {
	user, err := identity.FromClaims(&token.Claims{
		Sub:         "u1",
		Name:        "Asha Patil",
		Email:       "asha@example.in",
		PhoneNumber: "9876543210",
		TenantID:    "t1",
		Roles:       []string{"state_admin"},
	})
	require.NoError(t, err)
	require.Equal(t, "u1", user.ID)
	require.Equal(t, identity.RoleStateAdmin, user.Role)
	require.Equal(t, "t1", user.TenantID)
}

func TestFromClaimsMissingSubject(t *testing.T) {
	_, err := identity.FromClaims(&token.Claims{Name: "nobody"})
	require.ErrorIs(t, err, errors.ErrMissingUserInfo)

	_, err = identity.FromClaims(nil)
	require.ErrorIs(t, err, errors.ErrMissingUserInfo)
}

func TestWithOverrides(t *testing.T) {
	base := &identity.UserIdentity{ID: "u1", Role: identity.RoleViewer, TenantID: "t0"}

	overridden := base.WithOverrides("state_admin", "t1")
	require.Equal(t, identity.RoleStateAdmin, overridden.Role)
	require.Equal(t, "t1", overridden.TenantID)

	// Base identity untouched.
	require.Equal(t, identity.RoleViewer, base.Role)
	require.Equal(t, "t0", base.TenantID)

	// Empty and unknown overrides are ignored.
	same := base.WithOverrides("", "")
	require.Equal(t, base, same)
	unknown := base.WithOverrides("galactic_admin", "")
	require.Equal(t, identity.RoleViewer, unknown.Role)
}

func TestHasTenant(t *testing.T) {
	stateAdmin := &identity.UserIdentity{ID: "u1", Role: identity.RoleStateAdmin, TenantID: "t1"}
	require.True(t, stateAdmin.HasTenant("t1"))
	require.False(t, stateAdmin.HasTenant("t2"))
	require.True(t, stateAdmin.HasTenant(""))

	central := &identity.UserIdentity{ID: "u2", Role: identity.RoleCentralAdmin}
	require.True(t, central.HasTenant("t2"))
}
