// Package token decodes bearer token payloads for display and session
// derivation. It NEVER verifies signatures: the decoded claims are a
// convenience for the client UI, not a trust boundary. Bearer-token
// validation is the server's job; nothing in this package may be used to
// make an authorization decision.
package token

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/arghyam/jalsoochak-session/internal/utils"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Claims is the decoded payload of a JalSoochak bearer token.
type Claims struct {
	Sub         string   // Unique user ID
	Name        string   // Display name
	Email       string   // Email address
	PhoneNumber string   // Phone number (login identifier for field users)
	TenantID    string   // Tenant the token was issued for
	Iat         int64    // Issued at (seconds since epoch), 0 when absent
	Exp         int64    // Expiry (seconds since epoch), 0 when absent
	Roles       []string // Combined role roster (flat "roles" + "realm_access.roles")
}

// Decode extracts the claims from a raw token without verifying its
// signature. It is total: any malformed input (empty string, wrong segment
// count, bad base64, bad JSON) yields (nil, false), the same as no token.
func Decode(raw string) (*Claims, bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, false
	}

	unverified, _, err := jwtlib.NewParser().ParseUnverified(raw, jwtlib.MapClaims{})
	if err != nil {
		return nil, false
	}

	mapClaims, ok := unverified.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, false
	}

	claims := &Claims{}
	claims.Sub, _ = mapClaims["sub"].(string)
	claims.Name, _ = mapClaims["name"].(string)
	claims.Email, _ = mapClaims["email"].(string)
	claims.PhoneNumber, _ = mapClaims["phone_number"].(string)
	claims.TenantID, _ = mapClaims["tenant_id"].(string)

	if iat, ok := mapClaims["iat"].(float64); ok {
		claims.Iat = int64(iat)
	}
	if exp, ok := mapClaims["exp"].(float64); ok {
		claims.Exp = int64(exp)
	}

	claims.Roles = rolesFromClaims(mapClaims)
	return claims, true
}

// Expired reports whether the token's expiry has passed. A token with no
// exp claim never expires.
func (c *Claims) Expired() bool {
	if c == nil {
		return true
	}
	if c.Exp == 0 {
		return false
	}
	return NowTimeFunc().Unix() >= c.Exp
}

// rolesFromClaims combines the flat "roles" roster with the nested
// "realm_access.roles" roster, preserving encounter order.
func rolesFromClaims(mapClaims jwtlib.MapClaims) []string {
	roles := make([]string, 0)

	if flat, ok := mapClaims["roles"].([]any); ok {
		roles = append(roles, utils.ToStringSlice(flat)...)
	}

	if realmAccess, ok := mapClaims["realm_access"].(map[string]any); ok {
		if nested, ok := realmAccess["roles"].([]any); ok {
			roles = append(roles, utils.ToStringSlice(nested)...)
		}
	}

	return roles
}
