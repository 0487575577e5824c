package authapi

import "github.com/arghyam/jalsoochak-session/internal/errors"

// TokenResponse is the response from the JalSoochak login and refresh
// endpoints. Both endpoints return the same shape.
type TokenResponse struct {
	// AccessToken is the bearer token used for protected API calls.
	// Usage: "Authorization: Bearer <access_token>"
	// Lifespan: short-lived (typically 15 minutes)
	AccessToken *string `json:"access_token,omitempty"`

	// RefreshToken is an opaque credential exchanged for new tokens.
	// Lifespan: long-lived; rotates on each refresh.
	RefreshToken *string `json:"refresh_token,omitempty"`

	// IDToken carries the user's identity claims. The client decodes it
	// (unverified) to derive the session user.
	IDToken *string `json:"id_token,omitempty"`

	// TokenType is always "bearer" in this implementation.
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the access token lifetime in seconds. A hint only -
	// the authoritative expiry is the token's own exp claim.
	ExpiresIn int `json:"expires_in,omitempty"`

	// PersonType and TenantID are out-of-band augmentation: the backend
	// injects the effective role and tenant alongside the tokens, and they
	// override whatever the ID token's claims say.
	PersonType string `json:"person_type,omitempty"`
	TenantID   string `json:"tenant_id,omitempty"`
}

// Validate rejects a response missing any of the three tokens. Login and
// refresh responses are held to the same rule.
func (tr *TokenResponse) Validate() error {
	if tr == nil {
		return errors.ErrInvalidTokenResponse
	}
	if tr.AccessToken == nil || *tr.AccessToken == "" ||
		tr.RefreshToken == nil || *tr.RefreshToken == "" ||
		tr.IDToken == nil || *tr.IDToken == "" {
		return errors.ErrInvalidTokenResponse
	}
	return nil
}
