package idp

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/arghyam/jalsoochak-session/authapi"
	"github.com/arghyam/jalsoochak-session/identity"
	"github.com/arghyam/jalsoochak-session/internal/utils"
)

const contentTypeJSON = "application/json; charset=utf-8"

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "malformed request body")
			return
		}

		user, err := s.users.GetByIdentifier(req.Identifier)
		if err != nil || !CheckPasswordHash(req.Password, user.PasswordHash) {
			// Same response for unknown identifier and wrong password.
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		s.writeTokenResponse(w, user)
	}
}

func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "malformed request body")
			return
		}

		userID, err := s.tokens.ConsumeRefreshToken(req.RefreshToken)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid refresh token")
			return
		}

		user, err := s.userByID(userID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unknown user")
			return
		}

		s.writeTokenResponse(w, user)
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "malformed request body")
			return
		}

		s.tokens.RevokeRefreshToken(req.RefreshToken)
		w.WriteHeader(http.StatusNoContent)
	}
}

// MetricsSummaryHandler serves a fixed performance snapshot: the kind of
// state-level water-supply figures the dashboard charts. Fixture data.
func (s *Server) MetricsSummaryHandler() http.HandlerFunc {
	summary := map[string]any{
		"habitations_total":     18423,
		"habitations_reporting": 17210,
		"avg_lpcd":              52.4,
		"schemes_operational":   1211,
		"escalations_open":      37,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentTypeJSON)
		_ = json.NewEncoder(w).Encode(summary)
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentTypeJSON)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}

// writeTokenResponse issues the full token set for a user. The response
// shape matches what the session client's auth API expects, including the
// out-of-band person_type/tenant_id augmentation.
func (s *Server) writeTokenResponse(w http.ResponseWriter, user *User) {
	accessToken, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		log.Error().Err(err).Msg("failed to issue access token")
		writeError(w, http.StatusInternalServerError, "token issuance failed")
		return
	}
	idToken, err := s.tokens.IssueIDToken(user)
	if err != nil {
		log.Error().Err(err).Msg("failed to issue id token")
		writeError(w, http.StatusInternalServerError, "token issuance failed")
		return
	}
	refreshToken, err := s.tokens.CreateRefreshToken(user.ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to create refresh token")
		writeError(w, http.StatusInternalServerError, "token issuance failed")
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	_ = json.NewEncoder(w).Encode(authapi.TokenResponse{
		AccessToken:  utils.Ptr(accessToken),
		RefreshToken: utils.Ptr(refreshToken),
		IDToken:      utils.Ptr(idToken),
		TokenType:    "bearer",
		ExpiresIn:    int(s.config.GetAccessTokenExpiry().Seconds()),
		PersonType:   string(identity.ResolveRole(user.Roles)),
		TenantID:     user.TenantID,
	})
}

func (s *Server) userByID(userID string) (*User, error) {
	return s.users.GetByID(userID)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
