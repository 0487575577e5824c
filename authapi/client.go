// Package authapi is the HTTP client for the JalSoochak authentication
// endpoints (login, refresh, logout).
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	apperrors "github.com/arghyam/jalsoochak-session/internal/errors"
)

// Endpoints holds the auth endpoint locations relative to the base URL.
type Endpoints struct {
	BaseURL     string
	LoginPath   string
	RefreshPath string
	LogoutPath  string
}

// Client calls the auth endpoints. It always uses its own plain HTTP
// client: routing auth calls through the refresh transport would recurse.
type Client struct {
	endpoints  Endpoints
	httpClient *http.Client
}

// ClientOption modifies a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client (primarily for testing).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient initialises an auth API client.
func NewClient(endpoints Endpoints, options ...ClientOption) (*Client, error) {
	if endpoints.BaseURL == "" {
		return nil, errors.New("[NewClient] base URL is required")
	}
	client := &Client{
		endpoints:  endpoints,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range options {
		opt(client)
	}
	return client, nil
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Login exchanges credentials for a token response.
func (c *Client) Login(ctx context.Context, identifier, password string) (*TokenResponse, error) {
	tr, err := c.postForTokens(ctx, c.endpoints.LoginPath, loginRequest{
		Identifier: identifier,
		Password:   password,
	})
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Login]")
	}
	return tr, nil
}

// Refresh exchanges a refresh token for a new token response.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	tr, err := c.postForTokens(ctx, c.endpoints.RefreshPath, refreshRequest{
		RefreshToken: refreshToken,
	})
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Refresh]")
	}
	return tr, nil
}

// Logout revokes the refresh token server-side. Fire and forget: callers
// clear their local session regardless of the outcome here.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	resp, err := c.post(ctx, c.endpoints.LogoutPath, refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return errors.Wrap(err, "[Client.Logout]")
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("[Client.Logout] unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) postForTokens(ctx context.Context, path string, payload any) (*TokenResponse, error) {
	resp, err := c.post(ctx, path, payload)
	if err != nil {
		return nil, err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode >= http.StatusBadRequest && resp.StatusCode < http.StatusInternalServerError {
		return nil, errors.Wrapf(apperrors.ErrInvalidCredentials, "status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected status %d", resp.StatusCode)
	}

	var tr TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, errors.Wrap(err, "decoding token response")
	}
	if err := tr.Validate(); err != nil {
		return nil, err
	}
	return &tr, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "encoding request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoints.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")

	log.Debug().Str("path", path).Msg("auth api call")
	return c.httpClient.Do(req)
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
