package config

import (
	"strconv"
	"time"
)

type AuthConfig interface {
	GetAPIBaseURL() string
	GetLoginPath() string
	GetRefreshPath() string
	GetLogoutPath() string
	GetTokenFilePath() string
	GetHTTPTimeout() time.Duration
}

type Auth struct{}

var _ AuthConfig = Auth{}

// GetAPIBaseURL returns the base URL of the JalSoochak backend
// (e.g. "https://api.jalsoochak.in")
func (Auth) GetAPIBaseURL() string {
	return GetEnv("API_BASE_URL", "http://localhost:8080")
}

func (Auth) GetLoginPath() string {
	return GetEnv("AUTH_LOGIN_PATH", "/api/v1/auth/login")
}

func (Auth) GetRefreshPath() string {
	return GetEnv("AUTH_REFRESH_PATH", "/api/v1/auth/refresh")
}

func (Auth) GetLogoutPath() string {
	return GetEnv("AUTH_LOGOUT_PATH", "/api/v1/auth/logout")
}

// GetTokenFilePath returns where the persisted session token lives.
func (Auth) GetTokenFilePath() string {
	return GetEnv("TOKEN_FILE", "./data/session.json")
}

func (Auth) GetHTTPTimeout() time.Duration {
	seconds, err := strconv.Atoi(GetEnv("HTTP_TIMEOUT_SECONDS", "15"))
	if err != nil || seconds <= 0 {
		seconds = 15
	}
	return time.Duration(seconds) * time.Second
}
