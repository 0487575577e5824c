package config

import (
	"fmt"
	"strconv"
	"time"
)

type IdpConfig interface {
	GetIdpPort() string
	GetIdpIssuer() string
	GetIdpSigningSecret() string
	GetAccessTokenExpiry() time.Duration
	GetIDTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
}

type Idp struct{}

var _ IdpConfig = Idp{}

func (Idp) GetIdpPort() string {
	port := GetEnv("IDP_PORT", "8080")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (Idp) GetIdpIssuer() string {
	return GetEnv("IDP_ISSUER", "jalsoochak-idp")
}

// GetIdpSigningSecret returns the HS256 secret used by the stub identity
// provider. Development fixture only, never a production key.
func (Idp) GetIdpSigningSecret() string {
	return GetEnv("IDP_SIGNING_SECRET", "jalsoochak-dev-secret")
}

func (Idp) GetAccessTokenExpiry() time.Duration {
	return durationEnv("ACCESS_TOKEN_EXPIRY_MINUTES", 15)
}

func (Idp) GetIDTokenExpiry() time.Duration {
	return durationEnv("ID_TOKEN_EXPIRY_MINUTES", 60)
}

func (Idp) GetRefreshTokenExpiry() time.Duration {
	return durationEnv("REFRESH_TOKEN_EXPIRY_MINUTES", 7*24*60)
}

func durationEnv(envVar string, defaultMinutes int) time.Duration {
	minutes, err := strconv.Atoi(GetEnv(envVar, strconv.Itoa(defaultMinutes)))
	if err != nil || minutes <= 0 {
		minutes = defaultMinutes
	}
	return time.Duration(minutes) * time.Minute
}
