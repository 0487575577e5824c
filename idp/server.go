// Package idp is a development stub identity provider for the JalSoochak
// backend: just enough of the auth surface (login, refresh, logout, one
// protected resource) to run the session client against, the way the
// dashboard originally ran against in-memory mock services. Not for
// production use.
package idp

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/arghyam/jalsoochak-session/internal/config"
)

const (
	RouteLogin          = "/api/v1/auth/login"
	RouteRefresh        = "/api/v1/auth/refresh"
	RouteLogout         = "/api/v1/auth/logout"
	RouteMetricsSummary = "/api/v1/metrics/summary"
	RouteHealth         = "/healthz"
)

type Server struct {
	mux    *http.ServeMux
	routes []string
	config config.IdpConfig
	users  *UserRepo
	tokens *TokenIssuer
}

func New(cfg config.IdpConfig, users *UserRepo, tokens *TokenIssuer) (*Server, error) {
	if users == nil {
		return nil, errors.New("[idp.New] user repo is required")
	}
	if tokens == nil {
		return nil, errors.New("[idp.New] token issuer is required")
	}

	s := &Server{
		mux:    http.NewServeMux(),
		config: cfg,
		users:  users,
		tokens: tokens,
	}
	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler http.HandlerFunc) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("POST "+RouteLogin, ChainMiddleware(s.LoginHandler(), s.LoggingMiddleware, s.RecoverMiddleware))
	s.RegisterRouteFunc("POST "+RouteRefresh, ChainMiddleware(s.RefreshHandler(), s.LoggingMiddleware, s.RecoverMiddleware))
	s.RegisterRouteFunc("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.LoggingMiddleware, s.RecoverMiddleware))
	s.RegisterRouteFunc("GET "+RouteMetricsSummary, ChainMiddleware(s.MetricsSummaryHandler(), s.LoggingMiddleware, s.RecoverMiddleware, s.RequireAuth))
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
}

func (s *Server) logRoutes() {
	for _, route := range s.routes {
		log.Debug().Str("route", route).Msg("registered route")
	}
}
