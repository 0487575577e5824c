// session-demo walks the full client lifecycle against a running IdP:
// restore, login, an authenticated call through the refresh transport,
// and logout.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/arghyam/jalsoochak-session/authapi"
	"github.com/arghyam/jalsoochak-session/internal/config"
	"github.com/arghyam/jalsoochak-session/session"
	"github.com/arghyam/jalsoochak-session/session/filerepo"
	"github.com/arghyam/jalsoochak-session/transport"
)

func main() {
	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	identifier := flag.String("identifier", "9876543210", "login identifier (phone or email)")
	password := flag.String("password", "pw", "login password")
	flag.Parse()

	if err := run(*identifier, *password); err != nil {
		log.Fatal().Err(err).Msg("demo failed")
	}
}

func run(identifier, password string) error {
	c := config.New()

	authAPI, err := authapi.NewClient(authapi.Endpoints{
		BaseURL:     c.GetAPIBaseURL(),
		LoginPath:   c.GetLoginPath(),
		RefreshPath: c.GetRefreshPath(),
		LogoutPath:  c.GetLogoutPath(),
	})
	if err != nil {
		return err
	}

	store, err := session.NewStore(authAPI, filerepo.New(c.GetTokenFilePath()))
	if err != nil {
		return err
	}

	// Pick up a previous run's session before prompting a fresh login.
	store.Restore()
	if store.IsAuthenticated() {
		log.Info().Str("user", store.User().Name).Msg("session restored from disk")
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), c.GetHTTPTimeout())
		defer cancel()

		user, err := store.Login(ctx, session.Credentials{Identifier: identifier, Password: password})
		if err != nil {
			return err
		}
		log.Info().Str("user", user.Name).Str("role", string(user.Role)).Str("tenant", user.TenantID).Msg("logged in")
	}

	coordinator, err := transport.NewCoordinator(store)
	if err != nil {
		return err
	}
	tr, err := transport.New(store, coordinator, []string{c.GetLoginPath(), c.GetRefreshPath(), c.GetLogoutPath()})
	if err != nil {
		return err
	}

	client := tr.Client()
	client.Timeout = c.GetHTTPTimeout()

	resp, err := client.Get(c.GetAPIBaseURL() + "/api/v1/metrics/summary")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	fmt.Printf("metrics summary (%d): %s\n", resp.StatusCode, body)

	logoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store.Logout(logoutCtx)
	log.Info().Msg("logged out")
	return nil
}
