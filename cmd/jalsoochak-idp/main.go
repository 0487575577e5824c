package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/arghyam/jalsoochak-session/idp"
	"github.com/arghyam/jalsoochak-session/internal/config"
)

func main() {
	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("error running idp")
	}
	log.Info().Msg("idp stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName() + " IdP")

	users := idp.NewUserRepo()
	if err := users.SeedFixtures(); err != nil {
		return fmt.Errorf("seeding users: %w", err)
	}

	idpServer, err := idp.New(c, users, idp.NewTokenIssuer(c))
	if err != nil {
		return fmt.Errorf("idp.New: %w", err)
	}

	server := &http.Server{Addr: c.GetIdpPort(), Handler: idpServer}
	go listenAndServe(server)
	waitForStopSignal()
	return shutdown(server)
}

func listenAndServe(server *http.Server) {
	log.Info().Str("addr", server.Addr).Msg("idp listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
