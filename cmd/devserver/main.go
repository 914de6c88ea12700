package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/MKhiriev/go-sync-cache/internal/config"
	"github.com/MKhiriev/go-sync-cache/internal/devserver"
	"github.com/MKhiriev/go-sync-cache/internal/logger"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("go-sync-devserver")
	cfg, err := config.GetServerConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	log.Debug().Str("address", cfg.HTTPAddress).Int("collections", len(cfg.Collections)).Msg("received configs")

	srv, err := devserver.NewServer(*cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	if err = srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("error running server")
	}
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
