package main

import (
	"fmt"
	"os"

	"github.com/adminkit-dev/adminkit/internal/config"
	"github.com/adminkit-dev/adminkit/internal/logger"
	"github.com/adminkit-dev/adminkit/internal/server"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("adminkit-server version %s\n", version)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	srv, err := server.New(cfg, log, version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	log.Info().
		Str("version", version).
		Str("addr", cfg.HTTP.Addr).
		Str("database", cfg.Database.URL).
		Dur("token_ttl", cfg.Session.TokenTTL).
		Msg("Starting adminkit server")

	// Blocks until SIGINT or SIGTERM
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
