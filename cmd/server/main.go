// Command server runs the mock forum backend the client talks to during
// development and end-to-end tests.
//
// Configuration comes from internal/config: defaults, then the YAML file
// named by -config, then PORT and JWT_SECRET from the environment.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/sakif/qaforum/internal/config"
	"github.com/sakif/qaforum/internal/server"
)

func main() {
	configPath := flag.String("config", "qaforum.yaml", "path to the YAML config file")
	noSeed := flag.Bool("no-seed", false, "start with empty tables")
	debug := flag.Bool("debug", false, "log at debug level")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *noSeed {
		cfg.Server.Seed = false
	}
	if cfg.Server.JWTSecret == config.Default().Server.JWTSecret {
		logger.Warn("using the development JWT secret; set JWT_SECRET outside local testing")
	}

	srv, err := server.New(cfg.Server, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT or SIGTERM
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
