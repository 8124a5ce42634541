// Package config loads client and mock-backend settings.
//
// Settings come from three places, later ones winning:
//  1. Default(): sensible values for local development
//  2. an optional YAML file
//  3. environment variables (QAFORUM_BASE_URL, PORT, JWT_SECRET, ...)
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root of the YAML document.
type Config struct {
	Client Client `yaml:"client"`
	Server Server `yaml:"server"`
}

// Client configures the gateway and the session persistence.
type Client struct {
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	SessionDBPath string        `yaml:"session_db"`
	UserAgent     string        `yaml:"user_agent"`
}

// Server configures the mock backend in cmd/server.
type Server struct {
	Port      int    `yaml:"port"`
	JWTSecret string `yaml:"jwt_secret"`
	Seed      bool   `yaml:"seed"`
}

// Default returns the development defaults.
func Default() Config {
	return Config{
		Client: Client{
			BaseURL:       "http://localhost:8080/api",
			Timeout:       15 * time.Second,
			SessionDBPath: "data/session.db",
			UserAgent:     "qaforum-client/1.0",
		},
		Server: Server{
			Port:      8080,
			JWTSecret: "dev-secret-change-me-please",
			Seed:      true,
		},
	}
}

// Load returns Default() overlaid with the YAML file at path (skipped when
// path is empty or the file does not exist) and then with the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// no file, keep defaults
		case err != nil:
			return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("QAFORUM_BASE_URL"); ok && v != "" {
		cfg.Client.BaseURL = v
	}
	if v, ok := lookup("QAFORUM_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid QAFORUM_TIMEOUT %q: %w", v, err)
		}
		cfg.Client.Timeout = d
	}
	if v, ok := lookup("QAFORUM_SESSION_DB"); ok && v != "" {
		cfg.Client.SessionDBPath = v
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v) // Atoi = ASCII to Integer
		if err != nil {
			return fmt.Errorf("config: invalid PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v, ok := lookup("JWT_SECRET"); ok && v != "" {
		cfg.Server.JWTSecret = v
	}
	return nil
}
