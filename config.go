package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config is read from the environment, optionally seeded from .env files.
type Config struct {
	Port      string
	ProjectID string // GCP project for image import; empty disables it
	Region    string
	Model     string
	LogLevel  string
	LogFormat string // "text" or "json"
}

// LoadConfig reads the given .env files (".env" when none) and then the
// environment. Variables already set in the environment win; missing files
// are ignored.
func LoadConfig(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := Config{
		Port:      os.Getenv("PORT"),
		ProjectID: os.Getenv("GCP_PROJECT_ID"),
		Region:    os.Getenv("GCP_REGION"),
		Model:     os.Getenv("GEMINI_MODEL"),
		LogLevel:  os.Getenv("LOG_LEVEL"),
		LogFormat: os.Getenv("LOG_FORMAT"),
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return cfg, nil
}

// configureLogging applies level and format to the standard logrus logger.
func configureLogging(cfg Config) error {
	lvl, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(lvl)

	switch strings.ToLower(cfg.LogFormat) {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log format %q", cfg.LogFormat)
	}
	return nil
}
