package main

import (
	"errors"
	"io"
	"io/fs"

	"github.com/christianlegge/waybar-timer/go/internal/config"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// setup loads .env and the config file and configures logging. Client
// commands only log warnings and above.
func setup(configPath string, serving bool, stderr io.Writer) (config.Config, error) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	path, mustExist := configPath, true
	if path == "" {
		path, mustExist = config.DefaultPath(), false
	}
	cfg, err := config.Load(path, mustExist)
	if err != nil {
		return cfg, err
	}

	if serving {
		level, _ := cfg.Level()
		zerolog.SetGlobalLevel(level)
	}
	return cfg, nil
}
