// Package shared holds the configuration and logger every subcommand runs
// with. Init is called once from the root command.
package shared

import (
	"go.uber.org/zap"

	"whisper-scribe/internal/app/logging"
	"whisper-scribe/internal/config"
)

var (
	Verbose    bool
	ConfigPath string
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

// Init loads the configuration and builds the logger. A missing API key fails
// here, before any command does work.
func Init() error {
	loaded, err := config.Load(ConfigPath)
	if err != nil {
		return err
	}

	level := loaded.LogLevel
	if Verbose {
		level = "debug"
	}
	l, err := logging.NewLogger(loaded.IsDevelopment(), level)
	if err != nil {
		return err
	}

	cfg, logger = loaded, l
	return nil
}

// Config returns the loaded configuration.
func Config() *config.Config {
	return cfg
}

// Logger returns the process logger, a no-op one before Init.
func Logger() *zap.Logger {
	return logging.OrNop(logger)
}

// Close flushes the logger.
func Close() {
	if logger != nil {
		_ = logger.Sync()
	}
}
