package logging

import (
	"log/slog"
)

// SetupMCPMode initializes logging for the MCP stdio server. Stdout carries
// JSON-RPC exclusively, so logs go only to the file at path (the default
// log path when empty) and never to stdout or stderr.
func SetupMCPMode(level, path string) (func(), error) {
	if path == "" {
		path = DefaultLogPath()
	}
	cfg := Config{
		Level:         level,
		Format:        "json",
		FilePath:      path,
		MaxSizeMB:     10,
		MaxBackups:    5,
		WriteToStderr: false,
	}

	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	slog.Info("MCP mode logging initialized",
		slog.String("log_file", cfg.FilePath),
		slog.String("level", cfg.Level))

	return cleanup, nil
}
