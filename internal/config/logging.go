package config

import (
	"fmt"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// SetupLogger builds the process logger: human-readable text on stderr,
// plus JSON to logFile when one is configured. The returned cleanup closes
// the file.
func SetupLogger(logFile string, level slog.Level) (*slog.Logger, func() error, error) {
	stderrHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})

	if logFile == "" {
		logger := slog.New(stderrHandler)
		return logger, func() error { return nil }, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file %s: %w", logFile, err)
	}

	fileHandler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level})
	logger := slog.New(slogmulti.Fanout(stderrHandler, fileHandler))
	return logger, f.Close, nil
}
