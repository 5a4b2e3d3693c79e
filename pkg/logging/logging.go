package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// ConsoleLogger returns a stderr-only logger at the given level.
func ConsoleLogger(level logrus.Level) *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logger
}

// Setup builds the process logger. When logPath is non-empty the logger also
// appends JSON lines to that file, creating parent directories as needed.
func Setup(level logrus.Level, logPath string) *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if logPath == "" {
		return logger
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		logger.WithError(err).Warn("could not create log directory, logging to stderr only")
		return logger
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logger.WithError(err).Warn("could not open log file, logging to stderr only")
		return logger
	}
	logger.SetOutput(io.MultiWriter(os.Stderr, f))
	return logger
}
