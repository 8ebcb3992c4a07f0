package config

import (
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// SetupLogger configures the standard logrus logger: JSON in production, text
// with full timestamps otherwise. An unknown LOG_LEVEL falls back to info.
func SetupLogger(cfg *Config) *logrus.Logger {
	log := logrus.StandardLogger()
	if cfg.IsProd {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}
