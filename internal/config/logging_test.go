package config

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestSetupLogger(t *testing.T) {
	t.Cleanup(func() {
		logrus.SetLevel(logrus.InfoLevel)
		logrus.SetFormatter(&logrus.TextFormatter{})
	})

	log := SetupLogger(&Config{IsProd: true, LogLevel: "debug"})
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log = SetupLogger(&Config{LogLevel: "loud"})
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}
