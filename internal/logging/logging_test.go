package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cocadite/api-pe-na-porta/internal/config"
)

func TestNew(t *testing.T) {
	log, cleanup, err := New(&config.Config{LogLevel: "debug", LogFormat: "json"})
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}

func TestNewWithGELF(t *testing.T) {
	log, cleanup, err := New(&config.Config{LogLevel: "info", LogFormat: "text", GelfAddr: "127.0.0.1:12201"})
	require.NoError(t, err)
	defer cleanup()

	assert.Len(t, log.Hooks[logrus.InfoLevel], 1)
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, _, err := New(&config.Config{LogLevel: "loud"})
	require.Error(t, err)
}
