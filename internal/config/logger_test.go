package config

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreLogger(t *testing.T) {
	t.Helper()
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})
}

func TestInitLogger_JSONCarriesServiceAndEnv(t *testing.T) {
	restoreLogger(t)
	var buf bytes.Buffer

	InitLogger(LogOptions{Level: "warn", Format: "json", Output: &buf, Service: "riskwise", Environment: "staging"})
	log.Info().Msg("dropped")
	log.Warn().Str("kind", "gateway").Msg("kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "riskwise", entry["service"])
	assert.Equal(t, "staging", entry["env"])
	assert.Equal(t, "gateway", entry["kind"])
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}

func TestInitLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	restoreLogger(t)
	var buf bytes.Buffer

	InitLogger(LogOptions{Level: "loud", Format: "json", Output: &buf})
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestLogOptionsFrom(t *testing.T) {
	app := AppConfig{Name: "riskwise", Environment: "production", LogLevel: "info", LogFormat: "json"}

	opts := LogOptionsFrom(app, "")
	assert.Equal(t, "info", opts.Level)
	assert.Equal(t, "riskwise", opts.Service)
	assert.Nil(t, opts.Output)

	assert.Equal(t, "debug", LogOptionsFrom(app, "debug").Level)
}
