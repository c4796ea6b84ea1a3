package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLevels(t *testing.T) {
	require.NoError(t, Init(Config{Debug: true}))
	assert.Equal(t, zerolog.DebugLevel, log.Logger.GetLevel())

	require.NoError(t, Init(Config{Level: "warn"}))
	assert.Equal(t, zerolog.WarnLevel, log.Logger.GetLevel())

	require.NoError(t, Init(Config{}))
	assert.Equal(t, zerolog.InfoLevel, log.Logger.GetLevel())

	assert.Error(t, Init(Config{Level: "loud"}))
}

func TestInitTimeFormat(t *testing.T) {
	prev := zerolog.TimeFieldFormat
	t.Cleanup(func() { zerolog.TimeFieldFormat = prev })

	var buf bytes.Buffer
	require.NoError(t, InitWithWriter(Config{TimeFormat: zerolog.TimeFormatUnixMs}, &buf))
	WithComponent("test").Info().Msg("tick")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.IsType(t, float64(0), line["time"])
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InitWithWriter(Config{}, &buf))

	l := WithComponent("ingest")
	l.Info().Str("dev", "aabbccddeeff").Msg("MSG recv")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "ingest", line["component"])
	assert.Equal(t, "aabbccddeeff", line["dev"])
	assert.Equal(t, "MSG recv", line["message"])
}
