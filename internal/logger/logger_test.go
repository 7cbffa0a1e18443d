package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug", "json")

	log.Debug().Str("exam_code", "NET-101").Msg("lookup")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "debug", line["level"])
	assert.Equal(t, "NET-101", line["exam_code"])
	assert.Equal(t, "lookup", line["message"])
	assert.Contains(t, line, "time")
	assert.Contains(t, line, "caller")
}

func TestNewLevelFallback(t *testing.T) {
	for _, level := range []string{"", "loud", "  "} {
		log := New(&bytes.Buffer{}, level, "json")
		assert.Equal(t, zerolog.InfoLevel, log.GetLevel(), "level %q", level)
	}
	assert.Equal(t, zerolog.WarnLevel, New(&bytes.Buffer{}, " WARN ", "json").GetLevel())
}

func TestNewFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn", "json")

	log.Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	log.Warn().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestNewPretty(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info", "PRETTY")

	log.Info().Msg("console")

	assert.Contains(t, buf.String(), "console")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}
