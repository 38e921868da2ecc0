package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	return m
}

func TestLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LogConfig{Level: "info", Format: "json", Output: &buf, ServiceName: "arc-tracer"})

	log.WithRun("run-1").WithOperation("process").Info().
		Int("instructions", 4).
		Float64("perimeter", 156).
		Msg("run complete")

	m := decodeLine(t, &buf)
	assert.Equal(t, "arc-tracer", m["service"])
	assert.Equal(t, "run-1", m["run_id"])
	assert.Equal(t, "process", m["operation"])
	assert.Equal(t, float64(4), m["instructions"])
	assert.Equal(t, "run complete", m["message"])
}

func TestLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LogConfig{Level: "warn", Output: &buf})

	log.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	log.Warn().Msg("shown")
	assert.NotZero(t, buf.Len())
}

func TestLogger_ErrorStack(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LogConfig{Level: "debug", Output: &buf})

	log.Error().Stack().Err(errors.New("boom")).Msg("failed")

	m := decodeLine(t, &buf)
	assert.Equal(t, "boom", m["error"])
	assert.NotNil(t, m["stack"])
}

func TestLogger_WithContext(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(LogConfig{Output: &buf})

	assert.Same(t, log, log.WithContext(context.Background()))

	ctx := ContextWithRequestID(context.Background(), "req-42")
	log.WithContext(ctx).Info().Msg("hello")
	assert.Equal(t, "req-42", decodeLine(t, &buf)["request_id"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("nonsense"))
}
