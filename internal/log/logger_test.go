// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// captureLogs swaps the global logger for one writing to a buffer.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	Reconfigure(Config{Level: "debug", Output: &buf, Service: "test"})
	t.Cleanup(func() { Reconfigure(Config{Level: "info"}) })
	return &buf
}

func TestWithComponentAddsField(t *testing.T) {
	buf := captureLogs(t)

	l := WithComponent("eventbus")
	l.Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "eventbus", entry[FieldComponent])
	require.Equal(t, "test", entry["service"])
	require.Equal(t, "hello", entry["message"])
}

func TestConfigureOnlyFirstCallWins(t *testing.T) {
	buf := captureLogs(t)
	var other bytes.Buffer
	Configure(Config{Output: &other})

	L().Info().Msg("kept")
	require.Contains(t, buf.String(), "kept")
	require.Zero(t, other.Len())
}

func TestDerive(t *testing.T) {
	buf := captureLogs(t)

	l := Derive(func(ctx zerolog.Context) zerolog.Context {
		return ctx.Str("custom_field", "test_value").Int("attempt", 2)
	})
	l.Info().Msg("derived")
	require.Contains(t, buf.String(), `"custom_field":"test_value"`)
	require.Contains(t, buf.String(), `"attempt":2`)

	nilBuilder := Derive(nil)
	require.LessOrEqual(t, nilBuilder.GetLevel(), zerolog.PanicLevel)
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	Reconfigure(Config{Level: "info", Output: &buf, Format: FormatConsole})
	t.Cleanup(func() { Reconfigure(Config{Level: "info"}) })

	l := WithComponent("eventbus")
	l.Info().Str("event_type", "orderPlaced").Msg("published")

	out := buf.String()
	require.Contains(t, out, "published")
	require.Contains(t, out, "event_type=")
	require.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())), "console output is not JSON")
}
