package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(buf, false)

	log.Debug().Msg("hidden")
	l := Component("coordinator")
	l.Info().Str("roomId", "ABC123").Msg("room created")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "coordinator", entry["component"])
	assert.Equal(t, "ABC123", entry["roomId"])
	assert.Equal(t, "room created", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestSetupDebugConsole(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(buf, true)

	log.Debug().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
}
