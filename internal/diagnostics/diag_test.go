package diagnostics

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeChangeJSON(t *testing.T) {
	b, err := json.Marshal(ModeChange("idle", "raw"))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "info", got["severity"])
	assert.Equal(t, "MODE.CHANGE", got["code"])
	assert.Equal(t, map[string]any{"from": "idle", "to": "raw"}, got["evidence"])
	assert.NotContains(t, got, "detail")
}

func TestPushFailed(t *testing.T) {
	d := PushFailed(errors.New("spi write: EIO"))
	assert.Equal(t, Warn, d.Severity)
	assert.Equal(t, "spi write: EIO", d.Detail)
}
