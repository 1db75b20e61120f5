package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level string
		want  hclog.Level
	}{
		{"trace", hclog.Trace},
		{"debug", hclog.Debug},
		{"INFO", hclog.Info},
		{"error", hclog.Error},
		{"off", hclog.Off},
		{"", hclog.Warn},
		{"shouty", hclog.Warn},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l := New("iconform", Options{Level: tt.level, Output: &bytes.Buffer{}})
			assert.Equal(t, tt.want, l.GetLevel())
		})
	}
}

func TestNewWritesToOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New("iconform", Options{Level: "debug", Output: &buf, JSON: true})
	l.Named("session").Debug("selection changed", "count", 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "iconform.session", entry["@module"])
	assert.Equal(t, "selection changed", entry["@message"])
	assert.Equal(t, 2.0, entry["count"])
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}
