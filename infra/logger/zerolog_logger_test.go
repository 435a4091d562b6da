package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	assert.NoError(t, os.Setenv("APP_ENV", "dev"))
	defer func() { assert.NoError(t, os.Unsetenv("APP_ENV")) }()
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}

func TestLoggerFieldsAndLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "engine").(*ZerologLogger).With(map[string]any{"experiment_id": "exp"})
	l.Debugw("tick", map[string]any{"phase": 1})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "engine", entry["component"])
	assert.Equal(t, "exp", entry["experiment_id"])
	assert.Equal(t, float64(1), entry["phase"])
	assert.Equal(t, "debug", entry["level"])

	require.NoError(t, SetLevel("warn"))
	buf.Reset()
	l.Infof("hidden")
	assert.Zero(t, buf.Len())
	l.Warnf("shown")
	assert.NotZero(t, buf.Len())

	assert.Error(t, SetLevel("loud"))
	assert.NoError(t, SetLevel(""))
}
