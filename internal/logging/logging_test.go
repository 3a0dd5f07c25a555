package logging

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("bogus"))
}

func TestNew(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		l, err := New(Config{Level: "debug", Format: format})
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "molpot.log")
	l, err := New(Config{Level: "info", Format: "json", OutputPaths: []string{path}})
	require.NoError(t, err)
	l.Info("hello")
	require.NoError(t, l.Sync())
	assert.FileExists(t, path)
}

func TestNew_BadPath(t *testing.T) {
	_, err := New(Config{OutputPaths: []string{filepath.Join(t.TempDir(), "missing", "x.log")}})
	assert.Error(t, err)
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	assert.False(t, OrNop(nil).Core().Enabled(zapcore.ErrorLevel))
}
