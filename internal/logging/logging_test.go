package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesStreamAndFile(t *testing.T) {
	var stream bytes.Buffer
	file := filepath.Join(t.TempDir(), "nested", "server.log")

	l, err := New(Options{Level: slog.LevelInfo, File: file, Stream: &stream})
	require.NoError(t, err)

	l.Info("connected", "peer", "127.0.0.1:5000")
	l.Debug("hidden")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(file)
	require.NoError(t, err)

	assert.Contains(t, stream.String(), "msg=connected")
	assert.Contains(t, stream.String(), "peer=127.0.0.1:5000")
	assert.NotContains(t, stream.String(), "hidden")
	assert.Equal(t, stream.String(), string(data))
}

func TestNewAppends(t *testing.T) {
	file := filepath.Join(t.TempDir(), "server.log")
	require.NoError(t, os.WriteFile(file, []byte("earlier\n"), 0644))

	l, err := New(Options{File: file, Stream: &bytes.Buffer{}})
	require.NoError(t, err)
	l.Warn("later")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("earlier\n")))
	assert.Contains(t, string(data), "msg=later")
}

func TestNewGroup(t *testing.T) {
	var stream bytes.Buffer

	l, err := New(Options{Stream: &stream, Group: "fsguardd"})
	require.NoError(t, err)
	l.Info("scan", "offsets", 3)

	assert.Contains(t, stream.String(), "fsguardd.offsets=3")
	assert.NoError(t, l.Close())
}

func TestNewUnwritableFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	_, err := New(Options{File: filepath.Join(blocker, "server.log"), Stream: &bytes.Buffer{}})
	assert.ErrorIs(t, err, ErrLogFile)
}
