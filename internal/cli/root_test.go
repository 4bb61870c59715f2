package cli

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fsguard/fsguard/internal/config"
	"github.com/fsguard/fsguard/internal/logging"
)

func TestDefaultsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.IdleTimeout = 90 * time.Second

	vars := defaults(cfg)

	assert.Equal(t, cfg.Address, vars["address"])
	assert.Equal(t, "4", vars["max_sessions"])
	assert.Equal(t, "1m30s", vars["idle_timeout"])
	assert.Equal(t, "1s", vars["accept_interval"])
	assert.Equal(t, "overwrite", vars["on_collision"])
	assert.Equal(t, "", vars["metrics_address"])
	assert.NotEmpty(t, vars["version"])
}

func TestStartConfigValidates(t *testing.T) {
	cmd := StartCmd{
		Address:        "127.0.0.1:0",
		QuarantineDir:  t.TempDir(),
		OnCollision:    config.CollisionRename,
		MaxSessions:    2,
		AcceptInterval: time.Second,
		BufferLimit:    1024,
		MaxSignatureKB: 1,
	}
	require.NoError(t, cmd.config().Validate())

	cmd.MaxSessions = 0
	assert.ErrorIs(t, cmd.config().Validate(), config.ErrInvalid)
}

func TestRunLoggedWritesEventLog(t *testing.T) {
	file := filepath.Join(t.TempDir(), "server.log")
	log, err := logging.New(logging.Options{File: file, Stream: &bytes.Buffer{}})
	require.NoError(t, err)

	bind := errors.New("failed to listen on 127.0.0.1:65432")
	err = runLogged(log.Logger, func(*slog.Logger) error { return bind })
	require.NoError(t, log.Close())

	require.ErrorIs(t, err, ErrReported)
	require.ErrorIs(t, err, bind)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "level=ERROR")
	assert.Contains(t, string(data), "failed to listen on 127.0.0.1:65432")
}

func TestRunLoggedSuccess(t *testing.T) {
	var out bytes.Buffer
	err := runLogged(slog.New(slog.NewTextHandler(&out, nil)), func(*slog.Logger) error { return nil })
	require.NoError(t, err)
	assert.Empty(t, out.String())
}
