package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, DefaultSocket, cfg.Server.Socket)
	require.Equal(t, DefaultQueueSize, cfg.Server.QueueSize)
	require.Equal(t, DefaultDriver, cfg.Server.Driver)
	require.Equal(t, 0, cfg.Server.StatusPort)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("server:\n  socket: /tmp/custom.sock\n  queue_size: 16\nlogger:\n  level: debug\n")
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/custom.sock", cfg.Server.Socket)
	require.Equal(t, 16, cfg.Server.QueueSize)
	require.Equal(t, "debug", cfg.Logger.Level)
	// Untouched values keep their defaults.
	require.Equal(t, DefaultDriver, cfg.Server.Driver)
	require.Equal(t, DefaultRankerMaxTokens, cfg.Ranker.MaxTokens)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
