package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidateRejectsOverCommittedCap(t *testing.T) {
	cfg := Default()
	cfg.MaxSessions = cfg.Workers*cfg.ClientsPerWorker + 1
	require.Error(t, cfg.Validate())
}

func TestUpdateFromKeepsZeroFields(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Addr: ":7777", MaxRooms: 3})

	assert.Equal(t, ":7777", cfg.Addr)
	assert.Equal(t, 3, cfg.MaxRooms)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

func TestLoadWritesAndReadsDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, resolved, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)
	assert.Equal(t, Default(), cfg)
	assert.FileExists(t, path)

	// Second load reads the file written by the first.
	again, _, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ROOMCHAT_MAX_ROOMS", "7")
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, _, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.MaxRooms)
}
