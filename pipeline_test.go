package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whiteboard-pipeline/config"
)

func TestParseDiagrams(t *testing.T) {
	got, err := parseDiagrams([]string{"a.png:4.5", "dir/b.png", `C:\img\c.png:2`, "odd:name.png"})
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, "a.png", got[0].SourceFile)
	assert.Equal(t, 4.5, got[0].SceneDurationSec)
	assert.Equal(t, "dir/b.png", got[1].SourceFile)
	assert.Zero(t, got[1].SceneDurationSec)
	assert.Equal(t, `C:\img\c.png`, got[2].SourceFile)
	assert.Equal(t, 2.0, got[2].SceneDurationSec)
	assert.Equal(t, "odd:name.png", got[3].SourceFile)

	for i, d := range got {
		assert.Equal(t, i, d.Index)
		assert.NotEmpty(t, d.ID)
	}
	assert.NotEqual(t, got[0].ID, got[1].ID)
}

func TestParseDiagramsErrors(t *testing.T) {
	_, err := parseDiagrams(nil)
	assert.Error(t, err)

	_, err = parseDiagrams([]string{"a.png:0"})
	assert.Error(t, err)
	_, err = parseDiagrams([]string{"a.png:-3"})
	assert.Error(t, err)
	_, err = parseDiagrams([]string{"a.png:NaN"})
	assert.Error(t, err)
}

func TestLoadConfigFallsBackToDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default().Canvas, cfg.Canvas)
}

func TestLoadConfigValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("visuals:\n  fps: 0\n"), 0644))
	_, err := loadConfig(path)
	assert.ErrorContains(t, err, "fps")
}

func TestNewLogger(t *testing.T) {
	l, err := newLogger(config.LoggingConfig{Level: "debug"})
	require.NoError(t, err)
	assert.NotNil(t, l)

	_, err = newLogger(config.LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}
