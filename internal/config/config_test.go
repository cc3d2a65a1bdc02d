package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/sleepsafe/internal/model"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	require.Nil(t, cfg.Analysis.Sensitivity)
}

func TestLoadConfigAppliesSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[analysis]
sensitivity = 3
fatigue = false

[voice]
mode = "custom"
stability = 0.5

[ai]
model = "gemini-2.5-flash"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "gemini-2.5-flash", *cfg.AI.Model)

	s := cfg.ApplySettings(model.DefaultSettings())
	require.Equal(t, 3, s.Sensitivity)
	require.False(t, s.FatigueEnabled)
	require.True(t, s.EmotionEnabled)
	require.Equal(t, model.VoiceModeCustom, s.VoiceMode)
	require.Equal(t, 0.5, s.CustomStability)
	require.Equal(t, 0.1, s.CustomStyle)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[analysis]\nsensitivity = 5\n[voice]\nstyle = 1.5\n"), 0o644))
	_, err := LoadConfig(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "analysis.sensitivity")
	require.Contains(t, err.Error(), "voice.style")
}

func TestDefaultPathsUseXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("XDG_STATE_HOME", "/state")
	require.Equal(t, filepath.Join("/cfg", "sleepsafe", "config.toml"), DefaultConfigPath())
	require.Equal(t, filepath.Join("/data", "sleepsafe", "sleepsafe.db"), DefaultDBPath())
	require.Equal(t, filepath.Join("/state", "sleepsafe", "sleepsafe.log"), DefaultLogPath())
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[analysis]\nsensitivity = 1\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan FileConfig, 4)
	require.NoError(t, Watch(ctx, path, func(cfg FileConfig) { changes <- cfg }, nil))

	require.NoError(t, os.WriteFile(path, []byte("[analysis]\nsensitivity = 3\n"), 0o644))
	select {
	case cfg := <-changes:
		require.NotNil(t, cfg.Analysis.Sensitivity)
		require.Equal(t, 3, *cfg.Analysis.Sensitivity)
	case <-time.After(5 * time.Second):
		t.Fatalf("config change not observed")
	}
}
