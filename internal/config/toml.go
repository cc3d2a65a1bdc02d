// Package config provides configuration helpers and TOML parsing.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/sleepsafe/internal/model"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Analysis AnalysisConfig `toml:"analysis"`
	Voice    VoiceConfig    `toml:"voice"`
	AI       AIConfig       `toml:"ai"`
	TTS      TTSConfig      `toml:"tts"`
	Audio    AudioConfig    `toml:"audio"`
	Log      LogConfig      `toml:"log"`
}

// AnalysisConfig maps typing analysis settings.
type AnalysisConfig struct {
	Sensitivity *int  `toml:"sensitivity"`
	Fatigue     *bool `toml:"fatigue"`
	Emotion     *bool `toml:"emotion"`
}

// VoiceConfig maps reply voice settings.
type VoiceConfig struct {
	Output    *bool    `toml:"output"`
	VoiceID   *string  `toml:"voice-id"`
	Mode      *string  `toml:"mode"`
	Stability *float64 `toml:"stability"`
	Style     *float64 `toml:"style"`
}

// AIConfig maps the language model client settings.
type AIConfig struct {
	Model     *string  `toml:"model"`
	PlanModel *string  `toml:"plan-model"`
	BaseURL   *string  `toml:"base-url"`
	TimeoutMS *int     `toml:"timeout-ms"`
	RPS       *float64 `toml:"rps"`
}

// TTSConfig maps the speech synthesis client settings.
type TTSConfig struct {
	BaseURL   *string `toml:"base-url"`
	Model     *string `toml:"model"`
	TimeoutMS *int    `toml:"timeout-ms"`
}

// AudioConfig maps the playback command.
type AudioConfig struct {
	Player *string `toml:"player"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level  *string `toml:"level"`
	Format *string `toml:"format"`
	File   *string `toml:"file"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return FileConfig{}, err
	}
	return cfg, nil
}

// Validate checks value ranges of the set fields.
func (c FileConfig) Validate() error {
	var errs []error
	if v := c.Analysis.Sensitivity; v != nil && (*v < 1 || *v > 3) {
		errs = append(errs, fmt.Errorf("analysis.sensitivity must be 1, 2 or 3"))
	}
	if v := c.Voice.Mode; v != nil && *v != string(model.VoiceModeDynamic) && *v != string(model.VoiceModeCustom) {
		errs = append(errs, fmt.Errorf("voice.mode must be %q or %q", model.VoiceModeDynamic, model.VoiceModeCustom))
	}
	if v := c.Voice.Stability; v != nil && (*v < 0 || *v > 1) {
		errs = append(errs, fmt.Errorf("voice.stability must be between 0 and 1"))
	}
	if v := c.Voice.Style; v != nil && (*v < 0 || *v > 1) {
		errs = append(errs, fmt.Errorf("voice.style must be between 0 and 1"))
	}
	if v := c.AI.RPS; v != nil && *v <= 0 {
		errs = append(errs, fmt.Errorf("ai.rps must be > 0"))
	}
	return errors.Join(errs...)
}

// ApplySettings overlays the analysis and voice sections on s.
func (c FileConfig) ApplySettings(s model.Settings) model.Settings {
	if v := c.Analysis.Sensitivity; v != nil {
		s.Sensitivity = *v
	}
	if v := c.Analysis.Fatigue; v != nil {
		s.FatigueEnabled = *v
	}
	if v := c.Analysis.Emotion; v != nil {
		s.EmotionEnabled = *v
	}
	if v := c.Voice.Output; v != nil {
		s.VoiceOutput = *v
	}
	if v := c.Voice.VoiceID; v != nil {
		s.VoiceID = *v
	}
	if v := c.Voice.Mode; v != nil {
		s.VoiceMode = model.VoiceMode(*v)
	}
	if v := c.Voice.Stability; v != nil {
		s.CustomStability = *v
	}
	if v := c.Voice.Style; v != nil {
		s.CustomStyle = *v
	}
	return s
}
