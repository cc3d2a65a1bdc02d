package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/verte-zerg/sleepsafe/internal/audio"
	"github.com/verte-zerg/sleepsafe/internal/model"
)

// PreviewText is spoken by Preview.
const PreviewText = "Hello, this is a preview of my voice."

// ErrVoiceUnavailable is returned by Preview when speech or playback is not configured.
var ErrVoiceUnavailable = errors.New("pipeline: voice output unavailable")

// Preview speaks PreviewText with voiceID (the selected voice when empty) and
// the custom stability and style. It supersedes any current playback.
func (e *Engine) Preview(ctx context.Context, voiceID string) (*audio.Playback, error) {
	s := e.Settings()
	if voiceID == "" {
		voiceID = s.VoiceID
	}
	pb, err := e.speak(ctx, e.session.Generation(), PreviewText, voiceID, s.CustomVoice())
	if err != nil {
		return nil, err
	}
	if pb == nil {
		return nil, ErrVoiceUnavailable
	}
	return pb, nil
}

// StopAudio halts the current playback.
func (e *Engine) StopAudio() {
	if e.player != nil {
		e.player.Stop()
	}
}

// Presets lists the saved voice presets.
func (e *Engine) Presets(ctx context.Context) ([]model.VoicePreset, error) {
	if e.store == nil {
		return nil, nil
	}
	return e.store.ListPresets(ctx)
}

// SavePreset stores the current custom voice under name, replacing a preset
// with the same name.
func (e *Engine) SavePreset(ctx context.Context, name string) (model.VoicePreset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.VoicePreset{}, fmt.Errorf("pipeline: preset name is empty")
	}
	s := e.Settings()
	p := model.VoicePreset{Name: name, Stability: s.CustomStability, Style: s.CustomStyle}
	if e.store == nil {
		return p, nil
	}
	return p, e.store.SavePreset(ctx, p)
}

// DeletePreset removes a preset by name.
func (e *Engine) DeletePreset(ctx context.Context, name string) error {
	if e.store == nil {
		return nil
	}
	return e.store.DeletePreset(ctx, name)
}

// ApplyPreset copies a preset into the custom voice settings.
func (e *Engine) ApplyPreset(ctx context.Context, name string) (model.Settings, error) {
	if e.store == nil {
		return e.Settings(), fmt.Errorf("pipeline: no preset store")
	}
	p, err := e.store.GetPreset(ctx, name)
	if err != nil {
		return e.Settings(), err
	}
	s := e.Settings()
	s.CustomStability, s.CustomStyle = p.Stability, p.Style
	return s, e.UpdateSettings(ctx, s)
}
