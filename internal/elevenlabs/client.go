// Package elevenlabs is the client for the speech synthesis collaborator.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/verte-zerg/sleepsafe/internal/model"
)

// Defaults for the hosted API.
const (
	DefaultBaseURL = "https://api.elevenlabs.io"
	DefaultModel   = "eleven_multilingual_v2"
	// similarityBoost is fixed; only stability and style follow the user state.
	similarityBoost = 0.75
	maxErrorBody    = 512
)

// ErrDisabled is returned when no API key is configured.
var ErrDisabled = errors.New("elevenlabs: api key not configured")

// Config holds the client settings.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	TimeoutMS int
}

// DefaultConfig returns the default configuration with the key taken from ELEVENLABS_API_KEY.
func DefaultConfig() Config {
	return Config{
		APIKey:  strings.TrimSpace(os.Getenv("ELEVENLABS_API_KEY")),
		BaseURL: DefaultBaseURL,
		Model:   DefaultModel,
	}
}

// IsEnabled reports whether an API key is configured.
func (c Config) IsEnabled() bool {
	return c.APIKey != ""
}

// Client synthesizes speech.
type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

// New returns a client for cfg. A nil logger uses slog.Default.
func New(cfg Config, hc *http.Client, log *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if hc == nil {
		hc = &http.Client{Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{cfg: cfg, http: hc, log: log}
}

// Enabled reports whether calls can be made.
func (c *Client) Enabled() bool {
	return c.cfg.IsEnabled()
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// Synthesize returns MPEG audio for text spoken by voiceID with the given settings.
func (c *Client) Synthesize(ctx context.Context, text, voiceID string, vs model.VoiceSettings) ([]byte, error) {
	if !c.cfg.IsEnabled() {
		return nil, ErrDisabled
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("elevenlabs: empty text")
	}
	if voiceID == "" {
		voiceID = model.DefaultVoiceID
	}
	body, err := json.Marshal(ttsRequest{
		Text:    text,
		ModelID: c.cfg.Model,
		VoiceSettings: voiceSettings{
			Stability:       vs.Stability,
			SimilarityBoost: similarityBoost,
			Style:           vs.Style,
		},
	})
	if err != nil {
		return nil, err
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/text-to-speech/" + url.PathEscape(voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			// Best-effort body close.
			_ = cerr
		}
	}()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: read audio: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("elevenlabs: status %d: %s", resp.StatusCode, errorDetail(data))
	}
	c.log.Debug("speech synthesized", "voice", voiceID, "bytes", len(data),
		"stability", vs.Stability, "style", vs.Style)
	return data, nil
}

// errorDetail extracts the message of a JSON error body, or returns a truncated raw body.
func errorDetail(body []byte) string {
	var parsed struct {
		Detail struct {
			Message string `json:"message"`
		} `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Detail.Message != "" {
		return parsed.Detail.Message
	}
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return strings.TrimSpace(string(body))
}
