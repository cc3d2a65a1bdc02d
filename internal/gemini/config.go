// Package gemini is the client for the language model collaborator.
package gemini

import (
	"errors"
	"os"
	"strings"
)

// Defaults for the hosted API.
const (
	DefaultBaseURL   = "https://generativelanguage.googleapis.com/v1beta/models"
	DefaultChatModel = "gemini-2.5-flash"
	DefaultPlanModel = "gemini-2.5-pro"
	DefaultRPS       = 2.0
)

// ErrDisabled is returned by every call when no API key is configured.
var ErrDisabled = errors.New("gemini: api key not configured")

// Config holds the client settings.
type Config struct {
	APIKey    string
	BaseURL   string
	ChatModel string
	PlanModel string
	// TimeoutMS bounds each HTTP call; 0 leaves the transport default.
	TimeoutMS int
	// RPS paces outgoing requests.
	RPS float64
}

// DefaultConfig returns the default configuration with the key taken from GEMINI_API_KEY.
func DefaultConfig() Config {
	return Config{
		APIKey:    strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		BaseURL:   DefaultBaseURL,
		ChatModel: DefaultChatModel,
		PlanModel: DefaultPlanModel,
		RPS:       DefaultRPS,
	}
}

// IsEnabled reports whether an API key is configured.
func (c Config) IsEnabled() bool {
	return c.APIKey != ""
}

// ModelEndpoint returns the generateContent endpoint for a model.
func (c Config) ModelEndpoint(model string) string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + model + ":generateContent"
}
