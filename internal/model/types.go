// Package model defines shared data structures.
package model

import "time"

// Pattern is the typing behavior inferred by the classifier.
type Pattern string

// Typing patterns.
const (
	PatternStable  Pattern = "stable"
	PatternFatigue Pattern = "fatigue"
	PatternEmotion Pattern = "emotion"
)

// Fallback labels used when a collaborator cannot answer.
const (
	SentimentUnknown = "Unknown"
	SentimentNeutral = "Neutral"
	ThemeGeneral     = "General"
	ThemeUnknown     = "Unknown"
)

// TypingSample holds raw counts accumulated between two analysis runs.
type TypingSample struct {
	Keys       int
	Backspaces int
}

// TypingStats is the sample as recorded on an analysis result.
type TypingStats struct {
	Keys       int     `json:"keys"`
	Backspaces int     `json:"backspaces"`
	ErrorRatio float64 `json:"errorRatio"`
}

// AnalysisResult is one immutable entry of the session history.
type AnalysisResult struct {
	ID               string      `json:"id"`
	Timestamp        string      `json:"timestamp"`
	TypingPattern    Pattern     `json:"typingPattern"`
	TypingConfidence *int        `json:"typingConfidence"`
	Sentiment        string      `json:"sentiment"`
	Theme            string      `json:"theme"`
	CognitiveLoad    int         `json:"cognitiveLoad"`
	Stats            TypingStats `json:"stats"`
}

// ReplyContext is the detected user state passed along with a message to the
// reply generator.
type ReplyContext struct {
	Sentiment     string
	Pattern       Pattern
	Theme         string
	CognitiveLoad int
}

// VoiceSettings are the speech synthesis parameters for one reply.
type VoiceSettings struct {
	Stability float64 `json:"stability"`
	Style     float64 `json:"style"`
}

// VoiceMode selects how voice settings are derived.
type VoiceMode string

// Voice modes.
const (
	VoiceModeDynamic VoiceMode = "dynamic"
	VoiceModeCustom  VoiceMode = "custom"
)

// VoicePreset is a named pair of custom voice values.
type VoicePreset struct {
	Name      string  `json:"name"`
	Stability float64 `json:"stability"`
	Style     float64 `json:"style"`
}

// Voice describes a selectable synthesis voice.
type Voice struct {
	ID          string
	Name        string
	Description string
}

// CognitiveInsight is raised once per session after a cognitive shift.
type CognitiveInsight struct {
	Insight    string `json:"insight"`
	Suggestion string `json:"suggestion"`
}

// Hotspot is a theme with its average cognitive load.
type Hotspot struct {
	Theme   string
	AvgLoad int
	Count   int
}

// Author identifies who wrote a chat message.
type Author string

// Message authors.
const (
	AuthorBot  Author = "bot"
	AuthorUser Author = "user"
)

// Message is one entry of the chat transcript.
type Message struct {
	Author Author    `json:"author"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sentAt"`
}

// Settings are the user-adjustable options of a session.
type Settings struct {
	Sensitivity     int
	FatigueEnabled  bool
	EmotionEnabled  bool
	VoiceOutput     bool
	VoiceID         string
	VoiceMode       VoiceMode
	CustomStability float64
	CustomStyle     float64
}

// AnalysisEnabled reports whether any typing analysis mode is on.
func (s Settings) AnalysisEnabled() bool {
	return s.FatigueEnabled || s.EmotionEnabled
}

// CustomVoice returns the stored custom voice values.
func (s Settings) CustomVoice() VoiceSettings {
	return VoiceSettings{Stability: s.CustomStability, Style: s.CustomStyle}
}

// DefaultVoiceID is the first voice of the synthesis catalog.
const DefaultVoiceID = "21m00Tcm4TlvDq8ikWAM"

// DefaultSettings returns the settings of a fresh install.
func DefaultSettings() Settings {
	return Settings{
		Sensitivity:     2,
		FatigueEnabled:  true,
		EmotionEnabled:  true,
		VoiceOutput:     true,
		VoiceID:         DefaultVoiceID,
		VoiceMode:       VoiceModeDynamic,
		CustomStability: 0.75,
		CustomStyle:     0.1,
	}
}
