package signal

import (
	"strings"

	"github.com/verte-zerg/sleepsafe/internal/model"
)

// Sentiments is the vocabulary the sentiment classifier must answer with.
var Sentiments = []string{"Calm", "Content", "Hopeful", "Neutral", "Anxious", "Frustrated", "Sad", "Agitated"}

const defaultBaseScore = 50

var sentimentScores = map[string]int{
	"Agitated":   95,
	"Frustrated": 85,
	"Sad":        80,
	"Anxious":    75,
	"Neutral":    40,
	"Hopeful":    30,
	"Content":    20,
	"Calm":       10,
	"Unknown":    50,
}

// Multipliers in percent.
var patternMultipliers = map[model.Pattern]int{
	model.PatternEmotion: 115,
	model.PatternFatigue: 110,
	model.PatternStable:  100,
}

// BaseScore returns the load contribution of a sentiment label.
func BaseScore(sentiment string) int {
	if score, ok := sentimentScores[sentiment]; ok {
		return score
	}
	return defaultBaseScore
}

// CognitiveLoad combines a sentiment label and a typing pattern into a 0-100 score.
func CognitiveLoad(sentiment string, pattern model.Pattern) int {
	mult, ok := patternMultipliers[pattern]
	if !ok {
		mult = 100
	}
	load := (BaseScore(sentiment)*mult + 50) / 100
	return min(load, 100)
}

// NormalizeSentiment maps a raw classifier answer onto the vocabulary, defaulting to Neutral.
func NormalizeSentiment(raw string) string {
	raw = strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), ".\"'"))
	for _, s := range Sentiments {
		if s == raw {
			return s
		}
	}
	return model.SentimentNeutral
}
