package signal

import (
	"math"

	"github.com/verte-zerg/sleepsafe/internal/model"
)

// Flags enables the individual detectors.
type Flags struct {
	Fatigue bool
	Emotion bool
}

// Classification is the classifier output for one typing sample.
type Classification struct {
	Pattern    model.Pattern
	Confidence *int
	Stats      model.TypingStats
}

// ErrorRatio returns backspaces/keys clamped to [0,1], or 0 when keys is 0.
func ErrorRatio(keys, backspaces int) float64 {
	if keys <= 0 || backspaces <= 0 {
		return 0
	}
	return clamp01(float64(backspaces) / float64(keys))
}

// Classify decides the typing pattern. Emotion is checked before fatigue.
func Classify(sample model.TypingSample, level Sensitivity, flags Flags) Classification {
	keys := max(sample.Keys, 0)
	backspaces := max(sample.Backspaces, 0)
	ratio := ErrorRatio(keys, backspaces)
	out := Classification{
		Pattern: model.PatternStable,
		Stats: model.TypingStats{
			Keys:       keys,
			Backspaces: backspaces,
			ErrorRatio: ratio,
		},
	}

	threshold := ThresholdFor(level)
	switch {
	case flags.Emotion && keys >= EmotionalKeyThreshold && ratio <= EmotionalErrorRatioMax:
		out.Pattern = model.PatternEmotion
		c := emotionConfidence(keys, ratio)
		out.Confidence = &c
	case flags.Fatigue && keys >= threshold.Keys && ratio >= threshold.ErrorRatio:
		out.Pattern = model.PatternFatigue
		c := fatigueConfidence(keys, ratio, threshold)
		out.Confidence = &c
	}
	return out
}

func fatigueConfidence(keys int, ratio float64, t Threshold) int {
	kr := clamp01(float64(keys-t.Keys) / float64(t.Keys))
	er := clamp01((ratio - t.ErrorRatio) / t.ErrorRatio)
	return percent(0.5*kr + 0.5*er)
}

func emotionConfidence(keys int, ratio float64) int {
	kr := clamp01(float64(keys-EmotionalKeyThreshold) / float64(EmotionalKeyThreshold))
	// Lower error is better; a ratio above the max contributes nothing.
	er := math.Max(0, (EmotionalErrorRatioMax-ratio)/EmotionalErrorRatioMax)
	return percent(0.6*kr + 0.4*er)
}

func percent(fraction float64) int {
	v := roundHalfUp(fraction * 100)
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// roundHalfUp rounds after dropping float noise below 1e-9, so 22.4999999 rounds to 23.
func roundHalfUp(x float64) int {
	snapped := math.Round(x*1e9) / 1e9
	return int(math.Floor(snapped + 0.5))
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
