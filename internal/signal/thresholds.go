// Package signal turns typing counts and sentiment into behavioral signals.
package signal

import (
	"errors"
	"fmt"
)

// Sensitivity is the user-selected fatigue detection strictness.
type Sensitivity int

// Sensitivity levels.
const (
	SensitivityRelaxed  Sensitivity = 1
	SensitivityBalanced Sensitivity = 2
	SensitivityStrict   Sensitivity = 3
)

// Emotional typing thresholds: fast typing with few corrections.
const (
	EmotionalKeyThreshold  = 40
	EmotionalErrorRatioMax = 0.05
)

// ErrInvalidSensitivity is returned for levels outside 1..3.
var ErrInvalidSensitivity = errors.New("invalid sensitivity")

// Threshold is the fatigue trigger for one sensitivity level.
type Threshold struct {
	Keys       int
	ErrorRatio float64
	Label      string
}

var thresholds = [3]Threshold{
	{Keys: 30, ErrorRatio: 0.3, Label: "Relaxed"},
	{Keys: 20, ErrorRatio: 0.2, Label: "Balanced"},
	{Keys: 15, ErrorRatio: 0.1, Label: "Strict"},
}

// Valid reports whether s is one of the three defined levels.
func (s Sensitivity) Valid() bool {
	return s >= SensitivityRelaxed && s <= SensitivityStrict
}

// String returns the level label.
func (s Sensitivity) String() string {
	return ThresholdFor(s).Label
}

// ParseSensitivity validates an integer level.
func ParseSensitivity(level int) (Sensitivity, error) {
	s := Sensitivity(level)
	if !s.Valid() {
		return 0, fmt.Errorf("%w: %d (want 1-3)", ErrInvalidSensitivity, level)
	}
	return s, nil
}

// ThresholdFor returns the threshold of a level; unknown levels use Balanced.
func ThresholdFor(s Sensitivity) Threshold {
	if !s.Valid() {
		s = SensitivityBalanced
	}
	return thresholds[s-1]
}
