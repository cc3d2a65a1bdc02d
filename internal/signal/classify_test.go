package signal

import (
	"testing"

	"github.com/verte-zerg/sleepsafe/internal/model"
)

var allOn = Flags{Fatigue: true, Emotion: true}

func TestClassifyFatigueConfidence(t *testing.T) {
	got := Classify(model.TypingSample{Keys: 25, Backspaces: 6}, SensitivityBalanced, allOn)
	if got.Pattern != model.PatternFatigue {
		t.Fatalf("expected fatigue, got %s", got.Pattern)
	}
	if got.Confidence == nil || *got.Confidence != 23 {
		t.Fatalf("expected confidence 23, got %v", got.Confidence)
	}
	if got.Stats.ErrorRatio != 0.24 {
		t.Fatalf("expected error ratio 0.24, got %v", got.Stats.ErrorRatio)
	}
}

func TestClassifyEmotion(t *testing.T) {
	got := Classify(model.TypingSample{Keys: 45, Backspaces: 1}, SensitivityBalanced, allOn)
	if got.Pattern != model.PatternEmotion {
		t.Fatalf("expected emotion, got %s", got.Pattern)
	}
	if got.Confidence == nil || *got.Confidence != 30 {
		t.Fatalf("expected confidence 30, got %v", got.Confidence)
	}
}

func TestClassifyFlags(t *testing.T) {
	sample := model.TypingSample{Keys: 45, Backspaces: 1}
	got := Classify(sample, SensitivityBalanced, Flags{Fatigue: true})
	if got.Pattern != model.PatternStable || got.Confidence != nil {
		t.Fatalf("expected stable with nil confidence when emotion is off, got %s %v", got.Pattern, got.Confidence)
	}
	fatigue := Classify(model.TypingSample{Keys: 25, Backspaces: 6}, SensitivityBalanced, Flags{Emotion: true})
	if fatigue.Pattern != model.PatternStable {
		t.Fatalf("expected stable when fatigue is off, got %s", fatigue.Pattern)
	}
}

func TestClassifyInputAnomalies(t *testing.T) {
	cases := []struct {
		name   string
		sample model.TypingSample
		ratio  float64
	}{
		{name: "empty", sample: model.TypingSample{}, ratio: 0},
		{name: "backspaces only", sample: model.TypingSample{Keys: 0, Backspaces: 4}, ratio: 0},
		{name: "more backspaces than keys", sample: model.TypingSample{Keys: 20, Backspaces: 50}, ratio: 1},
		{name: "negative counts", sample: model.TypingSample{Keys: -3, Backspaces: -1}, ratio: 0},
	}
	for _, tc := range cases {
		got := Classify(tc.sample, SensitivityBalanced, allOn)
		if got.Stats.ErrorRatio != tc.ratio {
			t.Fatalf("%s: expected ratio %v, got %v", tc.name, tc.ratio, got.Stats.ErrorRatio)
		}
		if got.Confidence != nil && (*got.Confidence < 0 || *got.Confidence > 100) {
			t.Fatalf("%s: confidence out of range: %d", tc.name, *got.Confidence)
		}
	}
}

func TestClassifyConfidenceBounded(t *testing.T) {
	for keys := 0; keys <= 200; keys += 7 {
		for bs := 0; bs <= 250; bs += 11 {
			for level := SensitivityRelaxed; level <= SensitivityStrict; level++ {
				got := Classify(model.TypingSample{Keys: keys, Backspaces: bs}, level, allOn)
				if got.Stats.ErrorRatio < 0 || got.Stats.ErrorRatio > 1 {
					t.Fatalf("ratio out of range for %d/%d: %v", keys, bs, got.Stats.ErrorRatio)
				}
				if got.Pattern == model.PatternStable {
					if got.Confidence != nil {
						t.Fatalf("stable result must have nil confidence")
					}
					continue
				}
				if got.Confidence == nil || *got.Confidence < 0 || *got.Confidence > 100 {
					t.Fatalf("confidence out of range for %d/%d: %v", keys, bs, got.Confidence)
				}
			}
		}
	}
}

func TestThresholdFor(t *testing.T) {
	if th := ThresholdFor(SensitivityStrict); th.Keys != 15 || th.ErrorRatio != 0.1 || th.Label != "Strict" {
		t.Fatalf("unexpected strict threshold: %+v", th)
	}
	if th := ThresholdFor(Sensitivity(9)); th.Label != "Balanced" {
		t.Fatalf("expected balanced fallback, got %+v", th)
	}
	if _, err := ParseSensitivity(0); err == nil {
		t.Fatalf("expected error for level 0")
	}
	if s, err := ParseSensitivity(1); err != nil || s != SensitivityRelaxed {
		t.Fatalf("unexpected parse result: %v %v", s, err)
	}
}
