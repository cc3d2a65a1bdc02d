// Package prompts picks offline conversation starters by time of day.
package prompts

import (
	"math/rand"
	"time"
)

// Times of day.
const (
	Morning   = "morning"
	Afternoon = "afternoon"
	Evening   = "evening"
	LateNight = "late night"
)

// calmingWeight multiplies the weight of soothing starters after a high-load turn.
const calmingWeight = 3.0

// Count is the number of starters shown at once.
const Count = 3

// HighLoad is the load from which soothing starters are preferred.
const HighLoad = 70

type starter struct {
	text    string
	calming bool
}

var starters = map[string][]starter{
	Morning: {
		{text: "How did you sleep last night?"},
		{text: "What are you looking forward to today?"},
		{text: "How rested do you feel this morning?"},
		{text: "Is anything on your mind as the day begins?", calming: true},
		{text: "What would make today feel lighter?", calming: true},
	},
	Afternoon: {
		{text: "How is your energy this afternoon?"},
		{text: "What has stood out about your day so far?"},
		{text: "Have you had a moment to pause today?", calming: true},
		{text: "Is anything weighing on you right now?", calming: true},
		{text: "What helped you feel good today?"},
	},
	Evening: {
		{text: "What's on your mind this evening?"},
		{text: "How are you winding down tonight?", calming: true},
		{text: "What was the best part of your day?"},
		{text: "Is there something you'd like to let go of before bed?", calming: true},
		{text: "How are you feeling right now?"},
	},
	LateNight: {
		{text: "What's keeping you up tonight?"},
		{text: "Would it help to talk through what's on your mind?", calming: true},
		{text: "How does your body feel right now?", calming: true},
		{text: "Is there a thought that keeps coming back?"},
		{text: "What usually helps you fall asleep?", calming: true},
	},
}

// TimeOfDay names the part of the day: morning 5-11, afternoon 12-17, evening 18-22, late night otherwise.
func TimeOfDay(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return Morning
	case h >= 12 && h < 18:
		return Afternoon
	case h >= 18 && h < 23:
		return Evening
	default:
		return LateNight
	}
}

// Picker produces randomized starters.
type Picker struct {
	rnd *rand.Rand
}

// New returns a Picker seeded with the current time.
func New() *Picker {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed returns a deterministic Picker.
func NewWithSeed(seed int64) *Picker {
	return &Picker{rnd: rand.New(rand.NewSource(seed))}
}

// Pick returns up to n distinct starters for the time of day. When lastLoad is
// at least HighLoad, soothing starters are more likely.
func (p *Picker) Pick(timeOfDay string, n, lastLoad int) []string {
	pool := append([]starter(nil), starters[timeOfDay]...)
	if len(pool) == 0 {
		pool = append(pool, starters[Evening]...)
	}
	weights := make([]float64, len(pool))
	for i, s := range pool {
		weights[i] = 1
		if s.calming && lastLoad >= HighLoad {
			weights[i] = calmingWeight
		}
	}

	out := make([]string, 0, n)
	for len(out) < n && len(pool) > 0 {
		total := 0.0
		for _, w := range weights {
			total += w
		}
		r := p.rnd.Float64() * total
		idx := len(pool) - 1
		acc := 0.0
		for j, w := range weights {
			acc += w
			if r < acc {
				idx = j
				break
			}
		}
		out = append(out, pool[idx].text)
		pool = append(pool[:idx], pool[idx+1:]...)
		weights = append(weights[:idx], weights[idx+1:]...)
	}
	return out
}
