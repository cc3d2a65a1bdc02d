package signal

import (
	"testing"

	"github.com/verte-zerg/sleepsafe/internal/model"
)

func TestDynamicVoiceEndpoints(t *testing.T) {
	cases := []struct {
		load int
		want model.VoiceSettings
	}{
		{0, model.VoiceSettings{Stability: 0.4, Style: 0.6}},
		{30, model.VoiceSettings{Stability: 0.4, Style: 0.6}},
		{31, model.VoiceSettings{Stability: 0.41, Style: 0.59}},
		{32, model.VoiceSettings{Stability: 0.42, Style: 0.57}},
		{40, model.VoiceSettings{Stability: 0.5, Style: 0.47}},
		{44, model.VoiceSettings{Stability: 0.54, Style: 0.42}},
		{45, model.VoiceSettings{Stability: 0.55, Style: 0.41}},
		{50, model.VoiceSettings{Stability: 0.6, Style: 0.35}},
		{52, model.VoiceSettings{Stability: 0.62, Style: 0.32}},
		{56, model.VoiceSettings{Stability: 0.66, Style: 0.27}},
		{60, model.VoiceSettings{Stability: 0.7, Style: 0.22}},
		{64, model.VoiceSettings{Stability: 0.74, Style: 0.17}},
		{69, model.VoiceSettings{Stability: 0.79, Style: 0.11}},
		{70, model.VoiceSettings{Stability: 0.8, Style: 0.1}},
		{100, model.VoiceSettings{Stability: 0.8, Style: 0.1}},
	}
	for _, tc := range cases {
		if got := DynamicVoice(tc.load); got != tc.want {
			t.Fatalf("DynamicVoice(%d) = %+v, want %+v", tc.load, got, tc.want)
		}
	}
}

func TestDynamicVoiceMonotonic(t *testing.T) {
	prev := DynamicVoice(0)
	for load := 1; load <= 100; load++ {
		cur := DynamicVoice(load)
		if cur.Stability < prev.Stability || cur.Style > prev.Style {
			t.Fatalf("voice curve not monotonic at %d: %+v after %+v", load, cur, prev)
		}
		prev = cur
	}
}

func TestResolveVoiceCustom(t *testing.T) {
	custom := model.VoiceSettings{Stability: 0.75, Style: 0.1}
	if got := ResolveVoice(model.VoiceModeCustom, 95, custom); got != custom {
		t.Fatalf("expected custom values, got %+v", got)
	}
	if got := ResolveVoice(model.VoiceModeDynamic, 95, custom); got != (model.VoiceSettings{Stability: 0.8, Style: 0.1}) {
		t.Fatalf("expected dynamic values, got %+v", got)
	}
}
