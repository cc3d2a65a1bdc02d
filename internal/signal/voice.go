package signal

import (
	"strconv"

	"github.com/verte-zerg/sleepsafe/internal/model"
)

// Load bounds of the dynamic voice curve.
const (
	HighLoadThreshold = 70
	LowLoadThreshold  = 30
)

// DynamicVoice maps a cognitive load onto voice settings: soothing when load is
// high, energetic when it is low, linear in between.
func DynamicVoice(load int) model.VoiceSettings {
	switch {
	case load >= HighLoadThreshold:
		return model.VoiceSettings{Stability: 0.8, Style: 0.1}
	case load <= LowLoadThreshold:
		return model.VoiceSettings{Stability: 0.4, Style: 0.6}
	}
	progress := float64(load-LowLoadThreshold) / float64(HighLoadThreshold-LowLoadThreshold)
	return model.VoiceSettings{
		Stability: round2(0.4 + float64((0.8-0.4)*progress)),
		Style:     round2(0.6 - float64((0.6-0.1)*progress)),
	}
}

// round2 rounds the exact binary value of x to two decimals.
func round2(x float64) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 2, 64), 64)
	if err != nil {
		return x
	}
	return v
}

// ResolveVoice returns the custom values verbatim in custom mode, else the dynamic curve.
func ResolveVoice(mode model.VoiceMode, load int, custom model.VoiceSettings) model.VoiceSettings {
	if mode == model.VoiceModeCustom {
		return custom
	}
	return DynamicVoice(load)
}
