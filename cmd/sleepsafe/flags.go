package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/sleepsafe/internal/gemini"
	"github.com/verte-zerg/sleepsafe/internal/model"
)

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	d := model.DefaultSettings()
	return fmt.Sprintf(`# sleepsafe configuration
# Uncomment a value to enable it. CLI flags override config values.
# API keys are read from GEMINI_API_KEY and ELEVENLABS_API_KEY.
# Analysis and voice values are reloaded while the chat is running.

[analysis]
# sensitivity = %d        # 1 relaxed, 2 balanced, 3 strict
# fatigue = %t          # Detect typing fatigue
# emotion = %t          # Detect emotional typing

[voice]
# output = %t           # Speak replies
# voice-id = %q
# mode = %q        # dynamic or custom
# stability = %.2f       # Custom stability (0-1)
# style = %.2f           # Custom style (0-1)

[ai]
# model = %q
# plan-model = %q
# base-url = %q
# timeout-ms = 0          # 0 keeps the transport default
# rps = %.1f               # Request rate limit

[tts]
# model = "eleven_multilingual_v2"
# base-url = "https://api.elevenlabs.io"
# timeout-ms = 0

[audio]
# player = "mpv --no-video --really-quiet"

[log]
# level = "info"          # debug, info, warn, error
# format = "text"         # text or json
# file = "stderr"         # path, stderr or discard
`,
		d.Sensitivity,
		d.FatigueEnabled,
		d.EmotionEnabled,
		d.VoiceOutput,
		d.VoiceID,
		d.VoiceMode,
		d.CustomStability,
		d.CustomStyle,
		gemini.DefaultChatModel,
		gemini.DefaultPlanModel,
		gemini.DefaultBaseURL,
		gemini.DefaultRPS,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
