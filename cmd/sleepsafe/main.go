// Package main provides the CLI entrypoint for sleepsafe.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/sleepsafe/internal/audio"
	"github.com/verte-zerg/sleepsafe/internal/config"
	"github.com/verte-zerg/sleepsafe/internal/elevenlabs"
	"github.com/verte-zerg/sleepsafe/internal/gemini"
	"github.com/verte-zerg/sleepsafe/internal/logging"
	"github.com/verte-zerg/sleepsafe/internal/model"
	"github.com/verte-zerg/sleepsafe/internal/pipeline"
	"github.com/verte-zerg/sleepsafe/internal/store"
	"github.com/verte-zerg/sleepsafe/internal/tui"
)

var (
	chatSensitivity int
	chatFatigue     bool
	chatEmotion     bool
	chatVoiceOutput bool
	chatVoice       string
	chatVoiceMode   string
	chatStability   float64
	chatStyle       float64
	chatExportDir   string
	chatNoWatch     bool

	aiModel     string
	aiPlanModel string
	ttsModel    string
	audioPlayer string

	logLevel  string
	logFormat string
	logFile   string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	defaults := model.DefaultSettings()
	rootCmd := &cobra.Command{
		Use:           "sleepsafe",
		Short:         "Wellness chat that reads typing behaviour and adapts its voice",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runChatCmd,
	}

	rootCmd.Flags().IntVar(&chatSensitivity, "sensitivity", defaults.Sensitivity, "fatigue sensitivity: 1 relaxed, 2 balanced, 3 strict")
	rootCmd.Flags().BoolVar(&chatFatigue, "fatigue", defaults.FatigueEnabled, "detect typing fatigue")
	rootCmd.Flags().BoolVar(&chatEmotion, "emotion", defaults.EmotionEnabled, "detect emotional typing")
	rootCmd.Flags().BoolVar(&chatVoiceOutput, "voice-output", defaults.VoiceOutput, "speak replies")
	rootCmd.Flags().StringVar(&chatVoice, "voice", defaults.VoiceID, "voice id or name (see: sleepsafe voices)")
	rootCmd.Flags().StringVar(&chatVoiceMode, "voice-mode", string(defaults.VoiceMode), "voice mode: dynamic or custom")
	rootCmd.Flags().Float64Var(&chatStability, "stability", defaults.CustomStability, "custom voice stability (0-1)")
	rootCmd.Flags().Float64Var(&chatStyle, "style", defaults.CustomStyle, "custom voice style (0-1)")
	rootCmd.Flags().StringVar(&chatExportDir, "export-dir", ".", "directory for session exports")
	rootCmd.Flags().BoolVar(&chatNoWatch, "no-watch", false, "do not reload the config file while running")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&aiModel, "model", gemini.DefaultChatModel, "chat model")
	pf.StringVar(&aiPlanModel, "plan-model", gemini.DefaultPlanModel, "model for the final sleep plan")
	pf.StringVar(&ttsModel, "tts-model", elevenlabs.DefaultModel, "speech synthesis model")
	pf.StringVar(&audioPlayer, "player", "", "audio player command (default: autodetect)")
	pf.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.StringVar(&logFormat, "log-format", "text", "log format: text or json")
	pf.StringVar(&logFile, "log-file", config.DefaultLogPath(), "log file path, stderr or discard")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newJournalCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newResetCmd())
	rootCmd.AddCommand(newVoicesCmd())
	rootCmd.AddCommand(newPreviewCmd())
	rootCmd.AddCommand(newPresetsCmd())
	rootCmd.AddCommand(newSummaryCmd())
	rootCmd.AddCommand(newPlanCmd())

	return rootCmd
}

// app holds the wired services for one command run.
type app struct {
	fileCfg config.FileConfig
	log     *slog.Logger
	store   *store.Store
	engine  *pipeline.Engine

	closeLog func() error
}

func openApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "model", &aiModel, fileCfg.AI.Model)
	applyStringConfig(cmd, "plan-model", &aiPlanModel, fileCfg.AI.PlanModel)
	applyStringConfig(cmd, "tts-model", &ttsModel, fileCfg.TTS.Model)
	applyStringConfig(cmd, "player", &audioPlayer, fileCfg.Audio.Player)
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "log-format", &logFormat, fileCfg.Log.Format)
	applyStringConfig(cmd, "log-file", &logFile, fileCfg.Log.File)

	logger, closeLog, err := logging.New(logging.Config{Level: logLevel, Format: logFormat, Output: logFile})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	a := &app{fileCfg: fileCfg, log: logger, closeLog: closeLog}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	a.store = st

	aiCfg := gemini.DefaultConfig()
	aiCfg.ChatModel = aiModel
	aiCfg.PlanModel = aiPlanModel
	if v := fileCfg.AI.BaseURL; v != nil {
		aiCfg.BaseURL = *v
	}
	if v := fileCfg.AI.TimeoutMS; v != nil {
		aiCfg.TimeoutMS = *v
	}
	if v := fileCfg.AI.RPS; v != nil {
		aiCfg.RPS = *v
	}
	assistant := gemini.New(aiCfg, gemini.WithLogger(logger.With("component", "gemini")))

	ttsCfg := elevenlabs.DefaultConfig()
	ttsCfg.Model = ttsModel
	if v := fileCfg.TTS.BaseURL; v != nil {
		ttsCfg.BaseURL = *v
	}
	if v := fileCfg.TTS.TimeoutMS; v != nil {
		ttsCfg.TimeoutMS = *v
	}
	speaker := elevenlabs.New(ttsCfg, nil, logger.With("component", "elevenlabs"))

	deps := pipeline.Deps{
		Assistant: assistant,
		Speaker:   speaker,
		Store:     st,
		Logger:    logger,
	}
	player, err := audio.NewPlayer(audioPlayer, logger.With("component", "audio"))
	switch {
	case err == nil:
		deps.Player = player
	case errors.Is(err, audio.ErrNoPlayer):
		logger.Info("voice playback disabled", "err", err)
	default:
		a.close()
		return nil, err
	}

	engine, err := pipeline.New(ctx, deps)
	if err != nil {
		a.close()
		return nil, err
	}
	a.engine = engine
	return a, nil
}

func (a *app) close() {
	if a.engine != nil {
		a.engine.StopAudio()
		a.engine.Wait()
	}
	if a.store != nil {
		if cerr := a.store.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}
	if a.closeLog != nil {
		if cerr := a.closeLog(); cerr != nil {
			// Best-effort log close.
			_ = cerr
		}
	}
}

// settings overlays the config file and the changed flags on the stored settings.
func (a *app) settings(cmd *cobra.Command) (model.Settings, error) {
	s := a.fileCfg.ApplySettings(a.engine.Settings())
	flags := cmd.Flags()
	if flags.Changed("sensitivity") {
		s.Sensitivity = chatSensitivity
	}
	if flags.Changed("fatigue") {
		s.FatigueEnabled = chatFatigue
	}
	if flags.Changed("emotion") {
		s.EmotionEnabled = chatEmotion
	}
	if flags.Changed("voice-output") {
		s.VoiceOutput = chatVoiceOutput
	}
	if flags.Changed("voice-mode") {
		s.VoiceMode = model.VoiceMode(chatVoiceMode)
	}
	if flags.Changed("stability") {
		s.CustomStability = chatStability
	}
	if flags.Changed("style") {
		s.CustomStyle = chatStyle
	}
	if flags.Changed("voice") {
		v, err := elevenlabs.LookupVoice(chatVoice)
		if err != nil {
			return s, err
		}
		s.VoiceID = v.ID
	}
	return s, nil
}

func runChatCmd(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	s, err := a.settings(cmd)
	if err != nil {
		return err
	}
	if err := a.engine.UpdateSettings(ctx, s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if err := os.MkdirAll(chatExportDir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	m := tui.NewModel(ctx, a.engine, chatExportDir)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if !chatNoWatch {
		watchConfig(ctx, a, program)
	}
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// watchConfig applies edited analysis and voice settings to the running chat.
func watchConfig(ctx context.Context, a *app, program *tea.Program) {
	onChange := func(fc config.FileConfig) {
		s := fc.ApplySettings(a.engine.Settings())
		if err := a.engine.UpdateSettings(ctx, s); err != nil {
			program.Send(tui.NoticeMsg("Config not applied: " + err.Error()))
			return
		}
		a.log.Info("config reloaded")
		program.Send(tui.SettingsMsg(s))
		program.Send(tui.NoticeMsg("Config reloaded"))
	}
	onErr := func(err error) {
		a.log.Warn("config reload failed", "err", err)
		program.Send(tui.NoticeMsg("Config reload failed: " + err.Error()))
	}
	if err := config.Watch(ctx, config.DefaultConfigPath(), onChange, onErr); err != nil {
		a.log.Info("config watch disabled", "err", err)
	}
}
