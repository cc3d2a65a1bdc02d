// Package pipeline runs the per-message analysis turn and the session actions
// built on top of it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/verte-zerg/sleepsafe/internal/audio"
	"github.com/verte-zerg/sleepsafe/internal/model"
	"github.com/verte-zerg/sleepsafe/internal/prompts"
	"github.com/verte-zerg/sleepsafe/internal/session"
	"github.com/verte-zerg/sleepsafe/internal/signal"
	"github.com/verte-zerg/sleepsafe/internal/store"
	"github.com/verte-zerg/sleepsafe/internal/telemetry"
)

// User-visible fixed texts.
const (
	Apology            = "Oops, something went wrong. Please try again."
	ChatUnavailable    = "Sorry, the chat service is unavailable right now."
	SpeechUnavailable  = "Voice replies are off: no speech synthesis key is configured."
	PlayerUnavailable  = "Voice replies are off: no audio player was found."
	MinSummaryMessages = 2
)

// ErrEmptyMessage is returned by Turn for blank input.
var ErrEmptyMessage = errors.New("pipeline: empty message")

// ErrSessionReset is returned by Turn when the session was reset while the
// turn was running. Nothing from that turn is kept.
var ErrSessionReset = errors.New("pipeline: session reset during turn")

// ErrNotEnoughMessages is returned when the transcript is too short to summarize.
var ErrNotEnoughMessages = errors.New("pipeline: not enough messages")

// Assistant is the language model collaborator.
type Assistant interface {
	Enabled() bool
	ClassifySentiment(ctx context.Context, text string) (string, error)
	ClassifyTheme(ctx context.Context, text string) (string, error)
	Reply(ctx context.Context, rc model.ReplyContext, text string) (string, error)
	ResetChat()
	Suggest(ctx context.Context, recent string) (string, error)
	SmartPrompts(ctx context.Context, timeOfDay string, last *model.AnalysisResult) ([]string, error)
	Summary(ctx context.Context, messages []model.Message) (string, error)
	Plan(ctx context.Context, messages []model.Message, hotspotLines []string) (string, error)
}

// Speaker turns reply text into audio.
type Speaker interface {
	Enabled() bool
	Synthesize(ctx context.Context, text, voiceID string, vs model.VoiceSettings) ([]byte, error)
}

// Player plays audio, superseding any current playback.
type Player interface {
	Play(ctx context.Context, data []byte) (*audio.Playback, error)
	Stop()
}

// SettingsStore loads and saves user settings.
type SettingsStore interface {
	LoadSettings(ctx context.Context) (model.Settings, error)
	SaveSettings(ctx context.Context, s model.Settings) error
}

// PresetStore keeps named voice presets.
type PresetStore interface {
	ListPresets(ctx context.Context) ([]model.VoicePreset, error)
	GetPreset(ctx context.Context, name string) (model.VoicePreset, error)
	SavePreset(ctx context.Context, p model.VoicePreset) error
	DeletePreset(ctx context.Context, name string) error
}

// JournalStore persists the transcript, history and generated notes.
type JournalStore interface {
	AppendAnalysis(ctx context.Context, r model.AnalysisResult) error
	ListAnalyses(ctx context.Context, last int) ([]model.AnalysisResult, error)
	AppendMessage(ctx context.Context, m model.Message) error
	ListMessages(ctx context.Context) ([]model.Message, error)
	SetNote(ctx context.Context, key, value string) error
	Note(ctx context.Context, key string) (string, error)
	ResetSession(ctx context.Context) error
}

// Store is everything the engine persists.
type Store interface {
	SettingsStore
	PresetStore
	JournalStore
}

// Deps wires the engine. Only Assistant is required; nil Speaker, Player or
// Store disable the matching features.
type Deps struct {
	Assistant Assistant
	Speaker   Speaker
	Player    Player
	Store     Store
	Logger    *slog.Logger
	Now       func() time.Time
	Prompts   *prompts.Picker
}

// Engine owns one chat session.
type Engine struct {
	assistant Assistant
	speaker   Speaker
	player    Player
	store     Store
	log       *slog.Logger
	now       func() time.Time
	picker    *prompts.Picker

	collector *telemetry.Collector
	session   *session.Session
	insights  chan model.CognitiveInsight
	bg        sync.WaitGroup
	// resetMu orders Reset against the session writes of a running turn.
	resetMu sync.RWMutex

	mu       sync.Mutex
	settings model.Settings
	notices  []string
	warnings []string
	summary  string
	plan     string
}

// New builds an engine, loading settings and restoring the persisted session.
// Storage failures become warnings rather than errors.
func New(ctx context.Context, deps Deps) (*Engine, error) {
	if deps.Assistant == nil {
		return nil, fmt.Errorf("pipeline: assistant is required")
	}
	e := &Engine{
		assistant: deps.Assistant,
		speaker:   deps.Speaker,
		player:    deps.Player,
		store:     deps.Store,
		log:       deps.Logger,
		now:       deps.Now,
		picker:    deps.Prompts,
		insights:  make(chan model.CognitiveInsight, 1),
		settings:  model.DefaultSettings(),
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.picker == nil {
		e.picker = prompts.New()
	}

	var history []model.AnalysisResult
	var messages []model.Message
	if e.store != nil {
		if s, err := e.store.LoadSettings(ctx); err != nil {
			e.warn("load settings", err)
		} else {
			e.settings = s
		}
		var err error
		if history, err = e.store.ListAnalyses(ctx, 0); err != nil {
			e.warn("load history", err)
		}
		if messages, err = e.store.ListMessages(ctx); err != nil {
			e.warn("load transcript", err)
		}
		e.summary = e.loadNote(ctx, store.NoteSummary)
		e.plan = e.loadNote(ctx, store.NotePlan)
	}
	e.session = session.Restore(e.now, history, messages)
	if len(messages) == 0 && e.store != nil {
		for _, m := range e.session.Messages() {
			e.persistMessage(ctx, m)
		}
	}
	e.collector = telemetry.NewCollector(e.settings.AnalysisEnabled())

	if !e.assistant.Enabled() {
		e.notices = append(e.notices, ChatUnavailable)
	}
	if e.speaker == nil || !e.speaker.Enabled() {
		e.notices = append(e.notices, SpeechUnavailable)
	} else if e.player == nil {
		e.notices = append(e.notices, PlayerUnavailable)
	}
	return e, nil
}

// Collector returns the keystroke collector fed by the UI.
func (e *Engine) Collector() *telemetry.Collector {
	return e.collector
}

// Session returns the underlying session.
func (e *Engine) Session() *session.Session {
	return e.session
}

// Insights delivers insights published by the background suggestion request.
func (e *Engine) Insights() <-chan model.CognitiveInsight {
	return e.insights
}

// Wait blocks until background suggestion requests finish.
func (e *Engine) Wait() {
	e.bg.Wait()
}

// Notices returns configuration notices collected at start.
func (e *Engine) Notices() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.notices...)
}

// Warnings returns and clears pending persistence warnings.
func (e *Engine) Warnings() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.warnings
	e.warnings = nil
	return out
}

// Settings returns the active settings.
func (e *Engine) Settings() model.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// UpdateSettings validates, applies and persists s.
func (e *Engine) UpdateSettings(ctx context.Context, s model.Settings) error {
	if _, err := signal.ParseSensitivity(s.Sensitivity); err != nil {
		return err
	}
	if s.VoiceMode != model.VoiceModeDynamic && s.VoiceMode != model.VoiceModeCustom {
		return fmt.Errorf("pipeline: unknown voice mode %q", s.VoiceMode)
	}
	if !unit(s.CustomStability) || !unit(s.CustomStyle) {
		return fmt.Errorf("pipeline: custom stability and style must be within [0,1]")
	}
	e.mu.Lock()
	e.settings = s
	e.mu.Unlock()
	e.collector.SetEnabled(s.AnalysisEnabled())
	if e.store != nil {
		if err := e.store.SaveSettings(ctx, s); err != nil {
			e.warn("save settings", err)
		}
	}
	return nil
}

// Reset clears the session, the chat history, persisted journal and playback.
func (e *Engine) Reset(ctx context.Context) {
	e.resetMu.Lock()
	defer e.resetMu.Unlock()
	e.session.Reset()
	e.assistant.ResetChat()
	e.collector.Drain()
	if e.player != nil {
		e.player.Stop()
	}
	e.mu.Lock()
	e.summary, e.plan = "", ""
	e.mu.Unlock()
	select {
	case <-e.insights:
	default:
	}
	if e.store == nil {
		return
	}
	if err := e.store.ResetSession(ctx); err != nil {
		e.warn("reset journal", err)
		return
	}
	for _, m := range e.session.Messages() {
		e.persistMessage(ctx, m)
	}
}

// commit runs fn unless the session was reset after generation gen.
func (e *Engine) commit(gen uint64, fn func()) bool {
	e.resetMu.RLock()
	defer e.resetMu.RUnlock()
	if e.session.Generation() != gen {
		return false
	}
	fn()
	return true
}

func (e *Engine) warn(op string, err error) {
	e.log.Warn("persistence failed", "op", op, "err", err)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.warnings = append(e.warnings, fmt.Sprintf("Could not %s: %v", op, err))
}

func (e *Engine) persistMessage(ctx context.Context, m model.Message) {
	if e.store == nil {
		return
	}
	if err := e.store.AppendMessage(ctx, m); err != nil {
		e.warn("save message", err)
	}
}

func unit(v float64) bool {
	return v >= 0 && v <= 1
}
