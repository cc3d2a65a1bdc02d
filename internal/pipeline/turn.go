package pipeline

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/sleepsafe/internal/audio"
	"github.com/verte-zerg/sleepsafe/internal/model"
	"github.com/verte-zerg/sleepsafe/internal/session"
	"github.com/verte-zerg/sleepsafe/internal/signal"
)

// TimestampLayout formats AnalysisResult.Timestamp.
const TimestampLayout = "15:04"

// TurnResult describes one completed message turn.
type TurnResult struct {
	User     model.Message
	Reply    model.Message
	Analysis model.AnalysisResult
	Voice    model.VoiceSettings
	// ReplyFailed is set when Reply holds the apology.
	ReplyFailed bool
	// ShiftDetected is set when a suggestion request was started.
	ShiftDetected bool
	// Playback is the running voice reply, if any.
	Playback *audio.Playback
	AudioErr error
}

// Turn analyzes text against the typing collected since the previous turn,
// asks for a reply and speaks it. External failures degrade to fallbacks.
// Blank input and a reset while the turn runs are errors.
func (e *Engine) Turn(ctx context.Context, text string) (TurnResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return TurnResult{}, ErrEmptyMessage
	}
	gen := e.session.Generation()
	settings := e.Settings()
	sample := e.collector.Drain()

	var res TurnResult
	if !e.commit(gen, func() {
		res.User = e.session.AddMessage(model.AuthorUser, text)
		e.persistMessage(ctx, res.User)
	}) {
		return TurnResult{}, ErrSessionReset
	}

	res.Analysis = e.analyze(ctx, text, sample, settings)
	var (
		trig  session.Trigger
		shift bool
	)
	if !e.commit(gen, func() {
		if e.store != nil {
			if err := e.store.AppendAnalysis(ctx, res.Analysis); err != nil {
				e.warn("save analysis", err)
			}
		}
		trig, shift = e.session.Append(res.Analysis)
	}) {
		return TurnResult{}, ErrSessionReset
	}
	if shift {
		res.ShiftDetected = true
		e.requestInsight(ctx, trig)
	}

	res.Voice = signal.ResolveVoice(settings.VoiceMode, res.Analysis.CognitiveLoad, settings.CustomVoice())
	rc := model.ReplyContext{
		Sentiment:     res.Analysis.Sentiment,
		Pattern:       res.Analysis.TypingPattern,
		Theme:         res.Analysis.Theme,
		CognitiveLoad: res.Analysis.CognitiveLoad,
	}
	reply, err := e.assistant.Reply(ctx, rc, text)
	if err != nil || strings.TrimSpace(reply) == "" {
		e.log.Warn("reply failed", "err", err)
		reply = Apology
		res.ReplyFailed = true
	}
	if !e.commit(gen, func() {
		res.Reply = e.session.AddMessage(model.AuthorBot, reply)
		e.persistMessage(ctx, res.Reply)
	}) {
		return TurnResult{}, ErrSessionReset
	}

	if !res.ReplyFailed && settings.VoiceOutput {
		res.Playback, res.AudioErr = e.speak(ctx, gen, reply, settings.VoiceID, res.Voice)
		if res.AudioErr != nil {
			e.log.Warn("voice reply failed", "err", res.AudioErr)
		}
	}
	return res, nil
}

func (e *Engine) analyze(ctx context.Context, text string, sample model.TypingSample, settings model.Settings) model.AnalysisResult {
	level, err := signal.ParseSensitivity(settings.Sensitivity)
	if err != nil {
		level = signal.SensitivityBalanced
	}
	cls := signal.Classify(sample, level, signal.Flags{
		Fatigue: settings.FatigueEnabled,
		Emotion: settings.EmotionEnabled,
	})

	sentiment, theme := model.SentimentUnknown, model.ThemeGeneral
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raw, err := e.assistant.ClassifySentiment(gctx, text)
		if err != nil {
			e.log.Warn("sentiment lookup failed", "err", err)
			return nil
		}
		sentiment = signal.NormalizeSentiment(raw)
		return nil
	})
	g.Go(func() error {
		raw, err := e.assistant.ClassifyTheme(gctx, text)
		if err != nil {
			e.log.Warn("theme lookup failed", "err", err)
			return nil
		}
		if raw = strings.TrimSpace(raw); raw != "" {
			theme = raw
		}
		return nil
	})
	_ = g.Wait()

	id := uuid.NewString()
	if v7, err := uuid.NewV7(); err == nil {
		id = v7.String()
	}
	r := model.AnalysisResult{
		ID:               id,
		Timestamp:        e.now().Format(TimestampLayout),
		TypingPattern:    cls.Pattern,
		TypingConfidence: cls.Confidence,
		Sentiment:        sentiment,
		Theme:            theme,
		CognitiveLoad:    signal.CognitiveLoad(sentiment, cls.Pattern),
		Stats:            cls.Stats,
	}
	e.log.Debug("analysis", "pattern", r.TypingPattern, "sentiment", r.Sentiment, "theme", r.Theme, "load", r.CognitiveLoad)
	return r
}

// requestInsight asks for a suggestion in the background. The result is
// dropped by the session when a reset happened in the meantime.
func (e *Engine) requestInsight(ctx context.Context, trig session.Trigger) {
	ctx = context.WithoutCancel(ctx)
	e.bg.Add(1)
	go func() {
		defer e.bg.Done()
		suggestion, err := e.assistant.Suggest(ctx, session.FormatRecent(trig.Recent))
		var published bool
		if err != nil {
			e.log.Warn("suggestion failed", "err", err)
			published = e.session.FailInsight(trig.Generation)
		} else {
			published = e.session.CompleteInsight(trig.Generation, suggestion)
		}
		if !published {
			e.log.Debug("stale insight discarded", "generation", trig.Generation)
			return
		}
		if in, ok := e.session.Insight(); ok {
			select {
			case e.insights <- in:
			default:
			}
		}
	}()
}

// speak synthesizes and plays text. A nil playback with nil error means voice
// output is unavailable or the session was reset before playback started.
func (e *Engine) speak(ctx context.Context, gen uint64, text, voiceID string, vs model.VoiceSettings) (*audio.Playback, error) {
	if e.speaker == nil || !e.speaker.Enabled() || e.player == nil {
		return nil, nil
	}
	if voiceID == "" {
		voiceID = model.DefaultVoiceID
	}
	data, err := e.speaker.Synthesize(ctx, text, voiceID, vs)
	if err != nil {
		return nil, err
	}
	var (
		pb      *audio.Playback
		playErr error
	)
	if !e.commit(gen, func() {
		pb, playErr = e.player.Play(context.WithoutCancel(ctx), data)
	}) {
		return nil, nil
	}
	return pb, playErr
}
