// Package tui provides the Bubble Tea chat interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/sleepsafe/internal/elevenlabs"
	"github.com/verte-zerg/sleepsafe/internal/model"
	"github.com/verte-zerg/sleepsafe/internal/pipeline"
	"github.com/verte-zerg/sleepsafe/internal/signal"
	"github.com/verte-zerg/sleepsafe/internal/stats"
	"github.com/verte-zerg/sleepsafe/internal/telemetry"
)

const promptMark = "> "

var (
	userLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	userTextStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	botLabelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7FB3D5")).Bold(true)
	botTextStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#D0D0D0"))
	promptStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	inputStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	cursorStyle    = lipgloss.NewStyle().Reverse(true)
	footerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	noticeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	suggestStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")).Italic(true)
	insightStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	panelStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
)

const help = "enter send  tab use prompt  ^y/^x accept/dismiss insight  ^s summary  ^f plan  ^e export  ^t voice  ^p preview  ^r reset  esc quit"

type turnMsg struct {
	res pipeline.TurnResult
	err error
}

type insightMsg model.CognitiveInsight

type promptsMsg []string

type reportMsg struct {
	title string
	text  string
	err   error
}

type exportMsg struct {
	path string
	err  error
}

// NoticeMsg shows a one-line status message.
type NoticeMsg string

// SettingsMsg reports settings changed outside the UI, e.g. an edited config file.
type SettingsMsg model.Settings

// Model implements the Bubble Tea chat UI.
type Model struct {
	ctx       context.Context
	engine    *pipeline.Engine
	exportDir string

	width  int
	height int

	transcript viewport.Model
	spinner    spinner.Model

	input           []rune
	replying        bool
	fetchingPrompts bool
	prompts         []string
	promptIdx       int
	insight         *model.CognitiveInsight
	last            *model.AnalysisResult
	hotspots        []model.Hotspot
	settings        model.Settings
	report          *reportMsg

	notices []string
	status  string
	errMsg  string
}

// NewModel constructs a chat model. Exports are written to exportDir.
func NewModel(ctx context.Context, engine *pipeline.Engine, exportDir string) *Model {
	m := &Model{
		ctx:        ctx,
		engine:     engine,
		exportDir:  exportDir,
		transcript: viewport.New(0, 0),
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(noticeStyle)),
		settings:   engine.Settings(),
		notices:    engine.Notices(),
	}
	if r, ok := engine.Session().Last(); ok {
		m.last = &r
	}
	if in, ok := engine.Session().Insight(); ok {
		m.insight = &in
	}
	m.hotspots = stats.TopHotspots(engine.Session().History())
	m.collectWarnings()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForInsight(), m.maybeFetchPrompts())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.replying {
			m.refreshTranscript()
		}
		return m, cmd
	case turnMsg:
		return m, m.finishTurn(msg)
	case insightMsg:
		in := model.CognitiveInsight(msg)
		m.insight = &in
		return m, m.waitForInsight()
	case promptsMsg:
		m.fetchingPrompts = false
		if len(m.input) == 0 {
			m.prompts = []string(msg)
			m.promptIdx = 0
		}
		return m, nil
	case reportMsg:
		m.status = ""
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("%s failed: %v", msg.title, msg.err)
			return m, nil
		}
		m.report = &msg
		m.updateLayout()
		return m, nil
	case exportMsg:
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("export failed: %v", msg.err)
		} else {
			m.status = "Exported to " + msg.path
		}
		return m, nil
	case NoticeMsg:
		m.status = string(msg)
		return m, nil
	case SettingsMsg:
		m.settings = model.Settings(msg)
		return m, m.maybeFetchPrompts()
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	header := m.renderHeader()
	below := m.renderBelow()
	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(below)
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	m.transcript.Height = bodyHeight
	return strings.Join([]string{header, m.transcript.View(), below}, "\n")
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	collector := m.engine.Collector()
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.engine.StopAudio()
		return m, tea.Quit
	case tea.KeyEnter:
		return m, m.submit()
	case tea.KeyBackspace:
		collector.OnKey(telemetry.BackspaceKey)
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
		return m, m.inputChanged()
	case tea.KeySpace:
		collector.OnKey(" ")
		m.input = append(m.input, ' ')
		return m, m.inputChanged()
	case tea.KeyRunes:
		collector.OnKey(string(msg.Runes))
		m.input = append(m.input, msg.Runes...)
		return m, m.inputChanged()
	case tea.KeyTab:
		m.usePrompt()
		return m, nil
	case tea.KeyCtrlY:
		if suggestion, ok := m.engine.Session().Accept(); ok {
			m.insight = nil
			m.appendToInput(suggestion)
		}
		return m, nil
	case tea.KeyCtrlX:
		m.engine.Session().Dismiss()
		m.insight = nil
		return m, nil
	case tea.KeyCtrlS:
		return m, m.runReport("Summary", m.engine.Summary)
	case tea.KeyCtrlF:
		return m, m.runReport("Sleep plan", m.engine.Plan)
	case tea.KeyCtrlE:
		return m, m.export()
	case tea.KeyCtrlT:
		m.toggleVoice()
		return m, nil
	case tea.KeyCtrlP:
		return m, m.preview()
	case tea.KeyCtrlR:
		if m.replying {
			m.status = "Wait for the reply before resetting"
			return m, nil
		}
		m.reset()
		return m, m.maybeFetchPrompts()
	case tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) submit() tea.Cmd {
	text := strings.TrimSpace(string(m.input))
	if text == "" || m.replying {
		return nil
	}
	m.input = nil
	m.prompts = nil
	m.report = nil
	m.errMsg = ""
	m.status = ""
	m.replying = true
	engine, ctx := m.engine, m.ctx
	return func() tea.Msg {
		res, err := engine.Turn(ctx, text)
		return turnMsg{res: res, err: err}
	}
}

func (m *Model) finishTurn(msg turnMsg) tea.Cmd {
	m.replying = false
	if msg.err != nil {
		if !errors.Is(msg.err, pipeline.ErrEmptyMessage) && !errors.Is(msg.err, pipeline.ErrSessionReset) {
			m.errMsg = msg.err.Error()
		}
		return m.maybeFetchPrompts()
	}
	r := msg.res.Analysis
	m.last = &r
	m.hotspots = stats.TopHotspots(m.engine.Session().History())
	if msg.res.AudioErr != nil {
		m.errMsg = "Voice reply failed: " + msg.res.AudioErr.Error()
	}
	m.collectWarnings()
	m.refreshTranscript()
	return m.maybeFetchPrompts()
}

func (m *Model) inputChanged() tea.Cmd {
	if len(m.input) > 0 {
		m.prompts = nil
		return nil
	}
	return m.maybeFetchPrompts()
}

// maybeFetchPrompts requests starters when the chat is idle, the input is
// empty and typing analysis is on.
func (m *Model) maybeFetchPrompts() tea.Cmd {
	if m.replying || m.fetchingPrompts || len(m.input) > 0 || len(m.prompts) > 0 || !m.settings.AnalysisEnabled() {
		return nil
	}
	m.fetchingPrompts = true
	engine, ctx := m.engine, m.ctx
	return func() tea.Msg {
		return promptsMsg(engine.SmartPrompts(ctx))
	}
}

func (m *Model) waitForInsight() tea.Cmd {
	ch := m.engine.Insights()
	return func() tea.Msg {
		in, ok := <-ch
		if !ok {
			return nil
		}
		return insightMsg(in)
	}
}

func (m *Model) usePrompt() {
	if len(m.prompts) == 0 || len(m.input) > 0 {
		return
	}
	m.input = []rune(m.prompts[m.promptIdx%len(m.prompts)])
	m.prompts = nil
}

func (m *Model) appendToInput(text string) {
	if len(m.input) > 0 && m.input[len(m.input)-1] != ' ' {
		m.input = append(m.input, ' ')
	}
	m.input = append(m.input, []rune(text)...)
	m.prompts = nil
}

func (m *Model) runReport(title string, fn func(context.Context) (string, error)) tea.Cmd {
	if m.replying {
		return nil
	}
	m.status = "Generating " + strings.ToLower(title) + "..."
	ctx := m.ctx
	return func() tea.Msg {
		text, err := fn(ctx)
		if errors.Is(err, pipeline.ErrNotEnoughMessages) {
			err = errors.New("not enough conversation yet")
		}
		return reportMsg{title: title, text: text, err: err}
	}
}

func (m *Model) export() tea.Cmd {
	exp := m.engine.Export()
	path := filepath.Join(m.exportDir, stats.ExportFileName(exp.Date))
	return func() tea.Msg {
		f, err := os.Create(path)
		if err != nil {
			return exportMsg{err: err}
		}
		werr := stats.WriteExport(f, exp)
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		return exportMsg{path: path, err: werr}
	}
}

func (m *Model) toggleVoice() {
	s := m.engine.Settings()
	s.VoiceOutput = !s.VoiceOutput
	if err := m.engine.UpdateSettings(m.ctx, s); err != nil {
		m.errMsg = err.Error()
		return
	}
	if !s.VoiceOutput {
		m.engine.StopAudio()
	}
	m.settings = s
	m.collectWarnings()
}

func (m *Model) preview() tea.Cmd {
	engine, ctx := m.engine, m.ctx
	return func() tea.Msg {
		if _, err := engine.Preview(ctx, ""); err != nil {
			return NoticeMsg("Preview failed: " + err.Error())
		}
		return NoticeMsg("Playing voice preview")
	}
}

func (m *Model) reset() {
	m.engine.Reset(m.ctx)
	m.input = nil
	m.prompts = nil
	m.insight = nil
	m.last = nil
	m.hotspots = nil
	m.report = nil
	m.errMsg = ""
	m.status = "Session reset"
	m.collectWarnings()
	m.refreshTranscript()
}

func (m *Model) collectWarnings() {
	if w := m.engine.Warnings(); len(w) > 0 {
		m.errMsg = strings.Join(w, "; ")
	}
}

func (m *Model) updateLayout() {
	if m.width <= 0 {
		return
	}
	m.transcript.Width = m.width
	m.refreshTranscript()
}

func (m *Model) refreshTranscript() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	content := renderTranscript(m.engine.Session().Messages(), width)
	if m.replying {
		content += "\n\n" + m.spinner.View() + footerStyle.Render(" thinking")
	}
	if m.report != nil {
		content += "\n\n" + panelStyle.Width(maxInt(10, width-4)).Render(titleStyle.Render(m.report.title)+"\n"+m.report.text)
	}
	m.transcript.SetContent(content)
	m.transcript.GotoBottom()
}

func (m *Model) renderHeader() string {
	title := titleStyle.Render("Sleep Safe")
	status := footerStyle.Render("  " + settingsLine(m.settings))
	lines := []string{truncateStyled(title+status, m.width)}
	for _, n := range m.notices {
		lines = append(lines, noticeStyle.Render(n))
	}
	return strings.Join(lines, "\n")
}

func settingsLine(s model.Settings) string {
	level, err := signal.ParseSensitivity(s.Sensitivity)
	if err != nil {
		level = signal.SensitivityBalanced
	}
	voice := "off"
	if s.VoiceOutput {
		voice = fmt.Sprintf("%s (%s)", elevenlabs.VoiceName(s.VoiceID), s.VoiceMode)
	}
	return fmt.Sprintf("Sensitivity %s · Fatigue %s · Emotion %s · Voice %s",
		level, onOff(s.FatigueEnabled), onOff(s.EmotionEnabled), voice)
}

func (m *Model) renderBelow() string {
	var lines []string
	if m.insight != nil {
		card := noticeStyle.Render(m.insight.Insight) + "\n" + m.insight.Suggestion + "\n" +
			footerStyle.Render("^y ask this  ^x dismiss")
		lines = append(lines, insightStyle.Render(card))
	}
	if len(m.prompts) > 0 {
		lines = append(lines, suggestStyle.Render("Try: "+strings.Join(m.prompts, "  |  ")))
	}
	lines = append(lines, wrapStyledRunes(buildInputRunes(m.input), m.width))
	if m.errMsg != "" {
		lines = append(lines, errorStyle.Render(m.errMsg))
	} else if m.status != "" {
		lines = append(lines, noticeStyle.Render(m.status))
	}
	if footer := m.renderFooter(); footer != "" {
		lines = append(lines, footer)
	}
	lines = append(lines, footerStyle.Render(truncatePlain(help, m.width)))
	return strings.Join(lines, "\n")
}

func (m *Model) renderFooter() string {
	if m.last == nil {
		return ""
	}
	r := m.last
	pattern := string(r.TypingPattern)
	if r.TypingConfidence != nil {
		pattern = fmt.Sprintf("%s %d%%", pattern, *r.TypingConfidence)
	}
	segments := []string{
		"Pattern " + pattern,
		"Sentiment " + r.Sentiment,
		"Theme " + r.Theme,
		fmt.Sprintf("Load %d/100", r.CognitiveLoad),
	}
	if len(m.hotspots) > 0 {
		hs := make([]string, 0, len(m.hotspots))
		for _, h := range m.hotspots {
			hs = append(hs, fmt.Sprintf("%s %d", h.Theme, h.AvgLoad))
		}
		segments = append(segments, "Hotspots "+strings.Join(hs, ", "))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func truncatePlain(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

func truncateStyled(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
