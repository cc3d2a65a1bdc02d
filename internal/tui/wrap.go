package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/sleepsafe/internal/model"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

func styleText(text string, style lipgloss.Style) []styledRune {
	out := make([]styledRune, 0, len(text))
	for _, r := range text {
		if r == '\t' {
			r = ' '
		}
		out = append(out, styledRune{
			s:       style.Render(string(r)),
			width:   runewidth.RuneWidth(r),
			isSpace: r == ' ',
		})
	}
	return out
}

// buildInputRunes renders the input with a cursor cell after the last rune.
func buildInputRunes(input []rune) []styledRune {
	out := styleText(promptMark, promptStyle)
	out = append(out, styleText(string(input), inputStyle)...)
	out = append(out, styledRune{s: cursorStyle.Render(" "), width: 1})
	return out
}

func authorLabel(a model.Author) (string, lipgloss.Style, lipgloss.Style) {
	if a == model.AuthorUser {
		return "You: ", userLabelStyle, userTextStyle
	}
	return "Sleep Safe: ", botLabelStyle, botTextStyle
}

// renderMessage wraps one transcript entry to width, keeping the text's own line breaks.
func renderMessage(msg model.Message, width int) string {
	label, labelStyle, textStyle := authorLabel(msg.Author)
	paragraphs := strings.Split(strings.TrimRight(msg.Text, "\n"), "\n")
	lines := make([]string, 0, len(paragraphs))
	for i, p := range paragraphs {
		var runes []styledRune
		if i == 0 {
			runes = styleText(label, labelStyle)
		}
		runes = append(runes, styleText(p, textStyle)...)
		lines = append(lines, wrapStyledRunes(runes, width))
	}
	return strings.Join(lines, "\n")
}

func renderTranscript(msgs []model.Message, width int) string {
	parts := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		parts = append(parts, renderMessage(msg, width))
	}
	return strings.Join(parts, "\n\n")
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				out.WriteString(renderStyledRunes(line[:lastSpaceIdx]))
				out.WriteRune('\n')
				line = append([]styledRune{}, line[lastSpaceIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				out.WriteString(renderStyledRunes(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	out.WriteString(renderStyledRunes(line))
	return out.String()
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
