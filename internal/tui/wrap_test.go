package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/sleepsafe/internal/model"
)

var plain = lipgloss.NewStyle()

func TestWrapStyledRunesBreaksAtSpaces(t *testing.T) {
	out := wrapStyledRunes(styleText("one two three", plain), 8)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", out)
	}
	if lines[0] != "one two" || lines[1] != "three" {
		t.Fatalf("unexpected wrap: %q", lines)
	}
}

func TestWrapStyledRunesSplitsLongWords(t *testing.T) {
	out := wrapStyledRunes(styleText("abcdefgh", plain), 3)
	if out != "abc\ndef\ngh" {
		t.Fatalf("unexpected wrap: %q", out)
	}
}

func TestStyleTextWideRunes(t *testing.T) {
	runes := styleText("a睡", plain)
	if len(runes) != 2 {
		t.Fatalf("expected 2 runes, got %d", len(runes))
	}
	if runes[1].width != 2 {
		t.Fatalf("expected wide rune width 2, got %d", runes[1].width)
	}
}

func TestBuildInputRunesCursor(t *testing.T) {
	runes := buildInputRunes([]rune("hi"))
	last := runes[len(runes)-1]
	if last.s != cursorStyle.Render(" ") {
		t.Fatalf("expected trailing cursor cell")
	}
	if got := len(runes); got != len([]rune(promptMark))+3 {
		t.Fatalf("expected prompt, 2 runes and cursor, got %d", got)
	}
}

func TestRenderMessageKeepsLineBreaks(t *testing.T) {
	msg := model.Message{Author: model.AuthorBot, Text: "first\nsecond"}
	out := renderMessage(msg, 80)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", out)
	}
	if !strings.Contains(lines[0], botLabelStyle.Render("S")) {
		t.Fatalf("expected bot label on first line")
	}
	if !strings.Contains(lines[1], botTextStyle.Render("s")) {
		t.Fatalf("expected second paragraph")
	}
}
