package stats

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/verte-zerg/sleepsafe/internal/model"
)

const notGenerated = "Not generated yet."

// Export is the content of a session export file.
type Export struct {
	Date     time.Time
	Summary  string
	Plan     string
	Messages []model.Message
	History  []model.AnalysisResult
}

// ExportFileName returns the default file name for an export made on date.
func ExportFileName(date time.Time) string {
	return fmt.Sprintf("sleepsafe-session-%s.txt", date.Format("2006-01-02"))
}

// WriteExport renders the plain-text session export.
func WriteExport(w io.Writer, e Export) error {
	var b strings.Builder
	section := func(title, body string) {
		b.WriteString("---\n\n## ")
		b.WriteString(title)
		b.WriteString("\n")
		b.WriteString(body)
		b.WriteString("\n\n")
	}

	b.WriteString("# Sleep Safe Session Export\n")
	fmt.Fprintf(&b, "## Date: %s\n\n", e.Date.Format("2006-01-02 15:04:05"))
	section("AI-Generated Session Summary", orPlaceholder(e.Summary))

	transcript := make([]string, 0, len(e.Messages))
	for _, m := range e.Messages {
		transcript = append(transcript, fmt.Sprintf("[%s] %s", strings.ToUpper(string(m.Author)), m.Text))
	}
	section("Conversation Transcript", strings.Join(transcript, "\n"))

	journal := make([]string, 0, len(e.History))
	for _, r := range e.History {
		journal = append(journal, JournalLine(r))
	}
	section("Session Journal", strings.Join(journal, "\n"))
	section("Final Analysis & Sleep Plan", orPlaceholder(e.Plan))

	_, err := io.WriteString(w, strings.TrimSpace(b.String())+"\n")
	return err
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return notGenerated
	}
	return s
}
