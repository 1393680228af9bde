// Package display provides terminal formatting for sheetmail output.
package display

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/daviddao/sheetmail/internal/types"
)

var (
	// Styles
	Muted    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	Dim      = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ca3af"))
	Bold     = lipgloss.NewStyle().Bold(true)
	Success  = lipgloss.NewStyle().Foreground(lipgloss.Color("#16a34a"))
	Warn     = lipgloss.NewStyle().Foreground(lipgloss.Color("#d97706"))
	ErrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626"))

	NewStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ca3af"))
	SentStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#0891b2"))
	DoneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#16a34a"))
	ActionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#2563eb"))
	RejectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626"))
)

// StatusLabel returns a styled, fixed-width status label.
func StatusLabel(s types.Status) string {
	label := s.String()
	if label == "" {
		label = "new"
	}
	label = fmt.Sprintf("%-18s", label)
	switch s.Stage {
	case types.StageSent:
		return SentStyle.Render(label)
	case types.StageAllDone:
		return DoneStyle.Render(label)
	case types.StageActionRequired:
		return ActionStyle.Render(label)
	case types.StageOfferRejected:
		return RejectedStyle.Render(label)
	default:
		return NewStyle.Render(label)
	}
}

// Swatch renders a two-cell block in the row's background color, or a dim
// dot when the row has no fill.
func Swatch(c types.Color) string {
	if c.IsZero() {
		return Dim.Render(" ·")
	}
	return lipgloss.NewStyle().Background(lipgloss.Color(c.Hex())).Render("  ")
}

// TimeAgo formats t relative to now. The zero time renders as "never".
func TimeAgo(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}

	d := now.Sub(t)
	switch {
	case d < 0:
		return t.Format("Jan 2 15:04")
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}

// Truncate shortens a string to maxLen runes, adding ellipsis if needed.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// SuccessMsg prints a green checkmark + message.
func SuccessMsg(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(Success.Render("✓") + " " + msg)
}

// WarnMsg prints an amber marker + message to stderr.
func WarnMsg(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, Warn.Render("!")+" "+msg)
}

// ErrorMsg prints a red X + message to stderr.
func ErrorMsg(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, ErrStyle.Render("✗")+" "+msg)
}

// Header prints a section header.
func Header(title string) {
	fmt.Println(Bold.Render(title))
}

// SubHeader prints a dim subsection label.
func SubHeader(title string) {
	fmt.Println(Muted.Render(title))
}

// PassSummary writes the one-line outcome of a pass.
func PassSummary(w io.Writer, r *types.PassResult) {
	prefix := ""
	if r.DryRun {
		prefix = Warn.Render("[dry run] ")
	}
	line := fmt.Sprintf("%d rows: %d sent, %d marked, %d skipped", r.Rows, r.Sent, r.Marked, r.Skipped)
	if r.Failed > 0 {
		line += ", " + ErrStyle.Render(fmt.Sprintf("%d failed", r.Failed))
	}
	fmt.Fprintf(w, "%s%s %s\n", prefix, line, Dim.Render("("+r.Duration.Round(time.Millisecond).String()+")"))
}
