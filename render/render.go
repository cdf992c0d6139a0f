// Package render formats model replies for the terminal: markdown through
// goldmark, styling through lipgloss, plus the usage footer and error line
// printed after a stream ends.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme maps roles to ANSI color indices (0-15), so output follows the
// terminal's palette. A negative index disables the color.
type Theme struct {
	Accent   int // Headings
	Muted    int // Footer, code gutter, link targets
	Thinking int // Thought summaries
	Error    int
}

// DefaultTheme returns the default color mapping.
func DefaultTheme() Theme {
	return Theme{
		Accent:   5,
		Muted:    8,
		Thinking: 8,
		Error:    1,
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

// Summary describes a finished reply.
type Summary struct {
	Provider     string
	Model        string
	InputTokens  uint32
	OutputTokens uint32
	StopReason   string
}

// Footer renders s as one muted line. Empty fields are omitted.
func Footer(s Summary, theme Theme) string {
	var parts []string
	for _, p := range []string{s.Provider, s.Model} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if s.InputTokens > 0 || s.OutputTokens > 0 {
		parts = append(parts, fmt.Sprintf("%d in / %d out", s.InputTokens, s.OutputTokens))
	}
	if s.StopReason != "" {
		parts = append(parts, strings.ToLower(s.StopReason))
	}
	if len(parts) == 0 {
		return ""
	}
	style := lipgloss.NewStyle().Foreground(ansiColor(theme.Muted)).Faint(true)
	return style.Render(strings.Join(parts, " · "))
}

// Thinking renders a thought summary.
func Thinking(text string, theme Theme) string {
	return lipgloss.NewStyle().Foreground(ansiColor(theme.Thinking)).Italic(true).Render(text)
}

// Error renders err on one line.
func Error(err error, theme Theme) string {
	if err == nil {
		return ""
	}
	return lipgloss.NewStyle().Foreground(ansiColor(theme.Error)).Bold(true).Render("error: " + err.Error())
}
