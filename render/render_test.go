package render_test

import (
	"errors"
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/vertex"
	"github.com/fwojciec/vertex/render"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func stripANSI(s string) string {
	return ansi.ReplaceAllString(s, "")
}

func TestMain(m *testing.M) {
	// Force ANSI output so styled elements carry escape codes.
	lipgloss.SetColorProfile(termenv.ANSI)
	os.Exit(m.Run())
}

func TestMarkdown(t *testing.T) {
	t.Parallel()

	theme := render.DefaultTheme()

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "", render.Markdown("", 80, theme))
	})

	t.Run("plain paragraph", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "hello world", strings.TrimSpace(stripANSI(render.Markdown("hello world", 80, theme))))
	})

	t.Run("heading is styled", func(t *testing.T) {
		t.Parallel()
		heading := render.Markdown("# Title", 80, theme)
		paragraph := render.Markdown("Title", 80, theme)
		assert.Contains(t, stripANSI(heading), "Title")
		assert.NotEqual(t, heading, paragraph)
	})

	t.Run("emphasis keeps text", func(t *testing.T) {
		t.Parallel()
		got := stripANSI(render.Markdown("**bold** and *italic* and `code`", 80, theme))
		assert.Contains(t, got, "bold and italic and code")
	})

	t.Run("fenced code keeps lines and language", func(t *testing.T) {
		t.Parallel()
		src := "```go\nfmt.Println(\"hello world\")\n```"
		got := stripANSI(render.Markdown(src, 20, theme))
		assert.Contains(t, got, "go\n")
		assert.Contains(t, got, `│ fmt.Println("hello world")`)
	})

	t.Run("unordered list", func(t *testing.T) {
		t.Parallel()
		got := stripANSI(render.Markdown("- one\n- two", 80, theme))
		assert.Contains(t, got, "- one")
		assert.Contains(t, got, "- two")
	})

	t.Run("ordered list honours start", func(t *testing.T) {
		t.Parallel()
		got := stripANSI(render.Markdown("3. three\n4. four", 80, theme))
		assert.Contains(t, got, "3. three")
		assert.Contains(t, got, "4. four")
	})

	t.Run("nested list is indented", func(t *testing.T) {
		t.Parallel()
		got := stripANSI(render.Markdown("- outer\n  - inner", 80, theme))
		assert.Contains(t, got, "  - inner")
	})

	t.Run("long paragraph wraps", func(t *testing.T) {
		t.Parallel()
		src := strings.Repeat("word ", 30)
		got := stripANSI(render.Markdown(src, 20, theme))
		for _, line := range strings.Split(got, "\n") {
			assert.LessOrEqual(t, len(strings.TrimRight(line, " ")), 20)
		}
	})

	t.Run("link shows target", func(t *testing.T) {
		t.Parallel()
		got := stripANSI(render.Markdown("[docs](https://example.com)", 80, theme))
		assert.Contains(t, got, "docs (https://example.com)")
	})

	t.Run("blockquote has gutter", func(t *testing.T) {
		t.Parallel()
		got := stripANSI(render.Markdown("> quoted", 80, theme))
		assert.Contains(t, got, "│ quoted")
	})
}

func TestFooter(t *testing.T) {
	t.Parallel()
	t.Run("joins fields", func(t *testing.T) {
		t.Parallel()
		got := stripANSI(render.Footer(render.Summary{
			Provider:     "gemini",
			Model:        "gemini-2.0-flash",
			InputTokens:  12,
			OutputTokens: 34,
			StopReason:   "STOP",
		}, render.DefaultTheme()))
		assert.Equal(t, "gemini · gemini-2.0-flash · 12 in / 34 out · stop", got)
	})

	t.Run("empty summary", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "", render.Footer(render.Summary{}, render.DefaultTheme()))
	})
}

func TestThinking(t *testing.T) {
	t.Parallel()
	got := render.Thinking("considering crabs", render.DefaultTheme())
	assert.Equal(t, "considering crabs", stripANSI(got))
	assert.NotEqual(t, "considering crabs", got)
}

func TestError(t *testing.T) {
	t.Parallel()
	t.Run("typed error", func(t *testing.T) {
		t.Parallel()
		err := &vertex.Error{Kind: vertex.KindRateLimit, Provider: "anthropic", Code: "rate_limit_error", Message: "slow down"}
		got := stripANSI(render.Error(err, render.DefaultTheme()))
		assert.Equal(t, "error: anthropic: rate limited: rate_limit_error: slow down", got)
	})

	t.Run("plain error", func(t *testing.T) {
		t.Parallel()
		got := stripANSI(render.Error(errors.New("boom"), render.DefaultTheme()))
		assert.Equal(t, "error: boom", got)
	})

	t.Run("nil", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "", render.Error(nil, render.DefaultTheme()))
	})
}
