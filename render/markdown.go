package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Markdown renders source as ANSI-styled text. Paragraphs, headings and list
// items wrap at width; code blocks keep their lines.
func Markdown(source string, width int, theme Theme) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	src := []byte(source)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	m := &mdWriter{
		src:       src,
		width:     width,
		bold:      lipgloss.NewStyle().Bold(true),
		italic:    lipgloss.NewStyle().Italic(true),
		heading:   lipgloss.NewStyle().Foreground(ansiColor(theme.Accent)).Bold(true),
		muted:     lipgloss.NewStyle().Foreground(ansiColor(theme.Muted)).Faint(true),
		underline: lipgloss.NewStyle().Underline(true),
	}
	m.blocks(doc, "")
	return strings.TrimRight(m.buf.String(), "\n")
}

type mdWriter struct {
	src   []byte
	width int
	buf   bytes.Buffer

	bold      lipgloss.Style
	italic    lipgloss.Style
	heading   lipgloss.Style
	muted     lipgloss.Style
	underline lipgloss.Style
}

// blocks renders the children of node, each line prefixed with prefix.
func (m *mdWriter) blocks(node ast.Node, prefix string) {
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		m.block(c, prefix)
		if c.NextSibling() != nil {
			m.buf.WriteString(prefix + "\n")
		}
	}
}

func (m *mdWriter) block(node ast.Node, prefix string) {
	switch n := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		m.wrapped(prefix, prefix, m.inlines(n))
	case *ast.Heading:
		m.wrapped(prefix, prefix, m.heading.Render(m.inlines(n)))
	case *ast.FencedCodeBlock:
		if lang := string(n.Language(m.src)); lang != "" {
			m.buf.WriteString(prefix + m.muted.Render(lang) + "\n")
		}
		m.code(n, prefix)
	case *ast.CodeBlock:
		m.code(n, prefix)
	case *ast.Blockquote:
		m.blocks(n, prefix+m.muted.Render("│")+" ")
	case *ast.List:
		m.list(n, prefix)
	case *ast.ThematicBreak:
		m.buf.WriteString(prefix + m.muted.Render("---") + "\n")
	case *ast.HTMLBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			m.buf.WriteString(prefix + string(seg.Value(m.src)))
		}
	default:
		m.blocks(n, prefix)
	}
}

func (m *mdWriter) code(node ast.Node, prefix string) {
	gutter := prefix + m.muted.Render("│") + " "
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		m.buf.WriteString(gutter + strings.TrimRight(string(seg.Value(m.src)), "\n") + "\n")
	}
}

func (m *mdWriter) list(node *ast.List, prefix string) {
	num := node.Start
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		marker := "- "
		if node.IsOrdered() {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}
		hanging := prefix + strings.Repeat(" ", len(marker))
		first := true
		for ic := c.FirstChild(); ic != nil; ic = ic.NextSibling() {
			switch in := ic.(type) {
			case *ast.Paragraph, *ast.TextBlock:
				lead := hanging
				if first {
					lead = prefix + marker
				}
				m.wrapped(lead, hanging, m.inlines(in))
			default:
				if first {
					m.buf.WriteString(prefix + marker + "\n")
				}
				m.block(in, hanging)
			}
			first = false
		}
	}
}

// wrapped writes s wrapped to the remaining width, the first line after
// lead and the rest after hanging.
func (m *mdWriter) wrapped(lead, hanging, s string) {
	w := m.width - lipgloss.Width(hanging)
	if w < 10 {
		w = 10
	}
	for i, line := range strings.Split(lipgloss.NewStyle().Width(w).Render(s), "\n") {
		if i == 0 {
			m.buf.WriteString(lead + line + "\n")
		} else {
			m.buf.WriteString(hanging + line + "\n")
		}
	}
}

func (m *mdWriter) inlines(node ast.Node) string {
	var b bytes.Buffer
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		m.inline(c, &b)
	}
	return b.String()
}

func (m *mdWriter) inline(node ast.Node, b *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Text:
		b.Write(n.Segment.Value(m.src))
		switch {
		case n.HardLineBreak():
			b.WriteByte('\n')
		case n.SoftLineBreak():
			b.WriteByte(' ')
		}
	case *ast.String:
		b.Write(n.Value)
	case *ast.Emphasis:
		if n.Level == 1 {
			b.WriteString(m.italic.Render(m.inlines(n)))
		} else {
			b.WriteString(m.bold.Render(m.inlines(n)))
		}
	case *ast.CodeSpan:
		b.WriteString(m.bold.Render(m.inlines(n)))
	case *ast.Link:
		b.WriteString(m.underline.Render(m.inlines(n)) + " " + m.muted.Render("("+string(n.Destination)+")"))
	case *ast.Image:
		b.WriteString(m.underline.Render(m.inlines(n)) + " " + m.muted.Render("("+string(n.Destination)+")"))
	case *ast.AutoLink:
		b.WriteString(m.underline.Render(string(n.URL(m.src))))
	case *ast.RawHTML:
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			b.Write(seg.Value(m.src))
		}
	default:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			m.inline(c, b)
		}
	}
}
