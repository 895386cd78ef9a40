// Package tui prints reports and progress to the terminal.
package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const defaultWidth = 100

// Printer writes markdown reports, styled when out is a terminal and verbatim
// otherwise so that redirected output stays plain markdown.
type Printer struct {
	out     io.Writer
	tty     bool
	width   int
	profile termenv.Profile
}

type fder interface {
	Fd() uintptr
}

// NewPrinter inspects out once and returns a Printer bound to it.
func NewPrinter(out io.Writer) *Printer {
	p := &Printer{out: out, width: defaultWidth, profile: termenv.Ascii}
	if f, ok := out.(fder); ok && term.IsTerminal(int(f.Fd())) {
		p.tty = true
		p.profile = termenv.NewOutput(out).ColorProfile()
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 20 {
			p.width = w - 4
		}
	}
	return p
}

// IsTerminal reports whether output is styled.
func (p *Printer) IsTerminal() bool { return p.tty }

// Markdown prints a report.
func (p *Printer) Markdown(md string) error {
	if !p.tty {
		_, err := io.WriteString(p.out, md)
		return err
	}
	out, err := RenderMarkdown(md, p.width, glamour.WithAutoStyle())
	if err != nil {
		out = md
	}
	_, err = io.WriteString(p.out, out)
	return err
}

// Printf writes an unstyled line.
func (p *Printer) Printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

// Status colours a progress line green or red.
func (p *Printer) Status(line string, ok bool) string {
	hex := "#22c55e"
	if !ok {
		hex = "#ef4444"
	}
	return termenv.String(line).Foreground(p.profile.Color(hex)).String()
}

// RenderMarkdown renders markdown using glamour, wrapped at width.
func RenderMarkdown(md string, width int, opts ...glamour.TermRendererOption) (string, error) {
	opts = append([]glamour.TermRendererOption{glamour.WithWordWrap(width)}, opts...)
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}
