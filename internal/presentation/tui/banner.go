package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner in blueprint blues.
func (p *Printer) PrintBanner(version string) {
	if !p.tty {
		return
	}
	lines := []struct {
		text string
		hex  string
	}{
		{"                 _     __                      ", "#bfdbfe"},
		{"  _ __ ___   ___| | __/ _| ___  _ __ __ _  ___ ", "#93c5fd"},
		{" | '_ ` _ \\ / _ \\ |/ / |_ / _ \\| '__/ _` |/ _ \\", "#60a5fa"},
		{" | | | | | |  __/   <|  _| (_) | | | (_| |  __/", "#3b82f6"},
		{" |_| |_| |_|\\___|_|\\_\\_|  \\___/|_|  \\__, |\\___|", "#2563eb"},
		{"                                    |___/      ", "#1d4ed8"},
	}
	fmt.Fprintln(p.out)
	for _, l := range lines {
		fmt.Fprintln(p.out, termenv.String(l.text).Foreground(p.profile.Color(l.hex)))
	}
	fmt.Fprintf(p.out, "  v%s\n\n", version)
}
