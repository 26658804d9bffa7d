// Package output formats aquote command output for the terminal.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// ColorMode represents color output mode.
type ColorMode int

const (
	// ColorAuto enables colors based on the environment (default).
	ColorAuto ColorMode = iota
	// ColorAlways forces colors on.
	ColorAlways
	// ColorNever forces colors off.
	ColorNever
)

// String returns the flag value for m.
func (m ColorMode) String() string {
	switch m {
	case ColorAlways:
		return "always"
	case ColorNever:
		return "never"
	default:
		return "auto"
	}
}

// ParseColorMode parses a --color flag value.
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, fmt.Errorf("invalid color mode %q: must be auto, always, or never", s)
	}
}

// ResolveColors decides whether to emit ANSI styling. In auto mode colors
// are used only when w is a terminal and neither NO_COLOR nor TERM=dumb
// says otherwise.
func ResolveColors(mode ColorMode, w io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			return false
		}

		if os.Getenv("TERM") == "dumb" {
			return false
		}

		return isTerminal(w)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	info, err := f.Stat()
	if err != nil {
		return false
	}

	return info.Mode()&os.ModeCharDevice != 0
}

// Printer writes command output. Styling is applied only when colors are on.
type Printer struct {
	out       io.Writer
	err       io.Writer
	useColors bool
}

// NewPrinter creates a printer writing results to out and warnings to errOut.
func NewPrinter(out, errOut io.Writer, useColors bool) *Printer {
	return &Printer{
		out:       out,
		err:       errOut,
		useColors: useColors,
	}
}

// Out returns the result writer.
func (p *Printer) Out() io.Writer {
	return p.out
}

// Println prints a plain line.
func (p *Printer) Println(text string) {
	fmt.Fprintln(p.out, text)
}

// Warning prints a warning to the error writer.
func (p *Printer) Warning(format string, args ...any) {
	if p.useColors {
		color.New(color.FgYellow).Fprintf(p.err, "warning: "+format+"\n", args...)
		return
	}

	fmt.Fprintf(p.err, "warning: "+format+"\n", args...)
}

// Bold returns text in bold.
func (p *Printer) Bold(text string) string {
	return p.style(text, color.Bold)
}

// Italic returns text in italics.
func (p *Printer) Italic(text string) string {
	return p.style(text, color.Italic)
}

// Dim returns dimmed text.
func (p *Printer) Dim(text string) string {
	return p.style(text, color.Faint)
}

// StatusBadge renders a vendor check status.
func (p *Printer) StatusBadge(healthy bool) string {
	switch {
	case healthy && p.useColors:
		return color.New(color.FgGreen).Sprint("● ok")
	case healthy:
		return "ok"
	case p.useColors:
		return color.New(color.FgRed).Sprint("● failed")
	default:
		return "failed"
	}
}

func (p *Printer) style(text string, attrs ...color.Attribute) string {
	if !p.useColors {
		return text
	}

	c := color.New(attrs...)
	c.EnableColor()

	return c.Sprint(text)
}
