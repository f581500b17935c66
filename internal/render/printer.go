// Package render prints history pages and diffs for the command line.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

const defaultWidth = 80

type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

func ParseColorMode(raw string) (ColorMode, error) {
	switch mode := ColorMode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case "", ColorAuto:
		return ColorAuto, nil
	case ColorAlways, ColorNever:
		return mode, nil
	default:
		return "", fmt.Errorf("invalid color mode %q (want auto, always or never)", raw)
	}
}

type Options struct {
	Color ColorMode
	Theme ThemePreference
	// Width overrides the detected terminal width; 0 means detect.
	Width int
}

type Printer struct {
	w       io.Writer
	color   bool
	width   int
	palette colorPalette

	add, del, header, hunk, id, muted *color.Color
}

func New(w io.Writer, opts Options) *Printer {
	p := &Printer{w: w, width: opts.Width, palette: paletteForPreference(opts.Theme)}
	fd, isTerm := terminalFd(w)
	switch opts.Color {
	case ColorAlways:
		p.color = true
	case ColorNever:
		p.color = false
	default:
		p.color = isTerm && os.Getenv("NO_COLOR") == ""
	}
	if p.width <= 0 && isTerm {
		if width, _, err := term.GetSize(fd); err == nil && width > 0 {
			p.width = width
		}
	}
	if p.width <= 0 {
		p.width = defaultWidth
	}
	p.add = p.newColor(p.palette.DiffAdd)
	p.del = p.newColor(p.palette.DiffDel)
	p.header = p.newColor(p.palette.DiffHeader)
	p.hunk = p.newColor(p.palette.DiffHunk)
	p.id = p.newColor(p.palette.CommitID)
	p.muted = p.newColor(p.palette.Muted)
	return p
}

func terminalFd(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

func (p *Printer) newColor(attrs []color.Attribute) *color.Color {
	c := color.New(attrs...)
	if p.color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func (p *Printer) Colored() bool {
	return p.color
}

func (p *Printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

// truncate shortens s to max runes with a trailing ellipsis. max <= 0 keeps s.
func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
