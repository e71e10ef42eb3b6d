// Package output formats the messages of one-shot commands such as
// config, history and stop. Search progress is drawn by package ui.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

type tone int

const (
	toneOK tone = iota
	toneWarn
	toneFail
	toneLabel
)

var palette = [...]struct {
	glyph string
	color lipgloss.Color
}{
	toneOK:    {"✓", "154"},
	toneWarn:  {"⚠", "220"},
	toneFail:  {"✗", "196"},
	toneLabel: {"", "245"},
}

// Writer prints status lines, aligned fields and lists. Write errors are
// ignored: this is console output.
type Writer struct {
	out    io.Writer
	styles [len(palette)]lipgloss.Style
	color  bool
}

// New returns a Writer on out. Colors are used only on a terminal and
// only when NO_COLOR is unset.
func New(out io.Writer) *Writer {
	w := &Writer{out: out, color: colorTerminal(out)}
	for t := range palette {
		w.styles[t] = lipgloss.NewStyle()
		if w.color {
			w.styles[t] = w.styles[t].Foreground(palette[t].color)
		}
	}
	return w
}

func colorTerminal(out io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := out.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func (w *Writer) mark(t tone) string {
	return w.styles[t].Render(palette[t].glyph)
}

// Status prints msg after icon, or indented under the previous line when
// icon is empty.
func (w *Writer) Status(icon, msg string) {
	if icon == "" {
		icon = "  "
	}
	_, _ = fmt.Fprintln(w.out, icon, msg)
}

func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

func (w *Writer) Success(msg string) { w.Status(w.mark(toneOK), msg) }

func (w *Writer) Successf(format string, args ...any) { w.Success(fmt.Sprintf(format, args...)) }

func (w *Writer) Warning(msg string) { w.Status(w.mark(toneWarn), msg) }

func (w *Writer) Warningf(format string, args ...any) { w.Warning(fmt.Sprintf(format, args...)) }

func (w *Writer) Error(msg string) { w.Status(w.mark(toneFail), msg) }

func (w *Writer) Errorf(format string, args ...any) { w.Error(fmt.Sprintf(format, args...)) }

// KeyValue prints "label: value" with values aligned on column 17.
func (w *Writer) KeyValue(label, value string) {
	_, _ = fmt.Fprintf(w.out, "  %s %s\n", w.styles[toneLabel].Render(fmt.Sprintf("%-14s", label+":")), value)
}

// List prints one bullet per item.
func (w *Writer) List(items []string) {
	for _, item := range items {
		_, _ = fmt.Fprintln(w.out, "  •", item)
	}
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}
