// Package stream provides the live terminal output of the reporter: permanent
// lines scroll by while a single status line at the bottom is rewritten in place.
package stream

import (
	"bufio"
	"io"

	"github.com/acarl005/stripansi"
	"github.com/mattn/go-runewidth"
)

const (
	cursorUp  = "\033[1A"
	eraseLine = "\r\033[2K"
)

// StatusSink is where the reporter sends its output.
type StatusSink interface {
	// WriteLine prints a permanent line, removing the status line first.
	WriteLine(s string)
	// RewriteLastLine replaces the status line with s.
	RewriteLastLine(s string)
	// Flush pushes buffered output and reports the first write error seen.
	Flush() error
}

// TermWriter is the StatusSink for terminals and pipes. All output of a report
// flows through it. It is not safe for concurrent use; the reporter serialises
// calls.
//
// In interactive mode the status line is erased with cursor movement and
// truncated to the terminal width, so exactly one line needs erasing. Otherwise
// no escapes are written and a status line is only printed when it changes.
type TermWriter struct {
	out         *bufio.Writer
	width       int
	interactive bool
	statusShown bool
	lastStatus  string
	err         error
}

// NewTermWriter returns a TermWriter over out. A non-positive width means 80 columns.
func NewTermWriter(out io.Writer, width int, interactive bool) *TermWriter {
	if width <= 0 {
		width = 80
	}
	return &TermWriter{out: bufio.NewWriter(out), width: width, interactive: interactive}
}

// WriteLine implements StatusSink.
func (w *TermWriter) WriteLine(s string) {
	w.eraseStatus()
	w.lastStatus = ""
	w.write(s + "\n")
}

// RewriteLastLine implements StatusSink.
func (w *TermWriter) RewriteLastLine(s string) {
	if !w.interactive {
		if s == w.lastStatus {
			return
		}
		w.lastStatus = s
		w.write(s + "\n")
		return
	}
	w.eraseStatus()
	w.write(w.fit(s) + "\n")
	w.statusShown = true
	w.lastStatus = s
}

// ClearStatus removes the status line without printing anything else.
func (w *TermWriter) ClearStatus() {
	w.eraseStatus()
}

// Flush implements StatusSink.
func (w *TermWriter) Flush() error {
	if err := w.out.Flush(); err != nil && w.err == nil {
		w.err = err
	}
	return w.err
}

func (w *TermWriter) eraseStatus() {
	if !w.statusShown {
		return
	}
	w.write(cursorUp + eraseLine)
	w.statusShown = false
}

// write drops output after the first error; writes are fire-and-forget.
func (w *TermWriter) write(s string) {
	if w.err != nil {
		return
	}
	if _, err := w.out.WriteString(s); err != nil {
		w.err = err
	}
}

// fit truncates s to the terminal width, measured without ANSI escapes.
// Truncated lines lose their styling.
func (w *TermWriter) fit(s string) string {
	plain := stripansi.Strip(s)
	if runewidth.StringWidth(plain) <= w.width {
		return s
	}
	return runewidth.Truncate(plain, w.width, "...")
}
