package testjson

import (
	"strings"

	"github.com/dkoosis/brief/pkg/event"
)

const timeoutPrefix = "test timed out"

// goPanic is a panic found in test output.
type goPanic struct {
	at      int // index of the "panic:" line
	info    event.ErrorInfo
	timeout bool
}

// findPanic locates the first panic in out and converts its goroutine dump
// into a stack. Frames from the runtime and the testing package are dropped,
// so panics raised from the same place share a first stack line.
func findPanic(out []string) (goPanic, bool) {
	for i, raw := range out {
		line := strings.TrimSpace(raw)
		msg, ok := strings.CutPrefix(line, "panic: ")
		if !ok {
			continue
		}
		msg, _, _ = strings.Cut(msg, " [recovered")
		p := goPanic{
			at: i,
			info: event.ErrorInfo{
				Name:    "panic",
				Message: msg,
				Stack:   strings.Join(goroutineFrames(out[i+1:]), "\n"),
			},
			timeout: strings.HasPrefix(msg, timeoutPrefix),
		}
		if p.timeout {
			p.info.Name = "timeout"
		}
		return p, true
	}
	return goPanic{}, false
}

// goroutineFrames flattens a goroutine dump into one line per frame:
// "pkg.Func(...) file.go:12".
func goroutineFrames(lines []string) []string {
	var frames []string
	var fn string
	skip := false
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		switch {
		case line == "",
			strings.HasPrefix(line, "goroutine "),
			strings.HasPrefix(line, "panic: "),
			strings.HasPrefix(line, "[recovered"):
			continue
		case strings.HasPrefix(line, "created by "):
			fn, skip = "", true
		case strings.HasPrefix(raw, "\t"):
			if skip || fn == "" {
				continue
			}
			if i := strings.LastIndex(line, " +0x"); i > 0 {
				line = line[:i]
			}
			frames = append(frames, fn+" "+line)
			fn = ""
		default:
			if i := strings.LastIndex(line, "("); i > 0 {
				line = line[:i]
			}
			skip = isRuntimeFrame(line)
			fn = line + "(...)"
		}
	}
	return frames
}

func isRuntimeFrame(fn string) bool {
	return fn == "panic" || fn == "main.main" ||
		strings.HasPrefix(fn, "runtime.") ||
		strings.HasPrefix(fn, "testing.")
}
