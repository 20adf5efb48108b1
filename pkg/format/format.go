// Package format turns reporter state into printable text. Every function is
// pure; the reporter decides when and where the text is written.
package format

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dkoosis/brief/pkg/dedup"
	"github.com/dkoosis/brief/pkg/event"
	"github.com/dkoosis/brief/pkg/registry"
)

// AssertionErrorName is the generic failure name left out of error headings.
const AssertionErrorName = "AssertionError"

// NoAssertionsWarning is printed in verbose mode when a run made no assertions.
const NoAssertionsWarning = "WARNING: No assertions!"

// StackFilter trims a raw stack trace down to the lines worth showing.
type StackFilter interface {
	Filter(stack string) []string
}

var upper = cases.Upper(language.Und)

// Pluralize returns "1 noun" or "n nouns".
func Pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// Summary describes the run in progress. The test count is left out when unknown.
func Summary(expectedTests, environments int) string {
	tests := ""
	if expectedTests > 0 {
		tests = fmt.Sprintf("%d ", expectedTests)
	}
	envLabel := fmt.Sprintf("across %d environments", environments)
	if environments == 1 {
		envLabel = "in 1 environment"
	}
	return "Running " + tests + "tests " + envLabel + " ..."
}

// Progress renders "p% done", or "" when nothing is expected.
func Progress(executedTests, expectedTests int) string {
	if expectedTests == 0 {
		return ""
	}
	pct := math.Round(float64(executedTests) / float64(expectedTests) * 100)
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return ""
	}
	return fmt.Sprintf("%d%% done", int(pct))
}

// Status is the live status line: summary followed by progress.
func Status(expectedTests, executedTests, environments int) string {
	s := Summary(expectedTests, environments)
	if p := Progress(executedTests, expectedTests); p != "" {
		s += " " + p
	}
	return s
}

// Message renders a log entry as "[LEVEL] message".
func Message(entry registry.LogEntry) string {
	level := entry.Level
	if level == "" {
		level = "log"
	}
	return "[" + upper.String(level) + "] " + entry.Message
}

// Messages renders a test's log, one indented entry per line.
func Messages(entries []registry.LogEntry) string {
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = "    " + Message(e)
	}
	return strings.Join(lines, "\n")
}

// StackOptions controls Stack. The zero value shows the source line and every
// stack line.
type StackOptions struct {
	OmitSource bool
	MaxLines   int
}

// StackLines splits stack through filter, or on newlines when filter is nil.
func StackLines(stack string, filter StackFilter) []string {
	if stack == "" {
		return nil
	}
	if filter == nil {
		return strings.Split(stack, "\n")
	}
	return filter.Filter(stack)
}

// Stack renders an error heading, its source line, and its stack trace.
func Stack(err event.ErrorInfo, filter StackFilter, opts StackOptions) string {
	var b strings.Builder

	name := ""
	if err.Name != "" && err.Name != AssertionErrorName {
		name = err.Name + ": "
	}
	b.WriteString("  " + name + err.Message)

	if !opts.OmitSource && err.Source != "" {
		b.WriteString("\n  -> " + err.Source)
	}

	lines := StackLines(err.Stack, filter)
	if opts.MaxLines > 0 && len(lines) > opts.MaxLines {
		lines = lines[:opts.MaxLines]
	}
	if len(lines) > 0 {
		b.WriteString("\n    " + strings.Join(lines, "\n      "))
	}
	return b.String()
}

// RepeatedErrors renders the end-of-run report of grouped errors: the tests
// hit by each root cause, then one stack excerpt for the group.
func RepeatedErrors(groups []*dedup.Group, filter StackFilter) string {
	var b strings.Builder
	b.WriteString("Repeated exceptions:")
	for _, g := range groups {
		for _, occ := range g.Occurrences {
			b.WriteString("\n  " + occ.TestName)
			if len(occ.Log) > 0 {
				b.WriteString("\n" + Messages(occ.Log))
			}
		}
		b.WriteString("\n\n")
		b.WriteString(Stack(event.ErrorInfo{Name: g.Name, Message: g.Message, Stack: g.Stack}, filter,
			StackOptions{OmitSource: true, MaxLines: 1}))
	}
	return b.String()
}

// ErrorSummary lists the nonzero failure categories.
func ErrorSummary(failures, errors, timeouts int) string {
	var details []string
	if failures > 0 {
		details = append(details, Pluralize(failures, "failure"))
	}
	if errors > 0 {
		details = append(details, Pluralize(errors, "error"))
	}
	if timeouts > 0 {
		details = append(details, Pluralize(timeouts, "timeout"))
	}
	return strings.Join(details, ", ")
}

// Tally is the start of the final line, up to and including the ellipsis.
func Tally(tests, assertions, environments int) string {
	return Pluralize(tests, "test") + ", " +
		Pluralize(assertions, "assertion") + ", " +
		Pluralize(environments, "environment") + " ... "
}

// Outcome is "OK" for a passing run, otherwise the error summary.
func Outcome(end event.SuiteEnd) string {
	if end.OK {
		return "OK"
	}
	return ErrorSummary(end.Failures, end.Errors, end.Timeouts)
}

// Described appends the environment description in parentheses.
func Described(text, description string) string {
	return text + " (" + description + ")"
}
