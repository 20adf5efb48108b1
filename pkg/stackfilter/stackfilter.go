// Package stackfilter removes framework noise from stack traces.
package stackfilter

import (
	"path/filepath"
	"strings"
)

// DefaultPatterns are frames from the test framework and runtime internals,
// for both JavaScript runners and go test.
var DefaultPatterns = []string{
	"node_modules/buster",
	"node:internal",
	"internal/process",
	"/src/runtime/",
	"/src/testing/",
	"_testmain.go",
}

// Filter drops stack lines containing any of its patterns and rewrites
// paths under Cwd to be relative.
type Filter struct {
	Cwd      string
	Patterns []string
}

// New returns a Filter for cwd. With no patterns, DefaultPatterns apply.
func New(cwd string, patterns ...string) *Filter {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	return &Filter{Cwd: cwd, Patterns: patterns}
}

// Filter implements format.StackFilter.
func (f *Filter) Filter(stack string) []string {
	if stack == "" {
		return nil
	}
	prefix := ""
	if f.Cwd != "" {
		prefix = strings.TrimSuffix(filepath.ToSlash(f.Cwd), "/") + "/"
	}

	var out []string
	for _, line := range strings.Split(stack, "\n") {
		if f.excluded(line) {
			continue
		}
		if prefix != "" {
			line = strings.ReplaceAll(line, prefix, "./")
		}
		out = append(out, strings.TrimRight(line, " \t\r"))
	}
	return out
}

func (f *Filter) excluded(line string) bool {
	for _, p := range f.Patterns {
		if p != "" && strings.Contains(line, p) {
			return true
		}
	}
	return false
}
