// Package testjson turns a `go test -json` stream into runner events, so the
// reporter can render Go test runs. Each package becomes an environment.
package testjson

import "time"

// TestEvent represents a single event from go test -json output.
type TestEvent struct {
	Time    time.Time `json:"Time"`
	Action  string    `json:"Action"`
	Package string    `json:"Package"`
	Test    string    `json:"Test"`
	Elapsed float64   `json:"Elapsed"`
	Output  string    `json:"Output"`
}

// Actions emitted by test2json.
const (
	ActionStart  = "start"
	ActionRun    = "run"
	ActionPause  = "pause"
	ActionCont   = "cont"
	ActionPass   = "pass"
	ActionFail   = "fail"
	ActionSkip   = "skip"
	ActionOutput = "output"
	ActionBench  = "bench"
)

// Totals are the tallies reported at suite end.
type Totals struct {
	Passed   int
	Failed   int
	Panicked int
	TimedOut int
	Skipped  int
	Builds   int // packages that failed before running any test
}

// ran counts tests that reached a verdict other than skip.
func (t Totals) ran() int {
	return t.Passed + t.Failed + t.Panicked + t.TimedOut
}
