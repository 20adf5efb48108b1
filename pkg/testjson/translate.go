package testjson

import (
	"maps"
	"slices"
	"strings"

	"github.com/dkoosis/brief/pkg/event"
)

// Translator converts go test events into runner events. Output is held per
// test and replayed when the test finishes, so parallel tests never
// interleave in the reporter.
type Translator struct {
	emit    event.ProcessFunc
	started bool
	pkgs    map[string]*pkgState
	totals  Totals
}

type pkgState struct {
	env    event.Environment
	tests  map[string][]string // output of tests still running
	output []string            // package-level output
	ran    int
}

// NewTranslator returns a Translator that sends events to emit.
func NewTranslator(emit event.ProcessFunc) *Translator {
	return &Translator{emit: emit, pkgs: make(map[string]*pkgState)}
}

// Totals returns the tallies so far.
func (t *Translator) Totals() Totals {
	return t.totals
}

// Handle applies one go test event.
func (t *Translator) Handle(e TestEvent) error {
	if e.Package == "" {
		return nil
	}
	if !t.started {
		t.started = true
		if err := t.emit(event.SuiteStart{}); err != nil {
			return err
		}
	}
	pkg, err := t.pkg(e.Package)
	if err != nil {
		return err
	}

	switch e.Action {
	case ActionRun:
		if e.Test != "" {
			pkg.tests[e.Test] = nil
		}
	case ActionOutput:
		line := strings.TrimRight(e.Output, "\r\n")
		if isFraming(line) {
			return nil
		}
		if e.Test != "" {
			pkg.tests[e.Test] = append(pkg.tests[e.Test], line)
		} else {
			pkg.output = append(pkg.output, line)
		}
	case ActionPass, ActionFail, ActionSkip:
		if e.Test != "" {
			return t.finishTest(pkg, e.Test, e.Action)
		}
		if e.Action == ActionFail {
			return t.failPackage(pkg)
		}
	}
	return nil
}

// Finish closes the run with the accumulated tallies. Tests still running
// when the stream ends are reported as failed. Nothing is emitted for an
// empty stream.
func (t *Translator) Finish() error {
	if !t.started {
		return nil
	}
	for _, name := range slices.Sorted(maps.Keys(t.pkgs)) {
		if err := t.drain(t.pkgs[name]); err != nil {
			return err
		}
	}
	tot := t.totals
	return t.emit(event.SuiteEnd{
		Tests:      tot.ran(),
		Assertions: tot.ran(),
		Failures:   tot.Failed,
		Errors:     tot.Panicked + tot.Builds,
		Timeouts:   tot.TimedOut,
		Deferred:   tot.Skipped,
		OK:         tot.Failed+tot.Panicked+tot.TimedOut+tot.Builds == 0,
	})
}

func (t *Translator) pkg(name string) (*pkgState, error) {
	if p, ok := t.pkgs[name]; ok {
		return p, nil
	}
	p := &pkgState{
		env:   event.Environment{UUID: name, Description: name},
		tests: make(map[string][]string),
	}
	t.pkgs[name] = p
	return p, t.emit(event.SuiteConfiguration{Environment: p.env})
}

func (t *Translator) finishTest(pkg *pkgState, name, action string) error {
	out := pkg.tests[name]
	delete(pkg.tests, name)
	env := pkg.env

	evs := []event.Event{event.TestSetUp{Environment: env, Name: name}}
	switch action {
	case ActionPass:
		t.totals.Passed++
		pkg.ran++
		evs = appendLogs(evs, env, out)
		evs = append(evs,
			event.TestTearDown{Environment: env, Name: name},
			event.TestSuccess{Environment: env, Name: name})

	case ActionSkip:
		t.totals.Skipped++
		evs = append(evs,
			event.TestTearDown{Environment: env, Name: name},
			event.TestDeferred{Environment: env, Name: name, Comment: lastLine(out)})

	case ActionFail:
		pkg.ran++
		if p, ok := findPanic(out); ok {
			evs = appendLogs(evs, env, out[:p.at])
			evs = append(evs, event.TestTearDown{Environment: env, Name: name})
			if p.timeout {
				t.totals.TimedOut++
				evs = append(evs, event.TestTimeout{Environment: env, Name: name, Error: &p.info})
			} else {
				t.totals.Panicked++
				evs = append(evs, event.TestError{Environment: env, Name: name, Error: &p.info})
			}
			break
		}
		t.totals.Failed++
		evs = append(evs,
			event.TestTearDown{Environment: env, Name: name},
			event.TestFailure{Environment: env, Name: name, Error: failureInfo(out)})
	}

	for _, ev := range evs {
		if err := t.emit(ev); err != nil {
			return err
		}
	}
	return nil
}

// drain fails every test of pkg that never got a verdict. go test sends no
// test-level fail for a test killed by -timeout; its output holds the panic.
func (t *Translator) drain(pkg *pkgState) error {
	for _, name := range slices.Sorted(maps.Keys(pkg.tests)) {
		if err := t.finishTest(pkg, name, ActionFail); err != nil {
			return err
		}
	}
	return nil
}

// failPackage reports a package that failed: tests left without a verdict,
// then a build failure or a crash in TestMain or init.
func (t *Translator) failPackage(pkg *pkgState) error {
	if err := t.drain(pkg); err != nil {
		return err
	}
	if p, ok := findPanic(pkg.output); ok {
		t.totals.Panicked++
		return t.emit(event.UncaughtException{Environment: pkg.env, Error: p.info})
	}
	if pkg.ran > 0 {
		return nil
	}
	t.totals.Builds++
	info := event.ErrorInfo{Name: "build failed", Message: "package failed"}
	if lines := trimmed(pkg.output); len(lines) > 0 {
		info.Message = lines[0]
		info.Stack = strings.Join(lines[1:], "\n")
	}
	return t.emit(event.UncaughtException{Environment: pkg.env, Error: info})
}

func appendLogs(evs []event.Event, env event.Environment, lines []string) []event.Event {
	for _, line := range trimmed(lines) {
		evs = append(evs, event.Log{Environment: env, Level: "log", Message: line})
	}
	return evs
}

// failureInfo reads the first line of a failed test's output as the message
// and the rest as the trace.
func failureInfo(out []string) *event.ErrorInfo {
	lines := trimmed(out)
	if len(lines) == 0 {
		return &event.ErrorInfo{Message: "test failed"}
	}
	return &event.ErrorInfo{Message: lines[0], Stack: strings.Join(lines[1:], "\n")}
}

// isFraming reports lines that go test writes around test output.
func isFraming(line string) bool {
	s := strings.TrimSpace(line)
	if s == "" || s == "PASS" || s == "FAIL" {
		return true
	}
	for _, prefix := range []string{
		"=== RUN", "=== PAUSE", "=== CONT", "=== NAME",
		"--- PASS", "--- FAIL", "--- SKIP",
		"ok  ", "FAIL\t", "?   \t", "coverage:",
	} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

func trimmed(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if s := strings.TrimSpace(l); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func lastLine(lines []string) string {
	t := trimmed(lines)
	if len(t) == 0 {
		return ""
	}
	return t[len(t)-1]
}
