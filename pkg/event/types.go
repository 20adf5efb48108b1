// Package event defines the test runner lifecycle events consumed by the reporter.
package event

// Kind names an event on the runner's stream.
type Kind string

const (
	KindSuiteStart         Kind = "suite:start"
	KindSuiteConfiguration Kind = "suite:configuration"
	KindContextStart       Kind = "context:start"
	KindContextEnd         Kind = "context:end"
	KindContextUnsupported Kind = "context:unsupported"
	KindLog                Kind = "log"
	KindTestSetUp          Kind = "test:setUp"
	KindTestTearDown       Kind = "test:tearDown"
	KindTestSuccess        Kind = "test:success"
	KindTestFailure        Kind = "test:failure"
	KindTestError          Kind = "test:error"
	KindTestTimeout        Kind = "test:timeout"
	KindTestDeferred       Kind = "test:deferred"
	KindUncaughtException  Kind = "uncaughtException"
	KindSuiteEnd           Kind = "suite:end"
)

// Environment identifies the runtime an event originated from.
type Environment struct {
	UUID        string `json:"uuid"`
	Description string `json:"description"`
}

// String returns the human-facing description, falling back to the UUID.
func (e Environment) String() string {
	if e.Description != "" {
		return e.Description
	}
	return e.UUID
}

// ErrorInfo is the error payload carried by failure-class events.
type ErrorInfo struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Stack   string `json:"stack"`
	Source  string `json:"source,omitempty"`
}

// Event is implemented by every concrete event type. The set is closed;
// consumers dispatch with a type switch.
type Event interface {
	Kind() Kind
	isEvent()
}

type (
	// SuiteStart opens a run.
	SuiteStart struct{}

	// SuiteConfiguration announces an environment and the tests it expects to run.
	SuiteConfiguration struct {
		Environment Environment
		Tests       int
	}

	ContextStart struct {
		Environment Environment
		Name        string
	}

	ContextEnd struct {
		Environment Environment
		Name        string
	}

	// ContextUnsupported reports a context skipped because its requirements
	// were not met in the environment.
	ContextUnsupported struct {
		Environment Environment
		Context     string
		Unsupported []string
	}

	Log struct {
		Environment Environment
		Level       string
		Message     string
	}

	TestSetUp struct {
		Environment Environment
		Name        string
	}

	TestTearDown struct {
		Environment Environment
		Name        string
	}

	TestSuccess struct {
		Environment Environment
		Name        string
	}

	// TestFailure is an assertion failure. Error may be nil.
	TestFailure struct {
		Environment Environment
		Name        string
		Error       *ErrorInfo
	}

	// TestError is an exception thrown by a test. Error may be nil.
	TestError struct {
		Environment Environment
		Name        string
		Error       *ErrorInfo
	}

	TestTimeout struct {
		Environment Environment
		Name        string
		Error       *ErrorInfo
	}

	TestDeferred struct {
		Environment Environment
		Name        string
		Comment     string
	}

	// UncaughtException is raised by the system under test outside any test.
	UncaughtException struct {
		Environment Environment
		Error       ErrorInfo
	}

	// SuiteEnd closes a run with the runner's final tallies.
	SuiteEnd struct {
		Tests      int
		Assertions int
		Failures   int
		Errors     int
		Timeouts   int
		Deferred   int
		OK         bool
	}
)

func (SuiteStart) Kind() Kind         { return KindSuiteStart }
func (SuiteConfiguration) Kind() Kind { return KindSuiteConfiguration }
func (ContextStart) Kind() Kind       { return KindContextStart }
func (ContextEnd) Kind() Kind         { return KindContextEnd }
func (ContextUnsupported) Kind() Kind { return KindContextUnsupported }
func (Log) Kind() Kind                { return KindLog }
func (TestSetUp) Kind() Kind          { return KindTestSetUp }
func (TestTearDown) Kind() Kind       { return KindTestTearDown }
func (TestSuccess) Kind() Kind        { return KindTestSuccess }
func (TestFailure) Kind() Kind        { return KindTestFailure }
func (TestError) Kind() Kind          { return KindTestError }
func (TestTimeout) Kind() Kind        { return KindTestTimeout }
func (TestDeferred) Kind() Kind       { return KindTestDeferred }
func (UncaughtException) Kind() Kind  { return KindUncaughtException }
func (SuiteEnd) Kind() Kind           { return KindSuiteEnd }

func (SuiteStart) isEvent()         {}
func (SuiteConfiguration) isEvent() {}
func (ContextStart) isEvent()       {}
func (ContextEnd) isEvent()         {}
func (ContextUnsupported) isEvent() {}
func (Log) isEvent()                {}
func (TestSetUp) isEvent()          {}
func (TestTearDown) isEvent()       {}
func (TestSuccess) isEvent()        {}
func (TestFailure) isEvent()        {}
func (TestError) isEvent()          {}
func (TestTimeout) isEvent()        {}
func (TestDeferred) isEvent()       {}
func (UncaughtException) isEvent()  {}
func (SuiteEnd) isEvent()           {}
