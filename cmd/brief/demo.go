package main

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dkoosis/brief/pkg/event"
)

// demoSource replays a small sample suite in two environments with a pause
// between events, so the status line has time to tick.
type demoSource struct {
	delay  time.Duration
	events []event.Event
}

func newDemoSource(delay time.Duration) *demoSource {
	firefox := event.Environment{UUID: uuid.NewString(), Description: "Firefox 3.6 on Linux"}
	chrome := event.Environment{UUID: uuid.NewString(), Description: "Chrome 6 on Linux"}

	events := []event.Event{event.SuiteStart{}}
	for _, env := range []event.Environment{firefox, chrome} {
		events = append(events, event.SuiteConfiguration{Environment: env, Tests: 7})
	}
	for _, env := range []event.Environment{firefox, chrome} {
		events = append(events, sampleTestCase(env)...)
	}
	events = append(events, event.SuiteEnd{
		Tests: 14, Assertions: 10, Failures: 2, Errors: 2, Timeouts: 2, Deferred: 2,
	})
	return &demoSource{delay: delay, events: events}
}

func sampleTestCase(env event.Environment) []event.Event {
	ooops := &event.ErrorInfo{
		Name:    "Error",
		Message: "Ooops!",
		Stack:   "at Object.should fail when test throws (test/sample-test.js:14:15)\nat runTest (node_modules/buster-test/lib/test-case.js:80:9)",
	}
	notEqual := &event.ErrorInfo{
		Name:    "AssertionError",
		Message: "[assert.equals] Expected Something to be equal to Other",
		Source:  `buster.assert.equals("Something", "Other");`,
	}

	test := func(name string, outcome event.Event, logs ...event.Log) []event.Event {
		evs := []event.Event{event.TestSetUp{Environment: env, Name: name}}
		for _, l := range logs {
			evs = append(evs, l)
		}
		return append(evs, event.TestTearDown{Environment: env, Name: name}, outcome)
	}

	var evs []event.Event
	evs = append(evs, event.ContextStart{Environment: env, Name: "Sample test"})
	evs = append(evs, test("should pass simple assertion", event.TestSuccess{Environment: env, Name: "should pass simple assertion"})...)
	evs = append(evs, test("should fail when test throws",
		event.TestError{Environment: env, Name: "should fail when test throws", Error: ooops},
		event.Log{Environment: env, Level: "log", Message: "about to throw"})...)
	evs = append(evs, test("should fail test", event.TestFailure{Environment: env, Name: "should fail test", Error: notEqual})...)
	evs = append(evs, test("look ma, I'm asynchronous", event.TestTimeout{Environment: env, Name: "look ma, I'm asynchronous"})...)
	evs = append(evs,
		event.ContextStart{Environment: env, Name: "context"},
		event.TestSetUp{Environment: env, Name: "should be awesome"},
		event.TestTearDown{Environment: env, Name: "should be awesome"},
		event.TestSuccess{Environment: env, Name: "should be awesome"},
		event.ContextStart{Environment: env, Name: "inside here"},
		event.TestDeferred{Environment: env, Name: "should do it more", Comment: "Not ready yet"},
		event.ContextEnd{Environment: env, Name: "inside here"},
		event.ContextEnd{Environment: env, Name: "context"},
		event.ContextUnsupported{Environment: env, Context: "localStorage", Unsupported: []string{"localStorage"}},
		event.Log{Environment: env, Level: "warn", Message: "sample suite done"},
		event.ContextEnd{Environment: env, Name: "Sample test"},
	)
	evs = append(evs, test("should be lazy", event.TestSuccess{Environment: env, Name: "should be lazy"})...)
	return evs
}

// Events implements reporter.Source.
func (d *demoSource) Events(ctx context.Context, fn event.ProcessFunc) error {
	for _, ev := range d.events {
		if d.delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d.delay):
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
	return nil
}
