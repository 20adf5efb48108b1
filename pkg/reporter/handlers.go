package reporter

import (
	"fmt"
	"strings"

	"github.com/dkoosis/brief/pkg/dedup"
	"github.com/dkoosis/brief/pkg/event"
	"github.com/dkoosis/brief/pkg/format"
	"github.com/dkoosis/brief/pkg/registry"
	"github.com/dkoosis/brief/pkg/render"
)

func (r *Reporter) dispatch(ev event.Event) error {
	switch e := ev.(type) {
	case event.SuiteStart:
		return r.suiteStart()
	case event.SuiteConfiguration:
		return r.suiteConfiguration(e)
	case event.ContextStart:
		env, err := r.lookup(e.Environment)
		if err != nil {
			return err
		}
		env.PushContext(e.Name)
	case event.ContextEnd:
		env, err := r.lookup(e.Environment)
		if err != nil {
			return err
		}
		return env.PopContext(e.Name)
	case event.ContextUnsupported:
		return r.contextUnsupported(e)
	case event.Log:
		return r.logMessage(e)
	case event.TestSetUp:
		env, err := r.lookup(e.Environment)
		if err != nil {
			return err
		}
		env.BeginTest(e.Name)
	case event.TestTearDown:
		env, err := r.lookup(e.Environment)
		if err != nil {
			return err
		}
		env.EndTest()
	case event.TestSuccess:
		return r.testSuccess(e)
	case event.TestFailure:
		return r.reportException(e.Environment, e.Name, e.Error, "Failure: ", render.KindFailure)
	case event.TestTimeout:
		return r.reportException(e.Environment, e.Name, e.Error, "Timeout: ", render.KindTimeout)
	case event.TestError:
		return r.testError(e)
	case event.TestDeferred:
		return r.testDeferred(e)
	case event.UncaughtException:
		r.uncaughtException(e)
	case event.SuiteEnd:
		r.suiteEnd(e)
	default:
		r.log.Debug("unhandled event", "event", ev.Kind())
	}
	return nil
}

func (r *Reporter) lookup(env event.Environment) (*registry.Environment, error) {
	found, err := r.state.Environments.Lookup(env.UUID)
	if err != nil {
		return nil, fmt.Errorf("lookup environment: %w", err)
	}
	return found, nil
}

func (r *Reporter) suiteStart() error {
	r.state.Phase = PhaseRunning
	r.sink.RewriteLastLine("Running tests ...")
	r.ticker.Start()
	return nil
}

func (r *Reporter) suiteConfiguration(e event.SuiteConfiguration) error {
	env, err := r.state.Environments.Register(e.Environment.UUID, e.Environment.Description)
	if err != nil {
		return fmt.Errorf("configure environment: %w", err)
	}
	if e.Tests > 0 {
		r.state.ExpectedTests += e.Tests
	}
	if r.verbose {
		r.writeLine(render.KindMuted, "-> "+env.Description)
	}
	r.sink.RewriteLastLine(format.Summary(r.state.ExpectedTests, r.state.Environments.Len()))
	return nil
}

func (r *Reporter) contextUnsupported(e event.ContextUnsupported) error {
	env, err := r.lookup(e.Environment)
	if err != nil {
		return err
	}
	if !r.verbose {
		return nil
	}
	name := env.ContextualName(e.Context)
	r.writeLine(render.KindSkipped, format.Described("Skipping unsupported context "+name, env.Description))
	if len(e.Unsupported) > 0 {
		r.sink.WriteLine("    " + strings.Join(e.Unsupported, "\n    "))
	}
	r.writeStatus()
	return nil
}

// logMessage buffers a log for the running test. Logs that arrive outside a
// test are printed straight away.
func (r *Reporter) logMessage(e event.Log) error {
	env, err := r.lookup(e.Environment)
	if err != nil {
		return err
	}
	entry := registry.LogEntry{Level: e.Level, Message: e.Message}
	if _, ok := env.AppendLog(entry); ok {
		return nil
	}
	r.writeLine(render.KindLog, format.Described(format.Message(entry), env.Description))
	r.writeStatus()
	return nil
}

func (r *Reporter) testSuccess(e event.TestSuccess) error {
	env, err := r.lookup(e.Environment)
	if err != nil {
		return err
	}
	r.state.ExecutedTests++
	if !r.vverbose || len(env.Log) == 0 {
		return nil
	}
	r.sink.WriteLine(env.ContextualName(e.Name))
	r.sink.WriteLine(format.Messages(env.Log))
	r.writeStatus()
	return nil
}

// testError reports an error in full the first time its root cause is seen.
// Repeats are kept for the end-of-run report and do not advance progress.
func (r *Reporter) testError(e event.TestError) error {
	env, err := r.lookup(e.Environment)
	if err != nil {
		return err
	}

	var info dedup.Error
	if e.Error != nil {
		info = dedup.Error{Name: e.Error.Name, Message: e.Error.Message, Stack: e.Error.Stack}
	}
	outcome, group := r.state.Errors.Record(info, dedup.Occurrence{
		TestName: env.ContextualName(e.Name),
		Log:      env.Log,
	})
	if outcome == dedup.Merged {
		r.log.Debug("repeated error", "name", info.Name, "test", e.Name, "occurrences", len(group.Occurrences))
		return nil
	}
	return r.reportException(e.Environment, e.Name, e.Error, "Error: ", render.KindError)
}

func (r *Reporter) reportException(ref event.Environment, name string, info *event.ErrorInfo, label string, kind render.Kind) error {
	env, err := r.lookup(ref)
	if err != nil {
		return err
	}
	r.state.ExecutedTests++

	r.writeLine(kind, format.Described(label+env.ContextualName(name), env.Description))
	if len(env.Log) > 0 {
		r.sink.WriteLine(format.Messages(env.Log))
	}
	if info != nil {
		r.sink.WriteLine(format.Stack(*info, r.filter, format.StackOptions{MaxLines: r.stackLines}))
	}
	r.writeStatus()
	return nil
}

func (r *Reporter) testDeferred(e event.TestDeferred) error {
	env, err := r.lookup(e.Environment)
	if err != nil {
		return err
	}
	if !r.verbose {
		return nil
	}
	r.writeLine(render.KindDeferred, format.Described("Deferred: "+env.ContextualName(e.Name), env.Description))
	if e.Comment != "" {
		r.sink.WriteLine("          " + e.Comment)
	}
	r.writeStatus()
	return nil
}

// uncaughtException never fails: the environment may not have been configured
// yet, so the description carried on the event is used when it is unknown.
func (r *Reporter) uncaughtException(e event.UncaughtException) {
	desc := e.Environment.String()
	if desc == "" {
		desc = "unknown environment"
	}
	if env, err := r.state.Environments.Lookup(e.Environment.UUID); err == nil {
		desc = env.Description
	}
	r.writeLine(render.KindUncaught, "Uncaught exception in "+desc+":")
	r.sink.WriteLine("")
	r.sink.WriteLine(format.Stack(e.Error, r.filter, format.StackOptions{MaxLines: r.stackLines}))
	r.writeStatus()
}

func (r *Reporter) suiteEnd(e event.SuiteEnd) {
	r.Close()
	r.state.Phase = PhaseSummarizing

	if groups := r.state.Errors.Groups(); len(groups) > 0 {
		r.sink.WriteLine("")
		r.sink.WriteLine(format.RepeatedErrors(groups, r.filter))
	}

	outcome := r.style.Apply(render.KindOK, format.Outcome(e))
	if !e.OK {
		outcome = r.style.Apply(render.KindNotOK, format.Outcome(e))
	}
	r.sink.WriteLine(format.Tally(e.Tests, e.Assertions, r.state.Environments.Len()) + outcome)

	if e.Deferred > 0 {
		r.writeLine(render.KindDeferred, format.Pluralize(e.Deferred, "deferred test"))
	}
	if r.verbose && e.Assertions == 0 {
		r.writeLine(render.KindWarning, format.NoAssertionsWarning)
	}

	for _, env := range r.state.Environments.Unbalanced() {
		r.log.Warn("contexts left open at suite end", "environment", env.Description, "contexts", env.Contexts)
	}

	end := e
	r.state.End = &end
	r.state.Phase = PhaseDone
}
