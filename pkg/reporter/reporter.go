// Package reporter is the live "brief" test reporter. It consumes runner
// lifecycle events, tracks per-environment state, groups repeated errors, and
// writes a scrolling report with a self-refreshing status line.
package reporter

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/dkoosis/brief/pkg/event"
	"github.com/dkoosis/brief/pkg/format"
	"github.com/dkoosis/brief/pkg/render"
	"github.com/dkoosis/brief/pkg/stackfilter"
	"github.com/dkoosis/brief/pkg/stream"
)

// Verbosity levels.
const (
	VerbosityInfo  = "info"
	VerbosityDebug = "debug"
)

// Options configures a Reporter. The zero value writes plain text to stdout.
type Options struct {
	// Out receives the report when Sink is nil. Defaults to os.Stdout.
	Out io.Writer
	// Sink overrides the terminal writer built from Out.
	Sink stream.StatusSink
	// Width is the terminal width used when building the sink from Out.
	Width int
	// NonInteractive disables cursor movement in the sink built from Out.
	NonInteractive bool

	// Cwd is made relative in stack traces when StackFilter is nil.
	Cwd string
	// StackFilter trims stack traces. Nil with an empty Cwd means no filtering.
	StackFilter format.StackFilter
	// StackLines caps the stack lines shown per error; 0 shows all.
	StackLines int

	// Verbosity is "", "info", or "debug".
	Verbosity string

	Color  bool
	Bright bool
	// Style overrides the theme chosen by Color and Bright.
	Style render.StyleFunc
	// ProgressBar, when set, is appended to the status line.
	ProgressBar func(ratio float64) string

	// Scheduler drives the progress ticker. Defaults to wall-clock time.
	Scheduler stream.Scheduler
	Logger    *slog.Logger
}

// Source delivers runner events until it is exhausted or fn fails.
type Source interface {
	Events(ctx context.Context, fn event.ProcessFunc) error
}

// Reporter renders one run. Handle and ticker redraws are serialised by mu.
type Reporter struct {
	mu sync.Mutex

	state  *State
	sink   stream.StatusSink
	style  render.StyleFunc
	filter format.StackFilter
	bar    func(float64) string
	ticker *stream.Ticker
	log    *slog.Logger

	verbose    bool
	vverbose   bool
	stackLines int
}

// Create builds a Reporter from opt.
func Create(opt Options) *Reporter {
	sink := opt.Sink
	if sink == nil {
		out := opt.Out
		if out == nil {
			out = os.Stdout
		}
		sink = stream.NewTermWriter(out, opt.Width, !opt.NonInteractive)
	}

	style := opt.Style
	if style == nil {
		style = render.Select(opt.Color, opt.Bright).Style()
	}

	filter := opt.StackFilter
	if filter == nil && opt.Cwd != "" {
		filter = stackfilter.New(opt.Cwd)
	}

	log := opt.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	r := &Reporter{
		state:      NewState(),
		sink:       sink,
		style:      style,
		filter:     filter,
		bar:        opt.ProgressBar,
		log:        log,
		verbose:    opt.Verbosity == VerbosityInfo || opt.Verbosity == VerbosityDebug,
		vverbose:   opt.Verbosity == VerbosityDebug,
		stackLines: opt.StackLines,
	}
	r.ticker = stream.NewTicker(opt.Scheduler, stream.InitialDelay, stream.Interval, r.printProgress)
	return r
}

// Listen consumes src until it is exhausted, a protocol violation occurs, or
// ctx is cancelled. The progress ticker is always stopped on return.
func (r *Reporter) Listen(ctx context.Context, src Source) error {
	defer r.Close()
	err := src.Events(ctx, r.Handle)
	if err != nil {
		r.abandon()
	}
	return err
}

// abandon erases the status line of a run that stopped before suite:end, so
// the caller's diagnostics start on a clean line.
func (r *Reporter) abandon() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.sink.(interface{ ClearStatus() }); ok {
		c.ClearStatus()
		_ = r.sink.Flush()
	}
}

// Handle applies one event. It returns an error only for protocol violations,
// after which the report cannot be trusted.
func (r *Reporter) Handle(ev event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.Phase == PhaseDone {
		r.log.Debug("event after suite end ignored", "event", ev.Kind())
		return nil
	}
	if r.state.Phase == PhaseIdle {
		if _, ok := ev.(event.SuiteStart); !ok {
			r.log.Debug("run began without suite:start", "event", ev.Kind())
			r.state.Phase = PhaseRunning
		}
	}

	err := r.dispatch(ev)
	if ferr := r.sink.Flush(); ferr != nil {
		r.log.Debug("output write failed", "err", ferr)
	}
	return err
}

// Close stops the progress ticker. It is safe to call more than once.
func (r *Reporter) Close() {
	if r.ticker.Stop() {
		r.log.Debug("progress ticker stopped")
	}
}

// Snapshot returns the current counters.
func (r *Reporter) Snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.snapshot()
}

// ExitCode is 0 for a passing run, 1 for a failing one, and 2 when the run
// never reached suite:end.
func (r *Reporter) ExitCode() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.state.End == nil:
		return 2
	case !r.state.End.OK:
		return 1
	default:
		return 0
	}
}

// printProgress is the ticker callback.
func (r *Reporter) printProgress() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state.Phase != PhaseRunning {
		return
	}
	r.writeStatus()
	_ = r.sink.Flush()
}

func (r *Reporter) status() string {
	s := r.state.Status()
	if r.bar != nil {
		if ratio := r.state.Ratio(); ratio >= 0 {
			s += " " + r.bar(ratio)
		}
	}
	return s
}

func (r *Reporter) writeStatus() {
	r.sink.RewriteLastLine(r.status())
}

func (r *Reporter) writeLine(kind render.Kind, s string) {
	r.sink.WriteLine(r.style.Apply(kind, s))
}
