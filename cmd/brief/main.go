// brief renders a test runner's event stream as a compact live report.
//
// Usage:
//
//	runner --reporter=ndjson | brief
//	brief --verbosity info --stack-lines 5 < events.ndjson
//	go test -json ./... | brief
//	brief demo
//	brief version
//
// Input is newline-delimited JSON, one runner event per line, or the output of
// go test -json (detected from the first line, or forced with --input).
// Failures, errors, and timeouts are printed as they happen; errors that share
// a root cause are printed once and listed together at the end. A status line at the
// bottom shows progress while the run is in flight.
//
// Exit codes: 0 all tests passed, 1 the suite failed, 2 bad input or usage,
// 130 interrupted.
package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"golang.org/x/term"

	"github.com/dkoosis/brief/internal/config"
	"github.com/dkoosis/brief/internal/detect"
	"github.com/dkoosis/brief/internal/logging"
	"github.com/dkoosis/brief/internal/metrics"
	"github.com/dkoosis/brief/internal/version"
	"github.com/dkoosis/brief/pkg/event"
	"github.com/dkoosis/brief/pkg/render"
	"github.com/dkoosis/brief/pkg/reporter"
	"github.com/dkoosis/brief/pkg/stackfilter"
	"github.com/dkoosis/brief/pkg/testjson"
)

const exitInterrupted = 130

// inputSource is a Source that decodes bytes and counts what it skipped.
type inputSource interface {
	reporter.Source
	Stats() event.StreamStats
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	// Check for subcommands before flag parsing
	mode := "stdin"
	if len(args) > 0 {
		switch args[0] {
		case "version":
			fmt.Fprintln(stdout, version.String())
			return 0
		case "demo":
			mode = "demo"
			args = args[1:]
		}
	}

	fs := flag.NewFlagSet("brief", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var flags config.CliFlags
	fs.StringVar(&flags.ConfigPath, "config", "", "Path to a .brief.yaml file")
	fs.StringVar(&flags.Verbosity, "verbosity", "", "Verbosity: \"\", info, debug")
	fs.StringVar(&flags.ThemeName, "theme", "", "Theme: default, bright, mono")
	fs.BoolVar(&flags.NoColor, "no-color", false, "Disable colors")
	fs.BoolVar(&flags.Bright, "bright", false, "Use high-intensity colors")
	fs.BoolVar(&flags.CI, "ci", false, "CI mode: no colors, no cursor movement")
	fs.BoolVar(&flags.Debug, "debug", false, "Log diagnostics to stderr")
	fs.IntVar(&flags.StackLines, "stack-lines", 0, "Stack lines per error (0 = all)")
	fs.StringVar(&flags.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file")
	fs.BoolVar(&flags.ProgressBar, "progress-bar", false, "Show a progress bar in the status line")
	fs.StringVar(&flags.LogFormat, "log-format", "", "Diagnostic log format: text, json")
	inputFlag := fs.String("input", "auto", "Input format: auto, events, gotest")
	delay := fs.Duration("delay", 40*time.Millisecond, "Pause between events in demo mode")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	format, ok := detect.Parse(*inputFlag)
	if !ok {
		fmt.Fprintf(stderr, "brief: unknown input format %q (expected auto, events, gotest)\n", *inputFlag)
		return 2
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "verbosity":
			flags.VerbositySet = true
		case "no-color":
			flags.NoColorSet = true
		case "bright":
			flags.BrightSet = true
		case "ci":
			flags.CISet = true
		case "debug":
			flags.DebugSet = true
		case "stack-lines":
			flags.StackLinesSet = true
		case "metrics-file":
			flags.MetricsFileSet = true
		case "progress-bar":
			flags.ProgressBarSet = true
		}
	})

	bootLog := logging.New(logging.Config{
		Level:  debugLevel(flags.Debug || os.Getenv("BRIEF_DEBUG") != ""),
		Format: flags.LogFormat,
		Output: stderr,
	})
	cfg, err := config.ResolveConfig(flags, bootLog)
	if err != nil {
		fmt.Fprintf(stderr, "brief: %v\n", err)
		return 2
	}
	log := logging.New(logging.Config{Level: debugLevel(cfg.Debug), Format: cfg.LogFormat, Output: stderr})
	log.Debug("config resolved",
		"verbosity", cfg.Verbosity, "verbosity_source", cfg.VerbositySource,
		"theme", cfg.ThemeName(), "theme_source", cfg.ThemeSource,
		"ci", cfg.CI, "ci_source", cfg.CISource)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if mode == "demo" {
		return report(ctx, newDemoSource(*delay), nil, cfg, log, stdout, stderr)
	}

	// Close stdin on cancel to unblock the scanner goroutine.
	// bufio.Reader doesn't implement io.Closer, so the scanner can't close it itself.
	if c, ok := stdin.(io.Closer); ok {
		stopClose := context.AfterFunc(ctx, func() { _ = c.Close() })
		defer stopClose()
	}
	br := bufio.NewReaderSize(stdin, 64*1024)
	first := peekLine(br)
	if len(bytes.TrimSpace(first)) == 0 && br.Buffered() == 0 {
		fmt.Fprintln(stderr, "brief: no input on stdin")
		return 2
	}
	if format == detect.Unknown {
		format = detect.Sniff(first)
	}
	log.Debug("input format", "format", format)

	var input inputSource
	if format == detect.GoTestJSON {
		input = testjson.NewSource(br)
	} else {
		input = event.NewReader(br)
	}
	return report(ctx, input, input, cfg, log, stdout, stderr)
}

// peekLine returns the first line of br without consuming it. It reads no
// further than the first newline, so a live stream is not held back.
func peekLine(br *bufio.Reader) []byte {
	want := 1
	for {
		data, err := br.Peek(want)
		if buffered := br.Buffered(); buffered > len(data) {
			data, _ = br.Peek(buffered)
		}
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			return data[:i+1]
		}
		if err != nil {
			return data
		}
		want = len(data) + 1
	}
}

// report runs the reporter over src and maps the result to an exit code.
func report(ctx context.Context, src reporter.Source, input inputSource, cfg *config.ResolvedConfig,
	log *slog.Logger, stdout, stderr io.Writer,
) int {
	interactive := isTTYWriter(stdout) && !cfg.CI
	width, _ := termSize(stdout)
	theme := render.ThemeByName(cfg.ThemeName())

	cwd, _ := os.Getwd()
	opts := reporter.Options{
		Out:            stdout,
		Width:          width,
		NonInteractive: !interactive,
		StackFilter:    stackfilter.New(cwd, cfg.StackFilters...),
		StackLines:     cfg.StackLines,
		Verbosity:      cfg.Verbosity,
		Style:          theme.Style(),
		Logger:         log,
	}
	if cfg.ProgressBar {
		opts.ProgressBar = theme.ProgressBar(render.DefaultBarWidth)
	}
	r := reporter.Create(opts)

	started := time.Now()
	err := r.Listen(ctx, src)

	var stats event.StreamStats
	if input != nil {
		stats = input.Stats()
		if stats.Malformed > 0 {
			log.Warn("malformed input lines skipped", "count", stats.Malformed)
		}
		if stats.Unknown > 0 {
			log.Debug("unknown events skipped", "count", stats.Unknown)
		}
	}
	if gt, ok := input.(*testjson.Source); ok {
		tot := gt.Totals()
		log.Debug("go test totals",
			"passed", tot.Passed, "failed", tot.Failed, "panicked", tot.Panicked,
			"timed_out", tot.TimedOut, "skipped", tot.Skipped, "build_failures", tot.Builds)
	}

	if cfg.MetricsFile != "" {
		c := metrics.NewCollector()
		c.Observe(r.Snapshot(), stats, time.Since(started))
		if werr := c.WriteTextfile(cfg.MetricsFile); werr != nil {
			log.Error("metrics not written", "path", cfg.MetricsFile, "err", werr)
		}
	}

	switch {
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(stderr, "brief: interrupted")
		return exitInterrupted
	case err != nil:
		fmt.Fprintf(stderr, "brief: %v\n", err)
		return 2
	}

	code := r.ExitCode()
	if code == 2 {
		fmt.Fprintln(stderr, "brief: event stream ended before suite:end")
	}
	return code
}

func debugLevel(debug bool) string {
	if debug {
		return "debug"
	}
	return "warn"
}

// isTTYWriter reports whether w is a terminal.
func isTTYWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// termSize returns the terminal dimensions for w, defaulting to 80x24.
func termSize(w io.Writer) (width, height int) {
	width, height = 80, 24
	if f, ok := w.(*os.File); ok {
		if tw, th, err := term.GetSize(int(f.Fd())); err == nil {
			if tw > 0 {
				width = tw
			}
			if th > 0 {
				height = th
			}
		}
	}
	return width, height
}
