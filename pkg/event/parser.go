package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrUnknownKind is returned by Decode for an event name it does not recognize.
	ErrUnknownKind = errors.New("unknown event kind")
	// ErrMissingKind is returned by Decode for a line without an "event" field.
	ErrMissingKind = errors.New("missing event kind")
)

// wireEvent is the NDJSON shape of every event. Fields not used by a kind are zero.
type wireEvent struct {
	Event       string          `json:"event"`
	Environment Environment     `json:"environment"`
	Name        string          `json:"name"`
	Tests       int             `json:"tests"`
	Assertions  int             `json:"assertions"`
	Failures    int             `json:"failures"`
	Errors      int             `json:"errors"`
	Timeouts    int             `json:"timeouts"`
	Deferred    int             `json:"deferred"`
	OK          bool            `json:"ok"`
	Level       string          `json:"level"`
	Message     string          `json:"message"`
	Comment     string          `json:"comment"`
	Context     json.RawMessage `json:"context"`
	Unsupported []string        `json:"unsupported"`
	Error       *ErrorInfo      `json:"error"`
	Stack       string          `json:"stack"`
	Source      string          `json:"source"`
}

// Decode parses one NDJSON line into its concrete event type.
func Decode(line []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(line, &w); err != nil {
		return nil, fmt.Errorf("decoding event: %w", err)
	}

	switch Kind(w.Event) {
	case "":
		return nil, ErrMissingKind
	case KindSuiteStart:
		return SuiteStart{}, nil
	case KindSuiteConfiguration:
		return SuiteConfiguration{Environment: w.Environment, Tests: w.Tests}, nil
	case KindContextStart:
		return ContextStart{Environment: w.Environment, Name: w.Name}, nil
	case KindContextEnd:
		return ContextEnd{Environment: w.Environment, Name: w.Name}, nil
	case KindContextUnsupported:
		name, err := contextName(w.Context)
		if err != nil {
			return nil, err
		}
		return ContextUnsupported{Environment: w.Environment, Context: name, Unsupported: w.Unsupported}, nil
	case KindLog:
		return Log{Environment: w.Environment, Level: w.Level, Message: w.Message}, nil
	case KindTestSetUp:
		return TestSetUp{Environment: w.Environment, Name: w.Name}, nil
	case KindTestTearDown:
		return TestTearDown{Environment: w.Environment, Name: w.Name}, nil
	case KindTestSuccess:
		return TestSuccess{Environment: w.Environment, Name: w.Name}, nil
	case KindTestFailure:
		return TestFailure{Environment: w.Environment, Name: w.Name, Error: w.Error}, nil
	case KindTestError:
		return TestError{Environment: w.Environment, Name: w.Name, Error: w.Error}, nil
	case KindTestTimeout:
		return TestTimeout{Environment: w.Environment, Name: w.Name, Error: w.Error}, nil
	case KindTestDeferred:
		return TestDeferred{Environment: w.Environment, Name: w.Name, Comment: w.Comment}, nil
	case KindUncaughtException:
		// Runners send the exception either flat or nested under "error".
		info := ErrorInfo{Name: w.Name, Message: w.Message, Stack: w.Stack, Source: w.Source}
		if w.Error != nil {
			info = *w.Error
		}
		return UncaughtException{Environment: w.Environment, Error: info}, nil
	case KindSuiteEnd:
		return SuiteEnd{
			Tests:      w.Tests,
			Assertions: w.Assertions,
			Failures:   w.Failures,
			Errors:     w.Errors,
			Timeouts:   w.Timeouts,
			Deferred:   w.Deferred,
			OK:         w.OK,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, w.Event)
	}
}

// contextName accepts the context either as a bare string or as {"name": ...}.
func contextName(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", fmt.Errorf("decoding context: %w", err)
	}
	return obj.Name, nil
}

// ProcessFunc receives each decoded event. A non-nil return stops the stream.
type ProcessFunc func(Event) error

// StreamStats counts input lines that did not produce an event.
type StreamStats struct {
	Malformed int // not JSON, or missing the event field
	Unknown   int // valid JSON naming an unrecognized event
}

// Stream decodes NDJSON events from r and calls fn for each one, in order.
// Stops on EOF, when fn returns an error, or when ctx is cancelled. Lines that
// are not events are counted and skipped.
func Stream(ctx context.Context, r io.Reader, fn ProcessFunc) (StreamStats, error) {
	var stats StreamStats
	err := ScanLines(ctx, r, func(line []byte) error {
		ev, err := Decode(line)
		if err != nil {
			if errors.Is(err, ErrUnknownKind) {
				stats.Unknown++
			} else {
				stats.Malformed++
			}
			return nil
		}
		return fn(ev)
	})
	return stats, err
}

// Reader adapts an NDJSON byte stream into an event source.
type Reader struct {
	r     io.Reader
	stats StreamStats
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Events streams every event in r to fn. See Stream.
func (rd *Reader) Events(ctx context.Context, fn ProcessFunc) error {
	stats, err := Stream(ctx, rd.r, fn)
	rd.stats = stats
	return err
}

// Stats reports the skipped-line counts from the last Events call.
func (rd *Reader) Stats() StreamStats {
	return rd.stats
}

// Slice is an in-memory event source.
type Slice []Event

// Events delivers the events in order.
func (s Slice) Events(ctx context.Context, fn ProcessFunc) error {
	for _, ev := range s {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
	return nil
}
