package testjson

import (
	"context"
	"encoding/json"
	"io"

	"github.com/dkoosis/brief/pkg/event"
)

// Source reads `go test -json` output and delivers runner events.
type Source struct {
	r      io.Reader
	stats  event.StreamStats
	totals Totals
}

// NewSource returns a Source over r.
func NewSource(r io.Reader) *Source {
	return &Source{r: r}
}

// Events translates every line of the stream and closes the run at EOF.
func (s *Source) Events(ctx context.Context, fn event.ProcessFunc) error {
	tr := NewTranslator(fn)
	defer func() { s.totals = tr.Totals() }()

	err := event.ScanLines(ctx, s.r, func(line []byte) error {
		var e TestEvent
		if err := json.Unmarshal(line, &e); err != nil || e.Action == "" {
			s.stats.Malformed++
			return nil
		}
		return tr.Handle(e)
	})
	if err != nil {
		return err
	}
	return tr.Finish()
}

// Stats reports lines skipped by the last Events call.
func (s *Source) Stats() event.StreamStats {
	return s.stats
}

// Totals reports the tallies of the last Events call.
func (s *Source) Totals() Totals {
	return s.totals
}
