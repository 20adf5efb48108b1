package reporter

import (
	"github.com/dkoosis/brief/pkg/dedup"
	"github.com/dkoosis/brief/pkg/event"
	"github.com/dkoosis/brief/pkg/format"
	"github.com/dkoosis/brief/pkg/registry"
)

// Phase is the reporter's position in the run lifecycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseSummarizing
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseRunning:
		return "running"
	case PhaseSummarizing:
		return "summarizing"
	case PhaseDone:
		return "done"
	default:
		return "idle"
	}
}

// State is everything a report accumulates over one run. A fresh State is
// built for every reporter, so concurrent reports never share counters.
type State struct {
	Phase         Phase
	Environments  *registry.Registry
	Errors        *dedup.Deduplicator
	ExpectedTests int
	ExecutedTests int
	End           *event.SuiteEnd
}

// NewState returns the state of a run that has not started.
func NewState() *State {
	return &State{
		Environments: registry.New(),
		Errors:       dedup.NewDeduplicator(),
	}
}

// Status is the live status line for the current counters.
func (s *State) Status() string {
	return format.Status(s.ExpectedTests, s.ExecutedTests, s.Environments.Len())
}

// Ratio is the completed fraction of expected tests, or -1 when unknown.
func (s *State) Ratio() float64 {
	if s.ExpectedTests == 0 {
		return -1
	}
	return float64(s.ExecutedTests) / float64(s.ExpectedTests)
}

// Stats is a read-only snapshot of a report.
type Stats struct {
	Phase          Phase
	Environments   int
	ExpectedTests  int
	ExecutedTests  int
	ErrorGroups    int
	RepeatedErrors int
	End            *event.SuiteEnd
}

func (s *State) snapshot() Stats {
	st := Stats{
		Phase:          s.Phase,
		Environments:   s.Environments.Len(),
		ExpectedTests:  s.ExpectedTests,
		ExecutedTests:  s.ExecutedTests,
		ErrorGroups:    s.Errors.Len(),
		RepeatedErrors: s.Errors.Repeats(),
	}
	if s.End != nil {
		end := *s.End
		st.End = &end
	}
	return st
}
