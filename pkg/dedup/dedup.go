// Package dedup groups test errors that share a root cause.
//
// A typo in a central part of the code under test tends to make many tests
// throw the same exception. Such errors have the same name and message and
// share the first line of their stack trace. Grouping them lets the reporter
// print the details once and list the affected tests at the end of the run.
//
// Errors without a stack trace have no reliable signature and are never merged.
package dedup

import (
	"slices"
	"strings"

	"github.com/dkoosis/brief/pkg/registry"
)

// Error is the part of an error that identifies its root cause.
type Error struct {
	Name    string
	Message string
	Stack   string
}

// Occurrence records one test hit by an error, with the log it produced.
type Occurrence struct {
	TestName string
	Log      []registry.LogEntry
}

// Group is a set of errors judged to share a root cause.
type Group struct {
	Name        string
	Message     string
	Stack       string
	Occurrences []Occurrence
}

// Outcome reports what Record did with an error.
type Outcome int

const (
	// New means the error started a group; the caller shows its details now.
	New Outcome = iota
	// Merged means the error joined an existing group; only the occurrence is kept.
	Merged
)

func (o Outcome) String() string {
	if o == Merged {
		return "merged"
	}
	return "new"
}

type signature struct {
	name, message, firstLine string
}

// Deduplicator accumulates error groups in first-seen order.
type Deduplicator struct {
	groups []*Group
	index  map[signature]*Group
}

// NewDeduplicator returns an empty Deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{index: make(map[signature]*Group)}
}

// FirstStackLine returns the first line of stack.
func FirstStackLine(stack string) string {
	line, _, _ := strings.Cut(stack, "\n")
	return line
}

// Record files err under an existing group when one matches its signature,
// otherwise starts a new group.
func (d *Deduplicator) Record(err Error, occ Occurrence) (Outcome, *Group) {
	occ.Log = slices.Clone(occ.Log)

	if err.Stack == "" {
		// Unindexed: nothing later can match it.
		g := &Group{Name: err.Name, Message: err.Message, Occurrences: []Occurrence{occ}}
		d.groups = append(d.groups, g)
		return New, g
	}

	sig := signature{name: err.Name, message: err.Message, firstLine: FirstStackLine(err.Stack)}
	if g, ok := d.index[sig]; ok {
		g.Occurrences = append(g.Occurrences, occ)
		return Merged, g
	}

	g := &Group{Name: err.Name, Message: err.Message, Stack: err.Stack, Occurrences: []Occurrence{occ}}
	d.groups = append(d.groups, g)
	d.index[sig] = g
	return New, g
}

// Groups returns every group in first-seen order.
func (d *Deduplicator) Groups() []*Group {
	return d.groups
}

// Len returns the number of groups.
func (d *Deduplicator) Len() int {
	return len(d.groups)
}

// Repeats returns the number of occurrences that were merged into an earlier group.
func (d *Deduplicator) Repeats() int {
	var n int
	for _, g := range d.groups {
		n += len(g.Occurrences) - 1
	}
	return n
}
