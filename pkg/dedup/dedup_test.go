package dedup

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/brief/pkg/registry"
)

const typeErrStack = "TypeError: x is undefined\n    at lib/util.js:12\n    at test/a.js:3"

func TestRecord_SameSignatureMerges(t *testing.T) {
	t.Parallel()

	d := NewDeduplicator()
	e := Error{Name: "TypeError", Message: "x is undefined", Stack: typeErrStack}

	outcome, first := d.Record(e, Occurrence{TestName: "t1"})
	assert.Equal(t, New, outcome)

	// Same first line, different call sites below it.
	e2 := e
	e2.Stack = "TypeError: x is undefined\n    at lib/other.js:99"
	outcome, g := d.Record(e2, Occurrence{TestName: "t2"})
	assert.Equal(t, Merged, outcome)
	assert.Same(t, first, g)

	require.Equal(t, 1, d.Len())
	assert.Equal(t, []string{"t1", "t2"}, testNames(d.Groups()[0]))
	assert.Equal(t, 1, d.Repeats())
}

func TestRecord_ManyRepeatsOneGroup(t *testing.T) {
	t.Parallel()

	d := NewDeduplicator()
	e := Error{Name: "TypeError", Message: "x is undefined", Stack: typeErrStack}
	for i := 0; i < 25; i++ {
		d.Record(e, Occurrence{TestName: fmt.Sprintf("t%d", i)})
	}
	require.Equal(t, 1, d.Len())
	assert.Len(t, d.Groups()[0].Occurrences, 25)
}

func TestRecord_DifferentSignaturesStaySeparate(t *testing.T) {
	t.Parallel()

	base := Error{Name: "TypeError", Message: "x is undefined", Stack: typeErrStack}
	tests := []struct {
		name  string
		other Error
	}{
		{"different name", Error{Name: "ReferenceError", Message: base.Message, Stack: base.Stack}},
		{"different message", Error{Name: base.Name, Message: "y is undefined", Stack: base.Stack}},
		{"different first line", Error{Name: base.Name, Message: base.Message, Stack: "at somewhere else"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDeduplicator()
			d.Record(base, Occurrence{TestName: "t1"})
			outcome, _ := d.Record(tt.other, Occurrence{TestName: "t2"})
			assert.Equal(t, New, outcome)
			assert.Equal(t, 2, d.Len())
		})
	}
}

func TestRecord_NoStackNeverMerges(t *testing.T) {
	t.Parallel()

	d := NewDeduplicator()
	e := Error{Name: "Error", Message: "boom"}
	for i := 0; i < 3; i++ {
		outcome, _ := d.Record(e, Occurrence{TestName: fmt.Sprintf("t%d", i)})
		assert.Equal(t, New, outcome)
	}
	assert.Equal(t, 3, d.Len())
	assert.Equal(t, 0, d.Repeats())
}

func TestRecord_StacklessGroupNeverAbsorbsLaterErrors(t *testing.T) {
	t.Parallel()

	d := NewDeduplicator()
	d.Record(Error{Name: "Error", Message: "boom"}, Occurrence{TestName: "t1"})

	// First line is empty, matching the missing stack of the earlier error.
	outcome, _ := d.Record(Error{Name: "Error", Message: "boom", Stack: "\n    at a.js:1"}, Occurrence{TestName: "t2"})
	assert.Equal(t, New, outcome)
}

func TestRecord_CopiesLog(t *testing.T) {
	t.Parallel()

	d := NewDeduplicator()
	log := []registry.LogEntry{{Level: "log", Message: "a"}}
	_, g := d.Record(Error{Name: "E", Stack: "E"}, Occurrence{TestName: "t1", Log: log})

	log[0].Message = "mutated"
	assert.Equal(t, "a", g.Occurrences[0].Log[0].Message)
}

func TestFirstStackLine(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "TypeError: x is undefined", FirstStackLine(typeErrStack))
	assert.Equal(t, "single", FirstStackLine("single"))
	assert.Equal(t, "", FirstStackLine(""))
}

func TestOutcome_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "new", New.String())
	assert.Equal(t, "merged", Merged.String())
}

func testNames(g *Group) []string {
	var out []string
	for _, o := range g.Occurrences {
		out = append(out, o.TestName)
	}
	return out
}
