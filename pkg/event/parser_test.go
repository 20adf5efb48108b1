package event

import (
	"context"
	"errors"
	"io"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_TestErrorCarriesErrorPayload(t *testing.T) {
	t.Parallel()

	line := `{"event":"test:error","environment":{"uuid":"e1","description":"Firefox"},"name":"t1",` +
		`"error":{"name":"TypeError","message":"x is undefined","stack":"TypeError: x\n    at a.js:1"}}`

	ev, err := Decode([]byte(line))
	require.NoError(t, err)

	te, ok := ev.(TestError)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, KindTestError, te.Kind())
	assert.Equal(t, "e1", te.Environment.UUID)
	assert.Equal(t, "t1", te.Name)
	require.NotNil(t, te.Error)
	assert.Equal(t, "TypeError", te.Error.Name)
	assert.Equal(t, "x is undefined", te.Error.Message)
}

func TestDecode_UncaughtExceptionFlatOrNested(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
	}{
		{"flat", `{"event":"uncaughtException","environment":{"uuid":"e1"},"name":"Error","message":"boom","stack":"Error: boom"}`},
		{"nested", `{"event":"uncaughtException","environment":{"uuid":"e1"},"error":{"name":"Error","message":"boom","stack":"Error: boom"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Decode([]byte(tt.line))
			require.NoError(t, err)
			ue, ok := ev.(UncaughtException)
			require.True(t, ok)
			assert.Equal(t, ErrorInfo{Name: "Error", Message: "boom", Stack: "Error: boom"}, ue.Error)
		})
	}
}

func TestDecode_ContextUnsupportedAcceptsObjectOrString(t *testing.T) {
	t.Parallel()

	for _, ctxJSON := range []string{`{"name":"DOM"}`, `"DOM"`} {
		line := `{"event":"context:unsupported","environment":{"uuid":"e1"},"context":` + ctxJSON +
			`,"unsupported":["no document"]}`
		ev, err := Decode([]byte(line))
		require.NoError(t, err)
		cu := ev.(ContextUnsupported)
		assert.Equal(t, "DOM", cu.Context)
		assert.Equal(t, []string{"no document"}, cu.Unsupported)
	}
}

func TestDecode_SuiteEnd(t *testing.T) {
	t.Parallel()

	ev, err := Decode([]byte(`{"event":"suite:end","tests":10,"assertions":15,"ok":true}`))
	require.NoError(t, err)
	assert.Equal(t, SuiteEnd{Tests: 10, Assertions: 15, OK: true}, ev)
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte(`{"event":"test:exploded"}`))
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = Decode([]byte(`{"name":"x"}`))
	assert.ErrorIs(t, err, ErrMissingKind)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestEnvironment_StringFallsBackToUUID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Chrome", Environment{UUID: "u", Description: "Chrome"}.String())
	assert.Equal(t, "u", Environment{UUID: "u"}.String())
}

func TestStream_CountsSkippedLines(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		`{"event":"suite:start"}`,
		`garbage`,
		``,
		`{"event":"test:exploded"}`,
		`{"event":"suite:end","ok":true}`,
	}, "\n") + "\n"

	var kinds []Kind
	stats, err := Stream(context.Background(), strings.NewReader(input), func(e Event) error {
		kinds = append(kinds, e.Kind())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []Kind{KindSuiteStart, KindSuiteEnd}, kinds)
	assert.Equal(t, StreamStats{Malformed: 1, Unknown: 1}, stats)
}

func TestStream_StopsWhenCallbackFails(t *testing.T) {
	t.Parallel()

	input := `{"event":"suite:start"}` + "\n" + `{"event":"suite:end"}` + "\n"
	stop := errors.New("stop")

	var n int
	_, err := Stream(context.Background(), strings.NewReader(input), func(Event) error {
		n++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, n)
}

// Not parallel: it counts goroutines.
func TestScanLines_ReleasesScannerWhenCallbackFails(t *testing.T) {
	before := runtime.NumGoroutine()
	for range 50 {
		err := ScanLines(context.Background(), strings.NewReader("a\nb\nc\nd\n"), func([]byte) error {
			return io.ErrUnexpectedEOF
		})
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	}

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+2
	}, 2*time.Second, 10*time.Millisecond, "scanner goroutines still running")
}

func TestStream_CancelledContext(t *testing.T) {
	t.Parallel()

	// A pipe with no writer never yields a line, so only cancellation can end the stream.
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Stream(ctx, pr, func(Event) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReader_RecordsStats(t *testing.T) {
	t.Parallel()

	rd := NewReader(strings.NewReader("nope\n" + `{"event":"suite:start"}` + "\n"))
	require.NoError(t, rd.Events(context.Background(), func(Event) error { return nil }))
	assert.Equal(t, 1, rd.Stats().Malformed)
}

func TestSlice_DeliversInOrder(t *testing.T) {
	t.Parallel()

	src := Slice{SuiteStart{}, SuiteEnd{OK: true}}
	var got []Kind
	require.NoError(t, src.Events(context.Background(), func(e Event) error {
		got = append(got, e.Kind())
		return nil
	}))
	assert.Equal(t, []Kind{KindSuiteStart, KindSuiteEnd}, got)
}
