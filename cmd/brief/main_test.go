package main

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- End-to-end tests ---
// These exercise the full pipeline: stdin → decode → reporter → stdout

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"BRIEF_VERBOSITY", "BRIEF_THEME", "BRIEF_NO_COLOR", "NO_COLOR",
		"BRIEF_CI", "CI", "BRIEF_DEBUG", "BRIEF_LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func ndjson(lines ...string) *strings.Reader {
	return strings.NewReader(strings.Join(lines, "\n") + "\n")
}

const (
	lineStart  = `{"event":"suite:start"}`
	lineConfig = `{"event":"suite:configuration","environment":{"uuid":"ff","description":"Firefox 3.6 on Linux"},"tests":2}`
)

func TestRun_PassingSuite(t *testing.T) {
	isolateEnv(t)

	var stdout, stderr bytes.Buffer
	code := run(nil, ndjson(
		lineStart,
		lineConfig,
		`{"event":"test:success","environment":{"uuid":"ff"},"name":"a"}`,
		`{"event":"test:success","environment":{"uuid":"ff"},"name":"b"}`,
		`{"event":"suite:end","tests":2,"assertions":3,"ok":true}`,
	), &stdout, &stderr)

	assert.Equal(t, 0, code, stderr.String())
	out := stdout.String()
	assert.True(t, strings.HasSuffix(out, "2 tests, 3 assertions, 1 environment ... OK\n"), out)
	assert.NotContains(t, out, "\033[")
}

func TestRun_FailingSuite(t *testing.T) {
	isolateEnv(t)

	var stdout, stderr bytes.Buffer
	code := run([]string{"--stack-lines", "1"}, ndjson(
		lineStart,
		lineConfig,
		`{"event":"context:start","environment":{"uuid":"ff"},"name":"Array"}`,
		`{"event":"test:failure","environment":{"uuid":"ff"},"name":"sorts","error":{"name":"AssertionError","message":"expected [1,2]","stack":"at a.js:1\nat b.js:2"}}`,
		`{"event":"context:end","environment":{"uuid":"ff"},"name":"Array"}`,
		`{"event":"suite:end","tests":1,"assertions":1,"failures":1,"ok":false}`,
	), &stdout, &stderr)

	assert.Equal(t, 1, code)
	out := stdout.String()
	assert.Contains(t, out, "Failure: Array sorts (Firefox 3.6 on Linux)\n  expected [1,2]\n    at a.js:1\n")
	assert.NotContains(t, out, "b.js")
	assert.Contains(t, out, "1 test, 1 assertion, 1 environment ... 1 failure")
}

func TestRun_ProtocolViolation(t *testing.T) {
	isolateEnv(t)

	var stdout, stderr bytes.Buffer
	code := run(nil, ndjson(
		lineStart,
		`{"event":"test:success","environment":{"uuid":"nope"},"name":"a"}`,
		`{"event":"suite:end","tests":1,"ok":true}`,
	), &stdout, &stderr)

	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "unknown environment")
	assert.NotContains(t, stdout.String(), "OK")
}

func TestRun_TruncatedStream(t *testing.T) {
	isolateEnv(t)

	var stdout, stderr bytes.Buffer
	code := run(nil, ndjson(lineStart, lineConfig), &stdout, &stderr)

	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "ended before suite:end")
}

func TestRun_SkipsMalformedLines(t *testing.T) {
	isolateEnv(t)

	var stdout, stderr bytes.Buffer
	code := run(nil, ndjson(
		lineStart,
		"not json",
		`{"event":"test:retry"}`,
		lineConfig,
		`{"event":"suite:end","tests":0,"ok":true}`,
	), &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Contains(t, stderr.String(), "malformed input lines skipped")
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"version"}, strings.NewReader(""), &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "brief dev")
}

func TestRun_Demo(t *testing.T) {
	isolateEnv(t)

	var stdout, stderr bytes.Buffer
	code := run([]string{"demo", "--delay", "0", "--verbosity", "info"}, strings.NewReader(""), &stdout, &stderr)

	assert.Equal(t, 1, code, stderr.String())
	out := stdout.String()
	assert.Contains(t, out, "-> Firefox 3.6 on Linux")
	assert.Contains(t, out, "Error: Sample test should fail when test throws (Firefox 3.6 on Linux)")
	assert.NotContains(t, out, "Error: Sample test should fail when test throws (Chrome 6 on Linux)")
	assert.Contains(t, out, "Repeated exceptions:\n  Sample test should fail when test throws\n    [LOG] about to throw\n  Sample test should fail when test throws\n")
	assert.Contains(t, out, "Deferred: Sample test context inside here should do it more (Chrome 6 on Linux)")
	assert.Contains(t, out, "2 deferred tests")
}

func TestRun_MetricsFile(t *testing.T) {
	isolateEnv(t)

	path := filepath.Join(t.TempDir(), "brief.prom")
	var stdout, stderr bytes.Buffer
	code := run([]string{"--metrics-file", path}, ndjson(
		lineStart,
		lineConfig,
		`{"event":"test:success","environment":{"uuid":"ff"},"name":"a"}`,
		`{"event":"suite:end","tests":1,"assertions":1,"ok":true}`,
	), &stdout, &stderr)
	require.Equal(t, 0, code)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "brief_executed_tests 1")
	assert.Contains(t, string(data), "brief_expected_tests 2")
}

func TestRun_BadUsage(t *testing.T) {
	isolateEnv(t)

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run([]string{"--no-such-flag"}, strings.NewReader(""), &stdout, &stderr))

	stderr.Reset()
	assert.Equal(t, 2, run([]string{"--verbosity", "loud"}, strings.NewReader(""), &stdout, &stderr))
	assert.Contains(t, stderr.String(), "invalid verbosity")
}

func TestRun_GoTestJSON(t *testing.T) {
	isolateEnv(t)

	var stdout, stderr bytes.Buffer
	code := run(nil, ndjson(
		`{"Action":"start","Package":"example.com/p"}`,
		`{"Action":"run","Package":"example.com/p","Test":"TestOK"}`,
		`{"Action":"pass","Package":"example.com/p","Test":"TestOK"}`,
		`{"Action":"run","Package":"example.com/p","Test":"TestSum"}`,
		`{"Action":"output","Package":"example.com/p","Test":"TestSum","Output":"    sum_test.go:14: got 3, want 4\n"}`,
		`{"Action":"fail","Package":"example.com/p","Test":"TestSum"}`,
		`{"Action":"fail","Package":"example.com/p"}`,
	), &stdout, &stderr)

	assert.Equal(t, 1, code, stderr.String())
	out := stdout.String()
	assert.Contains(t, out, "Failure: TestSum (example.com/p)\n  sum_test.go:14: got 3, want 4\n")
	assert.Contains(t, out, "2 tests, 2 assertions, 1 environment ... 1 failure")
}

func TestRun_ForcedInputFormat(t *testing.T) {
	isolateEnv(t)

	var stdout, stderr bytes.Buffer
	code := run([]string{"--input", "events"}, ndjson(
		`{"Action":"start","Package":"example.com/p"}`,
	), &stdout, &stderr)
	assert.Equal(t, 2, code)

	stderr.Reset()
	assert.Equal(t, 2, run([]string{"--input", "sarif"}, ndjson(lineStart), &stdout, &stderr))
	assert.Contains(t, stderr.String(), "unknown input format")
}

func TestRun_EmptyInput(t *testing.T) {
	isolateEnv(t)

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(nil, strings.NewReader(""), &stdout, &stderr))
	assert.Contains(t, stderr.String(), "no input on stdin")
}

func TestPeekLine(t *testing.T) {
	br := bufio.NewReaderSize(strings.NewReader("first\nsecond\n"), 16)
	assert.Equal(t, "first\n", string(peekLine(br)))

	rest, err := io.ReadAll(br)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(rest))

	long := bufio.NewReaderSize(strings.NewReader(strings.Repeat("x", 40)), 16)
	assert.Len(t, peekLine(long), 16)
}

func TestRun_JSONLogFormat(t *testing.T) {
	isolateEnv(t)

	var stdout, stderr bytes.Buffer
	code := run([]string{"--log-format", "json"}, ndjson(
		lineStart,
		"not json",
		lineConfig,
		`{"event":"suite:end","tests":0,"ok":true}`,
	), &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Contains(t, stderr.String(), `"msg":"malformed input lines skipped"`)
	assert.Contains(t, stderr.String(), `"count":1`)
}

func TestRun_GoTestTimeout(t *testing.T) {
	isolateEnv(t)

	var stdout, stderr bytes.Buffer
	code := run(nil, ndjson(
		`{"Action":"start","Package":"example.com/slow"}`,
		`{"Action":"run","Package":"example.com/slow","Test":"TestSlow"}`,
		`{"Action":"output","Package":"example.com/slow","Test":"TestSlow","Output":"panic: test timed out after 1s\n"}`,
		`{"Action":"output","Package":"example.com/slow","Output":"FAIL\texample.com/slow\t1.012s\n"}`,
		`{"Action":"fail","Package":"example.com/slow","Elapsed":1.012}`,
	), &stdout, &stderr)

	assert.Equal(t, 1, code, stderr.String())
	out := stdout.String()
	assert.Contains(t, out, "Timeout: TestSlow (example.com/slow)")
	assert.Contains(t, out, "1 test, 1 assertion, 1 environment ... 1 timeout")
}
