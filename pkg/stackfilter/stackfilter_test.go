package stackfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_DropsFrameworkFramesAndRelativizes(t *testing.T) {
	t.Parallel()

	stack := "TypeError: x is undefined\n" +
		"    at /home/dev/proj/lib/util.js:12\n" +
		"    at /home/dev/proj/node_modules/buster/lib/runner.js:40\n" +
		"    at node:internal/timers:5"

	got := New("/home/dev/proj").Filter(stack)
	assert.Equal(t, []string{
		"TypeError: x is undefined",
		"    at ./lib/util.js:12",
	}, got)
}

func TestFilter_DropsGoRuntimeFrames(t *testing.T) {
	t.Parallel()

	stack := "time.Sleep(...) /usr/local/go/src/runtime/time.go:338\n" +
		"example.com/slow.TestSlow(...) /home/me/slow/slow_test.go:12\n" +
		"testing.tRunner(...) /usr/local/go/src/testing/testing.go:1792\n" +
		"main.main(...) _testmain.go:47"

	got := New("/home/me/slow").Filter(stack)
	assert.Equal(t, []string{"example.com/slow.TestSlow(...) ./slow_test.go:12"}, got)
}

func TestFilter_CustomPatterns(t *testing.T) {
	t.Parallel()

	f := New("", "vendor/")
	got := f.Filter("a\nvendor/x.js\nnode:internal/y")
	assert.Equal(t, []string{"a", "node:internal/y"}, got)
}

func TestFilter_Empty(t *testing.T) {
	t.Parallel()

	assert.Nil(t, New("/x").Filter(""))
}

func TestFilter_TrailingSlashInCwd(t *testing.T) {
	t.Parallel()

	got := New("/srv/app/").Filter("at /srv/app/main.js:1")
	assert.Equal(t, []string{"at ./main.js:1"}, got)
}
