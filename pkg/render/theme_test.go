package render

import (
	"testing"

	"github.com/acarl005/stripansi"
	"github.com/stretchr/testify/assert"
)

func TestThemeByName(t *testing.T) {
	t.Parallel()

	for _, name := range ThemeNames {
		assert.Equal(t, name, ThemeByName(name).Name)
	}
	assert.Equal(t, "default", ThemeByName("nope").Name)
}

func TestSelect(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "mono", Select(false, true).Name)
	assert.Equal(t, "bright", Select(true, true).Name)
	assert.Equal(t, "default", Select(true, false).Name)
}

func TestMonoStyleIsNil(t *testing.T) {
	t.Parallel()

	fn := MonoTheme().Style()
	assert.Nil(t, fn)
	assert.Equal(t, "Failure: x", fn.Apply(KindFailure, "Failure: x"))
}

func TestStylePreservesVisibleText(t *testing.T) {
	t.Parallel()

	fn := DefaultTheme().Style()
	for _, kind := range []Kind{KindPlain, KindFailure, KindError, KindTimeout, KindOK, KindLog, KindWarning} {
		assert.Equal(t, "text", stripansi.Strip(fn.Apply(kind, "text")))
	}
}

func TestProgressBar_Width(t *testing.T) {
	t.Parallel()

	bar := MonoTheme().ProgressBar(10)
	plain := stripansi.Strip(bar(0.5))
	assert.Equal(t, 10, len([]rune(plain)))
}
