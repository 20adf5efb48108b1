package render

import "github.com/charmbracelet/bubbles/progress"

// DefaultBarWidth is the progress bar width in columns.
const DefaultBarWidth = 20

// ProgressBar returns a renderer for a fixed-width progress bar drawn with the
// theme's bar color. Ratios outside [0, 1] are clamped by the bar.
func (t Theme) ProgressBar(width int) func(ratio float64) string {
	if width <= 0 {
		width = DefaultBarWidth
	}
	opts := []progress.Option{progress.WithWidth(width), progress.WithoutPercentage()}
	if t.BarColor != "" {
		opts = append(opts, progress.WithSolidFill(t.BarColor))
	} else {
		opts = append(opts, progress.WithFillCharacters('#', '-'))
	}
	bar := progress.New(opts...)
	return bar.ViewAs
}
