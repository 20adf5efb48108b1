// Package render styles reporter output for the terminal.
package render

import "github.com/charmbracelet/lipgloss"

// Kind identifies the type of output line for styling.
type Kind int

const (
	KindPlain Kind = iota
	KindFailure
	KindError
	KindTimeout
	KindUncaught
	KindDeferred
	KindSkipped
	KindLog
	KindOK
	KindNotOK
	KindWarning
	KindMuted
)

// StyleFunc formats a line with colors. A nil StyleFunc means no styling.
type StyleFunc func(kind Kind, text string) string

// Apply styles text with fn, or returns it unchanged when fn is nil.
func (fn StyleFunc) Apply(kind Kind, text string) string {
	if fn == nil {
		return text
	}
	return fn(kind, text)
}

// Theme maps line kinds to lipgloss styles.
type Theme struct {
	Name     string
	Failure  lipgloss.Style
	Error    lipgloss.Style
	Timeout  lipgloss.Style
	Deferred lipgloss.Style
	Log      lipgloss.Style
	OK       lipgloss.Style
	Warning  lipgloss.Style
	Muted    lipgloss.Style
	BarColor string
}

// DefaultTheme returns the standard color theme.
func DefaultTheme() Theme {
	return Theme{
		Name:     "default",
		Failure:  lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		Timeout:  lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		Deferred: lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		Log:      lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		OK:       lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Warning:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		BarColor: "2",
	}
}

// BrightTheme returns the high-intensity variant of DefaultTheme.
func BrightTheme() Theme {
	return Theme{
		Name:     "bright",
		Failure:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		Timeout:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Deferred: lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		Log:      lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		OK:       lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		Warning:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
		BarColor: "10",
	}
}

// MonoTheme returns a theme with no colors.
func MonoTheme() Theme {
	return Theme{
		Name:     "mono",
		Failure:  lipgloss.NewStyle(),
		Error:    lipgloss.NewStyle(),
		Timeout:  lipgloss.NewStyle(),
		Deferred: lipgloss.NewStyle(),
		Log:      lipgloss.NewStyle(),
		OK:       lipgloss.NewStyle(),
		Warning:  lipgloss.NewStyle(),
		Muted:    lipgloss.NewStyle(),
	}
}

// ThemeNames lists the names ThemeByName accepts.
var ThemeNames = []string{"default", "bright", "mono"}

// ThemeByName returns a theme by name, defaulting to DefaultTheme.
func ThemeByName(name string) Theme {
	switch name {
	case "bright":
		return BrightTheme()
	case "mono":
		return MonoTheme()
	default:
		return DefaultTheme()
	}
}

// Style returns the theme as a StyleFunc. The mono theme yields nil so text
// passes through untouched.
func (t Theme) Style() StyleFunc {
	if t.Name == "mono" {
		return nil
	}
	return func(kind Kind, text string) string {
		s, ok := t.styleFor(kind)
		if !ok {
			return text
		}
		return s.Render(text)
	}
}

func (t Theme) styleFor(kind Kind) (lipgloss.Style, bool) {
	switch kind {
	case KindFailure, KindNotOK:
		return t.Failure, true
	case KindError, KindUncaught:
		return t.Error, true
	case KindTimeout:
		return t.Timeout, true
	case KindDeferred, KindSkipped:
		return t.Deferred, true
	case KindLog:
		return t.Log, true
	case KindOK:
		return t.OK, true
	case KindWarning:
		return t.Warning, true
	case KindMuted:
		return t.Muted, true
	default:
		return lipgloss.Style{}, false
	}
}

// Select picks the theme for the color and bright reporter options.
func Select(color, bright bool) Theme {
	switch {
	case !color:
		return MonoTheme()
	case bright:
		return BrightTheme()
	default:
		return DefaultTheme()
	}
}
