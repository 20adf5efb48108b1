package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"

	"github.com/dkoosis/brief/pkg/render"
	"github.com/dkoosis/brief/pkg/stackfilter"
)

// Sources a resolved value can come from, highest priority first.
const (
	SourceCLI     = "cli"
	SourceEnv     = "env"
	SourceFile    = "file"
	SourceDefault = "default"
)

// ValidVerbosity lists the accepted verbosity levels. The empty level prints
// failures and the summary only.
var ValidVerbosity = []string{"", "info", "debug"}

// ValidLogFormats lists the diagnostic log encodings. Empty means text.
var ValidLogFormats = []string{"", "text", "json"}

// ResolvedConfig holds the final configuration after applying all priority rules.
type ResolvedConfig struct {
	Verbosity    string
	Theme        string
	NoColor      bool
	Bright       bool
	CI           bool
	Debug        bool
	StackLines   int
	StackFilters []string
	MetricsFile  string
	ProgressBar  bool
	LogFormat    string

	// Resolution metadata (for debugging)
	VerbositySource string
	ThemeSource     string
	NoColorSource   string
	CISource        string
}

// ResolveConfig resolves configuration from all sources: CLI flags, then
// environment, then the config file, then defaults.
func ResolveConfig(cliFlags CliFlags, log *slog.Logger) (*ResolvedConfig, error) {
	var appCfg *AppConfig
	if cliFlags.ConfigPath != "" {
		cfg, err := LoadConfigFile(cliFlags.ConfigPath)
		if err != nil {
			return nil, err
		}
		appCfg = cfg
	} else {
		appCfg = LoadConfig(log)
	}
	return Resolve(cliFlags, appCfg)
}

// Resolve applies CLI flags and environment variables over appCfg.
func Resolve(cliFlags CliFlags, appCfg *AppConfig) (*ResolvedConfig, error) {
	if appCfg == nil {
		appCfg = DefaultAppConfig()
	}

	resolved := &ResolvedConfig{
		Verbosity:       appCfg.Verbosity,
		Theme:           appCfg.Theme,
		NoColor:         appCfg.NoColor,
		Bright:          appCfg.Bright,
		CI:              appCfg.CI,
		Debug:           appCfg.Debug,
		StackLines:      appCfg.StackLines,
		StackFilters:    appCfg.StackFilters,
		MetricsFile:     appCfg.MetricsFile,
		ProgressBar:     appCfg.ProgressBar,
		VerbositySource: SourceFile,
		ThemeSource:     SourceFile,
		NoColorSource:   SourceFile,
		CISource:        SourceFile,
	}
	if len(resolved.StackFilters) == 0 {
		resolved.StackFilters = stackfilter.DefaultPatterns
	}

	resolved.Verbosity, resolved.VerbositySource = resolveString(
		cliFlags.VerbositySet, cliFlags.Verbosity, "BRIEF_VERBOSITY", appCfg.Verbosity)
	resolved.Theme, resolved.ThemeSource = resolveString(
		cliFlags.ThemeName != "", cliFlags.ThemeName, "BRIEF_THEME", appCfg.Theme)
	resolved.LogFormat, _ = resolveString(
		cliFlags.LogFormat != "", cliFlags.LogFormat, "BRIEF_LOG_FORMAT", appCfg.LogFormat)

	if cliFlags.NoColorSet {
		resolved.NoColor = cliFlags.NoColor
		resolved.NoColorSource = SourceCLI
	} else if env := getEnvBool("BRIEF_NO_COLOR", "NO_COLOR"); env != nil {
		resolved.NoColor = *env
		resolved.NoColorSource = SourceEnv
	}

	if cliFlags.CISet {
		resolved.CI = cliFlags.CI
		resolved.CISource = SourceCLI
	} else if env := getEnvBool("BRIEF_CI", "CI"); env != nil {
		resolved.CI = *env
		resolved.CISource = SourceEnv
	}

	if cliFlags.DebugSet {
		resolved.Debug = cliFlags.Debug
	} else if os.Getenv("BRIEF_DEBUG") != "" {
		resolved.Debug = true
	}

	if cliFlags.BrightSet {
		resolved.Bright = cliFlags.Bright
	}
	if cliFlags.StackLinesSet {
		resolved.StackLines = cliFlags.StackLines
	}
	if cliFlags.MetricsFileSet {
		resolved.MetricsFile = cliFlags.MetricsFile
	}
	if cliFlags.ProgressBarSet {
		resolved.ProgressBar = cliFlags.ProgressBar
	}

	// CI mode implies plain output.
	if resolved.CI {
		resolved.NoColor = true
		resolved.ProgressBar = false
	}

	if err := validateResolvedConfig(resolved); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return resolved, nil
}

// ThemeName is the theme to render with after color settings are applied.
func (c *ResolvedConfig) ThemeName() string {
	switch {
	case c.NoColor:
		return "mono"
	case c.Bright && c.Theme == DefaultTheme:
		return "bright"
	default:
		return c.Theme
	}
}

// resolveString picks the CLI value, then the environment, then the file.
func resolveString(cliSet bool, cli, envKey, file string) (string, string) {
	if cliSet {
		return cli, SourceCLI
	}
	if v, ok := os.LookupEnv(envKey); ok && v != "" {
		return v, SourceEnv
	}
	if file != "" {
		return file, SourceFile
	}
	return file, SourceDefault
}

// getEnvBool reads a boolean from environment variables, trying multiple keys.
// Returns nil if none are set to a parseable value.
func getEnvBool(keys ...string) *bool {
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				return &b
			}
		}
	}
	return nil
}

func validateResolvedConfig(cfg *ResolvedConfig) error {
	if !slices.Contains(ValidVerbosity, cfg.Verbosity) {
		return fmt.Errorf("invalid verbosity value: %q (must be: info, debug, or empty)", cfg.Verbosity)
	}
	if !slices.Contains(render.ThemeNames, cfg.Theme) {
		return fmt.Errorf("invalid theme value: %q (must be one of %v)", cfg.Theme, render.ThemeNames)
	}
	if !slices.Contains(ValidLogFormats, cfg.LogFormat) {
		return fmt.Errorf("invalid log_format value: %q (must be text or json)", cfg.LogFormat)
	}
	if cfg.StackLines < 0 {
		return fmt.Errorf("stack_lines must not be negative, got: %d", cfg.StackLines)
	}
	return nil
}
