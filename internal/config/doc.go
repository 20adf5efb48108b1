// Package config handles configuration loading and merging for brief.
//
// # Configuration Precedence
//
// Configuration values are resolved in the following order (highest to lowest priority):
//
//  1. CLI flags (--verbosity, --theme, --no-color, --ci, --stack-lines, etc.)
//  2. Environment variables (BRIEF_VERBOSITY, BRIEF_THEME, BRIEF_NO_COLOR, NO_COLOR, BRIEF_CI, CI)
//  3. YAML config file (.brief.yaml in the working directory or ~/.config/brief/.brief.yaml)
//  4. Hardcoded defaults
//
// # CI Mode Behavior
//
// When CI mode is enabled (via --ci flag, CI=true env var, or ci: true in YAML):
//   - Colors are disabled (monochrome output)
//   - The progress bar is disabled
//   - The status line is printed only when it changes, without cursor movement
//
// # Environment Variables
//
//   - BRIEF_NO_COLOR or NO_COLOR: Set to "true" or "1" to disable colors
//   - BRIEF_CI or CI: Set to "true" or "1" to enable CI mode
//   - BRIEF_VERBOSITY: "info" or "debug"
//   - BRIEF_THEME: default, bright, or mono
//   - BRIEF_DEBUG: Set to any non-empty value to enable diagnostic logging
//   - BRIEF_LOG_FORMAT: text (default) or json, for diagnostic logs
package config
