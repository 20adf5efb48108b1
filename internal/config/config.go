package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the working directory and
// then in the user configuration directory.
const FileName = ".brief.yaml"

// CliFlags holds the values of command-line flags.
type CliFlags struct {
	ConfigPath  string
	Verbosity   string
	ThemeName   string
	NoColor     bool
	Bright      bool
	CI          bool
	Debug       bool
	StackLines  int
	MetricsFile string
	ProgressBar bool
	LogFormat   string

	// Flags to track if they were explicitly set by the user
	VerbositySet   bool
	NoColorSet     bool
	BrightSet      bool
	CISet          bool
	DebugSet       bool
	StackLinesSet  bool
	MetricsFileSet bool
	ProgressBarSet bool
}

// AppConfig is the content of a .brief.yaml file.
type AppConfig struct {
	Verbosity    string   `yaml:"verbosity"`
	Theme        string   `yaml:"theme"`
	NoColor      bool     `yaml:"no_color"`
	Bright       bool     `yaml:"bright"`
	CI           bool     `yaml:"ci"`
	Debug        bool     `yaml:"debug"`
	StackLines   int      `yaml:"stack_lines"`
	StackFilters []string `yaml:"stack_filters"`
	MetricsFile  string   `yaml:"metrics_file"`
	ProgressBar  bool     `yaml:"progress_bar"`
	LogFormat    string   `yaml:"log_format"`
}

// Defaults.
const (
	DefaultTheme     = "default"
	DefaultVerbosity = ""
)

// DefaultAppConfig returns the configuration used when no file is found.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		Verbosity: DefaultVerbosity,
		Theme:     DefaultTheme,
	}
}

// LoadConfig reads the first .brief.yaml found. A missing or unreadable file
// leaves the defaults in place and is only logged.
func LoadConfig(log *slog.Logger) *AppConfig {
	path := getConfigPath(log)
	if path == "" {
		return DefaultAppConfig()
	}
	cfg, err := LoadConfigFile(path)
	if err != nil {
		log.Warn("ignoring config file", "path", path, "err", err)
		return DefaultAppConfig()
	}
	log.Debug("loaded config file", "path", path)
	return cfg
}

// LoadConfigFile reads path over the defaults.
func LoadConfigFile(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultAppConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Theme == "" {
		cfg.Theme = DefaultTheme
	}
	return cfg, nil
}

// getConfigPath returns the local config file if present, otherwise the one
// in the user configuration directory, otherwise "".
func getConfigPath(log *slog.Logger) string {
	if _, err := os.Stat(FileName); err == nil {
		return FileName
	}

	configHome, err := os.UserConfigDir()
	if err != nil || configHome == "" || configHome == "/" {
		log.Debug("no usable user config dir", "err", err, "path", configHome)
		return ""
	}
	userPath := filepath.Join(configHome, "brief", FileName)
	if _, err := os.Stat(userPath); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Debug("cannot stat user config", "path", userPath, "err", err)
		}
		return ""
	}
	return userPath
}
