// Package config handles loading and saving lw configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/loanwalk/config.yaml
//   - Data:    ~/.local/share/loanwalk/ (custom fixture files)
//   - State:   ~/.local/state/loanwalk/ (progress database)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/loanwalk/pkg/flow"
)

const appName = "loanwalk"

// UIConfig holds walkthrough display settings.
type UIConfig struct {
	ShowGuide bool   `yaml:"show_guide"`           // Guided overlay visible at start
	StartTab  string `yaml:"start_tab,omitempty"`  // Tab id to open on
	WordWrap  int    `yaml:"word_wrap,omitempty"`  // Markdown wrap width for step descriptions
}

// FixturesConfig points at a custom mock data file.
type FixturesConfig struct {
	Path string `yaml:"path,omitempty"` // Empty means the built-in data set
}

// RemoteConfig controls the presenter remote endpoint.
type RemoteConfig struct {
	Addr       string  `yaml:"addr,omitempty"`        // e.g. 127.0.0.1:7788; empty disables it
	RPS        float64 `yaml:"rps,omitempty"`         // Signals per second per connection
	Burst      int     `yaml:"burst,omitempty"`       // Burst allowance per connection
	MaxClients int     `yaml:"max_clients,omitempty"` // Concurrent websocket clients
}

// CueConfig controls the cue-file signal source.
type CueConfig struct {
	Path      string `yaml:"path,omitempty"`       // Empty means no cue file is watched
	ForcePoll bool   `yaml:"force_poll,omitempty"` // Skip fsnotify and poll
}

// ProgressConfig controls the visit history store.
type ProgressConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"` // Defaults to StateDir()/progress.db
}

// Config is the top-level configuration for lw.
type Config struct {
	UI       UIConfig       `yaml:"ui"`
	Fixtures FixturesConfig `yaml:"fixtures,omitempty"`
	Remote   RemoteConfig   `yaml:"remote,omitempty"`
	Cue      CueConfig      `yaml:"cue,omitempty"`
	Progress ProgressConfig `yaml:"progress"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		UI: UIConfig{
			ShowGuide: true,
			WordWrap:  72,
		},
		Remote: RemoteConfig{
			RPS:        5,
			Burst:      10,
			MaxClients: 8,
		},
		Progress: ProgressConfig{
			Enabled: true,
		},
	}
}

// ConfigDir returns the XDG config directory for lw.
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DataDir returns the XDG data directory for lw.
func DataDir() string {
	return xdgDir("XDG_DATA_HOME", ".local", "share")
}

// StateDir returns the XDG state directory for lw.
func StateDir() string {
	return xdgDir("XDG_STATE_HOME", ".local", "state")
}

func xdgDir(env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(append(append([]string{home}, fallback...), appName)...)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Fixtures.Path = expandHome(cfg.Fixtures.Path)
	cfg.Cue.Path = expandHome(cfg.Cue.Path)
	cfg.Progress.Path = expandHome(cfg.Progress.Path)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the walkthrough cannot start with.
func (c Config) Validate() error {
	if c.UI.StartTab != "" {
		if _, err := flow.ParseTab(c.UI.StartTab); err != nil {
			return fmt.Errorf("ui.start_tab: %w", err)
		}
	}
	if c.Remote.RPS < 0 {
		return fmt.Errorf("remote.rps must not be negative")
	}
	if c.Remote.Burst < 0 {
		return fmt.Errorf("remote.burst must not be negative")
	}
	if c.UI.WordWrap < 0 {
		return fmt.Errorf("ui.word_wrap must not be negative")
	}
	return nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// StartTab returns the configured start tab, or the intro tab.
func (c Config) StartTab() flow.Tab {
	t, err := flow.ParseTab(c.UI.StartTab)
	if err != nil {
		return flow.TabIntro
	}
	return t
}

// ProgressPath returns where the progress database lives.
func (c Config) ProgressPath() string {
	if c.Progress.Path != "" {
		return c.Progress.Path
	}
	dir := StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "progress.db")
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	return expandHome(path)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
