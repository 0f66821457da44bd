// internal/config/config.go
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/bethropolis/infograph/internal/logger"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/pflag"
)

// Config holds the application's combined configuration.
type Config struct {
	Logger   logger.Config  `toml:"logger"`
	Editor   EditorConfig   `toml:"editor"`
	Toolbar  ToolbarConfig  `toml:"toolbar"`
	Autosave AutosaveConfig `toml:"autosave"`
}

// EditorConfig holds editing session settings.
type EditorConfig struct {
	HistoryLimit    int  `toml:"history_limit"`
	SystemClipboard bool `toml:"system_clipboard"`
}

// ToolbarConfig holds contextual toolbar settings.
type ToolbarConfig struct {
	Margin          float64 `toml:"margin"`
	IncludeDefaults bool    `toml:"include_defaults"`
	ClassName       string  `toml:"class_name"`
	Fg              string  `toml:"fg"` // hex color
	Bg              string  `toml:"bg"`
}

// AutosaveConfig controls the autosave plugin.
type AutosaveConfig struct {
	Enabled  bool     `toml:"enabled"`
	Interval Duration `toml:"interval"`
	Path     string   `toml:"path"` // empty means the edited file
}

// Duration is a time.Duration written as a string ("30s") in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

var (
	loadedConfig *Config
	loadOnce     sync.Once
	loadErr      error
)

// NewDefaultConfig creates a Config struct with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Logger: logger.NewConfig(),
		Editor: EditorConfig{
			HistoryLimit:    DefaultHistoryLimit,
			SystemClipboard: SystemClipboard,
		},
		Toolbar: ToolbarConfig{
			Margin:          DefaultToolbarMargin,
			IncludeDefaults: true,
			ClassName:       DefaultToolbarClass,
			Fg:              DefaultToolbarFg,
			Bg:              DefaultToolbarBg,
		},
		Autosave: AutosaveConfig{
			Interval: Duration{DefaultAutosaveInterval},
		},
	}
}

// DefaultPath returns the config file location under the user config dir.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, AppName, DefaultConfigFileName)
}

// loadFile decodes filePath over cfg. A missing file is not an error.
func loadFile(filePath string, cfg *Config) error {
	_, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error checking config file '%s': %w", filePath, err)
	}
	metadata, err := toml.DecodeFile(filePath, cfg)
	if err != nil {
		return fmt.Errorf("failed to parse config file '%s': %w", filePath, err)
	}
	if undecoded := metadata.Undecoded(); len(undecoded) > 0 {
		logger.Warnf("Config file '%s': Unrecognized keys: %v", filePath, undecoded)
	}
	return nil
}

// validate resets invalid values to defaults.
func (c *Config) validate() {
	defaults := NewDefaultConfig()

	if c.Editor.HistoryLimit <= 0 {
		c.Editor.HistoryLimit = defaults.Editor.HistoryLimit
	}
	if c.Logger.LogLevel == "" {
		c.Logger.LogLevel = defaults.Logger.LogLevel
	}
	if c.Toolbar.Margin < 0 {
		c.Toolbar.Margin = defaults.Toolbar.Margin
	}
	if _, err := colorful.Hex(c.Toolbar.Fg); err != nil {
		c.Toolbar.Fg = defaults.Toolbar.Fg
	}
	if _, err := colorful.Hex(c.Toolbar.Bg); err != nil {
		c.Toolbar.Bg = defaults.Toolbar.Bg
	}
	if c.Autosave.Interval.Duration <= 0 {
		c.Autosave.Interval = defaults.Autosave.Interval
	}
}

// Load builds a config from defaults, the TOML file at path (the default
// location when empty) and the flags the user set on fs.
func Load(path string, flags *Flags, fs *pflag.FlagSet) (*Config, error) {
	cfg := NewDefaultConfig()
	if path == "" {
		path = DefaultPath()
	}
	var err error
	if path != "" {
		err = loadFile(path, cfg)
	}
	if flags != nil && fs != nil {
		flags.ApplyOverrides(cfg, fs)
	}
	cfg.validate()
	return cfg, err
}

// LoadConfig loads the configuration once for the process. Later calls
// return the first result.
func LoadConfig(path string, flags *Flags, fs *pflag.FlagSet) (*Config, error) {
	loadOnce.Do(func() {
		loadedConfig, loadErr = Load(path, flags, fs)
	})
	return loadedConfig, loadErr
}

// Encode writes c as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
