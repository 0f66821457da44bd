// internal/config/flags.go
package config

import (
	"fmt"
	"time"

	"github.com/bethropolis/infograph/internal/logger"
	"github.com/spf13/pflag"
)

// Flags holds values parsed from command-line flags. Only flags the user set
// override the config file.
type Flags struct {
	ConfigFilePath   string
	LogLevel         string
	LogFilePath      string
	EnableTags       []string
	DisableTags      []string
	EnablePkgs       []string
	DisablePkgs      []string
	EnableFiles      []string
	DisableFiles     []string
	HistoryLimit     int
	SystemClipboard  bool
	ToolbarMargin    float64
	NoToolbarDefault bool
	Autosave         bool
	AutosaveInterval time.Duration
}

// Register defines the flags on fs.
func (f *Flags) Register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.ConfigFilePath, "config", "c", "", fmt.Sprintf("Path to TOML configuration file (default ~/.config/%s/%s)", AppName, DefaultConfigFileName))
	fs.StringVar(&f.LogLevel, "loglevel", "", "Log level (debug, info, warn, error) - Overrides config file")
	fs.StringVar(&f.LogFilePath, "logfile", "", "Path to write log file (use '-' for stderr) - Overrides config file")
	fs.StringSliceVar(&f.EnableTags, "log-tags", nil, "Tags to enable - Overrides config file")
	fs.StringSliceVar(&f.DisableTags, "log-disable-tags", nil, "Tags to disable - Overrides config file")
	fs.StringSliceVar(&f.EnablePkgs, "log-packages", nil, "Packages to enable - Overrides config file")
	fs.StringSliceVar(&f.DisablePkgs, "log-disable-packages", nil, "Packages to disable - Overrides config file")
	fs.StringSliceVar(&f.EnableFiles, "log-files", nil, "Files to enable - Overrides config file")
	fs.StringSliceVar(&f.DisableFiles, "log-disable-files", nil, "Files to disable - Overrides config file")
	fs.IntVar(&f.HistoryLimit, "history-limit", 0, "Maximum undo entries - Overrides config file")
	fs.BoolVar(&f.SystemClipboard, "system-clipboard", false, "Copy to the system clipboard instead of the internal one")
	fs.Float64Var(&f.ToolbarMargin, "toolbar-margin", 0, "Gap between selection and toolbar - Overrides config file")
	fs.BoolVar(&f.NoToolbarDefault, "no-default-items", false, "Hide the built-in toolbar items")
	fs.BoolVar(&f.Autosave, "autosave", false, "Write the document periodically after edits")
	fs.DurationVar(&f.AutosaveInterval, "autosave-interval", 0, "Autosave interval - Overrides config file")
}

// ApplyOverrides updates cfg with the flags that were set on fs.
func (f *Flags) ApplyOverrides(cfg *Config, fs *pflag.FlagSet) {
	fs.Visit(func(fl *pflag.Flag) {
		logger.DebugTagf("config", "Applying flag override: %s", fl.Name)
		switch fl.Name {
		case "loglevel":
			if f.LogLevel != "" {
				cfg.Logger.LogLevel = f.LogLevel
			}
		case "logfile":
			cfg.Logger.LogFilePath = f.LogFilePath
		case "log-tags":
			cfg.Logger.EnabledTags = f.EnableTags
		case "log-disable-tags":
			cfg.Logger.DisabledTags = f.DisableTags
		case "log-packages":
			cfg.Logger.EnabledPackages = f.EnablePkgs
		case "log-disable-packages":
			cfg.Logger.DisabledPackages = f.DisablePkgs
		case "log-files":
			cfg.Logger.EnabledFiles = f.EnableFiles
		case "log-disable-files":
			cfg.Logger.DisabledFiles = f.DisableFiles
		case "history-limit":
			if f.HistoryLimit > 0 {
				cfg.Editor.HistoryLimit = f.HistoryLimit
			}
		case "system-clipboard":
			cfg.Editor.SystemClipboard = f.SystemClipboard
		case "toolbar-margin":
			if f.ToolbarMargin >= 0 {
				cfg.Toolbar.Margin = f.ToolbarMargin
			}
		case "no-default-items":
			cfg.Toolbar.IncludeDefaults = !f.NoToolbarDefault
		case "autosave":
			cfg.Autosave.Enabled = f.Autosave
		case "autosave-interval":
			if f.AutosaveInterval > 0 {
				cfg.Autosave.Interval = Duration{f.AutosaveInterval}
			}
		}
	})
}
