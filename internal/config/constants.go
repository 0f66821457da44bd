package config

import "time"

// Base application details
const AppName = "infograph"
const DefaultConfigFileName = "config.toml"
const DefaultLogFileName = "infograph.log"

// UI Layout
const StatusBarHeight = 1

// Status Bar
const MessageTimeout = 4 * time.Second

// Editing defaults
const DefaultHistoryLimit = 100
const SystemClipboard = true

// Toolbar defaults
const DefaultToolbarMargin = 8
const DefaultToolbarClass = "infograph-toolbar"
const DefaultToolbarFg = "#eeeeee"
const DefaultToolbarBg = "#3a3a5a"

// Autosave
const DefaultAutosaveInterval = 30 * time.Second
