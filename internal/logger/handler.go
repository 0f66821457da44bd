package logger

import (
	"context"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
)

const tagKey = "tag" // The slog attribute key used for filtering tags

// filteringHandler wraps a base slog.Handler to add package, file and tag filtering.
type filteringHandler struct {
	baseHandler slog.Handler
	cfg         *Config // Reference to processed config
}

// newFilteringHandler creates a handler with filtering capabilities.
func newFilteringHandler(base slog.Handler, cfg *Config) *filteringHandler {
	return &filteringHandler{
		baseHandler: base,
		cfg:         cfg,
	}
}

// Enabled checks if the level is enabled by the base handler.
func (h *filteringHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.baseHandler.Enabled(ctx, level)
}

// Helper function for set lookup
func foundInSet(set map[string]struct{}, key string) bool {
	if set == nil {
		return false
	}
	_, found := set[key]
	return found
}

// allowed applies the enabled/disabled pair for one dimension.
// Disabled wins over enabled; an empty enabled set allows everything.
func allowed(enabled, disabled map[string]struct{}, key string) bool {
	key = strings.ToLower(key)
	if foundInSet(disabled, key) {
		return false
	}
	if enabled != nil && !foundInSet(enabled, key) {
		return false
	}
	return true
}

// recordSource extracts the package directory and file name of the record's caller.
func recordSource(r slog.Record) (pkg, file string, ok bool) {
	if r.PC == 0 {
		return "", "", false
	}
	frames := runtime.CallersFrames([]uintptr{r.PC})
	frame, _ := frames.Next()
	if frame.File == "" {
		return "", "", false
	}
	return filepath.Base(filepath.Dir(frame.File)), filepath.Base(frame.File), true
}

// Handle applies filtering logic before passing the record to the base handler.
func (h *filteringHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.cfg == nil {
		return h.baseHandler.Handle(ctx, r)
	}

	// --- Package & File Filtering ---
	if pkg, file, ok := recordSource(r); ok {
		if !allowed(h.cfg.enabledPackagesSet, h.cfg.disabledPackagesSet, pkg) {
			return nil
		}
		if !allowed(h.cfg.enabledFilesSet, h.cfg.disabledFilesSet, file) {
			return nil
		}
	}

	// --- Tag Filtering ---
	var tagValue string
	var tagFound bool
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == tagKey {
			tagValue = a.Value.String()
			tagFound = true
			return false // Stop iteration
		}
		return true
	})

	if tagFound {
		if !allowed(h.cfg.enabledTagsSet, h.cfg.disabledTagsSet, tagValue) {
			return nil
		}
	} else if h.cfg.enabledTagsSet != nil {
		// Filtering for specific tags drops untagged messages
		return nil
	}

	return h.baseHandler.Handle(ctx, r)
}

// WithAttrs returns a new handler with attributes added.
func (h *filteringHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return newFilteringHandler(h.baseHandler.WithAttrs(attrs), h.cfg)
}

// WithGroup returns a new handler with a group added.
func (h *filteringHandler) WithGroup(name string) slog.Handler {
	return newFilteringHandler(h.baseHandler.WithGroup(name), h.cfg)
}
