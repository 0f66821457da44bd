package tui

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
)

// StatusConfig defines the appearance of the status bar.
type StatusConfig struct {
	StyleDefault   tcell.Style
	StyleMessage   tcell.Style
	MessageTimeout time.Duration
}

// StatusBar is the bottom status line. Plugins contribute named segments.
type StatusBar struct {
	config StatusConfig
	mu     sync.RWMutex

	filePath string
	modified bool
	segments map[string]string

	tempMessage     string
	tempMessageTime time.Time
	now             func() time.Time
}

// NewStatusBar creates a StatusBar with the given configuration.
func NewStatusBar(config StatusConfig) *StatusBar {
	return &StatusBar{
		config:   config,
		segments: make(map[string]string),
		now:      time.Now,
	}
}

// SetFileInfo updates the file path and modified flag.
func (sb *StatusBar) SetFileInfo(path string, modified bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.filePath = path
	sb.modified = modified
}

// SetSegment sets or, with an empty text, removes a named segment.
func (sb *StatusBar) SetSegment(name, text string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	if text == "" {
		delete(sb.segments, name)
		return
	}
	sb.segments[name] = text
}

// SetTemporaryMessage displays a message for the configured duration.
func (sb *StatusBar) SetTemporaryMessage(format string, args ...interface{}) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.tempMessage = fmt.Sprintf(format, args...)
	sb.tempMessageTime = sb.now()
}

// Text returns the line the status bar currently shows and whether it is a
// temporary message.
func (sb *StatusBar) Text() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	active := !sb.tempMessageTime.IsZero() && sb.now().Sub(sb.tempMessageTime) <= sb.config.MessageTimeout
	if active {
		return sb.tempMessage, true
	}
	sb.tempMessage = ""
	sb.tempMessageTime = time.Time{}

	path := sb.filePath
	if path == "" {
		path = "[No Name]"
	}
	parts := []string{path}
	if sb.modified {
		parts[0] += " [Modified]"
	}
	names := make([]string, 0, len(sb.segments))
	for name := range sb.segments {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		parts = append(parts, sb.segments[name])
	}
	return strings.Join(parts, " -- "), false
}

// Draw renders the status bar on the last screen line.
func (sb *StatusBar) Draw(screen tcell.Screen, width, height int) {
	if height <= 0 || width <= 0 {
		return
	}
	y := height - 1
	text, temporary := sb.Text()
	style := sb.config.StyleDefault
	if temporary {
		style = sb.config.StyleMessage
	}
	for x := 0; x < width; x++ {
		screen.SetContent(x, y, ' ', nil, style)
	}
	drawText(screen, 0, y, width, text, style)
}
