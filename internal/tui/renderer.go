package tui

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/bethropolis/infograph/internal/logger"
	"github.com/bethropolis/infograph/internal/toolbar"
	"github.com/bethropolis/infograph/internal/types"
	"github.com/gdamore/tcell/v2"
)

// indeterminate is shown for items whose selection disagrees on a value.
const indeterminate = "~"

type panel struct {
	id   int
	text string
	at   types.Point
}

// ToolbarRenderer draws the toolbar as a one-line panel on the screen. Its
// methods are called from the command worker, so state is locked.
type ToolbarRenderer struct {
	t            *TUI
	style        tcell.Style
	statusHeight int
	scroll       func() types.Point

	mu      sync.Mutex
	nextID  int
	current *panel
}

var _ toolbar.Renderer = (*ToolbarRenderer)(nil)

// NewToolbarRenderer creates a renderer drawing on t. scroll reports the
// current document offset of the view.
func NewToolbarRenderer(t *TUI, style tcell.Style, statusHeight int, scroll func() types.Point) *ToolbarRenderer {
	if scroll == nil {
		scroll = func() types.Point { return types.Point{} }
	}
	return &ToolbarRenderer{t: t, style: style, statusHeight: statusHeight, scroll: scroll}
}

// Mount builds the panel text for content.
func (r *ToolbarRenderer) Mount(tc toolbar.Context, content toolbar.Content) (toolbar.Handle, error) {
	parts := make([]string, 0, len(content.Items)+1)
	if body, ok := content.Body.(string); ok && body != "" {
		parts = append(parts, body)
	}
	for i, item := range content.Items {
		text := item.Label
		if item.Indeterminate && item.Key != "remove" {
			text += " " + indeterminate
		} else if item.Value != "" {
			text += " " + item.Value
		}
		if i < 9 {
			text = fmt.Sprintf("%d:%s", i+1, text)
		}
		parts = append(parts, text)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("nothing to draw for %s selection", tc.Kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.current = &panel{id: r.nextID, text: " " + strings.Join(parts, " | ") + " "}
	logger.DebugTagf("toolbar", "Toolbar Renderer: Mounted #%d %q", r.nextID, r.current.text)
	return r.nextID, nil
}

// Measure returns the panel size in cells.
func (r *ToolbarRenderer) Measure(h toolbar.Handle) types.Size {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.lookup(h)
	if p == nil {
		return types.Size{}
	}
	return types.Size{Width: float64(textWidth(p.text)), Height: 1}
}

// Place moves the panel to a document position.
func (r *ToolbarRenderer) Place(h toolbar.Handle, at types.Point) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.lookup(h); p != nil {
		p.at = at
	}
}

// Dispose drops the panel.
func (r *ToolbarRenderer) Dispose(h toolbar.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lookup(h) != nil {
		r.current = nil
	}
}

// Viewport is the drawable area above the status bar, in document
// coordinates.
func (r *ToolbarRenderer) Viewport() types.Box {
	width, height := r.t.Size()
	scroll := r.scroll()
	return types.Box{
		X:      scroll.X,
		Y:      scroll.Y,
		Width:  float64(width),
		Height: float64(height - r.statusHeight),
	}
}

// Text returns the mounted panel text, if any.
func (r *ToolbarRenderer) Text() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return "", false
	}
	return r.current.text, true
}

// Draw paints the mounted panel.
func (r *ToolbarRenderer) Draw(screen tcell.Screen) {
	r.mu.Lock()
	p := r.current
	var text string
	var at types.Point
	if p != nil {
		text, at = p.text, p.at
	}
	r.mu.Unlock()
	if p == nil {
		return
	}
	width, _ := screen.Size()
	scroll := r.scroll()
	x := int(math.Round(at.X - scroll.X))
	y := int(math.Round(at.Y - scroll.Y))
	drawText(screen, x, y, width, text, r.style)
}

func (r *ToolbarRenderer) lookup(h toolbar.Handle) *panel {
	id, ok := h.(int)
	if !ok || r.current == nil || r.current.id != id {
		return nil
	}
	return r.current
}
