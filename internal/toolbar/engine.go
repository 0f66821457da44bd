// Package toolbar decides when a contextual toolbar is shown for the
// selection, what it contains and where it goes. Drawing is delegated to a
// Renderer.
package toolbar

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bethropolis/infograph/internal/element"
	"github.com/bethropolis/infograph/internal/event"
	"github.com/bethropolis/infograph/internal/logger"
	"github.com/bethropolis/infograph/internal/plugin"
	"github.com/bethropolis/infograph/internal/selection"
	"github.com/bethropolis/infograph/internal/types"
)

// State of the toolbar.
type State int

const (
	StateHidden State = iota
	StateVisible
)

func (s State) String() string {
	if s == StateVisible {
		return "visible"
	}
	return "hidden"
}

// ErrNoItem is returned by Trigger for keys not on the current toolbar.
var ErrNoItem = errors.New("toolbar item not found")

// Engine is the toolbar plugin.
//
// Config callbacks and Renderer methods run with only renderMu held, so they
// may call State, Content and Position. They must not call Render or
// Destroy, or issue commands that re-render the toolbar.
type Engine struct {
	cfg      Config
	renderer Renderer

	renderMu sync.Mutex // serializes Render, repositioning and Destroy

	mu       sync.Mutex // guards the fields below, never held across callbacks
	state    State
	handle   Handle
	mounted  bool
	content  Content
	position types.Point
	above    bool

	bus       *event.Bus
	subs      []event.Subscription
	selection plugin.Selection
	commands  plugin.Commands
}

var _ plugin.Plugin = (*Engine)(nil)

// NewEngine creates a toolbar engine drawing through r.
func NewEngine(cfg Config, r Renderer) *Engine {
	return &Engine{cfg: cfg, renderer: r}
}

// Name returns the plugin name.
func (e *Engine) Name() string { return "toolbar" }

// Init subscribes to selection, geometry and history changes.
func (e *Engine) Init(ctx *plugin.Context) error {
	if ctx == nil || ctx.Bus == nil || ctx.Selection == nil {
		return fmt.Errorf("toolbar: init requires a bus and a selection")
	}
	if e.renderer == nil {
		return fmt.Errorf("toolbar: no renderer")
	}
	e.mu.Lock()
	e.bus = ctx.Bus
	e.selection = ctx.Selection
	e.commands = ctx.Commands
	e.mu.Unlock()

	e.subs = []event.Subscription{
		ctx.Bus.Subscribe(event.TypeSelectionChange, e.onSelectionChange),
		ctx.Bus.Subscribe(event.TypeSelectionGeometryChange, e.onGeometryChange),
		ctx.Bus.Subscribe(event.TypeHistoryChange, e.onHistoryChange),
	}
	logger.Debugf("Toolbar: Initialized (margin %.0f)", e.cfg.margin())
	return nil
}

// Destroy unsubscribes and disposes mounted content.
func (e *Engine) Destroy() error {
	e.renderMu.Lock()
	e.mu.Lock()
	bus := e.bus
	subs := e.subs
	e.subs = nil
	e.bus = nil
	e.mu.Unlock()
	e.dispose()
	e.renderMu.Unlock()

	if bus != nil {
		for _, sub := range subs {
			bus.Unsubscribe(sub)
		}
	}
	logger.Debugf("Toolbar: Destroyed")
	return nil
}

// --- Event handlers ---

func (e *Engine) onSelectionChange(ev event.Event) error {
	if delta, ok := ev.Data.(selection.Delta); ok {
		e.Render(delta.Next)
		return nil
	}
	e.Render(e.selection.Current())
	return nil
}

func (e *Engine) onHistoryChange(ev event.Event) error {
	if current := e.selection.Current(); len(current) > 0 {
		e.Render(current)
	}
	return nil
}

func (e *Engine) onGeometryChange(ev event.Event) error {
	e.renderMu.Lock()
	defer e.renderMu.Unlock()

	e.mu.Lock()
	h, content, visible := e.handle, e.content, e.state == StateVisible && e.mounted
	e.mu.Unlock()
	if !visible {
		return nil
	}
	pos, above := e.layout(h, content)
	e.mu.Lock()
	e.position, e.above = pos, above
	e.mu.Unlock()
	return nil
}

// --- Rendering ---

// Render recomputes the toolbar for the selected elements. Previously mounted
// content is always disposed first.
func (e *Engine) Render(selected []element.Element) {
	e.renderMu.Lock()
	defer e.renderMu.Unlock()

	wasVisible := e.dispose()

	e.mu.Lock()
	commands := e.commands
	e.mu.Unlock()

	content, reason := e.build(selected, commands)
	if reason != "" {
		e.hidden(wasVisible, reason)
		return
	}

	h, err := e.renderer.Mount(content.Context, content)
	if err != nil {
		logger.Errorf("Toolbar: Mount failed: %v", err)
		e.hidden(wasVisible, "mount failed")
		return
	}
	pos, above := e.layout(h, content)

	e.mu.Lock()
	e.handle = h
	e.mounted = true
	e.content = content
	e.state = StateVisible
	e.position, e.above = pos, above
	e.mu.Unlock()
	logger.DebugTagf("toolbar", "Toolbar: Visible for %d %s element(s), %d item(s) at %v",
		len(selected), content.Context.Kind, len(content.Items), pos)
}

// build resolves what to mount. A non-empty reason means the toolbar stays
// hidden.
func (e *Engine) build(selected []element.Element, commands plugin.Commands) (Content, string) {
	if len(selected) == 0 {
		return Content{}, "empty selection"
	}
	if e.cfg.Filter != nil && !e.cfg.Filter(selected) {
		return Content{}, "filtered"
	}

	kind := Classify(selected)
	tc := Context{
		Selection:  selected,
		Kind:       kind,
		Attributes: MergeAttributes(kind, selected),
		Commands:   commands,
	}

	var content Content
	if e.cfg.Render != nil {
		custom := e.cfg.Render(tc)
		if custom == nil {
			return Content{}, "custom render returned nothing"
		}
		content = *custom
	} else {
		items := e.resolve(tc)
		if len(items) == 0 {
			return Content{}, "no items"
		}
		content = Content{Items: items}
	}
	content.Context = tc
	if content.Style == nil {
		content.Style = e.cfg.Style
	}
	if content.ClassName == "" {
		content.ClassName = e.cfg.ClassName
	}
	return content, ""
}

func (e *Engine) resolve(tc Context) []Item {
	var items []Item
	if e.cfg.Items.Prepend != nil {
		items = append(items, e.cfg.Items.Prepend(tc)...)
	}
	if e.cfg.includeDefaults() {
		items = append(items, DefaultItems(tc)...)
	}
	if source := e.cfg.Items.forKind(tc.Kind); source != nil {
		items = append(items, source(tc)...)
	}
	if e.cfg.Items.Append != nil {
		items = append(items, e.cfg.Items.Append(tc)...)
	}
	return items
}

// layout measures and places mounted content next to its selection.
func (e *Engine) layout(h Handle, content Content) (types.Point, bool) {
	boxes := make([]types.Box, 0, len(content.Context.Selection))
	for _, el := range content.Context.Selection {
		boxes = append(boxes, el.Bounds())
	}
	size := e.renderer.Measure(h)
	pos, above := Place(types.Union(boxes...), size, e.extent(), e.cfg.margin())
	e.renderer.Place(h, pos)
	return pos, above
}

func (e *Engine) extent() types.Box {
	if e.cfg.GetContainer != nil {
		if box, ok := e.cfg.GetContainer(); ok {
			return box
		}
	}
	return e.renderer.Viewport()
}

// dispose unmounts the current content and marks the toolbar hidden. It
// reports whether the toolbar was visible. Callers hold renderMu.
func (e *Engine) dispose() bool {
	e.mu.Lock()
	h, mounted := e.handle, e.mounted
	wasVisible := e.state == StateVisible
	e.handle = nil
	e.mounted = false
	e.content = Content{}
	e.state = StateHidden
	e.mu.Unlock()

	if mounted {
		e.renderer.Dispose(h)
	}
	return wasVisible
}

func (e *Engine) hidden(wasVisible bool, reason string) {
	if wasVisible {
		logger.DebugTagf("toolbar", "Toolbar: Hidden (%s)", reason)
	}
}

// --- Queries and actions ---

// State returns the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Content returns the mounted content, if visible.
func (e *Engine) Content() (Content, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.content, e.state == StateVisible
}

// Position returns the last computed position and whether it is above the
// selection.
func (e *Engine) Position() (types.Point, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position, e.above
}

// Trigger runs the action of the item with key on the current toolbar.
func (e *Engine) Trigger(ctx context.Context, key string) error {
	e.mu.Lock()
	content := e.content
	visible := e.state == StateVisible
	e.mu.Unlock()

	if !visible {
		return fmt.Errorf("%w: %q (toolbar hidden)", ErrNoItem, key)
	}
	for _, item := range content.Items {
		if item.Key == key && item.Action != nil {
			logger.Debugf("Toolbar: Trigger '%s'", key)
			// Runs unlocked: the action's command re-enters Render.
			return item.Action(ctx, content.Context)
		}
	}
	return fmt.Errorf("%w: %q", ErrNoItem, key)
}
