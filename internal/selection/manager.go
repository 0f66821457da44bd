package selection

import (
	"fmt"
	"sync"

	"github.com/bethropolis/infograph/internal/element"
	"github.com/bethropolis/infograph/internal/event"
	"github.com/bethropolis/infograph/internal/logger"
	"github.com/bethropolis/infograph/internal/plugin"
)

// Delta is the selection:change payload. Added and Removed are computed by
// reference identity and never share an element.
type Delta struct {
	Previous []element.Element
	Next     []element.Element
	Added    []element.Element
	Removed  []element.Element
}

// Empty reports whether the delta changes membership.
func (d Delta) Empty() bool { return len(d.Added) == 0 && len(d.Removed) == 0 }

// GeometryChangeData is the selection:geometrychange payload.
type GeometryChangeData struct {
	Target element.Element
}

// Manager tracks the ordered set of selected elements. It never writes
// document state.
type Manager struct {
	mu       sync.RWMutex
	bus      *event.Bus
	selected []element.Element
}

var _ plugin.Plugin = (*Manager)(nil)
var _ plugin.Selection = (*Manager)(nil)

// NewManager creates an empty selection manager.
func NewManager() *Manager {
	return &Manager{}
}

// Name returns the plugin name.
func (m *Manager) Name() string { return "selection" }

// Init binds the bus selection events are published on.
func (m *Manager) Init(ctx *plugin.Context) error {
	if ctx == nil || ctx.Bus == nil {
		return fmt.Errorf("selection: init requires a bus")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bus = ctx.Bus
	return nil
}

// Destroy drops the selection without publishing.
func (m *Manager) Destroy() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selected = nil
	m.bus = nil
	return nil
}

// Set replaces the selection. selection:change is published only when
// membership actually changed.
func (m *Manager) Set(elements []element.Element) {
	next := dedupe(elements)

	m.mu.Lock()
	previous := m.selected
	delta := diff(previous, next)
	if delta.Empty() {
		// Same members; keep the caller's order for Primary.
		m.selected = next
		m.mu.Unlock()
		return
	}
	m.selected = next
	bus := m.bus
	m.mu.Unlock()

	logger.DebugTagf("selection", "Selection Manager: %d selected (+%d -%d)", len(next), len(delta.Added), len(delta.Removed))
	if bus != nil {
		bus.Dispatch(event.TypeSelectionChange, delta)
	}
}

// Add appends elements to the selection.
func (m *Manager) Add(elements ...element.Element) {
	m.Set(append(m.Current(), elements...))
}

// Toggle adds el if absent, removes it otherwise.
func (m *Manager) Toggle(el element.Element) {
	current := m.Current()
	for i, e := range current {
		if e == el {
			m.Set(append(current[:i:i], current[i+1:]...))
			return
		}
	}
	m.Set(append(current, el))
}

// Remove drops elements from the selection.
func (m *Manager) Remove(elements ...element.Element) {
	drop := make(map[element.Element]struct{}, len(elements))
	for _, e := range elements {
		drop[e] = struct{}{}
	}
	current := m.Current()
	kept := current[:0:0]
	for _, e := range current {
		if _, ok := drop[e]; !ok {
			kept = append(kept, e)
		}
	}
	m.Set(kept)
}

// Clear empties the selection.
func (m *Manager) Clear() {
	m.Set(nil)
}

// NotifyGeometryChange publishes selection:geometrychange when target is
// selected. Membership does not change.
func (m *Manager) NotifyGeometryChange(target element.Element) {
	m.mu.RLock()
	bus := m.bus
	member := contains(m.selected, target)
	m.mu.RUnlock()

	if !member || bus == nil {
		return
	}
	bus.Dispatch(event.TypeSelectionGeometryChange, GeometryChangeData{Target: target})
}

// Current returns a copy of the selection in order.
func (m *Manager) Current() []element.Element {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]element.Element, len(m.selected))
	copy(out, m.selected)
	return out
}

// Primary returns the first selected element, the target of single-element
// operations.
func (m *Manager) Primary() (element.Element, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.selected) == 0 {
		return nil, false
	}
	return m.selected[0], true
}

// Contains reports whether el is selected.
func (m *Manager) Contains(el element.Element) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return contains(m.selected, el)
}

// Len returns the number of selected elements.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.selected)
}

// --- helpers ---

func contains(list []element.Element, el element.Element) bool {
	for _, e := range list {
		if e == el {
			return true
		}
	}
	return false
}

// dedupe keeps the first occurrence of every element and drops nils.
func dedupe(elements []element.Element) []element.Element {
	seen := make(map[element.Element]struct{}, len(elements))
	out := make([]element.Element, 0, len(elements))
	for _, e := range elements {
		if e == nil {
			continue
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

func diff(previous, next []element.Element) Delta {
	prevSet := make(map[element.Element]struct{}, len(previous))
	for _, e := range previous {
		prevSet[e] = struct{}{}
	}
	nextSet := make(map[element.Element]struct{}, len(next))
	for _, e := range next {
		nextSet[e] = struct{}{}
	}

	d := Delta{Previous: previous, Next: next}
	for _, e := range next {
		if _, ok := prevSet[e]; !ok {
			d.Added = append(d.Added, e)
		}
	}
	for _, e := range previous {
		if _, ok := nextSet[e]; !ok {
			d.Removed = append(d.Removed, e)
		}
	}
	return d
}
