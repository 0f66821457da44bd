package element

import (
	"sync"

	"github.com/bethropolis/infograph/internal/document"
	"github.com/bethropolis/infograph/internal/logger"
	"github.com/bethropolis/infograph/internal/types"
	"github.com/tidwall/gjson"
)

// Scene keeps one live handle per element id and refreshes the handles from
// document snapshots, so a handle stays the same reference across edits.
type Scene struct {
	mu    sync.RWMutex
	nodes map[string]Element
	order []string
}

// NewScene creates an empty scene.
func NewScene() *Scene {
	return &Scene{nodes: make(map[string]Element)}
}

// Sync refreshes every handle from snap. Handles whose element disappeared
// (or changed kind) are returned so callers can drop them from selections.
func (s *Scene) Sync(snap document.Snapshot) []Element {
	s.mu.Lock()
	defer s.mu.Unlock()

	elements := snap.Result(ElementsPath)
	order := make([]string, 0)
	seen := make(map[string]bool)
	var removed []Element

	for _, idRes := range snap.Result(OrderPath).Array() {
		id := idRes.String()
		data := snap.Result(Path(id))
		if id == "" || seen[id] || !data.Exists() {
			continue
		}
		seen[id] = true
		order = append(order, id)
		if old := s.upsert(id, data); old != nil {
			removed = append(removed, old)
		}
	}
	// Elements missing from the order list are still part of the scene.
	elements.ForEach(func(key, data gjson.Result) bool {
		id := key.String()
		if !seen[id] {
			seen[id] = true
			order = append(order, id)
			if old := s.upsert(id, data); old != nil {
				removed = append(removed, old)
			}
		}
		return true
	})

	for id, el := range s.nodes {
		if !seen[id] {
			removed = append(removed, el)
			delete(s.nodes, id)
		}
	}
	s.order = order
	logger.DebugTagf("scene", "Scene: Synced %d element(s), %d removed", len(order), len(removed))
	return removed
}

// upsert refreshes the handle for id. A handle replaced because the kind
// changed is returned.
func (s *Scene) upsert(id string, data gjson.Result) (replaced Element) {
	box := types.Box{
		X:      data.Get("x").Float(),
		Y:      data.Get("y").Float(),
		Width:  data.Get("width").Float(),
		Height: data.Get("height").Float(),
	}
	attrs := make(map[string]string)
	data.Get("attrs").ForEach(func(k, v gjson.Result) bool {
		attrs[k.String()] = v.String()
		return true
	})

	kind := data.Get("kind").String()
	current := s.nodes[id]
	switch kind {
	case KindText:
		n, ok := current.(*TextNode)
		if !ok {
			replaced = current
			n = &TextNode{node: node{id: id}}
			s.nodes[id] = n
		}
		n.set(box, attrs)
		n.mu.Lock()
		n.text = data.Get("text").String()
		n.mu.Unlock()
	case KindIcon:
		n, ok := current.(*IconNode)
		if !ok {
			replaced = current
			n = &IconNode{node: node{id: id}}
			s.nodes[id] = n
		}
		n.set(box, attrs)
		n.mu.Lock()
		n.icon = data.Get("icon").String()
		n.mu.Unlock()
	default:
		n, ok := current.(*ShapeNode)
		if !ok {
			replaced = current
			n = &ShapeNode{node: node{id: id}}
			s.nodes[id] = n
		}
		n.set(box, attrs)
		n.mu.Lock()
		n.shape = data.Get("shape").String()
		n.mu.Unlock()
	}
	return replaced
}

// Lookup returns the handle for id.
func (s *Scene) Lookup(id string) (Element, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	el, ok := s.nodes[id]
	return el, ok
}

// Elements returns every handle in paint order.
func (s *Scene) Elements() []Element {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Element, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.nodes[id])
	}
	return out
}

// Len returns the number of elements.
func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// HitTest returns the topmost element containing p, or nil.
func (s *Scene) HitTest(p types.Point) Element {
	els := s.Elements()
	for i := len(els) - 1; i >= 0; i-- {
		if els[i].Bounds().Contains(p) {
			return els[i]
		}
	}
	return nil
}
