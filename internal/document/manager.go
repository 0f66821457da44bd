// internal/document/manager.go
package document

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/bethropolis/infograph/internal/logger"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

const emptyDocument = "{}"

// Snapshot is an immutable view of the document at one point in time.
type Snapshot struct {
	raw string
}

// Raw returns the document JSON.
func (s Snapshot) Raw() string {
	if s.raw == "" {
		return emptyDocument
	}
	return s.raw
}

// Result returns the gjson result at path, for callers that want typed access.
func (s Snapshot) Result(path Path) gjson.Result {
	if path.IsRoot() {
		return gjson.Parse(s.Raw())
	}
	return gjson.Get(s.Raw(), path.query())
}

// Get returns the decoded value at path and whether it exists.
func (s Snapshot) Get(path Path) (interface{}, bool) {
	res := s.Result(path)
	if !res.Exists() {
		return nil, false
	}
	return res.Value(), true
}

// Value decodes the whole document into maps and slices.
func (s Snapshot) Value() interface{} {
	return gjson.Parse(s.Raw()).Value()
}

// Pretty returns an indented rendering of the document.
func (s Snapshot) Pretty() []byte {
	return pretty.Pretty([]byte(s.Raw()))
}

// Manager owns the canonical document tree. It is the only writer of
// document state; every write goes through Apply. It emits nothing.
type Manager struct {
	mu  sync.RWMutex
	doc string // immutable JSON, replaced on every change
}

// NewManager creates a manager holding an empty document.
func NewManager() *Manager {
	return &Manager{doc: emptyDocument}
}

// NewManagerFrom creates a manager from JSON. The root must be an object.
func NewManagerFrom(raw []byte) (*Manager, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("document is not valid JSON")
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return nil, fmt.Errorf("document root must be an object, got %s", root.Type)
	}
	// Normalize whitespace so snapshots compare cleanly.
	return &Manager{doc: string(pretty.Ugly(raw))}, nil
}

// Snapshot returns a read-only view of the current document.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{raw: m.doc}
}

// Restore replaces the whole document with a previous snapshot. Only the
// history manager uses it, to recover when an inverse cannot be applied.
func (m *Manager) Restore(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = s.Raw()
	logger.Debugf("Document: Restored snapshot (%d bytes)", len(m.doc))
}

// Reset drops the document back to an empty object.
func (m *Manager) Reset() {
	m.Restore(Snapshot{raw: emptyDocument})
}

// Apply performs one change and returns it with PreviousValue captured.
func (m *Manager) Apply(c Change) (Change, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c.Path.IsRoot() || !c.Path.valid() {
		return c, &PathError{Op: c.Op, Path: c.Path, Err: ErrInvalidPath}
	}

	var (
		next string
		err  error
	)
	switch c.Op {
	case OpAdd:
		next, err = m.add(c)
	case OpRemove:
		next, c.PreviousValue, err = m.remove(c)
	case OpUpdate:
		next, c.PreviousValue, err = m.update(c)
	default:
		err = &PathError{Op: c.Op, Path: c.Path, Err: fmt.Errorf("unknown op")}
	}
	if err != nil {
		logger.Debugf("Document: %v", err)
		return c, err
	}
	m.doc = next
	logger.DebugTagf("document", "Document: Applied %v", c)
	return c, nil
}

func (m *Manager) lookup(path Path) gjson.Result {
	if path.IsRoot() {
		return gjson.Parse(m.doc)
	}
	return gjson.Get(m.doc, path.query())
}

// encode renders the change value as JSON. A json.RawMessage is used as is,
// so captured values go back byte for byte.
func encode(c Change) (string, error) {
	if raw, ok := c.Value.(json.RawMessage); ok {
		if !gjson.ValidBytes(raw) {
			return "", &PathError{Op: c.Op, Path: c.Path, Err: fmt.Errorf("%w: malformed raw JSON", ErrInvalidValue)}
		}
		return string(raw), nil
	}
	raw, err := json.Marshal(c.Value)
	if err != nil {
		return "", &PathError{Op: c.Op, Path: c.Path, Err: fmt.Errorf("%w: %v", ErrInvalidValue, err)}
	}
	return string(raw), nil
}

func (m *Manager) add(c Change) (string, error) {
	parent := m.lookup(c.Path.Parent())
	if !parent.Exists() {
		return "", &PathError{Op: c.Op, Path: c.Path, Err: ErrParentNotFound}
	}
	raw, err := encode(c)
	if err != nil {
		return "", err
	}

	switch {
	case parent.IsArray():
		elems := parent.Array()
		idx, ok := c.Path.Index()
		if !ok || idx > len(elems) {
			return "", &PathError{Op: c.Op, Path: c.Path, Err: ErrInvalidIndex}
		}
		// Insert shifts later elements, so rebuild the array.
		parts := make([]string, 0, len(elems)+1)
		for i, e := range elems {
			if i == idx {
				parts = append(parts, raw)
			}
			parts = append(parts, e.Raw)
		}
		if idx == len(elems) {
			parts = append(parts, raw)
		}
		return sjson.SetRaw(m.doc, c.Path.Parent().query(), "["+strings.Join(parts, ",")+"]")
	case parent.IsObject():
		if m.lookup(c.Path).Exists() {
			return "", &PathError{Op: c.Op, Path: c.Path, Err: ErrPathExists}
		}
		return sjson.SetRaw(m.doc, c.Path.query(), raw)
	default:
		return "", &PathError{Op: c.Op, Path: c.Path, Err: ErrParentNotFound}
	}
}

func (m *Manager) remove(c Change) (string, interface{}, error) {
	res := m.lookup(c.Path)
	if !res.Exists() {
		return "", nil, &PathError{Op: c.Op, Path: c.Path, Err: ErrPathNotFound}
	}
	next, err := sjson.Delete(m.doc, c.Path.query())
	if err != nil {
		return "", nil, &PathError{Op: c.Op, Path: c.Path, Err: err}
	}
	return next, json.RawMessage(res.Raw), nil
}

func (m *Manager) update(c Change) (string, interface{}, error) {
	res := m.lookup(c.Path)
	if !res.Exists() {
		return "", nil, &PathError{Op: c.Op, Path: c.Path, Err: ErrPathNotFound}
	}
	raw, err := encode(c)
	if err != nil {
		return "", nil, err
	}
	next, err := sjson.SetRaw(m.doc, c.Path.query(), raw)
	if err != nil {
		return "", nil, &PathError{Op: c.Op, Path: c.Path, Err: err}
	}
	return next, json.RawMessage(res.Raw), nil
}
