// Package element models the editable pieces of an infographic as live
// handles with structural capabilities.
package element

import (
	"sort"
	"sync"

	"github.com/bethropolis/infograph/internal/document"
	"github.com/bethropolis/infograph/internal/types"
)

// Element is a reference to one element of the document. Identity is the
// handle itself: two handles are the same element iff they compare equal.
type Element interface {
	ID() string
	Bounds() types.Box
	Attributes() map[string]string
}

// TextEditable is the capability of elements whose text can be edited.
type TextEditable interface {
	Element
	Text() string
}

// Iconic is the capability of elements that display an icon.
type Iconic interface {
	Element
	Icon() string
}

// Geometric is the capability of shape elements.
type Geometric interface {
	Element
	Shape() string
}

// Kind names as stored in the document.
const (
	KindText  = "text"
	KindIcon  = "icon"
	KindShape = "shape"
)

// Document layout helpers.
var (
	ElementsPath = document.P("elements")
	OrderPath    = document.P("order")
)

// Path returns the document path of element id.
func Path(id string) document.Path { return ElementsPath.Child(id) }

// AttrPath returns the document path of one attribute of element id.
func AttrPath(id, key string) document.Path { return Path(id).Child("attrs", key) }

// FieldPath returns the document path of a top-level field (x, y, width, ...).
func FieldPath(id, field string) document.Path { return Path(id).Child(field) }

// node is the state shared by every element kind.
type node struct {
	mu    sync.RWMutex
	id    string
	box   types.Box
	attrs map[string]string
}

func (n *node) ID() string { return n.id }

func (n *node) Bounds() types.Box {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.box
}

// Attributes returns a copy of the element's attributes.
func (n *node) Attributes() map[string]string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make(map[string]string, len(n.attrs))
	for k, v := range n.attrs {
		out[k] = v
	}
	return out
}

func (n *node) set(box types.Box, attrs map[string]string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.box = box
	n.attrs = attrs
}

// TextNode is a text element.
type TextNode struct {
	node
	text string
}

func (t *TextNode) Text() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.text
}

// IconNode is an icon element.
type IconNode struct {
	node
	icon string
}

func (i *IconNode) Icon() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.icon
}

// ShapeNode is a geometric shape element.
type ShapeNode struct {
	node
	shape string
}

func (s *ShapeNode) Shape() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shape
}

// SortedKeys returns the attribute keys of attrs in lexical order.
func SortedKeys(attrs map[string]string) []string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
