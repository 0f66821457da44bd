package toolbar

import (
	"context"

	"github.com/bethropolis/infograph/internal/element"
	"github.com/bethropolis/infograph/internal/plugin"
	"github.com/bethropolis/infograph/internal/types"
)

// Context describes the selection the toolbar is rendered for.
type Context struct {
	Selection  []element.Element
	Kind       Kind
	Attributes map[string]string // merged attributes
	Commands   plugin.Commands
}

// Item is one toolbar control.
type Item struct {
	Key   string
	Label string
	// Value is the shared value of the attribute the item edits. It is empty
	// and Indeterminate is set when the selection disagrees.
	Value         string
	Indeterminate bool
	Action        func(ctx context.Context, tc Context) error
}

// ItemSource produces items for a selection.
type ItemSource func(tc Context) []Item

// Items groups the custom item sources. Any of them may be nil.
type Items struct {
	Prepend  ItemSource
	Text     ItemSource
	Icon     ItemSource
	Geometry ItemSource
	Mixed    ItemSource
	Append   ItemSource
}

func (it Items) forKind(k Kind) ItemSource {
	switch k {
	case KindText:
		return it.Text
	case KindIcon:
		return it.Icon
	case KindGeometry:
		return it.Geometry
	default:
		return it.Mixed
	}
}

// Content is what gets mounted for one render.
type Content struct {
	Context   Context
	Items     []Item
	Style     map[string]string
	ClassName string
	// Body carries whatever a custom Render returned beyond items.
	Body interface{}
}

// Handle identifies mounted content. Its meaning belongs to the Renderer.
type Handle interface{}

// Renderer is the UI strategy the engine drives. The engine never touches a
// UI framework directly.
type Renderer interface {
	Mount(tc Context, content Content) (Handle, error)
	Measure(h Handle) types.Size
	Place(h Handle, at types.Point)
	Dispose(h Handle)
	// Viewport returns the visible area in document coordinates, scroll
	// offset included.
	Viewport() types.Box
}

// Config customizes the toolbar.
type Config struct {
	Style     map[string]string
	ClassName string
	// GetContainer returns the box of the positioned ancestor hosting the
	// toolbar. When it reports false the viewport is used.
	GetContainer func() (types.Box, bool)
	// Render replaces item resolution entirely. Returning nil hides the
	// toolbar.
	Render          func(tc Context) *Content
	Items           Items
	IncludeDefaults *bool // nil means true
	Filter          func(selection []element.Element) bool
	Margin          float64
}

func (c Config) includeDefaults() bool {
	return c.IncludeDefaults == nil || *c.IncludeDefaults
}

func (c Config) margin() float64 {
	if c.Margin <= 0 {
		return DefaultMargin
	}
	return c.Margin
}

// Bool returns a pointer to b, for Config.IncludeDefaults.
func Bool(b bool) *bool { return &b }
