// internal/plugin/plugin.go
package plugin

import (
	"context"

	"github.com/bethropolis/infograph/internal/document"
	"github.com/bethropolis/infograph/internal/element"
	"github.com/bethropolis/infograph/internal/event"
)

// Commands is the command-helper surface plugins use to mutate the document
// and query history state.
type Commands interface {
	Execute(ctx context.Context, cmd document.Command) error
	ExecuteBatch(ctx context.Context, cmds []document.Command) error
	Undo(ctx context.Context) error
	Redo(ctx context.Context) error
	CanUndo() bool
	CanRedo() bool
	HistorySize() int
}

// Selection is what plugins may do with the current selection.
type Selection interface {
	Current() []element.Element
	Set(elements []element.Element)
	NotifyGeometryChange(target element.Element)
}

// Context is handed to every plugin's Init. Fields may be nil for plugins
// initialized before the component they would point to exists.
type Context struct {
	Bus       *event.Bus
	State     *document.Manager
	Commands  Commands
	Selection Selection
	Scene     *element.Scene
}

// Plugin defines the lifecycle every component hosted by an editing session
// follows.
type Plugin interface {
	// Name returns the unique identifier name of the plugin.
	Name() string

	// Init is called exactly once, before first use.
	Init(ctx *Context) error

	// Destroy is called exactly once. It must unsubscribe every handler the
	// plugin registered and dispose anything it mounted.
	Destroy() error
}

// Funcs adapts a pair of functions into a Plugin, for components that cannot
// import this package.
type Funcs struct {
	PluginName string
	OnInit     func(ctx *Context) error
	OnDestroy  func() error
}

var _ Plugin = Funcs{}

func (f Funcs) Name() string { return f.PluginName }

func (f Funcs) Init(ctx *Context) error {
	if f.OnInit == nil {
		return nil
	}
	return f.OnInit(ctx)
}

func (f Funcs) Destroy() error {
	if f.OnDestroy == nil {
		return nil
	}
	return f.OnDestroy()
}
