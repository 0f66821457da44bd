// Package session assembles one editing session: bus, document, history,
// selection, scene, toolbar and any extra plugins, created and destroyed
// together.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bethropolis/infograph/internal/document"
	"github.com/bethropolis/infograph/internal/element"
	"github.com/bethropolis/infograph/internal/event"
	"github.com/bethropolis/infograph/internal/history"
	"github.com/bethropolis/infograph/internal/logger"
	"github.com/bethropolis/infograph/internal/plugin"
	"github.com/bethropolis/infograph/internal/selection"
	"github.com/bethropolis/infograph/internal/toolbar"
)

var (
	// ErrNotPublic is returned by On for internal event types.
	ErrNotPublic = errors.New("event is not part of the public surface")
	ErrClosed    = errors.New("session closed")
	ErrNoElement = errors.New("no such element")
)

// Options configures New.
type Options struct {
	MaxHistory int
	Toolbar    toolbar.Config
	// Renderer draws the toolbar. Without one no toolbar is created.
	Renderer toolbar.Renderer
	// Plugins are initialized after the built-in components, in order.
	Plugins []plugin.Plugin
}

// Session is one live editing session.
type Session struct {
	Bus       *event.Bus
	Document  *document.Manager
	History   *history.Manager
	Selection *selection.Manager
	Scene     *element.Scene
	Toolbar   *toolbar.Engine

	plugins *plugin.Manager
	ctx     *plugin.Context

	mu       sync.Mutex
	closed   bool
	internal []event.Subscription
}

// publicTypes maps the re-exposed event names to their internal source.
var publicTypes = map[event.Type]event.Type{
	event.TypeChange:          event.TypeOptionsChange,
	event.TypePublicSelection: event.TypeSelectionChange,
	event.TypePublicHistory:   event.TypeHistoryChange,
	event.TypePublicGeometry:  event.TypeSelectionGeometryChange,
}

// New builds a session over the JSON document raw. An empty raw starts an
// empty document.
func New(raw []byte, opts Options) (*Session, error) {
	doc := document.NewManager()
	if len(raw) > 0 {
		var err error
		if doc, err = document.NewManagerFrom(raw); err != nil {
			return nil, fmt.Errorf("load document: %w", err)
		}
	}

	s := &Session{
		Bus:       event.NewBus(),
		Document:  doc,
		History:   history.NewManager(history.Options{MaxHistory: opts.MaxHistory}),
		Selection: selection.NewManager(),
		Scene:     element.NewScene(),
		plugins:   plugin.NewManager(),
	}
	if opts.Renderer != nil {
		s.Toolbar = toolbar.NewEngine(opts.Toolbar, opts.Renderer)
	}

	builtins := []plugin.Plugin{
		plugin.Funcs{PluginName: "document", OnInit: s.initDocument, OnDestroy: s.destroyDocument},
		s.History,
		s.Selection,
	}
	if s.Toolbar != nil {
		builtins = append(builtins, s.Toolbar)
	}
	for _, p := range append(builtins, opts.Plugins...) {
		if err := s.plugins.Register(p); err != nil {
			return nil, err
		}
	}

	s.ctx = &plugin.Context{
		Bus:       s.Bus,
		State:     s.Document,
		Commands:  s.History,
		Selection: s.Selection,
		Scene:     s.Scene,
	}
	if err := s.plugins.InitAll(s.ctx); err != nil {
		s.Bus.Teardown()
		return nil, err
	}
	s.exposePublic()
	logger.Infof("Session: Opened with %d element(s), plugins %v", s.Scene.Len(), s.plugins.Names())
	return s, nil
}

// --- document plugin ---

func (s *Session) initDocument(ctx *plugin.Context) error {
	s.Scene.Sync(s.Document.Snapshot())
	sub := ctx.Bus.Subscribe(event.TypeOptionsChange, func(e event.Event) error {
		if removed := s.Scene.Sync(s.Document.Snapshot()); len(removed) > 0 {
			s.Selection.Remove(removed...)
		}
		return nil
	})
	s.mu.Lock()
	s.internal = append(s.internal, sub)
	s.mu.Unlock()
	return nil
}

func (s *Session) destroyDocument() error {
	s.mu.Lock()
	subs := s.internal
	s.internal = nil
	s.mu.Unlock()
	for _, sub := range subs {
		s.Bus.Unsubscribe(sub)
	}
	return nil
}

// exposePublic re-dispatches internal events under their public names. It
// runs after every plugin subscribed, so public listeners observe a synced
// scene.
func (s *Session) exposePublic() {
	relay := func(public event.Type) event.Handler {
		return func(e event.Event) error {
			if s.Bus.HasSubscribers(public) {
				s.Bus.Dispatch(public, e.Data)
			}
			return nil
		}
	}
	subs := []event.Subscription{
		s.Bus.Subscribe(event.TypeOptionsChange, relay(event.TypeChange)),
		s.Bus.Subscribe(event.TypeSelectionChange, relay(event.TypePublicSelection)),
		s.Bus.Subscribe(event.TypeSelectionGeometryChange, relay(event.TypePublicGeometry)),
		s.Bus.Subscribe(event.TypeHistoryChange, func(e event.Event) error {
			if !s.Bus.HasSubscribers(event.TypePublicHistory) {
				return nil
			}
			data, _ := e.Data.(event.HistoryChangeData)
			s.Bus.Dispatch(event.TypePublicHistory, event.HistoryStateData{
				Action:      data.Action,
				CanUndo:     s.History.CanUndo(),
				CanRedo:     s.History.CanRedo(),
				HistorySize: s.History.HistorySize(),
			})
			return nil
		}),
	}
	s.mu.Lock()
	s.internal = append(s.internal, subs...)
	s.mu.Unlock()
}

// --- Public surface ---

// On subscribes to one of the public events: change, selectionChange,
// historyChange or geometryChange.
func (s *Session) On(t event.Type, h event.Handler) (event.Subscription, error) {
	if _, ok := publicTypes[t]; !ok {
		return event.Subscription{}, fmt.Errorf("%w: %s", ErrNotPublic, t)
	}
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return event.Subscription{}, ErrClosed
	}
	return s.Bus.Subscribe(t, h), nil
}

// Off removes a subscription made with On.
func (s *Session) Off(sub event.Subscription) bool {
	return s.Bus.Unsubscribe(sub)
}

// Commands returns the command helpers.
func (s *Session) Commands() plugin.Commands { return s.History }

// Context returns the context plugins were initialized with.
func (s *Session) Context() *plugin.Context { return s.ctx }

// Plugin returns a registered plugin by name.
func (s *Session) Plugin(name string) (plugin.Plugin, bool) { return s.plugins.Get(name) }

// Execute runs cmd through history.
func (s *Session) Execute(ctx context.Context, cmd document.Command) error {
	return s.History.Execute(ctx, cmd)
}

// Select replaces the selection with the elements named by ids.
func (s *Session) Select(ids ...string) error {
	elements := make([]element.Element, 0, len(ids))
	for _, id := range ids {
		el, ok := s.Scene.Lookup(id)
		if !ok {
			return fmt.Errorf("%w: %q", ErrNoElement, id)
		}
		elements = append(elements, el)
	}
	s.Selection.Set(elements)
	return nil
}

// Close destroys every plugin in reverse order and tears the bus down. It is
// safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	err := s.plugins.DestroyAll()
	s.Bus.Teardown()
	logger.Infof("Session: Closed")
	return err
}
