package session

import (
	"context"
	"errors"
	"testing"

	"github.com/bethropolis/infograph/internal/commands"
	"github.com/bethropolis/infograph/internal/event"
	"github.com/bethropolis/infograph/internal/history"
	"github.com/bethropolis/infograph/internal/plugin"
	"github.com/bethropolis/infograph/internal/selection"
	"github.com/bethropolis/infograph/internal/toolbar"
	"github.com/bethropolis/infograph/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doc = `{
	"elements": {
		"title": {"kind": "text", "x": 100, "y": 50, "width": 40, "height": 20, "text": "Sales", "attrs": {"font-size": "12"}},
		"logo": {"kind": "icon", "x": 10, "y": 10, "width": 8, "height": 8, "icon": "star"}
	},
	"order": ["title", "logo"]
}`

type nullRenderer struct{ mounted int }

func (r *nullRenderer) Mount(tc toolbar.Context, c toolbar.Content) (toolbar.Handle, error) {
	r.mounted++
	return r.mounted, nil
}
func (r *nullRenderer) Measure(h toolbar.Handle) types.Size   { return types.Size{Width: 10, Height: 1} }
func (r *nullRenderer) Place(h toolbar.Handle, at types.Point) {}
func (r *nullRenderer) Dispose(h toolbar.Handle)               { r.mounted-- }
func (r *nullRenderer) Viewport() types.Box                    { return types.Box{Width: 80, Height: 24} }

func TestNewAndClose(t *testing.T) {
	var log []string
	extra := plugin.Funcs{
		PluginName: "extra",
		OnInit:     func(ctx *plugin.Context) error { log = append(log, "init"); return nil },
		OnDestroy:  func() error { log = append(log, "destroy"); return nil },
	}
	r := &nullRenderer{}
	s, err := New([]byte(doc), Options{Renderer: r, Plugins: []plugin.Plugin{extra}})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Scene.Len())
	require.NotNil(t, s.Toolbar)
	_, ok := s.Plugin("toolbar")
	assert.True(t, ok)

	require.NoError(t, s.Select("title"))
	assert.Equal(t, toolbar.StateVisible, s.Toolbar.State())
	assert.Equal(t, 1, r.mounted)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, []string{"init", "destroy"}, log)
	assert.Equal(t, 0, r.mounted)
	assert.Equal(t, 0, s.Selection.Len())
	assert.ErrorIs(t, s.Execute(context.Background(), commands.RemoveElement{ID: "logo"}), history.ErrNotRunning)
}

func TestInvalidDocument(t *testing.T) {
	_, err := New([]byte(`[1, 2]`), Options{})
	assert.Error(t, err)
	_, err = New([]byte(`{"a":`), Options{})
	assert.Error(t, err)
}

func TestInitFailureAborts(t *testing.T) {
	broken := plugin.Funcs{PluginName: "broken", OnInit: func(ctx *plugin.Context) error { return errors.New("boom") }}
	_, err := New(nil, Options{Plugins: []plugin.Plugin{broken}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestPublicEvents(t *testing.T) {
	s, err := New([]byte(doc), Options{})
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	var seen []string
	var states []event.HistoryStateData
	_, err = s.On(event.TypeChange, func(e event.Event) error {
		// Public listeners observe the synced scene.
		_, ok := s.Scene.Lookup("logo")
		if ok {
			seen = append(seen, "change")
		} else {
			seen = append(seen, "change:removed")
		}
		return nil
	})
	require.NoError(t, err)
	_, err = s.On(event.TypeSelectionChange, func(e event.Event) error { return nil })
	assert.ErrorIs(t, err, ErrNotPublic)
	_, err = s.On(event.TypePublicSelection, func(e event.Event) error {
		seen = append(seen, "selection")
		_, ok := e.Data.(selection.Delta)
		assert.True(t, ok)
		return nil
	})
	require.NoError(t, err)
	_, err = s.On(event.TypePublicHistory, func(e event.Event) error {
		seen = append(seen, "history")
		states = append(states, e.Data.(event.HistoryStateData))
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, s.Select("logo"))
	require.NoError(t, s.Execute(ctx, commands.RemoveElement{ID: "logo"}))
	require.NoError(t, s.History.Undo(ctx))

	assert.Equal(t, []string{"selection", "selection", "change:removed", "history", "change", "history"}, seen)
	require.Len(t, states, 2)
	assert.Equal(t, event.HistoryStateData{Action: event.ActionExecute, CanUndo: true, CanRedo: false, HistorySize: 1}, states[0])
	assert.Equal(t, event.HistoryStateData{Action: event.ActionUndo, CanUndo: false, CanRedo: true, HistorySize: 0}, states[1])

	assert.ErrorIs(t, s.Select("missing"), ErrNoElement)
}

func TestGeometryRelay(t *testing.T) {
	s, err := New([]byte(doc), Options{})
	require.NoError(t, err)
	defer s.Close()

	moved := 0
	sub, err := s.On(event.TypePublicGeometry, func(e event.Event) error { moved++; return nil })
	require.NoError(t, err)

	require.NoError(t, s.Select("title"))
	title, _ := s.Scene.Lookup("title")
	require.NoError(t, s.Execute(context.Background(), commands.Move{Target: title, DX: 1, Selection: s.Selection}))
	assert.Equal(t, 1, moved)
	assert.Equal(t, 101.0, title.Bounds().X)

	assert.True(t, s.Off(sub))
	require.NoError(t, s.Execute(context.Background(), commands.Move{Target: title, DX: 1, Selection: s.Selection}))
	assert.Equal(t, 1, moved)
}
