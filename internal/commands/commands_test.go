package commands

import (
	"context"
	"testing"

	"github.com/bethropolis/infograph/internal/document"
	"github.com/bethropolis/infograph/internal/element"
	"github.com/bethropolis/infograph/internal/event"
	"github.com/bethropolis/infograph/internal/history"
	"github.com/bethropolis/infograph/internal/plugin"
	"github.com/bethropolis/infograph/internal/selection"
	"github.com/bethropolis/infograph/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	doc   *document.Manager
	hist  *history.Manager
	sel   *selection.Manager
	scene *element.Scene
	bus   *event.Bus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	doc, err := document.NewManagerFrom([]byte(`{
		"elements": {
			"t": {"kind": "text", "x": 1, "y": 2, "width": 10, "height": 3, "text": "hi", "attrs": {"font-size": "12"}},
			"s": {"kind": "shape", "x": 0, "y": 0, "width": 4, "height": 4, "shape": "rect"}
		},
		"order": ["t", "s"]
	}`))
	require.NoError(t, err)

	f := &fixture{doc: doc, bus: event.NewBus(), scene: element.NewScene(), sel: selection.NewManager()}
	f.scene.Sync(doc.Snapshot())
	f.bus.Subscribe(event.TypeOptionsChange, func(e event.Event) error {
		f.scene.Sync(doc.Snapshot())
		return nil
	})
	f.hist = history.NewManager(history.Options{})
	ctx := &plugin.Context{Bus: f.bus, State: doc, Scene: f.scene}
	require.NoError(t, f.hist.Init(ctx))
	require.NoError(t, f.sel.Init(ctx))
	t.Cleanup(func() { _ = f.hist.Destroy() })
	return f
}

func (f *fixture) lookup(t *testing.T, id string) element.Element {
	t.Helper()
	el, ok := f.scene.Lookup(id)
	require.True(t, ok)
	return el
}

func TestSetAttributes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.hist.Execute(ctx, SetAttributes{ID: "t", Values: map[string]string{
		"font-size": "14", "color": "#ff0000",
	}}))
	assert.Equal(t, map[string]string{"font-size": "14", "color": "#ff0000"}, f.lookup(t, "t").Attributes())

	// Shapes start without an attrs object.
	require.NoError(t, f.hist.Execute(ctx, SetAttributes{ID: "s", Values: map[string]string{"stroke-width": "2"}}))
	assert.Equal(t, "2", f.lookup(t, "s").Attributes()["stroke-width"])

	require.NoError(t, f.hist.Execute(ctx, SetAttributes{ID: "t", Values: map[string]string{"color": ""}}))
	_, ok := f.lookup(t, "t").Attributes()["color"]
	assert.False(t, ok)

	for i := 0; i < 3; i++ {
		require.NoError(t, f.hist.Undo(ctx))
	}
	assert.Equal(t, map[string]string{"font-size": "12"}, f.lookup(t, "t").Attributes())
	assert.Empty(t, f.lookup(t, "s").Attributes())

	err := f.hist.Execute(ctx, SetAttributes{ID: "nope", Values: map[string]string{"a": "b"}})
	assert.ErrorIs(t, err, document.ErrPathNotFound)
}

func TestMoveNotifiesSelectedTarget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	el := f.lookup(t, "t")
	f.sel.Set([]element.Element{el})

	var bounds []types.Box
	f.bus.Subscribe(event.TypeSelectionGeometryChange, func(e event.Event) error {
		bounds = append(bounds, e.Data.(selection.GeometryChangeData).Target.Bounds())
		return nil
	})

	require.NoError(t, f.hist.Execute(ctx, Move{Target: el, DX: 5, DY: -1, Selection: f.sel}))
	require.Len(t, bounds, 1)
	assert.Equal(t, types.Box{X: 6, Y: 1, Width: 10, Height: 3}, bounds[0])

	require.NoError(t, f.hist.Undo(ctx))
	assert.Equal(t, types.Box{X: 1, Y: 2, Width: 10, Height: 3}, el.Bounds())
}

func TestResizeBatchOverSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	els := []element.Element{f.lookup(t, "t"), f.lookup(t, "s")}

	cmds := ForEach(els, func(el element.Element) document.Command {
		b := el.Bounds()
		return Resize{Target: el, Width: b.Width * 2, Height: -1}
	})
	require.NoError(t, f.hist.ExecuteBatch(ctx, cmds))
	assert.Equal(t, 1, f.hist.HistorySize())
	assert.Equal(t, 20.0, els[0].Bounds().Width)
	assert.Equal(t, 0.0, els[1].Bounds().Height)
}

func TestAddAndRemoveElement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	add := &AddElement{Kind: element.KindIcon, Bounds: types.Box{X: 3, Y: 3, Width: 2, Height: 2}, Content: "star"}
	require.NoError(t, f.hist.Execute(ctx, add))
	require.NotEmpty(t, add.ID)
	assert.Equal(t, 3, f.scene.Len())
	icon, ok := f.lookup(t, add.ID).(element.Iconic)
	require.True(t, ok)
	assert.Equal(t, "star", icon.Icon())

	require.NoError(t, f.hist.Execute(ctx, RemoveElement{ID: "t"}))
	assert.Equal(t, 2, f.scene.Len())
	order := f.doc.Snapshot().Result(element.OrderPath).Array()
	require.Len(t, order, 2)
	assert.Equal(t, "s", order[0].String())

	require.NoError(t, f.hist.Undo(ctx))
	ids := []string{}
	for _, el := range f.scene.Elements() {
		ids = append(ids, el.ID())
	}
	assert.Equal(t, []string{"t", "s", add.ID}, ids)

	err := f.hist.Execute(ctx, &AddElement{Kind: "sticker"})
	assert.ErrorIs(t, err, document.ErrInvalidValue)
}

func TestAddElementIntoEmptyDocument(t *testing.T) {
	doc := document.NewManager()
	tx := doc.Begin()
	add := &AddElement{ID: "first", Kind: element.KindText, Content: "x"}
	require.NoError(t, add.Apply(context.Background(), tx))

	scene := element.NewScene()
	scene.Sync(doc.Snapshot())
	_, ok := scene.Lookup("first")
	assert.True(t, ok)

	require.NoError(t, tx.Rollback())
	assert.False(t, doc.Snapshot().Result(element.ElementsPath).Exists())
}
