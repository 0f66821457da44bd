package status

import (
	"context"
	"sync"
	"testing"

	"github.com/bethropolis/infograph/internal/commands"
	"github.com/bethropolis/infograph/internal/element"
	"github.com/bethropolis/infograph/internal/plugin"
	"github.com/bethropolis/infograph/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doc = `{
	"elements": {
		"title": {"kind": "text", "x": 1, "y": 1, "width": 10, "height": 3, "text": "Quarterly sales report"},
		"logo": {"kind": "icon", "x": 20, "y": 1, "width": 4, "height": 3, "icon": "star"}
	},
	"order": ["title", "logo"]
}`

type sink struct {
	mu       sync.Mutex
	segments map[string]string
}

func (s *sink) SetSegment(name, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if text == "" {
		delete(s.segments, name)
		return
	}
	s.segments[name] = text
}

func (s *sink) get(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.segments[name]
}

func open(t *testing.T) (*session.Session, *sink) {
	t.Helper()
	out := &sink{segments: map[string]string{}}
	s, err := session.New([]byte(doc), session.Options{Plugins: []plugin.Plugin{New(out)}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, out
}

func TestInitialSegments(t *testing.T) {
	_, out := open(t)
	assert.Equal(t, "", out.get(SegmentSelection))
	assert.Equal(t, "Undo: 0", out.get(SegmentHistory))
	assert.Equal(t, "Elements: 2, Words: 3", out.get(SegmentDocument))
}

func TestSelectionSegment(t *testing.T) {
	s, out := open(t)
	require.NoError(t, s.Select("title"))
	assert.Equal(t, "title (text)", out.get(SegmentSelection))

	require.NoError(t, s.Select("title", "logo"))
	assert.Equal(t, "2 selected (mixed)", out.get(SegmentSelection))

	s.Selection.Clear()
	assert.Equal(t, "", out.get(SegmentSelection))
}

func TestHistoryAndDocumentSegments(t *testing.T) {
	s, out := open(t)
	ctx := context.Background()

	require.NoError(t, s.Execute(ctx, commands.RemoveElement{ID: "logo"}))
	assert.Equal(t, "Undo: 1", out.get(SegmentHistory))
	assert.Equal(t, "Elements: 1, Words: 3", out.get(SegmentDocument))

	require.NoError(t, s.History.Undo(ctx))
	assert.Equal(t, "Undo: 0 (redo)", out.get(SegmentHistory))
	assert.Equal(t, "Elements: 2, Words: 3", out.get(SegmentDocument))
}

func TestDestroyClearsSegments(t *testing.T) {
	s, out := open(t)
	require.NoError(t, s.Select("logo"))
	require.NoError(t, s.Close())

	out.mu.Lock()
	defer out.mu.Unlock()
	assert.Empty(t, out.segments)
}

func TestCount(t *testing.T) {
	scene := element.NewScene()
	elements, words := Count(scene.Elements())
	assert.Equal(t, 0, elements)
	assert.Equal(t, 0, words)
}

func TestInitWithoutSink(t *testing.T) {
	_, err := session.New([]byte(doc), session.Options{Plugins: []plugin.Plugin{New(nil)}})
	assert.Error(t, err)
}
