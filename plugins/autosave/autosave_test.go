package autosave

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bethropolis/infograph/internal/commands"
	"github.com/bethropolis/infograph/internal/document"
	"github.com/bethropolis/infograph/internal/plugin"
	"github.com/bethropolis/infograph/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doc = `{"elements": {"title": {"kind": "text", "x": 1, "y": 1, "width": 10, "height": 3, "text": "Hi"}}, "order": ["title"]}`

func open(t *testing.T, p *AutoSave) *session.Session {
	t.Helper()
	s, err := session.New([]byte(doc), session.Options{Plugins: []plugin.Plugin{p}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func edit(t *testing.T, s *session.Session, size string) {
	t.Helper()
	require.NoError(t, s.Execute(context.Background(), commands.SetAttributes{
		ID:     "title",
		Values: map[string]string{"font-size": size},
	}))
}

func TestSaveOnlyWhenDirty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	var saved []string
	p := New(Options{Path: path, OnSaved: func(p string) { saved = append(saved, p) }})
	s := open(t, p)

	wrote, err := p.Save()
	require.NoError(t, err)
	assert.False(t, wrote)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	edit(t, s, "20")
	assert.True(t, p.Dirty())
	wrote, err = p.Save()
	require.NoError(t, err)
	assert.True(t, wrote)
	assert.False(t, p.Dirty())
	assert.Equal(t, []string{path}, saved)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	got, err := document.NewManagerFrom(data)
	require.NoError(t, err)
	assert.Equal(t, s.Document.Snapshot().Value(), got.Snapshot().Value())

	wrote, err = p.Save()
	require.NoError(t, err)
	assert.False(t, wrote)
	assert.Equal(t, 1, p.Saves())
}

func TestUndoMarksDirty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	p := New(Options{Path: path})
	s := open(t, p)

	edit(t, s, "20")
	_, err := p.Save()
	require.NoError(t, err)
	require.NoError(t, s.History.Undo(context.Background()))
	assert.True(t, p.Dirty())
}

func TestSaveWithoutPath(t *testing.T) {
	p := New(Options{})
	s := open(t, p)
	edit(t, s, "20")

	_, err := p.Save()
	assert.ErrorIs(t, err, ErrNoPath)
	assert.True(t, p.Dirty())
}

func TestSaverLoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	p := New(Options{Enabled: true, Interval: 10 * time.Millisecond, Path: path})
	s := open(t, p)
	edit(t, s, "20")

	assert.Eventually(t, func() bool { return p.Saves() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Close())

	err := s.Execute(context.Background(), commands.SetAttributes{ID: "title", Values: map[string]string{"font-size": "30"}})
	assert.Error(t, err, "session is closed")
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, p.Saves())
}

func TestDefaults(t *testing.T) {
	p := New(Options{})
	assert.Equal(t, "autosave", p.Name())
	assert.Equal(t, defaultInterval, p.opts.Interval)
	assert.NoError(t, p.Destroy(), "destroy before init is a no-op")
}
