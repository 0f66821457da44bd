package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bethropolis/infograph/internal/config"
	"github.com/bethropolis/infograph/internal/document"
	"github.com/bethropolis/infograph/internal/element"
	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chart = `{
	"elements": {
		"title": {"kind": "text", "x": 10, "y": 5, "width": 20, "height": 3, "text": "Sales", "attrs": {"font-size": "12", "color": "#ff0000"}},
		"logo": {"kind": "icon", "x": 40, "y": 5, "width": 8, "height": 3, "icon": "star"}
	},
	"order": ["title", "logo"]
}`

func newEditor(t *testing.T) (*Editor, tcell.SimulationScreen, string) {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	ui, err := NewWithScreen(sim, tcell.StyleDefault)
	require.NoError(t, err)
	sim.SetSize(80, 24)
	t.Cleanup(ui.Close)

	cfg := config.NewDefaultConfig()
	cfg.Editor.SystemClipboard = false
	path := filepath.Join(t.TempDir(), "chart.json")

	ed := NewEditor(ui, cfg, path)
	require.NoError(t, ed.Open([]byte(chart)))
	t.Cleanup(func() { _ = ed.Close() })
	return ed, sim, path
}

func key(k tcell.Key) *tcell.EventKey { return tcell.NewEventKey(k, 0, tcell.ModNone) }

func runeKey(r rune) *tcell.EventKey { return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone) }

func attr(t *testing.T, ed *Editor, id, name string) string {
	t.Helper()
	el, ok := ed.Session().Scene.Lookup(id)
	require.True(t, ok)
	return el.Attributes()[name]
}

func TestTabSelectsAndShowsToolbar(t *testing.T) {
	ed, _, _ := newEditor(t)
	_, visible := ed.Toolbar().Text()
	assert.False(t, visible)

	assert.True(t, ed.HandleKey(key(tcell.KeyTab)))
	require.Equal(t, 1, ed.Session().Selection.Len())
	text, visible := ed.Toolbar().Text()
	require.True(t, visible)
	assert.Contains(t, text, "1:A- 12")
	assert.Contains(t, text, "4:Del")

	ed.HandleKey(key(tcell.KeyEscape))
	_, visible = ed.Toolbar().Text()
	assert.False(t, visible)
}

func TestToolbarDigitsAndUndo(t *testing.T) {
	ed, _, _ := newEditor(t)
	ed.HandleKey(key(tcell.KeyTab))

	ed.HandleKey(runeKey('2'))
	assert.Equal(t, "13", attr(t, ed, "title", "font-size"))
	assert.True(t, ed.Modified())
	text, _ := ed.Toolbar().Text()
	assert.Contains(t, text, "2:A+ 13")

	ed.HandleKey(runeKey('u'))
	assert.Equal(t, "12", attr(t, ed, "title", "font-size"))
	ed.HandleKey(key(tcell.KeyCtrlY))
	assert.Equal(t, "13", attr(t, ed, "title", "font-size"))
}

func TestMoveResizeAndRemove(t *testing.T) {
	ed, _, _ := newEditor(t)
	ed.HandleKey(key(tcell.KeyTab))
	title, _ := ed.Session().Scene.Lookup("title")

	ed.HandleKey(key(tcell.KeyRight))
	ed.HandleKey(key(tcell.KeyDown))
	ed.HandleKey(runeKey('+'))
	b := title.Bounds()
	assert.Equal(t, 11.0, b.X)
	assert.Equal(t, 6.0, b.Y)
	assert.Equal(t, 21.0, b.Width)
	assert.Equal(t, 3, ed.Session().History.HistorySize())

	ed.HandleKey(runeKey(' '))
	assert.Equal(t, 0, ed.Session().Selection.Len(), "space toggles the focused element off")
	ed.HandleKey(runeKey(' '))
	ed.HandleKey(runeKey('d'))
	_, ok := ed.Session().Scene.Lookup("title")
	assert.False(t, ok)
	assert.Equal(t, 0, ed.Session().Selection.Len())
}

func TestAddTextSelectsIt(t *testing.T) {
	ed, _, _ := newEditor(t)
	ed.HandleKey(runeKey('t'))
	assert.Equal(t, 3, ed.Session().Scene.Len())
	sel := ed.Session().Selection.Current()
	require.Len(t, sel, 1)
	text, ok := sel[0].(element.TextEditable)
	require.True(t, ok)
	assert.Equal(t, "Text", text.Text())
}

func TestCopyUsesInternalClipboard(t *testing.T) {
	ed, _, _ := newEditor(t)
	ed.HandleKey(key(tcell.KeyTab))
	ed.HandleKey(runeKey('c'))
	assert.Equal(t, "color: #ff0000\nfont-size: 12", ed.Clipboard())
	msg, temporary := ed.StatusBar().Text()
	assert.True(t, temporary)
	assert.Equal(t, "Copied 2 attribute(s)", msg)
}

func TestSaveWritesDocument(t *testing.T) {
	ed, _, path := newEditor(t)
	ed.HandleKey(key(tcell.KeyTab))
	ed.HandleKey(runeKey('2'))
	require.True(t, ed.Modified())

	ed.HandleKey(runeKey('s'))
	assert.False(t, ed.Modified())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	saved, err := document.NewManagerFrom(data)
	require.NoError(t, err)
	assert.Equal(t, ed.Session().Document.Snapshot().Value(), saved.Snapshot().Value())
}

func TestDrawScene(t *testing.T) {
	ed, sim, _ := newEditor(t)
	ed.HandleKey(key(tcell.KeyTab))
	ed.Draw()

	cells, width, height := sim.GetContents()
	require.Equal(t, 80, width)
	row := func(y int) []rune {
		out := make([]rune, width)
		for x := 0; x < width; x++ {
			out[x] = ' '
			if runes := cells[y*width+x].Runes; len(runes) > 0 {
				out[x] = runes[0]
			}
		}
		return out
	}

	assert.Equal(t, "Sales", string(row(6)[11:16]))
	assert.Equal(t, "<star>", string(row(6)[41:47]))
	assert.Equal(t, tcell.RuneULCorner, row(5)[10])
	assert.Equal(t, tcell.RuneLRCorner, row(7)[29])
	assert.Contains(t, string(row(16)), "1:A- 12", "toolbar below the selection")
	assert.True(t, strings.Contains(string(row(height-1)), "chart.json"))
}

func TestQuit(t *testing.T) {
	ed, _, _ := newEditor(t)
	assert.False(t, ed.HandleKey(runeKey('q')))
	select {
	case <-ed.Done():
	default:
		t.Fatal("editor did not quit")
	}
	ed.Quit()
}

func TestErrorsGoToStatusBar(t *testing.T) {
	ed, _, _ := newEditor(t)
	ed.path = ""
	ed.HandleKey(key(tcell.KeyCtrlS))
	msg, temporary := ed.StatusBar().Text()
	assert.True(t, temporary)
	assert.Equal(t, "Error: no file name", msg)
}

func TestMouseSelection(t *testing.T) {
	ed, _, _ := newEditor(t)
	click := func(x, y int, mod tcell.ModMask) {
		ed.HandleMouse(tcell.NewEventMouse(x, y, tcell.Button1, mod))
	}

	click(12, 6, tcell.ModNone)
	require.Equal(t, 1, ed.Session().Selection.Len())
	primary, ok := ed.Session().Selection.Primary()
	require.True(t, ok)
	assert.Equal(t, "title", primary.ID())

	click(42, 6, tcell.ModShift)
	assert.Equal(t, 2, ed.Session().Selection.Len())
	content, ok := ed.Session().Toolbar.Content()
	require.True(t, ok)
	require.Len(t, content.Items, 1, "mixed selections only offer remove")

	click(70, 20, tcell.ModNone)
	assert.Equal(t, 0, ed.Session().Selection.Len())
	assert.False(t, ed.HandleMouse(tcell.NewEventMouse(12, 6, tcell.ButtonNone, tcell.ModNone)))
}
