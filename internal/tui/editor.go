package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/atotto/clipboard"
	"github.com/bethropolis/infograph/internal/commands"
	"github.com/bethropolis/infograph/internal/config"
	"github.com/bethropolis/infograph/internal/document"
	"github.com/bethropolis/infograph/internal/element"
	"github.com/bethropolis/infograph/internal/event"
	"github.com/bethropolis/infograph/internal/logger"
	"github.com/bethropolis/infograph/internal/plugin"
	"github.com/bethropolis/infograph/internal/session"
	"github.com/bethropolis/infograph/internal/toolbar"
	"github.com/bethropolis/infograph/internal/types"
	"github.com/gdamore/tcell/v2"
)

// Editor is the interactive terminal host around one session.
type Editor struct {
	tui      *TUI
	cfg      *config.Config
	path     string
	styles   Styles
	status   *StatusBar
	renderer *ToolbarRenderer
	session  *session.Session

	mu        sync.Mutex
	focus     int
	scroll    types.Point
	modified  bool
	clipboard string

	quit     chan struct{}
	quitOnce sync.Once
	redraw   chan struct{}
}

// NewEditor prepares an editor for the document at path. Open must be called
// before Run.
func NewEditor(t *TUI, cfg *config.Config, path string) *Editor {
	styles := DefaultStyles(cfg.Toolbar.Fg, cfg.Toolbar.Bg)
	e := &Editor{
		tui:    t,
		cfg:    cfg,
		path:   path,
		styles: styles,
		status: NewStatusBar(StatusConfig{
			StyleDefault:   styles.Status,
			StyleMessage:   styles.Message,
			MessageTimeout: config.MessageTimeout,
		}),
		focus:  -1,
		quit:   make(chan struct{}),
		redraw: make(chan struct{}, 1),
	}
	e.renderer = NewToolbarRenderer(t, styles.Toolbar, config.StatusBarHeight, e.Scroll)
	return e
}

// StatusBar returns the status line, for plugins that report on it.
func (e *Editor) StatusBar() *StatusBar { return e.status }

// Toolbar returns the toolbar renderer.
func (e *Editor) Toolbar() *ToolbarRenderer { return e.renderer }

// Session returns the open session.
func (e *Editor) Session() *session.Session { return e.session }

// Open starts a session over raw with the extra plugins.
func (e *Editor) Open(raw []byte, extra ...plugin.Plugin) error {
	tbCfg := toolbar.Config{
		ClassName:       e.cfg.Toolbar.ClassName,
		IncludeDefaults: toolbar.Bool(e.cfg.Toolbar.IncludeDefaults),
		Margin:          e.cfg.Toolbar.Margin,
		Style:           map[string]string{"fg": e.cfg.Toolbar.Fg, "bg": e.cfg.Toolbar.Bg},
	}
	s, err := session.New(raw, session.Options{
		MaxHistory: e.cfg.Editor.HistoryLimit,
		Toolbar:    tbCfg,
		Renderer:   e.renderer,
		Plugins:    extra,
	})
	if err != nil {
		return err
	}
	e.session = s

	redraw := func(ev event.Event) error { e.requestRedraw(); return nil }
	for _, t := range []event.Type{event.TypePublicSelection, event.TypePublicGeometry, event.TypePublicHistory} {
		if _, err := s.On(t, redraw); err != nil {
			return err
		}
	}
	if _, err := s.On(event.TypeChange, func(ev event.Event) error {
		e.mu.Lock()
		e.modified = true
		e.mu.Unlock()
		e.requestRedraw()
		return nil
	}); err != nil {
		return err
	}
	e.status.SetFileInfo(e.path, false)
	return nil
}

// Close ends the session.
func (e *Editor) Close() error {
	if e.session == nil {
		return nil
	}
	return e.session.Close()
}

// Run starts the event loop and draws until quit.
func (e *Editor) Run() error {
	if e.session == nil {
		return errors.New("editor: no open session")
	}
	go e.eventLoop()

	e.status.SetTemporaryMessage("infograph - Tab select | arrows move | 1-9 toolbar | u/r undo/redo | s save | q quit")
	e.requestRedraw()
	for {
		select {
		case <-e.quit:
			if e.Modified() {
				logger.Warnf("Editor: Exited with unsaved changes.")
			}
			return nil
		case <-e.redraw:
			e.Draw()
		}
	}
}

func (e *Editor) eventLoop() {
	for {
		ev := e.tui.PollEvent()
		if ev == nil {
			return
		}
		needsRedraw := false
		switch data := ev.(type) {
		case *tcell.EventResize:
			e.tui.GetScreen().Sync()
			e.session.Toolbar.Render(e.session.Selection.Current())
			needsRedraw = true
		case *tcell.EventKey:
			needsRedraw = e.HandleKey(data)
		case *tcell.EventMouse:
			needsRedraw = e.HandleMouse(data)
		}
		if needsRedraw {
			e.requestRedraw()
		}
	}
}

func (e *Editor) requestRedraw() {
	select {
	case e.redraw <- struct{}{}:
	default:
	}
}

// Quit stops Run.
func (e *Editor) Quit() {
	e.quitOnce.Do(func() { close(e.quit) })
}

// Done is closed once the editor quits.
func (e *Editor) Done() <-chan struct{} { return e.quit }

// --- State ---

// Scroll returns the document offset of the view.
func (e *Editor) Scroll() types.Point {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scroll
}

// Modified reports unsaved changes.
func (e *Editor) Modified() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.modified
}

// Clipboard returns the internal clipboard.
func (e *Editor) Clipboard() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clipboard
}

// --- Drawing ---

// Draw clears the screen and redraws the scene, toolbar and status line.
func (e *Editor) Draw() {
	screen := e.tui.GetScreen()
	width, height := e.tui.Size()

	e.status.SetFileInfo(e.path, e.Modified())
	e.tui.Clear()
	sel := e.session.Selection
	DrawScene(e.tui, e.session.Scene.Elements(), sel.Contains, e.Scroll(), e.styles, config.StatusBarHeight)
	e.renderer.Draw(screen)
	e.status.Draw(screen, width, height)
	e.tui.Show()
}

// --- Input ---

// HandleKey runs the action bound to ev and reports whether a redraw is
// needed.
func (e *Editor) HandleKey(ev *tcell.EventKey) bool {
	ctx := context.Background()
	var err error

	switch ev.Key() {
	case tcell.KeyCtrlC, tcell.KeyCtrlQ:
		e.Quit()
		return false
	case tcell.KeyCtrlS:
		err = e.Save()
	case tcell.KeyCtrlZ:
		err = e.session.History.Undo(ctx)
	case tcell.KeyCtrlY:
		err = e.session.History.Redo(ctx)
	case tcell.KeyTab:
		e.cycleFocus(1)
	case tcell.KeyBacktab:
		e.cycleFocus(-1)
	case tcell.KeyEscape:
		e.session.Selection.Clear()
	case tcell.KeyUp:
		err = e.moveSelection(0, -1)
	case tcell.KeyDown:
		err = e.moveSelection(0, 1)
	case tcell.KeyLeft:
		err = e.moveSelection(-1, 0)
	case tcell.KeyRight:
		err = e.moveSelection(1, 0)
	case tcell.KeyDelete:
		err = e.removeSelection()
	case tcell.KeyPgDn:
		e.scrollBy(e.pageSize())
	case tcell.KeyPgUp:
		e.scrollBy(-e.pageSize())
	case tcell.KeyHome:
		e.mu.Lock()
		e.scroll = types.Point{}
		e.mu.Unlock()
		e.session.Toolbar.Render(e.session.Selection.Current())
	case tcell.KeyRune:
		return e.handleRune(ctx, ev.Rune())
	default:
		return false
	}
	e.report(err)
	return true
}

// HandleMouse selects the topmost element under a left click. Shift-click
// toggles it in the selection; clicking empty space clears it.
func (e *Editor) HandleMouse(ev *tcell.EventMouse) bool {
	if ev.Buttons()&tcell.Button1 == 0 {
		return false
	}
	x, y := ev.Position()
	scroll := e.Scroll()
	el := e.session.Scene.HitTest(types.Point{X: float64(x) + scroll.X, Y: float64(y) + scroll.Y})
	if el == nil {
		if ev.Modifiers()&tcell.ModShift == 0 {
			e.session.Selection.Clear()
		}
		return true
	}

	for i, candidate := range e.session.Scene.Elements() {
		if candidate == el {
			e.mu.Lock()
			e.focus = i
			e.mu.Unlock()
			break
		}
	}
	if ev.Modifiers()&tcell.ModShift != 0 {
		e.session.Selection.Toggle(el)
	} else {
		e.session.Selection.Set([]element.Element{el})
	}
	return true
}

func (e *Editor) handleRune(ctx context.Context, r rune) bool {
	var err error
	switch {
	case r == 'q':
		e.Quit()
		return false
	case r >= '1' && r <= '9':
		err = e.triggerItem(ctx, int(r-'1'))
	case r == 'u':
		err = e.session.History.Undo(ctx)
	case r == 'r':
		err = e.session.History.Redo(ctx)
	case r == ' ':
		if el := e.focused(); el != nil {
			e.session.Selection.Toggle(el)
		}
	case r == '+':
		err = e.resizeSelection(1)
	case r == '-':
		err = e.resizeSelection(-1)
	case r == 'd':
		err = e.removeSelection()
	case r == 't':
		err = e.addText(ctx)
	case r == 'c':
		err = e.copySelection()
	case r == 's':
		err = e.Save()
	default:
		return false
	}
	e.report(err)
	return true
}

func (e *Editor) report(err error) {
	if err == nil {
		return
	}
	logger.Warnf("Editor: %v", err)
	var cerr *document.CommandError
	if errors.As(err, &cerr) {
		e.status.SetTemporaryMessage("%s failed: %v", cerr.Command, cerr.Err)
		return
	}
	e.status.SetTemporaryMessage("Error: %v", err)
}

// --- Actions ---

func (e *Editor) focused() element.Element {
	els := e.session.Scene.Elements()
	if len(els) == 0 {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.focus >= len(els) || e.focus < 0 {
		e.focus = 0
	}
	return els[e.focus]
}

func (e *Editor) cycleFocus(dir int) {
	els := e.session.Scene.Elements()
	if len(els) == 0 {
		return
	}
	e.mu.Lock()
	e.focus = ((e.focus+dir)%len(els) + len(els)) % len(els)
	el := els[e.focus]
	e.mu.Unlock()
	e.session.Selection.Set([]element.Element{el})
}

func (e *Editor) moveSelection(dx, dy float64) error {
	sel := e.session.Selection.Current()
	if len(sel) == 0 {
		return nil
	}
	cmds := commands.ForEach(sel, func(el element.Element) document.Command {
		return commands.Move{Target: el, DX: dx, DY: dy, Selection: e.session.Selection}
	})
	return e.session.History.ExecuteBatch(context.Background(), cmds)
}

func (e *Editor) resizeSelection(delta float64) error {
	sel := e.session.Selection.Current()
	if len(sel) == 0 {
		return nil
	}
	cmds := commands.ForEach(sel, func(el element.Element) document.Command {
		b := el.Bounds()
		return commands.Resize{Target: el, Width: b.Width + delta, Height: b.Height + delta, Selection: e.session.Selection}
	})
	return e.session.History.ExecuteBatch(context.Background(), cmds)
}

func (e *Editor) removeSelection() error {
	sel := e.session.Selection.Current()
	cmds := commands.ForEach(sel, func(el element.Element) document.Command {
		return commands.RemoveElement{ID: el.ID()}
	})
	return e.session.History.ExecuteBatch(context.Background(), cmds)
}

func (e *Editor) addText(ctx context.Context) error {
	scroll := e.Scroll()
	add := &commands.AddElement{
		Kind:    element.KindText,
		Bounds:  types.Box{X: scroll.X + 2, Y: scroll.Y + 2, Width: 12, Height: 3},
		Content: "Text",
	}
	if err := e.session.Execute(ctx, add); err != nil {
		return err
	}
	return e.session.Select(add.ID)
}

func (e *Editor) triggerItem(ctx context.Context, index int) error {
	content, ok := e.session.Toolbar.Content()
	if !ok || index >= len(content.Items) {
		return nil
	}
	return e.session.Toolbar.Trigger(ctx, content.Items[index].Key)
}

// copySelection copies the shared attributes of the selection.
func (e *Editor) copySelection() error {
	sel := e.session.Selection.Current()
	if len(sel) == 0 {
		return nil
	}
	attrs := toolbar.MergeAttributes(toolbar.Classify(sel), sel)
	lines := make([]string, 0, len(attrs))
	for _, k := range element.SortedKeys(attrs) {
		lines = append(lines, k+": "+attrs[k])
	}
	text := strings.Join(lines, "\n")

	e.mu.Lock()
	e.clipboard = text
	e.mu.Unlock()
	if e.cfg.Editor.SystemClipboard {
		if err := clipboard.WriteAll(text); err != nil {
			return fmt.Errorf("system clipboard: %w", err)
		}
	}
	e.status.SetTemporaryMessage("Copied %d attribute(s)", len(lines))
	return nil
}

// Save writes the document to the editor's path.
func (e *Editor) Save() error {
	if e.path == "" {
		return errors.New("no file name")
	}
	if err := e.session.Document.Snapshot().WriteFile(e.path); err != nil {
		return err
	}
	e.mu.Lock()
	e.modified = false
	e.mu.Unlock()
	e.status.SetTemporaryMessage("Saved %s", e.path)
	logger.Infof("Editor: Saved %s", e.path)
	return nil
}

// MarkSaved clears the modified flag when path is the edited file. Plugins
// writing the document on their own call it after a successful write.
func (e *Editor) MarkSaved(path string) {
	if path == "" || path != e.path {
		return
	}
	e.mu.Lock()
	e.modified = false
	e.mu.Unlock()
	e.requestRedraw()
}

func (e *Editor) pageSize() float64 {
	_, height := e.tui.Size()
	page := (height - config.StatusBarHeight) / 2
	if page < 1 {
		page = 1
	}
	return float64(page)
}

func (e *Editor) scrollBy(dy float64) {
	e.mu.Lock()
	e.scroll.Y += dy
	if e.scroll.Y < 0 {
		e.scroll.Y = 0
	}
	e.mu.Unlock()
	// The toolbar extent follows the viewport.
	e.session.Toolbar.Render(e.session.Selection.Current())
}
