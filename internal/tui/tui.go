// internal/tui/tui.go
package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
)

// TUI owns the terminal screen the editor draws on.
type TUI struct {
	screen tcell.Screen
}

// New opens the real terminal.
func New(defStyle tcell.Style) (*TUI, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to create tcell screen: %w", err)
	}
	return NewWithScreen(s, defStyle)
}

// NewWithScreen initializes s, e.g. a tcell.SimulationScreen in tests, with
// mouse reporting on and the cursor hidden.
func NewWithScreen(s tcell.Screen, defStyle tcell.Style) (*TUI, error) {
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize tcell screen: %w", err)
	}
	s.SetStyle(defStyle)
	s.EnableMouse(tcell.MouseButtonEvents)
	s.HideCursor()
	return &TUI{screen: s}, nil
}

// Close restores the terminal.
func (t *TUI) Close() {
	if t.screen != nil {
		t.screen.DisableMouse()
		t.screen.Fini()
	}
}

// PollEvent blocks for the next input event. It returns nil once the
// screen is closed.
func (t *TUI) PollEvent() tcell.Event {
	return t.screen.PollEvent()
}

func (t *TUI) Clear() { t.screen.Clear() }

func (t *TUI) Show() { t.screen.Show() }

// Size returns the screen size in cells.
func (t *TUI) Size() (int, int) {
	return t.screen.Size()
}

// GetScreen exposes the screen to drawing code.
func (t *TUI) GetScreen() tcell.Screen {
	return t.screen
}
