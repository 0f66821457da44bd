// internal/tui/drawing.go
package tui

import (
	"math"

	"github.com/bethropolis/infograph/internal/element"
	"github.com/bethropolis/infograph/internal/logger"
	"github.com/bethropolis/infograph/internal/types"
	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"
)

// Styles used when drawing.
type Styles struct {
	Default  tcell.Style
	Element  tcell.Style
	Selected tcell.Style
	Toolbar  tcell.Style
	Status   tcell.Style
	Message  tcell.Style
}

// DefaultStyles builds the drawing styles. toolbarFg and toolbarBg are hex
// colors; invalid values fall back to the terminal defaults.
func DefaultStyles(toolbarFg, toolbarBg string) Styles {
	toolbar := tcell.StyleDefault.
		Foreground(ParseColor(toolbarFg, tcell.ColorWhite)).
		Background(ParseColor(toolbarBg, tcell.ColorDarkBlue))
	return Styles{
		Default:  tcell.StyleDefault,
		Element:  tcell.StyleDefault.Foreground(tcell.ColorSilver),
		Selected: tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true),
		Toolbar:  toolbar,
		Status:   tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorBlue),
		Message:  tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlue).Bold(true),
	}
}

// ParseColor converts a hex color ("#rrggbb" or "#rgb") to a tcell color.
func ParseColor(hex string, fallback tcell.Color) tcell.Color {
	if hex == "" {
		return fallback
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		logger.DebugTagf("draw", "Draw: Bad color %q: %v", hex, err)
		return fallback
	}
	r, g, b := c.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

// drawText draws text starting at x and stops before maxX. It returns the
// column after the last drawn cluster.
func drawText(screen tcell.Screen, x, y, maxX int, text string, style tcell.Style) int {
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		width := gr.Width()
		if x+width > maxX {
			break
		}
		runes := gr.Runes()
		if len(runes) > 0 && x >= 0 {
			screen.SetContent(x, y, runes[0], runes[1:], style)
			for cw := 1; cw < width; cw++ {
				screen.SetContent(x+cw, y, ' ', nil, style)
			}
		}
		x += width
	}
	return x
}

// textWidth returns the display width of text.
func textWidth(text string) int {
	return uniseg.StringWidth(text)
}

// cellRect converts a document box into screen cells relative to scroll.
func cellRect(b types.Box, scroll types.Point) (x0, y0, x1, y1 int) {
	x0 = int(math.Round(b.X - scroll.X))
	y0 = int(math.Round(b.Y - scroll.Y))
	x1 = int(math.Round(b.Right()-scroll.X)) - 1
	y1 = int(math.Round(b.Bottom()-scroll.Y)) - 1
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	return
}

// label returns what is written inside an element.
func label(el element.Element) string {
	switch v := el.(type) {
	case element.TextEditable:
		return v.Text()
	case element.Iconic:
		return "<" + v.Icon() + ">"
	case element.Geometric:
		return v.Shape()
	}
	return el.ID()
}

// elementStyle colors an element from its "color" or "stroke" attribute.
func elementStyle(el element.Element, base tcell.Style) tcell.Style {
	attrs := el.Attributes()
	hex := attrs["color"]
	if hex == "" {
		hex = attrs["stroke"]
	}
	if hex == "" {
		return base
	}
	return base.Foreground(ParseColor(hex, tcell.ColorSilver))
}

// DrawScene draws every element as a framed box, clipped to the area above
// the status bar.
func DrawScene(t *TUI, elements []element.Element, selected func(element.Element) bool, scroll types.Point, styles Styles, statusHeight int) {
	screen := t.GetScreen()
	width, height := t.Size()
	viewHeight := height - statusHeight
	if viewHeight <= 0 || width <= 0 {
		return
	}

	set := func(x, y int, r rune, style tcell.Style) {
		if x >= 0 && x < width && y >= 0 && y < viewHeight {
			screen.SetContent(x, y, r, nil, style)
		}
	}

	for _, el := range elements {
		style := elementStyle(el, styles.Element)
		if selected != nil && selected(el) {
			style = styles.Selected
		}
		x0, y0, x1, y1 := cellRect(el.Bounds(), scroll)

		if x1 > x0 && y1 > y0 {
			for x := x0 + 1; x < x1; x++ {
				set(x, y0, tcell.RuneHLine, style)
				set(x, y1, tcell.RuneHLine, style)
			}
			for y := y0 + 1; y < y1; y++ {
				set(x0, y, tcell.RuneVLine, style)
				set(x1, y, tcell.RuneVLine, style)
				for x := x0 + 1; x < x1; x++ {
					set(x, y, ' ', styles.Default)
				}
			}
			set(x0, y0, tcell.RuneULCorner, style)
			set(x1, y0, tcell.RuneURCorner, style)
			set(x0, y1, tcell.RuneLLCorner, style)
			set(x1, y1, tcell.RuneLRCorner, style)
		}

		textY, textX, maxX := y0, x0, x1+1
		if y1 > y0+1 {
			textY, textX, maxX = y0+1, x0+1, x1
		}
		if textY >= 0 && textY < viewHeight {
			if maxX > width {
				maxX = width
			}
			drawText(screen, textX, textY, maxX, label(el), style)
		}
	}
}
