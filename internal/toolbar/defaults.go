package toolbar

import (
	"context"
	"strconv"

	"github.com/bethropolis/infograph/internal/commands"
	"github.com/bethropolis/infograph/internal/document"
	"github.com/bethropolis/infograph/internal/element"
)

// Attribute keys edited by the default items.
const (
	AttrFontSize    = "font-size"
	AttrFontWeight  = "font-weight"
	AttrIconSize    = "size"
	AttrStrokeWidth = "stroke-width"
)

type stepper struct {
	key      string
	fallback float64
	step     float64
	min      float64
}

var (
	fontSize    = stepper{key: AttrFontSize, fallback: 14, step: 1, min: 1}
	iconSize    = stepper{key: AttrIconSize, fallback: 16, step: 2, min: 2}
	strokeWidth = stepper{key: AttrStrokeWidth, fallback: 1, step: 1, min: 0}
)

// DefaultItems returns the built-in controls for a selection kind.
func DefaultItems(tc Context) []Item {
	var items []Item
	switch tc.Kind {
	case KindText:
		items = append(items,
			fontSize.item(tc, -1, "A-"),
			fontSize.item(tc, +1, "A+"),
			boldItem(tc),
		)
	case KindIcon:
		items = append(items,
			iconSize.item(tc, -1, "Icon-"),
			iconSize.item(tc, +1, "Icon+"),
		)
	case KindGeometry:
		items = append(items,
			strokeWidth.item(tc, -1, "Stroke-"),
			strokeWidth.item(tc, +1, "Stroke+"),
		)
	}
	return append(items, removeItem(tc))
}

func (s stepper) item(tc Context, dir float64, label string) Item {
	key := s.key + "-dec"
	if dir > 0 {
		key = s.key + "-inc"
	}
	value, shared := tc.Attributes[s.key]
	return Item{
		Key:           key,
		Label:         label,
		Value:         value,
		Indeterminate: !shared,
		Action: func(ctx context.Context, tc Context) error {
			cmds := commands.ForEach(tc.Selection, func(el element.Element) document.Command {
				next := s.next(el.Attributes()[s.key], dir)
				return commands.SetAttributes{ID: el.ID(), Values: map[string]string{s.key: next}}
			})
			return tc.Commands.ExecuteBatch(ctx, cmds)
		},
	}
}

// next steps one element's own value, so a selection with differing values
// keeps its spread.
func (s stepper) next(current string, dir float64) string {
	v, err := strconv.ParseFloat(current, 64)
	if err != nil {
		v = s.fallback
	}
	v += dir * s.step
	if v < s.min {
		v = s.min
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func boldItem(tc Context) Item {
	value, shared := tc.Attributes[AttrFontWeight]
	return Item{
		Key:           "bold",
		Label:         "B",
		Value:         value,
		Indeterminate: !shared,
		Action: func(ctx context.Context, tc Context) error {
			next := "bold"
			if tc.Attributes[AttrFontWeight] == "bold" {
				next = ""
			}
			cmds := commands.ForEach(tc.Selection, func(el element.Element) document.Command {
				return commands.SetAttributes{ID: el.ID(), Values: map[string]string{AttrFontWeight: next}}
			})
			return tc.Commands.ExecuteBatch(ctx, cmds)
		},
	}
}

func removeItem(tc Context) Item {
	return Item{
		Key:   "remove",
		Label: "Del",
		Action: func(ctx context.Context, tc Context) error {
			cmds := commands.ForEach(tc.Selection, func(el element.Element) document.Command {
				return commands.RemoveElement{ID: el.ID()}
			})
			return tc.Commands.ExecuteBatch(ctx, cmds)
		},
	}
}
