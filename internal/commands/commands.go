// Package commands holds the concrete document commands issued by the
// toolbar and the terminal editor.
package commands

import (
	"context"
	"fmt"

	"github.com/bethropolis/infograph/internal/document"
	"github.com/bethropolis/infograph/internal/element"
	"github.com/bethropolis/infograph/internal/plugin"
	"github.com/bethropolis/infograph/internal/types"
	"github.com/google/uuid"
)

// SetAttributes writes attribute values on one element. An empty value
// deletes the attribute.
type SetAttributes struct {
	ID     string
	Values map[string]string
}

func (c SetAttributes) Name() string { return "set attributes" }

func (c SetAttributes) Apply(ctx context.Context, tx *document.Tx) error {
	if !tx.Snapshot().Result(element.Path(c.ID)).Exists() {
		return fmt.Errorf("element %q: %w", c.ID, document.ErrPathNotFound)
	}
	attrs := element.Path(c.ID).Child("attrs")
	for _, key := range element.SortedKeys(c.Values) {
		value := c.Values[key]
		path := element.AttrPath(c.ID, key)
		current := tx.Snapshot().Result(path)

		switch {
		case value == "" && current.Exists():
			if err := tx.Remove(path); err != nil {
				return err
			}
		case value == "":
		case current.Exists():
			if current.String() == value {
				continue
			}
			if err := tx.Update(path, value); err != nil {
				return err
			}
		default:
			if !tx.Snapshot().Result(attrs).Exists() {
				if err := tx.Add(attrs, map[string]string{}); err != nil {
					return err
				}
			}
			if err := tx.Add(path, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// Move translates an element. Once committed, selected targets get a
// geometry notification.
type Move struct {
	Target    element.Element
	DX, DY    float64
	Selection plugin.Selection
}

func (c Move) Name() string { return "move" }

func (c Move) Apply(ctx context.Context, tx *document.Tx) error {
	box := c.Target.Bounds().Translate(c.DX, c.DY)
	if err := setField(tx, c.Target.ID(), "x", box.X); err != nil {
		return err
	}
	return setField(tx, c.Target.ID(), "y", box.Y)
}

func (c Move) Commit() { notify(c.Selection, c.Target) }

// Resize sets an element's size. Negative sizes are clamped to zero.
type Resize struct {
	Target        element.Element
	Width, Height float64
	Selection     plugin.Selection
}

func (c Resize) Name() string { return "resize" }

func (c Resize) Apply(ctx context.Context, tx *document.Tx) error {
	if err := setField(tx, c.Target.ID(), "width", max0(c.Width)); err != nil {
		return err
	}
	return setField(tx, c.Target.ID(), "height", max0(c.Height))
}

func (c Resize) Commit() { notify(c.Selection, c.Target) }

// AddElement inserts a new element at the top of the paint order. A random
// id is assigned when ID is empty.
type AddElement struct {
	ID      string
	Kind    string
	Bounds  types.Box
	Content string // text, icon name or shape name depending on Kind
	Attrs   map[string]string
}

func (c *AddElement) Name() string { return "add " + c.Kind }

func (c *AddElement) Apply(ctx context.Context, tx *document.Tx) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	contentKey := map[string]string{
		element.KindText:  "text",
		element.KindIcon:  "icon",
		element.KindShape: "shape",
	}[c.Kind]
	if contentKey == "" {
		return fmt.Errorf("add element: unknown kind %q: %w", c.Kind, document.ErrInvalidValue)
	}

	attrs := c.Attrs
	if attrs == nil {
		attrs = map[string]string{}
	}
	data := map[string]interface{}{
		"kind":     c.Kind,
		"x":        c.Bounds.X,
		"y":        c.Bounds.Y,
		"width":    c.Bounds.Width,
		"height":   c.Bounds.Height,
		contentKey: c.Content,
		"attrs":    attrs,
	}
	if err := ensureRoot(tx); err != nil {
		return err
	}
	if err := tx.Add(element.Path(c.ID), data); err != nil {
		return err
	}
	n := len(tx.Snapshot().Result(element.OrderPath).Array())
	return tx.Add(element.OrderPath.Child(fmt.Sprint(n)), c.ID)
}

// RemoveElement deletes an element and its entry in the paint order.
type RemoveElement struct {
	ID string
}

func (c RemoveElement) Name() string { return "remove element" }

func (c RemoveElement) Apply(ctx context.Context, tx *document.Tx) error {
	for i, id := range tx.Snapshot().Result(element.OrderPath).Array() {
		if id.String() == c.ID {
			if err := tx.Remove(element.OrderPath.Child(fmt.Sprint(i))); err != nil {
				return err
			}
			break
		}
	}
	return tx.Remove(element.Path(c.ID))
}

// --- helpers ---

// ForEach builds one command per element, for batches over a selection.
func ForEach(elements []element.Element, build func(el element.Element) document.Command) []document.Command {
	cmds := make([]document.Command, 0, len(elements))
	for _, el := range elements {
		if cmd := build(el); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

func setField(tx *document.Tx, id, field string, value float64) error {
	path := element.FieldPath(id, field)
	current := tx.Snapshot().Result(path)
	if !current.Exists() {
		return tx.Add(path, value)
	}
	if current.Float() == value {
		return nil
	}
	return tx.Update(path, value)
}

func ensureRoot(tx *document.Tx) error {
	snap := tx.Snapshot()
	if !snap.Result(element.ElementsPath).Exists() {
		if err := tx.Add(element.ElementsPath, map[string]interface{}{}); err != nil {
			return err
		}
	}
	if !snap.Result(element.OrderPath).Exists() {
		if err := tx.Add(element.OrderPath, []string{}); err != nil {
			return err
		}
	}
	return nil
}

func notify(sel plugin.Selection, target element.Element) {
	if sel != nil && target != nil {
		sel.NotifyGeometryChange(target)
	}
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
