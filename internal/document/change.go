package document

import "fmt"

// Op is the kind of structural mutation a Change describes.
type Op int

const (
	OpAdd Op = iota
	OpRemove
	OpUpdate
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpRemove:
		return "remove"
	case OpUpdate:
		return "update"
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// Change is one structural mutation of the document. Once applied by the
// Manager it carries the PreviousValue needed to build its own inverse.
type Change struct {
	Op            Op
	Path          Path
	Value         interface{} // New value for add/update; a json.RawMessage is inserted verbatim
	PreviousValue interface{} // Raw JSON (json.RawMessage) before remove/update, filled in on apply
}

// Add describes inserting value at path.
func Add(path Path, value interface{}) Change {
	return Change{Op: OpAdd, Path: path, Value: value}
}

// Remove describes deleting the value at path.
func Remove(path Path) Change {
	return Change{Op: OpRemove, Path: path}
}

// Update describes replacing the value at path.
func Update(path Path, value interface{}) Change {
	return Change{Op: OpUpdate, Path: path, Value: value}
}

// Invert returns the change that undoes c. Only meaningful for applied changes.
//
//	add    -> remove
//	remove -> add(previous)
//	update -> update(previous)
func (c Change) Invert() Change {
	switch c.Op {
	case OpAdd:
		return Change{Op: OpRemove, Path: c.Path, PreviousValue: c.Value}
	case OpRemove:
		return Change{Op: OpAdd, Path: c.Path, Value: c.PreviousValue}
	default:
		return Change{Op: OpUpdate, Path: c.Path, Value: c.PreviousValue, PreviousValue: c.Value}
	}
}

func (c Change) String() string {
	return fmt.Sprintf("%s %s", c.Op, c.Path)
}

// InvertAll returns the inverses of changes in reverse order, which is the
// sequence that rolls the whole list back.
func InvertAll(changes []Change) []Change {
	out := make([]Change, 0, len(changes))
	for i := len(changes) - 1; i >= 0; i-- {
		out = append(out, changes[i].Invert())
	}
	return out
}
