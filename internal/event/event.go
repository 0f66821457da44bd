// internal/event/event.go
package event

import (
	"fmt"

	"github.com/bethropolis/infograph/internal/document"
)

// Type identifies the kind of event. The set is closed: every event the
// kernel publishes has a constant here.
type Type int

const (
	TypeUnknown Type = iota

	// Kernel events
	TypeOptionsChange           // options:change, carries OptionsChangeData
	TypeSelectionChange         // selection:change, carries selection.Delta
	TypeSelectionGeometryChange // selection:geometrychange, carries selection.GeometryChangeData
	TypeHistoryChange           // history:change, carries HistoryChangeData
	TypeListenerError           // listener:error, carries ListenerErrorData

	// Public names re-exposed by an editing session
	TypeChange          // change
	TypePublicSelection // selectionChange
	TypePublicHistory   // historyChange, carries HistoryStateData
	TypePublicGeometry  // geometryChange
)

var typeNames = map[Type]string{
	TypeOptionsChange:           "options:change",
	TypeSelectionChange:         "selection:change",
	TypeSelectionGeometryChange: "selection:geometrychange",
	TypeHistoryChange:           "history:change",
	TypeListenerError:           "listener:error",
	TypeChange:                  "change",
	TypePublicSelection:         "selectionChange",
	TypePublicHistory:           "historyChange",
	TypePublicGeometry:          "geometryChange",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(t))
}

// ParseType maps an event name back to its Type.
func ParseType(name string) (Type, error) {
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return TypeUnknown, fmt.Errorf("unknown event name '%s'", name)
}

// Event is the structure passed through the bus.
type Event struct {
	Type Type        // The kind of event
	Data interface{} // Payload carrying event-specific data
}

// HistoryAction names the history operation behind a history:change.
type HistoryAction int

const (
	ActionExecute HistoryAction = iota
	ActionUndo
	ActionRedo
)

func (a HistoryAction) String() string {
	switch a {
	case ActionExecute:
		return "execute"
	case ActionUndo:
		return "undo"
	case ActionRedo:
		return "redo"
	}
	return "unknown"
}

// --- Specific Event Data Structures ---

// OptionsChangeData lists the change records a history operation applied.
type OptionsChangeData struct {
	Changes []document.Change
}

// HistoryChangeData is published after a history operation is durable.
type HistoryChangeData struct {
	Action HistoryAction
}

// HistoryStateData is the public historyChange payload, enriched at emission time.
type HistoryStateData struct {
	Action      HistoryAction
	CanUndo     bool
	CanRedo     bool
	HistorySize int
}

// ListenerErrorData reports a handler failure without interrupting dispatch.
type ListenerErrorData struct {
	Err *ListenerError
}
