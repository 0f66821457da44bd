// plugins/status/status.go
package status

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bethropolis/infograph/internal/element"
	"github.com/bethropolis/infograph/internal/event"
	"github.com/bethropolis/infograph/internal/plugin"
	"github.com/bethropolis/infograph/internal/selection"
	"github.com/bethropolis/infograph/internal/toolbar"
)

// Ensure Status implements plugin.Plugin
var _ plugin.Plugin = (*Status)(nil)

// Segment names written to the sink.
const (
	SegmentSelection = "1-selection"
	SegmentHistory   = "2-history"
	SegmentDocument  = "3-document"
)

// Sink receives named status segments. An empty text clears a segment.
type Sink interface {
	SetSegment(name, text string)
}

// Status reports selection, history and document counts to a status line.
type Status struct {
	sink Sink

	mu   sync.Mutex
	ctx  *plugin.Context
	subs []event.Subscription
}

// New creates a new instance of the Status plugin.
func New(sink Sink) *Status {
	return &Status{sink: sink}
}

// Name returns the unique name of the plugin.
func (p *Status) Name() string {
	return "status"
}

// Init subscribes to selection and history changes and writes the initial
// segments.
func (p *Status) Init(ctx *plugin.Context) error {
	if p.sink == nil {
		return errors.New("status plugin has no sink")
	}
	if ctx.Bus == nil {
		return errors.New("status plugin needs an event bus")
	}
	p.mu.Lock()
	p.ctx = ctx
	p.subs = []event.Subscription{
		ctx.Bus.Subscribe(event.TypeSelectionChange, func(e event.Event) error {
			if delta, ok := e.Data.(selection.Delta); ok {
				p.sink.SetSegment(SegmentSelection, describeSelection(delta.Next))
			}
			return nil
		}),
		ctx.Bus.Subscribe(event.TypeHistoryChange, func(e event.Event) error {
			p.reportHistory()
			p.reportDocument()
			return nil
		}),
	}
	p.mu.Unlock()

	if ctx.Selection != nil {
		p.sink.SetSegment(SegmentSelection, describeSelection(ctx.Selection.Current()))
	}
	p.reportHistory()
	p.reportDocument()
	return nil
}

// Destroy unsubscribes and clears the segments.
func (p *Status) Destroy() error {
	p.mu.Lock()
	ctx, subs := p.ctx, p.subs
	p.ctx, p.subs = nil, nil
	p.mu.Unlock()
	if ctx == nil {
		return nil
	}
	for _, sub := range subs {
		ctx.Bus.Unsubscribe(sub)
	}
	for _, name := range []string{SegmentSelection, SegmentHistory, SegmentDocument} {
		p.sink.SetSegment(name, "")
	}
	return nil
}

func (p *Status) context() *plugin.Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ctx
}

func (p *Status) reportHistory() {
	ctx := p.context()
	if ctx == nil || ctx.Commands == nil {
		return
	}
	text := fmt.Sprintf("Undo: %d", ctx.Commands.HistorySize())
	if ctx.Commands.CanRedo() {
		text += " (redo)"
	}
	p.sink.SetSegment(SegmentHistory, text)
}

func (p *Status) reportDocument() {
	ctx := p.context()
	if ctx == nil || ctx.Scene == nil {
		return
	}
	elements, words := Count(ctx.Scene.Elements())
	p.sink.SetSegment(SegmentDocument, fmt.Sprintf("Elements: %d, Words: %d", elements, words))
}

// Count returns the number of elements and the number of words across their
// text content.
func Count(elements []element.Element) (int, int) {
	words := 0
	for _, el := range elements {
		if t, ok := el.(element.TextEditable); ok {
			words += len(strings.Fields(t.Text()))
		}
	}
	return len(elements), words
}

func describeSelection(sel []element.Element) string {
	switch len(sel) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("%s (%s)", sel[0].ID(), toolbar.Classify(sel))
	}
	return fmt.Sprintf("%d selected (%s)", len(sel), toolbar.Classify(sel))
}
