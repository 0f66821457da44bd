// Package history provides command execution with undo/redo via two stacks
// of committed entries.
package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bethropolis/infograph/internal/document"
	"github.com/bethropolis/infograph/internal/event"
	"github.com/bethropolis/infograph/internal/logger"
	"github.com/bethropolis/infograph/internal/plugin"
	"github.com/google/uuid"
)

const DefaultMaxHistory = 100

var (
	// ErrNotRunning is returned for calls made before Init or after Destroy.
	ErrNotRunning = errors.New("history manager is not running")
	// ErrNotBatchable is wrapped in the CommandError for refused batch members.
	ErrNotBatchable = errors.New("command cannot be batched")
)

// Entry is one committed unit of undo/redo.
type Entry struct {
	ID      string
	Label   string
	Changes []document.Change
	At      time.Time
}

// Options configures a Manager.
type Options struct {
	MaxHistory int // Oldest entries are dropped beyond this size
}

type job struct {
	ctx  context.Context
	name string
	run  func(ctx context.Context) error
	done chan error
}

// notice is what one committed operation publishes.
type notice struct {
	action     event.HistoryAction
	changes    []document.Change
	options    bool // dispatch options:change before history:change
	committers []document.Committer
}

// Manager executes commands against the document and keeps the undo and
// redo stacks. Every mutating call goes through one FIFO queue drained by a
// single worker, so two mutations never interleave.
//
// The worker never runs listeners. Each operation leaves a notice in an
// ordered outbox, and the returning caller delivers it. A caller finding
// delivery already in progress leaves its notice to that deliverer, so a
// listener may issue further operations without blocking.
type Manager struct {
	maxHistory int

	mu      sync.Mutex // guards stacks, pending and running
	undo    []*Entry
	redo    []*Entry
	pending []*job
	running bool

	bus  *event.Bus
	doc  *document.Manager
	wake chan struct{}
	stop chan struct{}
	wg   sync.WaitGroup

	outMu      sync.Mutex // guards outbox and delivering
	outbox     []notice
	delivering bool
}

var _ plugin.Plugin = (*Manager)(nil)
var _ plugin.Commands = (*Manager)(nil)

// NewManager creates a history manager. It accepts work once Init has run.
func NewManager(opts Options) *Manager {
	if opts.MaxHistory <= 0 {
		opts.MaxHistory = DefaultMaxHistory
	}
	return &Manager{
		maxHistory: opts.MaxHistory,
		wake:       make(chan struct{}, 1),
	}
}

// Name returns the plugin name.
func (m *Manager) Name() string { return "history" }

// Init binds the bus and document and starts the worker.
func (m *Manager) Init(ctx *plugin.Context) error {
	if ctx == nil || ctx.Bus == nil || ctx.State == nil {
		return fmt.Errorf("history: init requires a bus and a document")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return fmt.Errorf("history: already initialized")
	}
	m.bus = ctx.Bus
	m.doc = ctx.State
	m.stop = make(chan struct{})
	m.running = true
	m.wg.Add(1)
	go m.loop()
	logger.Debugf("History: Started (max %d entries)", m.maxHistory)
	return nil
}

// Destroy stops the worker, fails queued calls with ErrNotRunning and clears
// both stacks.
func (m *Manager) Destroy() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	close(m.stop)
	m.mu.Unlock()

	m.wg.Wait()

	m.mu.Lock()
	leftover := m.pending
	m.pending = nil
	m.undo = nil
	m.redo = nil
	m.mu.Unlock()
	for _, j := range leftover {
		j.done <- ErrNotRunning
	}
	logger.Debugf("History: Stopped, %d queued call(s) dropped", len(leftover))
	return nil
}

// --- Queue ---

func (m *Manager) submit(ctx context.Context, name string, run func(ctx context.Context) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	j := &job{ctx: ctx, name: name, run: run, done: make(chan error, 1)}

	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return ErrNotRunning
	}
	m.pending = append(m.pending, j)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default: // worker already signalled
	}

	var err error
	select {
	case err = <-j.done:
	case <-ctx.Done():
		if m.withdraw(j) {
			logger.Debugf("History: %s withdrawn, caller gave up: %v", name, ctx.Err())
			return ctx.Err()
		}
		// Once started a job runs to completion.
		err = <-j.done
	}
	m.deliver()
	return err
}

// withdraw removes j from the queue if the worker has not taken it yet.
func (m *Manager) withdraw(j *job) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.pending {
		if p == j {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			return true
		}
	}
	return false
}

func (m *Manager) next() *job {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pending) == 0 {
		return nil
	}
	j := m.pending[0]
	m.pending[0] = nil
	m.pending = m.pending[1:]
	return j
}

func (m *Manager) loop() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stop:
			return
		case <-m.wake:
		}
		for j := m.next(); j != nil; j = m.next() {
			if err := j.ctx.Err(); err != nil {
				logger.Debugf("History: Skipping %s, caller gave up: %v", j.name, err)
				j.done <- err
				continue
			}
			j.done <- j.run(context.WithoutCancel(j.ctx))
			select {
			case <-m.stop:
				return
			default:
			}
		}
	}
}

// --- Operations ---

// Execute applies cmd as a single history entry. A command that changes
// nothing is not recorded but still clears the redo stack.
//
// When Execute returns, options:change and history:change for cmd have been
// dispatched, unless another call is still delivering earlier events, as
// when cmd is issued from a listener. That call delivers them next.
func (m *Manager) Execute(ctx context.Context, cmd document.Command) error {
	return m.submit(ctx, cmd.Name(), func(ctx context.Context) error {
		return m.commit(ctx, cmd.Name(), []document.Command{cmd})
	})
}

// ExecuteBatch applies cmds in order as one atomic history entry. If any
// command fails, everything already applied is rolled back and nothing is
// recorded or published.
func (m *Manager) ExecuteBatch(ctx context.Context, cmds []document.Command) error {
	if len(cmds) == 0 {
		return nil
	}
	label := batchLabel(cmds)
	return m.submit(ctx, label, func(ctx context.Context) error {
		for _, c := range cmds {
			if !document.IsBatchable(c) {
				return &document.CommandError{Command: c.Name(), Phase: "batch", Err: ErrNotBatchable}
			}
		}
		return m.commit(ctx, label, cmds)
	})
}

func batchLabel(cmds []document.Command) string {
	if len(cmds) == 1 {
		return cmds[0].Name()
	}
	return fmt.Sprintf("%s (+%d)", cmds[0].Name(), len(cmds)-1)
}

// commit runs on the worker.
func (m *Manager) commit(ctx context.Context, label string, cmds []document.Command) error {
	tx := m.doc.Begin()
	for _, c := range cmds {
		if err := c.Apply(ctx, tx); err != nil {
			cause := err
			if rbErr := tx.Rollback(); rbErr != nil {
				cause = errors.Join(err, rbErr)
			}
			logger.Warnf("History: %s failed, rolled back: %v", c.Name(), err)
			return &document.CommandError{Command: c.Name(), Phase: "apply", Err: cause}
		}
	}

	changes := tx.Changes()
	if len(changes) == 0 {
		// Not recorded, but still a new execution: redo is gone.
		m.mu.Lock()
		hadRedo := len(m.redo) > 0
		m.redo = nil
		m.mu.Unlock()
		logger.Debugf("History: %s changed nothing, not recorded", label)
		if hadRedo {
			m.post(notice{action: event.ActionExecute})
		}
		return nil
	}

	entry := &Entry{ID: uuid.NewString(), Label: label, Changes: changes, At: time.Now()}
	m.mu.Lock()
	m.undo = append(m.undo, entry)
	if len(m.undo) > m.maxHistory {
		m.undo = m.undo[len(m.undo)-m.maxHistory:]
	}
	m.redo = nil
	m.mu.Unlock()
	logger.Debugf("History: Recorded %q (%d change(s)). Undo: %d", label, len(changes), m.HistorySize())

	n := notice{action: event.ActionExecute, changes: changes, options: true}
	for _, c := range cmds {
		if committer, ok := c.(document.Committer); ok {
			n.committers = append(n.committers, committer)
		}
	}
	m.post(n)
	return nil
}

// Undo reverts the most recent entry. It is a no-op when nothing can be undone.
func (m *Manager) Undo(ctx context.Context) error {
	return m.submit(ctx, "undo", func(ctx context.Context) error {
		m.mu.Lock()
		if len(m.undo) == 0 {
			m.mu.Unlock()
			logger.Debugf("History: Nothing to undo.")
			return nil
		}
		entry := m.undo[len(m.undo)-1]
		m.mu.Unlock()

		applied, err := m.doc.ApplyAll(document.InvertAll(entry.Changes))
		if err != nil {
			logger.Errorf("History: Undo of %q failed: %v", entry.Label, err)
			return &document.CommandError{Command: entry.Label, Phase: "undo", Err: err}
		}

		m.mu.Lock()
		m.undo = m.undo[:len(m.undo)-1]
		m.redo = append(m.redo, entry)
		m.mu.Unlock()
		logger.Debugf("History: Undid %q", entry.Label)

		m.post(notice{action: event.ActionUndo, changes: applied, options: true})
		return nil
	})
}

// Redo reapplies the most recently undone entry. It is a no-op when nothing
// can be redone.
func (m *Manager) Redo(ctx context.Context) error {
	return m.submit(ctx, "redo", func(ctx context.Context) error {
		m.mu.Lock()
		if len(m.redo) == 0 {
			m.mu.Unlock()
			logger.Debugf("History: Nothing to redo.")
			return nil
		}
		entry := m.redo[len(m.redo)-1]
		m.mu.Unlock()

		applied, err := m.doc.ApplyAll(entry.Changes)
		if err != nil {
			logger.Errorf("History: Redo of %q failed: %v", entry.Label, err)
			return &document.CommandError{Command: entry.Label, Phase: "redo", Err: err}
		}

		m.mu.Lock()
		m.redo = m.redo[:len(m.redo)-1]
		entry.Changes = applied
		m.undo = append(m.undo, entry)
		m.mu.Unlock()
		logger.Debugf("History: Redid %q", entry.Label)

		m.post(notice{action: event.ActionRedo, changes: applied, options: true})
		return nil
	})
}

// --- Publishing ---

// post queues n for delivery. It runs on the worker, before the job's caller
// is released.
func (m *Manager) post(n notice) {
	m.outMu.Lock()
	m.outbox = append(m.outbox, n)
	m.outMu.Unlock()
}

// deliver dispatches queued notices in commit order. It returns at once if
// another call is already delivering; that call drains the rest.
func (m *Manager) deliver() {
	m.outMu.Lock()
	if m.delivering {
		m.outMu.Unlock()
		return
	}
	m.delivering = true
	for len(m.outbox) > 0 {
		n := m.outbox[0]
		m.outbox = m.outbox[1:]
		m.outMu.Unlock()
		m.publish(n)
		m.outMu.Lock()
	}
	m.delivering = false
	m.outMu.Unlock()
}

func (m *Manager) publish(n notice) {
	if n.options {
		m.bus.Dispatch(event.TypeOptionsChange, event.OptionsChangeData{Changes: n.changes})
	}
	m.bus.Dispatch(event.TypeHistoryChange, event.HistoryChangeData{Action: n.action})
	for _, c := range n.committers {
		c.Commit()
	}
}

// --- Queries ---

// CanUndo returns true if there are entries that can be undone.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo) > 0
}

// CanRedo returns true if there are entries that can be redone.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo) > 0
}

// HistorySize returns the number of undoable entries.
func (m *Manager) HistorySize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo)
}

// Labels returns the undo stack labels, oldest first.
func (m *Manager) Labels() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.undo))
	for i, e := range m.undo {
		out[i] = e.Label
	}
	return out
}
