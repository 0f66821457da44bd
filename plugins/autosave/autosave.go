// plugins/autosave/autosave.go
package autosave

import (
	"errors"
	"sync"
	"time"

	"github.com/bethropolis/infograph/internal/document"
	"github.com/bethropolis/infograph/internal/event"
	"github.com/bethropolis/infograph/internal/logger"
	"github.com/bethropolis/infograph/internal/plugin"
)

// Ensure AutoSave implements plugin.Plugin
var _ plugin.Plugin = (*AutoSave)(nil)

const defaultInterval = 1 * time.Minute

// ErrNoPath is returned by Save when no target file is configured.
var ErrNoPath = errors.New("autosave: no target path")

// Options configures the plugin.
type Options struct {
	Enabled  bool
	Interval time.Duration
	Path     string

	// OnSaved is called after every successful write.
	OnSaved func(path string)
}

// AutoSave writes the document to disk periodically once a history
// operation has changed it.
type AutoSave struct {
	opts Options

	mu    sync.Mutex // guards dirty, doc, sub and saves
	dirty bool
	doc   *document.Manager
	bus   *event.Bus
	sub   event.Subscription
	saves int

	// Runtime state
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New creates a new instance of the AutoSave plugin.
func New(opts Options) *AutoSave {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	return &AutoSave{opts: opts}
}

// Name returns the unique name of the plugin.
func (p *AutoSave) Name() string {
	return "autosave"
}

// Init subscribes to history changes and starts the saver loop if enabled.
func (p *AutoSave) Init(ctx *plugin.Context) error {
	if ctx.Bus == nil || ctx.State == nil {
		return errors.New("autosave: needs an event bus and a document")
	}
	p.mu.Lock()
	p.doc = ctx.State
	p.bus = ctx.Bus
	p.sub = ctx.Bus.Subscribe(event.TypeHistoryChange, func(e event.Event) error {
		p.mu.Lock()
		p.dirty = true
		p.mu.Unlock()
		return nil
	})
	p.mu.Unlock()

	logger.Infof("%s initialized. Enabled: %v, Interval: %v, Path: %q", p.Name(), p.opts.Enabled, p.opts.Interval, p.opts.Path)

	if p.opts.Enabled {
		p.stopChan = make(chan struct{})
		p.wg.Add(1)
		go p.saverLoop(p.opts.Interval)
		logger.Debugf("%s: Saver goroutine started.", p.Name())
	}
	return nil
}

// Destroy unsubscribes, signals the saver goroutine to stop and waits for it.
func (p *AutoSave) Destroy() error {
	p.mu.Lock()
	bus, sub := p.bus, p.sub
	p.bus, p.sub = nil, event.Subscription{}
	p.mu.Unlock()
	if bus != nil && sub.Valid() {
		bus.Unsubscribe(sub)
	}

	if p.stopChan != nil {
		logger.Debugf("%s: Shutting down...", p.Name())
		close(p.stopChan)
		p.wg.Wait()
		p.stopChan = nil
		logger.Debugf("%s: Saver goroutine stopped.", p.Name())
	}
	return nil
}

func (p *AutoSave) saverLoop(interval time.Duration) {
	defer p.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := p.Save(); err != nil {
				logger.Errorf("%s: Auto-save failed for '%s': %v", p.Name(), p.opts.Path, err)
			}
		case <-p.stopChan:
			logger.Debugf("%s: Received stop signal, exiting saver loop.", p.Name())
			return
		}
	}
}

// Save writes the document if it changed since the last write. It reports
// whether a write happened.
func (p *AutoSave) Save() (bool, error) {
	p.mu.Lock()
	if !p.dirty || p.doc == nil {
		p.mu.Unlock()
		logger.DebugTagf("autosave", "%s: Document not modified, skipping auto-save.", p.Name())
		return false, nil
	}
	if p.opts.Path == "" {
		p.mu.Unlock()
		return false, ErrNoPath
	}
	snap := p.doc.Snapshot()
	p.dirty = false
	p.mu.Unlock()

	if err := snap.WriteFile(p.opts.Path); err != nil {
		p.mu.Lock()
		p.dirty = true
		p.mu.Unlock()
		return false, err
	}

	p.mu.Lock()
	p.saves++
	p.mu.Unlock()
	logger.Infof("%s: Auto-saved document to %s", p.Name(), p.opts.Path)
	if p.opts.OnSaved != nil {
		p.opts.OnSaved(p.opts.Path)
	}
	return true, nil
}

// Dirty reports whether there are changes not yet written.
func (p *AutoSave) Dirty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dirty
}

// Saves returns the number of successful writes.
func (p *AutoSave) Saves() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}
