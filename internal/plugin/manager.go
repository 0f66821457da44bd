// internal/plugin/manager.go
package plugin

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bethropolis/infograph/internal/logger"
)

var (
	ErrEmptyName      = errors.New("plugin name cannot be empty")
	ErrDuplicate      = errors.New("plugin already registered")
	ErrAlreadyStarted = errors.New("plugins already initialized")
)

type entry struct {
	plugin      Plugin
	initialized bool
	destroyed   bool
}

// Manager hosts plugins: registration, ordered initialization and
// reverse-order destruction, each exactly once.
type Manager struct {
	mu      sync.Mutex
	entries []*entry // registration order
	byName  map[string]*entry
	started bool
}

// NewManager creates a new plugin manager.
func NewManager() *Manager {
	return &Manager{
		byName: make(map[string]*entry),
	}
}

// Register adds a plugin. Must be called before InitAll.
func (m *Manager) Register(p Plugin) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := p.Name()
	if name == "" {
		return fmt.Errorf("plugin registration failed: %w", ErrEmptyName)
	}
	if _, exists := m.byName[name]; exists {
		return fmt.Errorf("plugin registration failed for '%s': %w", name, ErrDuplicate)
	}
	if m.started {
		return fmt.Errorf("plugin registration failed for '%s': %w", name, ErrAlreadyStarted)
	}

	e := &entry{plugin: p}
	m.entries = append(m.entries, e)
	m.byName[name] = e
	logger.Debugf("Plugin Manager: Registered plugin '%s'", name)
	return nil
}

// InitAll initializes plugins in registration order. On the first failure it
// destroys the plugins already initialized and returns the error.
func (m *Manager) InitAll(ctx *Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = true
	pending := make([]*entry, len(m.entries))
	copy(pending, m.entries)
	m.mu.Unlock() // Plugins may call back into the host during Init

	logger.Debugf("Plugin Manager: Initializing %d plugins...", len(pending))
	for _, e := range pending {
		name := e.plugin.Name()
		if err := e.plugin.Init(ctx); err != nil {
			logger.Errorf("Plugin Manager: ERROR initializing plugin '%s': %v", name, err)
			initErr := fmt.Errorf("init plugin '%s': %w", name, err)
			if derr := m.DestroyAll(); derr != nil {
				initErr = errors.Join(initErr, derr)
			}
			return initErr
		}
		m.mu.Lock()
		e.initialized = true
		m.mu.Unlock()
		logger.Debugf("Plugin Manager: Initialized plugin '%s'", name)
	}
	return nil
}

// DestroyAll destroys every initialized plugin in reverse registration order.
// Errors are collected; every plugin still gets its Destroy call.
func (m *Manager) DestroyAll() error {
	m.mu.Lock()
	var targets []*entry
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if e.initialized && !e.destroyed {
			e.destroyed = true
			targets = append(targets, e)
		}
	}
	m.mu.Unlock()

	logger.Debugf("Plugin Manager: Destroying %d plugins...", len(targets))
	var errs []error
	for _, e := range targets {
		if err := e.plugin.Destroy(); err != nil {
			logger.Errorf("Plugin Manager: ERROR destroying plugin '%s': %v", e.plugin.Name(), err)
			errs = append(errs, fmt.Errorf("destroy plugin '%s': %w", e.plugin.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Get returns a registered plugin by name.
func (m *Manager) Get(name string) (Plugin, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byName[name]
	if !ok {
		return nil, false
	}
	return e.plugin, true
}

// Names lists registered plugin names in registration order.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		names = append(names, e.plugin.Name())
	}
	return names
}
