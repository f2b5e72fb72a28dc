package vrule

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/nextpkg/vrule/slogs"
	"github.com/nextpkg/vrule/source"
)

// Manager keeps a RuleSet loaded from a definition file and hot-reloads it
// when the file changes. The current set is held behind an atomic pointer,
// so readers always observe a complete, validated RuleSet; a rewrite that
// fails validation keeps the previous set in place.
type Manager struct {
	src      *source.FileWatcher
	opts     []Option
	rs       atomic.Pointer[RuleSet]
	once     sync.Once
	mu       sync.Mutex
	onReload []func(*RuleSet)
}

// NewManager loads the definition file and returns a manager holding the
// compiled RuleSet. Watching starts only on EnableWatch.
func NewManager(path string, opts ...Option) (*Manager, error) {
	src, err := source.NewFileWatcher(path)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		src:  src,
		opts: opts,
	}

	rs, err := m.load()
	if err != nil {
		return nil, err
	}
	m.rs.Store(rs)

	return m, nil
}

// MustNewManager is NewManager panicking on error.
func MustNewManager(path string, opts ...Option) *Manager {
	m, err := NewManager(path, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Manager) load() (*RuleSet, error) {
	raw, err := m.src.Load()
	if err != nil {
		return nil, NewLoadError(m.src.String(), "failed to read rule definition", err)
	}
	return FromMap(raw, m.opts...)
}

// Get returns the current RuleSet. It never returns nil once NewManager has
// succeeded.
func (m *Manager) Get() *RuleSet {
	if m == nil {
		return nil
	}
	return m.rs.Load()
}

// Evaluate runs the current RuleSet against a value.
func (m *Manager) Evaluate(value any) Result {
	return m.Get().Evaluate(value)
}

// Validate reports whether the value satisfies the current RuleSet.
func (m *Manager) Validate(value any) bool {
	return m.Get().Validate(value)
}

// Check validates against the current RuleSet, returning a structured
// ValidationError on failure.
func (m *Manager) Check(value any) error {
	return m.Get().Check(value)
}

// OnReload registers a callback invoked with the new RuleSet after every
// successful reload.
func (m *Manager) OnReload(fn func(*RuleSet)) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReload = append(m.onReload, fn)
}

// EnableWatch starts monitoring the definition file. On every change the
// file is re-read and re-compiled; an invalid rewrite is logged and the
// previous RuleSet stays active. Calling EnableWatch more than once is safe.
func (m *Manager) EnableWatch() error {
	var watchErr error
	m.once.Do(func() {
		watchErr = m.src.Watch(func(err error) {
			if err != nil {
				slogs.Error("Rule source watch error", "source", m.src.String(), "error", err)
				return
			}

			slogs.Debug("Rule definition change detected", "source", m.src.String())

			rs, loadErr := m.load()
			if loadErr != nil {
				slogs.Error("Failed to reload rule definition, keeping previous set",
					"source", m.src.String(), "error", loadErr)
				return
			}

			m.rs.Store(rs)
			m.notifyReload(rs)

			slogs.Debug("Rule definition reloaded", "source", m.src.String())
		})
	})
	return watchErr
}

func (m *Manager) notifyReload(rs *RuleSet) {
	m.mu.Lock()
	callbacks := append([]func(*RuleSet){}, m.onReload...)
	m.mu.Unlock()

	for _, fn := range callbacks {
		fn(rs)
	}
}

// DisableWatch stops monitoring the definition file.
func (m *Manager) DisableWatch() error {
	err := m.src.Unwatch()
	m.once = sync.Once{}
	return err
}

// Close stops watching. The last loaded RuleSet stays readable.
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}
	return m.DisableWatch()
}
