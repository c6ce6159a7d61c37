package config

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/knadh/koanf/v2"
)

// defaultDebounce coalesces rapid filesystem events (editors that write a
// file in several small writes) into a single reload.
const defaultDebounce = 100 * time.Millisecond

// Manager owns the current Settings, reloadable via Load, and can watch a
// YAML file for changes and reload automatically.
type Manager struct {
	Service *Service

	mu       sync.Mutex
	current  atomic.Value // *Settings
	debounce time.Duration

	watcher  *fsnotify.Watcher
	watchWg  sync.WaitGroup
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewManager builds a Manager. A nil service defaults to NewService().
func NewManager(service *Service) *Manager {
	if service == nil {
		service = NewService()
	}
	return &Manager{
		Service:  service,
		debounce: defaultDebounce,
		stopCh:   make(chan struct{}),
	}
}

// SetDebounce overrides the coalescing window used by Watch.
func (m *Manager) SetDebounce(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debounce = d
}

// Load merges providers in order (later overrides earlier), validates the
// result, stores it, and returns it.
func (m *Manager) Load(_ context.Context, providers ...Provider) (*Settings, error) {
	k := koanf.New(".")
	for _, p := range providers {
		if err := k.Load(koanfProvider{p}, nil); err != nil {
			return nil, fmt.Errorf("config: load provider: %w", err)
		}
	}
	cfg := &Settings{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := m.Service.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	m.current.Store(cfg)
	return cfg, nil
}

// Get returns the most recently loaded Settings, or nil if Load has never
// been called.
func (m *Manager) Get() *Settings {
	v, _ := m.current.Load().(*Settings)
	return v
}

// Watch begins watching path for changes, reloading providers (with path's
// YAML provider re-read fresh each time) after debounce settles. Errors
// from a reload are sent on the returned channel; the caller should drain
// it to avoid blocking the watch goroutine.
func (m *Manager) Watch(ctx context.Context, path string, providers ...Provider) (<-chan error, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: new watcher: %w", err)
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, fmt.Errorf("config: watch %s: %w", path, err)
	}
	m.mu.Lock()
	m.watcher = w
	debounce := m.debounce
	m.mu.Unlock()

	errCh := make(chan error, 1)
	m.watchWg.Add(1)
	go func() {
		defer m.watchWg.Done()
		var timer *time.Timer
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stopCh:
				return
			case _, ok := <-w.Events:
				if !ok {
					return
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(debounce, func() {
					if _, err := m.Load(ctx, providers...); err != nil {
						select {
						case errCh <- err:
						default:
						}
					}
				})
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()
	return errCh, nil
}

// Close stops any active watch and releases its resources.
func (m *Manager) Close(_ context.Context) error {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.mu.Lock()
	w := m.watcher
	m.mu.Unlock()
	if w != nil {
		_ = w.Close()
	}
	m.watchWg.Wait()
	return nil
}

// koanfProvider adapts our Provider interface to koanf.Provider (the two
// are structurally identical; this wrapper exists so pkg/config's own
// Provider type doesn't import koanf in its public signature).
type koanfProvider struct{ p Provider }

func (k koanfProvider) ReadBytes() ([]byte, error) { return k.p.ReadBytes() }
func (k koanfProvider) Read() (map[string]any, error) { return k.p.Read() }
