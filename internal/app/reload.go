package app

import (
	"os"
	"sync"
	"time"

	"arc-tracer/internal/config"
)

// ConfigWatcher polls a config file and reports each successfully loaded
// revision. Revisions that fail to load or validate are reported to the
// error callback and the baseline is still advanced, so a broken file is
// reported once per change.
type ConfigWatcher struct {
	path          string
	checkInterval time.Duration
	baseline      time.Time

	onChange func(*config.Config)
	onError  func(error)

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewConfigWatcher creates a watcher for path. Returns nil if the file
// cannot be stat'ed.
func NewConfigWatcher(path string, checkInterval time.Duration) *ConfigWatcher {
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	return &ConfigWatcher{
		path:          path,
		checkInterval: checkInterval,
		baseline:      info.ModTime(),
		stopCh:        make(chan struct{}),
	}
}

// OnChange sets the callback invoked with each newly loaded config. It runs
// on the watcher goroutine.
func (w *ConfigWatcher) OnChange(fn func(*config.Config)) {
	w.onChange = fn
}

// OnError sets the callback invoked when a changed file fails to load.
func (w *ConfigWatcher) OnError(fn func(error)) {
	w.onError = fn
}

// Path returns the watched file.
func (w *ConfigWatcher) Path() string {
	return w.path
}

// Start begins watching in a background goroutine.
func (w *ConfigWatcher) Start() {
	go w.watchLoop()
}

// Stop stops the watcher goroutine.
func (w *ConfigWatcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

func (w *ConfigWatcher) watchLoop() {
	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.Check()
		}
	}
}

// Check reloads the file if it changed since the last check and reports
// whether it did.
func (w *ConfigWatcher) Check() bool {
	info, err := os.Stat(w.path)
	if err != nil || !info.ModTime().After(w.baseline) {
		return false
	}
	w.baseline = info.ModTime()

	cfg, err := config.Load(w.path)
	if err != nil {
		if w.onError != nil {
			w.onError(err)
		}
		return false
	}
	if w.onChange != nil {
		w.onChange(cfg)
	}
	return true
}
