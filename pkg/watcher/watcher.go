// Package watcher reports changes to a single file, such as the cue file a
// presenter appends signals to.
//
// fsnotify is used when it can watch the file's directory; otherwise, or
// when polling is forced, the file is stat'ed on an interval. Either way
// bursts of writes are debounced into one notification.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vanderheijden86/loanwalk/pkg/debug"
)

// DefaultPollInterval is the default polling interval for fallback mode.
const DefaultPollInterval = 500 * time.Millisecond

// ForcePollEnv forces polling mode when set to a true value.
const ForcePollEnv = "LW_FORCE_POLL"

// Common errors.
var (
	ErrFileRemoved    = errors.New("watched file was removed")
	ErrPermission     = errors.New("permission denied")
	ErrAlreadyStarted = errors.New("watcher already started")
)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounceDuration sets the debounce duration.
func WithDebounceDuration(d time.Duration) Option {
	return func(w *Watcher) { w.debounceDuration = d }
}

// WithPollInterval sets the polling interval for fallback mode.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

// WithOnChange sets a callback invoked after each debounced change.
func WithOnChange(fn func()) Option {
	return func(w *Watcher) { w.onChange = fn }
}

// WithOnError sets a callback invoked on watch errors.
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) { w.onError = fn }
}

// WithForcePoll forces polling mode even if fsnotify is available.
func WithForcePoll(force bool) Option {
	return func(w *Watcher) { w.forcePoll = force }
}

// Watcher monitors one file.
type Watcher struct {
	path             string
	debounceDuration time.Duration
	pollInterval     time.Duration
	forcePoll        bool
	onChange         func()
	onError          func(error)

	debouncer *Debouncer
	changeCh  chan struct{}

	mu        sync.RWMutex
	started   bool
	polling   bool
	cancel    context.CancelFunc
	fsWatcher *fsnotify.Watcher
	lastMtime time.Time
	lastSize  int64
	wg        sync.WaitGroup
}

// NewWatcher creates a watcher for path. The file does not have to exist
// yet; its directory does once Start is called in fsnotify mode.
func NewWatcher(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	w := &Watcher{
		path:             abs,
		debounceDuration: DefaultDebounceDuration,
		pollInterval:     DefaultPollInterval,
		onChange:         func() {},
		onError:          func(error) {},
		changeCh:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.onChange == nil {
		w.onChange = func() {}
	}
	if w.onError == nil {
		w.onError = func(error) {}
	}
	w.debouncer = NewDebouncer(w.debounceDuration)
	return w, nil
}

// Start begins watching. It returns ErrAlreadyStarted on a second call
// without an intervening Stop.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}

	info, err := os.Stat(w.path)
	switch {
	case err == nil:
		w.lastMtime, w.lastSize = info.ModTime(), info.Size()
	case os.IsPermission(err):
		return ErrPermission
	default:
		// Not created yet.
		w.lastMtime, w.lastSize = time.Time{}, 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.polling = w.forcePoll || envBool(ForcePollEnv)

	if !w.polling {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			err = fsw.Add(filepath.Dir(w.path))
			if err != nil {
				fsw.Close()
			}
		}
		if err != nil {
			debug.Log("watcher: fsnotify unavailable for %s, polling: %v", w.path, err)
			w.polling = true
		} else {
			w.fsWatcher = fsw
			w.wg.Add(1)
			go w.watchFsnotify(ctx, fsw)
		}
	}
	if w.polling {
		w.wg.Add(1)
		go w.watchPolling(ctx)
	}

	w.started = true
	debug.Log("watcher: watching %s (polling=%v)", w.path, w.polling)
	return nil
}

// Stop stops watching and waits for the watch goroutines to exit.
// Changed is left open so a receiver blocked on it is not woken spuriously.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.started = false
	w.cancel()
	if w.fsWatcher != nil {
		w.fsWatcher.Close()
		w.fsWatcher = nil
	}
	w.mu.Unlock()

	w.debouncer.Cancel()
	w.wg.Wait()
}

// IsPolling returns true if the watcher is using polling mode.
func (w *Watcher) IsPolling() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.polling
}

// IsStarted returns true if the watcher is running.
func (w *Watcher) IsStarted() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.started
}

// Changed receives once per debounced change. Bursts that arrive while a
// notification is still pending are merged.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changeCh
}

// Path returns the absolute watched path.
func (w *Watcher) Path() string {
	return w.path
}

// PollInterval returns the polling interval used when polling mode is active.
func (w *Watcher) PollInterval() time.Duration {
	return w.pollInterval
}

func envBool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

func (w *Watcher) watchFsnotify(ctx context.Context, fsw *fsnotify.Watcher) {
	defer w.wg.Done()
	target := filepath.Base(w.path)

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != target {
				continue
			}
			switch {
			case ev.Has(fsnotify.Remove):
				w.onError(ErrFileRemoved)
			case ev.Has(fsnotify.Write), ev.Has(fsnotify.Create), ev.Has(fsnotify.Rename):
				w.debouncer.Trigger(w.notifyChange)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

func (w *Watcher) watchPolling(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *Watcher) poll() {
	info, err := os.Stat(w.path)
	if err != nil {
		switch {
		case os.IsNotExist(err):
			w.mu.Lock()
			hadFile := !w.lastMtime.IsZero()
			w.lastMtime, w.lastSize = time.Time{}, 0
			w.mu.Unlock()
			if hadFile {
				w.onError(ErrFileRemoved)
			}
		case os.IsPermission(err):
			w.onError(ErrPermission)
		default:
			w.onError(err)
		}
		return
	}

	w.mu.Lock()
	changed := !info.ModTime().Equal(w.lastMtime) || info.Size() != w.lastSize
	w.lastMtime, w.lastSize = info.ModTime(), info.Size()
	w.mu.Unlock()

	if changed {
		w.debouncer.Trigger(w.notifyChange)
	}
}

func (w *Watcher) notifyChange() {
	if !w.IsStarted() {
		return
	}
	w.onChange()
	select {
	case w.changeCh <- struct{}{}:
	default:
	}
}
