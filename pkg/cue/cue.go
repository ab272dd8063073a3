// Package cue turns lines appended to a cue file into navigation commands.
//
// Each non-empty line is one signal, either JSON ({"nextStep":"summary"} or
// "summary") or a bare tab id. Lines starting with # are ignored. Only lines
// written after the source starts are delivered.
package cue

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/vanderheijden86/loanwalk/pkg/debug"
	"github.com/vanderheijden86/loanwalk/pkg/flow"
	"github.com/vanderheijden86/loanwalk/pkg/watcher"
)

// Errors returned by Start.
var (
	ErrStarted = errors.New("cue source already started")
	ErrStopped = errors.New("cue source stopped")
)

// Option configures a Source.
type Option func(*Source)

// WithForcePoll makes the underlying watcher poll instead of using fsnotify.
func WithForcePoll(force bool) Option {
	return func(s *Source) { s.watchOpts = append(s.watchOpts, watcher.WithForcePoll(force)) }
}

// WithPollInterval sets the polling interval used in polling mode.
func WithPollInterval(d time.Duration) Option {
	return func(s *Source) { s.watchOpts = append(s.watchOpts, watcher.WithPollInterval(d)) }
}

// WithDebounce sets how long writes must settle before lines are read.
func WithDebounce(d time.Duration) Option {
	return func(s *Source) { s.watchOpts = append(s.watchOpts, watcher.WithDebounceDuration(d)) }
}

// WithRateLimit caps how many signals per second are delivered. Lines over
// the limit are dropped. A non-positive rps disables the limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Source) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithReplay delivers lines already in the file when the source starts.
func WithReplay(replay bool) Option {
	return func(s *Source) { s.replay = replay }
}

// Source watches a cue file.
type Source struct {
	path      string
	watchOpts []watcher.Option
	limiter   *rate.Limiter
	replay    bool

	w    *watcher.Watcher
	cmds chan flow.Command

	mu      sync.Mutex
	offset  int64
	partial []byte
	started bool
	stopped bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

// New creates a source for path. Nothing is read until Start.
func New(path string, opts ...Option) (*Source, error) {
	if path == "" {
		return nil, fmt.Errorf("cue: empty path")
	}
	s := &Source{
		path: path,
		cmds: make(chan flow.Command, 16),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.watchOpts = append(s.watchOpts, watcher.WithOnError(s.onWatchError))

	w, err := watcher.NewWatcher(path, s.watchOpts...)
	if err != nil {
		return nil, fmt.Errorf("cue: %w", err)
	}
	s.w = w
	s.path = w.Path()
	return s, nil
}

// Path returns the absolute cue file path.
func (s *Source) Path() string { return s.path }

// Commands delivers one command per accepted line. It is closed by Stop.
func (s *Source) Commands() <-chan flow.Command { return s.cmds }

// Start begins watching. The file's directory is created if needed.
func (s *Source) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrStarted
	}
	if s.stopped {
		return ErrStopped
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("cue: creating directory: %w", err)
	}
	s.offset = 0
	s.partial = nil
	if !s.replay {
		if info, err := os.Stat(s.path); err == nil {
			s.offset = info.Size()
		}
	}

	if err := s.w.Start(); err != nil {
		return fmt.Errorf("cue: %w", err)
	}
	s.stop = make(chan struct{})
	s.started = true

	s.wg.Add(1)
	go s.run()

	debug.Log("cue: reading %s from offset %d", s.path, s.offset)
	return nil
}

// Stop stops watching and closes Commands. A stopped source cannot be
// restarted; Start returns ErrStopped.
func (s *Source) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.stopped = true
	close(s.stop)
	s.mu.Unlock()

	s.w.Stop()
	s.wg.Wait()
	close(s.cmds)
}

func (s *Source) run() {
	defer s.wg.Done()
	if s.replay {
		s.drain()
	}
	for {
		select {
		case <-s.stop:
			return
		case <-s.w.Changed():
			s.drain()
		}
	}
}

func (s *Source) onWatchError(err error) {
	if errors.Is(err, watcher.ErrFileRemoved) {
		s.mu.Lock()
		s.offset = 0
		s.partial = nil
		s.mu.Unlock()
		debug.Log("cue: %s removed, will read from the start when it returns", s.path)
		return
	}
	debug.Warn("cue: watching %s: %v", s.path, err)
}

// drain reads whatever complete lines were appended since the last call.
func (s *Source) drain() {
	lines, err := s.readNew()
	if err != nil {
		debug.Warn("cue: reading %s: %v", s.path, err)
		return
	}
	for _, line := range lines {
		cmd, ok := s.accept(line)
		if !ok {
			continue
		}
		select {
		case s.cmds <- cmd:
		case <-s.stop:
			return
		}
	}
}

func (s *Source) readNew() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() < s.offset {
		debug.Log("cue: %s truncated, rewinding", s.path)
		s.offset = 0
		s.partial = nil
	}
	if _, err := f.Seek(s.offset, io.SeekStart); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	s.offset += int64(len(data))

	buf := append(s.partial, data...)
	end := bytes.LastIndexByte(buf, '\n')
	if end < 0 {
		s.partial = buf
		return nil, nil
	}
	s.partial = append([]byte(nil), buf[end+1:]...)
	return strings.Split(string(buf[:end]), "\n"), nil
}

func (s *Source) accept(line string) (flow.Command, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return flow.Command{}, false
	}
	sig, err := ParseLine(line)
	if err != nil {
		debug.Warn("cue: skipping line %q: %v", line, err)
		return flow.Command{}, false
	}
	if s.limiter != nil && !s.limiter.Allow() {
		debug.Warn("cue: rate limit exceeded, dropping %s", sig)
		return flow.Command{}, false
	}
	return sig.Command(), true
}

// ParseLine decodes one cue line.
func ParseLine(line string) (flow.Signal, error) {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "{") || strings.HasPrefix(line, `"`) {
		return flow.DecodeSignal([]byte(line))
	}
	return flow.ParseSignal(line)
}

// Append writes sig to the cue file at path as one JSON line.
func Append(path string, sig flow.Signal) error {
	data, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("encoding signal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating cue directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening cue file: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("writing cue file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing cue file: %w", err)
	}
	return nil
}
