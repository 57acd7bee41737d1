// Package watch re-runs the build whenever the watched trees change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"
)

// Change detection modes.
const (
	ModePoll   = "poll"
	ModeNotify = "notify"
)

// State is the loop's position in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateBuilding
	StateCrashed
)

func (s State) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateCrashed:
		return "crashed-but-alive"
	default:
		return "idle"
	}
}

// BuildFunc performs one build.
type BuildFunc func(ctx context.Context) error

// Watcher runs a BuildFunc on start and after every change to its
// directories. A failing or panicking build never stops it.
type Watcher struct {
	dirs     []string
	build    BuildFunc
	interval time.Duration
	debounce time.Duration
	logger   *slog.Logger
	onBuild  func(err error)

	mu    sync.Mutex
	state State
	last  time.Time
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithInterval sets the polling interval. Defaults to one second.
func WithInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithDebounce sets how long notify mode waits for events to settle.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithOnBuild registers a callback invoked after every build attempt.
func WithOnBuild(fn func(err error)) Option {
	return func(w *Watcher) { w.onBuild = fn }
}

// New returns a Watcher for dirs. Poll mode picks up directories that
// appear later; notify mode only watches those present at start.
func New(build BuildFunc, dirs []string, opts ...Option) *Watcher {
	w := &Watcher{
		dirs:     dirs,
		build:    build,
		interval: time.Second,
		debounce: 200 * time.Millisecond,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// State returns the current loop state.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Watcher) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

// Run dispatches on mode and blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, mode string) error {
	switch mode {
	case ModeNotify:
		return w.Notify(ctx)
	case ModePoll, "":
		return w.Poll(ctx)
	default:
		return fmt.Errorf("watch: unknown mode %q", mode)
	}
}

// Poll builds once, then compares the newest modification time of the
// watched trees against the last recorded one every interval.
func (w *Watcher) Poll(ctx context.Context) error {
	w.last = LastModified(w.dirs...)
	w.rebuild(ctx)

	w.logger.Info("watch: polling", slog.Any("dirs", w.dirs), slog.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch: stopped")
			return nil
		case <-ticker.C:
			mtime := LastModified(w.dirs...)
			if !mtime.After(w.last) {
				continue
			}
			w.logger.Debug("watch: change detected", slog.Time("mtime", mtime))
			w.last = mtime
			w.rebuild(ctx)
		}
	}
}

// rebuild runs one build and records the resulting state. It is the
// loop's only recovery boundary.
func (w *Watcher) rebuild(ctx context.Context) {
	w.setState(StateBuilding)
	err := w.safeBuild(ctx)
	switch {
	case err == nil:
		w.setState(StateIdle)
	case ctx.Err() != nil:
		w.setState(StateIdle)
	default:
		w.logger.Error("watch: build failed, still serving the previous output",
			slog.String("error", err.Error()))
		w.setState(StateCrashed)
	}
	if w.onBuild != nil {
		w.onBuild(err)
	}
}

func (w *Watcher) safeBuild(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("watch: build panicked: %v", r)
		}
	}()
	return w.build(ctx)
}

// LastModified returns the newest modification time of any file or
// directory under dirs. Missing trees and entries that vanish during the
// walk are skipped.
func LastModified(dirs ...string) time.Time {
	var newest time.Time
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			if info.ModTime().After(newest) {
				newest = info.ModTime()
			}
			return nil
		})
	}
	return newest
}
