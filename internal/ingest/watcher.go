package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"github.com/joseph-ayodele/card-extractor/internal/common"
)

// State is where the watcher is in its lifecycle.
type State int32

const (
	StateIdle State = iota
	StateWatching
	StateDebouncing
	StateProcessing
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWatching:
		return "watching"
	case StateDebouncing:
		return "debouncing"
	case StateProcessing:
		return "processing"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// FileProcessor handles one newly arrived PDF.
type FileProcessor interface {
	ProcessFile(ctx context.Context, path string) error
}

// FileProcessorFunc adapts a function to FileProcessor.
type FileProcessorFunc func(ctx context.Context, path string) error

func (f FileProcessorFunc) ProcessFile(ctx context.Context, path string) error { return f(ctx, path) }

type WatchConfig struct {
	Dir         string        // single directory, not recursive
	SettleDelay time.Duration // wait after an event before reading the file
}

// Watcher processes every PDF in a directory once per session: the ones
// present at start, then each new name announced by the notifier.
type Watcher struct {
	cfg         WatchConfig
	proc        FileProcessor
	newNotifier NotifierFactory
	logger      *slog.Logger

	state     atomic.Int32
	processed *WatchState
}

type Option func(*Watcher)

// WithNotifierFactory replaces the fsnotify-backed notifier.
func WithNotifierFactory(f NotifierFactory) Option {
	return func(w *Watcher) {
		if f != nil {
			w.newNotifier = f
		}
	}
}

func NewWatcher(cfg WatchConfig, proc FileProcessor, logger *slog.Logger, opts ...Option) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{
		cfg:         cfg,
		proc:        proc,
		newNotifier: NewFSNotifier,
		logger:      logger,
		processed:   NewWatchState(),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// State returns the current lifecycle state.
func (w *Watcher) State() State { return State(w.state.Load()) }

func (w *Watcher) setState(s State) {
	if prev := State(w.state.Swap(int32(s))); prev != s {
		w.logger.Debug("watcher state", "from", prev.String(), "to", s.String())
	}
}

// Processed reports whether name was already handled in this session.
func (w *Watcher) Processed(name string) bool { return w.processed.Seen(name) }

// Run blocks until ctx is cancelled or the notifier fails. Cancellation is
// checked between events; a file already being processed is finished first.
func (w *Watcher) Run(ctx context.Context) error {
	if common.RunIDFromContext(ctx) == "" {
		ctx, _ = common.NewRun(ctx)
	}
	log := common.Logger(ctx, w.logger)
	defer w.setState(StateStopped)

	st, err := os.Stat(w.cfg.Dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return common.NewAppError(common.CodeNotFound, "directory not found: "+w.cfg.Dir, common.ErrNotFound)
		}
		return err
	}
	if !st.IsDir() {
		return common.NewAppError(common.CodeInvalidInput, "watch mode requires a directory: "+w.cfg.Dir, common.ErrInvalidInput)
	}

	n, err := w.newNotifier()
	if err != nil {
		log.Error("failed to create notifier", "error", err)
		return common.ToolchainError("fsnotify", err)
	}
	defer func() {
		if err := n.Close(); err != nil {
			log.Warn("failed to close notifier", "error", err)
		}
	}()
	if err := n.Add(w.cfg.Dir); err != nil {
		log.Error("failed to watch directory", "dir", w.cfg.Dir, "error", err)
		return fmt.Errorf("watch %s: %w", w.cfg.Dir, err)
	}

	// subscribe before the initial scan so nothing arriving in between is missed
	w.setState(StateWatching)
	if err := w.initialScan(ctx); err != nil {
		return err
	}
	log.Info("watching directory", "dir", w.cfg.Dir, "processed", w.processed.Len())

	for {
		select {
		case <-ctx.Done():
			log.Info("watch stopped", "processed", w.processed.Len())
			return nil
		case ev, ok := <-n.Events():
			if !ok {
				return errors.New("notifier closed")
			}
			w.handle(ctx, ev)
		case err, ok := <-n.Errors():
			if !ok {
				return errors.New("notifier closed")
			}
			log.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) initialScan(ctx context.Context) error {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", w.cfg.Dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && matches(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if ctx.Err() != nil {
			return nil
		}
		w.process(ctx, filepath.Join(w.cfg.Dir, name))
	}
	return nil
}

func (w *Watcher) handle(ctx context.Context, ev Event) {
	log := common.Logger(ctx, w.logger)
	if !matches(ev.Name) {
		return
	}
	name := filepath.Base(ev.Name)
	if w.processed.Seen(name) {
		log.Debug("already processed, ignoring", "file", name, "op", ev.Op.String())
		return
	}

	w.setState(StateDebouncing)
	if !sleep(ctx, w.cfg.SettleDelay) {
		return
	}
	if st, err := os.Stat(ev.Name); err != nil || !st.Mode().IsRegular() {
		log.Debug("entry vanished or is not a file", "file", name)
		w.setState(StateWatching)
		return
	}
	w.process(ctx, ev.Name)
}

// process runs the processor on path, detached from cancellation so an
// in-flight file always completes, and records its name.
func (w *Watcher) process(ctx context.Context, path string) {
	log := common.Logger(ctx, w.logger)
	name := filepath.Base(path)

	w.setState(StateProcessing)
	if err := w.proc.ProcessFile(context.WithoutCancel(ctx), path); err != nil {
		log.Error("processing failed", "file", name, "error", err)
	}
	w.processed.Mark(name)
	w.setState(StateWatching)
}

// sleep waits for d, returning false if ctx ends first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
