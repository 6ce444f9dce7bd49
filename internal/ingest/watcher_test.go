package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/card-extractor/internal/common"
)

type fakeNotifier struct {
	events chan Event
	errs   chan error
	added  []string
	closed bool
	mu     sync.Mutex
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{events: make(chan Event), errs: make(chan error)}
}

func (f *fakeNotifier) Add(dir string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, dir)
	return nil
}

func (f *fakeNotifier) Events() <-chan Event { return f.events }

func (f *fakeNotifier) Errors() <-chan error { return f.errs }

func (f *fakeNotifier) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeNotifier) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// recorder publishes the base name of every processed file.
type recorder struct {
	calls chan string
}

func newRecorder() *recorder { return &recorder{calls: make(chan string, 32)} }

func (r *recorder) ProcessFile(ctx context.Context, path string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	r.calls <- filepath.Base(path)
	return nil
}

func (r *recorder) next(t *testing.T) string {
	t.Helper()
	select {
	case name := <-r.calls:
		return name
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for processing")
		return ""
	}
}

func (r *recorder) none(t *testing.T) {
	t.Helper()
	select {
	case name := <-r.calls:
		t.Fatalf("unexpected processing of %s", name)
	default:
	}
}

func writePDF(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("%PDF-1.4"), 0o644))
	return p
}

type harness struct {
	dir    string
	n      *fakeNotifier
	rec    *recorder
	w      *Watcher
	cancel context.CancelFunc
	done   chan error
}

func start(t *testing.T, dir string, settle time.Duration) *harness {
	t.Helper()
	rec := newRecorder()
	h := startWith(t, dir, settle, rec)
	h.rec = rec
	return h
}

func startWith(t *testing.T, dir string, settle time.Duration, proc FileProcessor) *harness {
	t.Helper()
	h := &harness{dir: dir, n: newFakeNotifier(), done: make(chan error, 1)}
	h.w = NewWatcher(WatchConfig{Dir: dir, SettleDelay: settle}, proc, nil,
		WithNotifierFactory(func() (Notifier, error) { return h.n, nil }))

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- h.w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-h.done
	})
	return h
}

func (h *harness) send(ev Event) { h.n.events <- ev }

func (h *harness) stop(t *testing.T) error {
	t.Helper()
	h.cancel()
	select {
	case err := <-h.done:
		h.done <- err // let Cleanup drain it
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
		return nil
	}
}

func TestWatcher_InitialScan(t *testing.T) {
	dir := t.TempDir()
	writePDF(t, dir, "b.pdf")
	writePDF(t, dir, "a.pdf")
	writePDF(t, dir, ".hidden.pdf")
	writePDF(t, dir, "notes.txt")

	h := start(t, dir, time.Millisecond)
	assert.Equal(t, "a.pdf", h.rec.next(t))
	assert.Equal(t, "b.pdf", h.rec.next(t))

	// a spurious event for a seeded name is ignored
	h.send(Event{Name: filepath.Join(dir, "a.pdf"), Op: OpWrite})
	h.send(Event{Name: filepath.Join(dir, "a.pdf"), Op: OpCreate})
	writePDF(t, dir, "c.pdf")
	h.send(Event{Name: filepath.Join(dir, "c.pdf"), Op: OpCreate})
	assert.Equal(t, "c.pdf", h.rec.next(t))
	h.rec.none(t)

	assert.True(t, h.w.Processed("a.pdf"))
	assert.False(t, h.w.Processed(".hidden.pdf"))
	assert.Equal(t, []string{dir}, h.n.added)
}

func TestWatcher_OneShotPerName(t *testing.T) {
	dir := t.TempDir()
	h := start(t, dir, time.Millisecond)

	p := writePDF(t, dir, "statement.pdf")
	h.send(Event{Name: p, Op: OpCreate})
	assert.Equal(t, "statement.pdf", h.rec.next(t))

	// later modifications of the same name never reprocess it
	h.send(Event{Name: p, Op: OpWrite})
	h.send(Event{Name: p, Op: OpWrite})

	q := writePDF(t, dir, "other.PDF")
	h.send(Event{Name: q, Op: OpWrite})
	assert.Equal(t, "other.PDF", h.rec.next(t))
	h.rec.none(t)
}

func TestWatcher_IgnoresNonMatching(t *testing.T) {
	dir := t.TempDir()
	h := start(t, dir, time.Millisecond)

	h.send(Event{Name: writePDF(t, dir, "notes.txt"), Op: OpCreate})
	h.send(Event{Name: writePDF(t, dir, ".partial.pdf"), Op: OpCreate})
	h.send(Event{Name: filepath.Join(dir, "gone.pdf"), Op: OpCreate})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.pdf"), 0o755))
	h.send(Event{Name: filepath.Join(dir, "folder.pdf"), Op: OpCreate})

	h.send(Event{Name: writePDF(t, dir, "real.pdf"), Op: OpCreate})
	assert.Equal(t, "real.pdf", h.rec.next(t))
	h.rec.none(t)
	assert.False(t, h.w.Processed("gone.pdf"))
}

func TestWatcher_NotifierErrorsAreNotFatal(t *testing.T) {
	dir := t.TempDir()
	h := start(t, dir, time.Millisecond)

	h.n.errs <- errors.New("queue overflow")
	h.send(Event{Name: writePDF(t, dir, "a.pdf"), Op: OpCreate})
	assert.Equal(t, "a.pdf", h.rec.next(t))
}

func TestWatcher_Stop(t *testing.T) {
	dir := t.TempDir()
	h := start(t, dir, time.Millisecond)

	h.send(Event{Name: writePDF(t, dir, "a.pdf"), Op: OpCreate})
	assert.Equal(t, "a.pdf", h.rec.next(t))

	require.NoError(t, h.stop(t))
	assert.Equal(t, StateStopped, h.w.State())
	assert.True(t, h.n.isClosed())
}

func TestWatcher_StopWhileSettling(t *testing.T) {
	dir := t.TempDir()
	h := start(t, dir, time.Hour)

	h.send(Event{Name: writePDF(t, dir, "slow.pdf"), Op: OpCreate})
	require.Eventually(t, func() bool { return h.w.State() == StateDebouncing }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, h.stop(t))
	h.rec.none(t)
	assert.False(t, h.w.Processed("slow.pdf"))
}

// blockingProcessor holds ProcessFile open until released.
type blockingProcessor struct {
	started chan string
	release chan struct{}
	ctxErr  chan error
}

func (b *blockingProcessor) ProcessFile(ctx context.Context, path string) error {
	b.started <- filepath.Base(path)
	<-b.release
	b.ctxErr <- ctx.Err()
	return nil
}

func TestWatcher_StopWhileProcessing(t *testing.T) {
	dir := t.TempDir()
	b := &blockingProcessor{started: make(chan string, 1), release: make(chan struct{}), ctxErr: make(chan error, 1)}
	h := startWith(t, dir, time.Millisecond, b)

	h.send(Event{Name: writePDF(t, dir, "big.pdf"), Op: OpCreate})
	select {
	case name := <-b.started:
		assert.Equal(t, "big.pdf", name)
	case <-time.After(2 * time.Second):
		t.Fatal("processing never started")
	}
	assert.Equal(t, StateProcessing, h.w.State())

	h.cancel()
	close(b.release)

	require.NoError(t, h.stop(t))
	assert.NoError(t, <-b.ctxErr)
	assert.True(t, h.w.Processed("big.pdf"))
	assert.Equal(t, StateStopped, h.w.State())
}

func TestWatcher_StartErrors(t *testing.T) {
	ctx := context.Background()
	rec := newRecorder()

	t.Run("missing directory", func(t *testing.T) {
		w := NewWatcher(WatchConfig{Dir: filepath.Join(t.TempDir(), "missing")}, rec, nil)
		err := w.Run(ctx)
		require.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("file instead of directory", func(t *testing.T) {
		p := writePDF(t, t.TempDir(), "a.pdf")
		w := NewWatcher(WatchConfig{Dir: p}, rec, nil)
		err := w.Run(ctx)
		require.ErrorIs(t, err, common.ErrInvalidInput)
	})

	t.Run("notifier unavailable", func(t *testing.T) {
		w := NewWatcher(WatchConfig{Dir: t.TempDir()}, rec, nil,
			WithNotifierFactory(func() (Notifier, error) { return nil, errors.New("too many open files") }))
		err := w.Run(ctx)
		require.ErrorIs(t, err, common.ErrToolchainUnavailable)
		assert.Equal(t, StateStopped, w.State())
	})

	rec.none(t)
}

func TestWatchState(t *testing.T) {
	s := NewWatchState()
	assert.False(t, s.Seen("a.pdf"))
	s.Mark("a.pdf")
	s.Mark("a.pdf")
	assert.True(t, s.Seen("a.pdf"))
	assert.Equal(t, 1, s.Len())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "debouncing", StateDebouncing.String())
	assert.Equal(t, "stopped", StateStopped.String())
}
