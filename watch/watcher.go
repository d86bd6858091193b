// Package watch observes a shader source tree and reports changes as
// debounced, generation-stamped events.
//
// The watcher is polled from the render loop: Poll never blocks and does no
// work proportional to frame rate beyond a cheap dirty-flag check when
// fsnotify is available. Without fsnotify (or when it fails on the platform)
// it degrades to fingerprinting the tree on a poll interval.
package watch

import (
	"hash/fnv"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/sdfview"
)

// DefaultDebounce is how long the watcher waits after the last observed
// change before emitting an event, coalescing rapid successive editor writes.
const DefaultDebounce = 100 * time.Millisecond

// defaultPollInterval limits how often the tree is re-fingerprinted when no
// fsnotify event has marked it dirty.
const defaultPollInterval = 250 * time.Millisecond

// ChangeEvent reports that the shader source tree changed.
type ChangeEvent struct {
	// Generation increases by one for every emitted event.
	Generation uint64

	// Fingerprint identifies the observed content state.
	Fingerprint uint64
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the debounce window. Values <= 0 disable debouncing,
// which is what the tests use to make Poll deterministic.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithPollInterval sets how often the tree is fingerprinted when the
// dirty flag has not been raised by fsnotify.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) { w.pollEvery = d }
}

// WithoutNotify disables fsnotify and relies on interval polling alone.
// Useful on filesystems where inotify is unreliable (network mounts) and
// for deterministic tests.
func WithoutNotify() Option {
	return func(w *Watcher) { w.noNotify = true }
}

// WithInitialEvent makes the watcher treat the tree's startup state as a
// change, so the first Poll cycle emits generation 1 for the content already
// on disk. Without it the startup state is the baseline and only later edits
// are reported.
func WithInitialEvent() Option {
	return func(w *Watcher) { w.lastEmitted = 0 }
}

// withClock substitutes the time source, for tests.
func withClock(now func() time.Time) Option {
	return func(w *Watcher) { w.now = now }
}

// Watcher tracks one shader source tree. It is used from a single goroutine
// (the render loop); only the dirty flag is touched from the fsnotify
// goroutine, hence the atomic.
type Watcher struct {
	root      string
	debounce  time.Duration
	pollEvery time.Duration
	now       func() time.Time

	fsw      *fsnotify.Watcher
	noNotify bool
	dirty    atomic.Bool

	generation   uint64
	lastEmitted  uint64 // fingerprint of the last emitted event
	lastChecked  time.Time
	pending      uint64 // fingerprint waiting out the debounce window
	pendingSince time.Time
	hasPending   bool
}

// New creates a watcher rooted at dir. The directory must exist; content may
// appear later. fsnotify registration failure is not fatal, the watcher
// falls back to pure polling.
func New(dir string, opts ...Option) (*Watcher, error) {
	base, err := fingerprintTree(dir)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:        dir,
		debounce:    DefaultDebounce,
		pollEvery:   defaultPollInterval,
		now:         time.Now,
		lastEmitted: base,
	}
	for _, opt := range opts {
		opt(w)
	}

	if w.noNotify {
		return w, nil
	}

	if fsw, err := fsnotify.NewWatcher(); err == nil {
		if err := addTree(fsw, dir); err == nil {
			w.fsw = fsw
			w.dirty.Store(true) // force one fingerprint after startup
			go w.consume()
		} else {
			_ = fsw.Close()
			sdfview.Logger().Warn("watch: fsnotify add failed, polling instead",
				"dir", dir, "err", err)
		}
	} else {
		sdfview.Logger().Warn("watch: fsnotify unavailable, polling instead", "err", err)
	}

	return w, nil
}

// addTree registers dir and every subdirectory with the fsnotify watcher.
// fsnotify watches are per directory, not recursive.
func addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}

// Root returns the watched directory.
func (w *Watcher) Root() string { return w.root }

// Generation returns the generation of the last emitted event.
func (w *Watcher) Generation() uint64 { return w.generation }

// consume drains fsnotify events into the dirty flag. A created directory
// is registered on the spot so edits inside it keep raising events; beyond
// that, event details don't matter because the fingerprint decides whether
// anything actually changed.
func (w *Watcher) consume() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addTree(w.fsw, ev.Name); err != nil {
						sdfview.Logger().Warn("watch: fsnotify add failed",
							"dir", ev.Name, "err", err)
					}
				}
			}
			w.dirty.Store(true)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			sdfview.Logger().Warn("watch: fsnotify error", "err", err)
		}
	}
}

// Poll checks for a change and returns an event once a change has survived
// the debounce window. It returns (nil, false) when there is nothing to
// report. I/O errors are logged and retried on the next call; they never
// produce an event and never fail the caller.
func (w *Watcher) Poll() (*ChangeEvent, bool) {
	now := w.now()

	if w.shouldFingerprint(now) {
		w.lastChecked = now

		fp, err := fingerprintTree(w.root)
		if err != nil {
			sdfview.Logger().Warn("watch: fingerprint failed, will retry", "err", err)
			return nil, false
		}

		switch {
		case w.hasPending && fp != w.pending:
			// Still being written; restart the debounce window.
			w.pending = fp
			w.pendingSince = now
		case !w.hasPending && fp != w.lastEmitted:
			w.pending = fp
			w.pendingSince = now
			w.hasPending = true
		}
	}

	if !w.hasPending || now.Sub(w.pendingSince) < w.debounce {
		return nil, false
	}

	w.hasPending = false
	if w.pending == w.lastEmitted {
		// Changed and changed back within the window; nothing to rebuild.
		return nil, false
	}

	w.lastEmitted = w.pending
	w.generation++
	ev := &ChangeEvent{Generation: w.generation, Fingerprint: w.pending}
	sdfview.Logger().Debug("watch: change detected",
		"generation", ev.Generation, "fingerprint", strconv.FormatUint(ev.Fingerprint, 16))
	return ev, true
}

// shouldFingerprint decides whether this Poll call walks the tree: always
// while a pending change is debouncing, when fsnotify flagged activity, or
// when the poll interval elapsed. The interval stays active alongside
// fsnotify as a backstop for changes its watches miss (moves into the tree,
// filesystems without reliable notification).
func (w *Watcher) shouldFingerprint(now time.Time) bool {
	if w.hasPending {
		return true
	}
	if w.fsw != nil && w.dirty.Swap(false) {
		return true
	}
	return now.Sub(w.lastChecked) >= w.pollEvery
}

// Close releases the fsnotify handle, if any.
func (w *Watcher) Close() error {
	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}

// fingerprintTree computes an FNV-1a hash over the sorted (path, size,
// mtime) triples of every regular file under dir. Content is not read;
// mtime plus size is cheap and catches editor saves reliably.
func fingerprintTree(dir string) (uint64, error) {
	type entry struct {
		path  string
		size  int64
		mtime int64
	}
	var entries []entry

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		entries = append(entries, entry{
			path:  path,
			size:  info.Size(),
			mtime: info.ModTime().UnixNano(),
		})
		return nil
	})
	if err != nil {
		return 0, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].path < entries[j].path })

	h := fnv.New64a()
	var buf [8]byte
	for _, e := range entries {
		_, _ = h.Write([]byte(e.path))
		putUint64(buf[:], uint64(e.size))
		_, _ = h.Write(buf[:])
		putUint64(buf[:], uint64(e.mtime))
		_, _ = h.Write(buf[:])
	}
	return h.Sum64(), nil
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}
