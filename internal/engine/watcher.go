package engine

import (
	"context"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/andreymedv/clang-index-mcp/internal/debug"
	"github.com/andreymedv/clang-index-mcp/internal/types"
)

// ReparseFunc turns a changed file back into its event stream. Supplied
// by the frontend; the engine itself never reads source text.
type ReparseFunc func(path string) ([]types.Event, error)

// Watcher monitors the project root and re-ingests changed translation
// units. Changes are debounced; one rebuild covers a whole burst. A
// changed unit's previous contribution is discarded wholesale because a
// rebuild starts from the retained event streams.
type Watcher struct {
	engine  *Engine
	reparse ReparseFunc
	fw      *fsnotify.Watcher

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	pending map[string]fsnotify.Op
}

// NewWatcher creates a watcher over the engine's configured project root.
func NewWatcher(e *Engine, reparse ReparseFunc) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		engine:  e,
		reparse: reparse,
		fw:      fw,
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[string]fsnotify.Op),
	}, nil
}

// Start adds recursive directory watches under the project root and
// begins processing events.
func (w *Watcher) Start() error {
	root := w.engine.cfg.Project.Root
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if rel := w.relative(path); rel != "." && w.excluded(rel) {
			return filepath.SkipDir
		}
		if addErr := w.fw.Add(path); addErr != nil {
			debug.LogEngine("watch add failed for %s: %v\n", path, addErr)
		}
		return nil
	})
	if err != nil {
		return err
	}

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop halts event processing and waits for the in-flight rebuild.
func (w *Watcher) Stop() error {
	w.cancel()
	err := w.fw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	debounce := time.Duration(w.engine.cfg.Index.WatchDebounceMs) * time.Millisecond
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-w.ctx.Done():
			timer.Stop()
			return

		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev.Name) {
				continue
			}
			w.mu.Lock()
			w.pending[ev.Name] |= ev.Op
			w.mu.Unlock()
			timer.Reset(debounce)

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			debug.LogEngine("watcher error: %v\n", err)

		case <-timer.C:
			w.flush()
		}
	}
}

// flush applies the accumulated changes and rebuilds once.
func (w *Watcher) flush() {
	w.mu.Lock()
	batch := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.mu.Unlock()
	if len(batch) == 0 {
		return
	}

	changed := 0
	for path, op := range batch {
		switch {
		case op&(fsnotify.Remove|fsnotify.Rename) != 0:
			w.engine.RemoveUnit(path)
			changed++
		case op&(fsnotify.Create|fsnotify.Write) != 0:
			events, err := w.reparse(path)
			if err != nil {
				debug.LogEngine("reparse failed for %s: %v\n", path, err)
				continue
			}
			w.engine.AddUnit(path, events)
			changed++
		}
	}
	if changed == 0 {
		return
	}
	if err := w.engine.Rebuild(w.ctx); err != nil {
		debug.LogEngine("rebuild after change failed: %v\n", err)
	}
}

// relevant applies the configured include/exclude globs to a changed path.
func (w *Watcher) relevant(path string) bool {
	rel := w.relative(path)
	if w.excluded(rel) {
		return false
	}
	include := w.engine.cfg.Index.Include
	if len(include) == 0 {
		return true
	}
	for _, pattern := range include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (w *Watcher) excluded(rel string) bool {
	for _, pattern := range w.engine.cfg.Index.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (w *Watcher) relative(path string) string {
	rel, err := filepath.Rel(w.engine.cfg.Project.Root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
