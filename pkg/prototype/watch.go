package prototype

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounce = 100 * time.Millisecond

// Watch reloads summoned file sources when they change on disk and emits the
// id of every template it re-seeded. The set of watched files is the summoned
// sources at call time. The channel closes when ctx is done.
func (r *Registry) Watch(ctx context.Context) (<-chan string, error) {
	sources, err := r.sources.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}

	fl, _ := r.loader.(*FileLoader)
	if fl == nil {
		fl = &FileLoader{}
	}

	// Editors often replace files, so the parent directory is watched.
	files := make(map[string]string)
	dirs := make(map[string]struct{})
	for id, locator := range sources {
		path, ok := fl.path(locator)
		if !ok {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			continue
		}
		files[abs] = id
		dirs[filepath.Dir(abs)] = struct{}{}
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	ch := make(chan string, 16)
	go r.watchLoop(ctx, fw, files, sources, ch)
	return ch, nil
}

func (r *Registry) watchLoop(ctx context.Context, fw *fsnotify.Watcher, files, sources map[string]string, ch chan<- string) {
	defer close(ch)
	defer fw.Close()

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if _, watched := files[event.Name]; !watched {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				pending[event.Name] = time.Now()
			}

		case <-ticker.C:
			now := time.Now()
			for file, t := range pending {
				if now.Sub(t) < debounce {
					continue
				}
				delete(pending, file)

				id := files[file]
				if _, err := r.load(ctx, id, sources[id]); err != nil {
					r.logger.Warn("Prototype reload failed", "id", id, "err", err)
					continue
				}
				select {
				case ch <- id:
				case <-ctx.Done():
					return
				}
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			r.logger.Warn("Prototype watcher error", "err", err)
		}
	}
}
