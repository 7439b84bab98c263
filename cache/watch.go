package cache

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the cache from the snapshot file whenever it changes on
// disk, until the context is canceled. The snapshot's directory is
// watched rather than the file itself, so atomic rename-into-place
// writes are picked up. Watch returns after the watcher is installed;
// reloads happen on a background goroutine. Snapshots that fail to parse
// are skipped, keeping the last good cache contents.
func (a *Attributes) Watch(ctx context.Context, path string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return err
	}
	target := filepath.Clean(path)
	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				snap, err := ReadSnapshotFile(target)
				if err != nil || snap == nil {
					continue
				}
				a.LoadSnapshot(snap)
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return nil
}
