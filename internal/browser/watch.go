package browser

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/hostdash/hostdash/pkg/errclass"
	"github.com/hostdash/hostdash/pkg/model"
	"github.com/hostdash/hostdash/pkg/pathutil"
)

const watchBuffer = 64

// Watch reports changes to the direct children of the requested directory
// until ctx is done, then closes the channel. Changes are dropped when the
// receiver falls more than watchBuffer behind.
func (b *Browser) Watch(ctx context.Context, requested string) (changes <-chan model.FileChange, err error) {
	defer func() { b.finish("watch", requested, err) }()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cp, err := pathutil.Resolve(b.root, requested)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(cp.Abs)
	if err != nil {
		return nil, statError(err, requested)
	}
	if !info.IsDir() {
		return nil, errclass.ErrNotADirectory.WithMessagef("not a directory: %s", requested)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errclass.ErrIO.Wrap(err)
	}
	if err := w.Add(cp.Abs); err != nil {
		w.Close()
		return nil, errclass.ErrIO.Wrap(err)
	}

	out := make(chan model.FileChange, watchBuffer)
	go b.pump(ctx, w, cp.Abs, out)
	return out, nil
}

func (b *Browser) pump(ctx context.Context, w *fsnotify.Watcher, dir string, out chan<- model.FileChange) {
	defer close(out)
	defer w.Close()

	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Dir(ev.Name) != dir {
				continue
			}
			change := model.FileChange{Op: changeOp(ev.Op), Name: filepath.Base(ev.Name), Time: time.Now()}
			select {
			case out <- change:
			default:
				b.log.Debug("watch buffer full, dropping change", map[string]any{"name": change.Name})
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			b.log.Warn("watch error", map[string]any{"dir": dir, "error": err.Error()})
		case <-ctx.Done():
			return
		}
	}
}

func changeOp(op fsnotify.Op) model.FileChangeOp {
	switch {
	case op.Has(fsnotify.Create):
		return model.FileCreated
	case op.Has(fsnotify.Remove):
		return model.FileRemoved
	case op.Has(fsnotify.Rename):
		return model.FileRenamed
	case op.Has(fsnotify.Write):
		return model.FileWritten
	default:
		return model.FileModeEdit
	}
}
