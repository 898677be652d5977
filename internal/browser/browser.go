// Package browser lists, streams and writes files strictly inside one root
// directory.
//
// Every client path goes through pathutil.Resolve before any filesystem call,
// so a request that would land outside the root (via "..", an absolute path or
// a symbolic link) fails with ErrPathEscape and touches nothing. Writes create
// missing parents one component at a time and re-check each one, then replace
// the target atomically.
package browser

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hostdash/hostdash/internal/audit"
	"github.com/hostdash/hostdash/pkg/errclass"
	"github.com/hostdash/hostdash/pkg/fsutil"
	"github.com/hostdash/hostdash/pkg/logging"
	"github.com/hostdash/hostdash/pkg/metrics"
	"github.com/hostdash/hostdash/pkg/model"
	"github.com/hostdash/hostdash/pkg/pathutil"
)

const (
	filePerm = 0o644
	dirPerm  = 0o755
)

// Options configures a Browser.
type Options struct {
	Root    string
	Logger  *logging.Logger
	Metrics *metrics.Registry
	Trail   audit.Trail
}

// Browser is stateless over the filesystem and safe for concurrent use.
type Browser struct {
	root    string
	log     *logging.Logger
	metrics *metrics.Registry
	trail   audit.Trail
}

// File is an open regular file inside the root.
type File struct {
	Name     string
	Size     int64
	Modified time.Time
	io.ReadSeekCloser
}

// New canonicalizes root and returns a Browser confined to it.
func New(opts Options) (*Browser, error) {
	root, err := pathutil.CanonicalRoot(opts.Root)
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = logging.Global()
	}
	if opts.Trail == nil {
		opts.Trail = audit.Discard
	}
	return &Browser{
		root:    root,
		log:     opts.Logger.WithFields(map[string]any{"component": "browser"}),
		metrics: opts.Metrics,
		trail:   opts.Trail,
	}, nil
}

// Root returns the canonical root directory.
func (b *Browser) Root() string { return b.root }

// List returns the direct children of the requested directory in the order
// the filesystem enumerates them.
func (b *Browser) List(ctx context.Context, requested string) (listing model.Listing, err error) {
	defer func() { b.finish("list", requested, err) }()
	if err := ctx.Err(); err != nil {
		return model.Listing{}, err
	}

	cp, err := pathutil.Resolve(b.root, requested)
	if err != nil {
		return model.Listing{}, err
	}
	info, err := os.Stat(cp.Abs)
	if err != nil {
		return model.Listing{}, statError(err, requested)
	}
	if !info.IsDir() {
		return model.Listing{}, errclass.ErrNotADirectory.WithMessagef("not a directory: %s", requested)
	}

	dir, err := os.Open(cp.Abs)
	if err != nil {
		return model.Listing{}, statError(err, requested)
	}
	defer dir.Close()
	names, err := dir.Readdirnames(-1)
	if err != nil {
		return model.Listing{}, errclass.ErrIO.Wrap(err)
	}

	entries := make([]model.FileEntry, 0, len(names))
	for _, name := range names {
		entry, ok := b.entry(cp.Abs, name)
		if ok {
			entries = append(entries, entry)
		}
	}
	return model.Listing{ResolvedPath: filepath.ToSlash(cp.Rel), Entries: entries}, nil
}

// entry stats one child. Symbolic links that resolve inside the root report
// their target's metadata; others report the link itself. Children that vanish
// between enumeration and stat are skipped.
func (b *Browser) entry(dir, name string) (model.FileEntry, bool) {
	full := filepath.Join(dir, name)
	info, err := os.Lstat(full)
	if err != nil {
		b.log.Debug("skipping entry", map[string]any{"name": name, "error": err.Error()})
		return model.FileEntry{}, false
	}
	if info.Mode()&fs.ModeSymlink != 0 && pathutil.Contains(b.root, full) == nil {
		if target, err := os.Stat(full); err == nil {
			info = target
		}
	}
	return model.FileEntry{
		Name:        name,
		IsDirectory: info.IsDir(),
		Size:        info.Size(),
		Modified:    info.ModTime(),
	}, true
}

// Open opens the requested regular file for streaming.
func (b *Browser) Open(ctx context.Context, requested string) (file *File, err error) {
	defer func() { b.finish("open", requested, err) }()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cp, err := pathutil.Resolve(b.root, requested)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(cp.Abs)
	if err != nil {
		return nil, statError(err, requested)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errclass.ErrIO.Wrap(err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, errclass.ErrNotAFile.WithMessagef("not a file: %s", requested)
	}
	return &File{
		Name:           filepath.Base(cp.Abs),
		Size:           info.Size(),
		Modified:       info.ModTime(),
		ReadSeekCloser: f,
	}, nil
}

// Write stores the content of r at the requested path, creating missing
// parent directories. The file appears atomically; concurrent writers to the
// same path race and the last rename wins.
func (b *Browser) Write(ctx context.Context, requested string, r io.Reader) (entry model.FileEntry, err error) {
	defer func() { b.finish("write", requested, err) }()
	if err := ctx.Err(); err != nil {
		return model.FileEntry{}, err
	}

	slashed := strings.TrimRight(filepath.ToSlash(requested), "/")
	if slashed == "" {
		return model.FileEntry{}, errclass.ErrInvalidArgument.WithMessage("cannot write to the root directory")
	}
	parentReq, leaf := path.Split(slashed)
	name, err := pathutil.ValidateFileName(leaf)
	if err != nil {
		return model.FileEntry{}, err
	}

	parent, err := pathutil.Resolve(b.root, parentReq)
	if err != nil {
		return model.FileEntry{}, err
	}
	dir, err := b.mkdirAll(parent)
	if err != nil {
		return model.FileEntry{}, err
	}

	target := filepath.Join(dir, name)
	if info, err := os.Lstat(target); err == nil && info.IsDir() {
		return model.FileEntry{}, errclass.ErrNotAFile.WithMessagef("is a directory: %s", requested)
	}

	n, err := fsutil.WriteStream(target, &ctxReader{ctx: ctx, r: r}, filePerm)
	if err != nil {
		return model.FileEntry{}, errclass.ErrIO.Wrap(err)
	}
	info, err := os.Stat(target)
	if err != nil {
		return model.FileEntry{}, errclass.ErrIO.Wrap(err)
	}

	rel, _ := filepath.Rel(b.root, target)
	if err := b.trail.Append(model.EventTypeFileWrite, filepath.ToSlash(rel), map[string]any{"size": n}); err != nil {
		b.log.ErrorErr("audit append failed", err)
	}
	return model.FileEntry{
		Name:     name,
		Size:     info.Size(),
		Modified: info.ModTime(),
	}, nil
}

// mkdirAll creates the components of parent below the root one at a time,
// re-checking containment after each step, and returns the canonical
// directory.
func (b *Browser) mkdirAll(parent pathutil.ConfinedPath) (string, error) {
	if parent.IsRoot() {
		return b.root, nil
	}
	cur := b.root
	for _, comp := range strings.Split(parent.Rel, string(filepath.Separator)) {
		next := filepath.Join(cur, comp)
		if _, err := os.Lstat(next); errors.Is(err, fs.ErrNotExist) {
			name, err := pathutil.ValidateFileName(comp)
			if err != nil {
				return "", err
			}
			next = filepath.Join(cur, name)
			if err := os.Mkdir(next, dirPerm); err != nil && !errors.Is(err, fs.ErrExist) {
				return "", mkdirError(err, comp)
			}
		}
		if err := pathutil.Contains(b.root, next); err != nil {
			return "", err
		}
		resolved, err := filepath.EvalSymlinks(next)
		if err != nil {
			return "", mkdirError(err, comp)
		}
		info, err := os.Stat(resolved)
		if err != nil {
			return "", errclass.ErrIO.Wrap(err)
		}
		if !info.IsDir() {
			return "", errclass.ErrNotADirectory.WithMessagef("not a directory: %s", comp)
		}
		cur = resolved
	}
	return cur, nil
}

// finish records metrics and audits rejected paths.
func (b *Browser) finish(op, requested string, err error) {
	b.metrics.RecordBrowserOp(op, err)
	if err == nil || !errors.Is(err, errclass.ErrPathEscape) {
		return
	}
	b.log.Warn("path rejected", map[string]any{"op": op, "path": requested})
	if aerr := b.trail.Append(model.EventTypePathRejected, requested, map[string]any{"op": op}); aerr != nil {
		b.log.ErrorErr("audit append failed", aerr)
	}
}

func statError(err error, requested string) error {
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return errclass.ErrNotFound.WithMessagef("not found: %s", requested)
	default:
		return errclass.ErrIO.Wrap(err)
	}
}

func mkdirError(err error, comp string) error {
	if errors.Is(err, syscall.ENOTDIR) {
		return errclass.ErrNotADirectory.WithMessagef("not a directory: %s", comp)
	}
	return errclass.ErrIO.Wrap(err)
}

// ctxReader stops an upload once the request context is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
