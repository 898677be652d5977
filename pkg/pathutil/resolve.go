// Package pathutil confines client-supplied paths to a root directory.
package pathutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/hostdash/hostdash/pkg/errclass"
)

// ConfinedPath is a path proven to resolve inside Root.
type ConfinedPath struct {
	Root string // canonical root
	Abs  string // canonical target
	Rel  string // target relative to Root, "." for Root itself
}

// IsRoot reports whether the path is the confinement root itself.
func (p ConfinedPath) IsRoot() bool {
	return p.Rel == "."
}

// CanonicalRoot resolves root to an absolute, symlink-free directory path.
func CanonicalRoot(root string) (string, error) {
	if root == "" {
		return "", errclass.ErrPathEscape.WithMessage("root must not be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", errclass.ErrPathEscape.WithMessagef("cannot resolve root: %v", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", errclass.ErrPathEscape.WithMessagef("cannot resolve root: %v", err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", errclass.ErrPathEscape.WithMessagef("cannot stat root: %v", err)
	}
	if !info.IsDir() {
		return "", errclass.ErrPathEscape.WithMessagef("root is not a directory: %s", root)
	}
	return resolved, nil
}

// Resolve joins requested to root, follows every symbolic link and ".."
// segment, and returns the canonical result if it is root or lies beneath it.
//
// A relative request is appended to root without lexical cleaning so that
// ".." is applied after the preceding components are resolved, the same way
// the operating system would. An absolute request is used as-is. Components
// that do not exist yet are appended to the closest existing ancestor.
func Resolve(root, requested string) (ConfinedPath, error) {
	if strings.ContainsRune(requested, 0) {
		return ConfinedPath{}, errclass.ErrInvalidArgument.WithMessage("path contains NUL byte")
	}
	canonicalRoot, err := CanonicalRoot(root)
	if err != nil {
		return ConfinedPath{}, err
	}

	raw := filepath.FromSlash(requested)
	var target string
	switch {
	case raw == "":
		target = canonicalRoot
	case filepath.IsAbs(raw):
		target = raw
	default:
		target = canonicalRoot + string(filepath.Separator) + raw
	}

	resolved, err := resolveExisting(target)
	if err != nil {
		return ConfinedPath{}, errclass.ErrPathEscape.WithMessagef("cannot resolve %q: %v", requested, err)
	}

	rel, ok := relWithin(canonicalRoot, resolved)
	if !ok {
		return ConfinedPath{}, errclass.ErrPathEscape.WithMessagef("path escapes root: %s", requested)
	}
	return ConfinedPath{Root: canonicalRoot, Abs: resolved, Rel: rel}, nil
}

// Contains re-checks that target, fully resolved, is root or beneath it.
// It is used after a second filesystem operation on an already resolved path.
func Contains(root, target string) error {
	canonicalRoot, err := CanonicalRoot(root)
	if err != nil {
		return err
	}
	resolved, err := resolveExisting(target)
	if err != nil {
		return errclass.ErrPathEscape.WithMessagef("cannot resolve target: %v", err)
	}
	if _, ok := relWithin(canonicalRoot, resolved); !ok {
		return errclass.ErrPathEscape.WithMessagef("path escapes root: %s", target)
	}
	return nil
}

// maxLinkHops bounds how many dangling symlinks resolveExisting follows.
const maxLinkHops = 255

// resolveExisting resolves symlinks in the longest existing prefix of path
// and appends the remaining components lexically. A missing component that
// is itself a dangling symlink is followed to its target.
func resolveExisting(path string) (string, error) {
	return resolveHops(path, 0)
}

func resolveHops(path string, hops int) (string, error) {
	if hops > maxLinkHops {
		return "", fmt.Errorf("too many symbolic links: %s", path)
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, syscall.ENOTDIR) {
		return "", err
	}

	dir, base := splitLast(path)
	if dir == "" || dir == path {
		return filepath.Clean(path), nil
	}
	parent, err := resolveHops(dir, hops)
	if err != nil {
		return "", err
	}
	candidate := filepath.Join(parent, base)
	if base == "." || base == ".." {
		return candidate, nil
	}

	info, err := os.Lstat(candidate)
	if err != nil || info.Mode()&fs.ModeSymlink == 0 {
		return candidate, nil
	}
	link, err := os.Readlink(candidate)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(link) {
		link = parent + string(filepath.Separator) + link
	}
	return resolveHops(link, hops+1)
}

// splitLast splits path at its final separator without cleaning it, so a
// trailing ".." survives to be applied against the resolved parent.
func splitLast(path string) (string, string) {
	sep := string(filepath.Separator)
	vol := filepath.VolumeName(path)
	rest := strings.TrimRight(path[len(vol):], sep)
	if rest == "" {
		return "", path
	}
	i := strings.LastIndex(rest, sep)
	if i < 0 {
		return "", path
	}
	dir := rest[:i]
	if dir == "" {
		dir = sep
	}
	return vol + dir, rest[i+1:]
}

func relWithin(root, target string) (string, bool) {
	rel, err := filepath.Rel(root, target)
	if err != nil || filepath.IsAbs(rel) {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}
