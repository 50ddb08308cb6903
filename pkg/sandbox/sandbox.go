// Package sandbox confines the shell to a fixed root directory. The root is
// canonicalized once at startup; every cd target must resolve to a path whose
// canonical form lies within it.
package sandbox

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Common sandbox errors.
var (
	ErrOutsideRoot     = errors.New("outside root")
	ErrHomeUnsupported = errors.New("~user expansion not supported")
)

// Root is the canonical sandbox root.
type Root struct {
	path string
}

// New canonicalizes path and returns it as a sandbox root.
func New(path string) (*Root, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("sandbox root: %w", err)
	}
	canon, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("sandbox root %s: %w", abs, err)
	}
	return &Root{path: canon}, nil
}

// Path returns the canonical root path.
func (r *Root) Path() string { return r.path }

// Within reports whether p, weakly canonicalized, is the root or below it.
// The comparison is by path components, not raw string prefix.
func (r *Root) Within(p string) bool {
	c := WeakCanonical(p)
	if c == r.path {
		return true
	}
	prefix := r.path
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(c, prefix)
}

// Resolve turns a cd target into a destination path:
//
//	""      the root
//	~       the root; ~/x resolves under the root; ~user is unsupported
//	rel     joined onto cwd
//	abs     taken as given
//
// The result is weakly canonicalized and checked against the root.
// "-" is not handled here; OLDPWD belongs to the shell, not the sandbox.
func (r *Root) Resolve(cwd, target string) (string, error) {
	var dest string
	switch {
	case target == "" || target == "~":
		dest = r.path
	case strings.HasPrefix(target, "~/"):
		dest = filepath.Join(r.path, target[2:])
	case strings.HasPrefix(target, "~"):
		return "", ErrHomeUnsupported
	case filepath.IsAbs(target):
		dest = target
	default:
		dest = filepath.Join(cwd, target)
	}

	dest = WeakCanonical(dest)
	if !r.Within(dest) {
		return "", ErrOutsideRoot
	}
	return dest, nil
}

// Rel renders p relative to the root: "/" for the root itself, "/sub/..."
// below it. p must already be within the root.
func (r *Root) Rel(p string) string {
	c := WeakCanonical(p)
	if c == r.path {
		return "/"
	}
	rel, err := filepath.Rel(r.path, c)
	if err != nil {
		return c
	}
	return "/" + filepath.ToSlash(rel)
}

// WeakCanonical resolves symlinks on the longest existing prefix of path and
// rejoins the remainder, mirroring weakly-canonical semantics: the target
// itself need not exist.
func WeakCanonical(path string) string {
	path = filepath.Clean(path)
	cur := path
	var tail []string
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			for i := len(tail) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, tail[i])
			}
			return filepath.Clean(resolved)
		}
		dir := filepath.Dir(cur)
		if dir == cur {
			// nothing along the path exists; fall back to the cleaned input
			return path
		}
		tail = append(tail, filepath.Base(cur))
		cur = dir
	}
}
