// Package pathguard canonicalizes user-supplied paths and decides whether
// they may be touched at all. Every filesystem-facing handler resolves its
// path here before any I/O happens.
package pathguard

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/raido/internal/apperr"
)

// ErrSymlink marks denials caused by a symlink in the path chain. It is
// always wrapped together with apperr.ErrAccessDenied; callers that only
// care about the HTTP status can keep matching the latter.
var ErrSymlink = errors.New("symlink rejected")

// Guard holds the boundary root. All admitted paths resolve to the root
// itself or to something strictly below it.
type Guard struct {
	root string // canonical absolute path, symlinks resolved
}

// New creates a Guard rooted at dir. The directory must exist; its own
// symlinks are resolved once here so later containment checks compare
// canonical forms.
func New(dir string) (*Guard, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("pathguard: resolve root: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("pathguard: canonicalize root: %w", err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("pathguard: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("pathguard: root is not a directory: %s", resolved)
	}
	return &Guard{root: resolved}, nil
}

// Root returns the canonical boundary root.
func (g *Guard) Root() string {
	return g.root
}

// ResolveSafe canonicalizes raw and admits it only when it lies inside the
// boundary and neither is, nor passes through, a symlink. The returned path
// is the canonical absolute form.
//
// Denials:
//   - apperr.ErrInvalidInput — empty or uncanonicalizable path
//   - apperr.ErrNotFound     — path does not exist
//   - apperr.ErrAccessDenied — symlink anywhere in the chain, or outside
//     the boundary root
func (g *Guard) ResolveSafe(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("pathguard: empty path: %w", apperr.ErrInvalidInput)
	}
	abs, err := filepath.Abs(filepath.Clean(raw))
	if err != nil {
		return "", fmt.Errorf("pathguard: canonicalize %q: %w", raw, apperr.ErrInvalidInput)
	}

	info, err := os.Lstat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("pathguard: %q: %w", raw, apperr.ErrNotFound)
		}
		if errors.Is(err, fs.ErrPermission) {
			return "", fmt.Errorf("pathguard: %q: %w", raw, apperr.ErrAccessDenied)
		}
		return "", fmt.Errorf("pathguard: %q: %w", raw, apperr.ErrInvalidInput)
	}
	// The final component must not itself be a symlink, even one pointing
	// back inside the boundary.
	if info.Mode()&os.ModeSymlink != 0 {
		return "", fmt.Errorf("pathguard: %q: %w: %w", raw, ErrSymlink, apperr.ErrAccessDenied)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("pathguard: canonicalize %q: %w", raw, apperr.ErrInvalidInput)
	}
	// A difference between the lexical and the fully-resolved form means
	// some intermediate component was a symlink.
	if resolved != abs {
		return "", fmt.Errorf("pathguard: %q traverses symlink: %w: %w", raw, ErrSymlink, apperr.ErrAccessDenied)
	}

	if !g.contains(resolved) {
		return "", fmt.Errorf("pathguard: outside boundary %q: %w", raw, apperr.ErrAccessDenied)
	}
	return resolved, nil
}

// contains reports whether p (canonical) lies at or below the root. The
// trailing separator keeps a sibling like /home/alicexyz from slipping
// past a naive prefix check against /home/alice.
func (g *Guard) contains(p string) bool {
	return p == g.root || strings.HasPrefix(p, g.root+string(os.PathSeparator))
}
