// Package browse lists directories and reads Markdown files inside the
// guarded boundary. All paths entering this package go through the path
// guard first; no entry is ever produced for a hidden file or a symlink.
package browse

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/pathguard"
)

// MaxMarkdownSize bounds a single file read. Checked against metadata
// before any content is read.
const MaxMarkdownSize = 10 << 20 // 10 MiB

// Entry is one child of a browsed directory.
type Entry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Kind        string `json:"type"` // "directory" or "file"
	Size        *int64 `json:"size,omitempty"`         // files only
	HasMarkdown *bool  `json:"has_markdown,omitempty"` // directories only
}

// Listing is the result of browsing one directory.
type Listing struct {
	CurrentPath string  `json:"current_path"`
	Parent      *string `json:"parent"`
	Items       []Entry `json:"items"`
}

// Service resolves raw paths through the guard and performs the actual
// directory and file I/O.
type Service struct {
	guard *pathguard.Guard
}

// NewService creates a browse service bound to the given guard.
func NewService(g *pathguard.Guard) *Service {
	return &Service{guard: g}
}

// Root returns the boundary root the service browses under.
func (s *Service) Root() string {
	return s.guard.Root()
}

// Resolve runs the raw path through the guard without touching its content.
func (s *Service) Resolve(raw string) (string, error) {
	return s.guard.ResolveSafe(raw)
}

// List enumerates the children of dir. Hidden entries and symlinks are
// dropped, directories come before files, names sort case-insensitively.
// A stat failure on a single child drops that child only.
func (s *Service) List(_ context.Context, raw string) (*Listing, error) {
	abs, err := s.guard.ResolveSafe(raw)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("browse: stat %s: %w", abs, apperr.ErrNotFound)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("browse: not a directory %s: %w", abs, apperr.ErrInvalidInput)
	}

	children, err := os.ReadDir(abs)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("browse: read dir %s: %w", abs, apperr.ErrAccessDenied)
		}
		return nil, fmt.Errorf("browse: read dir %s: %w", abs, err)
	}

	items := make([]Entry, 0, len(children))
	for _, child := range children {
		name := child.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if child.Type()&os.ModeSymlink != 0 {
			continue
		}
		childPath := filepath.Join(abs, name)
		if child.IsDir() {
			has := hasMarkdown(childPath)
			items = append(items, Entry{
				Name:        name,
				Path:        childPath,
				Kind:        "directory",
				HasMarkdown: &has,
			})
			continue
		}
		if !strings.EqualFold(filepath.Ext(name), ".md") {
			continue
		}
		ci, err := child.Info()
		if err != nil {
			// Raced away or unreadable: drop the entry, not the listing.
			continue
		}
		size := ci.Size()
		items = append(items, Entry{
			Name: name,
			Path: childPath,
			Kind: "file",
			Size: &size,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Kind != items[j].Kind {
			return items[i].Kind == "directory"
		}
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})

	var parent *string
	if abs != s.guard.Root() {
		p := filepath.Dir(abs)
		parent = &p
	}
	return &Listing{CurrentPath: abs, Parent: parent, Items: items}, nil
}

// errFoundMarkdown aborts a recursive walk as soon as one hit is found.
var errFoundMarkdown = errors.New("markdown found")

// hasMarkdown reports whether dir contains any .md file. Immediate children
// are checked first; the full recursive walk runs only when the shallow
// pass comes up empty. Hidden entries and symlinks never count.
func hasMarkdown(dir string) bool {
	children, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, c := range children {
		if strings.HasPrefix(c.Name(), ".") || c.Type()&os.ModeSymlink != 0 {
			continue
		}
		if !c.IsDir() && strings.EqualFold(filepath.Ext(c.Name()), ".md") {
			return true
		}
	}

	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil // unreadable subtree counts as empty
		}
		if p == dir {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&os.ModeSymlink != 0 {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(d.Name()), ".md") {
			return errFoundMarkdown
		}
		return nil
	})
	return errors.Is(err, errFoundMarkdown)
}
