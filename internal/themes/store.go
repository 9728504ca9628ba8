// Package themes persists and lists CSS theme profiles. A theme is a
// single .css file whose leading /* ... */ comment carries the display
// name and description.
package themes

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/starford/raido/internal/apperr"
)

// MaxThemeSize bounds the serialized theme file (header + CSS body).
const MaxThemeSize = 100 << 10 // 100 KiB

// Theme is one named CSS profile as presented to the API.
type Theme struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	File        string `json:"file"`
}

// Store manages theme files under a single directory. A cached listing is
// kept until Invalidate is called (the directory watcher does that); the
// cache is purely an optimization and List falls back to a direct scan.
type Store struct {
	dir string

	mu      sync.Mutex
	cache   []Theme
	cacheOK bool
}

// NewStore creates a Store over dir. The directory is created lazily on
// the first Save.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the themes directory.
func (s *Store) Dir() string {
	return s.dir
}

// Invalidate drops the cached listing.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.cache = nil
	s.cacheOK = false
	s.mu.Unlock()
}

// List returns all themes in deterministic filename order. A file that
// cannot be read or parsed is logged and skipped, never fatal.
func (s *Store) List() ([]Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cacheOK {
		out := make([]Theme, len(s.cache))
		copy(out, s.cache)
		return out, nil
	}
	themes, err := s.scan()
	if err != nil {
		return nil, err
	}
	s.cache = themes
	s.cacheOK = true
	out := make([]Theme, len(themes))
	copy(out, themes)
	return out, nil
}

func (s *Store) scan() ([]Theme, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Theme{}, nil
		}
		return nil, fmt.Errorf("themes: read dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".css") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	themes := make([]Theme, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			slog.Warn("themes: skipping unreadable file",
				slog.String("file", name), slog.String("error", err.Error()))
			continue
		}
		id := strings.TrimSuffix(name, filepath.Ext(name))
		display, desc := parseHeader(string(data), id)
		themes = append(themes, Theme{
			ID:          id,
			Name:        display,
			Description: desc,
			File:        "/static/css/themes/" + name,
		})
	}
	return themes, nil
}

// parseHeader extracts the display name and description from a leading
// /* ... */ block. Without one, the name is derived from the file stem.
func parseHeader(content, id string) (name, description string) {
	name = titleFromID(id)
	if !strings.HasPrefix(content, "/*") {
		return name, ""
	}
	end := strings.Index(content, "*/")
	if end < 0 {
		return name, ""
	}
	comment := strings.TrimSpace(content[2:end])
	lines := strings.Split(comment, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return name, ""
	}
	name = strings.TrimSpace(lines[0])
	rest := make([]string, 0, len(lines)-1)
	for _, l := range lines[1:] {
		if t := strings.TrimSpace(l); t != "" {
			rest = append(rest, t)
		}
	}
	return name, strings.Join(rest, " ")
}

// titleFromID turns "solarized_dark" into "Solarized Dark".
func titleFromID(id string) string {
	words := strings.FieldsFunc(id, func(r rune) bool {
		return r == '-' || r == '_'
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// SanitizeID keeps lowercase alphanumerics, hyphen, and underscore.
// Everything else, including path separators and dots, is dropped.
func SanitizeID(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// neutralizeComment defangs comment delimiters so a crafted name or
// description cannot terminate the header block early or open a new one.
func neutralizeComment(s string) string {
	s = strings.ReplaceAll(s, "*/", "* /")
	return strings.ReplaceAll(s, "/*", "/ *")
}

// Save writes (or overwrites) the theme as <id>.css and returns the
// sanitized id. The write goes through a temp file and rename so a partial
// theme is never observable.
func (s *Store) Save(rawID, name, description, css string) (string, error) {
	id := SanitizeID(rawID)
	if id == "" {
		return "", fmt.Errorf("themes: id %q sanitizes to nothing: %w", rawID, apperr.ErrInvalidInput)
	}
	if name == "" {
		name = id
	}
	name = neutralizeComment(name)
	description = neutralizeComment(description)

	full := "/*\n" + name + "\n" + description + "\n*/\n\n" + css
	if len(full) > MaxThemeSize {
		return "", fmt.Errorf("themes: serialized theme is %d bytes: %w", len(full), apperr.ErrTooLarge)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("themes: mkdir: %w", err)
	}
	if err := s.writeAtomic(id+".css", []byte(full)); err != nil {
		return "", err
	}
	s.Invalidate()
	return id, nil
}

// FilePath maps an id (sanitized again, defensively at the serving edge)
// to the absolute path of its theme file.
func (s *Store) FilePath(rawID string) (string, error) {
	id := SanitizeID(rawID)
	if id == "" {
		return "", fmt.Errorf("themes: invalid id %q: %w", rawID, apperr.ErrInvalidInput)
	}
	return filepath.Join(s.dir, id+".css"), nil
}

// writeAtomic writes content: tmp file, fsync, rename.
func (s *Store) writeAtomic(name string, content []byte) error {
	tmp, err := os.CreateTemp(s.dir, ".raido-tmp-*")
	if err != nil {
		return fmt.Errorf("themes: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("themes: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("themes: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("themes: close temp: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("themes: rename: %w", err)
	}
	success = true
	return nil
}
