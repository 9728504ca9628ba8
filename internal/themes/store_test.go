package themes

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/raido/internal/apperr"
)

func TestSaveAndList(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "themes"))

	id, err := s.Save("Solarized-Dark", "Solarized Dark", "Low contrast, warm.", "body { color: #839496; }")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id != "solarized-dark" {
		t.Errorf("id = %q, want solarized-dark", id)
	}

	themes, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(themes) != 1 {
		t.Fatalf("len = %d, want 1", len(themes))
	}
	th := themes[0]
	if th.Name != "Solarized Dark" || th.Description != "Low contrast, warm." {
		t.Errorf("theme = %+v", th)
	}
	if th.File != "/static/css/themes/solarized-dark.css" {
		t.Errorf("file = %q", th.File)
	}
}

func TestSave_SanitizesTraversalID(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "themes")
	s := NewStore(dir)

	id, err := s.Save("../../etc", "", "", "body {}")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id != "etc" {
		t.Errorf("id = %q, want etc", id)
	}
	if _, err := os.Stat(filepath.Join(dir, "etc.css")); err != nil {
		t.Errorf("theme file not inside themes dir: %v", err)
	}
	// Nothing may exist outside the themes directory.
	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "etc.css")); err == nil {
		t.Error("theme escaped the themes directory")
	}
}

func TestSave_EmptyAfterSanitize(t *testing.T) {
	s := NewStore(t.TempDir())
	if _, err := s.Save("../..//", "x", "", "body {}"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("Save = %v, want ErrInvalidInput", err)
	}
}

func TestSave_HeaderInjectionNeutralized(t *testing.T) {
	s := NewStore(t.TempDir())
	if _, err := s.Save("evil", "name */ body { display:none } /*", "desc */ tail", ".a {}"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	themes, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	th := themes[0]
	if strings.Contains(th.Name, "*/") {
		t.Errorf("name still contains comment close: %q", th.Name)
	}
	// The round-tripped name must be a name, not truncated CSS.
	if !strings.HasPrefix(th.Name, "name * /") {
		t.Errorf("name = %q", th.Name)
	}
}

func TestSave_TooLargeNotWritten(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "themes")
	s := NewStore(dir)
	huge := strings.Repeat("a", MaxThemeSize+1)
	if _, err := s.Save("big", "", "", huge); !errors.Is(err, apperr.ErrTooLarge) {
		t.Fatalf("Save = %v, want ErrTooLarge", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "big.css")); err == nil {
		t.Error("oversized theme was written")
	}
}

func TestSave_OverwriteIsIdempotent(t *testing.T) {
	s := NewStore(t.TempDir())
	if _, err := s.Save("dup", "First", "", ".a {}"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save("dup", "Second", "", ".b {}"); err != nil {
		t.Fatal(err)
	}
	themes, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(themes) != 1 || themes[0].Name != "Second" {
		t.Errorf("themes = %+v, want single theme named Second", themes)
	}
}

func TestSave_NoLeftoverTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	if _, err := s.Save("clean", "", "", "body {}"); err != nil {
		t.Fatal(err)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, ".raido-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestList_EmptyDirAndMissingDir(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "never-created"))
	themes, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(themes) != 0 {
		t.Errorf("len = %d, want 0", len(themes))
	}
}

func TestList_NameDerivedFromFilename(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "high_contrast.css"), []byte("body {}"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewStore(dir)
	themes, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if themes[0].Name != "High Contrast" {
		t.Errorf("name = %q, want High Contrast", themes[0].Name)
	}
}

func TestList_DeterministicOrder(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"zeta.css", "alpha.css", "mid.css"} {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("/*\nN\n\n*/\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	s := NewStore(dir)
	themes, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	got := []string{themes[0].ID, themes[1].ID, themes[2].ID}
	want := []string{"alpha", "mid", "zeta"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestList_CacheInvalidation(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	if _, err := s.List(); err != nil {
		t.Fatal(err)
	}
	// Write behind the store's back; the stale cache hides it until
	// Invalidate (normally the watcher's job).
	if err := os.WriteFile(filepath.Join(dir, "late.css"), []byte("body {}"), 0o644); err != nil {
		t.Fatal(err)
	}
	themes, _ := s.List()
	if len(themes) != 0 {
		t.Fatalf("cache should still be empty, got %d", len(themes))
	}
	s.Invalidate()
	themes, _ = s.List()
	if len(themes) != 1 {
		t.Errorf("after invalidate len = %d, want 1", len(themes))
	}
}

func TestFilePath_Sanitized(t *testing.T) {
	s := NewStore("/srv/themes")
	p, err := s.FilePath("../../../etc/passwd")
	if err != nil {
		t.Fatalf("FilePath: %v", err)
	}
	if p != filepath.Join("/srv/themes", "etcpasswd.css") {
		t.Errorf("path = %q", p)
	}
	if _, err := s.FilePath("///"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("FilePath(///) = %v, want ErrInvalidInput", err)
	}
}
