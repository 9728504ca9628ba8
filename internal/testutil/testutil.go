// Package testutil provides shared test helpers for setting up browse roots and audit databases.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/raido/internal/audit"
	"github.com/starford/raido/internal/browse"
	"github.com/starford/raido/internal/pathguard"
	"github.com/starford/raido/internal/themes"
)

// TestBrowse creates a temporary boundary root with a browse service over it.
// The returned root has symlinks resolved so it compares equal to guarded paths.
func TestBrowse(t *testing.T) (string, *browse.Service) {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	guard, err := pathguard.New(root)
	if err != nil {
		t.Fatal(err)
	}
	return root, browse.NewService(guard)
}

// TestThemeStore creates a theme store backed by a temporary directory.
func TestThemeStore(t *testing.T) *themes.Store {
	t.Helper()
	return themes.NewStore(filepath.Join(t.TempDir(), "themes"))
}

// TestAudit creates a temporary audit database that is automatically cleaned up.
func TestAudit(t *testing.T) *audit.Log {
	t.Helper()
	dbFile, err := os.CreateTemp("", "raido-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	log, err := audit.Open(dbFile.Name(), logger)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { log.Close() })
	return log
}
