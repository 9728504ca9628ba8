package audit

import (
	"io"
	"log/slog"
	"os"
	"testing"
)

func testLog(t *testing.T) *Log {
	t.Helper()
	dbFile, err := os.CreateTemp("", "raido-audit-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	l, err := Open(dbFile.Name(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRecordAndRecent(t *testing.T) {
	l := testLog(t)
	l.Record(KindBoundaryDenied, "10.0.0.1:4242", "/etc/passwd")
	l.Record(KindCSRFDenied, "10.0.0.2:4243", "bad-token")

	events, err := l.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	for _, e := range events {
		if e.ID == "" || e.CreatedAt.IsZero() {
			t.Errorf("incomplete event: %+v", e)
		}
	}
}

func TestRecent_RespectsLimit(t *testing.T) {
	l := testLog(t)
	for i := 0; i < 5; i++ {
		l.Record(KindRateLimited, "10.0.0.1:1", "")
	}
	events, err := l.Recent(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Errorf("len = %d, want 3", len(events))
	}
}

func TestCountByKind(t *testing.T) {
	l := testLog(t)
	l.Record(KindSymlinkDenied, "a", "x")
	l.Record(KindSymlinkDenied, "b", "y")
	l.Record(KindThemeSaved, "c", "dark")

	n, err := l.CountByKind(KindSymlinkDenied)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
	n, err = l.CountByKind("never_recorded")
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}
