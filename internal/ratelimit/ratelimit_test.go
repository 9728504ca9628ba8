package ratelimit

import (
	"sync"
	"testing"
	"time"
)

// fakeClock lets tests move the window deterministically.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func testLimiter(limit int, window time.Duration) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	l := New(limit, window)
	l.now = clock.now
	return l, clock
}

func TestAdmit_UpToLimitThenDenied(t *testing.T) {
	l, _ := testLimiter(100, time.Minute)
	for i := 0; i < 100; i++ {
		if !l.Admit("1.2.3.4") {
			t.Fatalf("request %d denied, want admitted", i+1)
		}
	}
	if l.Admit("1.2.3.4") {
		t.Error("101st request admitted, want denied")
	}
}

func TestAdmit_WindowSlides(t *testing.T) {
	l, clock := testLimiter(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !l.Admit("k") {
			t.Fatalf("request %d denied", i+1)
		}
		clock.advance(10 * time.Second)
	}
	if l.Admit("k") {
		t.Fatal("over-limit request admitted")
	}
	// Slide past the oldest timestamp (issued 30s ago, window 60s).
	clock.advance(31 * time.Second)
	if !l.Admit("k") {
		t.Error("admission did not resume after window slid")
	}
}

func TestAdmit_DenialNotRecorded(t *testing.T) {
	l, clock := testLimiter(1, time.Minute)
	if !l.Admit("k") {
		t.Fatal("first request denied")
	}
	// Hammering while denied must not extend the lockout.
	for i := 0; i < 10; i++ {
		if l.Admit("k") {
			t.Fatal("denied request admitted")
		}
	}
	clock.advance(61 * time.Second)
	if !l.Admit("k") {
		t.Error("denials were recorded and extended the window")
	}
}

func TestAdmit_KeysIndependent(t *testing.T) {
	l, _ := testLimiter(1, time.Minute)
	if !l.Admit("a") {
		t.Fatal("a denied")
	}
	if !l.Admit("b") {
		t.Error("b denied, keys should be independent")
	}
}

func TestAdmit_ConcurrentSingleKey(t *testing.T) {
	l := New(100, time.Minute)
	var wg sync.WaitGroup
	admitted := make(chan struct{}, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Admit("shared") {
				admitted <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(admitted)
	n := 0
	for range admitted {
		n++
	}
	if n != 100 {
		t.Errorf("admitted = %d, want exactly 100", n)
	}
}

func TestNew_Defaults(t *testing.T) {
	l := New(0, 0)
	if l.limit != DefaultLimit || l.window != DefaultWindow {
		t.Errorf("defaults = %d/%v", l.limit, l.window)
	}
}
