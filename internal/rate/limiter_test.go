package rate

import (
	"sync"
	"testing"
	"time"
)

func TestLimiter_Allow(t *testing.T) {
	lim := New(Config{
		PerSecond: 10,
		Burst:     5,
	})

	// Should allow up to burst count immediately
	allowed := 0
	for i := 0; i < 10; i++ {
		if lim.Allow() {
			allowed++
		}
	}

	if allowed != 5 {
		t.Errorf("expected 5 allowed from burst, got %d", allowed)
	}
}

func TestLimiter_Refill(t *testing.T) {
	lim := New(Config{
		PerSecond: 100, // refills fast
		Burst:     2,
	})

	// Drain the bucket
	for lim.Allow() {
	}

	// Wait for tokens to refill
	time.Sleep(50 * time.Millisecond)

	if !lim.Allow() {
		t.Error("expected token to be available after refill period")
	}
}

func TestLimiter_BurstCap(t *testing.T) {
	lim := New(Config{
		PerSecond: 1000,
		Burst:     3,
	})

	// Even after a long sleep, tokens should not exceed burst
	time.Sleep(100 * time.Millisecond)

	allowed := 0
	for i := 0; i < 10; i++ {
		if lim.Allow() {
			allowed++
		}
	}

	if allowed > 3 {
		t.Errorf("burst cap exceeded: got %d allowed, want <= 3", allowed)
	}
}

func TestManager_PerKeyIsolation(t *testing.T) {
	m := NewManager(Config{PerSecond: 0.001, Burst: 1})

	if !m.Allow("alice") {
		t.Error("first submission from alice should pass")
	}
	if m.Allow("alice") {
		t.Error("second submission from alice should be throttled")
	}
	if !m.Allow("bob") {
		t.Error("bob has a separate bucket and should pass")
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m := NewManager(Config{PerSecond: 1000, Burst: 100})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Allow("shared")
		}()
	}
	wg.Wait()
}
