package resilience

import (
	"sync"
	"testing"
	"time"
)

func TestBudget_AdmitsUpToMax(t *testing.T) {
	b := NewBudget(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !b.TryAcquire() {
			t.Fatalf("TryAcquire() #%d = false, want true", i+1)
		}
	}
	if b.TryAcquire() {
		t.Error("TryAcquire() over budget = true, want false")
	}
	if got := b.Remaining(); got != 0 {
		t.Errorf("Remaining() = %d, want 0", got)
	}
}

func TestBudget_WindowSlides(t *testing.T) {
	b := NewBudget(2, 30*time.Millisecond)

	if !b.TryAcquire() || !b.TryAcquire() {
		t.Fatal("initial acquires failed")
	}
	if b.TryAcquire() {
		t.Fatal("TryAcquire() over budget = true")
	}

	time.Sleep(40 * time.Millisecond)

	if !b.TryAcquire() {
		t.Error("TryAcquire() after window = false, want true")
	}
	if got := b.Remaining(); got != 1 {
		t.Errorf("Remaining() = %d, want 1", got)
	}
}

func TestBudget_SharedAcrossGoroutines(t *testing.T) {
	b := NewBudget(10, time.Minute)

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if b.TryAcquire() {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != 10 {
		t.Errorf("admitted = %d, want 10", admitted)
	}
}

func TestNewBudget_Defaults(t *testing.T) {
	b := NewBudget(0, 0)

	if b.max != 10 {
		t.Errorf("max = %d, want 10", b.max)
	}
	if b.window != time.Minute {
		t.Errorf("window = %v, want 1m", b.window)
	}
}
