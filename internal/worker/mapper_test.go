package worker

import (
	"context"
	"testing"
	"time"
)

func TestMapResultsIndexed(t *testing.T) {
	got := Map(context.Background(), 4, 100, func(i int) int { return i * i })
	if len(got) != 100 {
		t.Fatalf("len = %d, want 100", len(got))
	}
	for i, v := range got {
		if v != i*i {
			t.Errorf("result[%d] = %d, want %d", i, v, i*i)
		}
	}
}

func TestMapIdenticalAcrossWorkerCounts(t *testing.T) {
	fn := func(i int) int { return i*7 + 3 }
	serial := Map(context.Background(), 1, 50, fn)
	for _, workers := range []int{2, 8, 64} {
		parallel := Map(context.Background(), workers, 50, fn)
		for i := range serial {
			if serial[i] != parallel[i] {
				t.Fatalf("workers=%d: result[%d] = %d, want %d", workers, i, parallel[i], serial[i])
			}
		}
	}
}

func TestMapZeroItems(t *testing.T) {
	got := Map(context.Background(), 4, 0, func(i int) int { return i })
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestMapHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	done := make(chan struct{})
	go func() {
		Map(ctx, 4, 1000, func(i int) int {
			time.Sleep(time.Millisecond)
			return i
		})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Map did not return after cancellation")
	}
}

func TestLimiterUnlimitedWhenZero(t *testing.T) {
	l := NewLimiter(0, 0)
	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("unlimited limiter blocked for %v", elapsed)
	}
}

func TestLimiterAllows(t *testing.T) {
	l := NewLimiter(1, 1)
	if !l.Allow() {
		t.Error("first request should pass")
	}
	if l.Allow() {
		t.Error("second immediate request should be limited")
	}
}
