package ratelimit_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/sophialabs/wirecheck/internal/infrastructure/outbound/ratelimit"
)

func TestTokenBucketStore_AllowWithinBurst(t *testing.T) {
	store := ratelimit.NewTokenBucketStore(time.Second, 3, time.Minute)
	defer store.Stop()

	for i := range 3 {
		if !store.Allow("watch") {
			t.Errorf("run %d should be allowed within burst", i+1)
		}
	}
}

func TestTokenBucketStore_DeniedOverBurst(t *testing.T) {
	store := ratelimit.NewTokenBucketStore(time.Hour, 1, time.Minute)
	defer store.Stop()

	store.Allow("client")
	if store.Allow("client") {
		t.Error("run over burst should be denied")
	}
}

func TestTokenBucketStore_ZeroIntervalNeverThrottles(t *testing.T) {
	store := ratelimit.NewTokenBucketStore(0, 1, time.Minute)
	defer store.Stop()

	for i := range 10 {
		if !store.Allow("x") {
			t.Fatalf("run %d denied with unlimited rate", i+1)
		}
	}
}

func TestTokenBucketStore_PerKeyIsolation(t *testing.T) {
	store := ratelimit.NewTokenBucketStore(time.Hour, 2, time.Minute)
	defer store.Stop()

	for range 2 {
		store.Allow("10.0.0.1")
	}
	if !store.Allow("10.0.0.2") {
		t.Error("second client should be allowed (separate bucket)")
	}
}

func TestTokenBucketStore_Wait(t *testing.T) {
	store := ratelimit.NewTokenBucketStore(50*time.Millisecond, 1, time.Minute)
	defer store.Stop()

	store.Allow("watch")
	start := time.Now()
	if err := store.Wait(context.Background(), "watch"); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("expected Wait to block for the refill, returned after %v", elapsed)
	}
}

func TestTokenBucketStore_WaitCancelled(t *testing.T) {
	store := ratelimit.NewTokenBucketStore(time.Hour, 1, time.Minute)
	defer store.Stop()

	store.Allow("watch")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := store.Wait(ctx, "watch"); err == nil {
		t.Error("expected Wait to fail when the context ends first")
	}
}

func TestTokenBucketStore_Len(t *testing.T) {
	store := ratelimit.NewTokenBucketStore(time.Second, 1, time.Minute)
	defer store.Stop()

	store.Allow("a")
	store.Allow("b")
	store.Allow("a")

	if store.Len() != 2 {
		t.Errorf("expected 2 limiters, got %d", store.Len())
	}
}

func TestTokenBucketStore_Evict(t *testing.T) {
	store := ratelimit.NewTokenBucketStore(time.Second, 1, time.Millisecond)
	defer store.Stop()

	store.Allow("old")
	time.Sleep(10 * time.Millisecond)
	store.Evict()

	if store.Len() != 0 {
		t.Errorf("expected 0 after eviction, got %d", store.Len())
	}
}

func TestTokenBucketStore_Concurrent(t *testing.T) {
	store := ratelimit.NewTokenBucketStore(time.Millisecond, 100, time.Minute)
	defer store.Stop()
	var wg sync.WaitGroup

	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Allow("concurrent")
		}()
	}
	wg.Wait()

	if store.Len() != 1 {
		t.Errorf("expected 1 limiter, got %d", store.Len())
	}
}

func TestTokenBucketStore_StopReleasesGoroutine(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	store := ratelimit.NewTokenBucketStore(time.Second, 1, time.Minute)
	store.Stop()
	store.Stop()
	time.Sleep(10 * time.Millisecond)
}
