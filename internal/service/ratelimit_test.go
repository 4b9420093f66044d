package service_test

import (
	"testing"

	"github.com/msomdec/fraudshield/internal/service"
)

func TestTokenBucket_AllowsUpToCapacity(t *testing.T) {
	tb := service.NewTokenBucket(1, 3) // rate=1/s, capacity=3
	defer tb.Close()

	// Should allow 3 requests immediately (full bucket).
	for i := 0; i < 3; i++ {
		if !tb.Allow("test-key") {
			t.Fatalf("request %d should be allowed (bucket not yet empty)", i+1)
		}
	}

	// 4th request should be denied (bucket empty).
	if tb.Allow("test-key") {
		t.Fatal("4th request should be denied (bucket empty)")
	}
}

func TestTokenBucket_DifferentKeysAreIndependent(t *testing.T) {
	tb := service.NewTokenBucket(1, 1) // capacity=1
	defer tb.Close()

	if !tb.Allow("203.0.113.7") {
		t.Fatal("first IP's first request should be allowed")
	}
	if tb.Allow("203.0.113.7") {
		t.Fatal("first IP's second request should be denied")
	}

	// A user email has its own bucket.
	if !tb.Allow("user@example.com") {
		t.Fatal("email key should be allowed (independent bucket)")
	}
}

func TestTokenBucket_NewKeyStartsFull(t *testing.T) {
	tb := service.NewTokenBucket(10, 5)
	defer tb.Close()

	for i := 0; i < 5; i++ {
		if !tb.Allow("new-key") {
			t.Fatalf("new key request %d should be allowed (starts full)", i+1)
		}
	}
	if tb.Allow("new-key") {
		t.Fatal("6th request should be denied")
	}
}

func TestTokenBucket_ZeroRateNeverRefills(t *testing.T) {
	tb := service.NewTokenBucket(0, 2) // never refills
	defer tb.Close()

	if !tb.Allow("k") {
		t.Fatal("first request should be allowed")
	}
	if !tb.Allow("k") {
		t.Fatal("second request should be allowed")
	}
	if tb.Allow("k") {
		t.Fatal("third request should be denied (no refill)")
	}
}

func TestPerMinute_AllowsBurstThenDenies(t *testing.T) {
	tb := service.PerMinute(6)
	defer tb.Close()

	for i := 0; i < 6; i++ {
		if !tb.Allow("analyst@example.com") {
			t.Fatalf("request %d should be allowed within the per-minute burst", i+1)
		}
	}
	if tb.Allow("analyst@example.com") {
		t.Fatal("7th request inside the same minute should be denied")
	}
}

func TestTokenBucket_CloseIsIdempotent(t *testing.T) {
	tb := service.NewTokenBucket(1, 1)
	tb.Close()
	tb.Close()

	if !tb.Allow("k") {
		t.Fatal("Allow should still work after Close")
	}
}
