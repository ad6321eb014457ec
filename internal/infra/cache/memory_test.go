package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryOnce(t *testing.T) {
	c := NewMemory()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	calls := 0
	fn := func() error { calls++; return nil }

	ran, err := c.Once(ctx, "broadcast:1", time.Minute, fn)
	if err != nil || !ran {
		t.Fatalf("first Once = %v, %v", ran, err)
	}
	ran, err = c.Once(ctx, "broadcast:1", time.Minute, fn)
	if err != nil || ran {
		t.Fatalf("second Once = %v, %v", ran, err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}

	now = now.Add(2 * time.Minute)
	if ran, _ := c.Once(ctx, "broadcast:1", time.Minute, fn); !ran || calls != 2 {
		t.Fatalf("expired key must run again, ran=%v calls=%d", ran, calls)
	}
}

func TestMemoryOnceReleasesKeyOnError(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()
	boom := errors.New("boom")
	if _, err := c.Once(ctx, "k", time.Minute, func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	ran, err := c.Once(ctx, "k", time.Minute, func() error { return nil })
	if err != nil || !ran {
		t.Fatalf("key must be released after error, ran=%v err=%v", ran, err)
	}
}
