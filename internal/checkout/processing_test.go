package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/marketplace-storefront/pkg/redis"
)

func TestProcessingFlagsAreExclusivePerSession(t *testing.T) {
	ctx := context.Background()
	flags, err := NewProcessingFlags(redis.NewMemory(), time.Minute)
	if err != nil {
		t.Fatalf("new flags: %v", err)
	}

	release, ok, err := flags.Acquire(ctx, "sess-1")
	if err != nil || !ok {
		t.Fatalf("first acquire should win, ok=%v err=%v", ok, err)
	}
	if _, ok, _ := flags.Acquire(ctx, "sess-1"); ok {
		t.Fatal("second acquire on the same session must fail")
	}
	if _, ok, _ := flags.Acquire(ctx, "sess-2"); !ok {
		t.Fatal("other sessions are independent")
	}
	if processing, _ := flags.IsProcessing(ctx, "sess-1"); !processing {
		t.Fatal("expected flag to be visible")
	}
	if err := release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if processing, _ := flags.IsProcessing(ctx, "sess-1"); processing {
		t.Fatal("expected flag to be cleared")
	}
}

func TestStaleReleaseDoesNotClearNewOwner(t *testing.T) {
	ctx := context.Background()
	flags, err := NewProcessingFlags(redis.NewMemory(), time.Minute)
	if err != nil {
		t.Fatalf("new flags: %v", err)
	}
	first, _, _ := flags.Acquire(ctx, "sess")
	if err := first(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	_, ok, _ := flags.Acquire(ctx, "sess")
	if !ok {
		t.Fatal("expected re-acquire after release")
	}
	if err := first(ctx); err != nil {
		t.Fatalf("second release: %v", err)
	}
	if processing, _ := flags.IsProcessing(ctx, "sess"); !processing {
		t.Fatal("a stale release must not clear the new owner's flag")
	}
}
