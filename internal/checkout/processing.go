package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/marketplace-storefront/pkg/redis"
	"github.com/google/uuid"
)

type flagStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	DelIfValue(ctx context.Context, key, value string) (bool, error)
	ProcessingKey(sessionID string) string
}

// ProcessingFlags is the per-session isProcessingPayment flag shared by
// every storefront instance.
type ProcessingFlags struct {
	store flagStore
	ttl   time.Duration
}

// NewProcessingFlags builds flags over store. ttl bounds how long a crashed
// attempt can hold the flag.
func NewProcessingFlags(store flagStore, ttl time.Duration) (*ProcessingFlags, error) {
	if store == nil {
		return nil, fmt.Errorf("processing flag store is required")
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &ProcessingFlags{store: store, ttl: ttl}, nil
}

// Acquire sets the flag for sessionID. ok is false when another attempt holds
// it. release only clears the flag this call set.
func (f *ProcessingFlags) Acquire(ctx context.Context, sessionID string) (release func(context.Context) error, ok bool, err error) {
	key := f.store.ProcessingKey(sessionID)
	owner := uuid.NewString()
	ok, err = f.store.SetNX(ctx, key, owner, f.ttl)
	if err != nil {
		return nil, false, fmt.Errorf("set processing flag: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	return func(releaseCtx context.Context) error {
		if _, err := f.store.DelIfValue(releaseCtx, key, owner); err != nil {
			return fmt.Errorf("release processing flag: %w", err)
		}
		return nil
	}, true, nil
}

// IsProcessing reports whether a payment is in flight for sessionID.
func (f *ProcessingFlags) IsProcessing(ctx context.Context, sessionID string) (bool, error) {
	value, err := f.store.Get(ctx, f.store.ProcessingKey(sessionID))
	if err != nil {
		if redis.IsMissing(err) {
			return false, nil
		}
		return false, fmt.Errorf("read processing flag: %w", err)
	}
	return value != "", nil
}
