package port

import (
	"context"

	"github.com/smallstore/pos/internal/core/domain"
)

type CacheRepository interface {
	// GetSnapshot returns a cached catalog snapshot, or nil on a miss.
	// Display-only; validation paths read the store directly.
	GetSnapshot(ctx context.Context, name string) (*domain.ItemSnapshot, error)

	// SetSnapshot caches a snapshot with a short TTL.
	SetSnapshot(ctx context.Context, snap *domain.ItemSnapshot) error

	// SetIdempotency sets a key once, returns false if it already exists.
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// ClearIdempotency releases a key after a definite abort so the same
	// cart may be resubmitted.
	ClearIdempotency(ctx context.Context, key string) error
}
