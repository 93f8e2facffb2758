package port

import (
	"context"

	"github.com/smallstore/pos/internal/core/domain"
)

type CheckoutRepository interface {
	// CommitSale re-validates every line against one consistent snapshot,
	// decrements stock and appends sale history, all as a single atomic
	// transaction. Either the whole cart commits or none of it does.
	CommitSale(ctx context.Context, commitID string, lines []domain.LineItem) (*domain.CommitResult, error)

	// FindCommit reads sale history for a commit id, used to reconcile an
	// ambiguous outcome. Returns nil when no records landed.
	FindCommit(ctx context.Context, commitID string) (*domain.CommitResult, error)
}
