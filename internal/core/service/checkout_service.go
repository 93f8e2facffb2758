package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/smallstore/pos/internal/core/domain"
	"github.com/smallstore/pos/internal/observability"
	"github.com/smallstore/pos/internal/port"
)

// CheckoutService turns a finalized cart into stock decrements and sale
// history via the store's atomic transaction, guarded by a cache-side
// idempotency key so the same cart is never committed twice.
type CheckoutService struct {
	catalog port.CatalogRepository
	store   port.CheckoutRepository
	cache   port.CacheRepository
	metrics *observability.Metrics
	logger  *zap.Logger
}

func NewCheckoutService(
	catalog port.CatalogRepository,
	store port.CheckoutRepository,
	cache port.CacheRepository,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		catalog: catalog,
		store:   store,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

// ComputeTotal prices the lines with a fresh lookup per line. Read-only and
// pure; the authoritative receipt total is recomputed inside Commit under the
// transaction's isolation.
func (s *CheckoutService) ComputeTotal(ctx context.Context, lines []domain.LineItem) (int, error) {
	total := 0
	for _, line := range lines {
		snap, err := s.catalog.ResolveItem(ctx, line.ItemName)
		if err != nil {
			return 0, fmt.Errorf("price lookup: %w", err)
		}
		if snap == nil {
			return 0, &domain.UnknownItemError{ItemName: line.ItemName}
		}
		total += snap.UnitPrice * line.Quantity
	}
	return total, nil
}

// Commit runs the all-or-nothing checkout transaction for a finalized cart.
// The cart id doubles as the commit id, so an ambiguous outcome can be
// reconciled against sale history.
func (s *CheckoutService) Commit(ctx context.Context, cartID string, lines []domain.LineItem) (*domain.CommitResult, error) {
	if len(lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	idemKey := "checkout:" + cartID
	ok, err := s.cache.SetIdempotency(ctx, idemKey)
	if err != nil {
		return nil, fmt.Errorf("idempotency check: %w", err)
	}
	if !ok {
		s.metrics.ObserveCommit("duplicate", 0)
		return nil, domain.ErrDuplicateCommit
	}

	start := time.Now()
	result, err := s.store.CommitSale(ctx, cartID, lines)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		status := commitStatus(err)
		s.metrics.ObserveCommit(status, elapsed)

		if !errors.Is(err, domain.ErrUnknownOutcome) {
			// Definite abort, nothing landed: release the key so the cashier
			// can resubmit this cart after correcting the problem.
			if clearErr := s.cache.ClearIdempotency(ctx, idemKey); clearErr != nil {
				s.logger.Warn("failed to clear idempotency key",
					zap.String("cart_id", cartID), zap.Error(clearErr))
			}
		}

		s.logger.Warn("checkout aborted",
			zap.String("cart_id", cartID),
			zap.String("status", status),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.ObserveCommit("committed", elapsed)
	s.logger.Info("checkout committed",
		zap.String("cart_id", cartID),
		zap.String("commit_id", result.CommitID),
		zap.Int("total", result.Total),
		zap.Int("lines", len(lines)),
	)
	return result, nil
}

// Reconcile resolves an ambiguous commit outcome by reading sale history.
// A nil result means the commit never landed.
func (s *CheckoutService) Reconcile(ctx context.Context, cartID string) (*domain.CommitResult, error) {
	return s.store.FindCommit(ctx, cartID)
}

func commitStatus(err error) string {
	var insufficient *domain.InsufficientStockError
	var unknown *domain.UnknownItemError
	switch {
	case errors.As(err, &insufficient):
		return "insufficient_stock"
	case errors.As(err, &unknown):
		return "unknown_item"
	case errors.Is(err, domain.ErrUnknownOutcome):
		return "unknown_outcome"
	case errors.Is(err, domain.ErrAborted):
		return "aborted"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "error"
	}
}
