package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/smallstore/pos/internal/core/domain"
	"github.com/smallstore/pos/internal/observability"
	"github.com/smallstore/pos/internal/port"
)

// CartService validates line additions against a fresh catalog read. Stock
// seen here is advisory only; the checkout transaction re-validates
// everything under its own isolation.
type CartService struct {
	catalog port.CatalogRepository
	metrics *observability.Metrics
	logger  *zap.Logger
}

func NewCartService(catalog port.CatalogRepository, metrics *observability.Metrics, logger *zap.Logger) *CartService {
	return &CartService{catalog: catalog, metrics: metrics, logger: logger}
}

// AddLine validates the request and appends it to the cart. The cart is left
// untouched on any validation failure, so the caller may correct the input
// and retry.
func (s *CartService) AddLine(ctx context.Context, cart *domain.Cart, itemName string, quantity int) (domain.LineItem, error) {
	if cart.State() != domain.CartStateBuilding {
		return domain.LineItem{}, domain.ErrCartFinalized
	}
	if quantity <= 0 {
		s.metrics.AddCartLine("rejected")
		return domain.LineItem{}, domain.ErrInvalidQuantity
	}

	snap, err := s.catalog.ResolveItem(ctx, itemName)
	if err != nil {
		return domain.LineItem{}, fmt.Errorf("resolve item: %w", err)
	}
	if snap == nil {
		s.metrics.AddCartLine("rejected")
		return domain.LineItem{}, &domain.UnknownItemError{ItemName: itemName}
	}
	if quantity > snap.Stock {
		s.metrics.AddCartLine("rejected")
		return domain.LineItem{}, &domain.InsufficientStockError{
			ItemName:  itemName,
			Requested: quantity,
			Available: snap.Stock,
		}
	}

	line, err := cart.Append(itemName, quantity)
	if err != nil {
		return domain.LineItem{}, err
	}

	s.metrics.AddCartLine("added")
	s.logger.Debug("line added",
		zap.String("cart_id", cart.ID),
		zap.Int("seq", line.Seq),
		zap.String("item", line.ItemName),
		zap.Int("quantity", line.Quantity),
	)
	return line, nil
}
