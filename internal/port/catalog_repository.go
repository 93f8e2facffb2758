package port

import (
	"context"

	"github.com/smallstore/pos/internal/core/domain"
)

type CatalogRepository interface {
	// ResolveItem returns a fresh snapshot of the named item, or nil when no
	// item with that name exists. Read-only.
	ResolveItem(ctx context.Context, name string) (*domain.ItemSnapshot, error)
}
