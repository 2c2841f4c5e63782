package ports

import (
	"context"

	"github.com/aretw0/auraflow/pkg/domain"
)

// InventoryService reads the live catalogue used by the sale node.
type InventoryService interface {
	Inventory(ctx context.Context) ([]domain.InventoryItem, error)
}

// SaleRegistrar writes sale requests produced by the sale node.
type SaleRegistrar interface {
	Register(ctx context.Context, req domain.SaleRequest) (*domain.SaleConfirmation, error)
}
