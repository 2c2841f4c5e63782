package memory

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/auraflow/pkg/domain"
)

const (
	pickupWindow  = 3 * 24 * time.Hour
	contactWindow = 7 * 24 * time.Hour
)

var (
	ErrInvalidSaleType = errors.New("invalid sale type")
	ErrMissingItem     = errors.New("item name is required")
)

// Workshop is an in-memory inventory and sale ledger.
// It implements ports.InventoryService and ports.SaleRegistrar.
type Workshop struct {
	mu    sync.RWMutex
	items []domain.InventoryItem
	sales []domain.SaleConfirmation
	now   func() time.Time

	// FailInventory and FailRegister inject collaborator failures.
	FailInventory error
	FailRegister  error
}

// NewWorkshop creates a ledger seeded with items.
func NewWorkshop(items ...domain.InventoryItem) *Workshop {
	return &Workshop{items: items, now: time.Now}
}

// Inventory returns the catalogue.
func (w *Workshop) Inventory(ctx context.Context) ([]domain.InventoryItem, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.FailInventory != nil {
		return nil, w.FailInventory
	}
	out := make([]domain.InventoryItem, len(w.items))
	copy(out, w.items)
	return out, nil
}

// Register validates and appends a sale request with status pendente.
// Stock purchases get a 3 day pickup deadline, freeform requests a 7 day contact window.
func (w *Workshop) Register(ctx context.Context, req domain.SaleRequest) (*domain.SaleConfirmation, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.FailRegister != nil {
		return nil, w.FailRegister
	}
	if req.Type != domain.SaleFromStock && req.Type != domain.SaleRequested {
		return nil, ErrInvalidSaleType
	}
	itemName := strings.TrimSpace(req.ItemName)
	requested := strings.TrimSpace(req.RequestedName)
	if itemName == "" && requested == "" {
		return nil, ErrMissingItem
	}
	if itemName == "" {
		itemName = requested
	}
	source := domain.SaleSourceWorkflow
	if req.Source == "painel" {
		source = req.Source
	}

	now := w.now().UTC()
	conf := domain.SaleConfirmation{
		ID:            "pedido-" + uuid.NewString(),
		Type:          req.Type,
		ItemID:        strings.TrimSpace(req.ItemID),
		ItemName:      itemName,
		RequestedName: requested,
		Status:        domain.SalePending,
		Source:        source,
		CreatedAt:     now,
	}
	if req.Price != nil {
		p := math.Round(*req.Price*100) / 100
		conf.Price = &p
	}
	if req.Type == domain.SaleFromStock {
		d := now.Add(pickupWindow)
		conf.PickupDeadline = &d
	} else {
		d := now.Add(contactWindow)
		conf.ContactBy = &d
	}
	w.sales = append(w.sales, conf)
	return &conf, nil
}

// Sales returns every registered request in order.
func (w *Workshop) Sales() []domain.SaleConfirmation {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]domain.SaleConfirmation, len(w.sales))
	copy(out, w.sales)
	return out
}
