package domain

import "time"

// InventoryItem is a live catalogue entry from the inventory service.
type InventoryItem struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Category      string  `json:"category,omitempty"`
	UnitPrice     float64 `json:"unitPrice"`
	StockQuantity int     `json:"stockQuantity"`
	MinimumStock  int     `json:"minimumStock,omitempty"`
}

// SaleType distinguishes an in-stock purchase from a freeform request.
type SaleType string

const (
	SaleFromStock SaleType = "estoque"
	SaleRequested SaleType = "solicitacao"
)

// SaleStatus is the lifecycle of a registered request.
type SaleStatus string

const (
	SalePending   SaleStatus = "pendente"
	SaleConfirmed SaleStatus = "confirmada"
	SaleCancelled SaleStatus = "cancelada"
)

// SaleSourceWorkflow marks requests registered by the interpreter.
const SaleSourceWorkflow = "workflow"

// SaleRequest is the payload accepted by the sale registration service.
type SaleRequest struct {
	Type          SaleType `json:"type"`
	ItemID        string   `json:"itemId,omitempty"`
	ItemName      string   `json:"itemName"`
	RequestedName string   `json:"requestedName,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	Source        string   `json:"source"`
}

// SaleConfirmation is the registered request echoed back by the service.
type SaleConfirmation struct {
	ID             string     `json:"id"`
	Type           SaleType   `json:"type"`
	ItemID         string     `json:"itemId,omitempty"`
	ItemName       string     `json:"itemName"`
	RequestedName  string     `json:"requestedName,omitempty"`
	Price          *float64   `json:"price,omitempty"`
	Status         SaleStatus `json:"status"`
	Source         string     `json:"source"`
	CreatedAt      time.Time  `json:"createdAt"`
	PickupDeadline *time.Time `json:"pickupDeadline,omitempty"`
	ContactBy      *time.Time `json:"contactBy,omitempty"`
}
