package runtime

import (
	"errors"
	"strings"

	"github.com/aretw0/auraflow/pkg/domain"
)

var (
	ErrNoInventory = errors.New("inventory service not configured")
	ErrNoRegistrar = errors.New("sale registrar not configured")
)

// enterSale starts the selection stage with a fresh catalogue. A failed fetch
// leaves the node awaiting input without sub-state, so the next message retries.
func (t *turn) enterSale(node domain.Node, d domain.SaleData) (*domain.Node, error) {
	items, err := t.fetchInventory()
	if err != nil {
		t.external(node, "inventory", err)
		t.say(t.e.messages.InventoryUnavailable)
		t.await(node)
		t.conv.State.SubState = nil
		return nil, nil
	}

	var available []domain.InventoryItem
	for _, it := range items {
		if it.StockQuantity > 0 {
			available = append(available, it)
		}
	}

	t.await(node)
	if len(available) == 0 {
		t.conv.State.SubState = &domain.SaleState{Stage: domain.StageCustomName, NodeID: node.ID}
		t.say(t.customNamePrompt(d))
		return nil, nil
	}
	t.conv.State.SubState = &domain.SaleState{Stage: domain.StageSelection, NodeID: node.ID, Items: available}
	t.say(t.catalogue(d, available))
	return nil, nil
}

func (t *turn) inputSale(node domain.Node, d domain.SaleData, text string) (*domain.Node, error) {
	sub := t.conv.State.SubState
	if sub == nil || sub.NodeID != node.ID {
		return t.enterSale(node, d)
	}
	if sub.Stage == domain.StageCustomName {
		return t.saleCustomName(node, d, text)
	}
	return t.saleSelection(node, d, sub, text)
}

func (t *turn) saleSelection(node domain.Node, d domain.SaleData, sub *domain.SaleState, text string) (*domain.Node, error) {
	if strings.TrimSpace(text) == "0" {
		sub.Stage = domain.StageCustomName
		t.say(t.customNamePrompt(d))
		return nil, nil
	}

	n, ok := parseChoice(text, 1, len(sub.Items))
	if !ok {
		t.rejected(node, text)
		t.say(t.e.messages.InvalidOptionPrefix + t.catalogue(d, sub.Items))
		return nil, nil
	}

	item := sub.Items[n-1]
	price := item.UnitPrice
	conf, err := t.register(domain.SaleRequest{
		Type:     domain.SaleFromStock,
		ItemID:   item.ID,
		ItemName: item.Name,
		Price:    &price,
		Source:   domain.SaleSourceWorkflow,
	})
	if err != nil {
		t.external(node, "sales", err)
		t.say(t.e.messages.RegistrationFailed + "\n\n" + t.catalogue(d, sub.Items))
		return nil, nil
	}

	t.say(expand(orDefault(d.Confirmation, t.e.messages.SaleStockConfirmation),
		"item", item.Name,
		"price", FormatPrice(price),
		"protocol", protocol(conf),
	))
	return t.leave(node, nil)
}

func (t *turn) saleCustomName(node domain.Node, d domain.SaleData, text string) (*domain.Node, error) {
	name := strings.TrimSpace(text)
	if name == "" {
		t.rejected(node, text)
		t.say(t.e.messages.SaleEmptyName)
		return nil, nil
	}

	conf, err := t.register(domain.SaleRequest{
		Type:          domain.SaleRequested,
		ItemName:      name,
		RequestedName: name,
		Source:        domain.SaleSourceWorkflow,
	})
	if err != nil {
		t.external(node, "sales", err)
		t.say(t.e.messages.RegistrationFailed + "\n\n" + t.customNamePrompt(d))
		return nil, nil
	}

	t.say(expand(orDefault(d.Confirmation, t.e.messages.SaleRequestConfirmation),
		"item", name,
		"price", "",
		"protocol", protocol(conf),
	))
	return t.leave(node, nil)
}

func (t *turn) fetchInventory() ([]domain.InventoryItem, error) {
	if t.e.inventory == nil {
		return nil, ErrNoInventory
	}
	return t.e.inventory.Inventory(t.ctx)
}

func (t *turn) register(req domain.SaleRequest) (*domain.SaleConfirmation, error) {
	if t.e.sales == nil {
		return nil, ErrNoRegistrar
	}
	return t.e.sales.Register(t.ctx, req)
}

func (t *turn) catalogue(d domain.SaleData, items []domain.InventoryItem) string {
	m := t.e.messages
	return renderCatalogue(orDefault(d.Prompt, m.SalePrompt), items, m.SaleUnavailableLabel, m.SaleHint)
}

func (t *turn) customNamePrompt(d domain.SaleData) string {
	return orDefault(d.CustomNamePrompt, t.e.messages.SaleCustomNamePrompt)
}

func protocol(c *domain.SaleConfirmation) string {
	if c == nil {
		return ""
	}
	return c.ID
}
