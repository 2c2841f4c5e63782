package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/auraflow/pkg/adapters/memory"
	"github.com/aretw0/auraflow/pkg/domain"
)

func TestSource_PublishLifecycle(t *testing.T) {
	ctx := context.Background()
	src := memory.NewSource()

	_, err := src.Load(ctx)
	require.Error(t, err)
	assert.True(t, domain.IsNotPublished(err))

	g := domain.NewWorkflowGraph([]domain.Node{{ID: "start-node", Kind: domain.KindStart}}, nil)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	v := src.PublishAt(g, at)

	p, err := src.Load(ctx)
	require.NoError(t, err)
	assert.Same(t, g, p.Graph)
	assert.True(t, v.Equal(p.Version))

	src.Unpublish()
	_, err = src.Load(ctx)
	assert.True(t, domain.IsNotPublished(err))
}

func TestSource_Watch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := memory.NewSource()

	ch, err := src.Watch(ctx)
	require.NoError(t, err)

	src.Publish(domain.NewWorkflowGraph(nil, nil))
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a change notification")
	}

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, open := <-ch:
			return !open
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestWorkshop_Register(t *testing.T) {
	ctx := context.Background()
	w := memory.NewWorkshop(domain.InventoryItem{ID: "p1", Name: "Pastilha", UnitPrice: 50, StockQuantity: 3})

	price := 49.999
	conf, err := w.Register(ctx, domain.SaleRequest{Type: domain.SaleFromStock, ItemID: "p1", ItemName: "Pastilha", Price: &price})
	require.NoError(t, err)
	assert.Contains(t, conf.ID, "pedido-")
	assert.Equal(t, domain.SalePending, conf.Status)
	assert.Equal(t, domain.SaleSourceWorkflow, conf.Source)
	assert.Equal(t, 50.0, *conf.Price)
	require.NotNil(t, conf.PickupDeadline)
	assert.Equal(t, 72*time.Hour, conf.PickupDeadline.Sub(conf.CreatedAt))
	assert.Nil(t, conf.ContactBy)

	conf, err = w.Register(ctx, domain.SaleRequest{Type: domain.SaleRequested, RequestedName: "Farol"})
	require.NoError(t, err)
	assert.Equal(t, "Farol", conf.ItemName)
	require.NotNil(t, conf.ContactBy)
	assert.Equal(t, 7*24*time.Hour, conf.ContactBy.Sub(conf.CreatedAt))

	_, err = w.Register(ctx, domain.SaleRequest{Type: "troca", ItemName: "x"})
	assert.ErrorIs(t, err, memory.ErrInvalidSaleType)
	_, err = w.Register(ctx, domain.SaleRequest{Type: domain.SaleRequested, ItemName: "  "})
	assert.ErrorIs(t, err, memory.ErrMissingItem)

	assert.Len(t, w.Sales(), 2)
}
