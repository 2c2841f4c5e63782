package auraflow_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/auraflow"
	"github.com/aretw0/auraflow/pkg/adapters/memory"
	"github.com/aretw0/auraflow/pkg/domain"
	"github.com/aretw0/auraflow/pkg/dsl"
)

func menuGraph() *domain.WorkflowGraph {
	b := dsl.New()
	b.Start().Go("hello")
	b.Add("hello").Message("Olá").Go("menu")
	b.Add("menu").Options("Como posso ajudar?", "Vendas", "Suporte").
		Branch(0, "sales").
		Branch(1, "support")
	b.Add("sales").Sale()
	b.Add("support").Message("Você escolheu Suporte")
	return b.Graph()
}

func TestNew_RequiresSource(t *testing.T) {
	_, err := auraflow.New(nil)
	assert.ErrorIs(t, err, auraflow.ErrNoSource)
}

func TestNew_DefaultsToMemory(t *testing.T) {
	source := memory.NewSource()
	source.Publish(menuGraph())

	engine, err := auraflow.New(source, auraflow.WithDelays(auraflow.NoDelays))
	require.NoError(t, err)
	t.Cleanup(engine.Shutdown)

	ctx := context.Background()
	reply, err := engine.HandleMessage(ctx, "s1", "oi")
	require.NoError(t, err)
	assert.Equal(t, "menu", reply.State.CurrentNodeID)

	// Empty default workshop: the sale node goes straight to the free-text request.
	reply, err = engine.HandleMessage(ctx, "s1", "1")
	require.NoError(t, err)
	assert.Equal(t, "sales", reply.State.CurrentNodeID)
	require.NotNil(t, reply.State.SubState)
	assert.Equal(t, domain.StageCustomName, reply.State.SubState.Stage)

	ids, err := engine.Sessions().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)
}

func TestNew_WithCollaborators(t *testing.T) {
	source := memory.NewSource()
	source.Publish(menuGraph())
	store := memory.NewStore()
	workshop := memory.NewWorkshop(domain.InventoryItem{ID: "p1", Name: "Pastilha", UnitPrice: 50, StockQuantity: 2})

	var entries []string
	engine, err := auraflow.New(source,
		auraflow.WithStore(store),
		auraflow.WithWorkshop(workshop),
		auraflow.WithDelays(auraflow.NoDelays),
		auraflow.WithMessages(auraflow.Messages{SaleEmptyName: "Diga o nome."}),
		auraflow.WithLifecycleHooks(domain.LifecycleHooks{
			OnEntry: func(_ context.Context, ev *domain.EntryEvent) {
				entries = append(entries, ev.Entry.Content)
			},
		}),
	)
	require.NoError(t, err)
	t.Cleanup(engine.Shutdown)

	ctx := context.Background()
	for _, text := range []string{"oi", "1", "1"} {
		_, err := engine.HandleMessage(ctx, "s1", text)
		require.NoError(t, err)
	}

	sales := workshop.Sales()
	require.Len(t, sales, 1)
	assert.Equal(t, "Pastilha", sales[0].ItemName)

	conv, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, conv.Transcript, len(entries))
}

func TestRunner_Chat(t *testing.T) {
	source := memory.NewSource()
	source.Publish(menuGraph())
	engine, err := auraflow.New(source, auraflow.WithDelays(auraflow.Delays{Message: 10 * time.Millisecond}))
	require.NoError(t, err)
	t.Cleanup(engine.Shutdown)

	var out bytes.Buffer
	runner := auraflow.NewRunner("cli")
	runner.Input = strings.NewReader("oi\n2\nexit\n")
	runner.Output = &out
	runner.Headless = true
	runner.PollInterval = 5 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, runner.Run(ctx, engine))

	got := out.String()
	assert.Contains(t, got, "Fluxo carregado")
	assert.Contains(t, got, "Olá")
	assert.Contains(t, got, "1. Vendas")
	assert.Contains(t, got, "Você escolheu Suporte")
	assert.Less(t, strings.Index(got, "Olá"), strings.Index(got, "Como posso ajudar?"))
}

func TestRunner_RequiresIO(t *testing.T) {
	source := memory.NewSource()
	engine, err := auraflow.New(source)
	require.NoError(t, err)
	t.Cleanup(engine.Shutdown)

	assert.Error(t, auraflow.NewRunner("x").Run(context.Background(), engine))
}
