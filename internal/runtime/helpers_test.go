package runtime_test

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/aretw0/auraflow/internal/runtime"
	"github.com/aretw0/auraflow/pkg/adapters/memory"
	"github.com/aretw0/auraflow/pkg/domain"
	"github.com/aretw0/auraflow/pkg/ports"
	"github.com/aretw0/auraflow/pkg/session"
)

type fixture struct {
	source   *memory.Source
	store    *memory.Store
	workshop *memory.Workshop
	engine   *runtime.Engine
}

func counterIDs() func() string {
	var n atomic.Int64
	return func() string { return fmt.Sprintf("e%d", n.Add(1)) }
}

func newFixture(t *testing.T, g *domain.WorkflowGraph, opts ...runtime.Option) *fixture {
	t.Helper()
	f := &fixture{
		source: memory.NewSource(),
		store:  memory.NewStore(),
		workshop: memory.NewWorkshop(
			domain.InventoryItem{ID: "p1", Name: "Pastilha", UnitPrice: 50, StockQuantity: 3},
		),
	}
	if g != nil {
		f.source.Publish(g)
	}
	f.engine = newEngine(f.source, f.store, f.workshop, opts...)
	t.Cleanup(f.engine.Shutdown)
	return f
}

func newEngine(src ports.WorkflowSource, store ports.ConversationStore, w *memory.Workshop, opts ...runtime.Option) *runtime.Engine {
	base := []runtime.Option{
		runtime.WithDelays(runtime.Delays{}),
		runtime.WithInventory(w),
		runtime.WithSaleRegistrar(w),
		runtime.WithIDGenerator(counterIDs()),
	}
	return runtime.NewEngine(src, session.NewManager(store), append(base, opts...)...)
}

func contents(entries []domain.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Content)
	}
	return out
}

func msg(id, text string) domain.Node {
	return domain.Node{ID: id, Kind: domain.KindMessage, Data: domain.MessageData{Text: text}}
}

func options(id, prompt string, texts ...string) domain.Node {
	opts := make([]domain.Option, 0, len(texts))
	for _, s := range texts {
		opts = append(opts, domain.Option{Text: s})
	}
	return domain.Node{ID: id, Kind: domain.KindOptions, Data: domain.OptionsData{Prompt: prompt, Options: opts}}
}

func start() domain.Node {
	return domain.Node{ID: domain.StartNodeID, Kind: domain.KindStart, Data: domain.StartData{}}
}

func edge(from, to string) domain.Edge {
	return domain.Edge{Source: from, Target: to}
}

func branchEdge(from, to string, i int) domain.Edge {
	return domain.Edge{Source: from, Target: to, BranchHandle: domain.BranchHandle(i)}
}

// scenarioGraph is start -> "Olá" -> options {Vendas, Suporte}.
func scenarioGraph() *domain.WorkflowGraph {
	return domain.NewWorkflowGraph(
		[]domain.Node{
			start(),
			msg("hello", "Olá"),
			options("menu", "Como posso ajudar?", "Vendas", "Suporte"),
			msg("sales", "Você escolheu Vendas"),
			msg("support", "Você escolheu Suporte"),
		},
		[]domain.Edge{
			edge("start-node", "hello"),
			edge("hello", "menu"),
			branchEdge("menu", "sales", 0),
			branchEdge("menu", "support", 1),
		},
	)
}

func newEmptyWorkshop() *memory.Workshop {
	return memory.NewWorkshop(domain.InventoryItem{ID: "p9", Name: "Esgotado", UnitPrice: 10, StockQuantity: 0})
}
