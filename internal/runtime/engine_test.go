package runtime_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/auraflow/internal/runtime"
	"github.com/aretw0/auraflow/pkg/adapters/memory"
	"github.com/aretw0/auraflow/pkg/domain"
	"github.com/aretw0/auraflow/pkg/session"
)

const menuPrompt = "Como posso ajudar?\n\n1. Vendas\n2. Suporte\n\nDigite apenas o número da opção (1, 2, 3...)"

func TestEngine_GreetingThenOptions(t *testing.T) {
	f := newFixture(t, scenarioGraph())
	ctx := context.Background()

	reply, err := f.engine.HandleMessage(ctx, "s1", "oi")
	require.NoError(t, err)
	assert.Equal(t, []string{"oi", "Olá", menuPrompt}, contents(reply.Entries))
	assert.Equal(t, domain.RoleUser, reply.Entries[0].Role)
	assert.Equal(t, domain.RoleAssistant, reply.Entries[1].Role)
	assert.Equal(t, "menu", reply.State.CurrentNodeID)
	assert.True(t, reply.State.AwaitingInput)
	assert.Len(t, reply.State.ActiveOptions, 2)
	assert.Equal(t, "Como posso ajudar?", reply.State.ActiveOptionsPrompt)

	reply, err = f.engine.HandleMessage(ctx, "s1", "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "Você escolheu Vendas"}, contents(reply.Entries))
	assert.True(t, reply.State.Idle(), "a message without outgoing edge ends the run")

	transcript, err := f.engine.Transcript(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, transcript, 5)
}

func TestEngine_SecondBranch(t *testing.T) {
	f := newFixture(t, scenarioGraph())
	ctx := context.Background()

	_, err := f.engine.HandleMessage(ctx, "s1", "oi")
	require.NoError(t, err)
	reply, err := f.engine.HandleMessage(ctx, "s1", " 2 ")
	require.NoError(t, err)
	assert.Equal(t, []string{" 2 ", "Você escolheu Suporte"}, contents(reply.Entries))
}

func TestEngine_InvalidOptionIsIdempotent(t *testing.T) {
	f := newFixture(t, scenarioGraph())
	ctx := context.Background()

	before, err := f.engine.HandleMessage(ctx, "s1", "oi")
	require.NoError(t, err)

	for _, input := range []string{"5", "5", "0", "-1", "1a", "abc", ""} {
		reply, err := f.engine.HandleMessage(ctx, "s1", input)
		require.NoError(t, err)
		require.Len(t, reply.Entries, 2)
		assert.Equal(t, "Opção inválida! "+menuPrompt, reply.Entries[1].Content)
		assert.Equal(t, before.State, reply.State, "state must not change on invalid input %q", input)
	}
}

func TestEngine_NotPublished(t *testing.T) {
	f := newFixture(t, nil)
	reply, err := f.engine.HandleMessage(context.Background(), "s1", "oi")
	require.NoError(t, err)
	require.Len(t, reply.Entries, 2)
	assert.Equal(t, runtime.DefaultMessages().NotPublished, reply.Entries[1].Content)
	assert.True(t, reply.State.Idle())
}

func TestEngine_MalformedGraphResetsToIdle(t *testing.T) {
	misconfigured := runtime.DefaultMessages().Misconfigured

	cases := map[string]*domain.WorkflowGraph{
		"start without edges": domain.NewWorkflowGraph([]domain.Node{start()}, nil),
		"missing start":       domain.NewWorkflowGraph([]domain.Node{msg("a", "x")}, nil),
		"dangling edge": domain.NewWorkflowGraph(
			[]domain.Node{start()},
			[]domain.Edge{edge("start-node", "ghost")},
		),
		"unsupported node": domain.NewWorkflowGraph(
			[]domain.Node{start(), {ID: "code", Kind: domain.KindUnsupported, Data: domain.UnsupportedData{EditorType: "codeNode"}}},
			[]domain.Edge{edge("start-node", "code")},
		),
		"options without options": domain.NewWorkflowGraph(
			[]domain.Node{start(), options("menu", "Escolha")},
			[]domain.Edge{edge("start-node", "menu")},
		),
	}

	for name, g := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, g)
			reply, err := f.engine.HandleMessage(context.Background(), "s1", "oi")
			require.NoError(t, err)
			got := contents(reply.Entries)
			assert.Equal(t, misconfigured, got[len(got)-1])
			assert.True(t, reply.State.Idle())
		})
	}
}

func TestEngine_AutoAdvanceLoopIsMalformed(t *testing.T) {
	g := domain.NewWorkflowGraph(
		[]domain.Node{start(), msg("a", "ping"), msg("b", "pong")},
		[]domain.Edge{edge("start-node", "a"), edge("a", "b"), edge("b", "a")},
	)
	f := newFixture(t, g)
	reply, err := f.engine.HandleMessage(context.Background(), "s1", "oi")
	require.NoError(t, err)
	got := contents(reply.Entries)
	assert.Equal(t, runtime.DefaultMessages().Misconfigured, got[len(got)-1])
	assert.True(t, reply.State.Idle())
}

func TestEngine_VersionChangeResetsConversation(t *testing.T) {
	f := newFixture(t, scenarioGraph())
	ctx := context.Background()

	_, err := f.engine.HandleMessage(ctx, "s1", "oi")
	require.NoError(t, err)

	changed, err := f.engine.Tick(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, changed, "same version is a no-op")

	v2 := f.source.PublishAt(scenarioGraph(), time.Now().Add(time.Minute))
	changed, err = f.engine.Tick(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, changed)

	conv, err := f.engine.Conversation(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, conv.State.Idle())
	assert.Equal(t, []string{runtime.DefaultMessages().FlowLoaded}, contents(conv.Transcript))
	require.NotNil(t, conv.LastSeen)
	assert.True(t, v2.Equal(*conv.LastSeen))

	reply, err := f.engine.HandleMessage(ctx, "s1", "oi")
	require.NoError(t, err)
	assert.Equal(t, []string{"oi", "Olá", menuPrompt}, contents(reply.Entries))
}

func TestEngine_VersionChangeOnMessage(t *testing.T) {
	f := newFixture(t, scenarioGraph())
	ctx := context.Background()

	_, err := f.engine.HandleMessage(ctx, "s1", "oi")
	require.NoError(t, err)
	f.source.PublishAt(scenarioGraph(), time.Now().Add(time.Minute))

	// "1" was meant for the old menu; it now starts a fresh run.
	reply, err := f.engine.HandleMessage(ctx, "s1", "1")
	require.NoError(t, err)
	assert.Equal(t, []string{runtime.DefaultMessages().FlowLoaded, "1", "Olá", menuPrompt}, contents(reply.Entries))

	transcript, err := f.engine.Transcript(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, transcript, 4)
}

func TestEngine_UnpublishAndRepublish(t *testing.T) {
	f := newFixture(t, scenarioGraph())
	ctx := context.Background()
	msgs := runtime.DefaultMessages()

	_, err := f.engine.HandleMessage(ctx, "s1", "oi")
	require.NoError(t, err)

	f.source.Unpublish()
	reply, err := f.engine.HandleMessage(ctx, "s1", "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", msgs.NotPublished}, contents(reply.Entries))
	assert.True(t, reply.State.Idle())

	f.source.Publish(scenarioGraph())
	changed, err := f.engine.Tick(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, changed)
	transcript, err := f.engine.Transcript(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{msgs.FlowLoaded}, contents(transcript))
}

func TestEngine_Open(t *testing.T) {
	ctx := context.Background()
	msgs := runtime.DefaultMessages()

	unpublished := newFixture(t, nil)
	reply, err := unpublished.engine.Open(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{msgs.NotPublished}, contents(reply.Entries))

	f := newFixture(t, scenarioGraph())
	reply, err = f.engine.Open(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{msgs.FlowReady}, contents(reply.Entries))

	reply, err = f.engine.Open(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, reply.Entries, "an existing transcript is not greeted twice")
}

func TestEngine_Reset(t *testing.T) {
	f := newFixture(t, scenarioGraph())
	ctx := context.Background()

	_, err := f.engine.HandleMessage(ctx, "s1", "oi")
	require.NoError(t, err)
	require.NoError(t, f.engine.Reset(ctx, "s1"))

	conv, err := f.engine.Conversation(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, conv.State.Idle())
	assert.Empty(t, conv.Transcript)
}

func TestEngine_PersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, scenarioGraph())

	_, err := f.engine.HandleMessage(ctx, "s1", "oi")
	require.NoError(t, err)

	conv, err := f.store.Load(ctx, "s1")
	require.NoError(t, err)
	raw, err := json.Marshal(conv)
	require.NoError(t, err)
	var restored domain.Conversation
	require.NoError(t, json.Unmarshal(raw, &restored))

	otherStore := memory.NewStore()
	require.NoError(t, otherStore.Save(ctx, "s1", &restored))
	other := newEngine(f.source, otherStore, f.workshop)
	t.Cleanup(other.Shutdown)

	for _, input := range []string{"9", "2"} {
		want, err := f.engine.HandleMessage(ctx, "s1", input)
		require.NoError(t, err)
		got, err := other.HandleMessage(ctx, "s1", input)
		require.NoError(t, err)
		assert.Equal(t, contents(want.Entries), contents(got.Entries))
		assert.Equal(t, want.State, got.State)
	}
}

func TestEngine_SanitizesInput(t *testing.T) {
	f := newFixture(t, scenarioGraph(), runtime.WithMaxInputSize(8))
	ctx := context.Background()

	_, err := f.engine.HandleMessage(ctx, "s1", strings.Repeat("x", 9))
	assert.ErrorIs(t, err, runtime.ErrInputTooLarge)

	reply, err := f.engine.HandleMessage(ctx, "s1", "o\x1bi")
	require.NoError(t, err)
	assert.Equal(t, "oi", reply.Entries[0].Content)
}

func TestEngine_Hooks(t *testing.T) {
	var entered []string
	var resets []domain.ResetReason
	var failures int
	hooks := domain.LifecycleHooks{
		OnNodeEnter:    func(_ context.Context, e *domain.NodeEvent) { entered = append(entered, e.NodeID) },
		OnReset:        func(_ context.Context, e *domain.ResetEvent) { resets = append(resets, e.Reason) },
		OnHandlerError: func(_ context.Context, e *domain.HandlerErrorEvent) { failures++ },
	}
	f := newFixture(t, scenarioGraph(), runtime.WithLifecycleHooks(hooks))
	ctx := context.Background()

	_, err := f.engine.HandleMessage(ctx, "s1", "oi")
	require.NoError(t, err)
	_, err = f.engine.HandleMessage(ctx, "s1", "7")
	require.NoError(t, err)
	_, err = f.engine.HandleMessage(ctx, "s1", "1")
	require.NoError(t, err)

	assert.Equal(t, []string{"start-node", "hello", "menu", "sales"}, entered)
	assert.Equal(t, []domain.ResetReason{domain.ResetEndOfFlow}, resets)
	assert.Equal(t, 1, failures)
}

func TestEngine_ShutdownRejectsCalls(t *testing.T) {
	f := newFixture(t, scenarioGraph())
	f.engine.Shutdown()
	_, err := f.engine.HandleMessage(context.Background(), "s1", "oi")
	assert.ErrorIs(t, err, runtime.ErrEngineClosed)
}

// flakyStore fails every Save while failing is set.
type flakyStore struct {
	*memory.Store
	failing bool
}

func (s *flakyStore) Save(ctx context.Context, sessionID string, conv *domain.Conversation) error {
	if s.failing {
		return errors.New("disk full")
	}
	return s.Store.Save(ctx, sessionID, conv)
}

func TestEngine_HooksWaitForSave(t *testing.T) {
	var published []string
	var entered []string
	hooks := domain.LifecycleHooks{
		OnEntry:     func(_ context.Context, e *domain.EntryEvent) { published = append(published, e.Entry.Content) },
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) { entered = append(entered, e.NodeID) },
	}
	source := memory.NewSource()
	source.Publish(scenarioGraph())
	store := &flakyStore{Store: memory.NewStore(), failing: true}
	eng := newEngine(source, store, memory.NewWorkshop(), runtime.WithLifecycleHooks(hooks))
	t.Cleanup(eng.Shutdown)
	ctx := context.Background()

	_, err := eng.HandleMessage(ctx, "s1", "oi")
	require.ErrorContains(t, err, "disk full")
	assert.Empty(t, published, "nothing is announced for a turn that was not saved")
	assert.Empty(t, entered)

	store.failing = false
	reply, err := eng.HandleMessage(ctx, "s1", "oi")
	require.NoError(t, err)
	assert.Equal(t, contents(reply.Entries), published)
	assert.Equal(t, []string{"start-node", "hello", "menu"}, entered)

	published = nil
	store.failing = true
	require.Error(t, eng.Reset(ctx, "s1"))
	assert.Empty(t, published)
}

func TestEngine_CloseWhileTimerWaitsForLock(t *testing.T) {
	g := domain.NewWorkflowGraph(
		[]domain.Node{start(), msg("hello", "Olá"), msg("bye", "Tchau")},
		[]domain.Edge{edge(domain.StartNodeID, "hello"), edge("hello", "bye")},
	)
	source := memory.NewSource()
	source.Publish(g)
	store := memory.NewStore()
	sessions := session.NewManager(store)
	eng := runtime.NewEngine(source, sessions,
		runtime.WithDelays(runtime.Delays{Message: 20 * time.Millisecond}),
		runtime.WithIDGenerator(counterIDs()),
	)
	t.Cleanup(eng.Shutdown)
	ctx := context.Background()

	reply, err := eng.HandleMessage(ctx, "s1", "oi")
	require.NoError(t, err)
	require.True(t, reply.Pending)

	// The timer fires while the lock is held and queues behind it.
	err = sessions.WithLock(ctx, "s1", func(ctx context.Context) error {
		time.Sleep(80 * time.Millisecond)
		return store.Delete(ctx, "s1")
	})
	require.NoError(t, err)
	require.NoError(t, eng.Close(ctx, "s1"))

	time.Sleep(80 * time.Millisecond)
	_, err = store.Load(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
