package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/auraflow/internal/logging"
	"github.com/aretw0/auraflow/internal/runtime"
	"github.com/aretw0/auraflow/pkg/adapters/memory"
	"github.com/aretw0/auraflow/pkg/domain"
	"github.com/aretw0/auraflow/pkg/observability"
	"github.com/aretw0/auraflow/pkg/session"
)

func TestCategory(t *testing.T) {
	assert.Equal(t, "invalid_input", observability.Category(domain.ErrInvalidUserInput("x")))
	assert.Equal(t, "external", observability.Category(domain.ErrExternalService("sales", errors.New("down"))))
	assert.Equal(t, "malformed_graph", observability.Category(domain.ErrMalformedGraph("loop")))
	assert.Equal(t, "not_published", observability.Category(domain.ErrNotPublished()))
	assert.Equal(t, "other", observability.Category(errors.New("boom")))
}

func TestMetrics_RecordEngineRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	src := memory.NewSource()
	src.Publish(domain.NewWorkflowGraph(
		[]domain.Node{
			{ID: domain.StartNodeID, Kind: domain.KindStart, Data: domain.StartData{}},
			{ID: "menu", Kind: domain.KindOptions, Data: domain.OptionsData{Prompt: "Menu", Options: []domain.Option{{Text: "A"}}}},
		},
		[]domain.Edge{{ID: "e1", Source: domain.StartNodeID, Target: "menu"}},
	))

	var logs bytes.Buffer
	hooks := domain.MergeHooks(metrics.Hooks(), observability.LoggingHooks(logging.NewWithWriter(&logs, slog.LevelDebug)))
	eng := runtime.NewEngine(src, session.NewManager(memory.NewStore()),
		runtime.WithDelays(runtime.Delays{}),
		runtime.WithLifecycleHooks(hooks),
	)
	t.Cleanup(eng.Shutdown)
	ctx := context.Background()

	_, err := eng.HandleMessage(ctx, "s1", "meu-segredo")
	require.NoError(t, err)
	_, err = eng.HandleMessage(ctx, "s1", "9")
	require.NoError(t, err)
	_, err = eng.HandleMessage(ctx, "s1", "1")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.NodeVisits.WithLabelValues("start")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.NodeVisits.WithLabelValues("options")))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.Entries.WithLabelValues("user")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Entries.WithLabelValues("assistant")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.HandlerErrors.WithLabelValues("invalid_input")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Resets.WithLabelValues("end_of_flow")))

	assert.Contains(t, logs.String(), "conversation_reset")
	assert.NotContains(t, logs.String(), "meu-segredo", "entry content stays out of logs")
}

func TestMergeHooks_Order(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{OnReset: func(context.Context, *domain.ResetEvent) { calls = append(calls, "a") }}
	b := domain.LifecycleHooks{OnReset: func(context.Context, *domain.ResetEvent) { calls = append(calls, "b") }}

	merged := domain.MergeHooks(a, domain.LifecycleHooks{}, b)
	require.NotNil(t, merged.OnReset)
	merged.OnReset(context.Background(), &domain.ResetEvent{})
	assert.Equal(t, []string{"a", "b"}, calls)
	assert.Nil(t, merged.OnEntry)
}
