package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/auraflow/internal/config"
	"github.com/aretw0/auraflow/internal/logging"
	"github.com/aretw0/auraflow/pkg/watch"
)

const flow = `{
  "nodes": [
    {"id": "start-node", "type": "start", "data": {}},
    {"id": "welcome", "type": "sendMessage", "data": {"message": "Olá"}},
    {"id": "menu", "type": "options", "data": {"message": "Como posso ajudar?", "options": [
      {"id": "o1", "text": "Vendas"},
      {"id": "o2", "text": "Suporte"}
    ]}},
    {"id": "support", "type": "sendMessage", "data": {"message": "Você escolheu Suporte"}}
  ],
  "edges": [
    {"source": "start-node", "target": "welcome"},
    {"source": "welcome", "target": "menu"},
    {"source": "menu", "target": "support", "sourceHandle": "output-1"}
  ]
}`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flow.json")
	require.NoError(t, os.WriteFile(path, []byte(flow), 0o644))

	cfg := config.Default()
	cfg.Workflow.Path = path
	cfg.Delays = config.DelaysConfig{}
	cfg.Watch.Mode = config.WatchOff
	return cfg
}

func newTestHost(t *testing.T, cfg *config.Config) *Host {
	t.Helper()
	h, err := NewHost(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestNewHost_FileAndMemory(t *testing.T) {
	h := newTestHost(t, testConfig(t))
	assert.Nil(t, h.Watcher)

	ctx := context.Background()
	reply, err := h.Engine.HandleMessage(ctx, "s1", "oi")
	require.NoError(t, err)
	assert.Equal(t, "menu", reply.State.CurrentNodeID)
}

func TestNewHost_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Store.Kind = config.StoreRedis
	cfg.Store.Addr = mr.Addr()
	cfg.Store.Lock = true
	cfg.Store.PII = true
	cfg.Store.EncryptionKey = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="

	h := newTestHost(t, cfg)
	ctx := context.Background()
	_, err := h.Engine.HandleMessage(ctx, "s1", "meu email é joao@exemplo.com")
	require.NoError(t, err)

	assert.True(t, mr.Exists("auraflow:session:s1"))
	raw, err := mr.Get("auraflow:session:s1")
	require.NoError(t, err)
	assert.NotContains(t, raw, "joao@exemplo.com")
	assert.NotContains(t, raw, "Olá", "transcript content is sealed")

	transcript, err := h.Engine.Transcript(ctx, "s1")
	require.NoError(t, err)
	require.NotEmpty(t, transcript)
	assert.Equal(t, "meu email é ***", transcript[0].Content)
	assert.Equal(t, "Olá", transcript[1].Content)
}

func TestNewHost_RedisUnreachable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Kind = config.StoreRedis
	cfg.Store.Addr = "127.0.0.1:1"

	_, err := NewHost(context.Background(), cfg, logging.NewNop())
	assert.ErrorContains(t, err, "failed to reach redis")
}

func TestNewHost_Watchers(t *testing.T) {
	cfg := testConfig(t)
	cfg.Watch.Mode = config.WatchPoll
	h := newTestHost(t, cfg)
	assert.IsType(t, &watch.Poller{}, h.Watcher)

	cfg = testConfig(t)
	cfg.Watch.Mode = config.WatchPush
	h = newTestHost(t, cfg)
	assert.IsType(t, &watch.Push{}, h.Watcher)
}

func TestRunChat_Headless(t *testing.T) {
	h := newTestHost(t, testConfig(t))

	var out bytes.Buffer
	err := RunChat(context.Background(), h, ChatOptions{
		SessionID: "cli",
		Headless:  true,
		Input:     strings.NewReader("oi\n2\n"),
		Output:    &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Como posso ajudar?")
	assert.Contains(t, out.String(), "Você escolheu Suporte")
}

func TestRunChat_FreshClearsSession(t *testing.T) {
	h := newTestHost(t, testConfig(t))
	ctx := context.Background()
	_, err := h.Engine.HandleMessage(ctx, "cli", "oi")
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, RunChat(ctx, h, ChatOptions{
		SessionID: "cli",
		Fresh:     true,
		Headless:  true,
		Input:     strings.NewReader(""),
		Output:    &out,
	}))

	transcript, err := h.Engine.Transcript(ctx, "cli")
	require.NoError(t, err)
	require.Len(t, transcript, 1, "only the greeting of the reopened chat")
}

func TestSessions(t *testing.T) {
	h := newTestHost(t, testConfig(t))
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, ListSessions(ctx, h, &out))
	assert.Contains(t, out.String(), "No active sessions")

	_, err := h.Engine.HandleMessage(ctx, "b", "oi")
	require.NoError(t, err)
	_, err = h.Engine.HandleMessage(ctx, "a", "oi")
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, ListSessions(ctx, h, &out))
	assert.Equal(t, "Active Sessions:\n- a\n- b\n", out.String())

	out.Reset()
	require.NoError(t, InspectSession(ctx, h, "a", &out))
	var conv map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &conv))
	assert.Equal(t, "a", conv["session_id"])

	require.NoError(t, RemoveSession(ctx, h, "a"))
	assert.Error(t, InspectSession(ctx, h, "a", io.Discard))
}

func TestHandler_ServesAPI(t *testing.T) {
	h := newTestHost(t, testConfig(t))
	srv := httptest.NewServer(Handler(h))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/sessions/web/messages", "application/json", strings.NewReader(`{"text":"oi"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "auraflow_transcript_entries_total")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestRunServe_StopsOnCancel(t *testing.T) {
	h := newTestHost(t, testConfig(t))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunServe(ctx, h, "127.0.0.1:0") }()
	cancel()
	assert.NoError(t, <-done)
}
