package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/auraflow/internal/validator"
)

func TestRunValidate(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer

	err := RunValidate(context.Background(), Options{Workflow: cfg.Workflow.Path}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), `warning: node "menu": 2 options but only 1 outgoing edges`)
	assert.Contains(t, out.String(), "Workflow is valid! 4 nodes, 3 edges (1 warnings)")
}

func TestRunValidate_Errors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "nodes": [{"id": "start-node", "type": "start", "data": {}}],
  "edges": [{"source": "start-node", "target": "ghost"}]
}`), 0o644))

	var out bytes.Buffer
	err := RunValidate(context.Background(), Options{Workflow: path}, &out)
	require.ErrorIs(t, err, ErrInvalidWorkflow)
	assert.Contains(t, out.String(), `error: node "ghost": edge to unknown node`)
}

func TestRunValidate_MissingFile(t *testing.T) {
	err := RunValidate(context.Background(), Options{Workflow: filepath.Join(t.TempDir(), "nope.json")}, &bytes.Buffer{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidWorkflow)
}

func TestRunGraph(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer

	require.NoError(t, RunGraph(context.Background(), Options{Workflow: cfg.Workflow.Path}, "", &out))
	assert.Contains(t, out.String(), "graph TD")
	assert.Contains(t, out.String(), `-- "2. Suporte" -->`)
}

func TestRunInit(t *testing.T) {
	for _, name := range []string{"flow.json", "flow.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, RunInit(path, false))
			require.Error(t, RunInit(path, false), "existing file is kept")
			require.NoError(t, RunInit(path, true))

			var out bytes.Buffer
			require.NoError(t, RunValidate(context.Background(), Options{Workflow: path}, &out))
			assert.Contains(t, out.String(), "(0 warnings)")
		})
	}
}

func TestSampleWorkflow_Clean(t *testing.T) {
	assert.Empty(t, validator.ValidateGraph(SampleWorkflow()))
}
