package tui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHardBreaks(t *testing.T) {
	assert.Equal(t, "a  \nb\n\nc", hardBreaks("a\nb\n\nc"))
	assert.Equal(t, "single", hardBreaks("single"))
}

func TestNewRenderer(t *testing.T) {
	out, err := NewRenderer()("Como posso ajudar?\n\n1. Vendas\n2. Suporte")
	require.NoError(t, err)
	assert.Contains(t, out, "Vendas")
	assert.Contains(t, out, "Suporte")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3")
	assert.Contains(t, buf.String(), "v1.2.3")
}
