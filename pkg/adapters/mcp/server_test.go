package mcp

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mektycoon/mekforge"
	"github.com/mektycoon/mekforge/pkg/domain"
	"github.com/mektycoon/mekforge/pkg/imageio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	kit, err := mekforge.New(mekforge.WithVariations([]domain.Variation{
		{ID: 181, Name: "Rust", Type: domain.VariationBody, Count: 51, SourceKey: "BJ1"},
	}))
	require.NoError(t, err)
	return NewServer(kit)
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func TestToolsAreListed(t *testing.T) {
	s := newTestServer(t)

	resp := s.MCPServer().HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	for _, name := range []string{"convert_blueprint", "generate_essence", "audit_directories", "analyze_source_keys"} {
		assert.Contains(t, string(raw), `"`+name+`"`)
	}
}

func TestHandleConvert(t *testing.T) {
	s := newTestServer(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "mek.png")
	out := filepath.Join(dir, "mek-blueprint.png")

	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for i := 8; i < 24; i++ {
		img.SetNRGBA(i, 16, color.NRGBA{0, 0, 0, 255})
	}
	require.NoError(t, imageio.Save(in, img))

	res, err := s.handleConvert(context.Background(), callRequest("convert_blueprint", nil), ConvertArgs{Input: in, Output: out})
	require.NoError(t, err)
	assert.Equal(t, ConvertResult{Output: out, Mode: "classic"}, res)
	_, err = os.Stat(out)
	assert.NoError(t, err)

	_, err = s.handleConvert(context.Background(), callRequest("convert_blueprint", nil), ConvertArgs{Input: in, Output: out, Mode: "sepia"})
	assert.ErrorIs(t, err, domain.ErrUnknownStyle)

	_, err = s.handleConvert(context.Background(), callRequest("convert_blueprint", nil), ConvertArgs{Input: filepath.Join(dir, "missing.png"), Output: out})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestHandleEssence(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleEssence(context.Background(), callRequest("generate_essence", map[string]any{
		"name": "Rust",
		"type": "body",
		"size": float64(48),
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var found bool
	for _, c := range res.Content {
		ic, ok := c.(mcp.ImageContent)
		if !ok {
			continue
		}
		found = true
		assert.Equal(t, "image/png", ic.MIMEType)
		data, err := base64.StdEncoding.DecodeString(ic.Data)
		require.NoError(t, err)
		img, err := imageio.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 48, 48), img.Bounds())
	}
	assert.True(t, found, "expected image content")

	res, err = s.handleEssence(context.Background(), callRequest("generate_essence", map[string]any{"name": "Rust", "type": "arm"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleEssence(context.Background(), callRequest("generate_essence", map[string]any{"type": "body"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHandleAudit(t *testing.T) {
	s := newTestServer(t)
	a, b := t.TempDir(), t.TempDir()
	for _, name := range []string{"aa1.webp", "bb2.webp"} {
		require.NoError(t, os.WriteFile(filepath.Join(a, name), nil, 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(b, "aa1-blueprint.png"), nil, 0o644))

	cmp, err := s.handleAudit(context.Background(), callRequest("audit_directories", nil), AuditArgs{DirA: a, DirB: b})
	require.NoError(t, err)
	assert.Equal(t, []string{"bb2"}, cmp.OnlyInA)
	assert.Empty(t, cmp.OnlyInB)

	_, err = s.handleAudit(context.Background(), callRequest("audit_directories", nil), AuditArgs{DirA: a})
	assert.Error(t, err)
}

func TestHandleSourceKeys(t *testing.T) {
	s := newTestServer(t)
	path := filepath.Join(t.TempDir(), "freq.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"body_frequencies":{"BJ1":51},"head_frequencies":{},"trait_frequencies":{}}`), 0o644))

	res, err := s.handleSourceKeys(context.Background(), callRequest("analyze_source_keys", nil), SourceKeyArgs{Frequencies: path})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Summary.Total)
	assert.Empty(t, res.Changes())
}
