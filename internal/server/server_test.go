package server

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/repowiki/internal/config"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Summarize.Mode = "local"
	s, err := New(cfg, nil, nil)
	require.NoError(t, err)
	return s
}

func testRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"main.go":   "package main\n\nfunc main() {}\n",
		"db/db.go":  "package db\n\nimport \"database/sql\"\n\nfunc Open() {}\n",
		"README.md": "# demo\n",
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

// serve runs one request line through the server and decodes the response.
func serve(t *testing.T, s *Server, lines ...string) []response {
	t.Helper()
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	var out bytes.Buffer
	require.NoError(t, s.Serve(context.Background(), in, &out))

	var responses []response
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		var resp response
		require.NoError(t, json.Unmarshal([]byte(line), &resp))
		responses = append(responses, resp)
	}
	return responses
}

func result(t *testing.T, resp response) map[string]any {
	t.Helper()
	require.Nil(t, resp.Error, "unexpected rpc error: %+v", resp.Error)
	data, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestIndexRepoAndSearch(t *testing.T) {
	s := testServer(t)
	repo := testRepo(t)

	indexReq, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0", "id": 1, "method": "index_repo",
		"params": map[string]any{"repo_path": repo},
	})
	require.NoError(t, err)
	searchReq := `{"jsonrpc":"2.0","id":2,"method":"search","params":{"q":"sql"}}`

	responses := serve(t, s, string(indexReq), searchReq)
	require.Len(t, responses, 2)

	indexed := result(t, responses[0])
	assert.Equal(t, true, indexed["ok"])
	assert.Contains(t, indexed["index_id"], "idx_")
	assert.Equal(t, float64(2), indexed["files"]) // README.md is unsupported

	searched := result(t, responses[1])
	assert.Equal(t, true, searched["ok"])
	hits, ok := searched["hits"].([]any)
	require.True(t, ok)
	require.Len(t, hits, 1)
	hit := hits[0].(map[string]any)
	assert.Equal(t, "db/db.go", hit["path"])
}

func TestSearchWithoutIndex(t *testing.T) {
	s := testServer(t)
	responses := serve(t, s, `{"jsonrpc":"2.0","id":1,"method":"search","params":{"q":"x"}}`)
	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Error)
	assert.Equal(t, codeInvalidParams, responses[0].Error.Code)
}

func TestSearchRejectsNegativeK(t *testing.T) {
	s := testServer(t)
	responses := serve(t, s, `{"jsonrpc":"2.0","id":1,"method":"search","params":{"q":"x","k":-1}}`)
	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Error)
	assert.Equal(t, codeInvalidParams, responses[0].Error.Code)
}

func TestUnknownMethod(t *testing.T) {
	s := testServer(t)
	responses := serve(t, s, `{"jsonrpc":"2.0","id":1,"method":"explode","params":{}}`)
	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Error)
	assert.Equal(t, codeMethodNotFound, responses[0].Error.Code)
}

func TestParseError(t *testing.T) {
	s := testServer(t)
	responses := serve(t, s, `{not json`)
	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Error)
	assert.Equal(t, codeParseError, responses[0].Error.Code)
}

func TestInvalidParams(t *testing.T) {
	s := testServer(t)
	responses := serve(t, s, `{"jsonrpc":"2.0","id":1,"method":"index_repo","params":{}}`)
	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Error)
	assert.Equal(t, codeInvalidParams, responses[0].Error.Code)
	assert.Contains(t, responses[0].Error.Message, "repo_path")
}

func TestGenerateWikiUnknownIndex(t *testing.T) {
	s := testServer(t)
	responses := serve(t, s, `{"jsonrpc":"2.0","id":1,"method":"generate_wiki","params":{"index_id":"idx_nope"}}`)
	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Error)
	assert.Equal(t, codeInvalidParams, responses[0].Error.Code)
}

func TestGenerateWikiFromRegisteredIndex(t *testing.T) {
	t.Setenv("REPOWIKI_SKIP_MDBOOK", "1")
	s := testServer(t)
	repo := testRepo(t)
	outDir := filepath.Join(t.TempDir(), "wiki")

	indexReq, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0", "id": 1, "method": "index_repo",
		"params": map[string]any{"repo_path": repo},
	})
	require.NoError(t, err)
	responses := serve(t, s, string(indexReq))
	handle := result(t, responses[0])["index_id"].(string)

	wikiReq, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0", "id": 2, "method": "generate_wiki",
		"params": map[string]any{"index_id": handle, "out_dir": outDir, "toc": []string{"overview"}},
	})
	require.NoError(t, err)
	responses = serve(t, s, string(wikiReq))

	built := result(t, responses[0])
	assert.Equal(t, true, built["ok"])
	assert.Equal(t, float64(1), built["pages"])
	_, err = os.Stat(filepath.Join(outDir, "src", "overview.md"))
	assert.NoError(t, err)
}
