package ollama

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/panot-hq/edge-backend/pkg/ai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *GraphOllamaClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewGraphOllamaClient(NewGraphOllamaClientParams{
		EmbeddingModel: "embed-test",
		ChatModel:      "chat-test",
		EmbeddingDim:   3,
		BaseURL:        srv.URL,
		ApiKey:         "secret",
		TokenCounter:   func(s string) int { return len(strings.Fields(s)) },
	})
	require.NoError(t, err)
	return client
}

func TestGenerateEmbeddingsBatchesNonBlankInputs(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"Padel", "Chess"}, req.Input)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"model":"embed-test","embeddings":[[1,2,3,4],[5]],"prompt_eval_count":4}`)
	})

	out, err := client.GenerateEmbeddings(context.Background(), [][]byte{[]byte("Padel"), nil, []byte("Chess")})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 2, 3}, {0, 0, 0}, {5, 0, 0}}, out)
	assert.Equal(t, 4, client.GetMetrics().InputTokens)
}

func TestGenerateCompletionWithFormatSendsSchema(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req, "format")
		opts, _ := req["options"].(map[string]any)
		assert.NotContains(t, opts, "num_ctx")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"model":"chat-test","message":{"role":"assistant","content":"{\"summary\":\"They cook.\"}"},"done":true,"prompt_eval_count":7,"eval_count":3}`)
	})

	var res struct {
		Summary string `json:"summary"`
	}
	require.NoError(t, client.GenerateCompletionWithFormat(context.Background(), "s", "d", "facts", &res))
	assert.Equal(t, "They cook.", res.Summary)
	assert.Equal(t, 10, client.GetMetrics().TotalTokens)

	assert.Error(t, client.GenerateCompletionWithFormat(context.Background(), "s", "d", "facts", res))
}

func TestLongPromptRaisesContext(t *testing.T) {
	client := newTestClient(t, nil)
	req := client.chatRequest(ai.GenerateOptions{Model: "chat-test"}, strings.Repeat("word ", 5000))
	assert.Equal(t, 5000+contextHeadroom, req.Options["num_ctx"])
}
