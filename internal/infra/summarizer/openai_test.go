package summarizer_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crb2nu/news-analyzer/internal/infra/summarizer"
)

func chatCompletionResponse(t *testing.T, content string, totalTokens int) string {
	t.Helper()
	body := map[string]interface{}{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1,
		"model":   "active",
		"choices": []map[string]interface{}{
			{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": totalTokens},
	}
	b, err := json.Marshal(body)
	require.NoError(t, err)
	return string(b)
}

func TestOpenAI_Summarize_ParsesJSONContract(t *testing.T) {
	content := `{"summary": "Town council approves new budget.", "bullets": ["Budget passed 5-2", "Takes effect July"], "tags": ["budget","council"]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatCompletionResponse(t, content, 123)))
	}))
	defer srv.Close()

	cfg := summarizer.DefaultConfig()
	client, err := summarizer.NewOpenAI(srv.URL, "test-key", cfg, nil)
	require.NoError(t, err)

	result, err := client.Summarize(t.Context(), "Budget vote", "The council met Tuesday and approved the budget.")
	require.NoError(t, err)
	assert.True(t, result.ParsedJSON)
	assert.Equal(t, "Town council approves new budget.", result.Text)
	assert.Len(t, result.Bullets, 2)
	assert.Equal(t, 123, result.TokensUsed)
}

func TestOpenAI_Summarize_FallsBackOnNonJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatCompletionResponse(t, "Not JSON at all.", 10)))
	}))
	defer srv.Close()

	cfg := summarizer.DefaultConfig()
	client, err := summarizer.NewOpenAI(srv.URL, "test-key", cfg, nil)
	require.NoError(t, err)

	result, err := client.Summarize(t.Context(), "Title", "Content body.")
	require.NoError(t, err)
	assert.False(t, result.ParsedJSON)
	assert.Equal(t, "Not JSON at all.", result.Text)
	assert.Nil(t, result.Bullets)
}

func TestNewOpenAI_RejectsInvalidConfig(t *testing.T) {
	_, err := summarizer.NewOpenAI("http://example.invalid", "key", summarizer.Config{}, nil)
	assert.Error(t, err)
}
