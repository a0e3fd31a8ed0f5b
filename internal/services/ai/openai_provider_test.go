package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpenAITestProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultConfig()
	cfg.LLMKey = "test-key"
	cfg.LLMBaseURL = server.URL + "/v1"
	cfg.EmbeddingKey = "test-key"
	cfg.EmbeddingBaseURL = server.URL + "/v1"
	cfg.EmbeddingModel = "all-minilm"
	return NewOpenAIProvider(cfg)
}

func TestOpenAIProvider_GetCompletion(t *testing.T) {
	provider := newOpenAITestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body["model"])

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Neurology"},"finish_reason":"stop"}]}`)
	})

	got, err := provider.GetCompletion(context.Background(), "test-model", "which department?")
	require.NoError(t, err)
	assert.Equal(t, "Neurology", got)
}

func TestOpenAIProvider_GetCompletionEmpty(t *testing.T) {
	provider := newOpenAITestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","choices":[]}`)
	})

	_, err := provider.GetCompletion(context.Background(), "test-model", "prompt")
	var aiErr *AIError
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, ErrTypeEmpty, aiErr.Type)
}

func TestOpenAIProvider_RateLimitClassified(t *testing.T) {
	provider := newOpenAITestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"slow down","type":"rate_limit"}}`)
	})

	_, err := provider.GetCompletion(context.Background(), "test-model", "prompt")
	var aiErr *AIError
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, ErrTypeRateLimit, aiErr.Type)
	assert.Equal(t, http.StatusTooManyRequests, aiErr.Code)
}

func TestOpenAIProvider_StreamCompletion(t *testing.T) {
	provider := newOpenAITestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range []string{"Neuro", "logy"} {
			writeChunk(w, part, "")
		}
		writeChunk(w, "", "stop")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	var sb strings.Builder
	err := provider.StreamCompletion(context.Background(), "test-model", "prompt", func(delta string) error {
		sb.WriteString(delta)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Neurology", sb.String())
}

func writeChunk(w http.ResponseWriter, content, finishReason string) {
	finish := "null"
	if finishReason != "" {
		finish = fmt.Sprintf("%q", finishReason)
	}
	fmt.Fprintf(w, "data: {\"id\":\"s1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q},\"finish_reason\":%s}]}\n\n", content, finish)
}

func TestOpenAIProvider_StreamCutOffIsError(t *testing.T) {
	provider := newOpenAITestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeChunk(w, "Neuro", "")
		// Connection closes with neither a finish reason nor [DONE].
	})

	var sb strings.Builder
	err := provider.StreamCompletion(context.Background(), "test-model", "prompt", func(delta string) error {
		sb.WriteString(delta)
		return nil
	})
	require.Error(t, err)
	var aiErr *AIError
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, ErrTypeStream, aiErr.Type)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, "Neuro", sb.String())
}

func TestOpenAIProvider_StreamFinishWithoutDone(t *testing.T) {
	provider := newOpenAITestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeChunk(w, "Cardiology", "stop")
	})

	err := provider.StreamCompletion(context.Background(), "test-model", "prompt", nil)
	assert.NoError(t, err)
}

func TestOpenAIProvider_StreamCallbackErrorStops(t *testing.T) {
	provider := newOpenAITestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"id\":\"s1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"x\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	stop := fmt.Errorf("stop")
	err := provider.StreamCompletion(context.Background(), "test-model", "prompt", func(string) error { return stop })
	assert.ErrorIs(t, err, stop)
}

func TestOpenAIProvider_CreateEmbeddingsKeepsInputOrder(t *testing.T) {
	provider := newOpenAITestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"object":"list","model":"all-minilm","data":[
			{"object":"embedding","index":1,"embedding":[0,1]},
			{"object":"embedding","index":0,"embedding":[1,0]}]}`)
	})

	got, err := provider.CreateEmbeddings(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, got)
}

func TestNewProvider_SelectsBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = BackendOllama
	cfg.LLMBaseURL = "http://localhost:11434"
	p, err := NewProvider(cfg)
	require.NoError(t, err)
	assert.Equal(t, BackendOllama, p.Name())

	cfg = DefaultConfig()
	cfg.LLMKey = "k"
	p, err = NewProvider(cfg)
	require.NoError(t, err)
	assert.Equal(t, BackendOpenAI, p.Name())

	cfg = DefaultConfig()
	_, err = NewProvider(cfg)
	var aiErr *AIError
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, ErrTypeConfig, aiErr.Type)
}
