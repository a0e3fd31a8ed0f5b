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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOllamaTestProvider(t *testing.T, handler http.HandlerFunc) *OllamaProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultConfig()
	cfg.Backend = BackendOllama
	cfg.LLMBaseURL = server.URL + "/"
	cfg.LLMKey = "cloud-key"
	cfg.EmbeddingModel = "all-minilm"
	cfg.Timeout = 5 * time.Second
	return NewOllamaProvider(cfg)
}

func TestOllamaProvider_StreamCompletion(t *testing.T) {
	provider := newOllamaTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "Bearer cloud-key", r.Header.Get("Authorization"))

		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)
		assert.Equal(t, "deepseek", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"Cardio"},"done":false}`)
		fmt.Fprintln(w, ``)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"logy"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":""},"done":true}`)
	})

	var sb strings.Builder
	err := provider.StreamCompletion(context.Background(), "deepseek", "prompt", func(d string) error {
		sb.WriteString(d)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Cardiology", sb.String())
}

func TestOllamaProvider_StreamWithoutDoneFails(t *testing.T) {
	provider := newOllamaTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"Cardio"},"done":false}`)
	})

	err := provider.StreamCompletion(context.Background(), "deepseek", "prompt", nil)
	var aiErr *AIError
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, ErrTypeStream, aiErr.Type)
}

func TestOllamaProvider_StreamErrorLine(t *testing.T) {
	provider := newOllamaTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"error":"model not found"}`)
	})

	err := provider.StreamCompletion(context.Background(), "deepseek", "prompt", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model not found")
}

func TestOllamaProvider_GetCompletion(t *testing.T) {
	provider := newOllamaTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		fmt.Fprint(w, `{"message":{"role":"assistant","content":"Dermatology"},"done":true}`)
	})

	got, err := provider.GetCompletion(context.Background(), "deepseek", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Dermatology", got)
}

func TestOllamaProvider_HTTPError(t *testing.T) {
	provider := newOllamaTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	_, err := provider.GetCompletion(context.Background(), "deepseek", "prompt")
	var aiErr *AIError
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, http.StatusServiceUnavailable, aiErr.Code)
	assert.Contains(t, aiErr.Message, "overloaded")
}

func TestOllamaProvider_TimeoutClassified(t *testing.T) {
	release := make(chan struct{})
	provider := newOllamaTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	// Registered after the server's Close, so it runs first and unblocks the handler.
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := provider.GetCompletion(ctx, "deepseek", "prompt")
	assert.True(t, IsTimeout(err))
}

func TestOllamaProvider_CreateEmbeddings(t *testing.T) {
	provider := newOllamaTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"a", "b"}, req.Input)
		fmt.Fprint(w, `{"embeddings":[[1,0],[0,1]]}`)
	})

	got, err := provider.CreateEmbeddings(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, got)
}

func TestOllamaProvider_HealthCheck(t *testing.T) {
	provider := newOllamaTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		fmt.Fprint(w, `{"models":[]}`)
	})
	assert.NoError(t, provider.HealthCheck(context.Background()))
}
