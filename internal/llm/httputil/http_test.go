package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/poolchaos/personalfit-api/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendRequest_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"answer": 42}`))
	}))
	defer server.Close()

	var out struct {
		Answer int `json:"answer"`
	}
	err := SendRequest(context.Background(), server.Client(), "test", "POST", server.URL,
		map[string]string{"Authorization": "Bearer sk-test"},
		map[string]string{"prompt": "hello"}, &out)

	require.NoError(t, err)
	assert.Equal(t, 42, out.Answer)
}

func TestSendRequest_StatusClassification(t *testing.T) {
	tests := []struct {
		status int
		want   llm.FailureKind
	}{
		{http.StatusTooManyRequests, llm.KindRateLimited},
		{http.StatusRequestTimeout, llm.KindTimeout},
		{http.StatusServiceUnavailable, llm.KindServerOverloaded},
		{529, llm.KindServerOverloaded},
		{http.StatusInternalServerError, llm.KindServerError},
		{http.StatusBadRequest, llm.KindInvalidInput},
		{http.StatusUnauthorized, llm.KindInvalidInput},
	}

	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			_, _ = w.Write([]byte(`{"error":{"message":"upstream says no"}}`))
		}))

		err := SendRequest(context.Background(), server.Client(), "test", "POST", server.URL, nil, nil, nil)
		server.Close()

		var pe *llm.ProviderError
		require.ErrorAs(t, err, &pe, "status %d", tt.status)
		assert.Equal(t, tt.want, pe.Kind, "status %d", tt.status)
		assert.Equal(t, tt.status, pe.StatusCode)
		assert.Contains(t, pe.Body, "upstream says no")
	}
}

func TestSendRequest_ContextTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := SendRequest(ctx, server.Client(), "test", "GET", server.URL, nil, nil, nil)

	var pe *llm.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, llm.KindTimeout, pe.Kind)
}

func TestSendRequest_ConnectionRefused(t *testing.T) {
	// A server that is already closed refuses connections.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	err := SendRequest(context.Background(), http.DefaultClient, "test", "GET", url, nil, nil, nil)

	var pe *llm.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, llm.KindServerOverloaded, pe.Kind)
}

func TestSendRequest_BadResponseBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"answer": not json`))
	}))
	defer server.Close()

	var out map[string]any
	err := SendRequest(context.Background(), server.Client(), "test", "GET", server.URL, nil, nil, &out)

	var pe *llm.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.False(t, errors.Is(err, context.DeadlineExceeded))
}
