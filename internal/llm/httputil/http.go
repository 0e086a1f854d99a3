// Package httputil carries the provider adapters' shared HTTP plumbing.
// Every upstream failure leaves here already classified, so adapters
// and the orchestrator never inspect response bodies to decide whether
// to retry.
package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/poolchaos/personalfit-api/internal/llm"
)

// HTTPClient defines the interface for an HTTP client
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// maxErrorBody caps how much upstream error text is carried around in
// logs and attempt records.
const maxErrorBody = 2048

// SendRequest handles the common logic of creating a request, sending
// it, and checking the status code. Non-2xx responses and transport
// failures come back as *llm.ProviderError with the failure kind set.
func SendRequest(ctx context.Context, client HTTPClient, provider, method, url string, headers map[string]string, body interface{}, response interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return &llm.ProviderError{
			Kind:     llm.ClassifyTransport(err),
			Provider: provider,
			URL:      url,
			Err:      err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &llm.ProviderError{
			Kind:       llm.ClassifyStatus(resp.StatusCode),
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
			URL:        url,
		}
	}

	if response != nil {
		if err := json.NewDecoder(resp.Body).Decode(response); err != nil {
			return &llm.ProviderError{
				Kind:     llm.ClassifyTransport(err),
				Provider: provider,
				URL:      url,
				Err:      fmt.Errorf("failed to decode response: %w", err),
			}
		}
	}

	return nil
}
