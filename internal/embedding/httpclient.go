package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const callTimeout = 30 * time.Second

// HTTPClient is the default Service implementation: a thin HTTP wrapper
// around an embedding model's REST endpoint, mirroring internal/board's
// HTTPClient idiom.
type HTTPClient struct {
	endpoint string
	apiKey string
	httpClient *http.Client
}

// NewHTTPClient builds an HTTPClient against endpoint, authenticating with
// apiKey if non-empty.
func NewHTTPClient(endpoint, apiKey string) *HTTPClient {
	return &HTTPClient{endpoint: endpoint, apiKey: apiKey, httpClient: &http.Client{Timeout: callTimeout}}
}

// Embed sends text to the model endpoint and returns its vector.
func (c *HTTPClient) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody, err:= json.Marshal(map[string]string{"input": text})
	if err != nil {
 return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	req, err:= http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
 return nil, fmt.Errorf("failed to build embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
 req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err:= c.httpClient.Do(req)
	if err != nil {
 return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
 return nil, fmt.Errorf("embedding model returned status %d", resp.StatusCode)
	}

	var payload struct {
 Embedding []float32 `json:"embedding"`
	}
	if err:= json.NewDecoder(resp.Body).Decode(&payload); err != nil {
 return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	return payload.Embedding, nil
}
