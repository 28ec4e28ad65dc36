package board

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"
)

// retryBase and maxRetries implement 's rate-limit back-off: base 1s,
// jitter U(0,1)s added to base·2^attempt, capped retries.
const (
	retryBase = time.Second
	maxRetries = 5
	callTimeout = 45 * time.Second

	// outboundRPS caps how fast this client issues requests against the
	// board API, independent of the retry back-off above: the back-off
	// only kicks in once the board has already rejected a call with 429,
	// whereas this limiter tries to avoid triggering that in the first
	// place.
	outboundRPS = 5
	outboundBurst = 5
)

// HTTPClient is the default Client implementation: a thin HTTP wrapper
// around the board's REST API with the rate-limit retry/jitter policy of
// built on cenkalti/backoff/v5, plus a client-side limiter
// (golang.org/x/time/rate) that paces outbound calls before they ever reach
// the board.
type HTTPClient struct {
	baseURL string
	token string
	httpClient *http.Client
	limiter *rate.Limiter
}

// NewHTTPClient builds an HTTPClient against baseURL, authenticating with
// token on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
 baseURL: baseURL,
 token: token,
 httpClient: &http.Client{Timeout: callTimeout},
 limiter: rate.NewLimiter(rate.Limit(outboundRPS), outboundBurst),
	}
}

func (c *HTTPClient) CreateItem(ctx context.Context, boardID, name string, columnValues ColumnValues, group string) (*Item, error) {
	body:= map[string]any{"board": boardID, "name": name, "column_values": columnValues, "group": group}
	var item Item
	if err:= c.doWithRetry(ctx, http.MethodPost, "/items", body, &item); err != nil {
 return nil, err
	}
	return &item, nil
}

func (c *HTTPClient) UpdateItem(ctx context.Context, boardID, itemID string, columnValues ColumnValues) error {
	body:= map[string]any{"board": boardID, "column_values": columnValues}
	return c.doWithRetry(ctx, http.MethodPatch, "/items/"+itemID, body, nil)
}

func (c *HTTPClient) DeleteItem(ctx context.Context, itemID string) error {
	return c.doWithRetry(ctx, http.MethodDelete, "/items/"+itemID, nil, nil)
}

func (c *HTTPClient) GetBoardItems(ctx context.Context, boardID, cursor string) ([]*Item, string, error) {
	path:= fmt.Sprintf("/boards/%s/items?cursor=%s", boardID, cursor)
	var page struct {
 Items []*Item `json:"items"`
 NextCursor string `json:"next_cursor"`
	}
	if err:= c.doWithRetry(ctx, http.MethodGet, path, nil, &page); err != nil {
 return nil, "", err
	}
	return page.Items, page.NextCursor, nil
}

func (c *HTTPClient) SearchContacts(ctx context.Context, boardID, query string, columns []string, limit int) ([]*Item, string, bool, error) {
	body:= map[string]any{"board": boardID, "query": query, "columns": columns, "limit": limit}
	var result struct {
 Items []*Item `json:"items"`
 Cursor string `json:"cursor"`
 HasMore bool `json:"has_more"`
	}
	if err:= c.doWithRetry(ctx, http.MethodPost, "/contacts/search", body, &result); err != nil {
 return nil, "", false, err
	}
	return result.Items, result.Cursor, result.HasMore, nil
}

// rateLimitBackoff implements backoff.BackOff with 's exact policy:
// base·2^attempt plus U(0,1)s jitter, rather than the library's default
// multiplicative randomization.
type rateLimitBackoff struct {
	attempt int
}

func (b *rateLimitBackoff) NextBackOff() time.Duration {
	delay:= retryBase * time.Duration(1<<b.attempt)
	b.attempt++
	return delay + jitter()
}

// doWithRetry issues one HTTP call, retrying only on ErrRateLimit up to
// maxRetries times with exponential back-off plus jitter.
func (c *HTTPClient) doWithRetry(ctx context.Context, method, path string, body, out any) error {
	operation := func() (struct{}, error) {
 err:= c.do(ctx, method, path, body, out)
 if err == nil {
 return struct{}{}, nil
 }
 if isRateLimitErr(err) {
 slog.WarnContext(ctx, "external board rate limited, retrying", "path", path, "error", err)
 return struct{}{}, err
 }
 // Non-rate-limit errors are permanent from the retry loop's point
 // of view; wrap in backoff.Permanent so Retry stops immediately.
 return struct{}{}, backoff.Permanent(err)
	}

	_, err:= backoff.Retry(ctx, operation,
 backoff.WithBackOff(&rateLimitBackoff{}),
 backoff.WithMaxTries(maxRetries+1),
	)
	return err
}

func isRateLimitErr(err error) bool {
	return err == ErrRateLimit
}

func jitter() time.Duration {
	return time.Duration(rand.Float64() * float64(time.Second))
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	if err:= c.limiter.Wait(ctx); err != nil {
 return fmt.Errorf("%w: %v", ErrAPI, err)
	}

	var reader io.Reader
	if body != nil {
 data, err:= json.Marshal(body)
 if err != nil {
 return fmt.Errorf("failed to marshal request body: %w", err)
 }
 reader = bytes.NewReader(data)
	}

	req, err:= http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
 return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err:= c.httpClient.Do(req)
	if err != nil {
 return fmt.Errorf("%w: %v", ErrAPI, err)
	}
	defer resp.Body.Close()

	return c.classifyResponse(resp, out)
}

func (c *HTTPClient) classifyResponse(resp *http.Response, out any) error {
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
 if out == nil {
 return nil
 }
 if err:= json.NewDecoder(resp.Body).Decode(out); err != nil {
 return fmt.Errorf("%w: failed to decode response: %v", ErrAPI, err)
 }
 return nil
	case http.StatusTooManyRequests:
 return ErrRateLimit
	case http.StatusUnauthorized, http.StatusForbidden:
 return ErrAuth
	case http.StatusNotFound:
 return ErrNotFound
	default:
 data, _:= io.ReadAll(resp.Body)
 return fmt.Errorf("%w: status %d: %s", ErrAPI, resp.StatusCode, string(data))
	}
}
