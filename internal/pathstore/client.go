package pathstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
)

// Client communicates with the pathstore HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	attempts   uint
	delay      time.Duration
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		attempts: 3,
		delay:    200 * time.Millisecond,
	}
}

// WithRetry overrides the attempt count and base delay for transient
// failures.
func (c *Client) WithRetry(attempts uint, delay time.Duration) *Client {
	c.attempts = attempts
	c.delay = delay
	return c
}

// NodeRequest is the body for PUT /kv/{key}.
type NodeRequest struct {
	Value     any    `json:"value"`
	MergeMode string `json:"merge_mode,omitempty"`
	Source    string `json:"source,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

// NodeResponse is the response from GET /kv/{key}.
type NodeResponse struct {
	Key   string `json:"key_path"`
	Value any    `json:"value"`
}

// StatusError is a non-success response from the API.
type StatusError struct {
	Op     string
	Key    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Op, e.Key, e.Status, e.Body)
}

// do sends one request, retrying transport errors and 5xx responses.
// ok lists the statuses treated as success; 404 is reported through found.
func (c *Client) do(ctx context.Context, op, method, key, rawURL string, body []byte, ok []int, out any) (found bool, err error) {
	err = retry.Do(
		func() error {
			var rd io.Reader
			if body != nil {
				rd = bytes.NewReader(body)
			}
			httpReq, err := http.NewRequestWithContext(ctx, method, rawURL, rd)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("create request: %w", err))
			}
			if body != nil {
				httpReq.Header.Set("Content-Type", "application/json")
			}
			httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusNotFound && method == http.MethodGet {
				found = false
				return nil
			}
			for _, s := range ok {
				if resp.StatusCode == s {
					found = true
					if out == nil {
						return nil
					}
					if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
						return retry.Unrecoverable(fmt.Errorf("decode %s: %w", op, err))
					}
					return nil
				}
			}
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			serr := &StatusError{Op: op, Key: key, Status: resp.StatusCode, Body: string(respBody)}
			if resp.StatusCode < 500 {
				return retry.Unrecoverable(serr)
			}
			return serr
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.LastErrorOnly(true),
	)
	return found, err
}

// PutNode stores or updates a node at the given path.
func (c *Client) PutNode(ctx context.Context, key string, req NodeRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal node: %w", err)
	}
	_, err = c.do(ctx, "put node", http.MethodPut, key, c.baseURL+"/kv/"+key, body,
		[]int{http.StatusOK, http.StatusCreated}, nil)
	return err
}

// GetNode retrieves a node by key. A missing node returns nil, nil.
func (c *Client) GetNode(ctx context.Context, key string) (*NodeResponse, error) {
	var node NodeResponse
	found, err := c.do(ctx, "get node", http.MethodGet, key, c.baseURL+"/kv/"+key, nil,
		[]int{http.StatusOK}, &node)
	if err != nil || !found {
		return nil, err
	}
	return &node, nil
}

// DeleteNode deletes a node and optionally its children.
func (c *Client) DeleteNode(ctx context.Context, key string, recursive bool) error {
	u := c.baseURL + "/kv/" + key
	if recursive {
		u += "?children=true"
	}
	_, err := c.do(ctx, "delete node", http.MethodDelete, key, u, nil,
		[]int{http.StatusOK, http.StatusNoContent, http.StatusNotFound}, nil)
	return err
}

// ListChildrenResponse is a single node from a prefix scan.
type ListChildrenResponse struct {
	Key   string `json:"key_path"`
	Value any    `json:"value"`
}

// ListChildren does a prefix scan under the given key.
func (c *Client) ListChildren(ctx context.Context, key string, limit int) ([]ListChildrenResponse, error) {
	u := c.baseURL + "/kv/" + key + "/*"
	if limit > 0 {
		u += "?limit=" + url.QueryEscape(fmt.Sprintf("%d", limit))
	}
	var result struct {
		Nodes []ListChildrenResponse `json:"nodes"`
	}
	if _, err := c.do(ctx, "list children", http.MethodGet, key, u, nil,
		[]int{http.StatusOK}, &result); err != nil {
		return nil, err
	}
	return result.Nodes, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
