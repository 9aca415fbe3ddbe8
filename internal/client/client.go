// Package client provides a typed HTTP client for the item backend.
// Every method is a single remote round-trip with no retries; failures
// surface to the caller so the state layer can roll back speculative
// edits.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/ymori/itemshelf/internal/model"
)

// DefaultTimeout bounds every backend round-trip.
const DefaultTimeout = 15 * time.Second

// Client errors.
var (
	// ErrRemote wraps any backend failure (transport or non-2xx).
	ErrRemote = errors.New("remote operation failed")
	// ErrNotFound is returned when the backend reports a missing item.
	ErrNotFound = errors.New("item not found")
)

// RemoteError carries the HTTP status and backend message of a failed
// operation. It matches both ErrRemote and, for 404s, ErrNotFound
// under errors.Is.
type RemoteError struct {
	Operation  string
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: backend returned %d: %s", e.Operation, e.StatusCode, e.Message)
}

// Is makes RemoteError match ErrRemote, and ErrNotFound for 404s.
func (e *RemoteError) Is(target error) bool {
	if target == ErrRemote {
		return true
	}
	if target == ErrNotFound {
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// ItemFields holds the user-supplied attributes of a new item.
// Empty optional fields are submitted as null.
type ItemFields struct {
	Title  string
	Author string
	Image  string
	Format string
}

// Client is a typed wrapper over the backend's item CRUD surface.
// It is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey attaches an API key to every request.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithTimeout sets a custom round-trip timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient swaps the underlying http.Client, primarily for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a Client for the backend at baseURL
// (e.g. "http://localhost:8080").
func New(baseURL string, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: logger,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// List returns all items, newest first.
func (c *Client) List(ctx context.Context) ([]model.Item, error) {
	var items []model.Item
	err := c.do(ctx, "list items", http.MethodGet, "/api/v1/items", nil, &items)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Search returns items whose title or author contains keyword,
// matched case-insensitively, newest first.
func (c *Client) Search(ctx context.Context, keyword string) ([]model.Item, error) {
	path := "/api/v1/items?keyword=" + url.QueryEscape(keyword)

	var items []model.Item
	err := c.do(ctx, "search items", http.MethodGet, path, nil, &items)
	if err != nil {
		return nil, err
	}
	return items, nil
}

// insertRequest is the POST /api/v1/items body.
type insertRequest struct {
	Title  string  `json:"title"`
	Author *string `json:"author"`
	Image  *string `json:"image"`
	Format *string `json:"format"`
}

// Insert creates a new item. The backend stamps the owner from the
// authenticated identity and assigns ID, point zero, and created_at.
func (c *Client) Insert(ctx context.Context, fields ItemFields) (*model.Item, error) {
	body := insertRequest{
		Title:  fields.Title,
		Author: model.OptionalString(fields.Author),
		Image:  model.OptionalString(fields.Image),
		Format: model.OptionalString(fields.Format),
	}

	var item model.Item
	err := c.do(ctx, "insert item", http.MethodPost, "/api/v1/items", body, &item)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// updatePointRequest is the PUT /api/v1/items/{id}/point body.
type updatePointRequest struct {
	Point int `json:"point"`
}

// UpdatePoint sets the rating of an item and returns the full
// server-confirmed row.
func (c *Client) UpdatePoint(ctx context.Context, id int64, point int) (*model.Item, error) {
	path := fmt.Sprintf("/api/v1/items/%d/point", id)

	var item model.Item
	err := c.do(ctx, "update point", http.MethodPut, path, updatePointRequest{Point: point}, &item)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// updateFieldRequest is the PATCH /api/v1/items/{id} body.
type updateFieldRequest struct {
	Field string  `json:"field"`
	Value *string `json:"value"`
}

// UpdateField sets one of title/author/image/format on an item and
// returns the full server-confirmed row. An empty value clears an
// optional field.
func (c *Client) UpdateField(ctx context.Context, id int64, field, value string) (*model.Item, error) {
	path := fmt.Sprintf("/api/v1/items/%d", id)
	body := updateFieldRequest{
		Field: field,
		Value: model.OptionalString(value),
	}

	var item model.Item
	err := c.do(ctx, "update field", http.MethodPatch, path, body, &item)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes an item by ID. Deleting an unknown ID fails with
// ErrNotFound.
func (c *Client) Delete(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/api/v1/items/%d", id)
	return c.do(ctx, "delete item", http.MethodDelete, path, nil, nil)
}

// do performs one round-trip: marshal body, send, decode the response
// envelope into out (when out is non-nil), and map failures onto the
// client error taxonomy.
func (c *Client) do(ctx context.Context, operation, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", operation, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", operation, err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w: %w", operation, ErrRemote, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		remoteErr := &RemoteError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Message:    decodeErrorMessage(resp.Body),
		}
		c.logger.Warn("backend request failed",
			zap.String("operation", operation),
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", remoteErr.Message),
		)
		return remoteErr
	}

	if out == nil {
		return nil
	}

	var envelope model.APIResponse[json.RawMessage]
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%s: decode response: %w", operation, err)
	}
	if !envelope.Success {
		return &RemoteError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Message:    envelope.Error,
		}
	}

	// The envelope's data field is omitempty, so a success body for an
	// empty list carries no data at all. Leave out at its zero value
	// rather than unmarshaling nothing.
	if len(envelope.Data) == 0 {
		return nil
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("%s: decode response data: %w", operation, err)
	}

	return nil
}

// decodeErrorMessage extracts the backend's error message from a
// non-2xx body, falling back to an empty string.
func decodeErrorMessage(body io.Reader) string {
	var errResp model.ErrorResponse
	if err := json.NewDecoder(body).Decode(&errResp); err != nil {
		return ""
	}
	return errResp.Message
}
