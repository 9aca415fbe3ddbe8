package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"
)

// DefaultBooksBaseURL is the Google Books volumes endpoint.
const DefaultBooksBaseURL = "https://www.googleapis.com/books/v1"

// BooksClient looks up book metadata by ISBN against Google Books.
// It is safe for concurrent use.
type BooksClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewBooksClient creates a BooksClient against the public Google
// Books API.
func NewBooksClient(logger *zap.Logger) *BooksClient {
	return &BooksClient{
		baseURL:    DefaultBooksBaseURL,
		httpClient: newHTTPClient(),
		logger:     logger,
	}
}

// WithBaseURL points the client at a different endpoint, primarily
// for tests.
func (c *BooksClient) WithBaseURL(baseURL string) *BooksClient {
	c.baseURL = baseURL
	return c
}

// volumesResponse mirrors the slice of the Google Books response we
// consume.
type volumesResponse struct {
	Items []struct {
		VolumeInfo struct {
			Title      string   `json:"title"`
			Authors    []string `json:"authors"`
			ImageLinks struct {
				Thumbnail string `json:"thumbnail"`
			} `json:"imageLinks"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// LookupISBN resolves an ISBN to title/author/image metadata. The
// first matching volume wins; an empty result set maps to ErrNotFound.
func (c *BooksClient) LookupISBN(ctx context.Context, isbn string) (*Metadata, error) {
	endpoint := fmt.Sprintf("%s/volumes?q=%s", c.baseURL, url.QueryEscape("isbn:"+isbn))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("lookup isbn: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup isbn: %w: %w", ErrLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lookup isbn: %w: status %d", ErrLookupFailed, resp.StatusCode)
	}

	var data volumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("lookup isbn: decode response: %w", err)
	}

	if len(data.Items) == 0 {
		return nil, fmt.Errorf("lookup isbn %s: %w", isbn, ErrNotFound)
	}

	volume := data.Items[0].VolumeInfo
	meta := &Metadata{
		Title: volume.Title,
		Image: volume.ImageLinks.Thumbnail,
	}
	if len(volume.Authors) > 0 {
		meta.Author = volume.Authors[0]
	}

	c.logger.Debug("isbn lookup succeeded",
		zap.String("isbn", isbn),
		zap.String("title", meta.Title),
	)
	return meta, nil
}
