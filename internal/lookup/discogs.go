package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// DefaultDiscogsBaseURL is the Discogs database API endpoint.
const DefaultDiscogsBaseURL = "https://api.discogs.com"

// discogsUserAgent identifies this application to Discogs, which
// rejects anonymous user agents.
const discogsUserAgent = "itemshelf/1.0"

// DiscogsClient looks up music release metadata by UPC barcode.
// It is safe for concurrent use.
type DiscogsClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewDiscogsClient creates a DiscogsClient authenticated by the given
// personal access token.
func NewDiscogsClient(token string, logger *zap.Logger) *DiscogsClient {
	return &DiscogsClient{
		baseURL:    DefaultDiscogsBaseURL,
		token:      token,
		httpClient: newHTTPClient(),
		logger:     logger,
	}
}

// WithBaseURL points the client at a different endpoint, primarily
// for tests.
func (c *DiscogsClient) WithBaseURL(baseURL string) *DiscogsClient {
	c.baseURL = baseURL
	return c
}

// searchResponse mirrors the slice of the Discogs search response we
// consume.
type searchResponse struct {
	Results []struct {
		Title      string   `json:"title"`
		Artist     string   `json:"artist"`
		CoverImage string   `json:"cover_image"`
		Format     []string `json:"format"`
	} `json:"results"`
}

// LookupUPC resolves a UPC barcode to release metadata. The first
// search result wins; an empty result set maps to ErrNotFound.
func (c *DiscogsClient) LookupUPC(ctx context.Context, barcode string) (*Metadata, error) {
	endpoint := fmt.Sprintf("%s/database/search?barcode=%s", c.baseURL, url.QueryEscape(barcode))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("lookup upc: build request: %w", err)
	}
	req.Header.Set("Authorization", "Discogs token="+c.token)
	req.Header.Set("User-Agent", discogsUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup upc: %w: %w", ErrLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lookup upc: %w: status %d", ErrLookupFailed, resp.StatusCode)
	}

	var data searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("lookup upc: decode response: %w", err)
	}

	if len(data.Results) == 0 {
		return nil, fmt.Errorf("lookup upc %s: %w", barcode, ErrNotFound)
	}

	release := data.Results[0]
	meta := &Metadata{
		Title:  release.Title,
		Author: release.Artist,
		Image:  release.CoverImage,
		Format: strings.Join(release.Format, ", "),
	}

	c.logger.Debug("upc lookup succeeded",
		zap.String("barcode", barcode),
		zap.String("title", meta.Title),
	)
	return meta, nil
}
