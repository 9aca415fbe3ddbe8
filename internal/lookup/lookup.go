// Package lookup resolves barcodes to item metadata via third-party
// catalogs: Google Books for ISBNs and Discogs for UPC barcodes.
// Lookup results never touch item state directly; callers feed them
// into an add form.
package lookup

import (
	"errors"
	"net/http"
	"time"
)

// Lookup errors.
var (
	// ErrNotFound is returned when the catalog has no entry for the code.
	ErrNotFound = errors.New("no metadata found for code")
	// ErrLookupFailed wraps transport and non-2xx catalog failures.
	ErrLookupFailed = errors.New("metadata lookup failed")
)

// DefaultTimeout bounds every catalog round-trip.
const DefaultTimeout = 10 * time.Second

// Metadata is the item information a catalog returns for a barcode.
// Format is only populated by catalogs that carry physical formats.
type Metadata struct {
	Title  string
	Author string
	Image  string
	Format string
}

// newHTTPClient builds the shared catalog HTTP client.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: DefaultTimeout,
	}
}
