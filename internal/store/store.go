// Package store provides data storage interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/ymori/itemshelf/internal/model"
)

// Store errors.
var (
	ErrNotFound     = errors.New("item not found")
	ErrInvalidID    = errors.New("invalid item ID")
	ErrNilItem      = errors.New("item cannot be nil")
	ErrUnknownField = errors.New("unknown item field")
)

// Store defines the interface for item storage operations.
// List and Search return items newest-first (created_at descending,
// then ID descending for same-instant rows).
type Store interface {
	// List returns all items from the store, newest first.
	List(ctx context.Context) ([]model.Item, error)

	// Search returns items whose title or author contains the keyword,
	// matched case-insensitively, newest first.
	Search(ctx context.Context, keyword string) ([]model.Item, error)

	// Get retrieves an item by its ID.
	Get(ctx context.Context, id int64) (*model.Item, error)

	// Create adds a new item and returns it with a generated ID,
	// zero point, and a creation timestamp.
	Create(ctx context.Context, item *model.Item) (*model.Item, error)

	// UpdatePoint sets the rating of an existing item and returns the
	// full updated row.
	UpdatePoint(ctx context.Context, id int64, point int) (*model.Item, error)

	// UpdateField sets one of title/author/image/format on an existing
	// item and returns the full updated row. A nil value clears an
	// optional field.
	UpdateField(ctx context.Context, id int64, field string, value *string) (*model.Item, error)

	// Delete removes an item from the store by its ID.
	Delete(ctx context.Context, id int64) error

	// Close releases any resources held by the store.
	Close() error
}
