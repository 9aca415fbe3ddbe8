package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ymori/itemshelf/internal/model"
)

// MemoryStore implements Store interface with in-memory storage.
type MemoryStore struct {
	mu     sync.RWMutex
	items  map[int64]model.Item
	nextID int64
}

// NewMemoryStore creates a new MemoryStore instance.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:  make(map[int64]model.Item),
		nextID: 1,
	}
}

// List returns all items from the store, newest first.
func (s *MemoryStore) List(ctx context.Context) ([]model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("list items: %w", ctx.Err())
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]model.Item, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}

	sortNewestFirst(items)

	return items, nil
}

// Search returns items whose title or author contains the keyword,
// matched case-insensitively, newest first. An empty keyword matches
// everything.
func (s *MemoryStore) Search(ctx context.Context, keyword string) ([]model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("search items: %w", ctx.Err())
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(keyword)
	items := make([]model.Item, 0)
	for _, item := range s.items {
		if matchesKeyword(item, needle) {
			items = append(items, item)
		}
	}

	sortNewestFirst(items)

	return items, nil
}

// Get retrieves an item by its ID.
func (s *MemoryStore) Get(ctx context.Context, id int64) (*model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("get item: %w", ctx.Err())
	default:
	}

	if id <= 0 {
		return nil, ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.items[id]
	if !exists {
		return nil, ErrNotFound
	}

	return &item, nil
}

// Create adds a new item to the store and returns the created item
// with a generated ID, zero point, and a creation timestamp.
func (s *MemoryStore) Create(ctx context.Context, item *model.Item) (*model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("create item: %w", ctx.Err())
	default:
	}

	if item == nil {
		return nil, fmt.Errorf("create item: %w", ErrNilItem)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	newItem := model.Item{
		ID:        s.nextID,
		Title:     item.Title,
		Author:    item.Author,
		Image:     item.Image,
		Format:    item.Format,
		Point:     0,
		UserID:    item.UserID,
		CreatedAt: time.Now().UTC(),
	}
	s.nextID++

	s.items[newItem.ID] = newItem

	return &newItem, nil
}

// UpdatePoint sets the rating of an existing item and returns the
// full updated row.
func (s *MemoryStore) UpdatePoint(ctx context.Context, id int64, point int) (*model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("update point: %w", ctx.Err())
	default:
	}

	if id <= 0 {
		return nil, ErrInvalidID
	}

	if point < model.MinPoint || point > model.MaxPoint {
		return nil, model.ErrInvalidPoint
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.items[id]
	if !exists {
		return nil, ErrNotFound
	}

	existing.Point = point
	s.items[id] = existing

	return &existing, nil
}

// UpdateField sets one of title/author/image/format on an existing
// item and returns the full updated row.
func (s *MemoryStore) UpdateField(
	ctx context.Context,
	id int64,
	field string,
	value *string,
) (*model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("update field: %w", ctx.Err())
	default:
	}

	if id <= 0 {
		return nil, ErrInvalidID
	}

	if !model.UpdatableField(field) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	if field == model.FieldTitle && (value == nil || *value == "") {
		return nil, model.ErrEmptyTitle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.items[id]
	if !exists {
		return nil, ErrNotFound
	}

	switch field {
	case model.FieldTitle:
		existing.Title = *value
	case model.FieldAuthor:
		existing.Author = value
	case model.FieldImage:
		existing.Image = value
	case model.FieldFormat:
		existing.Format = value
	}

	s.items[id] = existing

	return &existing, nil
}

// Delete removes an item from the store by its ID.
func (s *MemoryStore) Delete(ctx context.Context, id int64) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("delete item: %w", ctx.Err())
	default:
	}

	if id <= 0 {
		return ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; !exists {
		return ErrNotFound
	}

	delete(s.items, id)

	return nil
}

// Close releases resources. A no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// matchesKeyword reports whether the item's title or author contains
// the lowercased needle.
func matchesKeyword(item model.Item, needle string) bool {
	if strings.Contains(strings.ToLower(item.Title), needle) {
		return true
	}
	if item.Author != nil && strings.Contains(strings.ToLower(*item.Author), needle) {
		return true
	}
	return false
}

// sortNewestFirst orders items by creation time descending; same-instant
// rows fall back to ID descending so ordering stays deterministic.
func sortNewestFirst(items []model.Item) {
	sort.Slice(items, func(a, b int) bool {
		if !items[a].CreatedAt.Equal(items[b].CreatedAt) {
			return items[a].CreatedAt.After(items[b].CreatedAt)
		}
		return items[a].ID > items[b].ID
	})
}
