// Package model defines data structures used throughout the application.
package model

import (
	"errors"
	"time"
)

// Validation errors for Item.
var (
	ErrEmptyTitle   = errors.New("title cannot be empty")
	ErrTitleTooLong = errors.New("title cannot exceed 255 characters")
	ErrInvalidPoint = errors.New("point must be between 0 and 5")
)

// Validation constants.
const (
	MaxTitleLength = 255
	MinPoint       = 0
	MaxPoint       = 5
)

// Fields that may be updated individually on an Item.
const (
	FieldTitle  = "title"
	FieldAuthor = "author"
	FieldImage  = "image"
	FieldFormat = "format"
)

// UpdatableField reports whether field names a field that a
// single-field update may target.
func UpdatableField(field string) bool {
	switch field {
	case FieldTitle, FieldAuthor, FieldImage, FieldFormat:
		return true
	default:
		return false
	}
}

// Item represents an entry in the collection: a book, an album, or a
// general object with an owner and a 0-5 rating.
type Item struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Author    *string   `json:"author"`
	Image     *string   `json:"image"`
	Format    *string   `json:"format"`
	Point     int       `json:"point"`
	UserID    string    `json:"user_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks if the Item has valid field values.
func (i *Item) Validate() error {
	if i.Title == "" {
		return ErrEmptyTitle
	}

	if len(i.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}

	if i.Point < MinPoint || i.Point > MaxPoint {
		return ErrInvalidPoint
	}

	return nil
}

// OptionalString returns nil for an empty string so that cleared
// optional fields are stored as NULL rather than "".
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// APIResponse is a generic wrapper for API responses.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewSuccessResponse creates a successful API response.
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error API response.
func NewErrorResponse[T any](errMsg string) APIResponse[T] {
	return APIResponse[T]{
		Success: false,
		Error:   errMsg,
	}
}

// ErrorResponse represents an error response structure.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ChangeEvent represents an item mutation broadcast over the
// WebSocket change feed.
type ChangeEvent struct {
	Type      string    `json:"type"`
	ItemID    int64     `json:"item_id"`
	Item      *Item     `json:"item,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Change feed event types.
const (
	ChangeTypeAdded   = "item_added"
	ChangeTypeUpdated = "item_updated"
	ChangeTypeDeleted = "item_deleted"
)

// NewChangeEvent creates a change feed event for the given mutation.
// item may be nil for deletions.
func NewChangeEvent(changeType string, itemID int64, item *Item) ChangeEvent {
	return ChangeEvent{
		Type:      changeType,
		ItemID:    itemID,
		Item:      item,
		Timestamp: time.Now().UTC(),
	}
}
