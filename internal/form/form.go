// Package form decodes raw key-value form submissions into typed
// action requests. The set of request kinds is closed: anything with
// an absent or unrecognized formType tag is rejected at decode time
// instead of resolving to a missing handler later.
package form

import (
	"errors"
	"fmt"
)

// ErrInvalidFormType is returned when the formType discriminant is
// missing or not one of the recognized values.
var ErrInvalidFormType = errors.New("invalid form type")

// Form field keys.
const (
	KeyFormType = "formType"
	KeyTitle    = "title"
	KeyAuthor   = "author"
	KeyImage    = "image"
	KeyFormat   = "format"
	KeyKeyword  = "keyword"
	KeyReset    = "reset"
	KeyID       = "id"
	KeyPoint    = "point"
	KeyField    = "field"
	KeyValue    = "value"
)

// formType discriminant values.
const (
	TypeAdd         = "add"
	TypeSearch      = "search"
	TypeUpdate      = "update"
	TypeUpdateField = "updateField"
	TypeDelete      = "delete"
)

// Request is a decoded form submission. Exactly the types in this
// package implement it.
type Request interface {
	formRequest()
}

// Add requests creation of a new item. Optional fields are opaque
// strings; empty means absent.
type Add struct {
	Title  string
	Author string
	Image  string
	Format string
}

// Search requests filtering the displayed list by keyword.
type Search struct {
	Keyword string
}

// SearchReset requests clearing any active filter.
type SearchReset struct{}

// UpdatePoint requests changing an item's rating. ID and Point are
// opaque strings; coercion and range checking happen in the handler.
type UpdatePoint struct {
	ID    string
	Point string
}

// UpdateField requests changing one descriptive attribute of an item.
type UpdateField struct {
	ID    string
	Field string
	Value string
}

// Delete requests removal of an item.
type Delete struct {
	ID string
}

func (Add) formRequest()         {}
func (Search) formRequest()      {}
func (SearchReset) formRequest() {}
func (UpdatePoint) formRequest() {}
func (UpdateField) formRequest() {}
func (Delete) formRequest()      {}

// Decode parses a raw submission into a typed request. Values pass
// through as opaque strings; malformed numbers surface later as
// handler validation failures, never as decode failures.
func Decode(values map[string]string) (Request, error) {
	switch tag := values[KeyFormType]; tag {
	case TypeAdd:
		return Add{
			Title:  values[KeyTitle],
			Author: values[KeyAuthor],
			Image:  values[KeyImage],
			Format: values[KeyFormat],
		}, nil
	case TypeSearch:
		// A reset flag or an empty keyword both mean "show everything".
		if values[KeyReset] == "true" || values[KeyKeyword] == "" {
			return SearchReset{}, nil
		}
		return Search{Keyword: values[KeyKeyword]}, nil
	case TypeUpdate:
		return UpdatePoint{
			ID:    values[KeyID],
			Point: values[KeyPoint],
		}, nil
	case TypeUpdateField:
		return UpdateField{
			ID:    values[KeyID],
			Field: values[KeyField],
			Value: values[KeyValue],
		}, nil
	case TypeDelete:
		return Delete{ID: values[KeyID]}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormType, tag)
	}
}

// Encode renders a request back into raw form values. Decode(Encode(r))
// reproduces r for every request kind.
func Encode(req Request) map[string]string {
	switch r := req.(type) {
	case Add:
		return map[string]string{
			KeyFormType: TypeAdd,
			KeyTitle:    r.Title,
			KeyAuthor:   r.Author,
			KeyImage:    r.Image,
			KeyFormat:   r.Format,
		}
	case Search:
		return map[string]string{
			KeyFormType: TypeSearch,
			KeyKeyword:  r.Keyword,
		}
	case SearchReset:
		return map[string]string{
			KeyFormType: TypeSearch,
			KeyReset:    "true",
		}
	case UpdatePoint:
		return map[string]string{
			KeyFormType: TypeUpdate,
			KeyID:       r.ID,
			KeyPoint:    r.Point,
		}
	case UpdateField:
		return map[string]string{
			KeyFormType: TypeUpdateField,
			KeyID:       r.ID,
			KeyField:    r.Field,
			KeyValue:    r.Value,
		}
	case Delete:
		return map[string]string{
			KeyFormType: TypeDelete,
			KeyID:       r.ID,
		}
	default:
		// Request is a closed set; this is unreachable.
		return nil
	}
}
