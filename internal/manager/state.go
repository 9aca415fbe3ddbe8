// Package manager reconciles the displayed item list with the
// backend: it holds the last server-confirmed snapshot, layers
// speculative edits over it while an action is in flight, and commits
// or rolls back when the backend responds.
package manager

import (
	"strings"

	"github.com/ymori/itemshelf/internal/model"
)

// ItemState is the authoritative client-side snapshot: the full list,
// an optional filtered list, and the keyword that produced it.
// A nil Filtered means no search is active; a non-nil empty Filtered
// means a search matched nothing. States are immutable: every
// transition builds fresh slices.
type ItemState struct {
	All      []model.Item
	Filtered []model.Item
	Keyword  string
}

// display returns the list the user currently sees: Filtered when a
// search is active, else All.
func (s ItemState) display() []model.Item {
	if s.Filtered != nil {
		return s.Filtered
	}
	return s.All
}

// clone deep-copies the snapshot so callers can never alias the
// manager's internal slices.
func (s ItemState) clone() ItemState {
	out := ItemState{
		All:     copyItems(s.All),
		Keyword: s.Keyword,
	}
	if s.Filtered != nil {
		out.Filtered = copyItems(s.Filtered)
	}
	return out
}

// replaceByID returns a copy of items with the entry matching
// confirmed.ID swapped for the full confirmed row. Replacing by ID is
// idempotent: applying the same confirmation twice yields the same
// list.
func replaceByID(items []model.Item, confirmed model.Item) []model.Item {
	out := make([]model.Item, len(items))
	for i, item := range items {
		if item.ID == confirmed.ID {
			out[i] = confirmed
		} else {
			out[i] = item
		}
	}
	return out
}

// removeByID returns a copy of items without the entry matching id.
func removeByID(items []model.Item, id int64) []model.Item {
	out := make([]model.Item, 0, len(items))
	for _, item := range items {
		if item.ID != id {
			out = append(out, item)
		}
	}
	return out
}

// prepend returns a copy of items with item at the head. New items go
// first to match the backend's newest-first ordering.
func prepend(items []model.Item, item model.Item) []model.Item {
	out := make([]model.Item, 0, len(items)+1)
	out = append(out, item)
	out = append(out, items...)
	return out
}

// copyItems shallow-copies an item slice.
func copyItems(items []model.Item) []model.Item {
	out := make([]model.Item, len(items))
	copy(out, items)
	return out
}

// matchesKeyword reports whether the item's title or author contains
// keyword, case-insensitively. Used to decide whether a newly added
// item belongs in an active filtered view.
func matchesKeyword(item model.Item, keyword string) bool {
	needle := strings.ToLower(keyword)
	if strings.Contains(strings.ToLower(item.Title), needle) {
		return true
	}
	if item.Author != nil && strings.Contains(strings.ToLower(*item.Author), needle) {
		return true
	}
	return false
}
