package manager

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ymori/itemshelf/internal/form"
	"github.com/ymori/itemshelf/internal/model"
)

// handleAdd validates the title, shows a placeholder immediately, and
// splices the server-confirmed row at the head of the full list once
// the insert succeeds. With a search active, the new item joins the
// filtered view only when it actually matches the keyword.
func (m *Manager) handleAdd(ctx context.Context, prior ItemState, req form.Add) (ItemState, error) {
	if strings.TrimSpace(req.Title) == "" {
		return ItemState{}, ErrTitleRequired
	}

	// Placeholder shown until the backend confirms. The temporary ID
	// only needs to not collide with server-assigned IDs on screen.
	placeholder := model.Item{
		ID:        time.Now().UnixMilli(),
		Title:     req.Title,
		Author:    model.OptionalString(req.Author),
		Image:     model.OptionalString(req.Image),
		Format:    model.OptionalString(req.Format),
		Point:     0,
		CreatedAt: time.Now().UTC(),
	}
	m.beginOptimistic(prepend(prior.display(), placeholder))

	confirmed, err := m.client.Insert(ctx, ItemFields{
		Title:  req.Title,
		Author: req.Author,
		Image:  req.Image,
		Format: req.Format,
	})
	if err != nil {
		return ItemState{}, fmt.Errorf("add item: %w", err)
	}

	next := ItemState{
		All:     prepend(prior.All, *confirmed),
		Keyword: prior.Keyword,
	}
	if prior.Filtered != nil {
		if matchesKeyword(*confirmed, prior.Keyword) {
			next.Filtered = prepend(prior.Filtered, *confirmed)
		} else {
			next.Filtered = copyItems(prior.Filtered)
		}
	}

	m.logger.Debug("item added",
		zap.Int64("id", confirmed.ID),
		zap.String("title", confirmed.Title),
	)
	return next, nil
}

// handleSearch swaps the filtered list wholesale. No speculative
// projection: results replace the view in one step.
func (m *Manager) handleSearch(ctx context.Context, prior ItemState, req form.Search) (ItemState, error) {
	items, err := m.client.Search(ctx, req.Keyword)
	if err != nil {
		return ItemState{}, fmt.Errorf("search items: %w", err)
	}

	// An empty result still means "filter active": Filtered stays
	// non-nil so the view shows no rows rather than falling back.
	if items == nil {
		items = []model.Item{}
	}

	return ItemState{
		All:      copyItems(prior.All),
		Filtered: items,
		Keyword:  req.Keyword,
	}, nil
}

// handleSearchReset clears the active filter without a remote call.
func (m *Manager) handleSearchReset(prior ItemState) (ItemState, error) {
	return ItemState{
		All: copyItems(prior.All),
	}, nil
}

// handleUpdatePoint coerces and range-checks the rating, shows the
// new value immediately, and replaces the full confirmed row in both
// lists once the backend responds.
func (m *Manager) handleUpdatePoint(ctx context.Context, prior ItemState, req form.UpdatePoint) (ItemState, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return ItemState{}, err
	}

	point, err := strconv.Atoi(req.Point)
	if err != nil || point < model.MinPoint || point > model.MaxPoint {
		return ItemState{}, fmt.Errorf("%w: %q", ErrInvalidPoint, req.Point)
	}

	projection := copyItems(prior.display())
	for i := range projection {
		if projection[i].ID == id {
			projection[i].Point = point
		}
	}
	m.beginOptimistic(projection)

	confirmed, err := m.client.UpdatePoint(ctx, id, point)
	if err != nil {
		return ItemState{}, fmt.Errorf("update point: %w", err)
	}

	return confirmRow(prior, *confirmed), nil
}

// handleUpdateField validates the target field, shows the new value
// immediately, and replaces the full confirmed row once the backend
// responds. An empty value clears author/image/format but never title.
func (m *Manager) handleUpdateField(ctx context.Context, prior ItemState, req form.UpdateField) (ItemState, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return ItemState{}, err
	}

	if !model.UpdatableField(req.Field) {
		return ItemState{}, fmt.Errorf("%w: %q", ErrUnknownField, req.Field)
	}

	if req.Field == model.FieldTitle && strings.TrimSpace(req.Value) == "" {
		return ItemState{}, ErrTitleRequired
	}

	projection := copyItems(prior.display())
	for i := range projection {
		if projection[i].ID == id {
			applyField(&projection[i], req.Field, req.Value)
		}
	}
	m.beginOptimistic(projection)

	confirmed, err := m.client.UpdateField(ctx, id, req.Field, req.Value)
	if err != nil {
		return ItemState{}, fmt.Errorf("update field: %w", err)
	}

	return confirmRow(prior, *confirmed), nil
}

// handleDelete removes the item from the display immediately and from
// both authoritative lists once the backend confirms. A missing ID on
// the backend fails the action and rolls the display back.
func (m *Manager) handleDelete(ctx context.Context, prior ItemState, req form.Delete) (ItemState, error) {
	id, err := parseID(req.ID)
	if err != nil {
		return ItemState{}, err
	}

	m.beginOptimistic(removeByID(prior.display(), id))

	if err := m.client.Delete(ctx, id); err != nil {
		return ItemState{}, fmt.Errorf("delete item: %w", err)
	}

	next := ItemState{
		All:     removeByID(prior.All, id),
		Keyword: prior.Keyword,
	}
	if prior.Filtered != nil {
		next.Filtered = removeByID(prior.Filtered, id)
	}

	m.logger.Debug("item deleted", zap.Int64("id", id))
	return next, nil
}

// confirmRow builds the next state with the server-confirmed row
// replacing its predecessor in both lists. The backend may have
// normalized fields beyond the one edited, so the whole row is taken.
func confirmRow(prior ItemState, confirmed model.Item) ItemState {
	next := ItemState{
		All:     replaceByID(prior.All, confirmed),
		Keyword: prior.Keyword,
	}
	if prior.Filtered != nil {
		next.Filtered = replaceByID(prior.Filtered, confirmed)
	}
	return next
}

// applyField sets one mutable attribute on an item, clearing optional
// fields on empty input.
func applyField(item *model.Item, field, value string) {
	switch field {
	case model.FieldTitle:
		item.Title = value
	case model.FieldAuthor:
		item.Author = model.OptionalString(value)
	case model.FieldImage:
		item.Image = model.OptionalString(value)
	case model.FieldFormat:
		item.Format = model.OptionalString(value)
	}
}

// parseID coerces a form ID value, rejecting anything that is not a
// positive integer.
func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}
	return id, nil
}
