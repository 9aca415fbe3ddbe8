package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ymori/itemshelf/internal/auth"
	"github.com/ymori/itemshelf/internal/model"
	"github.com/ymori/itemshelf/internal/store"
)

// Version is the application version.
const Version = "1.0.0"

// RESTHandler handles REST API requests for items.
type RESTHandler struct {
	store  store.Store
	feed   *ChangeFeedHandler
	logger *zap.Logger
}

// NewRESTHandler creates a new RESTHandler instance. feed may be nil
// when no change feed is wired.
func NewRESTHandler(s store.Store, feed *ChangeFeedHandler, logger *zap.Logger) *RESTHandler {
	return &RESTHandler{
		store:  s,
		feed:   feed,
		logger: logger,
	}
}

// RegisterRoutes registers the REST API routes with the router.
func (h *RESTHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/ready", h.ReadyCheck).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/items", h.ListItems).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/items", h.CreateItem).Methods(http.MethodPost)
	router.HandleFunc("/api/v1/items/{id}", h.GetItem).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/items/{id}/point", h.UpdateItemPoint).Methods(http.MethodPut)
	router.HandleFunc("/api/v1/items/{id}", h.UpdateItemField).Methods(http.MethodPatch)
	router.HandleFunc("/api/v1/items/{id}", h.DeleteItem).Methods(http.MethodDelete)
}

// HealthCheck handles GET /health requests.
func (h *RESTHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	response := HealthResponse{
		Status:  "healthy",
		Version: Version,
	}
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(response))
}

// ReadyCheck handles GET /ready requests.
func (h *RESTHandler) ReadyCheck(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(ReadyResponse{Status: "ready"}))
}

// ListItems handles GET /api/v1/items requests. With a keyword query
// parameter it returns the case-insensitive substring matches across
// title and author; without one it returns everything. Both forms are
// ordered newest first.
func (h *RESTHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		items []model.Item
		err   error
	)
	if keyword := r.URL.Query().Get("keyword"); keyword != "" {
		items, err = h.store.Search(ctx, keyword)
	} else {
		items, err = h.store.List(ctx)
	}
	if err != nil {
		h.logger.Error("failed to list items", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to retrieve items")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(items))
}

// GetItem handles GET /api/v1/items/{id} requests.
func (h *RESTHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	item, err := h.store.Get(ctx, id)
	if err != nil {
		h.handleStoreError(w, err, "get item")
		return
	}

	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(item))
}

// createItemRequest is the POST /api/v1/items body.
type createItemRequest struct {
	Title  string  `json:"title"`
	Author *string `json:"author"`
	Image  *string `json:"image"`
	Format *string `json:"format"`
}

// CreateItem handles POST /api/v1/items requests. The created row is
// stamped with the authenticated subject so ownership can be enforced;
// with auth disabled the owner is empty.
func (h *RESTHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var input createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	newItem := model.Item{
		Title:  input.Title,
		Author: input.Author,
		Image:  input.Image,
		Format: input.Format,
	}
	if info, ok := auth.FromContext(ctx); ok {
		newItem.UserID = info.Subject
	}

	if err := newItem.Validate(); err != nil {
		h.logger.Warn("validation failed", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.store.Create(ctx, &newItem)
	if err != nil {
		h.handleStoreError(w, err, "create item")
		return
	}

	h.broadcast(model.ChangeTypeAdded, item.ID, item)
	h.writeJSON(w, http.StatusCreated, model.NewSuccessResponse(item))
}

// updatePointRequest is the PUT /api/v1/items/{id}/point body.
type updatePointRequest struct {
	Point int `json:"point"`
}

// UpdateItemPoint handles PUT /api/v1/items/{id}/point requests.
func (h *RESTHandler) UpdateItemPoint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var input updatePointRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.store.UpdatePoint(ctx, id, input.Point)
	if err != nil {
		if errors.Is(err, model.ErrInvalidPoint) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.handleStoreError(w, err, "update point")
		return
	}

	h.broadcast(model.ChangeTypeUpdated, item.ID, item)
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(item))
}

// updateFieldRequest is the PATCH /api/v1/items/{id} body. A null
// value clears an optional field.
type updateFieldRequest struct {
	Field string  `json:"field"`
	Value *string `json:"value"`
}

// UpdateItemField handles PATCH /api/v1/items/{id} requests.
func (h *RESTHandler) UpdateItemField(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var input updateFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.logger.Warn("invalid request body", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.store.UpdateField(ctx, id, input.Field, input.Value)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrEmptyTitle), errors.Is(err, store.ErrUnknownField):
			h.writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.handleStoreError(w, err, "update field")
		}
		return
	}

	h.broadcast(model.ChangeTypeUpdated, item.ID, item)
	h.writeJSON(w, http.StatusOK, model.NewSuccessResponse(item))
}

// DeleteItem handles DELETE /api/v1/items/{id} requests.
func (h *RESTHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(ctx, id); err != nil {
		h.handleStoreError(w, err, "delete item")
		return
	}

	h.broadcast(model.ChangeTypeDeleted, id, nil)
	h.writeJSON(w, http.StatusNoContent, nil)
}

// pathID parses the {id} path variable, writing a 400 on junk input.
func (h *RESTHandler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, http.StatusBadRequest, "invalid item ID")
		return 0, false
	}
	return id, true
}

// broadcast publishes a mutation to the change feed, if one is wired.
func (h *RESTHandler) broadcast(changeType string, id int64, item *model.Item) {
	if h.feed == nil {
		return
	}
	h.feed.Broadcast(model.NewChangeEvent(changeType, id, item))
}

// handleStoreError handles store errors and writes appropriate HTTP responses.
func (h *RESTHandler) handleStoreError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "item not found")
	case errors.Is(err, store.ErrInvalidID):
		h.writeError(w, http.StatusBadRequest, "invalid item ID")
	default:
		h.logger.Error("store operation failed", zap.String("operation", operation), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// writeJSON writes a JSON response with the given status code.
func (h *RESTHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError writes an error response with the given status code and message.
func (h *RESTHandler) writeError(w http.ResponseWriter, status int, message string) {
	response := model.ErrorResponse{
		Code:    status,
		Message: message,
	}
	h.writeJSON(w, status, response)
}
