package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/erazemk/nfsee/internal/model"
	"github.com/erazemk/nfsee/internal/repo"
	"github.com/erazemk/nfsee/internal/store"
)

// ItemsHandler handles item CRUD and toggle endpoints.
type ItemsHandler struct {
	Repo repo.Repository
}

type createItemRequest struct {
	Name        string       `json:"name"`
	Category    string       `json:"category"`
	Status      model.Status `json:"status" validate:"omitempty,oneof=IN OUT REMOVED"`
	ContainerID int64        `json:"container_id" validate:"required"`
}

type updateItemRequest struct {
	Name        string       `json:"name"`
	Category    string       `json:"category"`
	Status      model.Status `json:"status" validate:"required,oneof=IN OUT REMOVED"`
	ContainerID int64        `json:"container_id" validate:"required"`
}

// itemResponse is an item with its indicator evaluated at response time.
type itemResponse struct {
	model.Item
	Indicator model.Indicator `json:"indicator"`
}

func newItemResponse(item model.Item, now time.Time) itemResponse {
	return itemResponse{Item: item, Indicator: item.Indicator(now)}
}

// List handles GET /api/containers/{id}/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	c, ok := loadContainer(w, r, h.Repo)
	if !ok {
		return
	}

	feed, err := h.Repo.ListItems(r.Context(), c.ID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	items, err := snapshot(feed)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}

	now := h.Repo.Now()
	resp := make([]itemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, newItemResponse(item, now))
	}
	jsonResponse(w, http.StatusOK, resp)
}

// Create handles POST /api/items. An empty name gets the placeholder and an
// empty status means IN.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		req.Name = model.DefaultItemName
	}

	item, err := h.Repo.InsertItem(r.Context(), model.Item{
		Name:        req.Name,
		Category:    req.Category,
		Status:      req.Status,
		ContainerID: req.ContainerID,
	})
	if err != nil {
		writeItemError(w, err, "failed to create item")
		return
	}
	jsonResponse(w, http.StatusCreated, newItemResponse(*item, h.Repo.Now()))
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, ok := h.load(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, newItemResponse(*item, h.Repo.Now()))
}

// Update handles PUT /api/items/{id}. Moving an item to OUT stamps it with
// the current time; an item that stays OUT keeps its stamp.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	item, ok := h.load(w, r)
	if !ok {
		return
	}

	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := h.Repo.Now()
	switch {
	case req.Status != model.StatusOut:
		item.MarkedOutAt = nil
	case item.Status != model.StatusOut:
		item.MarkedOutAt = &now
	}
	item.Name = req.Name
	item.Category = req.Category
	item.Status = req.Status
	item.ContainerID = req.ContainerID

	if err := h.Repo.UpdateItem(r.Context(), *item); err != nil {
		writeItemError(w, err, "failed to update item")
		return
	}
	jsonResponse(w, http.StatusOK, newItemResponse(*item, now))
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	item, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.Repo.DeleteItem(r.Context(), *item); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Toggle handles POST /api/items/{id}/toggle.
func (h *ItemsHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := h.Repo.ToggleItem(r.Context(), id)
	if err != nil {
		writeItemError(w, err, "failed to toggle item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, newItemResponse(*item, h.Repo.Now()))
}

func (h *ItemsHandler) load(w http.ResponseWriter, r *http.Request) (*model.Item, bool) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return nil, false
	}
	item, err := h.Repo.GetItem(r.Context(), id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return nil, false
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return nil, false
	}
	return item, true
}

// writeItemError maps expected item errors to client errors and everything
// else to a 500 with fallback as the message.
func writeItemError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, store.ErrInvalidContainer):
		jsonError(w, http.StatusUnprocessableEntity, "container does not exist")
	case errors.Is(err, store.ErrInvalidStatus):
		jsonError(w, http.StatusBadRequest, "invalid item status")
	case errors.Is(err, store.ErrNotToggleable):
		jsonError(w, http.StatusConflict, "only IN and OUT items can be toggled")
	default:
		jsonError(w, http.StatusInternalServerError, fallback)
	}
}
