package api

import (
	"net/http"

	"github.com/erazemk/nfsee/internal/model"
	"github.com/erazemk/nfsee/internal/repo"
)

// ContainersHandler handles container CRUD endpoints.
type ContainersHandler struct {
	Repo repo.Repository
}

type containerRequest struct {
	Name          string `json:"name"`
	LocationLabel string `json:"location_label"`
}

// List handles GET /api/containers.
func (h *ContainersHandler) List(w http.ResponseWriter, r *http.Request) {
	feed, err := h.Repo.ListContainers(r.Context())
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list containers")
		return
	}
	containers, err := snapshot(feed)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to list containers")
		return
	}
	if containers == nil {
		containers = []model.Container{}
	}
	jsonResponse(w, http.StatusOK, containers)
}

// Create handles POST /api/containers. An empty name gets the placeholder.
func (h *ContainersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req containerRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		req.Name = model.DefaultContainerName
	}

	c, err := h.Repo.InsertContainer(r.Context(), model.Container{
		Name:          req.Name,
		LocationLabel: req.LocationLabel,
		CreatedAt:     h.Repo.Now(),
	})
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to create container")
		return
	}
	jsonResponse(w, http.StatusCreated, c)
}

// Get handles GET /api/containers/{id}.
func (h *ContainersHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := loadContainer(w, r, h.Repo)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, c)
}

// Update handles PUT /api/containers/{id}.
func (h *ContainersHandler) Update(w http.ResponseWriter, r *http.Request) {
	c, ok := loadContainer(w, r, h.Repo)
	if !ok {
		return
	}

	var req containerRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	c.Name = req.Name
	c.LocationLabel = req.LocationLabel

	if err := h.Repo.UpdateContainer(r.Context(), *c); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to update container")
		return
	}
	jsonResponse(w, http.StatusOK, c)
}

// Delete handles DELETE /api/containers/{id}. The container's items are
// deleted with it.
func (h *ContainersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c, ok := loadContainer(w, r, h.Repo)
	if !ok {
		return
	}
	if err := h.Repo.DeleteContainer(r.Context(), *c); err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to delete container")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// loadContainer fetches the container named by the path, writing the error
// response when there is none.
func loadContainer(w http.ResponseWriter, r *http.Request, rp repo.Repository) (*model.Container, bool) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid container id")
		return nil, false
	}
	c, err := rp.GetContainer(r.Context(), id)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to get container")
		return nil, false
	}
	if c == nil {
		jsonError(w, http.StatusNotFound, "container not found")
		return nil, false
	}
	return c, true
}
