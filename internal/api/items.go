package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/erazemk/wardrobe/internal/catalog"
	"github.com/erazemk/wardrobe/internal/model"
)

// ItemsHandler handles the item endpoints.
type ItemsHandler struct {
	Service *catalog.Service
}

// itemResponse is a confirmation message with the item's fields inlined.
type itemResponse struct {
	Message string `json:"message"`
	*model.Item
}

// parseID reads the {id} path value. No item has an id that is not a
// positive integer, so those are reported as not found.
func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", catalog.ErrNotFound, r.PathValue("id"))
	}
	return id, nil
}

// List handles GET /wardrobe.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.ItemFilter{
		Wardrobe: q.Get("wardrobe_id"),
		Category: q.Get("category"),
	}

	items, err := h.Service.List(r.Context(), filter)
	if err != nil {
		catalogError(w, r, err)
		return
	}

	summaries := make([]model.ItemSummary, 0, len(items))
	for i := range items {
		summaries = append(summaries, items[i].Summary())
	}
	jsonResponse(w, http.StatusOK, summaries)
}

// Create handles POST /add.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	form, err := h.Service.ReadForm(w, r)
	if err != nil {
		catalogError(w, r, err)
		return
	}
	defer form.Close()

	photo, err := form.Photo()
	if err != nil {
		catalogError(w, r, err)
		return
	}

	item, err := h.Service.Create(r.Context(), form.Fields(), photo)
	if err != nil {
		catalogError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, itemResponse{Message: "item added", Item: item})
}

// Get handles GET /data/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		catalogError(w, r, err)
		return
	}

	item, err := h.Service.Get(r.Context(), id)
	if err != nil {
		catalogError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /update/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		catalogError(w, r, err)
		return
	}

	form, err := h.Service.ReadForm(w, r)
	if err != nil {
		catalogError(w, r, err)
		return
	}
	defer form.Close()

	photo, err := form.Photo()
	if err != nil {
		catalogError(w, r, err)
		return
	}

	item, err := h.Service.Update(r.Context(), id, form.Patch(), photo)
	if item != nil && errors.Is(err, catalog.ErrInvalidInput) {
		// Fields were saved but the photo was rejected.
		jsonResponse(w, http.StatusBadRequest, itemResponse{Message: err.Error(), Item: item})
		return
	}
	if err != nil {
		catalogError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, itemResponse{Message: "item updated", Item: item})
}

// Delete handles DELETE /delete/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		catalogError(w, r, err)
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		catalogError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// Health handles GET /healthz.
func (h *ItemsHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Ping(r.Context()); err != nil {
		catalogError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
