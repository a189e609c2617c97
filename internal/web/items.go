package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/wardrobe/internal/catalog"
	"github.com/erazemk/wardrobe/internal/model"
)

// ItemsPage handles GET /items.
func (s *Server) ItemsPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	wardrobe := q.Get("wardrobe_id")
	if wardrobe == "" {
		wardrobe = model.WardrobeAll
	}
	category := q.Get("category")

	items, err := s.Service.List(r.Context(), model.ItemFilter{Wardrobe: wardrobe, Category: category})
	if err != nil {
		slog.Error("failed to list items", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.Templates.Render(w, "items.html", &struct {
		PageData
		Items            []model.Item
		SelectedWardrobe string
		SelectedCategory string
	}{
		PageData:         s.page(w, r, "Items"),
		Items:            items,
		SelectedWardrobe: wardrobe,
		SelectedCategory: category,
	})
}

type addItemData struct {
	PageData
	Form model.ItemFields
}

// AddItemPage handles GET /add_item.
func (s *Server) AddItemPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "add_item.html", &addItemData{PageData: s.page(w, r, "Add item")})
}

// AddItemSubmit handles POST /add_item.
func (s *Server) AddItemSubmit(w http.ResponseWriter, r *http.Request) {
	form, err := s.Service.ReadForm(w, r)
	if err != nil {
		s.addItemFailed(w, r, model.ItemFields{}, err)
		return
	}
	defer form.Close()

	fields := form.Fields()
	photo, err := form.Photo()
	if err != nil {
		s.addItemFailed(w, r, fields, err)
		return
	}

	item, err := s.Service.Create(r.Context(), fields, photo)
	if err != nil {
		s.addItemFailed(w, r, fields, err)
		return
	}

	slog.Info("item created", "item_id", item.ID, "name", item.Name)
	setFlash(w, FlashSuccess, fmt.Sprintf("Added %s.", item.Name))
	http.Redirect(w, r, "/items", http.StatusSeeOther)
}

// addItemFailed shows the add form again for invalid input.
func (s *Server) addItemFailed(w http.ResponseWriter, r *http.Request, fields model.ItemFields, err error) {
	if !errors.Is(err, catalog.ErrInvalidInput) {
		slog.Error("failed to create item", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	data := &addItemData{PageData: s.page(w, r, "Add item"), Form: fields}
	data.Error = err.Error()
	s.Templates.RenderStatus(w, http.StatusBadRequest, "add_item.html", data)
}

// EditItemPage handles GET /edit_item/{id}.
func (s *Server) EditItemPage(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r)
	if !ok {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}

	item, err := s.Service.Get(r.Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("failed to get item", "item_id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.Templates.Render(w, "edit_item.html", &struct {
		PageData
		Item *model.Item
	}{
		PageData: s.page(w, r, item.Name),
		Item:     item,
	})
}

// EditItemSubmit handles POST /edit_item/{id}.
func (s *Server) EditItemSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r)
	if !ok {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}
	editURL := fmt.Sprintf("/edit_item/%d", id)

	form, err := s.Service.ReadForm(w, r)
	if err != nil {
		setFlash(w, FlashDanger, err.Error())
		http.Redirect(w, r, editURL, http.StatusSeeOther)
		return
	}
	defer form.Close()

	photo, err := form.Photo()
	if err != nil {
		setFlash(w, FlashDanger, err.Error())
		http.Redirect(w, r, editURL, http.StatusSeeOther)
		return
	}

	item, err := s.Service.Update(r.Context(), id, form.Patch(), photo)
	switch {
	case err == nil:
		slog.Info("item updated", "item_id", id)
		setFlash(w, FlashSuccess, fmt.Sprintf("Updated %s.", item.Name))
		http.Redirect(w, r, "/items", http.StatusSeeOther)
	case errors.Is(err, catalog.ErrNotFound):
		http.Error(w, "item not found", http.StatusNotFound)
	case errors.Is(err, catalog.ErrInvalidInput):
		setFlash(w, FlashDanger, err.Error())
		http.Redirect(w, r, editURL, http.StatusSeeOther)
	default:
		slog.Error("failed to update item", "item_id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// DeleteItemSubmit handles POST /delete_item/{id}.
func (s *Server) DeleteItemSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r)
	if !ok {
		setFlash(w, FlashWarning, "Item not found.")
		http.Redirect(w, r, "/items", http.StatusSeeOther)
		return
	}

	err := s.Service.Delete(r.Context(), id)
	switch {
	case err == nil:
		slog.Info("item deleted", "item_id", id)
		setFlash(w, FlashSuccess, "Deleted.")
	case errors.Is(err, catalog.ErrNotFound):
		setFlash(w, FlashWarning, "Item not found.")
	default:
		slog.Error("failed to delete item", "item_id", id, "error", err)
		setFlash(w, FlashDanger, "Delete failed.")
	}
	http.Redirect(w, r, "/items", http.StatusSeeOther)
}

// itemID reads the {id} path value; only positive integers can name an item.
func itemID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
