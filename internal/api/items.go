package api

import (
	"net/http"
	"net/url"

	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// ItemsHandler handles item CRUD and search endpoints.
type ItemsHandler struct {
	Store store.Store
}

// decodeItem decodes and validates an item payload.
func decodeItem(w http.ResponseWriter, r *http.Request) (model.Item, error) {
	var item model.Item
	if err := decodeJSON(w, r, &item); err != nil {
		return model.Item{}, err
	}
	if err := item.Validate(); err != nil {
		return model.Item{}, err
	}
	return item, nil
}

// Create handles POST /items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	item, err := decodeItem(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := h.Store.Create(r.Context(), item)
	if err != nil {
		writeError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusCreated, created)
}

// Get handles GET /items/{item_code}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.Store.Get(r.Context(), r.PathValue("item_code"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /items/{item_code}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	item, err := decodeItem(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := h.Store.Update(r.Context(), r.PathValue("item_code"), item)
	if err != nil {
		writeError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /items/{item_code}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Delete(r.Context(), r.PathValue("item_code")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /items/search/.
func (h *ItemsHandler) Search(w http.ResponseWriter, r *http.Request) {
	filter, err := parseSearchFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}

	items, err := h.Store.Search(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// parseSearchFilter reads the name, procurement_date and expiry_date query
// parameters. Empty values are treated as absent.
func parseSearchFilter(q url.Values) (model.SearchFilter, error) {
	var filter model.SearchFilter

	if name := q.Get("name"); name != "" {
		filter.Name = &name
	}

	for _, p := range []struct {
		key  string
		dest **model.Date
	}{
		{"procurement_date", &filter.ProcurementDate},
		{"expiry_date", &filter.ExpiryDate},
	} {
		v := q.Get(p.key)
		if v == "" {
			continue
		}
		d, err := model.ParseDate(v)
		if err != nil {
			return model.SearchFilter{}, &model.ValidationError{Field: p.key, Reason: "must be a YYYY-MM-DD date"}
		}
		*p.dest = &d
	}

	return filter, nil
}
