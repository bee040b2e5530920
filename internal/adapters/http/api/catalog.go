package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// CatalogHandler serves catalog and object lookups.
type CatalogHandler struct {
	deps Dependencies
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(deps Dependencies) *CatalogHandler {
	return &CatalogHandler{deps: deps}
}

type catalogResponse struct {
	Source  string     `json:"source"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

type keyResponse struct {
	TrainID int64  `json:"train_id"`
	Key     string `json:"key"`
}

// HandleIDs handles GET /ids.
func (h *CatalogHandler) HandleIDs(w http.ResponseWriter, r *http.Request) {
	ids, err := h.deps.IDs(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, ids)
}

// HandleCatalog handles GET /catalogs/{source}.
func (h *CatalogHandler) HandleCatalog(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	t, err := h.deps.Catalog(r.Context(), source)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, catalogResponse{Source: source, Columns: t.Header, Rows: t.Rows})
}

// HandleCatalogMeta handles GET /catalogs/{source}/meta.
func (h *CatalogHandler) HandleCatalogMeta(w http.ResponseWriter, r *http.Request) {
	meta, err := h.deps.CatalogMeta(r.Context(), chi.URLParam(r, "source"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, meta)
}

// HandleObject handles GET /objects/{id}.
func (h *CatalogHandler) HandleObject(w http.ResponseWriter, r *http.Request) {
	id, err := objectID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	rec, err := h.deps.Object(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rec)
}

// HandleLightCurveKey handles GET /objects/{id}/lightcurve-key.
func (h *CatalogHandler) HandleLightCurveKey(w http.ResponseWriter, r *http.Request) {
	id, err := objectID(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	key, err := h.deps.LightCurveKey(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, keyResponse{TrainID: id, Key: key})
}
