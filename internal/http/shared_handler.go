package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stevnathans/hustlecare-sub000/internal/cart"
	"github.com/stevnathans/hustlecare-sub000/internal/export"
	"github.com/stevnathans/hustlecare-sub000/internal/grouping"
	"github.com/stevnathans/hustlecare-sub000/internal/snapshot"
)

// sharedView is the read-only projection of a snapshot. Quantity edits on the
// shared page are viewer-local; the server only ever sees them as ephemeral
// export overrides.
type sharedView struct {
	ListID       string                   `json:"listId"`
	Name         string                   `json:"name"`
	BusinessName string                   `json:"businessName,omitempty"`
	Items        []cart.LineItem          `json:"items"`
	Groups       []grouping.CategoryGroup `json:"groups"`
	TotalCost    float64                  `json:"totalCost"`
	TotalItems   int                      `json:"totalItems"`
	ShareURL     string                   `json:"shareUrl"`
	CreatedAt    time.Time                `json:"createdAt"`
}

func (h *ListHandler) GetShared(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "listId")
	if listID == "" {
		writeError(w, http.StatusBadRequest, "missing listId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	list, err := h.repo.Get(ctx, listID)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			writeError(w, http.StatusNotFound, "list not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load list")
		return
	}

	items := list.Items
	if items == nil {
		items = []cart.LineItem{}
	}
	writeJSON(w, http.StatusOK, sharedView{
		ListID:       list.ID,
		Name:         list.Name,
		BusinessName: list.BusinessName,
		Items:        items,
		Groups:       grouping.Group(items),
		TotalCost:    list.TotalCost,
		TotalItems:   cart.TotalItems(items),
		ShareURL:     h.shareURL(list.ID),
		CreatedAt:    list.CreatedAt,
	})
}

// ExportShared renders a snapshot as PDF. The optional quantities map applies
// the viewer's local edits to this export only; nothing is written back.
func (h *ListHandler) ExportShared(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "listId")
	if listID == "" {
		writeError(w, http.StatusBadRequest, "missing listId")
		return
	}

	var body struct {
		Quantities map[int64]int `json:"quantities"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	list, err := h.repo.Get(ctx, listID)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			writeError(w, http.StatusNotFound, "list not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load list")
		return
	}

	items := snapshot.PreviewItems(list, body.Quantities)
	if len(items) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "cannot export an empty list")
		return
	}

	h.servePDF(w, export.Document{
		Name:         list.Name,
		BusinessName: list.BusinessName,
		GeneratedAt:  time.Now(),
		Items:        items,
		Groups:       grouping.Group(items),
	})
}
