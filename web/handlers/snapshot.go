package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/scrypster/persona/internal/notify"
	"github.com/scrypster/persona/internal/store"
)

// maxImportBytes bounds the snapshot upload size.
const maxImportBytes = 10 << 20

// ExportSnapshot handles GET /api/snapshot/export - download the full
// profile/memories/config snapshot as JSON.
func (h *APIHandlers) ExportSnapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Disposition", `attachment; filename="persona-snapshot.json"`)
	respondJSON(w, http.StatusOK, h.snapshot.ExportAll())
}

// ImportSnapshot handles POST /api/snapshot/import - restore state from an
// uploaded snapshot. The snapshot is validated in full before anything is
// applied; a rejected import leaves current state untouched.
func (h *APIHandlers) ImportSnapshot(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read request body", err)
		return
	}

	if err := h.snapshot.ImportJSON(data); err != nil {
		if errors.Is(err, store.ErrInvalidInput) {
			respondError(w, http.StatusBadRequest, "invalid snapshot", err)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to import snapshot", err)
		return
	}

	h.notifyChange(notify.EventImported, "snapshot")
	respondJSON(w, http.StatusOK, ImportResponse{Message: "snapshot imported"})
}
