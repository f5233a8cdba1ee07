package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"policymitr-client/internal/documents"
	"policymitr-client/internal/models"
)

type documentBackend interface {
	ListDocuments(ctx context.Context) ([]models.Document, error)
	GetDocument(ctx context.Context, id string) (*models.DocumentDetail, error)
}

type DocumentHandler struct {
	backend documentBackend
}

func NewDocumentHandler(backend documentBackend) *DocumentHandler {
	return &DocumentHandler{backend: backend}
}

// List returns the user's documents, optionally filtered by bookmark state
// (?filter=) and a title/category search (?q=).
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	bookmarks, err := documents.ParseBookmarks(r.URL.Query().Get("filter"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", err.Error(), r))
		return
	}

	docs, err := h.backend.ListDocuments(r.Context())
	if err != nil {
		handleBackendError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"documents": documents.Filter(docs, bookmarks, r.URL.Query().Get("q")),
		"total":     len(docs),
	})
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.backend.GetDocument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleBackendError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"document":           doc,
		"confidence_percent": doc.ConfidencePercent(),
		"difficulty_level":   doc.DifficultyLevel(),
	})
}
