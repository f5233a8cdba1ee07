package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"policymitr-client/internal/api"
	"policymitr-client/internal/models"
)

type stubDocuments struct {
	docs   []models.Document
	detail *models.DocumentDetail
	err    error
	lastID string
}

func (s *stubDocuments) ListDocuments(ctx context.Context) ([]models.Document, error) {
	return s.docs, s.err
}

func (s *stubDocuments) GetDocument(ctx context.Context, id string) (*models.DocumentDetail, error) {
	s.lastID = id
	if s.err != nil {
		return nil, s.err
	}
	return s.detail, nil
}

func TestDocumentHandler_List(t *testing.T) {
	backend := &stubDocuments{docs: []models.Document{
		{ID: "1", Title: "PM Awas Yojana", Category: "Housing", IsBookmarked: true},
		{ID: "2", Title: "MGNREGA", Category: "Employment"},
	}}
	h := NewDocumentHandler(backend)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents?filter=bookmarked&q=awas", nil)
	rr := httptest.NewRecorder()
	h.List(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var body struct {
		Documents []models.Document `json:"documents"`
		Total     int               `json:"total"`
	}
	json.NewDecoder(rr.Body).Decode(&body)
	if len(body.Documents) != 1 || body.Documents[0].ID != "1" || body.Total != 2 {
		t.Errorf("Unexpected body %+v", body)
	}
}

func TestDocumentHandler_List_BadFilter(t *testing.T) {
	h := NewDocumentHandler(&stubDocuments{})
	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/api/v1/documents?filter=starred", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestDocumentHandler_Get(t *testing.T) {
	tests := []struct {
		name       string
		backend    *stubDocuments
		wantStatus int
	}{
		{"found", &stubDocuments{detail: &models.DocumentDetail{ID: "p1", DifficultyScore: 75, AIConfidence: 0.9}}, http.StatusOK},
		{"not found", &stubDocuments{err: &api.Error{StatusCode: 404, Message: "Policy not found"}}, http.StatusNotFound},
		{"backend down", &stubDocuments{err: errors.New("connection refused")}, http.StatusBadGateway},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewDocumentHandler(tc.backend)

			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", "p1")
			req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/p1", nil)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			rr := httptest.NewRecorder()
			h.Get(rr, req)

			if rr.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rr.Code)
			}
			if tc.backend.lastID != "p1" {
				t.Errorf("Expected id p1 passed to backend, got %q", tc.backend.lastID)
			}
			if tc.wantStatus != http.StatusOK {
				return
			}
			var body map[string]interface{}
			json.NewDecoder(rr.Body).Decode(&body)
			if body["difficulty_level"] != "hard" || body["confidence_percent"] != float64(90) {
				t.Errorf("Unexpected body %v", body)
			}
		})
	}
}
