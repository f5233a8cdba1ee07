package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"policymitr-client/internal/models"
)

func (c *Client) ListDocuments(ctx context.Context) ([]models.Document, error) {
	var docs []models.Document
	if err := c.doJSON(ctx, http.MethodGet, "/policies/", nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *Client) GetDocument(ctx context.Context, id string) (*models.DocumentDetail, error) {
	var doc models.DocumentDetail
	if err := c.doJSON(ctx, http.MethodGet, "/policies/"+url.PathEscape(id), nil, &doc); err != nil {
		return nil, err
	}
	if doc.ID == "" {
		doc.ID = id
	}
	return &doc, nil
}

func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/policies/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ToggleBookmark(ctx context.Context, id string) (*models.BookmarkResponse, error) {
	var resp models.BookmarkResponse
	if err := c.doJSON(ctx, http.MethodPost, "/policies/"+url.PathEscape(id)+"/bookmark", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CompareDocuments(ctx context.Context, idA, idB string) (*models.Comparison, error) {
	var resp models.Comparison
	err := c.doJSON(ctx, http.MethodPost, "/policies/compare", models.CompareRequest{PolicyIDA: idA, PolicyIDB: idB}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadDocument sends the file as multipart form data. The backend runs
// extraction and analysis synchronously, so this can take up to the client
// timeout.
func (c *Client) UploadDocument(ctx context.Context, in models.UploadRequest) (*models.DocumentDetail, error) {
	f, err := os.Open(in.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(in.FilePath))
	if err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	language := in.Language
	if language == "" {
		language = "en"
	}
	mw.WriteField("title", in.Title)
	mw.WriteField("language", language)
	mw.WriteField("privacy_mode", strconv.FormatBool(in.PrivacyMode))
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/policies/upload", &buf, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var doc models.DocumentDetail
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	return &doc, nil
}
