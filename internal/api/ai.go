package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"policymitr-client/internal/models"
)

// OfflineMarker is how older backends flag keyword-search answers inside the
// answer text. It is normalized away here so nothing above this package
// matches on it.
const OfflineMarker = "*(AI Offline Mode)*"

// Chat asks a question, scoped to documentID when it is non-empty.
func (c *Client) Chat(ctx context.Context, query, documentID string) (*models.ChatResponse, error) {
	req := models.ChatRequest{Query: query}
	if documentID != "" {
		req.PolicyID = &documentID
	}

	var resp models.ChatResponse
	if err := c.doJSON(ctx, http.MethodPost, "/ai/chat", req, &resp); err != nil {
		return nil, err
	}
	normalizeChat(&resp)
	return &resp, nil
}

func normalizeChat(resp *models.ChatResponse) {
	if strings.EqualFold(resp.Mode, "offline") {
		resp.Offline = true
	}
	if strings.Contains(resp.Answer, OfflineMarker) {
		resp.Offline = true
		resp.Answer = strings.TrimSpace(strings.ReplaceAll(resp.Answer, OfflineMarker, ""))
	}
}

func (c *Client) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	var resp models.TranslateResponse
	err := c.doJSON(ctx, http.MethodPost, "/ai/translate", models.TranslateRequest{
		Text:           text,
		TargetLanguage: targetLanguage,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.TranslatedText, nil
}

// SynthesizeSpeech returns the encoded audio (audio/mpeg) for text.
func (c *Client) SynthesizeSpeech(ctx context.Context, text, language string) ([]byte, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/ai/tts", models.SpeechRequest{Text: text, Language: language})
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "audio/mpeg")

	httpResp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	audio, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("backend returned an empty audio payload")
	}
	return audio, nil
}

func (c *Client) Recommendations(ctx context.Context, documentID string) ([]string, error) {
	var recs []string
	if err := c.doJSON(ctx, http.MethodGet, "/ai/recommendations/"+url.PathEscape(documentID), nil, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}
