package api

import (
	"context"
	"net/http"

	"policymitr-client/internal/models"
)

func (c *Client) Analytics(ctx context.Context) (*models.Analytics, error) {
	var a models.Analytics
	if err := c.doJSON(ctx, http.MethodGet, "/admin/analytics", nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
