package client

import (
	"context"
	"net/http"
	"strconv"

	"github.com/pysugar/nexus-console/internal/db/models"
)

func providerPath(id int64, suffix string) string {
	return "/api/providers/" + strconv.FormatInt(id, 10) + suffix
}

// ListProviders returns every provider with its key masked.
func (c *Client) ListProviders(ctx context.Context) ([]models.Provider, error) {
	var out []models.Provider
	if err := c.get(ctx, "/api/providers", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddProvider(ctx context.Context, p models.Provider) (*models.Provider, error) {
	var out models.Provider
	if err := c.send(ctx, http.MethodPost, "/api/providers", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EditProvider replaces provider id. An empty key keeps the stored one.
func (c *Client) EditProvider(ctx context.Context, id int64, p models.Provider) (*models.Provider, error) {
	var out models.Provider
	if err := c.send(ctx, http.MethodPut, providerPath(id, ""), p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveProvider(ctx context.Context, id int64) error {
	return c.send(ctx, http.MethodDelete, providerPath(id, ""), nil, nil)
}

// GetUnmaskedProviderKey returns the stored key in clear text.
func (c *Client) GetUnmaskedProviderKey(ctx context.Context, id int64) (string, error) {
	var out struct {
		Key string `json:"key"`
	}
	if err := c.get(ctx, providerPath(id, "/key"), nil, &out); err != nil {
		return "", err
	}
	return out.Key, nil
}

func (c *Client) ResetProviderCircuit(ctx context.Context, id int64) error {
	return c.send(ctx, http.MethodPost, providerPath(id, "/reset-circuit"), nil, nil)
}

func (c *Client) ResetProviderTotalUsage(ctx context.Context, id int64) error {
	return c.send(ctx, http.MethodPost, providerPath(id, "/reset-usage"), nil, nil)
}
