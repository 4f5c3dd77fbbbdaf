package client

import (
	"context"
	"net/http"
	"strconv"

	"github.com/pysugar/nexus-console/internal/db/models"
)

func filterPath(id int64) string {
	return "/api/request-filters/" + strconv.FormatInt(id, 10)
}

func (c *Client) ListRequestFilters(ctx context.Context) ([]models.RequestFilter, error) {
	var out []models.RequestFilter
	if err := c.get(ctx, "/api/request-filters", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateRequestFilter(ctx context.Context, f models.RequestFilter) (*models.RequestFilter, error) {
	var out models.RequestFilter
	if err := c.send(ctx, http.MethodPost, "/api/request-filters", f, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateRequestFilter(ctx context.Context, id int64, f models.RequestFilter) (*models.RequestFilter, error) {
	var out models.RequestFilter
	if err := c.send(ctx, http.MethodPut, filterPath(id), f, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteRequestFilter(ctx context.Context, id int64) error {
	return c.send(ctx, http.MethodDelete, filterPath(id), nil, nil)
}

// RefreshRequestFiltersCache reloads the server's filter cache and returns how
// many enabled filters it now holds.
func (c *Client) RefreshRequestFiltersCache(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := c.send(ctx, http.MethodPost, "/api/request-filters/refresh", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// ListProvidersForFilter returns the providers a filter can be bound to.
func (c *Client) ListProvidersForFilter(ctx context.Context) ([]models.ProviderOption, error) {
	var out []models.ProviderOption
	if err := c.get(ctx, "/api/request-filters/providers", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetDistinctProviderGroups(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.get(ctx, "/api/request-filters/groups", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
