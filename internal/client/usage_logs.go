package client

import (
	"context"
	"net/http"
	"strconv"

	"github.com/pysugar/nexus-console/internal/db/models"
	"github.com/pysugar/nexus-console/internal/logfilter"
)

// GetUsageLogs fetches one page of the filtered usage-log list.
func (c *Client) GetUsageLogs(ctx context.Context, f logfilter.Filters) (*models.UsageLogPage, error) {
	var page models.UsageLogPage
	if err := c.get(ctx, "/api/usage-logs", f.Values(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetUsageLogTrace fetches the decision-chain view of one usage log.
func (c *Client) GetUsageLogTrace(ctx context.Context, id int64) (*models.UsageLogTrace, error) {
	var trace models.UsageLogTrace
	if err := c.get(ctx, "/api/usage-logs/"+strconv.FormatInt(id, 10)+"/trace", nil, &trace); err != nil {
		return nil, err
	}
	return &trace, nil
}

func (c *Client) GetUsageStats(ctx context.Context) (*models.UsageStats, error) {
	var stats models.UsageStats
	if err := c.get(ctx, "/api/usage-logs/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// IngestUsageLog records a finished gateway request.
func (c *Client) IngestUsageLog(ctx context.Context, in models.UsageIngest) (*models.UsageLog, error) {
	var stored models.UsageLog
	if err := c.send(ctx, http.MethodPost, "/api/usage-logs", in, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

func (c *Client) ClearUsageLogs(ctx context.Context) error {
	return c.send(ctx, http.MethodDelete, "/api/usage-logs", nil, nil)
}
