package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pysugar/nexus-console/internal/db/models"
	"github.com/pysugar/nexus-console/internal/session"
	"github.com/pysugar/nexus-console/internal/util"
)

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

func seqQuery(sequence *int) url.Values {
	q := url.Values{}
	if sequence != nil {
		q.Set("seq", strconv.Itoa(*sequence))
	}
	return q
}

// GetSessionDetails fetches one request of a session. A nil sequence selects the latest.
func (c *Client) GetSessionDetails(ctx context.Context, sessionID string, sequence *int) (*models.SessionDetails, error) {
	var d models.SessionDetails
	if err := c.get(ctx, sessionPath(sessionID, ""), seqQuery(sequence), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) GetSessionRequests(ctx context.Context, sessionID string, page, pageSize int, order string) (*models.SessionRequestPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("pageSize", strconv.Itoa(pageSize))
	}
	if order != "" {
		q.Set("order", order)
	}
	var out models.SessionRequestPage
	if err := c.get(ctx, sessionPath(sessionID, "/requests"), q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) HasSessionMessages(ctx context.Context, sessionID string, sequence *int) (bool, error) {
	var out struct {
		HasMessages bool `json:"hasMessages"`
	}
	if err := c.get(ctx, sessionPath(sessionID, "/has-messages"), seqQuery(sequence), &out); err != nil {
		return false, err
	}
	return out.HasMessages, nil
}

// TerminateActiveSession releases a session's provider binding.
func (c *Client) TerminateActiveSession(ctx context.Context, sessionID string) error {
	return c.send(ctx, http.MethodPost, sessionPath(sessionID, "/terminate"), nil, nil)
}

// ExportSession downloads a captured payload as served for saving to disk. It
// returns the suggested file name and the indented JSON body.
func (c *Client) ExportSession(ctx context.Context, sessionID string, sequence *int, kind session.ExportKind) (string, []byte, error) {
	q := seqQuery(sequence)
	q.Set("kind", string(kind))

	resp, err := c.raw(ctx, http.MethodGet, sessionPath(sessionID, "/export"), q, nil)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("read export: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", nil, &APIError{StatusCode: resp.StatusCode, Message: util.TruncateBytes(body)}
	}

	seq := 0
	if sequence != nil {
		seq = *sequence
	}
	name := session.ExportFilename(sessionID, seq, kind)
	if n := resp.Header.Get(HeaderExportFilename); n != "" {
		name = n
	}
	return name, body, nil
}

// HeaderExportFilename carries the export file name, which includes the
// resolved sequence when none was requested.
const HeaderExportFilename = "X-Export-Filename"
