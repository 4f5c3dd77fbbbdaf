package session

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/pysugar/nexus-console/internal/db/models"
)

// Page is the session detail view: the selected request plus one page of the
// session's request list.
type Page struct {
	Details  *models.SessionDetails
	Requests *models.SessionRequestPage
}

// Loader fetches everything the session page shows.
type Loader struct {
	Source   Source
	PageSize int
	Order    string
}

// Load fetches the details and the request list concurrently. The first error
// cancels the other fetch.
func (l Loader) Load(ctx context.Context, sessionID string, sequence *int, page int) (*Page, error) {
	g, ctx := errgroup.WithContext(ctx)

	var out Page
	g.Go(func() error {
		d, err := l.Source.GetSessionDetails(ctx, sessionID, sequence)
		if err != nil {
			return fmt.Errorf("session details: %w", err)
		}
		out.Details = d
		return nil
	})
	g.Go(func() error {
		reqs, err := l.Source.GetSessionRequests(ctx, sessionID, page, l.PageSize, l.Order)
		if err != nil {
			return fmt.Errorf("session requests: %w", err)
		}
		out.Requests = reqs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}
