// Package timeline collects the recent window of a paginated, newest-first
// timeline.
package timeline

import (
	"context"
	"fmt"
	"time"

	"github.com/streamspigot/mastofeeder/config"
	"github.com/streamspigot/mastofeeder/internal/common"
	"github.com/streamspigot/mastofeeder/pkg/mastodon"
	"github.com/streamspigot/mastofeeder/pkg/xcontext"
)

// PageSource returns up to limit statuses strictly older than maxID, newest
// first. An empty maxID asks for the newest page.
type PageSource func(ctx context.Context, maxID string, limit int) ([]mastodon.Status, error)

type Options struct {
	// Debug fetches a single short page.
	Debug bool

	// Name labels the timeline in metrics.
	Name string
}

type Aggregator struct {
	window         time.Duration
	pageLimit      int
	debugPageLimit int
	maxPages       int
	now            func() time.Time
}

func NewAggregator(cfg config.TimelineConfigs) *Aggregator {
	return &Aggregator{
		window:         cfg.Window,
		pageLimit:      cfg.PageLimit,
		debugPageLimit: cfg.DebugPageLimit,
		maxPages:       cfg.MaxPages,
		now:            time.Now,
	}
}

// Fetch pages backwards until a page contributes nothing new. A page
// contributes a status when it was created inside the window and has not been
// seen yet; servers that ignore the cursor and repeat a page therefore end the
// loop on the second request. Statuses keep fetch order.
func (a *Aggregator) Fetch(ctx context.Context, source PageSource, opts Options) ([]mastodon.Status, error) {
	limit := a.pageLimit
	if opts.Debug {
		limit = a.debugPageLimit
	}

	cutoff := a.now().Add(-a.window)
	seen := map[string]struct{}{}
	result := []mastodon.Status{}
	cursor := ""

	for page := 0; page < a.maxPages; page++ {
		statuses, err := source(ctx, cursor, limit)
		if err != nil {
			return nil, fmt.Errorf("cannot fetch page %d: %w", page+1, err)
		}
		common.PromCounters[common.TimelinePagesFetched].WithLabelValues(opts.Name).Inc()

		var fresh []mastodon.Status
		for _, status := range statuses {
			if status.CreatedAt.Before(cutoff) {
				continue
			}

			if _, ok := seen[status.ID]; ok {
				continue
			}

			seen[status.ID] = struct{}{}
			fresh = append(fresh, status)
		}

		if len(fresh) == 0 {
			break
		}

		result = append(result, fresh...)
		cursor = fresh[len(fresh)-1].ID

		if opts.Debug {
			break
		}

		if page == a.maxPages-1 {
			xcontext.Logger(ctx).Warnf("Timeline %s stopped after %d pages", opts.Name, a.maxPages)
		}
	}

	common.PromCounters[common.TimelineStatusesServed].WithLabelValues(opts.Name).Add(float64(len(result)))
	return result, nil
}
