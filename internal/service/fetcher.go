package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/godilite/sla-monitor/internal/helpdesk"
	"github.com/godilite/sla-monitor/internal/metrics"
)

const (
	DefaultPageSize = 100
	DefaultMaxPages = 50
)

// FetchResult is the concatenation of every page retrieved in one pass.
type FetchResult struct {
	Tickets []metrics.Ticket
	Pages   int
	// IsCapped is set when MaxPages was reached with results remaining.
	IsCapped bool
	// IsPartial is set when a page request failed and the pass stopped early.
	IsPartial bool
}

// TicketFetcher walks the search cursor one page at a time. Each request
// depends on the previous page's cursor, so requests are never overlapped.
type TicketFetcher struct {
	searcher TicketSearcher
	pageSize int
	maxPages int
	logger   *zap.Logger
}

func NewTicketFetcher(searcher TicketSearcher, pageSize, maxPages int, logger *zap.Logger) *TicketFetcher {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketFetcher{
		searcher: searcher,
		pageSize: pageSize,
		maxPages: maxPages,
		logger:   logger.Named("ticket-fetcher"),
	}
}

// Fetch never fails: a page error ends the pass and returns what was
// accumulated so far with IsPartial set.
func (f *TicketFetcher) Fetch(ctx context.Context, q helpdesk.Query) FetchResult {
	var (
		res    FetchResult
		cursor string
	)

	for res.Pages < f.maxPages {
		page, err := f.searcher.SearchTickets(ctx, q, f.pageSize, cursor)
		if err != nil {
			f.logger.Warn("page fetch failed, keeping partial results",
				zap.Int("page", res.Pages+1),
				zap.Int("tickets", len(res.Tickets)),
				zap.Error(err))
			res.IsPartial = true
			return res
		}

		res.Pages++
		res.Tickets = append(res.Tickets, page.Tickets...)

		if page.NextCursor == "" {
			return res
		}
		cursor = page.NextCursor
	}

	res.IsCapped = true
	f.logger.Warn("page cap reached, results may undercount",
		zap.Int("max_pages", f.maxPages),
		zap.Int("tickets", len(res.Tickets)))
	return res
}
