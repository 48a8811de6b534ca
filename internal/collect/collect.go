package collect

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/esfa/deskctl/internal/helpdesk"
	"github.com/esfa/deskctl/internal/progress"
	"github.com/esfa/deskctl/internal/retry"
	"github.com/esfa/deskctl/internal/util/pagination"
)

// DefaultFanOut bounds the number of pages fetched at once
const DefaultFanOut = 4

// SearchFunc fetches one 1-based page of a search
type SearchFunc[T any] func(ctx context.Context, page int) (*helpdesk.SearchResults[T], error)

// Query adapts a typed API search method to a SearchFunc for q
func Query[T any](
	search func(context.Context, helpdesk.Query) (*helpdesk.SearchResults[T], error),
	q helpdesk.Query,
) SearchFunc[T] {
	return func(ctx context.Context, page int) (*helpdesk.SearchResults[T], error) {
		return search(ctx, q.WithPage(page))
	}
}

// PageFailure records a page skipped after its retries ran out
type PageFailure struct {
	Page int
	Err  error
}

func (f PageFailure) Error() string {
	return fmt.Sprintf("page %d: %v", f.Page, f.Err)
}

// Result holds every record collected in one pass, in page order
type Result[T any] struct {
	Records    []T
	Count      int
	TotalPages int
	Failed     []PageFailure
}

// Complete reports whether every page was read
func (r *Result[T]) Complete() bool {
	return len(r.Failed) == 0
}

// Collector reads every page of a search
type Collector struct {
	FanOut   int
	Policy   retry.Policy
	Reporter progress.Reporter
	Logger   *slog.Logger
}

// All reads page 1, then the remaining pages concurrently. A page 1 failure
// is returned. Later pages that fail are recorded in Result.Failed and the
// pass carries on without them.
func All[T any](ctx context.Context, c Collector, search SearchFunc[T]) (*Result[T], error) {
	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	reporter := c.Reporter
	if reporter == nil {
		reporter = progress.Nop{}
	}

	first, err := retry.Do(ctx, c.Policy, func(ctx context.Context) (*helpdesk.SearchResults[T], error) {
		return search(ctx, 1)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read first page: %w", err)
	}
	reporter.Advance("page 1")

	result := &Result[T]{Count: first.Count, TotalPages: first.TotalPages}
	if first.Count == 0 || len(first.Results) == 0 {
		logger.Debug("search returned no records")
		return result, nil
	}

	remaining := pagination.Remaining(first.TotalPages)
	logger.Debug("collecting pages", "count", first.Count, "total_pages", first.TotalPages)

	// slots[i] belongs to page i+2 and has a single writer
	slots := make([][]T, len(remaining))
	failures := make([]error, len(remaining))

	fanOut := c.FanOut
	if fanOut <= 0 {
		fanOut = DefaultFanOut
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOut)

	for i, page := range remaining {
		g.Go(func() error {
			res, err := retry.Do(gctx, c.Policy, func(ctx context.Context) (*helpdesk.SearchResults[T], error) {
				return search(ctx, page)
			})
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failures[i] = err
				logger.Warn("skipping page", "page", page, "error", err)
				return nil
			}
			if res != nil {
				slots[i] = res.Results
			}
			reporter.Advance(fmt.Sprintf("page %d", page))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]T, 0, first.Count)
	records = append(records, first.Results...)
	for i, page := range remaining {
		if failures[i] != nil {
			result.Failed = append(result.Failed, PageFailure{Page: page, Err: failures[i]})
			continue
		}
		records = append(records, slots[i]...)
	}
	result.Records = records
	return result, nil
}
