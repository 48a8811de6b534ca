package mutate

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/esfa/deskctl/internal/helpdesk"
	"github.com/esfa/deskctl/internal/progress"
	"github.com/esfa/deskctl/internal/retry"
	"github.com/esfa/deskctl/internal/util"
)

// DefaultBatchSize is the most IDs a bulk delete endpoint accepts
const DefaultBatchSize = 500

// Ident returns the ID and display name of a record
type Ident[T any] func(T) (int64, string)

// Failure is a record that could not be mutated
type Failure struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

func (f Failure) String() string {
	return fmt.Sprintf("%s: %s", f.Name, f.Reason)
}

// DeleteSummary describes one bulk delete pass
type DeleteSummary struct {
	Batches int       `json:"batches"`
	Deleted int       `json:"deleted"`
	Failed  []Failure `json:"failed,omitempty"`
}

// PatchSummary describes one field patch pass. Failures is keyed by record ID.
type PatchSummary struct {
	Examined int               `json:"examined"`
	Updated  int               `json:"updated"`
	Failures map[int64]Failure `json:"failures,omitempty"`
}

// SortedFailures returns the failures ordered by record name, then ID
func (s *PatchSummary) SortedFailures() []Failure {
	out := slices.Collect(maps.Values(s.Failures))
	slices.SortFunc(out, func(a, b Failure) int {
		return cmp.Or(strings.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out
}

// Mutator applies changes one batch or one record at a time
type Mutator struct {
	// BatchSize defaults to DefaultBatchSize
	BatchSize int
	// Cooldown is waited between bulk delete batches when non-zero
	Cooldown time.Duration
	Policy   retry.Policy
	Reporter progress.Reporter
	Sleep    retry.SleepFunc
	Logger   *slog.Logger
}

func (m Mutator) reporter() progress.Reporter {
	if m.Reporter == nil {
		return progress.Nop{}
	}
	return m.Reporter
}

func (m Mutator) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return m.Logger
}

// Delete removes records in contiguous batches. A batch that fails is
// recorded against each of its records and the remaining batches are still
// attempted. Only cancellation stops the pass early.
func Delete[T any](
	ctx context.Context,
	m Mutator,
	records []T,
	ident Ident[T],
	del func(context.Context, []T) error,
) (*DeleteSummary, error) {
	size := m.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	sleep := m.Sleep
	if sleep == nil {
		sleep = retry.Sleep
	}
	reporter, logger := m.reporter(), m.logger()

	summary := &DeleteSummary{}
	batches := util.Chunk(records, size)
	for i, batch := range batches {
		if i > 0 && m.Cooldown > 0 {
			if err := sleep(ctx, m.Cooldown); err != nil {
				return summary, err
			}
		}

		summary.Batches++
		err := retry.Exec(ctx, m.Policy, func(ctx context.Context) error {
			return del(ctx, batch)
		})
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			logger.Warn("batch delete failed", "batch", i+1, "size", len(batch), "error", err)
			reason := helpdesk.Describe(err)
			for _, r := range batch {
				id, name := ident(r)
				summary.Failed = append(summary.Failed, Failure{ID: id, Name: name, Reason: reason, Err: err})
			}
		} else {
			summary.Deleted += len(batch)
			logger.Debug("batch deleted", "batch", i+1, "size", len(batch))
		}
		_, name := ident(batch[len(batch)-1])
		reporter.Advance(name)
	}
	return summary, nil
}

// Patch examines every record, submitting change(record) for the ones want
// selects. The input records are never modified.
func Patch[T any](
	ctx context.Context,
	m Mutator,
	records []T,
	ident Ident[T],
	want func(T) bool,
	change func(T) T,
	update func(context.Context, T) error,
) (*PatchSummary, error) {
	reporter, logger := m.reporter(), m.logger()

	summary := &PatchSummary{Failures: map[int64]Failure{}}
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		id, name := ident(r)
		summary.Examined++
		reporter.Advance(name)

		if !want(r) {
			continue
		}
		patched := change(r)
		err := retry.Exec(ctx, m.Policy, func(ctx context.Context) error {
			return update(ctx, patched)
		})
		if err != nil {
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}
			logger.Debug("update failed", "id", id, "error", err)
			summary.Failures[id] = Failure{ID: id, Name: name, Reason: helpdesk.Describe(err), Err: err}
			continue
		}
		summary.Updated++
	}
	return summary, nil
}
