package cleanup

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/esfa/deskctl/internal/collect"
	"github.com/esfa/deskctl/internal/helpdesk"
	"github.com/esfa/deskctl/internal/iostreams"
	"github.com/esfa/deskctl/internal/mutate"
	"github.com/esfa/deskctl/internal/progress"
	"github.com/esfa/deskctl/internal/retry"
	"github.com/esfa/deskctl/internal/util"
)

// DefaultPause is the wait between report passes
const DefaultPause = 240 * time.Second

// ErrPassLimit is returned by Report when MaxPasses clean passes ran and the
// helpdesk still holds records
var ErrPassLimit = errors.New("pass limit reached before the helpdesk was empty")

// Counts are the totals the helpdesk reports for the filter
type Counts struct {
	Users         int `json:"users"`
	Organizations int `json:"organizations"`
}

// Empty reports whether nothing is left to clean
func (c Counts) Empty() bool {
	return c.Users == 0 && c.Organizations == 0
}

// CleanSummary describes one clean pass
type CleanSummary struct {
	Organizations *mutate.DeleteSummary `json:"organizations"`
	Users         *mutate.DeleteSummary `json:"users"`
	SkippedPages  int                   `json:"skipped_pages,omitempty"`
}

// ReportSummary describes a report loop
type ReportSummary struct {
	Passes int           `json:"passes"`
	Counts []Counts      `json:"counts"`
	Last   *CleanSummary `json:"last_clean,omitempty"`
}

// Runner sequences collection and mutation against one helpdesk
type Runner struct {
	API    helpdesk.API
	Out    io.Writer
	Logger *slog.Logger

	Filter  string
	PerPage int
	FanOut  int
	// UserRole selects the users a clean pass deletes
	UserRole     string
	UserCooldown time.Duration
	Pause        time.Duration
	// MaxPasses bounds Report. Zero means no bound.
	MaxPasses int

	// Policy wraps every API call. OnRetry defaults to a console notice.
	Policy retry.Policy
	// Sleep waits out delete cooldowns
	Sleep retry.SleepFunc
	// Wait waits out the pause between report passes; defaults to a countdown bar on Out
	Wait func(ctx context.Context, d time.Duration) error

	// Interactive and Width describe the terminal behind Out. Bars redraw in
	// place only when Interactive is set.
	Interactive bool
	Width       int

	consoleOnce sync.Once
	console     io.Writer
}

// out is the console for the run. Page goroutines print retry notices while
// dots are drawn, so every write goes through one lock.
func (r *Runner) out() io.Writer {
	r.consoleOnce.Do(func() {
		if r.Out == nil {
			r.console = io.Discard
			return
		}
		r.console = progress.NewSyncWriter(r.Out)
	})
	return r.console
}

func (r *Runner) width() int {
	return cmp.Or(r.Width, iostreams.DefaultWidth)
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Logger
}

func (r *Runner) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out(), format+"\n", args...)
}

func (r *Runner) policy() retry.Policy {
	p := r.Policy
	if p.OnRetry == nil {
		p.OnRetry = func(a retry.Attempt) {
			r.logger().Warn("retrying helpdesk call", "attempt", a.Number, "delay", a.Delay, "error", a.Err)
			if helpdesk.IsRateLimited(a.Err) {
				r.printf("Server is throttling our requests. Automatically delaying for %dms", a.Delay.Milliseconds())
				return
			}
			r.printf("Request failed (%s). Retrying in %dms", helpdesk.Describe(a.Err), a.Delay.Milliseconds())
		}
	}
	return p
}

func (r *Runner) query(kind helpdesk.Kind) helpdesk.Query {
	return helpdesk.Query{Kind: kind, Filter: r.Filter, Page: 1, PerPage: r.PerPage}
}

func (r *Runner) collector(reporter progress.Reporter) collect.Collector {
	return collect.Collector{
		FanOut:   r.FanOut,
		Policy:   r.policy(),
		Reporter: reporter,
		Logger:   r.logger(),
	}
}

func (r *Runner) mutator(reporter progress.Reporter, cooldown time.Duration) mutate.Mutator {
	return mutate.Mutator{
		Cooldown: cooldown,
		Policy:   r.policy(),
		Reporter: reporter,
		Sleep:    r.Sleep,
		Logger:   r.logger(),
	}
}

func orgIdent(o helpdesk.Organization) (int64, string) { return o.ID, o.Name }

func userIdent(u helpdesk.User) (int64, string) { return u.ID, u.String() }

func byName[T any](name func(T) string) func(a, b T) int {
	return func(a, b T) int {
		return strings.Compare(name(a), name(b))
	}
}

// collectAll reads every record of one search with dots for each page
func collectAll[T any](ctx context.Context, r *Runner, search collect.SearchFunc[T]) (*collect.Result[T], error) {
	dots := progress.NewDots(r.out())
	res, err := collect.All(ctx, r.collector(dots), search)
	dots.Finish()
	if err != nil {
		return nil, err
	}
	r.printf("Retrieved details of %d records", len(res.Records))
	for _, f := range res.Failed {
		r.printf("Skipped page %d: %s", f.Page, helpdesk.Describe(f.Err))
	}
	return res, nil
}

// Clean deletes every organization, then every user with the cleaned role
func (r *Runner) Clean(ctx context.Context) (*CleanSummary, error) {
	summary := &CleanSummary{}

	r.printf("Searching for orgs")
	orgs, err := collectAll(ctx, r, collect.Query(r.API.SearchOrganizations, r.query(helpdesk.KindOrganization)))
	if err != nil {
		return summary, fmt.Errorf("failed to collect organizations: %w", err)
	}
	summary.SkippedPages += len(orgs.Failed)
	slices.SortStableFunc(orgs.Records, byName(func(o helpdesk.Organization) string { return o.Name }))

	r.printf("Deleting %d orgs", len(orgs.Records))
	dots := progress.NewDots(r.out())
	summary.Organizations, err = mutate.Delete(ctx, r.mutator(dots, 0), orgs.Records, orgIdent,
		func(ctx context.Context, batch []helpdesk.Organization) error {
			return r.API.BulkDeleteOrganizations(ctx, util.Map(batch, func(o helpdesk.Organization) int64 { return o.ID }))
		})
	dots.Finish()
	if err != nil {
		return summary, err
	}
	r.printDeleted(summary.Organizations, "organisations")

	r.printf("Searching for users")
	users, err := collectAll(ctx, r, collect.Query(r.API.SearchUsers, r.query(helpdesk.KindUser)))
	if err != nil {
		return summary, fmt.Errorf("failed to collect users: %w", err)
	}
	summary.SkippedPages += len(users.Failed)
	role := cmp.Or(r.UserRole, helpdesk.RoleEndUser)
	targets := slices.DeleteFunc(users.Records, func(u helpdesk.User) bool { return u.Role != role })
	slices.SortStableFunc(targets, byName(func(u helpdesk.User) string { return u.Name }))

	r.printf("Deleting %d users", len(targets))
	dots = progress.NewDots(r.out())
	summary.Users, err = mutate.Delete(ctx, r.mutator(dots, r.UserCooldown), targets, userIdent, r.API.BulkDeleteUsers)
	dots.Finish()
	if err != nil {
		return summary, err
	}
	r.printDeleted(summary.Users, "users")

	return summary, nil
}

func (r *Runner) printDeleted(s *mutate.DeleteSummary, noun string) {
	r.printf("Deleted %d %s", s.Deleted, noun)
	if len(s.Failed) > 0 {
		r.printf("Failed to delete %d %s: %s", len(s.Failed), noun, s.Failed[0].Reason)
	}
}

// Count reads the record totals from the first page of each search
func (r *Runner) Count(ctx context.Context) (*Counts, error) {
	p := r.policy()
	users, err := retry.Do(ctx, p, func(ctx context.Context) (*helpdesk.SearchResults[helpdesk.User], error) {
		return r.API.SearchUsers(ctx, r.query(helpdesk.KindUser))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	r.printf("Helpdesk reports %d users", users.Count)

	orgs, err := retry.Do(ctx, p, func(ctx context.Context) (*helpdesk.SearchResults[helpdesk.Organization], error) {
		return r.API.SearchOrganizations(ctx, r.query(helpdesk.KindOrganization))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count organizations: %w", err)
	}
	r.printf("Helpdesk reports %d organisations", orgs.Count)

	return &Counts{Users: users.Count, Organizations: orgs.Count}, nil
}

// Report counts what is left and runs clean passes, pausing before each,
// until both counts are zero. Only ctx or MaxPasses end it otherwise.
func (r *Runner) Report(ctx context.Context) (*ReportSummary, error) {
	wait := r.Wait
	if wait == nil {
		countdown := progress.NewCountdown(r.out())
		countdown.Interactive = r.Interactive
		countdown.Width = r.width()
		wait = countdown.Run
	}
	pause := r.Pause
	if pause <= 0 {
		pause = DefaultPause
	}

	summary := &ReportSummary{}
	for {
		counts, err := r.Count(ctx)
		if err != nil {
			return summary, err
		}
		summary.Counts = append(summary.Counts, *counts)
		if counts.Empty() {
			return summary, nil
		}
		if r.MaxPasses > 0 && summary.Passes >= r.MaxPasses {
			return summary, ErrPassLimit
		}

		r.logger().Info("pausing before the next pass", "pause", pause, "pass", summary.Passes+1)
		if err := wait(ctx, pause); err != nil {
			return summary, err
		}

		last, err := r.Clean(ctx)
		summary.Last = last
		if err != nil {
			return summary, err
		}
		summary.Passes++
	}
}

func sharesPhone(u helpdesk.User) bool {
	return util.BoolValue(u.SharedPhoneNumber)
}

func unsharePhone(u helpdesk.User) helpdesk.User {
	u.SharedPhoneNumber = util.Ptr(false)
	return u
}

// UnShare clears the shared phone number flag on every user that has it set
func (r *Runner) UnShare(ctx context.Context) (*mutate.PatchSummary, error) {
	r.printf("Searching for users")
	users, err := collectAll(ctx, r, collect.Query(r.API.SearchUsers, r.query(helpdesk.KindUser)))
	if err != nil {
		return nil, fmt.Errorf("failed to collect users: %w", err)
	}

	r.printf("Fixing %d users", len(users.Records))
	bar := progress.NewBarWithOptions(r.out(), len(users.Records), progress.BarOptions{
		Width:       r.width(),
		Interactive: r.Interactive,
	})
	summary, err := mutate.Patch(ctx, r.mutator(bar, 0), users.Records, userIdent, sharesPhone, unsharePhone,
		func(ctx context.Context, u helpdesk.User) error {
			_, err := r.API.UpdateUser(ctx, u)
			return err
		})
	bar.Finish()
	if err != nil {
		return summary, err
	}

	if len(summary.Failures) > 0 {
		r.printf("There were %d errors...", len(summary.Failures))
		for _, f := range summary.SortedFailures() {
			r.printf("%s", f)
		}
	}
	return summary, nil
}
