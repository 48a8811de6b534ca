package collect

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esfa/deskctl/internal/helpdesk"
	"github.com/esfa/deskctl/internal/progress"
	"github.com/esfa/deskctl/internal/retry"
)

func orgs(n int) []helpdesk.Organization {
	out := make([]helpdesk.Organization, n)
	for i := range out {
		out[i] = helpdesk.Organization{ID: int64(i + 1)}
	}
	return out
}

type pageLog struct {
	mu    sync.Mutex
	pages map[int]int
}

func (l *pageLog) hit(page int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pages == nil {
		l.pages = map[int]int{}
	}
	l.pages[page]++
}

func noSleep(context.Context, time.Duration) error { return nil }

func TestAllReadsEveryPageOnce(t *testing.T) {
	data := orgs(250)
	log := &pageLog{}
	search := func(_ context.Context, page int) (*helpdesk.SearchResults[helpdesk.Organization], error) {
		log.hit(page)
		return helpdesk.Paged(data, 100, page), nil
	}
	counter := &progress.Counter{}

	res, err := All(context.Background(), Collector{FanOut: 2, Reporter: counter}, search)
	require.NoError(t, err)

	assert.Equal(t, map[int]int{1: 1, 2: 1, 3: 1}, log.pages)
	assert.Equal(t, 250, res.Count)
	assert.Equal(t, 3, res.TotalPages)
	assert.True(t, res.Complete())
	if diff := cmp.Diff(data, res.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, counter.Count())
}

func TestAllKeepsPageOrder(t *testing.T) {
	data := orgs(1000)
	search := func(_ context.Context, page int) (*helpdesk.SearchResults[helpdesk.Organization], error) {
		// later pages finish first
		time.Sleep(time.Duration(10-page) * time.Millisecond)
		return helpdesk.Paged(data, 100, page), nil
	}

	res, err := All(context.Background(), Collector{FanOut: 8}, search)
	require.NoError(t, err)
	require.Len(t, res.Records, 1000)
	seen := map[int64]bool{}
	for i, r := range res.Records {
		assert.Equal(t, int64(i+1), r.ID)
		assert.False(t, seen[r.ID], "duplicate %d", r.ID)
		seen[r.ID] = true
	}
}

func TestAllEmptyFirstPage(t *testing.T) {
	var calls atomic.Int32
	search := func(_ context.Context, page int) (*helpdesk.SearchResults[helpdesk.Organization], error) {
		calls.Add(1)
		return helpdesk.Paged([]helpdesk.Organization{}, 100, page), nil
	}

	res, err := All(context.Background(), Collector{}, search)
	require.NoError(t, err)
	assert.Empty(t, res.Records)
	assert.Equal(t, 0, res.Count)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAllSinglePage(t *testing.T) {
	var calls atomic.Int32
	data := orgs(30)
	search := func(_ context.Context, page int) (*helpdesk.SearchResults[helpdesk.Organization], error) {
		calls.Add(1)
		return helpdesk.Paged(data, 100, page), nil
	}

	res, err := All(context.Background(), Collector{}, search)
	require.NoError(t, err)
	assert.Len(t, res.Records, 30)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAllFirstPageFailure(t *testing.T) {
	boom := errors.New("boom")
	search := func(context.Context, int) (*helpdesk.SearchResults[helpdesk.Organization], error) {
		return nil, boom
	}

	res, err := All(context.Background(), Collector{}, search)
	require.ErrorIs(t, err, boom)
	assert.Nil(t, res)
}

func TestAllRecordsFailedPage(t *testing.T) {
	data := orgs(300)
	throttled := &helpdesk.APIError{StatusCode: 429}
	var pageTwo atomic.Int32
	search := func(_ context.Context, page int) (*helpdesk.SearchResults[helpdesk.Organization], error) {
		if page == 2 {
			pageTwo.Add(1)
			return nil, throttled
		}
		return helpdesk.Paged(data, 100, page), nil
	}
	policy := retry.NewPolicy(helpdesk.IsTransient, nil)
	policy.Sleep = noSleep

	res, err := All(context.Background(), Collector{Policy: policy}, search)
	require.NoError(t, err)

	require.Len(t, res.Failed, 1)
	assert.Equal(t, 2, res.Failed[0].Page)
	var exhausted *retry.ExhaustedError
	require.ErrorAs(t, res.Failed[0].Err, &exhausted)
	assert.Equal(t, int32(retry.DefaultAttempts), pageTwo.Load())
	assert.False(t, res.Complete())

	assert.Len(t, res.Records, 200)
	assert.Equal(t, int64(1), res.Records[0].ID)
	assert.Equal(t, int64(201), res.Records[100].ID)
}

func TestAllRetriesTransientPages(t *testing.T) {
	data := orgs(200)
	var failures atomic.Int32
	search := func(_ context.Context, page int) (*helpdesk.SearchResults[helpdesk.Organization], error) {
		if page == 2 && failures.Add(1) <= 2 {
			return nil, &helpdesk.APIError{StatusCode: 503}
		}
		return helpdesk.Paged(data, 100, page), nil
	}
	var notified atomic.Int32
	policy := retry.NewPolicy(helpdesk.IsTransient, func(retry.Attempt) { notified.Add(1) })
	policy.Sleep = noSleep

	res, err := All(context.Background(), Collector{Policy: policy}, search)
	require.NoError(t, err)
	assert.Len(t, res.Records, 200)
	assert.Equal(t, int32(2), notified.Load())
}

func TestAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	data := orgs(500)
	search := func(ctx context.Context, page int) (*helpdesk.SearchResults[helpdesk.Organization], error) {
		if page > 1 {
			cancel()
			return nil, ctx.Err()
		}
		return helpdesk.Paged(data, 100, page), nil
	}

	_, err := All(ctx, Collector{FanOut: 1}, search)
	require.ErrorIs(t, err, context.Canceled)
}

func TestQueryAdapter(t *testing.T) {
	var got []helpdesk.Query
	api := &helpdesk.MockAPI{
		SearchUsersFunc: func(_ context.Context, q helpdesk.Query) (*helpdesk.SearchResults[helpdesk.User], error) {
			got = append(got, q)
			return &helpdesk.SearchResults[helpdesk.User]{Page: q.Page}, nil
		},
	}
	search := Query(api.SearchUsers, helpdesk.Query{Kind: helpdesk.KindUser, Filter: "created>2019-07-20", PerPage: 50})

	_, err := search(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, helpdesk.Query{Kind: helpdesk.KindUser, Filter: "created>2019-07-20", Page: 3, PerPage: 50}, got[0])
}
