package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbids-ops/dbids-console/entity"
)

const testDebounce = 20 * time.Millisecond

func rowID(r entity.QueryLogRow) string { return r.ID }

func rows(ids ...string) []entity.QueryLogRow {
	out := make([]entity.QueryLogRow, 0, len(ids))
	for _, id := range ids {
		out = append(out, entity.QueryLogRow{ID: id, UserID: "u-" + id})
	}
	return out
}

// recordingFetcher serves a canned page, echoing the requested page number,
// and records every request it sees.
type recordingFetcher struct {
	mu      sync.Mutex
	reqs    []entity.PageRequest
	content []entity.QueryLogRow
	total   int
	err     error
}

func (f *recordingFetcher) fetch(_ context.Context, req entity.PageRequest) (*entity.PageResult[entity.QueryLogRow], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &entity.PageResult[entity.QueryLogRow]{
		Content:       f.content,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: int64(f.total * req.Size),
		TotalPages:    f.total,
	}, nil
}

func (f *recordingFetcher) setContent(content []entity.QueryLogRow) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.content = content
}

func (f *recordingFetcher) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *recordingFetcher) requests() []entity.PageRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.PageRequest(nil), f.reqs...)
}

func newTestPager(f *recordingFetcher) *Pager[entity.QueryLogRow] {
	return NewPager(f.fetch, rowID, PagerConfig{
		Size:         20,
		SortField:    "executedAt",
		SortDir:      entity.SortDesc,
		DebounceWait: testDebounce,
	})
}

func waitDebounce() { time.Sleep(5 * testDebounce) }

func TestPagerFilterResetsToPageZero(t *testing.T) {
	f := &recordingFetcher{content: rows("a"), total: 5}
	p := newTestPager(f)
	defer p.Close()

	p.FetchPage(context.Background(), 2)
	require.Equal(t, 2, p.View().Page)

	p.SetFilter("userId", "alice")
	waitDebounce()

	reqs := f.requests()
	require.Len(t, reqs, 2)
	last := reqs[len(reqs)-1]
	assert.Equal(t, 0, last.Page)
	assert.Equal(t, []string{"alice"}, last.Filters["userId"])
	assert.Equal(t, 0, p.View().Page)
}

func TestPagerDebounceCoalescesEdits(t *testing.T) {
	f := &recordingFetcher{content: rows("a"), total: 1}
	p := newTestPager(f)
	defer p.Close()

	p.SetFilter("userId", "a")
	p.SetFilter("userId", "al")
	p.SetFilter("userId", "ali")
	p.SetFilterValues("status", []string{"FAILURE", "DENY"})
	waitDebounce()

	reqs := f.requests()
	require.Len(t, reqs, 1, "rapid edits must coalesce into one fetch")
	assert.Equal(t, []string{"ali"}, reqs[0].Filters["userId"])
	assert.Equal(t, []string{"FAILURE", "DENY"}, reqs[0].Filters["status"])
}

func TestPagerBlankFilterRemoves(t *testing.T) {
	f := &recordingFetcher{content: rows("a"), total: 1}
	p := newTestPager(f)
	defer p.Close()

	p.SetFilter("userId", "alice")
	waitDebounce()
	p.SetFilter("userId", "")
	waitDebounce()

	reqs := f.requests()
	require.Len(t, reqs, 2)
	_, present := reqs[1].Filters["userId"]
	assert.False(t, present)
}

func TestPagerSortToggle(t *testing.T) {
	f := &recordingFetcher{content: rows("a"), total: 3}
	p := newTestPager(f)
	defer p.Close()

	p.SetSort(context.Background(), "executedAt")
	reqs := f.requests()
	require.Len(t, reqs, 1, "sort changes fetch immediately, no debounce")
	assert.Equal(t, entity.SortAsc, reqs[0].SortDir)
	assert.Equal(t, 0, reqs[0].Page)

	p.SetSort(context.Background(), "executedAt")
	assert.Equal(t, entity.SortDesc, f.requests()[1].SortDir)

	p.SetSort(context.Background(), "userId")
	last := f.requests()[2]
	assert.Equal(t, "userId", last.SortField)
	assert.Equal(t, entity.SortAsc, last.SortDir)
}

func TestPagerGoToPageBounds(t *testing.T) {
	f := &recordingFetcher{content: rows("a"), total: 3}
	p := newTestPager(f)
	defer p.Close()

	p.FetchPage(context.Background(), 0)
	require.Len(t, f.requests(), 1)

	p.GoToPage(context.Background(), -1)
	p.GoToPage(context.Background(), 3)
	assert.Len(t, f.requests(), 1, "out-of-range navigation is a no-op")

	p.GoToPage(context.Background(), 2)
	reqs := f.requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, 2, reqs[1].Page)
}

func TestPagerFetchErrorKeepsLastContent(t *testing.T) {
	f := &recordingFetcher{content: rows("a", "b"), total: 1}
	p := newTestPager(f)
	defer p.Close()

	p.FetchPage(context.Background(), 0)
	require.Len(t, p.View().Content, 2)

	f.setErr(errors.New("backend down"))
	p.Refresh(context.Background())

	v := p.View()
	assert.Equal(t, entity.FetchError, v.Status)
	assert.Contains(t, v.Error, "backend down")
	assert.Len(t, v.Content, 2, "failed refresh keeps the last good page")

	f.setErr(nil)
	p.Refresh(context.Background())
	v = p.View()
	assert.Equal(t, entity.FetchIdle, v.Status)
	assert.Empty(t, v.Error)
}

func TestPagerStaleResponseDiscarded(t *testing.T) {
	type reply struct {
		res *entity.PageResult[entity.QueryLogRow]
	}
	type call struct {
		req   entity.PageRequest
		reply chan reply
	}
	calls := make(chan call)
	fetch := func(_ context.Context, req entity.PageRequest) (*entity.PageResult[entity.QueryLogRow], error) {
		c := call{req: req, reply: make(chan reply)}
		calls <- c
		r := <-c.reply
		return r.res, nil
	}

	p := NewPager(fetch, rowID, PagerConfig{Size: 20, DebounceWait: testDebounce})
	defer p.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		p.FetchPage(context.Background(), 0)
	}()
	first := <-calls
	go func() {
		defer wg.Done()
		p.FetchPage(context.Background(), 1)
	}()
	second := <-calls

	// The newer request lands first; the older one must not overwrite it.
	second.reply <- reply{res: &entity.PageResult[entity.QueryLogRow]{
		Content: rows("new"), Page: 1, Size: 20, TotalPages: 2, TotalElements: 40,
	}}
	first.reply <- reply{res: &entity.PageResult[entity.QueryLogRow]{
		Content: rows("old"), Page: 0, Size: 20, TotalPages: 2, TotalElements: 40,
	}}
	wg.Wait()

	v := p.View()
	require.Len(t, v.Content, 1)
	assert.Equal(t, "new", v.Content[0].ID)
	assert.Equal(t, 1, v.Page)
}

func TestPagerExpansion(t *testing.T) {
	f := &recordingFetcher{content: rows("a", "b"), total: 1}
	p := newTestPager(f)
	defer p.Close()

	p.FetchPage(context.Background(), 0)

	p.ToggleExpand("a")
	assert.Equal(t, "a", p.View().ExpandedID)
	p.ToggleExpand("a")
	assert.Empty(t, p.View().ExpandedID)

	// Expansion survives a refresh while the row is still present.
	p.ToggleExpand("b")
	p.Refresh(context.Background())
	assert.Equal(t, "b", p.View().ExpandedID)

	// And clears once the row leaves the page.
	f.setContent(rows("c", "d"))
	p.Refresh(context.Background())
	assert.Empty(t, p.View().ExpandedID)
}

func TestPagerSetSizeRefetchesPageZero(t *testing.T) {
	f := &recordingFetcher{content: rows("a"), total: 4}
	p := newTestPager(f)
	defer p.Close()

	p.FetchPage(context.Background(), 3)
	p.SetSize(50)
	waitDebounce()

	reqs := f.requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, 0, reqs[1].Page)
	assert.Equal(t, 50, reqs[1].Size)
}

func TestPagerClosedIgnoresInput(t *testing.T) {
	f := &recordingFetcher{content: rows("a"), total: 1}
	p := newTestPager(f)
	p.Close()

	p.SetFilter("userId", "alice")
	p.FetchPage(context.Background(), 0)
	p.Refresh(context.Background())
	waitDebounce()

	assert.Empty(t, f.requests())
}

func TestPagerViewContentNeverNil(t *testing.T) {
	f := &recordingFetcher{}
	p := newTestPager(f)
	defer p.Close()

	v := p.View()
	require.NotNil(t, v.Content)
	assert.Empty(t, v.Content)
	assert.Equal(t, entity.FetchIdle, v.Status)
	assert.Equal(t, 1, v.TotalPages)
}
