package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/dbids-ops/dbids-console/entity"
)

// PageFetcher retrieves one page of a remote paginated resource.
type PageFetcher[T any] func(ctx context.Context, req entity.PageRequest) (*entity.PageResult[T], error)

// PagerConfig tunes one Pager. Zero values get sensible defaults.
type PagerConfig struct {
	Logger    *zap.Logger
	Scheduler gocron.Scheduler

	Size      int
	SortField string
	SortDir   entity.SortDir

	DebounceWait    time.Duration
	RefreshInterval time.Duration
	FetchTimeout    time.Duration
	AutoRefresh     bool
}

// PagerView is a consistent snapshot of the pager's state for rendering.
type PagerView[T any] struct {
	Content       []T                `json:"content"`
	Page          int                `json:"page"`
	Size          int                `json:"size"`
	TotalPages    int                `json:"totalPages"`
	TotalElements int64              `json:"totalElements"`
	SortField     string             `json:"sortField"`
	SortDir       entity.SortDir     `json:"sortDir"`
	Status        entity.FetchStatus `json:"status"`
	Error         string             `json:"error,omitempty"`
	ExpandedID    string             `json:"expandedId,omitempty"`
	AutoRefresh   bool               `json:"autoRefresh"`
}

// Pager keeps a paginated, filterable, sortable view of a remote resource
// consistent with user input. Filter edits coalesce through a single-slot
// debounce into one reset-to-page-0 fetch; an auto-refresh job refetches the
// current page on a fixed interval; fetch failures keep the last known good
// content and surface a non-blocking error status.
//
// Every fetch carries a sequence number. A response from an older sequence
// than the newest issued request is discarded, so an overlapping manual and
// timer-triggered fetch can never roll state backwards.
type Pager[T any] struct {
	fetch PageFetcher[T]
	idOf  func(T) string
	log   *zap.Logger
	sched gocron.Scheduler

	debounceWait    time.Duration
	refreshInterval time.Duration
	fetchTimeout    time.Duration

	mu            sync.Mutex
	req           entity.PageRequest
	content       []T
	totalElements int64
	totalPages    int
	status        entity.FetchStatus
	lastErr       error
	expandedID    string

	autoRefresh bool
	job         gocron.Job
	debounce    *time.Timer
	seq         uint64
	closed      bool
}

func NewPager[T any](fetch PageFetcher[T], idOf func(T) string, cfg PagerConfig) *Pager[T] {
	if cfg.Size <= 0 {
		cfg.Size = 20
	}
	if cfg.DebounceWait <= 0 {
		cfg.DebounceWait = 300 * time.Millisecond
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = 5 * time.Second
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 15 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	p := &Pager[T]{
		fetch:           fetch,
		idOf:            idOf,
		log:             cfg.Logger.Named("pager"),
		sched:           cfg.Scheduler,
		debounceWait:    cfg.DebounceWait,
		refreshInterval: cfg.RefreshInterval,
		fetchTimeout:    cfg.FetchTimeout,
		req: entity.PageRequest{
			Size:      cfg.Size,
			SortField: cfg.SortField,
			SortDir:   cfg.SortDir,
			Filters:   map[string][]string{},
		},
		status:     entity.FetchIdle,
		totalPages: 1,
	}

	if cfg.AutoRefresh {
		p.mu.Lock()
		p.setAutoRefreshLocked(true)
		p.mu.Unlock()
	}
	return p
}

// SetFilter updates one single-valued filter and schedules a debounced
// reset-to-page-0 refetch. A blank value removes the filter. Rapid
// consecutive edits coalesce into one request: the debounce slot holds at
// most one pending fetch and a new edit replaces it.
func (p *Pager[T]) SetFilter(name, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if value == "" {
		delete(p.req.Filters, name)
	} else {
		p.req.Filters[name] = []string{value}
	}
	p.scheduleDebouncedLocked()
}

// SetFilterValues updates a multi-valued filter (status) the same way.
func (p *Pager[T]) SetFilterValues(name string, values []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if len(values) == 0 {
		delete(p.req.Filters, name)
	} else {
		p.req.Filters[name] = append([]string(nil), values...)
	}
	p.scheduleDebouncedLocked()
}

// SetSort toggles direction when field is already the sort key, otherwise
// switches to it ascending, then refetches page 0 immediately.
func (p *Pager[T]) SetSort(ctx context.Context, field string) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	if p.req.SortField == field {
		if p.req.SortDir == entity.SortAsc {
			p.req.SortDir = entity.SortDesc
		} else {
			p.req.SortDir = entity.SortAsc
		}
	} else {
		p.req.SortField = field
		p.req.SortDir = entity.SortAsc
	}
	p.cancelDebounceLocked()
	p.mu.Unlock()

	p.FetchPage(ctx, 0)
}

// SetSize changes the page size and schedules a debounced reset-to-page-0
// refetch, like any other filter edit.
func (p *Pager[T]) SetSize(size int) {
	if size <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.req.Size = size
	p.scheduleDebouncedLocked()
}

// GoToPage fetches page n with the current filters and sort. Out-of-range
// targets are a silent no-op.
func (p *Pager[T]) GoToPage(ctx context.Context, n int) {
	p.mu.Lock()
	if p.closed || n < 0 || n >= p.totalPages {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.FetchPage(ctx, n)
}

// Refresh refetches the current page.
func (p *Pager[T]) Refresh(ctx context.Context) {
	p.mu.Lock()
	page := p.req.Page
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return
	}
	p.FetchPage(ctx, page)
}

// FetchPage issues one request for the target page and applies the result.
// It never returns an error: failures leave the previous content visible and
// set the error status. Stale responses (a newer request was issued while
// this one was in flight) are dropped.
func (p *Pager[T]) FetchPage(ctx context.Context, target int) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.seq++
	mySeq := p.seq
	req := p.req.WithPage(target)
	p.status = entity.FetchLoading
	p.mu.Unlock()

	res, err := p.fetch(ctx, req)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || mySeq < p.seq {
		return
	}

	if err != nil {
		p.status = entity.FetchError
		p.lastErr = err
		p.log.Warn("page fetch failed", zap.Int("page", target), zap.Error(err))
		return
	}

	pageChanged := p.req.Page != res.Page
	p.content = res.Content
	p.req.Page = res.Page
	if res.Size > 0 {
		p.req.Size = res.Size
	}
	p.totalPages = res.TotalPages
	p.totalElements = res.TotalElements
	p.status = entity.FetchIdle
	p.lastErr = nil

	if p.expandedID != "" && !p.containsLocked(p.expandedID) {
		p.expandedID = ""
	}

	if pageChanged {
		p.rescheduleLocked()
	}
}

// ToggleExpand expands the row with the given id, or collapses it when it
// is already expanded.
func (p *Pager[T]) ToggleExpand(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.expandedID == id {
		p.expandedID = ""
	} else {
		p.expandedID = id
	}
}

// SetAutoRefresh toggles the background refresh job.
func (p *Pager[T]) SetAutoRefresh(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.setAutoRefreshLocked(enabled)
}

// Request returns a copy of the current request state.
func (p *Pager[T]) Request() entity.PageRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.req.Clone()
}

// View returns a consistent snapshot for rendering.
func (p *Pager[T]) View() PagerView[T] {
	p.mu.Lock()
	defer p.mu.Unlock()

	v := PagerView[T]{
		Content:       p.content,
		Page:          p.req.Page,
		Size:          p.req.Size,
		TotalPages:    p.totalPages,
		TotalElements: p.totalElements,
		SortField:     p.req.SortField,
		SortDir:       p.req.SortDir,
		Status:        p.status,
		ExpandedID:    p.expandedID,
		AutoRefresh:   p.autoRefresh,
	}
	if v.Content == nil {
		v.Content = []T{}
	}
	if p.lastErr != nil {
		v.Error = p.lastErr.Error()
	}
	return v
}

// Close cancels the debounce slot and the auto-refresh job synchronously.
// In-flight requests are not cancelled; their responses are discarded by the
// closed check.
func (p *Pager[T]) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.cancelDebounceLocked()
	p.removeJobLocked()
}

func (p *Pager[T]) containsLocked(id string) bool {
	for _, item := range p.content {
		if p.idOf(item) == id {
			return true
		}
	}
	return false
}

func (p *Pager[T]) scheduleDebouncedLocked() {
	p.cancelDebounceLocked()
	p.debounce = time.AfterFunc(p.debounceWait, func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.fetchTimeout)
		defer cancel()
		p.FetchPage(ctx, 0)

		p.mu.Lock()
		p.rescheduleLocked()
		p.mu.Unlock()
	})
	// A changed filter set also restarts the refresh interval.
	p.rescheduleLocked()
}

func (p *Pager[T]) cancelDebounceLocked() {
	if p.debounce != nil {
		p.debounce.Stop()
		p.debounce = nil
	}
}

func (p *Pager[T]) setAutoRefreshLocked(enabled bool) {
	p.autoRefresh = enabled
	if enabled {
		p.rescheduleLocked()
	} else {
		p.removeJobLocked()
	}
}

// rescheduleLocked restarts the auto-refresh job so the interval counts from
// now. Called when the page or the active filter set changes.
func (p *Pager[T]) rescheduleLocked() {
	if !p.autoRefresh || p.sched == nil || p.closed {
		return
	}
	p.removeJobLocked()

	job, err := p.sched.NewJob(
		gocron.DurationJob(p.refreshInterval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), p.fetchTimeout)
			defer cancel()
			p.Refresh(ctx)
		}),
	)
	if err != nil {
		p.log.Warn("scheduling auto-refresh failed", zap.Error(err))
		return
	}
	p.job = job
}

func (p *Pager[T]) removeJobLocked() {
	if p.job != nil && p.sched != nil {
		_ = p.sched.RemoveJob(p.job.ID())
		p.job = nil
	}
}
