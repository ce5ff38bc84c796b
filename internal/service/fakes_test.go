package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stonks-manager/internal/dto"
	"stonks-manager/internal/jobqueue"
	"stonks-manager/internal/model"
	"stonks-manager/pkg/utils"
)

// fakeQueue satisfies AnalysisQueue with fully scripted job states.
type fakeQueue struct {
	mu         sync.Mutex
	nextID     int
	submitted  []jobqueue.Descriptor
	statuses   map[string]jobqueue.Status
	registered map[jobqueue.Kind]bool
	queries    map[string]int
	submitErr  error
}

func newFakeQueue(kinds ...jobqueue.Kind) *fakeQueue {
	registered := make(map[jobqueue.Kind]bool)
	for _, k := range kinds {
		registered[k] = true
	}
	return &fakeQueue{
		statuses:   make(map[string]jobqueue.Status),
		registered: registered,
		queries:    make(map[string]int),
	}
}

func (q *fakeQueue) Submit(ctx context.Context, desc jobqueue.Descriptor) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.submitErr != nil {
		return "", q.submitErr
	}
	q.nextID++
	id := fmt.Sprintf("job-%d", q.nextID)
	q.submitted = append(q.submitted, desc)
	if _, ok := q.statuses[id]; !ok {
		q.statuses[id] = jobqueue.Status{State: jobqueue.StatePending}
	}
	return id, nil
}

func (q *fakeQueue) Query(ctx context.Context, jobID string) (jobqueue.Status, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queries[jobID]++
	status, ok := q.statuses[jobID]
	if !ok {
		return jobqueue.Status{}, jobqueue.ErrUnknownJob
	}
	return status, nil
}

func (q *fakeQueue) Handles(kind jobqueue.Kind) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.registered[kind]
}

func (q *fakeQueue) setStatus(jobID string, status jobqueue.Status) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.statuses[jobID] = status
}

func (q *fakeQueue) queryCount(jobID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.queries[jobID]
}

// fakeMarketRepo replays a scripted sequence of fetch outcomes.
type fakeMarketRepo struct {
	mu       sync.Mutex
	outcomes []fetchOutcome
	calls    int
}

type fetchOutcome struct {
	data *dto.StockData
	err  error
}

func (r *fakeMarketRepo) Fetch(ctx context.Context, symbol string) (*dto.StockData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.calls >= len(r.outcomes) {
		return nil, fmt.Errorf("unexpected fetch call %d", r.calls+1)
	}
	outcome := r.outcomes[r.calls]
	r.calls++
	return outcome.data, outcome.err
}

// fakeStockRepo keeps rows in maps keyed the way the real tables are.
type fakeStockRepo struct {
	mu        sync.Mutex
	metaRows  map[string]model.StockMeta
	priceRows map[string]map[string]model.StockPrice
	staleMeta []model.StockMeta
	upsertErr error
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{
		metaRows:  make(map[string]model.StockMeta),
		priceRows: make(map[string]map[string]model.StockPrice),
	}
}

func (r *fakeStockRepo) UpsertMeta(ctx context.Context, meta *model.StockMeta, opts ...utils.DBOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.metaRows[meta.Symbol] = *meta
	return nil
}

func (r *fakeStockRepo) UpsertPrices(ctx context.Context, prices []model.StockPrice, opts ...utils.DBOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return r.upsertErr
	}
	for _, p := range prices {
		rows, ok := r.priceRows[p.Symbol]
		if !ok {
			rows = make(map[string]model.StockPrice)
			r.priceRows[p.Symbol] = rows
		}
		rows[p.Date.Format("2006-01-02")] = p
	}
	return nil
}

func (r *fakeStockRepo) GetPrices(ctx context.Context, symbol string, opts ...utils.DBOption) ([]model.StockPrice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.priceRows[symbol]
	dates := make([]string, 0, len(rows))
	for d := range rows {
		dates = append(dates, d)
	}
	// map iteration order is random; return rows date-ascending like the
	// real repository does.
	for i := 0; i < len(dates); i++ {
		for j := i + 1; j < len(dates); j++ {
			if dates[j] < dates[i] {
				dates[i], dates[j] = dates[j], dates[i]
			}
		}
	}
	prices := make([]model.StockPrice, 0, len(dates))
	for _, d := range dates {
		prices = append(prices, rows[d])
	}
	return prices, nil
}

func (r *fakeStockRepo) GetMeta(ctx context.Context, symbol string, opts ...utils.DBOption) (*model.StockMeta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	meta, ok := r.metaRows[symbol]
	if !ok {
		return nil, fmt.Errorf("no meta for %s", symbol)
	}
	return &meta, nil
}

func (r *fakeStockRepo) FindStaleMeta(ctx context.Context, olderThan time.Time, limit int) ([]model.StockMeta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit > 0 && len(r.staleMeta) > limit {
		return r.staleMeta[:limit], nil
	}
	return r.staleMeta, nil
}

// fakeUnitOfWork runs the function without a real transaction.
type fakeUnitOfWork struct {
	runs int
}

func (u *fakeUnitOfWork) Run(fn func(opts ...utils.DBOption) error) error {
	u.runs++
	return fn()
}
