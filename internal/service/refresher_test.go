package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stonks-manager/config"
	"stonks-manager/internal/jobqueue"
	"stonks-manager/internal/model"
	"stonks-manager/pkg/logger"
)

func refresherConfig() *config.Config {
	return &config.Config{
		Refresher: config.Refresher{
			Enabled:    true,
			CronSpec:   "0 * * * *",
			StaleAfter: 24 * time.Hour,
			BatchLimit: 20,
		},
	}
}

func TestRefreshStale_SubmitsFetchPerSymbol(t *testing.T) {
	queue := newFakeQueue(jobqueue.KindFetch)
	stockRepo := newFakeStockRepo()
	stockRepo.staleMeta = []model.StockMeta{
		{Symbol: "AAPL"},
		{Symbol: "MSFT"},
		{Symbol: "GOOG"},
	}

	svc := NewRefresherService(refresherConfig(), logger.NewNop(), stockRepo, queue)

	count, err := svc.RefreshStale(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.Len(t, queue.submitted, 3)
	symbols := make(map[string]bool)
	for _, desc := range queue.submitted {
		assert.Equal(t, jobqueue.KindFetch, desc.Kind)
		payload, ok := desc.Payload.(jobqueue.FetchPayload)
		require.True(t, ok)
		symbols[payload.Symbol] = true
	}
	assert.True(t, symbols["AAPL"] && symbols["MSFT"] && symbols["GOOG"])
}

func TestRefreshStale_NothingStale(t *testing.T) {
	queue := newFakeQueue(jobqueue.KindFetch)
	svc := NewRefresherService(refresherConfig(), logger.NewNop(), newFakeStockRepo(), queue)

	count, err := svc.RefreshStale(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, queue.submitted)
}
