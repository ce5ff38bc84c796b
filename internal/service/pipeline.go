package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"stonks-manager/config"
	"stonks-manager/internal/dto"
	"stonks-manager/internal/jobqueue"
	"stonks-manager/internal/model"
	"stonks-manager/internal/repository"
	"stonks-manager/pkg/logger"
	"stonks-manager/pkg/utils"
)

// FetchPersistService is the fetch-persist-cache pipeline: one provider
// request, one transaction of idempotent upserts, one best-effort cache warm.
type FetchPersistService interface {
	FetchAndPersist(ctx context.Context, symbol string) (*dto.FetchSummary, error)
}

type fetchPersistService struct {
	cfg            *config.Config
	log            *logger.Logger
	marketDataRepo repository.MarketDataRepository
	stockRepo      repository.StockRepository
	ohlcvCacheRepo repository.OHLCVCacheRepository
	uow            repository.UnitOfWork
}

func NewFetchPersistService(
	cfg *config.Config,
	log *logger.Logger,
	marketDataRepo repository.MarketDataRepository,
	stockRepo repository.StockRepository,
	ohlcvCacheRepo repository.OHLCVCacheRepository,
	uow repository.UnitOfWork,
) FetchPersistService {
	return &fetchPersistService{
		cfg:            cfg,
		log:            log,
		marketDataRepo: marketDataRepo,
		stockRepo:      stockRepo,
		ohlcvCacheRepo: ohlcvCacheRepo,
		uow:            uow,
	}
}

func (s *fetchPersistService) FetchAndPersist(ctx context.Context, symbol string) (*dto.FetchSummary, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	s.log.InfoContext(ctx, "Starting data fetch", logger.StringField("symbol", symbol))

	data, err := s.fetchWithRetry(ctx, symbol)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	meta := model.StockMeta{
		Symbol:      symbol,
		Name:        nullString(data.Meta.Name),
		Sector:      nullString(data.Meta.Sector),
		Currency:    nullString(data.Meta.Currency),
		LastFetched: sql.NullTime{Time: now, Valid: true},
	}

	prices := make([]model.StockPrice, 0, len(data.Records))
	for _, rec := range data.Records {
		prices = append(prices, model.StockPrice{
			Symbol: rec.Symbol,
			Date:   rec.Date,
			Open:   rec.Open,
			High:   rec.High,
			Low:    rec.Low,
			Close:  rec.Close,
			Volume: rec.Volume,
		})
	}

	// Meta and prices commit together or not at all; a failure leaves the
	// previously stored rows untouched.
	err = s.uow.Run(func(opts ...utils.DBOption) error {
		if err := s.stockRepo.UpsertMeta(ctx, &meta, opts...); err != nil {
			return fmt.Errorf("failed to upsert stock meta: %w", err)
		}
		if err := s.stockRepo.UpsertPrices(ctx, prices, opts...); err != nil {
			return fmt.Errorf("failed to upsert stock prices: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist data for %s: %w", symbol, err)
	}

	s.log.InfoContext(ctx, "Persisted OHLCV records",
		logger.StringField("symbol", symbol),
		logger.IntField("records", len(prices)),
	)

	// Cache warm is best effort: the store is the source of truth and a cold
	// cache only costs readers a trip to it.
	if err := s.ohlcvCacheRepo.Put(symbol, data.Records, s.cfg.Cache.OHLCVTTL); err != nil {
		s.log.WarnContext(ctx, "Failed to warm OHLCV cache",
			logger.StringField("symbol", symbol),
			logger.ErrorField(err),
		)
	}

	return &dto.FetchSummary{
		Symbol:       symbol,
		RecordsCount: len(data.Records),
		Meta:         data.Meta,
		Status:       "success",
	}, nil
}

// fetchWithRetry applies the bounded retry policy: rate limits and transient
// errors are retried up to the attempt cap with a fixed, cancellable delay;
// an empty dataset fails immediately.
func (s *fetchPersistService) fetchWithRetry(ctx context.Context, symbol string) (*dto.StockData, error) {
	maxAttempts := s.cfg.Pipeline.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		data, err := s.marketDataRepo.Fetch(ctx, symbol)
		if err == nil {
			return data, nil
		}
		lastErr = err

		if errors.Is(err, repository.ErrNoData) {
			return nil, &jobqueue.JobError{Code: jobqueue.CodeNoData, Err: err}
		}

		if attempt == maxAttempts {
			break
		}

		s.log.WarnContext(ctx, "Fetch attempt failed, retrying",
			logger.StringField("symbol", symbol),
			logger.IntField("attempt", attempt),
			logger.IntField("max_attempts", maxAttempts),
			logger.ErrorField(err),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.cfg.Pipeline.RetryDelay):
		}
	}

	code := jobqueue.CodeExecution
	if errors.Is(lastErr, repository.ErrRateLimited) {
		code = jobqueue.CodeRateLimited
	}
	return nil, &jobqueue.JobError{
		Code: code,
		Err:  fmt.Errorf("fetch failed after %d attempts: %w", maxAttempts, lastErr),
	}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
