package repository

import (
	"stonks-manager/config"
	"stonks-manager/pkg/cache"
	"stonks-manager/pkg/logger"

	"gorm.io/gorm"
)

type Repository struct {
	MarketDataRepo MarketDataRepository
	StockRepo      StockRepository
	JobRunRepo     JobRunRepository
	TaskStore      TaskStore
	OHLCVCacheRepo OHLCVCacheRepository
	SentimentRepo  SentimentAIRepository
	UnitOfWork     UnitOfWork
}

func NewRepository(cfg *config.Config, inmemoryCache cache.Cache, db *gorm.DB, log *logger.Logger) (*Repository, error) {
	repo := &Repository{
		MarketDataRepo: NewMarketDataRepository(cfg, log),
		StockRepo:      NewStockRepository(db),
		JobRunRepo:     NewJobRunRepository(db),
		TaskStore:      NewTaskStore(inmemoryCache, cfg.Task.TTL),
		OHLCVCacheRepo: NewOHLCVCacheRepository(inmemoryCache),
		UnitOfWork:     NewUnitOfWork(db),
	}

	// Sentiment rolls out only when a Gemini key is configured.
	if cfg.Gemini.APIKey != "" {
		sentimentRepo, err := NewSentimentAIRepository(cfg, log)
		if err != nil {
			return nil, err
		}
		repo.SentimentRepo = sentimentRepo
	}

	return repo, nil
}
