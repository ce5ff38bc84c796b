package service

import (
	"context"
	"fmt"

	"stonks-manager/config"
	"stonks-manager/internal/jobqueue"
	"stonks-manager/internal/repository"
	"stonks-manager/pkg/logger"
)

type Service struct {
	Coordinator  CoordinatorService
	FetchPersist FetchPersistService
	Technical    TechnicalService
	Sentiment    SentimentService
	Refresher    RefresherService
}

// NewService wires the services and registers the available job handlers on
// the fabric. The forecast kind has no worker yet; requested forecasts stay
// pending until one is rolled out.
func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
	queue *jobqueue.InProc,
) *Service {
	fetchPersist := NewFetchPersistService(cfg, log, repo.MarketDataRepo, repo.StockRepo, repo.OHLCVCacheRepo, repo.UnitOfWork)
	technical := NewTechnicalService(cfg, log, repo.StockRepo, repo.OHLCVCacheRepo)
	refresher := NewRefresherService(cfg, log, repo.StockRepo, queue)

	queue.Register(jobqueue.KindFetch, func(ctx context.Context, desc jobqueue.Descriptor) (interface{}, error) {
		payload, ok := desc.Payload.(jobqueue.FetchPayload)
		if !ok {
			return nil, fmt.Errorf("unexpected payload type %T for %s", desc.Payload, desc.Kind)
		}
		return fetchPersist.FetchAndPersist(ctx, payload.Symbol)
	})

	queue.Register(jobqueue.KindTechnical, func(ctx context.Context, desc jobqueue.Descriptor) (interface{}, error) {
		payload, ok := desc.Payload.(jobqueue.AnalysisPayload)
		if !ok {
			return nil, fmt.Errorf("unexpected payload type %T for %s", desc.Payload, desc.Kind)
		}
		return technical.Analyze(ctx, payload.Symbol)
	})

	var sentiment SentimentService
	if repo.SentimentRepo != nil {
		sentiment = NewSentimentService(cfg, log, repo.SentimentRepo, repo.StockRepo)
		queue.Register(jobqueue.KindSentiment, func(ctx context.Context, desc jobqueue.Descriptor) (interface{}, error) {
			payload, ok := desc.Payload.(jobqueue.AnalysisPayload)
			if !ok {
				return nil, fmt.Errorf("unexpected payload type %T for %s", desc.Payload, desc.Kind)
			}
			return sentiment.Analyze(ctx, payload.Symbol)
		})
	}

	coordinator := NewCoordinatorService(cfg, log, queue, repo.TaskStore)

	return &Service{
		Coordinator:  coordinator,
		FetchPersist: fetchPersist,
		Technical:    technical,
		Sentiment:    sentiment,
		Refresher:    refresher,
	}
}
