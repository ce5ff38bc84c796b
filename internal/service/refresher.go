package service

import (
	"context"
	"fmt"
	"time"

	"stonks-manager/config"
	"stonks-manager/internal/jobqueue"
	"stonks-manager/internal/repository"
	"stonks-manager/pkg/logger"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

// RefresherService periodically re-submits fetch jobs for symbols whose
// last_fetched has gone stale, so stored history keeps converging to the
// upstream without waiting for a client request.
type RefresherService interface {
	Start() error
	Stop()
	RefreshStale(ctx context.Context) (int, error)
}

type refresherService struct {
	cfg       *config.Config
	log       *logger.Logger
	stockRepo repository.StockRepository
	queue     jobqueue.Queue
	cron      *cron.Cron
}

func NewRefresherService(cfg *config.Config, log *logger.Logger, stockRepo repository.StockRepository, queue jobqueue.Queue) RefresherService {
	return &refresherService{
		cfg:       cfg,
		log:       log,
		stockRepo: stockRepo,
		queue:     queue,
		cron:      cron.New(),
	}
}

func (s *refresherService) Start() error {
	if !s.cfg.Refresher.Enabled {
		s.log.Info("Symbol refresher disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.cfg.Refresher.CronSpec, func() {
		ctx := context.Background()
		count, err := s.RefreshStale(ctx)
		if err != nil {
			s.log.ErrorContext(ctx, "Stale symbol refresh failed", logger.ErrorField(err))
			return
		}
		s.log.InfoContext(ctx, "Stale symbol refresh dispatched", logger.IntField("symbols", count))
	})
	if err != nil {
		return fmt.Errorf("failed to schedule refresher: %w", err)
	}

	s.cron.Start()
	s.log.Info("Symbol refresher started", logger.StringField("cron_spec", s.cfg.Refresher.CronSpec))
	return nil
}

func (s *refresherService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// RefreshStale submits one fetch job per stale symbol and returns how many
// were dispatched.
func (s *refresherService) RefreshStale(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.cfg.Refresher.StaleAfter)
	metas, err := s.stockRepo.FindStaleMeta(ctx, cutoff, s.cfg.Refresher.BatchLimit)
	if err != nil {
		return 0, fmt.Errorf("failed to find stale symbols: %w", err)
	}
	if len(metas) == 0 {
		return 0, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, meta := range metas {
		symbol := meta.Symbol
		g.Go(func() error {
			desc, err := jobqueue.NewFetchJob(symbol)
			if err != nil {
				return err
			}
			if _, err := s.queue.Submit(gctx, desc); err != nil {
				return fmt.Errorf("failed to submit refresh for %s: %w", symbol, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(metas), nil
}
