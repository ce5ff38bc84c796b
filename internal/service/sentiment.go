package service

import (
	"context"
	"strings"

	"stonks-manager/config"
	"stonks-manager/internal/dto"
	"stonks-manager/internal/repository"
	"stonks-manager/pkg/logger"
)

// SentimentService scores market sentiment for a symbol via the Gemini-backed
// repository. The worker is only registered when a Gemini key is configured.
type SentimentService interface {
	Analyze(ctx context.Context, symbol string) (*dto.SentimentResult, error)
}

type sentimentService struct {
	cfg           *config.Config
	log           *logger.Logger
	sentimentRepo repository.SentimentAIRepository
	stockRepo     repository.StockRepository
}

func NewSentimentService(cfg *config.Config, log *logger.Logger, sentimentRepo repository.SentimentAIRepository, stockRepo repository.StockRepository) SentimentService {
	return &sentimentService{
		cfg:           cfg,
		log:           log,
		sentimentRepo: sentimentRepo,
		stockRepo:     stockRepo,
	}
}

func (s *sentimentService) Analyze(ctx context.Context, symbol string) (*dto.SentimentResult, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	// Company name improves the prompt but is not required; the fetched meta
	// may legitimately not exist yet for a never-fetched symbol.
	name := ""
	if meta, err := s.stockRepo.GetMeta(ctx, symbol); err == nil && meta.Name.Valid {
		name = meta.Name.String
	}

	return s.sentimentRepo.AnalyzeSentiment(ctx, symbol, name)
}
