package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stonks-manager/config"
	"stonks-manager/internal/dto"
	"stonks-manager/internal/jobqueue"
	"stonks-manager/internal/repository"
	"stonks-manager/pkg/logger"
	"stonks-manager/pkg/utils"
)

// TechnicalService computes indicator-based analysis over a symbol's stored
// OHLCV history. It reads through the cache: a miss means consult the
// persistent store, never "no such data".
type TechnicalService interface {
	Analyze(ctx context.Context, symbol string) (*dto.TechnicalResult, error)
}

type technicalService struct {
	cfg            *config.Config
	log            *logger.Logger
	stockRepo      repository.StockRepository
	ohlcvCacheRepo repository.OHLCVCacheRepository
}

func NewTechnicalService(cfg *config.Config, log *logger.Logger, stockRepo repository.StockRepository, ohlcvCacheRepo repository.OHLCVCacheRepository) TechnicalService {
	return &technicalService{
		cfg:            cfg,
		log:            log,
		stockRepo:      stockRepo,
		ohlcvCacheRepo: ohlcvCacheRepo,
	}
}

func (s *technicalService) Analyze(ctx context.Context, symbol string) (*dto.TechnicalResult, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	records, err := s.loadRecords(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &jobqueue.JobError{
			Code: jobqueue.CodeNoData,
			Err:  fmt.Errorf("no stored price data for %s", symbol),
		}
	}

	closes := make([]float64, len(records))
	for i, rec := range records {
		closes[i] = rec.Close
	}

	sma20, err := simpleMovingAverage(closes, 20)
	if err != nil {
		return nil, &jobqueue.JobError{Code: jobqueue.CodeNoData, Err: err}
	}
	sma50, err := simpleMovingAverage(closes, 50)
	if err != nil {
		return nil, &jobqueue.JobError{Code: jobqueue.CodeNoData, Err: err}
	}
	rsi14 := relativeStrengthIndex(closes, 14)

	lastClose := closes[len(closes)-1]
	trend := "sideways"
	switch {
	case lastClose > sma20 && sma20 > sma50:
		trend = "uptrend"
	case lastClose < sma20 && sma20 < sma50:
		trend = "downtrend"
	}

	return &dto.TechnicalResult{
		Symbol:      symbol,
		LastClose:   lastClose,
		SMA20:       utils.RoundTo(sma20, 4),
		SMA50:       utils.RoundTo(sma50, 4),
		RSI14:       utils.RoundTo(rsi14, 2),
		Trend:       trend,
		RecordsUsed: len(records),
		AsOf:        time.Now().UTC(),
	}, nil
}

func (s *technicalService) loadRecords(ctx context.Context, symbol string) ([]dto.OHLCVRecord, error) {
	records, hit, err := s.ohlcvCacheRepo.Get(symbol)
	if err != nil {
		s.log.WarnContext(ctx, "OHLCV cache read failed, falling back to store",
			logger.StringField("symbol", symbol),
			logger.ErrorField(err),
		)
	}
	if hit && err == nil {
		return records, nil
	}

	prices, err := s.stockRepo.GetPrices(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to load prices for %s: %w", symbol, err)
	}

	records = make([]dto.OHLCVRecord, 0, len(prices))
	for _, p := range prices {
		records = append(records, dto.OHLCVRecord{
			Symbol: p.Symbol,
			Date:   p.Date,
			Open:   p.Open,
			High:   p.High,
			Low:    p.Low,
			Close:  p.Close,
			Volume: p.Volume,
		})
	}
	return records, nil
}

// simpleMovingAverage computes the SMA of the trailing `period` prices.
func simpleMovingAverage(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, fmt.Errorf("not enough data for SMA%d: have %d closes", period, len(prices))
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// relativeStrengthIndex computes the Wilder-smoothed RSI. Returns a neutral
// 50 when there are fewer than period+1 closes.
func relativeStrengthIndex(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return 50.0
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
