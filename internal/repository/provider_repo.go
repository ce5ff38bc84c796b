package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"stonks-manager/config"
	"stonks-manager/internal/dto"
	"stonks-manager/pkg/httpclient"
	"stonks-manager/pkg/logger"
	"stonks-manager/pkg/utils"

	"golang.org/x/time/rate"
)

var (
	// ErrRateLimited marks a provider 429; callers may retry.
	ErrRateLimited = errors.New("provider rate limited")
	// ErrNoData marks a definitively empty dataset; not retryable.
	ErrNoData = errors.New("no historical data returned")
)

// MarketDataRepository retrieves price history and metadata from the external
// provider in one combined request.
type MarketDataRepository interface {
	Fetch(ctx context.Context, symbol string) (*dto.StockData, error)
}

type marketDataRepository struct {
	httpClient     httpclient.HTTPClient
	cfg            *config.Config
	logger         *logger.Logger
	requestLimiter *rate.Limiter
}

func NewMarketDataRepository(cfg *config.Config, log *logger.Logger) MarketDataRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.Provider.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	return &marketDataRepository{
		httpClient:     httpclient.New(cfg.Provider.BaseURL, cfg.Provider.Timeout),
		cfg:            cfg,
		logger:         log,
		requestLimiter: requestLimiter,
	}
}

// Fetch issues one chart request covering both OHLCV history and metadata.
// Combining them keeps the request count, and with it rate-limit exposure,
// at one per fetch.
func (r *marketDataRepository) Fetch(ctx context.Context, symbol string) (*dto.StockData, error) {
	if !r.requestLimiter.Allow() {
		r.logger.WarnContext(ctx, "Provider request limit reached, waiting",
			logger.IntField("max_request_per_minute", r.cfg.Provider.MaxRequestPerMinute),
		)
	}
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := "/" + strings.ToUpper(symbol)
	queryParams := map[string]string{
		"range":    r.cfg.Provider.HistoryRange,
		"interval": r.cfg.Provider.Interval,
	}

	headers := map[string]string{
		"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0.0.0 Safari/537.36",
		"Accept":     "application/json, text/plain, */*",
	}

	var chartResp dto.ChartResponse
	resp, err := r.httpClient.Get(ctx, endpoint, queryParams, headers, &chartResp)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch data from provider: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("provider returned 429 for %s: %w", symbol, ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		r.logger.ErrorContext(ctx, "Provider returned non-OK status",
			logger.IntField("status_code", resp.StatusCode),
			logger.StringField("body", string(resp.Body)),
		)
		return nil, fmt.Errorf("provider returned status %d for %s", resp.StatusCode, symbol)
	}

	if chartResp.Chart.Error != nil {
		return nil, fmt.Errorf("provider error for %s: %v", symbol, chartResp.Chart.Error)
	}

	return normalizeChart(symbol, &chartResp)
}

// normalizeChart builds one OHLCV record per timestamp, skipping any
// timestamp where open, high, low, close or volume is missing (data gaps,
// holidays). Prices are rounded to 4 decimal places.
func normalizeChart(symbol string, chartResp *dto.ChartResponse) (*dto.StockData, error) {
	symbol = strings.ToUpper(symbol)

	if len(chartResp.Chart.Result) == 0 {
		return nil, fmt.Errorf("symbol %s: %w", symbol, ErrNoData)
	}

	result := chartResp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("symbol %s has no quote data: %w", symbol, ErrNoData)
	}

	quote := result.Indicators.Quote[0]
	var records []dto.OHLCVRecord
	for i, timestamp := range result.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) ||
			i >= len(quote.Close) || i >= len(quote.Volume) {
			continue
		}
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil ||
			quote.Close[i] == nil || quote.Volume[i] == nil {
			continue
		}

		day := time.Unix(timestamp, 0).UTC()
		records = append(records, dto.OHLCVRecord{
			Symbol: symbol,
			Date:   time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC),
			Open:   utils.RoundTo(*quote.Open[i], 4),
			High:   utils.RoundTo(*quote.High[i], 4),
			Low:    utils.RoundTo(*quote.Low[i], 4),
			Close:  utils.RoundTo(*quote.Close[i], 4),
			Volume: *quote.Volume[i],
		})
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("symbol %s: %w", symbol, ErrNoData)
	}

	name := result.Meta.LongName
	if name == "" {
		name = result.Meta.ShortName
	}

	return &dto.StockData{
		Meta: dto.StockMetaInfo{
			Symbol:   symbol,
			Name:     name,
			Sector:   result.Meta.Sector,
			Currency: result.Meta.Currency,
		},
		Records: records,
	}, nil
}
