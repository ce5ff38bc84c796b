package repository

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"stonks-manager/internal/dto"
	"stonks-manager/pkg/cache"
)

const ohlcvDateLayout = "2006-01-02"

// OHLCVCacheRepository is the best-effort read accelerator for price data.
// Entries live under `stock:{SYMBOL}:ohlcv` as a JSON array with ISO-8601
// dates and expire on TTL only. A miss means "consult the persistent store",
// never "no such data".
type OHLCVCacheRepository interface {
	Put(symbol string, records []dto.OHLCVRecord, ttl time.Duration) error
	Get(symbol string) ([]dto.OHLCVRecord, bool, error)
}

type ohlcvCacheRepository struct {
	cache cache.Cache
}

func NewOHLCVCacheRepository(c cache.Cache) OHLCVCacheRepository {
	return &ohlcvCacheRepository{cache: c}
}

// cachedOHLCV is the wire shape of one cached record: same fields as a
// stock_prices row, with the date as a canonical ISO-8601 string.
type cachedOHLCV struct {
	Symbol string  `json:"symbol"`
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

func ohlcvKey(symbol string) string {
	return fmt.Sprintf("stock:%s:ohlcv", strings.ToUpper(symbol))
}

func (r *ohlcvCacheRepository) Put(symbol string, records []dto.OHLCVRecord, ttl time.Duration) error {
	serialized := make([]cachedOHLCV, 0, len(records))
	for _, rec := range records {
		serialized = append(serialized, cachedOHLCV{
			Symbol: rec.Symbol,
			Date:   rec.Date.Format(ohlcvDateLayout),
			Open:   rec.Open,
			High:   rec.High,
			Low:    rec.Low,
			Close:  rec.Close,
			Volume: rec.Volume,
		})
	}

	raw, err := json.Marshal(serialized)
	if err != nil {
		return fmt.Errorf("failed to serialize OHLCV records for %s: %w", symbol, err)
	}
	r.cache.Set(ohlcvKey(symbol), raw, ttl)
	return nil
}

func (r *ohlcvCacheRepository) Get(symbol string) ([]dto.OHLCVRecord, bool, error) {
	raw, ok := cache.GetTyped[[]byte](r.cache, ohlcvKey(symbol))
	if !ok {
		return nil, false, nil
	}

	var serialized []cachedOHLCV
	if err := json.Unmarshal(raw, &serialized); err != nil {
		return nil, false, fmt.Errorf("failed to deserialize OHLCV cache for %s: %w", symbol, err)
	}

	records := make([]dto.OHLCVRecord, 0, len(serialized))
	for _, rec := range serialized {
		date, err := time.Parse(ohlcvDateLayout, rec.Date)
		if err != nil {
			return nil, false, fmt.Errorf("invalid date %q in OHLCV cache for %s: %w", rec.Date, symbol, err)
		}
		records = append(records, dto.OHLCVRecord{
			Symbol: rec.Symbol,
			Date:   date,
			Open:   rec.Open,
			High:   rec.High,
			Low:    rec.Low,
			Close:  rec.Close,
			Volume: rec.Volume,
		})
	}
	return records, true, nil
}
