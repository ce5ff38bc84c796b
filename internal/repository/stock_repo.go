package repository

import (
	"context"
	"time"

	"stonks-manager/internal/model"
	"stonks-manager/pkg/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockRepository owns the durable stock_meta and stock_prices tables. These
// are the source of truth; the OHLCV cache is only an accelerator on top.
type StockRepository interface {
	UpsertMeta(ctx context.Context, meta *model.StockMeta, opts ...utils.DBOption) error
	UpsertPrices(ctx context.Context, prices []model.StockPrice, opts ...utils.DBOption) error
	GetPrices(ctx context.Context, symbol string, opts ...utils.DBOption) ([]model.StockPrice, error)
	GetMeta(ctx context.Context, symbol string, opts ...utils.DBOption) (*model.StockMeta, error)
	FindStaleMeta(ctx context.Context, olderThan time.Time, limit int) ([]model.StockMeta, error)
}

type stockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) StockRepository {
	return &stockRepository{db: db}
}

// UpsertMeta inserts the symbol's metadata row or, on conflict, refreshes
// name, sector, currency and last_fetched in place.
func (r *stockRepository) UpsertMeta(ctx context.Context, meta *model.StockMeta, opts ...utils.DBOption) error {
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "symbol"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "sector", "currency", "last_fetched"}),
		}).
		Create(meta).Error
}

// UpsertPrices bulk-inserts price rows, overwriting the OHLCV fields of any
// existing (symbol, date) pair. The upstream revises historical prices, so
// overwriting on conflict is intentional.
func (r *stockRepository) UpsertPrices(ctx context.Context, prices []model.StockPrice, opts ...utils.DBOption) error {
	if len(prices) == 0 {
		return nil
	}
	return utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "symbol"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume"}),
		}).
		CreateInBatches(prices, 500).Error
}

func (r *stockRepository) GetPrices(ctx context.Context, symbol string, opts ...utils.DBOption) ([]model.StockPrice, error) {
	var prices []model.StockPrice
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("symbol = ?", symbol).
		Order("date ASC").
		Find(&prices).Error
	if err != nil {
		return nil, err
	}
	return prices, nil
}

func (r *stockRepository) GetMeta(ctx context.Context, symbol string, opts ...utils.DBOption) (*model.StockMeta, error) {
	var meta model.StockMeta
	err := utils.ApplyOptions(r.db.WithContext(ctx), opts...).
		Where("symbol = ?", symbol).
		First(&meta).Error
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// FindStaleMeta returns symbols whose last fetch is older than the given
// cutoff, oldest first.
func (r *stockRepository) FindStaleMeta(ctx context.Context, olderThan time.Time, limit int) ([]model.StockMeta, error) {
	var metas []model.StockMeta
	db := r.db.WithContext(ctx).
		Where("last_fetched IS NULL OR last_fetched < ?", olderThan).
		Order("last_fetched ASC NULLS FIRST")
	if limit > 0 {
		db = db.Limit(limit)
	}
	if err := db.Find(&metas).Error; err != nil {
		return nil, err
	}
	return metas, nil
}
