package model

import (
	"database/sql"
	"time"
)

// StockMeta is one row per symbol. LastFetched is refreshed on every fetch so
// the refresher can find symbols that have gone stale.
type StockMeta struct {
	Symbol      string `gorm:"type:varchar(10);primaryKey"`
	Name        sql.NullString `gorm:"type:varchar(255)"`
	Sector      sql.NullString `gorm:"type:varchar(100)"`
	Currency    sql.NullString `gorm:"type:varchar(10)"`
	LastFetched sql.NullTime
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (StockMeta) TableName() string {
	return "stock_meta"
}

// StockPrice is one row per symbol per day. Composite primary key because the
// same (symbol, date) pair must never appear twice; conflicting upserts
// overwrite the OHLCV fields.
type StockPrice struct {
	Symbol string    `gorm:"type:varchar(10);primaryKey"`
	Date   time.Time `gorm:"type:date;primaryKey"`
	Open   float64   `gorm:"type:numeric(14,4)"`
	High   float64   `gorm:"type:numeric(14,4)"`
	Low    float64   `gorm:"type:numeric(14,4)"`
	Close  float64   `gorm:"type:numeric(14,4)"`
	Volume int64     `gorm:"type:bigint"`
}

func (StockPrice) TableName() string {
	return "stock_prices"
}
