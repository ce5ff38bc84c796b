package dto

import "time"

// TechnicalResult is the success payload of a technical analysis job.
type TechnicalResult struct {
	Symbol      string    `json:"symbol"`
	LastClose   float64   `json:"last_close"`
	SMA20       float64   `json:"sma_20"`
	SMA50       float64   `json:"sma_50"`
	RSI14       float64   `json:"rsi_14"`
	Trend       string    `json:"trend"`
	RecordsUsed int       `json:"records_used"`
	AsOf        time.Time `json:"as_of"`
}

// SentimentResult is the success payload of a sentiment analysis job.
type SentimentResult struct {
	Symbol    string  `json:"symbol"`
	Sentiment string  `json:"sentiment"`
	Score     float64 `json:"score"`
	Summary   string  `json:"summary"`
}
