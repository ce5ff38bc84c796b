package dto

import "time"

// OHLCVRecord is one trading day for a symbol, the shape shared by the
// persistent store, the cache and the fetch summary.
type OHLCVRecord struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// StockMetaInfo carries provider metadata for a symbol. Name, sector and
// currency are provider dependent and may be empty.
type StockMetaInfo struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name,omitempty"`
	Sector   string `json:"sector,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// FetchSummary is the result the queue exposes to the coordinator for the
// data role after a successful fetch-and-persist run.
type FetchSummary struct {
	Symbol       string        `json:"symbol"`
	RecordsCount int           `json:"records_count"`
	Meta         StockMetaInfo `json:"meta"`
	Status       string        `json:"status"`
}

// ChartResponse mirrors the provider's chart endpoint. The quote arrays run
// parallel to Timestamp; entries are pointers because the provider emits
// nulls for days with data gaps (holidays, halts).
type ChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				LongName           string  `json:"longName"`
				ShortName          string  `json:"shortName"`
				Sector             string  `json:"sector"`
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

// StockData is the normalized provider payload handed to the pipeline.
type StockData struct {
	Meta    StockMetaInfo
	Records []OHLCVRecord
}
