package jobqueue

import (
	"fmt"
	"strings"
)

// Kind enumerates the job types the fabric knows how to run. Routing is done
// on this enum, never on bare strings supplied by callers.
type Kind string

const (
	KindFetch     Kind = "fetch_stock_data"
	KindSentiment Kind = "analyze_sentiment"
	KindTechnical Kind = "analyze_technical"
	KindForecast  Kind = "analyze_forecast"
)

// AnalysisKind maps a requested analysis name to its job kind.
func AnalysisKind(analysis string) (Kind, bool) {
	switch analysis {
	case "sentiment":
		return KindSentiment, true
	case "technical":
		return KindTechnical, true
	case "forecast":
		return KindForecast, true
	}
	return "", false
}

// FetchPayload is the argument of a KindFetch job.
type FetchPayload struct {
	Symbol string `json:"symbol"`
}

// AnalysisPayload is the argument of the analysis kinds. Timeframe is only
// meaningful for KindForecast.
type AnalysisPayload struct {
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe,omitempty"`
}

// Descriptor is a validated job submission: an enumerated kind plus its typed
// payload. Construct one through NewFetchJob or NewAnalysisJob; invalid
// combinations are rejected here rather than at dispatch time.
type Descriptor struct {
	Kind    Kind
	Payload interface{}
}

func NewFetchJob(symbol string) (Descriptor, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return Descriptor{}, fmt.Errorf("fetch job requires a symbol")
	}
	return Descriptor{Kind: KindFetch, Payload: FetchPayload{Symbol: symbol}}, nil
}

func NewAnalysisJob(kind Kind, symbol, timeframe string) (Descriptor, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return Descriptor{}, fmt.Errorf("analysis job requires a symbol")
	}
	switch kind {
	case KindSentiment, KindTechnical:
		if timeframe != "" {
			return Descriptor{}, fmt.Errorf("timeframe is only valid for forecast jobs, got %q for %s", timeframe, kind)
		}
	case KindForecast:
		switch timeframe {
		case "6m", "12m", "3y":
		default:
			return Descriptor{}, fmt.Errorf("invalid forecast timeframe %q", timeframe)
		}
	default:
		return Descriptor{}, fmt.Errorf("unknown analysis kind %q", kind)
	}
	return Descriptor{Kind: kind, Payload: AnalysisPayload{Symbol: symbol, Timeframe: timeframe}}, nil
}
