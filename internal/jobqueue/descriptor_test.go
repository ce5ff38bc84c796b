package jobqueue

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFetchJob(t *testing.T) {
	desc, err := NewFetchJob("  aapl ")
	require.NoError(t, err)
	assert.Equal(t, KindFetch, desc.Kind)
	assert.Equal(t, FetchPayload{Symbol: "AAPL"}, desc.Payload)

	_, err = NewFetchJob("   ")
	assert.Error(t, err)
}

func TestNewAnalysisJob(t *testing.T) {
	tests := []struct {
		name      string
		kind      Kind
		symbol    string
		timeframe string
		wantErr   bool
	}{
		{name: "technical", kind: KindTechnical, symbol: "aapl"},
		{name: "sentiment", kind: KindSentiment, symbol: "MSFT"},
		{name: "forecast with timeframe", kind: KindForecast, symbol: "AAPL", timeframe: "12m"},
		{name: "forecast missing timeframe", kind: KindForecast, symbol: "AAPL", wantErr: true},
		{name: "forecast bad timeframe", kind: KindForecast, symbol: "AAPL", timeframe: "5y", wantErr: true},
		{name: "timeframe on technical", kind: KindTechnical, symbol: "AAPL", timeframe: "6m", wantErr: true},
		{name: "empty symbol", kind: KindTechnical, symbol: " ", wantErr: true},
		{name: "fetch is not an analysis", kind: KindFetch, symbol: "AAPL", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc, err := NewAnalysisJob(tt.kind, tt.symbol, tt.timeframe)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, desc.Kind)
			payload, ok := desc.Payload.(AnalysisPayload)
			require.True(t, ok)
			assert.Equal(t, strings.ToUpper(strings.TrimSpace(tt.symbol)), payload.Symbol)
			assert.Equal(t, tt.timeframe, payload.Timeframe)
		})
	}
}

func TestAnalysisKind(t *testing.T) {
	kind, ok := AnalysisKind("technical")
	assert.True(t, ok)
	assert.Equal(t, KindTechnical, kind)

	_, ok = AnalysisKind("astrology")
	assert.False(t, ok)
}
