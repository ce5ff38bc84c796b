package repository

import (
	"encoding/json"
	"testing"
	"time"

	"stonks-manager/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chartFromJSON(t *testing.T, raw string) *dto.ChartResponse {
	t.Helper()
	var resp dto.ChartResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	return &resp
}

func TestNormalizeChart(t *testing.T) {
	tests := []struct {
		name        string
		symbol      string
		raw         string
		wantRecords int
		wantErr     error
	}{
		{
			name:   "all timestamps valid",
			symbol: "aapl",
			raw: `{"chart":{"result":[{
				"meta":{"symbol":"AAPL","longName":"Apple Inc.","currency":"USD"},
				"timestamp":[1704153600,1704240000,1704326400],
				"indicators":{"quote":[{
					"open":[185.1,186.2,187.3],
					"high":[186.0,187.1,188.2],
					"low":[184.0,185.1,186.2],
					"close":[185.5,186.6,187.7],
					"volume":[1000,2000,3000]
				}]}
			}]}}`,
			wantRecords: 3,
		},
		{
			name:   "one null volume among three timestamps",
			symbol: "AAPL",
			raw: `{"chart":{"result":[{
				"meta":{"symbol":"AAPL"},
				"timestamp":[1704153600,1704240000,1704326400],
				"indicators":{"quote":[{
					"open":[185.1,186.2,187.3],
					"high":[186.0,187.1,188.2],
					"low":[184.0,185.1,186.2],
					"close":[185.5,186.6,187.7],
					"volume":[1000,null,3000]
				}]}
			}]}}`,
			wantRecords: 2,
		},
		{
			name:   "null close skipped",
			symbol: "AAPL",
			raw: `{"chart":{"result":[{
				"meta":{"symbol":"AAPL"},
				"timestamp":[1704153600,1704240000],
				"indicators":{"quote":[{
					"open":[185.1,186.2],
					"high":[186.0,187.1],
					"low":[184.0,185.1],
					"close":[null,186.6],
					"volume":[1000,2000]
				}]}
			}]}}`,
			wantRecords: 1,
		},
		{
			name:    "empty result",
			symbol:  "NOPE",
			raw:     `{"chart":{"result":[]}}`,
			wantErr: ErrNoData,
		},
		{
			name:   "no quote data",
			symbol: "NOPE",
			raw: `{"chart":{"result":[{
				"meta":{"symbol":"NOPE"},
				"timestamp":[],
				"indicators":{"quote":[]}
			}]}}`,
			wantErr: ErrNoData,
		},
		{
			name:   "all rows gapped",
			symbol: "GAPS",
			raw: `{"chart":{"result":[{
				"meta":{"symbol":"GAPS"},
				"timestamp":[1704153600],
				"indicators":{"quote":[{
					"open":[null],"high":[null],"low":[null],"close":[null],"volume":[null]
				}]}
			}]}}`,
			wantErr: ErrNoData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := normalizeChart(tt.symbol, chartFromJSON(t, tt.raw))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, data.Records, tt.wantRecords)
			for _, rec := range data.Records {
				assert.Equal(t, "AAPL", rec.Symbol, "symbol must be normalized to upper case")
			}
		})
	}
}

func TestNormalizeChart_RoundsAndTruncatesDates(t *testing.T) {
	raw := `{"chart":{"result":[{
		"meta":{"symbol":"MSFT","shortName":"Microsoft"},
		"timestamp":[1704205800],
		"indicators":{"quote":[{
			"open":[376.123456],
			"high":[377.987654],
			"low":[375.000049],
			"close":[376.55555],
			"volume":[123456789]
		}]}
	}]}}`

	data, err := normalizeChart("MSFT", chartFromJSON(t, raw))
	require.NoError(t, err)
	require.Len(t, data.Records, 1)

	rec := data.Records[0]
	assert.Equal(t, 376.1235, rec.Open)
	assert.Equal(t, 377.9877, rec.High)
	assert.Equal(t, 375.0, rec.Low)
	assert.Equal(t, 376.5556, rec.Close)
	assert.Equal(t, int64(123456789), rec.Volume)

	// Intraday timestamp collapses to a date.
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), rec.Date)

	// longName absent, shortName used.
	assert.Equal(t, "Microsoft", data.Meta.Name)
}
