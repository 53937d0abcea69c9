package yahoo

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/trendscreen/internal/collector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYahoo_ImplementsCollector(t *testing.T) {
	var _ collector.Collector = (*Yahoo)(nil)
}

func TestYahoo_Name(t *testing.T) {
	y := New(collector.Config{})
	if y.Name() != "yahoo" {
		t.Errorf("expected 'yahoo', got '%s'", y.Name())
	}
}

func TestValidateSymbol(t *testing.T) {
	tests := []struct {
		symbol  string
		wantErr bool
	}{
		{"SPY", false},
		{"1306.T", false},
		{"BRK-B", false},
		{"^GSPC", false},
		{"", true},
		{"SPY;DROP", true},
		{"../etc", true},
	}
	for _, tc := range tests {
		err := validateSymbol(tc.symbol)
		if (err != nil) != tc.wantErr {
			t.Errorf("validateSymbol(%q) error = %v, wantErr %v", tc.symbol, err, tc.wantErr)
		}
	}
}

const tokyoChart = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "1306.T", "currency": "JPY", "gmtoffset": 32400, "exchangeName": "JPX"},
      "timestamp": [1704240000, 1704326400, 1704412800],
      "indicators": {
        "quote": [{
          "close": [2400.0, null, 2450.0],
          "volume": [100000, 120000, null]
        }],
        "adjclose": [{"adjclose": [2390.0, null, 2440.0]}]
      }
    }],
    "error": null
  }
}`

func TestYahoo_FetchHistory(t *testing.T) {
	var gotPath, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(tokyoChart))
	}))
	defer srv.Close()

	y := New(collector.Config{BaseURL: srv.URL})
	series, err := y.FetchHistory(context.Background(), "1306.T",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "/1306.T", gotPath)
	assert.True(t, strings.Contains(gotUA, "Mozilla"))

	require.Len(t, series.Bars, 3)
	// 1704240000 = 2024-01-03 00:00 UTC = 09:00 JST on 2024-01-03
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), series.Bars[0].Time)
	assert.Equal(t, 2390.0, series.Bars[0].Close, "adjusted close preferred")
	assert.True(t, math.IsNaN(series.Bars[1].Close), "null close must be NaN")
	assert.Equal(t, 120000.0, series.Bars[1].Volume)
	assert.True(t, math.IsNaN(series.Bars[2].Volume), "null volume must be NaN")
}

func TestYahoo_FetchHistory_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	}))
	defer srv.Close()

	y := New(collector.Config{BaseURL: srv.URL})
	_, err := y.FetchHistory(context.Background(), "GONE", time.Now().AddDate(-1, 0, 0), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delisted")
}

func TestYahoo_FetchHistory_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	y := New(collector.Config{BaseURL: srv.URL})
	_, err := y.FetchHistory(context.Background(), "SPY", time.Now().AddDate(-1, 0, 0), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestParseResult_CollapsesRepeatedDay(t *testing.T) {
	one, two := 1.0, 2.0
	r := chartResult{
		Timestamp: []int64{1704290400, 1704312000},
		Indicators: indicators{Quote: []quoteIndicator{{
			Close:  []*float64{&one, &two},
			Volume: []*float64{&one, &two},
		}}},
	}

	series, err := parseResult("SPY", r)
	require.NoError(t, err)
	require.Len(t, series.Bars, 1)
	assert.Equal(t, 2.0, series.Bars[0].Close)
}
