package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/newthinker/trendscreen/internal/collector"
)

const (
	defaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	userAgent      = "Mozilla/5.0 (compatible; trendscreen)"
)

// validSymbol matches tickers like SPY, BRK-B, 1306.T, ^GSPC
var validSymbol = regexp.MustCompile(`^\^?[A-Za-z0-9\-]{1,10}(\.[A-Za-z]{1,4})?$`)

// validateSymbol checks if a symbol has valid format
func validateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > 20 {
		return fmt.Errorf("symbol too long: %s", symbol)
	}
	if !validSymbol.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}

// Yahoo implements the Yahoo Finance daily history collector
type Yahoo struct {
	client  *http.Client
	baseURL string
}

// New creates a new Yahoo collector
func New(cfg collector.Config) *Yahoo {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return &Yahoo{
		client:  &http.Client{Timeout: timeout},
		baseURL: base,
	}
}

func (y *Yahoo) Name() string {
	return "yahoo"
}

// FetchHistory fetches split/dividend adjusted daily closes and raw volume.
func (y *Yahoo) FetchHistory(ctx context.Context, symbol string, start, end time.Time) (collector.Series, error) {
	if err := validateSymbol(symbol); err != nil {
		return collector.Series{}, err
	}

	u := fmt.Sprintf("%s/%s?interval=1d&period1=%d&period2=%d&events=div%%2Csplit",
		y.baseURL, url.PathEscape(symbol), start.Unix(), end.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return collector.Series{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := y.client.Do(req)
	if err != nil {
		return collector.Series{}, fmt.Errorf("fetching history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return collector.Series{}, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return collector.Series{}, fmt.Errorf("decoding response: %w", err)
	}

	if result.Chart.Error != nil {
		return collector.Series{}, fmt.Errorf("yahoo error: %s", result.Chart.Error.Description)
	}

	if len(result.Chart.Result) == 0 {
		return collector.Series{}, fmt.Errorf("no data for symbol: %s", symbol)
	}

	return parseResult(symbol, result.Chart.Result[0])
}

// parseResult converts the chart payload to bars dated in the exchange's
// local calendar. Null closes or volumes become NaN.
func parseResult(symbol string, r chartResult) (collector.Series, error) {
	if len(r.Indicators.Quote) == 0 {
		return collector.Series{}, fmt.Errorf("no quote indicators for symbol: %s", symbol)
	}
	quotes := r.Indicators.Quote[0]

	var adjusted []*float64
	if len(r.Indicators.AdjClose) > 0 {
		adjusted = r.Indicators.AdjClose[0].AdjClose
	}

	offset := time.Duration(r.Meta.GMTOffset) * time.Second

	bars := make([]collector.Bar, 0, len(r.Timestamp))
	var last time.Time
	for i, ts := range r.Timestamp {
		local := time.Unix(ts, 0).UTC().Add(offset)
		y, m, d := local.Date()
		date := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

		closePx := valueAt(quotes.Close, i)
		if adj := valueAt(adjusted, i); !math.IsNaN(adj) {
			closePx = adj
		}
		bar := collector.Bar{
			Time:   date,
			Close:  closePx,
			Volume: valueAt(quotes.Volume, i),
		}

		// Yahoo occasionally repeats the live bar; keep the latest value per day.
		if len(bars) > 0 && !date.After(last) {
			if date.Equal(last) {
				bars[len(bars)-1] = bar
			}
			continue
		}
		bars = append(bars, bar)
		last = date
	}

	return collector.Series{Symbol: symbol, Bars: bars}, nil
}

func valueAt(values []*float64, i int) float64 {
	if i >= len(values) || values[i] == nil {
		return math.NaN()
	}
	return *values[i]
}

// Yahoo API response types
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta       chartMeta  `json:"meta"`
	Timestamp  []int64    `json:"timestamp"`
	Indicators indicators `json:"indicators"`
}

type chartMeta struct {
	Symbol       string `json:"symbol"`
	Currency     string `json:"currency"`
	GMTOffset    int64  `json:"gmtoffset"`
	ExchangeName string `json:"exchangeName"`
}

type indicators struct {
	Quote    []quoteIndicator    `json:"quote"`
	AdjClose []adjCloseIndicator `json:"adjclose"`
}

type quoteIndicator struct {
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

type adjCloseIndicator struct {
	AdjClose []*float64 `json:"adjclose"`
}
