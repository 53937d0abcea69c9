// Package universe loads the fixed list of symbols a run screens.
package universe

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/newthinker/trendscreen/internal/core"
)

// MinSymbols is the smallest universe a run accepts.
const MinSymbols = 3

// Entry is one universe row as read from the file.
type Entry struct {
	Ticker string `validate:"required,max=20,ticker"`
	Market string `validate:"omitempty,oneof=JP JPY TSE US USD jp jpy tse us usd"`
	Name   string `validate:"max=200"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("ticker", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return !strings.ContainsAny(s, " \t/\\,;") && !strings.Contains(s, "..")
	})
	return v
}

// Load reads a universe CSV from path. See Parse.
func Load(path string) ([]core.Symbol, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening universe: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a CSV with a required "ticker" column and optional "market" and
// "name" columns. Tickers are trimmed; blanks are skipped and duplicates keep
// their first occurrence. The market column overrides suffix classification.
func Parse(r io.Reader) ([]core.Symbol, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, core.WrapError(core.ErrUniverseTooSmall, fmt.Errorf("universe file is empty"))
		}
		return nil, fmt.Errorf("reading universe header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	tickerCol, ok := cols["ticker"]
	if !ok {
		return nil, fmt.Errorf("universe must have 'ticker' column")
	}

	var out []core.Symbol
	seen := make(map[string]struct{})
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading universe: %w", err)
		}
		line++

		e := Entry{
			Ticker: strings.TrimSpace(field(rec, tickerCol)),
			Market: strings.TrimSpace(field(rec, column(cols, "market"))),
			Name:   strings.TrimSpace(field(rec, column(cols, "name"))),
		}
		if e.Ticker == "" {
			continue
		}
		if _, dup := seen[e.Ticker]; dup {
			continue
		}
		if err := validate.Struct(e); err != nil {
			return nil, fmt.Errorf("universe line %d: %w", line, err)
		}

		market, _ := core.ParseMarket(e.Market, e.Ticker)
		out = append(out, core.Symbol{Ticker: e.Ticker, Market: market})
		seen[e.Ticker] = struct{}{}
	}

	return out, nil
}

// Check enforces the minimum universe size.
func Check(symbols []core.Symbol) error {
	if len(symbols) < MinSymbols {
		return core.WrapError(core.ErrUniverseTooSmall,
			fmt.Errorf("got %d symbols", len(symbols)))
	}
	return nil
}

func column(cols map[string]int, name string) int {
	if i, ok := cols[name]; ok {
		return i
	}
	return -1
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}
