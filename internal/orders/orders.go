// Package orders turns two pick sets into the ADD/DROP actions that move a
// portfolio from one to the other.
package orders

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

// Action is the portfolio change an order makes.
type Action string

const (
	ActionAdd  Action = "ADD"
	ActionDrop Action = "DROP"
)

// Side is the trade direction.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

const (
	NoteSellAll      = "sell entire position (use current holdings quantity)"
	NotePriceMissing = "price missing, set quantity manually"
)

// Lot rounds target notionals down to a multiple of this amount.
var Lot = decimal.NewFromInt(1000)

type quantityKind int

const (
	quantityUnknown quantityKind = iota
	quantityCount
	quantityAll
)

// Quantity is a share count, the whole position, or unknown.
type Quantity struct {
	kind  quantityKind
	count int64
}

// Shares returns a fixed share count.
func Shares(n int64) Quantity {
	return Quantity{kind: quantityCount, count: n}
}

// All is the entire current holding.
func All() Quantity {
	return Quantity{kind: quantityAll}
}

// Unknown is a quantity that has to be filled in by hand.
func Unknown() Quantity {
	return Quantity{}
}

// Count returns the share count and whether the quantity is a count.
func (q Quantity) Count() (int64, bool) {
	return q.count, q.kind == quantityCount
}

func (q Quantity) IsAll() bool     { return q.kind == quantityAll }
func (q Quantity) IsUnknown() bool { return q.kind == quantityUnknown }

// String renders the quantity for tabular output; unknown is blank.
func (q Quantity) String() string {
	switch q.kind {
	case quantityCount:
		return strconv.FormatInt(q.count, 10)
	case quantityAll:
		return "ALL"
	default:
		return ""
	}
}

// Order is one line of the monthly order sheet.
type Order struct {
	Symbol         string
	Action         Action
	Side           Side
	Quantity       Quantity
	RefPrice       *float64
	TargetNotional *float64
	Note           string
}

// Sizing holds the equal-weight slot parameters.
type Sizing struct {
	PortfolioValue float64
	TopN           int
}

// TargetNotional is the per-slot amount rounded down to whole lots.
func (s Sizing) TargetNotional() decimal.Decimal {
	if s.TopN <= 0 {
		return decimal.Zero
	}
	slot := decimal.NewFromFloat(s.PortfolioValue).Div(decimal.NewFromInt(int64(s.TopN)))
	return slot.Div(Lot).Floor().Mul(Lot)
}

// Diff computes DROP = previous - current and ADD = current - previous.
// Symbols in both sets produce nothing. prices maps symbols to their last
// close; a missing or non-positive price leaves an ADD quantity unknown.
// DROPs come first, each group sorted by symbol.
func Diff(previous, current []string, prices map[string]float64, sizing Sizing) []Order {
	prev := toSet(previous)
	cur := toSet(current)

	var drops, adds []string
	for s := range prev {
		if _, ok := cur[s]; !ok {
			drops = append(drops, s)
		}
	}
	for s := range cur {
		if _, ok := prev[s]; !ok {
			adds = append(adds, s)
		}
	}
	sort.Strings(drops)
	sort.Strings(adds)

	out := make([]Order, 0, len(drops)+len(adds))
	for _, s := range drops {
		out = append(out, Order{
			Symbol:   s,
			Action:   ActionDrop,
			Side:     SideSell,
			Quantity: All(),
			RefPrice: priceOf(prices, s),
			Note:     NoteSellAll,
		})
	}

	target := sizing.TargetNotional()
	targetF := target.InexactFloat64()
	for _, s := range adds {
		o := Order{
			Symbol:         s,
			Action:         ActionAdd,
			Side:           SideBuy,
			Quantity:       Unknown(),
			RefPrice:       priceOf(prices, s),
			TargetNotional: &targetF,
		}
		if o.RefPrice != nil && *o.RefPrice > 0 {
			qty := target.Div(decimal.NewFromFloat(*o.RefPrice)).Floor().IntPart()
			o.Quantity = Shares(qty)
			o.Note = fmt.Sprintf("target ~%s => qty=%d", target.String(), qty)
		} else {
			o.Note = NotePriceMissing
		}
		out = append(out, o)
	}
	return out
}

// Split separates orders by action.
func Split(orders []Order) (adds, drops []Order) {
	for _, o := range orders {
		switch o.Action {
		case ActionAdd:
			adds = append(adds, o)
		case ActionDrop:
			drops = append(drops, o)
		}
	}
	return adds, drops
}

func toSet(symbols []string) map[string]struct{} {
	out := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		out[s] = struct{}{}
	}
	return out
}

func priceOf(prices map[string]float64, symbol string) *float64 {
	p, ok := prices[symbol]
	if !ok || math.IsNaN(p) || math.IsInf(p, 0) {
		return nil
	}
	return &p
}
