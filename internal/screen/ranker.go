package screen

import (
	"fmt"
	"math"
	"sort"

	"github.com/newthinker/trendscreen/internal/core"
)

// Rank orders the final-universe rows and marks the top N as picks. rows is
// modified in place and must be in universe order; the ranked copies are
// returned. Trending symbols always precede non-trending ones. Within a
// group higher scores come first, undefined scores last, and ties keep
// universe order.
func Rank(rows []Row, topN int) ([]Row, error) {
	var idx []int
	for i := range rows {
		rows[i].InFinal = rows[i].LiquidityOK && !rows[i].DupDrop
		if rows[i].InFinal {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return nil, core.WrapError(core.ErrEmptyUniverse,
			fmt.Errorf("no symbol passed liquidity and de-duplication out of %d", len(rows)))
	}

	sort.SliceStable(idx, func(x, y int) bool {
		return rankLess(rows[idx[x]], rows[idx[y]])
	})

	ranked := make([]Row, len(idx))
	for pos, i := range idx {
		rows[i].Rank = pos + 1
		rows[i].Pick = pos < topN
		ranked[pos] = rows[i]
	}
	return ranked, nil
}

func rankLess(a, b Row) bool {
	if a.TrendOK != b.TrendOK {
		return a.TrendOK
	}
	an, bn := math.IsNaN(a.Score), math.IsNaN(b.Score)
	if an || bn {
		return !an && bn
	}
	return a.Score > b.Score
}
