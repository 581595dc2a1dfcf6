package portfolio

import (
	"math"
	"slices"

	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/internal/utils"
)

// Allocation is the per-side maximum number of concurrent signals.
type Allocation struct {
	Long  int `yaml:"long" json:"long"`
	Short int `yaml:"short" json:"short"`
	// OrderNotional is the quote-currency size of a single order.
	OrderNotional float64 `yaml:"order_notional" json:"order_notional"`
}

// Cap returns the limit for the entering side.
func (a Allocation) Cap(side types.Side) int {
	if side == types.SideBuy {
		return a.Long
	}

	return a.Short
}

// ComputeAllocation converts equity into per-side order counts. Each side may hold
// floor((sidePct*equity - open notional on that side) / orderNotional) orders, where
// orderNotional is orderPct*equity rounded to cents. Counts never go below zero.
func ComputeAllocation(equity, longPct, shortPct, orderPct float64, positions []types.OpenPosition) Allocation {
	orderNotional := utils.Round(orderPct*equity, 2)

	var longOpen, shortOpen float64

	for _, p := range positions {
		switch {
		case p.Amount > 0:
			longOpen += p.Notional()
		case p.Amount < 0:
			shortOpen += p.Notional()
		}
	}

	return Allocation{
		Long:          sideCount(longPct*equity-longOpen, orderNotional),
		Short:         sideCount(shortPct*equity-shortOpen, orderNotional),
		OrderNotional: orderNotional,
	}
}

func sideCount(available, orderNotional float64) int {
	if orderNotional <= 0 || available <= 0 {
		return 0
	}

	return int(math.Floor(available / orderNotional))
}

// Locks lists, per entering side, the symbols on which new signals are not allowed.
type Locks map[types.Side][]string

// Has reports whether side is locked on symbol.
func (l Locks) Has(symbol string, side types.Side) bool {
	return slices.Contains(l[side], symbol)
}

// ComputeLocks locks BUY on symbols with long exposure and SELL on symbols with short
// exposure. Symbols locked on both sides are dropped from the returned tradable set and
// from the locks. Positions on symbols outside symbols are ignored.
func ComputeLocks(positions []types.OpenPosition, symbols []string) (Locks, []string) {
	locked := make(map[string]map[types.Side]bool)

	for _, p := range positions {
		if !slices.Contains(symbols, p.Symbol) || p.Amount == 0 {
			continue
		}

		if locked[p.Symbol] == nil {
			locked[p.Symbol] = make(map[types.Side]bool)
		}

		if p.Amount > 0 {
			locked[p.Symbol][types.SideBuy] = true
		} else {
			locked[p.Symbol][types.SideSell] = true
		}
	}

	locks := Locks{}
	tradable := make([]string, 0, len(symbols))

	for _, symbol := range symbols {
		sides := locked[symbol]
		if sides[types.SideBuy] && sides[types.SideSell] {
			continue
		}

		tradable = append(tradable, symbol)

		for side := range sides {
			locks[side] = append(locks[side], symbol)
		}
	}

	for side := range locks {
		slices.Sort(locks[side])
	}

	return locks, tradable
}
