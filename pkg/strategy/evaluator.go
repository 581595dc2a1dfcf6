package strategy

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/types"
)

// Evaluator accumulates candles for one instrument and runs a Rule over them.
// It is not safe for concurrent use; the strategy driver owns one per instrument.
type Evaluator struct {
	symbol string
	rule   Rule
	input  []types.Candle
	locks  map[types.Side]bool
}

// NewEvaluator creates an evaluator seeded with historical candles.
func NewEvaluator(symbol string, rule Rule, history []types.Candle) *Evaluator {
	return &Evaluator{
		symbol: symbol,
		rule:   rule,
		input:  append([]types.Candle(nil), history...),
		locks:  make(map[types.Side]bool),
	}
}

func (e *Evaluator) Symbol() string {
	return e.symbol
}

// Lock prevents new decisions on side.
func (e *Evaluator) Lock(side types.Side) {
	e.locks[side] = true
}

// Unlock allows decisions on side again.
func (e *Evaluator) Unlock(side types.Side) {
	delete(e.locks, side)
}

func (e *Evaluator) Locked(side types.Side) bool {
	return e.locks[side]
}

// Len returns the number of accumulated candles.
func (e *Evaluator) Len() int {
	return len(e.input)
}

// Evaluate appends the candles of tail newer than the accumulated input and asks the rule
// about the newest one. It returns None when nothing new arrived, when the rule does not
// trigger, or when the triggered side is locked.
func (e *Evaluator) Evaluate(tail []types.Candle) (optional.Option[Decision], error) {
	appended := 0

	for _, c := range tail {
		if len(e.input) > 0 && !c.OpenTime.After(e.input[len(e.input)-1].OpenTime) {
			continue
		}

		e.input = append(e.input, c)
		appended++
	}

	if appended == 0 {
		return optional.None[Decision](), nil
	}

	decision, ok, err := e.rule.Decide(e.input)
	if err != nil {
		return optional.None[Decision](), err
	}

	if !ok || e.locks[decision.Side] {
		return optional.None[Decision](), nil
	}

	return optional.Some(decision), nil
}
