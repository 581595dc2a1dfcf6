package engine_v1

import (
	"slices"
	"sync"

	"github.com/rxtech-lab/argo-signal/internal/types"
)

type instrumentSlot struct {
	mu      sync.Mutex
	signals []*types.Signal
}

// Book is the signal arena of a session: one signal list per instrument, each guarded by its
// own lock. The instrument set is fixed at construction.
type Book struct {
	slots   map[string]*instrumentSlot
	symbols []string
}

// IntakeResult reports what Intake did with a candidate.
type IntakeResult struct {
	// Accepted is false when the candidate was expired on arrival.
	Accepted bool
	// Candidate is a copy of the candidate as stored.
	Candidate *types.Signal
	// Superseded are copies of the WAITING signals expired in favour of the candidate.
	Superseded []*types.Signal
}

// NewBook creates an empty arena for symbols.
func NewBook(symbols []string) *Book {
	sorted := slices.Clone(symbols)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	slots := make(map[string]*instrumentSlot, len(sorted))
	for _, symbol := range sorted {
		slots[symbol] = &instrumentSlot{mu: sync.Mutex{}, signals: nil}
	}

	return &Book{
		slots:   slots,
		symbols: sorted,
	}
}

// Symbols returns the instruments of the arena in sorted order.
func (b *Book) Symbols() []string {
	return slices.Clone(b.symbols)
}

// With runs fn while holding the lock of symbol. fn may change the signals but must not keep
// the slice after it returns.
func (b *Book) With(symbol string, fn func(signals []*types.Signal) error) error {
	slot, ok := b.slots[symbol]
	if !ok {
		return nil
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	return fn(slot.signals)
}

// Intake records a new candidate for its instrument. The candidate is expired on arrival when
// the instrument already has an open signal or when open signals on the candidate's side
// across all instruments reach sideCap. Otherwise every WAITING signal of the instrument is
// expired. The candidate is appended in both cases.
//
// Intake holds every instrument lock, taken in symbol order, so the side count cannot change
// underneath it. A non-nil observe is called with the result before the locks are released,
// so no later transition of the candidate can be seen ahead of it.
func (b *Book) Intake(candidate *types.Signal, sideCap int, observe func(IntakeResult)) (IntakeResult, error) {
	result := IntakeResult{Accepted: false, Candidate: nil, Superseded: nil}

	slot, ok := b.slots[candidate.Symbol()]
	if !ok {
		return result, candidate.MarkExpired()
	}

	for _, symbol := range b.symbols {
		b.slots[symbol].mu.Lock()
		defer b.slots[symbol].mu.Unlock() //nolint:gocritic // released together once the intake is done
	}

	sideOpen := 0

	for _, s := range b.symbols {
		for _, sig := range b.slots[s].signals {
			if sig.Side == candidate.Side && sig.Status.IsOpen() {
				sideOpen++
			}
		}
	}

	instrumentOpen := slices.ContainsFunc(slot.signals, func(s *types.Signal) bool { return s.Status.IsOpen() })

	if instrumentOpen || sideOpen >= sideCap {
		if err := candidate.MarkExpired(); err != nil {
			return result, err
		}

		slot.signals = append(slot.signals, candidate)
		result.Candidate = candidate.Clone()

		if observe != nil {
			observe(result)
		}

		return result, nil
	}

	for _, sig := range slot.signals {
		if sig.Status != types.SignalStatusWaiting {
			continue
		}

		if err := sig.MarkExpired(); err != nil {
			return result, err
		}

		result.Superseded = append(result.Superseded, sig.Clone())
	}

	slot.signals = append(slot.signals, candidate)
	result.Accepted = true
	result.Candidate = candidate.Clone()

	if observe != nil {
		observe(result)
	}

	return result, nil
}

// Snapshot returns deep copies of every signal, grouped by instrument in symbol order.
func (b *Book) Snapshot() []*types.Signal {
	var out []*types.Signal

	for _, symbol := range b.symbols {
		slot := b.slots[symbol]

		slot.mu.Lock()
		for _, sig := range slot.signals {
			out = append(out, sig.Clone())
		}
		slot.mu.Unlock()
	}

	return out
}

// Pending returns copies of every signal that is not in a terminal state.
func (b *Book) Pending() []*types.Signal {
	var out []*types.Signal

	for _, sig := range b.Snapshot() {
		if !sig.Status.IsTerminal() {
			out = append(out, sig)
		}
	}

	return out
}
