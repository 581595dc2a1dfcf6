package market

import (
	"slices"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-signal/internal/types"
)

// Buffer is an append-only sequence safe for one writer and many readers.
// Readers keep a cursor and ask for everything appended since.
type Buffer[T any] struct {
	mu    sync.RWMutex
	items []T
}

// NewBuffer creates an empty buffer.
func NewBuffer[T any]() *Buffer[T] {
	return &Buffer[T]{
		mu:    sync.RWMutex{},
		items: nil,
	}
}

// Append adds items to the end of the buffer.
func (b *Buffer[T]) Append(items ...T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items = append(b.items, items...)
}

// Len returns the number of items appended so far.
func (b *Buffer[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.items)
}

// Since returns a copy of the items from cursor on and the cursor to pass next time.
func (b *Buffer[T]) Since(cursor int) ([]T, int) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if cursor < 0 {
		cursor = 0
	}

	if cursor >= len(b.items) {
		return nil, len(b.items)
	}

	return slices.Clone(b.items[cursor:]), len(b.items)
}

// Last returns the newest item.
func (b *Buffer[T]) Last() (T, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.items) == 0 {
		var zero T

		return zero, false
	}

	return b.items[len(b.items)-1], true
}

// Feed holds the candle and trade buffers of every instrument in a session.
// The symbol set is fixed at construction, so lookups need no lock.
type Feed struct {
	candles map[string]*Buffer[types.Candle]
	ticks   map[string]*Buffer[types.Tick]
	symbols []string
}

// NewFeed creates empty buffers for symbols.
func NewFeed(symbols []string) *Feed {
	f := &Feed{
		candles: make(map[string]*Buffer[types.Candle], len(symbols)),
		ticks:   make(map[string]*Buffer[types.Tick], len(symbols)),
		symbols: slices.Clone(symbols),
	}

	for _, symbol := range symbols {
		f.candles[symbol] = NewBuffer[types.Candle]()
		f.ticks[symbol] = NewBuffer[types.Tick]()
	}

	return f
}

func (f *Feed) Symbols() []string {
	return slices.Clone(f.symbols)
}

// Candles returns the completed candle buffer of symbol, or nil for an unknown symbol.
func (f *Feed) Candles(symbol string) *Buffer[types.Candle] {
	return f.candles[symbol]
}

// Ticks returns the trade buffer of symbol, or nil for an unknown symbol.
func (f *Feed) Ticks(symbol string) *Buffer[types.Tick] {
	return f.ticks[symbol]
}

// TicksAfter returns the trades of symbol strictly newer than after, oldest first.
func (f *Feed) TicksAfter(symbol string, after time.Time) []types.Tick {
	buf := f.ticks[symbol]
	if buf == nil {
		return nil
	}

	buf.mu.RLock()
	defer buf.mu.RUnlock()

	i, _ := slices.BinarySearchFunc(buf.items, after, func(t types.Tick, target time.Time) int {
		if t.Time.After(target) {
			return 1
		}

		return -1
	})

	return slices.Clone(buf.items[i:])
}
