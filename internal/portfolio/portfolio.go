package portfolio

import (
	"context"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-signal/internal/logger"
	"github.com/rxtech-lab/argo-signal/internal/types"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"go.uber.org/zap"
)

// Config configures the allocator.
type Config struct {
	// Symbols is the target instrument list.
	Symbols []string `yaml:"symbols" json:"symbols" jsonschema:"title=Symbols,description=Instruments to trade" validate:"required,min=1,dive,required"`
	// QuoteAsset is the wallet asset whose balance is used as equity.
	QuoteAsset string  `yaml:"quote_asset" json:"quote_asset" jsonschema:"title=Quote Asset,default=USDT" validate:"required"`
	LongPct    float64 `yaml:"long_pct" json:"long_pct" jsonschema:"title=Long Allocation,description=Fraction of equity for long exposure,minimum=0,maximum=1,default=0.25" validate:"gte=0,lte=1"`
	ShortPct   float64 `yaml:"short_pct" json:"short_pct" jsonschema:"title=Short Allocation,description=Fraction of equity for short exposure,minimum=0,maximum=1,default=0.25" validate:"gte=0,lte=1"`
	OrderPct   float64 `yaml:"order_pct" json:"order_pct" jsonschema:"title=Order Size,description=Fraction of equity per order,minimum=0,maximum=1,default=0.05" validate:"gt=0,lte=1"`
}

// DefaultConfig returns a BTCUSDT/ETHUSDT allocation of a quarter of equity per side.
func DefaultConfig() Config {
	return Config{
		Symbols:    []string{"BTCUSDT", "ETHUSDT"},
		QuoteAsset: "USDT",
		LongPct:    0.25,
		ShortPct:   0.25,
		OrderPct:   0.05,
	}
}

// Validate validates the Config struct.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid portfolio config", err)
	}

	for _, symbol := range c.Symbols {
		if _, err := types.LookupInstrument(symbol); err != nil {
			return err
		}
	}

	return nil
}

// AccountReader is the part of the exchange the allocator needs.
type AccountReader interface {
	GetBalance(ctx context.Context) ([]types.Balance, error)
	GetPositions(ctx context.Context) ([]types.OpenPosition, error)
}

// Portfolio is the per-session allocation state. The allocation is fixed at construction;
// locks may change during shutdown reconciliation.
type Portfolio struct {
	mu         sync.RWMutex
	equity     float64
	allocation Allocation
	locks      Locks
	tradable   []types.Instrument
	log        *logger.Logger
}

// New queries the account and computes the allocation and locks.
func New(ctx context.Context, account AccountReader, config Config, log *logger.Logger) (*Portfolio, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	balances, err := account.GetBalance(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRequestFailed, "failed to query balance", err)
	}

	equity := -1.0

	for _, b := range balances {
		if b.Asset == config.QuoteAsset {
			equity = b.Balance
		}
	}

	if equity < 0 {
		return nil, errors.Newf(errors.ErrCodeDataNotFound, "no %s balance on account", config.QuoteAsset)
	}

	positions, err := account.GetPositions(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRequestFailed, "failed to query positions", err)
	}

	return FromPositions(equity, positions, config, log)
}

// FromPositions builds a portfolio from known equity and positions.
func FromPositions(equity float64, positions []types.OpenPosition, config Config, log *logger.Logger) (*Portfolio, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	allocation := ComputeAllocation(equity, config.LongPct, config.ShortPct, config.OrderPct, positions)
	locks, symbols := ComputeLocks(positions, config.Symbols)

	tradable := make([]types.Instrument, 0, len(symbols))

	for _, symbol := range symbols {
		inst, err := types.LookupInstrument(symbol)
		if err != nil {
			return nil, err
		}

		tradable = append(tradable, inst)
	}

	for _, symbol := range config.Symbols {
		if !slices.Contains(symbols, symbol) {
			log.Warn("Instrument has exposure on both sides, dropping it", zap.String("symbol", symbol))
		}
	}

	log.Info("Portfolio allocated",
		zap.Float64("equity", equity),
		zap.Int("long", allocation.Long),
		zap.Int("short", allocation.Short),
		zap.Float64("order_notional", allocation.OrderNotional),
		zap.Strings("buy_locks", locks[types.SideBuy]),
		zap.Strings("sell_locks", locks[types.SideSell]),
	)

	return &Portfolio{
		mu:         sync.RWMutex{},
		equity:     equity,
		allocation: allocation,
		locks:      locks,
		tradable:   tradable,
		log:        log,
	}, nil
}

func (p *Portfolio) Equity() float64 {
	return p.equity
}

func (p *Portfolio) Allocation() Allocation {
	return p.allocation
}

// Tradable returns the instruments that may receive new signals.
func (p *Portfolio) Tradable() []types.Instrument {
	return slices.Clone(p.tradable)
}

// Locked reports whether new signals on side are blocked for symbol.
func (p *Portfolio) Locked(symbol string, side types.Side) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.locks.Has(symbol, side)
}

// Locks returns a copy of the current locks.
func (p *Portfolio) Locks() Locks {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := Locks{}
	for side, symbols := range p.locks {
		out[side] = slices.Clone(symbols)
	}

	return out
}

// Reconcile re-reads exchange positions and locks every tradable instrument that still
// carries exposure. It returns the residual positions.
func (p *Portfolio) Reconcile(ctx context.Context, account AccountReader) ([]types.OpenPosition, error) {
	positions, err := account.GetPositions(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRequestFailed, "failed to query positions", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var residual []types.OpenPosition

	for _, pos := range positions {
		if pos.Amount == 0 || !slices.ContainsFunc(p.tradable, func(i types.Instrument) bool { return i.Symbol == pos.Symbol }) {
			continue
		}

		side := types.SideBuy
		if pos.Amount < 0 {
			side = types.SideSell
		}

		if !p.locks.Has(pos.Symbol, side) {
			p.locks[side] = append(p.locks[side], pos.Symbol)
			slices.Sort(p.locks[side])
		}

		residual = append(residual, pos)

		p.log.Warn("Residual exposure after unwind",
			zap.String("symbol", pos.Symbol),
			zap.String("position_side", string(pos.PositionSide)),
			zap.Float64("amount", pos.Amount),
		)
	}

	return residual, nil
}
