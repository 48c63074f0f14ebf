package sim

import (
	"fmt"
	"sync"
	"time"

	"paper-evolve/inventory"
	"paper-evolve/market"
	"paper-evolve/order"
)

// BrokerConfig 纸面券商参数。
type BrokerConfig struct {
	StartingCash float64 `yaml:"starting_cash"`
	FeeBps       float64 `yaml:"fee_bps"`
	SlippageBps  float64 `yaml:"slippage_bps"`
}

func DefaultBrokerConfig() BrokerConfig {
	return BrokerConfig{StartingCash: 1000, FeeBps: 0, SlippageBps: 5}
}

// PaperBroker 把 FOK 撮合结果记入账本。
type PaperBroker struct {
	cfg    BrokerConfig
	ledger *inventory.Ledger

	mu    sync.RWMutex
	fills []order.Fill
}

func NewPaperBroker(cfg BrokerConfig) *PaperBroker {
	return &PaperBroker{cfg: cfg, ledger: inventory.NewLedger(cfg.StartingCash)}
}

// TryFill 按深度全额撮合并记账。撮合失败或账本拒绝时账本不变，返回的错误包裹
// order.ErrFOKNotFilled / order.ErrBadSide / inventory.ErrInsufficient*。
func (b *PaperBroker) TryFill(ts time.Time, intent order.Intent, book market.OrderBook, extraSlippageBps, liquidityShrink float64, reason string) (order.Fill, error) {
	if err := intent.Validate(); err != nil {
		return order.Fill{}, fmt.Errorf("invalid intent: %w", err)
	}
	res := order.MatchFOK(intent, book, order.FillParams{
		FeeBps:           b.cfg.FeeBps,
		SlippageBps:      b.cfg.SlippageBps,
		ExtraSlippageBps: extraSlippageBps,
		LiquidityShrink:  liquidityShrink,
	})
	if !res.OK {
		return order.Fill{}, res.Err()
	}
	if !res.Finite() {
		return order.Fill{}, fmt.Errorf("non-finite fill %+v: %w", res, order.ErrFOKNotFilled)
	}

	var err error
	switch intent.Side {
	case order.Buy:
		err = b.ledger.Buy(intent.Instrument, res.Notional, res.Quantity)
	case order.Sell:
		err = b.ledger.Sell(intent.Instrument, res.Notional, res.Quantity)
	default:
		err = order.ErrBadSide
	}
	if err != nil {
		return order.Fill{}, fmt.Errorf("apply %s fill: %w", intent.Side, err)
	}

	fill := order.Fill{
		Ts:         ts,
		Instrument: intent.Instrument,
		Side:       intent.Side,
		AvgPrice:   res.AvgPrice,
		Notional:   res.Notional,
		Quantity:   res.Quantity,
		Reason:     reason,
	}
	b.mu.Lock()
	b.fills = append(b.fills, fill)
	b.mu.Unlock()
	return fill, nil
}

func (b *PaperBroker) Ledger() *inventory.Ledger { return b.ledger }

func (b *PaperBroker) Cash() float64 { return b.ledger.Cash() }

func (b *PaperBroker) Realized() float64 { return b.ledger.Realized() }

// Equity 盯市权益，没有中间价的持仓不计入。
func (b *PaperBroker) Equity(mids map[string]float64) float64 { return b.ledger.Equity(mids) }

func (b *PaperBroker) Unrealized(mids map[string]float64) float64 {
	return b.ledger.Unrealized(mids)
}

// Fills 成交副本。
func (b *PaperBroker) Fills() []order.Fill {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]order.Fill(nil), b.fills...)
}

func (b *PaperBroker) FillCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.fills)
}
