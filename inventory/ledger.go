package inventory

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// Epsilon 仓位比较容差。
const Epsilon = 1e-9

var (
	ErrInsufficientCash     = errors.New("insufficient cash")
	ErrInsufficientPosition = errors.New("insufficient position")
)

type position struct {
	qty  float64
	cost float64 // 加权平均成本
}

// Ledger 纸面账本：现金、各标的持仓与累计已实现盈亏。现金与持仓永不为负。
type Ledger struct {
	mu       sync.RWMutex
	cash     float64
	pos      map[string]*position
	realized float64
}

func NewLedger(startingCash float64) *Ledger {
	return &Ledger{
		cash: math.Max(0, startingCash),
		pos:  make(map[string]*position),
	}
}

// Buy 花费 notional 买入 qty；现金不足时拒绝且不修改账本。
func (l *Ledger) Buy(instrument string, notional, qty float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cash < notional {
		return fmt.Errorf("%w: need %.6f have %.6f", ErrInsufficientCash, notional, l.cash)
	}
	p := l.pos[instrument]
	if p == nil {
		p = &position{}
		l.pos[instrument] = p
	}
	total := p.cost*p.qty + notional
	p.qty += qty
	if p.qty > 0 {
		p.cost = total / p.qty
	}
	l.cash -= notional
	return nil
}

// Sell 卖出 qty 收入 notional；持仓不足（超出容差）时拒绝且不修改账本。
func (l *Ledger) Sell(instrument string, notional, qty float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	p := l.pos[instrument]
	if p == nil {
		p = &position{}
	}
	have := p.qty
	if have+Epsilon < qty {
		return fmt.Errorf("%w: need %.6f have %.6f", ErrInsufficientPosition, qty, have)
	}
	sold := math.Min(qty, have)
	l.realized += notional - p.cost*sold
	p.qty = math.Max(0, have-qty)
	if p.qty <= Epsilon {
		p.qty = 0
		p.cost = 0
	}
	l.pos[instrument] = p
	l.cash += notional
	return nil
}

func (l *Ledger) Cash() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cash
}

func (l *Ledger) Realized() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.realized
}

// Position 返回持仓数量与平均成本。
func (l *Ledger) Position(instrument string) (qty, avgCost float64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if p := l.pos[instrument]; p != nil {
		return p.qty, p.cost
	}
	return 0, 0
}

// Positions 返回非零持仓的拷贝。
func (l *Ledger) Positions() map[string]float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]float64, len(l.pos))
	for id, p := range l.pos {
		if p.qty > Epsilon {
			out[id] = p.qty
		}
	}
	return out
}

// Equity 按中间价盯市：cash + Σ qty×mid。没有中间价的标的不计入。
func (l *Ledger) Equity(mids map[string]float64) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	eq := l.cash
	for id, p := range l.pos {
		if math.Abs(p.qty) < Epsilon {
			continue
		}
		mid, ok := mids[id]
		if !ok {
			continue
		}
		eq += p.qty * mid
	}
	return eq
}

// Unrealized = equity - cash - realized。
func (l *Ledger) Unrealized(mids map[string]float64) float64 {
	eq := l.Equity(mids)
	l.mu.RLock()
	defer l.mu.RUnlock()
	return eq - l.cash - l.realized
}
