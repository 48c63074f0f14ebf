package order

import (
	"math"

	"paper-evolve/market"
)

// Epsilon 名义金额/数量比较的容差。
const Epsilon = 1e-9

// FillParams 撮合时使用的费率与惩罚，单位均为 bps，LiquidityShrink 为 [0,1) 的比例。
type FillParams struct {
	FeeBps           float64
	SlippageBps      float64
	ExtraSlippageBps float64
	LiquidityShrink  float64
}

// FillResult FOK 撮合结果；OK=false 时不携带任何部分成交数据。
type FillResult struct {
	OK       bool
	Notional float64
	Quantity float64
	AvgPrice float64
	Reason   string
}

// Finite 成交金额、数量与均价均为有限值。
func (r FillResult) Finite() bool {
	for _, v := range []float64{r.Notional, r.Quantity, r.AvgPrice} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Err 将拒绝原因映射为哨兵错误。
func (r FillResult) Err() error {
	switch {
	case r.OK:
		return nil
	case r.Reason == ErrBadSide.Error():
		return ErrBadSide
	default:
		return ErrFOKNotFilled
	}
}

func rejected(reason string) FillResult {
	return FillResult{Reason: reason}
}

// MatchFOK 从最优价开始逐档吃对手盘，超过限价即停止；不能全额成交则整体拒绝。
func MatchFOK(intent Intent, book market.OrderBook, p FillParams) FillResult {
	fee := p.FeeBps / 10_000
	slip := (p.SlippageBps + p.ExtraSlippageBps) / 10_000
	remaining := intent.Notional

	var filledNotional, filledQty, pxQty float64
	switch intent.Side {
	case Buy:
		for _, lvl := range book.Asks {
			if lvl.Price > intent.LimitPrice {
				break
			}
			avail := lvl.Size * (1 - p.LiquidityShrink)
			if avail <= 0 {
				continue
			}
			effPx := lvl.Price * (1 + slip) * (1 + fee)
			take := min(remaining, effPx*avail)
			qty := take / effPx
			remaining -= take
			filledNotional += take
			filledQty += qty
			pxQty += effPx * qty
			if remaining <= Epsilon {
				break
			}
		}
	case Sell:
		for _, lvl := range book.Bids {
			if lvl.Price < intent.LimitPrice {
				break
			}
			avail := lvl.Size * (1 - p.LiquidityShrink)
			if avail <= 0 {
				continue
			}
			effPx := lvl.Price * (1 - slip) * (1 - fee)
			qty := min(avail, remaining/max(effPx, Epsilon))
			proceeds := qty * effPx
			remaining -= proceeds
			filledNotional += proceeds
			filledQty += qty
			pxQty += effPx * qty
			if remaining <= Epsilon {
				break
			}
		}
	default:
		return rejected(ErrBadSide.Error())
	}

	if !(filledNotional+Epsilon >= intent.Notional) {
		return rejected(ErrFOKNotFilled.Error())
	}
	res := FillResult{
		OK:       true,
		Notional: filledNotional,
		Quantity: filledQty,
		AvgPrice: pxQty / max(filledQty, Epsilon),
		Reason:   "filled",
	}
	if !res.Finite() {
		return rejected(ErrFOKNotFilled.Error())
	}
	return res
}
