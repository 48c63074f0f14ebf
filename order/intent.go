package order

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Side 买卖方向。
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

var (
	// ErrBadSide 方向既不是 BUY 也不是 SELL。
	ErrBadSide = errors.New("bad side")
	// ErrFOKNotFilled 深度不足以全额成交。
	ErrFOKNotFilled = errors.New("FOK not filled")
)

// Intent 一次下单意图：按报价货币计的名义金额。
type Intent struct {
	Instrument string
	Side       Side
	LimitPrice float64
	Notional   float64
}

// Validate 检查意图字段是否可用于撮合。
func (i Intent) Validate() error {
	if strings.TrimSpace(i.Instrument) == "" {
		return errors.New("intent instrument is empty")
	}
	if i.Side != Buy && i.Side != Sell {
		return fmt.Errorf("%w: %q", ErrBadSide, i.Side)
	}
	if math.IsNaN(i.LimitPrice) || math.IsInf(i.LimitPrice, 0) || i.LimitPrice <= 0 {
		return fmt.Errorf("limit price %.8f must be finite and > 0", i.LimitPrice)
	}
	if math.IsNaN(i.Notional) || math.IsInf(i.Notional, 0) || i.Notional <= 0 {
		return fmt.Errorf("notional %.8f must be finite and > 0", i.Notional)
	}
	return nil
}

// Fill 一笔已记账的成交。
type Fill struct {
	Ts         time.Time `json:"ts"`
	Instrument string    `json:"instrument"`
	Side       Side      `json:"side"`
	AvgPrice   float64   `json:"avg_price"`
	Notional   float64   `json:"notional"`
	Quantity   float64   `json:"quantity"`
	Reason     string    `json:"reason"`
}
