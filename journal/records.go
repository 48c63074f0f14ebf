package journal

import (
	"time"

	"paper-evolve/order"
)

// Attempt 一次下单尝试。
type Attempt struct {
	Ts         time.Time  `json:"ts"`
	RunID      string     `json:"run_id"`
	Instrument string     `json:"instrument"`
	Side       order.Side `json:"side"`
	LimitPrice float64    `json:"limit_price"`
	Notional   float64    `json:"notional"`
	LatencyMs  float64    `json:"latency_ms"`
	Outcome    string     `json:"outcome"`
	Reason     string     `json:"reason"`
}

// Fill 成交记录。
type Fill struct {
	RunID string `json:"run_id"`
	order.Fill
}

// Equity 权益采样。
type Equity struct {
	Ts         time.Time `json:"ts"`
	RunID      string    `json:"run_id"`
	Equity     float64   `json:"equity"`
	Cash       float64   `json:"cash"`
	Realized   float64   `json:"realized_pnl"`
	Unrealized float64   `json:"unrealized_pnl"`
	Fills      int       `json:"fills"`
}

// Mid 跟随标的中间价采样。
type Mid struct {
	Ts         time.Time `json:"ts"`
	RunID      string    `json:"run_id"`
	Instrument string    `json:"instrument"`
	Mid        float64   `json:"mid"`
}

// Meta 运行元信息。
type Meta struct {
	RunID     string    `json:"run_id"`
	Tag       string    `json:"tag"`
	CreatedAt time.Time `json:"created_at"`
	Config    any       `json:"config"`
}
