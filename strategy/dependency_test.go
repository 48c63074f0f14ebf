package strategy

import (
	"testing"

	"paper-evolve/order"
)

func TestNewEngine_Invalid(t *testing.T) {
	if _, err := NewEngine(DependencyConfig{}); err == nil {
		t.Fatal("expected error for empty config")
	}
	cfg := DefaultDependencyConfig()
	cfg.Follower = cfg.Leader
	if _, err := NewEngine(cfg); err == nil {
		t.Fatal("expected error for identical instruments")
	}
}

func TestOnTick_FirstTickOnlyRecords(t *testing.T) {
	e, err := NewEngine(DefaultDependencyConfig())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if _, ok := e.OnTick(0.5, 0.3, 1000); ok {
		t.Fatal("first tick must not trade")
	}
}

func TestOnTick_BuyWhenFollowerCheap(t *testing.T) {
	e, _ := NewEngine(DefaultDependencyConfig())
	e.OnTick(0.50, 0.50, 1000)
	// 领先标的上涨 4%，公允价 0.52，跟随标的 0.50 → 买入
	intent, ok := e.OnTick(0.52, 0.50, 1000)
	if !ok {
		t.Fatal("expected intent")
	}
	if intent.Side != order.Buy || intent.Instrument != "MARKET_B" {
		t.Fatalf("unexpected intent %+v", intent)
	}
	if diff := intent.LimitPrice - 0.50*1.001; diff > 1e-12 || diff < -1e-12 {
		t.Fatalf("unexpected limit %f", intent.LimitPrice)
	}
	if diff := intent.Notional - 20; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected notional 20 got %f", intent.Notional)
	}
}

func TestOnTick_SellCappedNotional(t *testing.T) {
	e, _ := NewEngine(DefaultDependencyConfig())
	e.OnTick(0.50, 0.60, 5000)
	intent, ok := e.OnTick(0.45, 0.60, 5000)
	if !ok || intent.Side != order.Sell {
		t.Fatalf("expected sell, got %+v ok=%v", intent, ok)
	}
	if intent.Notional != 25 {
		t.Fatalf("expected capped notional 25 got %f", intent.Notional)
	}
	if intent.LimitPrice >= 0.60 {
		t.Fatalf("sell limit should be below mid: %f", intent.LimitPrice)
	}
}

func TestOnTick_Thresholds(t *testing.T) {
	e, _ := NewEngine(DefaultDependencyConfig())
	e.OnTick(0.50, 0.50, 1000)
	if _, ok := e.OnTick(0.51, 0.40, 1000); ok {
		t.Fatal("2% leader move is below trigger")
	}
	// 触发但偏离不足 2%
	if _, ok := e.OnTick(0.53, 0.525, 1000); ok {
		t.Fatal("gap below threshold must not trade")
	}
	if _, ok := e.OnTick(0.60, 0.40, 0); ok {
		t.Fatal("no cash means no intent")
	}
}

func TestFairFollowerClipped(t *testing.T) {
	cfg := DefaultDependencyConfig()
	cfg.Beta = 3
	e, _ := NewEngine(cfg)
	if e.FairFollower(0.9) != 0.99 {
		t.Fatalf("expected clip to 0.99")
	}
	cfg.Beta = 1
	cfg.Intercept = -1
	e, _ = NewEngine(cfg)
	if e.FairFollower(0.5) != 0.01 {
		t.Fatalf("expected clip to 0.01")
	}
}
