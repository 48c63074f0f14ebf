package config

import (
	"fmt"

	"paper-evolve/sim"
)

// ErrInvalid 用于参数验证错误。
type ErrInvalid string

func (e ErrInvalid) Error() string { return string(e) }

func invalid(format string, args ...any) error {
	return ErrInvalid(fmt.Sprintf(format, args...))
}

// Validate 返回第一个不合法的字段。
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return invalid("env is required")
	}
	switch cfg.Feed.Mode {
	case FeedMock:
	case FeedWS:
		if cfg.Feed.WS.URL == "" {
			return invalid("feed.ws.url is required for ws mode")
		}
	default:
		return invalid("feed.mode must be %q or %q, got %q", FeedMock, FeedWS, cfg.Feed.Mode)
	}
	if cfg.Journal.Enabled && cfg.Journal.BaseDir == "" {
		return invalid("journal.base_dir is required when journal is enabled")
	}
	if err := validatePaper(cfg.Paper); err != nil {
		return err
	}
	if err := cfg.Evolution.Validate(); err != nil {
		return invalid("evolution: %v", err)
	}
	for i, v := range cfg.Variants {
		if v.Name == "" {
			return invalid("variants[%d].name is required", i)
		}
	}
	return nil
}

func validatePaper(p sim.Config) error {
	if p.Broker.StartingCash <= 0 {
		return invalid("paper.broker.starting_cash must be > 0")
	}
	if p.Broker.FeeBps < 0 || p.Broker.SlippageBps < 0 {
		return invalid("paper.broker fee/slippage bps must be >= 0")
	}
	if p.MaxBookLevels <= 0 {
		return invalid("paper.max_book_levels must be > 0")
	}
	if p.TickInterval < 0 {
		return invalid("paper.tick_interval must be >= 0")
	}
	for region, lp := range p.LatencyProfiles {
		if lp.BaseMs < 0 || lp.JitterMs < 0 || lp.ExtraTailMs < 0 {
			return invalid("paper.latency_profiles.%s delays must be >= 0", region)
		}
		if !isProb(lp.TailProb) || !isProb(lp.DropProb) {
			return invalid("paper.latency_profiles.%s probabilities must be in [0,1]", region)
		}
	}
	if p.AdvSel.KBpsPerVol < 0 || p.AdvSel.MaxExtraBps < 0 || p.AdvSel.ShrinkPerVol < 0 {
		return invalid("paper.advsel coefficients must be >= 0")
	}
	if p.AdvSel.MaxLiquidityShrink < 0 || p.AdvSel.MaxLiquidityShrink > 1 {
		return invalid("paper.advsel.max_liquidity_shrink must be in [0,1]")
	}
	if p.Performance.Regime.VolWindow <= 0 {
		return invalid("paper.performance.regime.vol_window_points must be > 0")
	}
	if err := p.Strategy.Validate(); err != nil {
		return invalid("paper.dependency: %v", err)
	}
	return nil
}

func isProb(p float64) bool { return p >= 0 && p <= 1 }
