package posttrade

// AdvSelConfig 逆向选择惩罚参数；move 以百分比计（小数×100）。
type AdvSelConfig struct {
	KBpsPerVol         float64 `yaml:"k_bps_per_vol"`
	MaxExtraBps        float64 `yaml:"max_extra_bps"`
	ShrinkPerVol       float64 `yaml:"liquidity_shrink_per_vol"`
	MaxLiquidityShrink float64 `yaml:"max_liquidity_shrink"`
}

// DefaultAdvSelConfig 默认参数。
func DefaultAdvSelConfig() AdvSelConfig {
	return AdvSelConfig{
		KBpsPerVol:         18,
		MaxExtraBps:        80,
		ShrinkPerVol:       0.35,
		MaxLiquidityShrink: 0.75,
	}
}

// Penalty 附加滑点与可用深度缩减比例。
type Penalty struct {
	ExtraSlippageBps float64
	LiquidityShrink  float64
}

// Compute 根据近期绝对变动（小数形式，例如 0.01 表示 1%）计算惩罚，两项都有上限。
func (c AdvSelConfig) Compute(absMove float64) Penalty {
	movePct := absMove * 100
	return Penalty{
		ExtraSlippageBps: min(c.MaxExtraBps, c.KBpsPerVol*movePct),
		LiquidityShrink:  min(c.MaxLiquidityShrink, c.ShrinkPerVol*movePct),
	}
}
