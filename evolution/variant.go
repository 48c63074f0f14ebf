package evolution

import (
	"paper-evolve/sim"
)

var geneSetters = map[string]func(*sim.Config, float64){
	GeneTriggerMovePct:  func(c *sim.Config, v float64) { c.Strategy.TriggerMovePct = v },
	GeneMinGapPct:       func(c *sim.Config, v float64) { c.Strategy.MinGapPct = v },
	GeneBeta:            func(c *sim.Config, v float64) { c.Strategy.Beta = v },
	GeneIntercept:       func(c *sim.Config, v float64) { c.Strategy.Intercept = v },
	GeneSentimentWeight: func(c *sim.Config, v float64) { c.Strategy.SentimentWeight = v },
	GeneSlippageBps:     func(c *sim.Config, v float64) { c.Broker.SlippageBps = v },
	GeneAdvKBpsPerVol:   func(c *sim.Config, v float64) { c.AdvSel.KBpsPerVol = v },
}

// ApplyGenome 把基因写入基础配置的副本并打上标签。未知基因被忽略。
func ApplyGenome(base sim.Config, g Genome, tag string) sim.Config {
	cfg := base
	for name, v := range g {
		if set, ok := geneSetters[name]; ok {
			set(&cfg, v)
		}
	}
	cfg.Tag = tag
	return cfg
}

// Variant 一个命名的固定参数组合。
type Variant struct {
	Name   string `yaml:"name"`
	Genome Genome `yaml:"genome"`
}
