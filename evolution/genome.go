package evolution

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// 可进化的基因名，对应 sim.Config 中的字段。
const (
	GeneTriggerMovePct  = "trigger_move_pct"
	GeneMinGapPct       = "min_gap_pct"
	GeneBeta            = "beta"
	GeneIntercept       = "intercept"
	GeneSentimentWeight = "sentiment_weight"
	GeneSlippageBps     = "slippage_bps"
	GeneAdvKBpsPerVol   = "adv_k_bps_per_vol"
)

// GeneSpec 一个基因的取值范围 [Lo, Hi]。
type GeneSpec struct {
	Name string  `yaml:"name" json:"name"`
	Lo   float64 `yaml:"lo" json:"lo"`
	Hi   float64 `yaml:"hi" json:"hi"`
}

// Space 有序的基因空间；随机抽取按此顺序进行，保证同种子可复现。
type Space []GeneSpec

func DefaultSpace() Space {
	return Space{
		{Name: GeneTriggerMovePct, Lo: 0.005, Hi: 0.06},
		{Name: GeneMinGapPct, Lo: 0.005, Hi: 0.05},
		{Name: GeneBeta, Lo: 0.5, Hi: 1.5},
		{Name: GeneIntercept, Lo: -0.1, Hi: 0.1},
		{Name: GeneSentimentWeight, Lo: 0, Hi: 1},
		{Name: GeneSlippageBps, Lo: 0, Hi: 20},
		{Name: GeneAdvKBpsPerVol, Lo: 5, Hi: 40},
	}
}

// Validate 基因名必须已知且不重复，Lo <= Hi。
func (s Space) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("gene space is empty")
	}
	seen := make(map[string]bool, len(s))
	for _, g := range s {
		if _, ok := geneSetters[g.Name]; !ok {
			return fmt.Errorf("unknown gene %q", g.Name)
		}
		if seen[g.Name] {
			return fmt.Errorf("duplicate gene %q", g.Name)
		}
		seen[g.Name] = true
		if math.IsNaN(g.Lo) || math.IsNaN(g.Hi) || g.Lo > g.Hi {
			return fmt.Errorf("gene %q: invalid bounds [%v, %v]", g.Name, g.Lo, g.Hi)
		}
	}
	return nil
}

// Genome 基因名 → 取值。
type Genome map[string]float64

// Clone 深拷贝。
func (g Genome) Clone() Genome {
	out := make(Genome, len(g))
	for k, v := range g {
		out[k] = v
	}
	return out
}

// Names 排序后的基因名，用于稳定输出。
func (g Genome) Names() []string {
	names := make([]string, 0, len(g))
	for k := range g {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Random 每个基因独立均匀抽取。
func Random(rng *rand.Rand, space Space) Genome {
	g := make(Genome, len(space))
	for _, spec := range space {
		g[spec.Name] = spec.Lo + (spec.Hi-spec.Lo)*rng.Float64()
	}
	return g
}

// Crossover 均匀交叉：每个基因以相同概率取自任一父代，不做混合。
func Crossover(rng *rand.Rand, space Space, a, b Genome) Genome {
	child := make(Genome, len(space))
	for _, spec := range space {
		if rng.Float64() < 0.5 {
			child[spec.Name] = a[spec.Name]
		} else {
			child[spec.Name] = b[spec.Name]
		}
	}
	return child
}

// Mutate 每个基因以概率 rate 加上 [-strength*range, +strength*range] 的均匀扰动并裁剪到范围内。
func Mutate(rng *rand.Rand, g Genome, space Space, rate, strength float64) Genome {
	out := g.Clone()
	for _, spec := range space {
		if rng.Float64() > rate {
			continue
		}
		span := spec.Hi - spec.Lo
		jump := (rng.Float64() - 0.5) * 2 * strength * span
		out[spec.Name] = math.Max(spec.Lo, math.Min(spec.Hi, out[spec.Name]+jump))
	}
	return out
}
