package gateway

import (
	"context"
	"math/rand"
	"time"
)

// LatencyProfile 某个地域的下单延迟分布。
type LatencyProfile struct {
	BaseMs      int     `yaml:"base_ms"`
	JitterMs    int     `yaml:"jitter_ms"`
	TailProb    float64 `yaml:"tail_prob"`
	ExtraTailMs int     `yaml:"extra_tail_ms"`
	DropProb    float64 `yaml:"drop_prob"`
}

// DefaultLatencyProfile 未知地域使用的兜底分布。
func DefaultLatencyProfile() LatencyProfile {
	return LatencyProfile{BaseMs: 150, JitterMs: 45, TailProb: 0.08, ExtraTailMs: 250, DropProb: 0.01}
}

// SleepFunc 可取消的等待；ctx 结束时返回 ctx.Err()。
type SleepFunc func(ctx context.Context, d time.Duration) error

// ContextSleep 基于 timer 的 SleepFunc。
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// LatencyModel 按地域模拟下单延迟与丢单。非并发安全：每个模拟实例独占一个。
type LatencyModel struct {
	profiles map[string]LatencyProfile
	region   string
	rng      *rand.Rand
	sleep    SleepFunc
}

func NewLatencyModel(profiles map[string]LatencyProfile, region string, rng *rand.Rand, sleep SleepFunc) *LatencyModel {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	if sleep == nil {
		sleep = ContextSleep
	}
	return &LatencyModel{profiles: profiles, region: region, rng: rng, sleep: sleep}
}

// Profile 当前地域的分布，未知地域回退到默认分布。
func (m *LatencyModel) Profile() LatencyProfile {
	if p, ok := m.profiles[m.region]; ok {
		return p
	}
	return DefaultLatencyProfile()
}

// Sample 抽取一次结果：先判丢单，再计算 base+jitter（不小于 0），最后按概率叠加尾部延迟。
func (m *LatencyModel) Sample() (delay time.Duration, delivered bool) {
	p := m.Profile()
	if m.rng.Float64() < p.DropProb {
		return 0, false
	}
	jitter := 0
	if p.JitterMs > 0 {
		jitter = m.rng.Intn(2*p.JitterMs+1) - p.JitterMs
	}
	ms := max(0, p.BaseMs+jitter)
	if m.rng.Float64() < p.TailProb {
		ms += p.ExtraTailMs
	}
	return time.Duration(ms) * time.Millisecond, true
}

// Wait 抽样并挂起当前下单尝试。丢单立即返回；ctx 取消时返回 ctx.Err()。
func (m *LatencyModel) Wait(ctx context.Context) (delivered bool, elapsed time.Duration, err error) {
	delay, ok := m.Sample()
	if !ok {
		return false, 0, nil
	}
	if err := m.sleep(ctx, delay); err != nil {
		return false, 0, err
	}
	return true, delay, nil
}
