package market

import (
	"math"
	"sync"
	"time"
)

// DefaultMicroCapacity 微观结构环形缓冲默认容量。
const DefaultMicroCapacity = 5000

// MicroSnapshot 一个中间价采样点。
type MicroSnapshot struct {
	Ts  time.Time
	Mid float64
}

// MicroStats 回看窗口内的中间价变动统计。
type MicroStats struct {
	Lookback      time.Duration
	StartMid      float64
	EndMid        float64
	AbsMovePct    float64 // |signed|，小数形式
	SignedMovePct float64 // (end-start)/start
	Updates       int     // cutoff 之后（含）的样本数
}

// MicrostructureTracker 有界环形缓冲，记录 (ts, mid) 并计算近期变动。
type MicrostructureTracker struct {
	mu    sync.RWMutex
	buf   []MicroSnapshot
	head  int // 最旧样本位置
	count int
}

func NewMicrostructureTracker(capacity int) *MicrostructureTracker {
	if capacity <= 0 {
		capacity = DefaultMicroCapacity
	}
	return &MicrostructureTracker{buf: make([]MicroSnapshot, capacity)}
}

// OnUpdate 追加样本；超过容量时淘汰最旧样本。
func (m *MicrostructureTracker) OnUpdate(ts time.Time, mid float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.count < len(m.buf) {
		m.buf[(m.head+m.count)%len(m.buf)] = MicroSnapshot{Ts: ts, Mid: mid}
		m.count++
		return
	}
	m.buf[m.head] = MicroSnapshot{Ts: ts, Mid: mid}
	m.head = (m.head + 1) % len(m.buf)
}

// OnTopOfBook 缺少中间价的盘口被忽略。
func (m *MicrostructureTracker) OnTopOfBook(t TopOfBook) {
	mid, ok := t.Mid()
	if !ok {
		return
	}
	m.OnUpdate(t.Ts, mid)
}

// Len 当前缓冲样本数。
func (m *MicrostructureTracker) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.count
}

func (m *MicrostructureTracker) at(i int) MicroSnapshot {
	return m.buf[(m.head+i)%len(m.buf)]
}

// StatsOver 计算最近 lookback 内的变动；样本少于 3 个时返回 ok=false。
func (m *MicrostructureTracker) StatsOver(lookback time.Duration) (MicroStats, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.count < 3 {
		return MicroStats{}, false
	}
	end := m.at(m.count - 1)
	cutoff := end.Ts.Add(-lookback)

	start := m.at(0)
	updates := 0
	found := false
	for i := 0; i < m.count; i++ {
		s := m.at(i)
		if s.Ts.Before(cutoff) {
			continue
		}
		if !found {
			start = s
			found = true
		}
		updates++
	}

	signed := (end.Mid - start.Mid) / math.Max(start.Mid, 1e-9)
	return MicroStats{
		Lookback:      lookback,
		StartMid:      start.Mid,
		EndMid:        end.Mid,
		AbsMovePct:    math.Abs(signed),
		SignedMovePct: signed,
		Updates:       updates,
	}, true
}
