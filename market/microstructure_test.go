package market

import (
	"math"
	"testing"
	"time"
)

func TestMicrostructureNeedsThreeSamples(t *testing.T) {
	m := NewMicrostructureTracker(10)
	base := time.Unix(0, 0)
	m.OnUpdate(base, 1)
	m.OnUpdate(base.Add(time.Second), 1)
	if _, ok := m.StatsOver(time.Second); ok {
		t.Fatalf("expected no stats with 2 samples")
	}
}

func TestMicrostructureStatsOver(t *testing.T) {
	m := NewMicrostructureTracker(10)
	base := time.Unix(0, 0)
	mids := []float64{0.50, 0.51, 0.52, 0.53, 0.55}
	for i, mid := range mids {
		m.OnUpdate(base.Add(time.Duration(i)*time.Second), mid)
	}
	st, ok := m.StatsOver(2 * time.Second)
	if !ok {
		t.Fatalf("expected stats")
	}
	if st.StartMid != 0.52 || st.EndMid != 0.55 || st.Updates != 3 {
		t.Fatalf("unexpected stats %+v", st)
	}
	want := (0.55 - 0.52) / 0.52
	if math.Abs(st.SignedMovePct-want) > 1e-12 || math.Abs(st.AbsMovePct-want) > 1e-12 {
		t.Fatalf("unexpected move %+v", st)
	}
}

func TestMicrostructureEvictsOldest(t *testing.T) {
	m := NewMicrostructureTracker(3)
	base := time.Unix(0, 0)
	for i := 0; i < 5; i++ {
		m.OnUpdate(base.Add(time.Duration(i)*time.Second), float64(10+i))
	}
	if m.Len() != 3 {
		t.Fatalf("expected 3 buffered, got %d", m.Len())
	}
	// 回看窗口覆盖全部缓冲时从最旧的剩余样本开始
	st, _ := m.StatsOver(time.Hour)
	if st.StartMid != 12 || st.EndMid != 14 {
		t.Fatalf("unexpected stats after eviction %+v", st)
	}
	if st.SignedMovePct <= 0 {
		t.Fatalf("expected upward move")
	}
}

func TestMicrostructureDownMove(t *testing.T) {
	m := NewMicrostructureTracker(0)
	base := time.Unix(0, 0)
	for i, mid := range []float64{1.0, 0.9, 0.8} {
		m.OnUpdate(base.Add(time.Duration(i)*time.Second), mid)
	}
	st, _ := m.StatsOver(0)
	// lookback 0：cutoff=最新时间，只有最新样本
	if st.Updates != 1 || st.SignedMovePct != 0 {
		t.Fatalf("unexpected zero-lookback stats %+v", st)
	}
	st, _ = m.StatsOver(10 * time.Second)
	if st.SignedMovePct >= 0 || math.Abs(st.AbsMovePct-0.2) > 1e-12 {
		t.Fatalf("unexpected down move %+v", st)
	}
}

func TestMicrostructureIgnoresOneSidedTop(t *testing.T) {
	m := NewMicrostructureTracker(5)
	bid := 0.5
	m.OnTopOfBook(TopOfBook{Instrument: "A", Bid: &bid})
	if m.Len() != 0 {
		t.Fatalf("one-sided top of book must be ignored")
	}
	m.OnTopOfBook(NewTopOfBook("A", time.Unix(0, 0), 0.49, 0.51))
	if m.Len() != 1 {
		t.Fatalf("expected sample recorded")
	}
}
