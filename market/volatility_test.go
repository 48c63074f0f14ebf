package market

import (
	"math"
	"testing"
)

func TestVolatilityWindowRampUp(t *testing.T) {
	w := NewVolatilityWindow(60)
	if MinPoints(60) != 20 {
		t.Fatalf("unexpected min points %d", MinPoints(60))
	}
	for i := 0; i < 19; i++ {
		if _, ok := w.Add(0.001); ok {
			t.Fatalf("window ready too early at %d", i)
		}
	}
	vol, ok := w.Add(0.001)
	if !ok || vol != 0 {
		t.Fatalf("expected ready zero vol, got %f %v", vol, ok)
	}
}

func TestVolatilityWindowSmallWindowNeedsTen(t *testing.T) {
	w := NewVolatilityWindow(5)
	for i := 0; i < 50; i++ {
		if _, ok := w.Add(float64(i)); ok {
			t.Fatalf("window of 5 can never hold 10 points")
		}
	}
}

func TestRollingStdMatchesSampleStd(t *testing.T) {
	xs := []float64{1, -1, 1, -1, 1, -1, 1, -1, 1, -1, 1, -1}
	vols := RollingStd(xs, 30)
	for i := 0; i < 9; i++ {
		if vols[i] != 0 {
			t.Fatalf("ramp-up point %d should be 0", i)
		}
	}
	// 10 个点：均值 0，样本方差 10/9
	want := math.Sqrt(10.0 / 9.0)
	if math.Abs(vols[9]-want) > 1e-12 {
		t.Fatalf("want %f got %f", want, vols[9])
	}
}

func TestSimpleReturnsSkipsNonPositive(t *testing.T) {
	rs := SimpleReturns([]float64{100, 110, 0, 5, 10})
	if len(rs) != 3 {
		t.Fatalf("unexpected returns %v", rs)
	}
	if math.Abs(rs[0]-0.1) > 1e-12 || rs[1] != -1 || rs[2] != 1 {
		t.Fatalf("unexpected returns %v", rs)
	}
}
