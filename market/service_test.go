package market

import (
	"testing"
	"time"
)

func TestServiceMid(t *testing.T) {
	svc := NewService()
	now := time.Unix(1700000000, 0)
	svc.OnTopOfBook(NewTopOfBook("A", now, 0.49, 0.51))
	if mid, ok := svc.Mid("A"); !ok || mid != 0.5 {
		t.Fatalf("unexpected mid %f ok=%v", mid, ok)
	}
	bid := 0.4
	svc.OnTopOfBook(TopOfBook{Instrument: "B", Ts: now, Bid: &bid})
	if _, ok := svc.Mid("B"); ok {
		t.Fatalf("one-sided book must not have a mid")
	}
	if _, ok := svc.Mid("C"); ok {
		t.Fatalf("unknown instrument must not have a mid")
	}
	mids := svc.Mids()
	if len(mids) != 1 || mids["A"] != 0.5 {
		t.Fatalf("unexpected mids %v", mids)
	}
}
