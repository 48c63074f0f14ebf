package market

import (
	"context"
	"time"
)

// Tick 行情源一次推送的内容：若干盘口更新和/或 L2 快照。
type Tick struct {
	Ts        time.Time
	Tops      []TopOfBook
	Snapshots []Snapshot
}

// Feed 行情源。Next 阻塞直到下一个 Tick；耗尽时返回 io.EOF。
type Feed interface {
	Next(ctx context.Context) (Tick, error)
}

// TopFromSnapshot 用快照的买一/卖一构造盘口，缺失的一侧为 nil。
func TopFromSnapshot(snap Snapshot, ts time.Time) TopOfBook {
	t := TopOfBook{Instrument: snap.Instrument, Ts: ts}
	if bid, ok := bestOf(snap.Bids, true); ok {
		t.Bid = &bid
	}
	if ask, ok := bestOf(snap.Asks, false); ok {
		t.Ask = &ask
	}
	return t
}

// bestOf 快照的档位不保证有序。
func bestOf(levels []Level, bids bool) (float64, bool) {
	found := false
	var best float64
	for _, lvl := range levels {
		if lvl.Size <= 0 {
			continue
		}
		if !found || (bids && lvl.Price > best) || (!bids && lvl.Price < best) {
			best = lvl.Price
			found = true
		}
	}
	return best, found
}
