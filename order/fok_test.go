package order

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-evolve/market"
)

func testBook() market.OrderBook {
	return market.OrderBook{
		Instrument: "B",
		Bids:       []market.Level{{Price: 0.49, Size: 100}, {Price: 0.48, Size: 200}},
		Asks:       []market.Level{{Price: 0.51, Size: 100}, {Price: 0.52, Size: 200}},
	}
}

func TestMatchFOKFillsAtFirstLevel(t *testing.T) {
	res := MatchFOK(Intent{Instrument: "B", Side: Buy, LimitPrice: 0.515, Notional: 50}, testBook(), FillParams{})
	require.True(t, res.OK)
	assert.Equal(t, "filled", res.Reason)
	assert.InDelta(t, 50, res.Notional, 1e-9)
	assert.InDelta(t, 50/0.51, res.Quantity, 1e-9)
	assert.InDelta(t, 0.51, res.AvgPrice, 1e-12)
	assert.NoError(t, res.Err())
}

func TestMatchFOKRejectsBeyondLimit(t *testing.T) {
	res := MatchFOK(Intent{Instrument: "B", Side: Buy, LimitPrice: 0.515, Notional: 200}, testBook(), FillParams{})
	assert.False(t, res.OK)
	assert.Equal(t, "FOK not filled", res.Reason)
	assert.Zero(t, res.Notional)
	assert.Zero(t, res.Quantity)
	assert.Zero(t, res.AvgPrice)
	assert.ErrorIs(t, res.Err(), ErrFOKNotFilled)
}

func TestMatchFOKWalksLevelsForVWAP(t *testing.T) {
	// 第一档 51 美元 + 第二档 49 美元
	res := MatchFOK(Intent{Instrument: "B", Side: Buy, LimitPrice: 0.52, Notional: 100}, testBook(), FillParams{})
	require.True(t, res.OK)
	wantQty := 100 + 49/0.52
	assert.InDelta(t, wantQty, res.Quantity, 1e-9)
	assert.InDelta(t, 100/wantQty, res.AvgPrice, 1e-12)
}

func TestMatchFOKSell(t *testing.T) {
	res := MatchFOK(Intent{Instrument: "B", Side: Sell, LimitPrice: 0.485, Notional: 20}, testBook(), FillParams{})
	require.True(t, res.OK)
	assert.InDelta(t, 20, res.Notional, 1e-9)
	assert.InDelta(t, 20/0.49, res.Quantity, 1e-9)

	res = MatchFOK(Intent{Instrument: "B", Side: Sell, LimitPrice: 0.485, Notional: 60}, testBook(), FillParams{})
	assert.False(t, res.OK)
}

func TestMatchFOKFeesSlippageAndShrink(t *testing.T) {
	p := FillParams{FeeBps: 10, SlippageBps: 20, ExtraSlippageBps: 30, LiquidityShrink: 0.5}
	res := MatchFOK(Intent{Instrument: "B", Side: Buy, LimitPrice: 0.51, Notional: 10}, testBook(), p)
	require.True(t, res.OK)
	eff := 0.51 * (1 + 0.005) * (1 + 0.001)
	assert.InDelta(t, eff, res.AvgPrice, 1e-12)

	// 缩减一半后第一档只剩 50 股
	res = MatchFOK(Intent{Instrument: "B", Side: Buy, LimitPrice: 0.51, Notional: 30}, testBook(), p)
	assert.False(t, res.OK)

	res = MatchFOK(Intent{Instrument: "B", Side: Sell, LimitPrice: 0.49, Notional: 10}, testBook(), p)
	require.True(t, res.OK)
	assert.InDelta(t, 0.49*(1-0.005)*(1-0.001), res.AvgPrice, 1e-12)

	res = MatchFOK(Intent{Instrument: "B", Side: Buy, LimitPrice: 1, Notional: 1}, testBook(), FillParams{LiquidityShrink: 1})
	assert.False(t, res.OK)
}

func TestMatchFOKBadSide(t *testing.T) {
	res := MatchFOK(Intent{Instrument: "B", Side: "HOLD", LimitPrice: 1, Notional: 1}, testBook(), FillParams{})
	assert.False(t, res.OK)
	assert.Equal(t, "bad side", res.Reason)
	assert.ErrorIs(t, res.Err(), ErrBadSide)
}

func TestMatchFOKAllOrNothing(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		book := market.OrderBook{Instrument: "X"}
		px := 0.5
		for j := 0; j < 1+rng.Intn(6); j++ {
			px += 0.001 + rng.Float64()*0.01
			book.Asks = append(book.Asks, market.Level{Price: px, Size: rng.Float64() * 200})
		}
		intent := Intent{Instrument: "X", Side: Buy, LimitPrice: 0.5 + rng.Float64()*0.06, Notional: rng.Float64() * 150}
		res := MatchFOK(intent, book, FillParams{FeeBps: rng.Float64() * 20, LiquidityShrink: rng.Float64() * 0.5})
		if res.OK {
			if math.Abs(res.Notional-intent.Notional) > 1e-6 {
				t.Fatalf("partial fill reported ok: %+v for %+v", res, intent)
			}
			continue
		}
		if res.Notional != 0 || res.Quantity != 0 {
			t.Fatalf("rejection carried partial state: %+v", res)
		}
	}
}

func TestIntentValidate(t *testing.T) {
	assert.NoError(t, Intent{Instrument: "B", Side: Sell, LimitPrice: 0.5, Notional: 1}.Validate())
	assert.Error(t, Intent{Side: Sell, LimitPrice: 0.5, Notional: 1}.Validate())
	assert.ErrorIs(t, Intent{Instrument: "B", Side: "x", LimitPrice: 0.5, Notional: 1}.Validate(), ErrBadSide)
	assert.Error(t, Intent{Instrument: "B", Side: Buy, Notional: 1}.Validate())
	assert.Error(t, Intent{Instrument: "B", Side: Buy, LimitPrice: 0.5}.Validate())
	assert.Error(t, Intent{Instrument: "B", Side: Buy, LimitPrice: math.NaN(), Notional: 1}.Validate())
	assert.Error(t, Intent{Instrument: "B", Side: Buy, LimitPrice: 0.5, Notional: math.Inf(1)}.Validate())
}

func TestMatchFOKRejectsNonFiniteLevels(t *testing.T) {
	book := market.OrderBook{
		Instrument: "B",
		Bids:       []market.Level{{Price: math.NaN(), Size: 5}, {Price: 0.5, Size: 10}},
		Asks:       []market.Level{{Price: 0.51, Size: math.Inf(1)}},
	}
	res := MatchFOK(Intent{Instrument: "B", Side: Sell, LimitPrice: 0.48, Notional: 5}, book, FillParams{})
	assert.False(t, res.OK)
	assert.Zero(t, res.Notional)
	assert.Zero(t, res.Quantity)
	assert.ErrorIs(t, res.Err(), ErrFOKNotFilled)

	res = MatchFOK(Intent{Instrument: "B", Side: Buy, LimitPrice: 0.52, Notional: 5}, book, FillParams{LiquidityShrink: 0.5})
	require.True(t, res.OK)
	assert.True(t, res.Finite())

	assert.False(t, FillResult{OK: true, Notional: math.NaN()}.Finite())
}
