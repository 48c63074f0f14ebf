package market

import "sort"

// Level 一个价格档位。
type Level struct {
	Price float64
	Size  float64
}

// ladder 单边价格阶梯：bids 降序、asks 升序，且不超过 maxLevels 档。
type ladder struct {
	bids      bool
	maxLevels int
	levels    []Level
}

func newLadder(bids bool, maxLevels int) *ladder {
	return &ladder{bids: bids, maxLevels: maxLevels}
}

// better 判断 a 是否比 b 更优（bids 价高为优，asks 价低为优）。
func (l *ladder) better(a, b float64) bool {
	if l.bids {
		return a > b
	}
	return a < b
}

// upsert size<=0 表示删除该档；否则插入或替换，并截断到最大深度。
// 非有限或非正的价格、非有限的数量直接忽略。
func (l *ladder) upsert(price, size float64) {
	if !isFinite(price) || price <= 0 || !isFinite(size) {
		return
	}
	i := sort.Search(len(l.levels), func(i int) bool {
		return !l.better(l.levels[i].Price, price)
	})
	exists := i < len(l.levels) && l.levels[i].Price == price
	if size <= 0 {
		if exists {
			l.levels = append(l.levels[:i], l.levels[i+1:]...)
		}
		return
	}
	if exists {
		l.levels[i].Size = size
		return
	}
	if l.maxLevels > 0 && i >= l.maxLevels {
		// 比最差档还差，直接丢弃
		return
	}
	l.levels = append(l.levels, Level{})
	copy(l.levels[i+1:], l.levels[i:])
	l.levels[i] = Level{Price: price, Size: size}
	if l.maxLevels > 0 && len(l.levels) > l.maxLevels {
		l.levels = l.levels[:l.maxLevels]
	}
}

func (l *ladder) reset() {
	l.levels = l.levels[:0]
}

func (l *ladder) snapshot() []Level {
	out := make([]Level, len(l.levels))
	copy(out, l.levels)
	return out
}
