package market

import "sync"

// DefaultMaxLevels 每边默认保留的最大档位数。
const DefaultMaxLevels = 200

// OrderBook 某个标的的只读深度视图（拷贝），bids 降序、asks 升序。
type OrderBook struct {
	Instrument string
	Bids       []Level
	Asks       []Level
}

// BestBid 返回买一；空则 ok=false。
func (b OrderBook) BestBid() (Level, bool) {
	if len(b.Bids) == 0 {
		return Level{}, false
	}
	return b.Bids[0], true
}

// BestAsk 返回卖一；空则 ok=false。
func (b OrderBook) BestAsk() (Level, bool) {
	if len(b.Asks) == 0 {
		return Level{}, false
	}
	return b.Asks[0], true
}

type sideBooks struct {
	bids *ladder
	asks *ladder
}

// BookStore 按标的维护两条独立的价格阶梯。
type BookStore struct {
	mu        sync.RWMutex
	maxLevels int
	books     map[string]*sideBooks
}

func NewBookStore(maxLevels int) *BookStore {
	if maxLevels <= 0 {
		maxLevels = DefaultMaxLevels
	}
	return &BookStore{
		maxLevels: maxLevels,
		books:     make(map[string]*sideBooks),
	}
}

// MaxLevels 返回单边最大深度。
func (s *BookStore) MaxLevels() int { return s.maxLevels }

func (s *BookStore) getLocked(instrument string) *sideBooks {
	sb, ok := s.books[instrument]
	if !ok {
		sb = &sideBooks{
			bids: newLadder(true, s.maxLevels),
			asks: newLadder(false, s.maxLevels),
		}
		s.books[instrument] = sb
	}
	return sb
}

// UpsertBid 更新买档，size<=0 删除。
func (s *BookStore) UpsertBid(instrument string, price, size float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getLocked(instrument).bids.upsert(price, size)
}

// UpsertAsk 更新卖档，size<=0 删除。
func (s *BookStore) UpsertAsk(instrument string, price, size float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getLocked(instrument).asks.upsert(price, size)
}

// ApplySnapshot 用全量快照原子替换该标的的两侧阶梯。
func (s *BookStore) ApplySnapshot(snap Snapshot) {
	if snap.Instrument == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sb := s.getLocked(snap.Instrument)
	sb.bids.reset()
	sb.asks.reset()
	for _, lvl := range snap.Bids {
		sb.bids.upsert(lvl.Price, lvl.Size)
	}
	for _, lvl := range snap.Asks {
		sb.asks.upsert(lvl.Price, lvl.Size)
	}
}

// OnMessage 解析原始快照消息并应用；格式不合法的消息静默丢弃。
func (s *BookStore) OnMessage(raw []byte) bool {
	snap, ok := DecodeSnapshot(raw)
	if !ok {
		return false
	}
	s.ApplySnapshot(snap)
	return true
}

// Book 返回深度视图；从未收到数据的标的返回 ok=false（区别于“当前为空”）。
func (s *BookStore) Book(instrument string) (OrderBook, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sb, ok := s.books[instrument]
	if !ok {
		return OrderBook{}, false
	}
	return OrderBook{
		Instrument: instrument,
		Bids:       sb.bids.snapshot(),
		Asks:       sb.asks.snapshot(),
	}, true
}
