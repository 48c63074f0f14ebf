package market

import (
	"sync"
	"time"
)

// TopOfBook 最优买卖价；任一侧缺失时 Bid/Ask 为 nil。
type TopOfBook struct {
	Instrument string
	Ts         time.Time
	Bid        *float64
	Ask        *float64
}

// NewTopOfBook 构造两侧都存在的盘口。
func NewTopOfBook(instrument string, ts time.Time, bid, ask float64) TopOfBook {
	return TopOfBook{Instrument: instrument, Ts: ts, Bid: &bid, Ask: &ask}
}

// Mid 中间价；任一侧缺失返回 ok=false。
func (t TopOfBook) Mid() (float64, bool) {
	if t.Bid == nil || t.Ask == nil {
		return 0, false
	}
	return (*t.Bid + *t.Ask) / 2, true
}

// Service 维护各标的最新盘口。
type Service struct {
	mu  sync.RWMutex
	tob map[string]TopOfBook
}

func NewService() *Service {
	return &Service{tob: make(map[string]TopOfBook)}
}

// OnTopOfBook 覆盖该标的的最新盘口。
func (s *Service) OnTopOfBook(t TopOfBook) {
	if t.Instrument == "" {
		return
	}
	s.mu.Lock()
	s.tob[t.Instrument] = t
	s.mu.Unlock()
}

// TopOfBook 返回最新盘口。
func (s *Service) TopOfBook(instrument string) (TopOfBook, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tob[instrument]
	return t, ok
}

// Mid 返回当前中间价；无数据或缺一侧时 ok=false。
func (s *Service) Mid(instrument string) (float64, bool) {
	t, ok := s.TopOfBook(instrument)
	if !ok {
		return 0, false
	}
	return t.Mid()
}

// Mids 返回所有可计算中间价的标的。
func (s *Service) Mids() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]float64, len(s.tob))
	for id, t := range s.tob {
		if m, ok := t.Mid(); ok {
			out[id] = m
		}
	}
	return out
}
