package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"paper-evolve/infrastructure/logger"
	"paper-evolve/infrastructure/monitor"
	"paper-evolve/market"
)

// WSFeedConfig 实时 L2 行情连接参数。
type WSFeedConfig struct {
	URL             string        `yaml:"url"`
	Instruments     []string      `yaml:"instruments"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	ReconnectPerSec float64       `yaml:"reconnect_per_sec"`
	BreakerFailures uint32        `yaml:"breaker_failures"`
	BreakerTimeout  time.Duration `yaml:"breaker_timeout"`
}

func (c WSFeedConfig) withDefaults() WSFeedConfig {
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.ReconnectPerSec <= 0 {
		c.ReconnectPerSec = 0.5
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = 5
	}
	if c.BreakerTimeout <= 0 {
		c.BreakerTimeout = 30 * time.Second
	}
	return c
}

type subscribeRequest struct {
	Type      string   `json:"type"`
	AssetsIDs []string `json:"assets_ids"`
}

// WSFeed 通过 WebSocket 接收 L2 快照并转换为 market.Tick。
// 断线后按限速重连，连续拨号失败由熔断器拦截。
type WSFeed struct {
	cfg     WSFeedConfig
	dialer  *websocket.Dialer
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	log     *logger.Logger
	mon     *monitor.Monitor
	now     func() time.Time
	allowed map[string]struct{}

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewWSFeed(cfg WSFeedConfig, log *logger.Logger, mon *monitor.Monitor) *WSFeed {
	cfg = cfg.withDefaults()
	f := &WSFeed{
		cfg:     cfg,
		dialer:  websocket.DefaultDialer,
		limiter: rate.NewLimiter(rate.Limit(cfg.ReconnectPerSec), 1),
		log:     logger.OrNop(log),
		mon:     mon,
		now:     time.Now,
		allowed: make(map[string]struct{}, len(cfg.Instruments)),
	}
	for _, id := range cfg.Instruments {
		f.allowed[id] = struct{}{}
	}
	f.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "ws-feed-dial",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			f.log.Warn("circuit breaker state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return f
}

// Next 阻塞读取直到得到至少一个可用快照。读错误会触发重连；ctx 结束时返回 ctx.Err()。
func (f *WSFeed) Next(ctx context.Context) (market.Tick, error) {
	for {
		if err := ctx.Err(); err != nil {
			return market.Tick{}, err
		}
		conn, err := f.connection(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return market.Tick{}, ctx.Err()
			}
			f.log.Warn("ws feed connect failed", zap.Error(err))
			continue
		}
		msg, err := f.read(ctx, conn)
		if err != nil {
			f.drop(conn)
			if ctx.Err() != nil {
				return market.Tick{}, ctx.Err()
			}
			f.log.Warn("ws feed read failed", zap.Error(err))
			continue
		}
		if tick, ok := f.decode(msg); ok {
			return tick, nil
		}
	}
}

// Close 关闭当前连接。
func (f *WSFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conn == nil {
		return nil
	}
	err := f.conn.Close()
	f.conn = nil
	return err
}

func (f *WSFeed) connection(ctx context.Context) (*websocket.Conn, error) {
	f.mu.Lock()
	conn := f.conn
	f.mu.Unlock()
	if conn != nil {
		return conn, nil
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	res, err := f.breaker.Execute(func() (interface{}, error) {
		return f.dial(ctx)
	})
	if err != nil {
		return nil, err
	}
	conn = res.(*websocket.Conn)
	f.mu.Lock()
	f.conn = conn
	f.mu.Unlock()
	f.mon.RecordWSConnection()
	f.log.Info("ws feed connected", zap.String("url", f.cfg.URL), zap.Int("instruments", len(f.cfg.Instruments)))
	return conn, nil
}

func (f *WSFeed) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := f.dialer.DialContext(ctx, f.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("ws feed dial: %w", err)
	}
	if len(f.cfg.Instruments) > 0 {
		req, _ := json.Marshal(subscribeRequest{Type: "market", AssetsIDs: f.cfg.Instruments})
		if err := conn.WriteMessage(websocket.TextMessage, req); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("ws feed subscribe: %w", err)
		}
	}
	return conn, nil
}

func (f *WSFeed) read(ctx context.Context, conn *websocket.Conn) ([]byte, error) {
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	for {
		_ = conn.SetReadDeadline(time.Now().Add(f.cfg.ReadTimeout))
		typ, msg, err := conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if typ != websocket.TextMessage && typ != websocket.BinaryMessage {
			continue
		}
		if len(msg) == 0 || string(msg) == "ping" || string(msg) == "pong" {
			continue
		}
		return msg, nil
	}
}

func (f *WSFeed) drop(conn *websocket.Conn) {
	f.mu.Lock()
	if f.conn == conn {
		f.conn = nil
	}
	f.mu.Unlock()
	_ = conn.Close()
	f.mon.RecordWSDisconnect()
}

// decode 支持单条消息或消息数组；不认识的消息被忽略。
func (f *WSFeed) decode(msg []byte) (market.Tick, bool) {
	raws := [][]byte{msg}
	if trimmed := bytes.TrimSpace(msg); len(trimmed) > 0 && trimmed[0] == '[' {
		var arr []json.RawMessage
		if err := json.Unmarshal(trimmed, &arr); err != nil {
			return market.Tick{}, false
		}
		raws = raws[:0]
		for _, r := range arr {
			raws = append(raws, r)
		}
	}
	tick := market.Tick{Ts: f.now()}
	for _, raw := range raws {
		snap, ok := market.DecodeSnapshot(raw)
		if !ok || !f.wanted(snap.Instrument) {
			continue
		}
		tick.Snapshots = append(tick.Snapshots, snap)
		tick.Tops = append(tick.Tops, market.TopFromSnapshot(snap, tick.Ts))
	}
	return tick, len(tick.Snapshots) > 0
}

func (f *WSFeed) wanted(instrument string) bool {
	if len(f.allowed) == 0 {
		return true
	}
	_, ok := f.allowed[instrument]
	return ok
}
