package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Monitor Prometheus监控指标收集器。所有方法对 nil 接收者安全。
type Monitor struct {
	registry *prometheus.Registry

	// 下单尝试
	attempts       *prometheus.CounterVec
	fills          *prometheus.CounterVec
	filledNotional prometheus.Counter
	orderLatency   prometheus.Histogram

	// 账户
	equity      prometheus.Gauge
	maxDrawdown prometheus.Gauge

	// 进化
	evaluations    *prometheus.CounterVec
	generation     prometheus.Gauge
	generationBest prometheus.Gauge

	// 行情连接
	wsConnections prometheus.Counter
	wsDisconnects prometheus.Counter
}

// Config 监控配置
type Config struct {
	Namespace string `yaml:"namespace"`
	Subsystem string `yaml:"subsystem"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Namespace: "paper",
		Subsystem: "sim",
	}
}

// New 创建新的Monitor实例
func New(cfg Config) *Monitor {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Monitor{
		registry: reg,

		attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "attempts_total",
				Help:      "下单尝试总数（按结果）",
			},
			[]string{"outcome"},
		),
		fills: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "fills_total",
				Help:      "成交笔数（按方向）",
			},
			[]string{"side"},
		),
		filledNotional: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "filled_notional_total",
			Help:      "累计成交名义金额",
		}),
		orderLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "order_latency_seconds",
			Help:      "模拟下单延迟分布（秒）",
			Buckets:   []float64{0.05, 0.1, 0.15, 0.2, 0.25, 0.3, 0.4, 0.5, 1.0},
		}),

		equity: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "equity",
			Help:      "最近一次盯市权益",
		}),
		maxDrawdown: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "max_drawdown",
			Help:      "最近一次汇总的最大回撤",
		}),

		evaluations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluations_total",
				Help:      "基因组评估次数（按结果）",
			},
			[]string{"result"},
		),
		generation: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "generation",
			Help:      "当前代数",
		}),
		generationBest: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "generation_best_score",
			Help:      "当前代最优得分",
		}),

		wsConnections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "ws_connections_total",
			Help:      "WebSocket连接次数",
		}),
		wsDisconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "ws_disconnects_total",
			Help:      "WebSocket断开次数",
		}),
	}

	return m
}

// 下单相关方法
func (m *Monitor) RecordAttempt(outcome string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(outcome).Inc()
}

func (m *Monitor) RecordFill(side string, notional float64) {
	if m == nil {
		return
	}
	m.fills.WithLabelValues(side).Inc()
	m.filledNotional.Add(notional)
}

func (m *Monitor) RecordOrderLatency(seconds float64) {
	if m == nil {
		return
	}
	m.orderLatency.Observe(seconds)
}

// 账户相关方法
func (m *Monitor) UpdateEquity(value float64) {
	if m == nil {
		return
	}
	m.equity.Set(value)
}

func (m *Monitor) UpdateMaxDrawdown(value float64) {
	if m == nil {
		return
	}
	m.maxDrawdown.Set(value)
}

// 进化相关方法
func (m *Monitor) RecordEvaluation(result string) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(result).Inc()
}

func (m *Monitor) UpdateGeneration(gen int, best float64) {
	if m == nil {
		return
	}
	m.generation.Set(float64(gen))
	m.generationBest.Set(best)
}

// 系统相关方法
func (m *Monitor) RecordWSConnection() {
	if m == nil {
		return
	}
	m.wsConnections.Inc()
}

func (m *Monitor) RecordWSDisconnect() {
	if m == nil {
		return
	}
	m.wsDisconnects.Inc()
}

// Handler 返回HTTP handler用于暴露指标
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 返回prometheus registry
func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}
