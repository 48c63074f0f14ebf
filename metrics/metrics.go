// Package metrics exposes Prometheus metrics over HTTP.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"paper-evolve/infrastructure/logger"
)

// NewHandler 返回 /metrics 路由
func NewHandler(g prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return mux
}

// StartMetricsServer 启动Prometheus指标服务器；返回的函数用于关闭。
func StartMetricsServer(addr string, g prometheus.Gatherer, log *logger.Logger) (shutdown func(context.Context) error) {
	log = logger.OrNop(log)
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewHandler(g),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()
	return srv.Shutdown
}
