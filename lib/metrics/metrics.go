// Package metrics -----------------------------
// @file      : metrics.go
// @author    : hcjjj
// @contact   : hcjjj@foxmail.com
// @time      : 2024/1/20 14:05
// -------------------------------------------
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mini-redis/lib/logger"
)

const namespace = "mini_redis"

// Metrics 服务端的监控指标，nil 的 *Metrics 上调用任何方法都什么也不做
type Metrics struct {
	registry *prometheus.Registry

	connectionsTotal prometheus.Counter
	connectedClients prometheus.Gauge
	commandsTotal    *prometheus.CounterVec
	protocolErrors   prometheus.Counter
	expiredSwept     prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Total number of accepted client connections",
		}),
		connectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected_clients",
			Help:      "Number of client connections currently open",
		}),
		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Total number of dispatched commands by command name",
		}, []string{"command"}),
		protocolErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_errors_total",
			Help:      "Total number of malformed frames received",
		}),
		expiredSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expired_keys_swept_total",
			Help:      "Total number of expired keys removed by the active sweeper",
		}),
	}
	m.registry.MustRegister(
		m.connectionsTotal,
		m.connectedClients,
		m.commandsTotal,
		m.protocolErrors,
		m.expiredSwept,
		collectors.NewGoCollector(),
	)
	return m
}

// RegisterKeys 把 key 的数量作为 gauge 暴露，采集时调用 count
func (m *Metrics) RegisterKeys(count func() int) {
	if m == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "keys",
		Help:      "Number of entries held by the store, including expired ones not yet removed",
	}, func() float64 {
		return float64(count())
	}))
}

func (m *Metrics) ConnOpened() {
	if m == nil {
		return
	}
	m.connectionsTotal.Inc()
	m.connectedClients.Inc()
}

func (m *Metrics) ConnClosed() {
	if m == nil {
		return
	}
	m.connectedClients.Dec()
}

func (m *Metrics) CommandProcessed(name string) {
	if m == nil {
		return
	}
	m.commandsTotal.WithLabelValues(name).Inc()
}

func (m *Metrics) ProtocolError() {
	if m == nil {
		return
	}
	m.protocolErrors.Inc()
}

func (m *Metrics) KeysSwept(n int) {
	if m == nil || n == 0 {
		return
	}
	m.expiredSwept.Add(float64(n))
}

// Registry 测试里用来读取指标
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve 在 addr 上提供 /metrics，直到 ctx 结束
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logger.Info("metrics listening on " + addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
