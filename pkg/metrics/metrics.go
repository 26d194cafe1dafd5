// Package metrics 提供 Prometheus helper，包含常用 counter/gauge/histogram 模板
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/venturecrest/angelnet/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数
	HTTPRequestsTotal prometheus.Counter
	// HTTP 请求耗时
	HTTPRequestDuration prometheus.Histogram

	// 数据库查询计数
	DBQueriesTotal prometheus.Counter
	// 数据库查询耗时
	DBQueryDuration prometheus.Histogram

	// 业务指标
	DealsTotal           prometheus.Counter
	DealTransitionsTotal prometheus.Counter
	CommitmentsTotal     prometheus.Counter
	PaymentsVerified     prometheus.Counter
	PaymentsFailed       prometheus.Counter
	InvoicesGenerated    prometheus.Counter
	ApplicationsTotal    prometheus.Counter
	DealsLive            prometheus.Gauge
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "angelnet",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}),
		HTTPRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "angelnet",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		DBQueriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "angelnet",
			Subsystem: serviceName,
			Name:      "db_queries_total",
			Help:      "Total database queries",
		}),
		DBQueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "angelnet",
			Subsystem: serviceName,
			Name:      "db_query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		DealsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "angelnet",
			Subsystem: serviceName,
			Name:      "deals_total",
			Help:      "Total deals created",
		}),
		DealTransitionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "angelnet",
			Subsystem: serviceName,
			Name:      "deal_transitions_total",
			Help:      "Total deal status transitions applied",
		}),
		CommitmentsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "angelnet",
			Subsystem: serviceName,
			Name:      "commitments_total",
			Help:      "Total investment commitments created",
		}),
		PaymentsVerified: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "angelnet",
			Subsystem: serviceName,
			Name:      "payments_verified_total",
			Help:      "Total payments with a verified gateway signature",
		}),
		PaymentsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "angelnet",
			Subsystem: serviceName,
			Name:      "payments_failed_total",
			Help:      "Total payments rejected on signature verification",
		}),
		InvoicesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "angelnet",
			Subsystem: serviceName,
			Name:      "invoices_generated_total",
			Help:      "Total invoices generated",
		}),
		ApplicationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "angelnet",
			Subsystem: serviceName,
			Name:      "applications_total",
			Help:      "Total intake applications submitted",
		}),
		DealsLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "angelnet",
			Subsystem: serviceName,
			Name:      "deals_live",
			Help:      "Number of deals currently live",
		}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register() error {
	collectors := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBQueriesTotal,
		m.DBQueryDuration,
		m.DealsTotal,
		m.DealTransitionsTotal,
		m.CommitmentsTotal,
		m.PaymentsVerified,
		m.PaymentsFailed,
		m.InvoicesGenerated,
		m.ApplicationsTotal,
		m.DealsLive,
	}

	for _, collector := range collectors {
		if err := prometheus.DefaultRegisterer.Register(collector); err != nil {
			logger.Error(context.Background(), "Failed to register metric", "error", err)
			return err
		}
	}

	logger.Info(context.Background(), "Metrics registered successfully")
	return nil
}

// StartHTTPServer 启动 Prometheus HTTP 服务器
func StartHTTPServer(port int, path string) error {
	if path == "" {
		path = "/metrics"
	}

	http.Handle(path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info(context.Background(), "Starting Prometheus HTTP server", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil {
			logger.Error(context.Background(), "Prometheus HTTP server error", "error", err)
		}
	}()

	return nil
}
