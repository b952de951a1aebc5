// Package metrics 分析服务的 Prometheus 指标，使用独立 registry 并在单独端口暴露
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"smart-resume-analyzer/internal/config"
	"smart-resume-analyzer/internal/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sra"

// 登录结果标签
const (
	LoginSuccess     = "success"
	LoginFailure     = "failure"
	LoginRateLimited = "rate_limited"
)

// Metrics 实现 processor.MetricsRecorder
type Metrics struct {
	registry *prometheus.Registry

	analyses           *prometheus.CounterVec
	analysisDuration   prometheus.Histogram
	extractionFailures prometheus.Counter
	storageFailures    prometheus.Counter
	uploadFailures     prometheus.Counter
	logins             *prometheus.CounterVec
}

// New 创建指标并注册到新的 registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Completed resume analyses by predicted field and candidate level.",
		}, []string{"field", "level"}),
		analysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "End-to-end resume analysis latency.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		extractionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_failures_total",
			Help:      "Documents whose text or fields could not be extracted.",
		}),
		storageFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_failures_total",
			Help:      "Analyses that could not be persisted.",
		}),
		uploadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_failures_total",
			Help:      "Original uploads that could not be stored.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_logins_total",
			Help:      "Admin login attempts by outcome.",
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.analyses,
		m.analysisDuration,
		m.extractionFailures,
		m.storageFailures,
		m.uploadFailures,
		m.logins,
	)
	return m
}

// Registry 供测试读取
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveAnalysis(field, level string, elapsed time.Duration) {
	if field == "" {
		field = "none"
	}
	m.analyses.WithLabelValues(field, level).Inc()
	m.analysisDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) IncExtractionFailure() { m.extractionFailures.Inc() }
func (m *Metrics) IncStorageFailure()    { m.storageFailures.Inc() }
func (m *Metrics) IncUploadFailure()     { m.uploadFailures.Inc() }

// IncLogin outcome 取 LoginSuccess / LoginFailure / LoginRateLimited
func (m *Metrics) IncLogin(outcome string) {
	m.logins.WithLabelValues(outcome).Inc()
}

// Handler 返回 /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Server 独立的指标 HTTP 服务
type Server struct {
	srv *http.Server
}

// StartServer 在后台监听 cfg.Address；未启用时返回 nil
func StartServer(cfg config.MetricsConfig, m *Metrics) *Server {
	if !cfg.Enabled {
		return nil
	}
	path := cfg.Path
	if path == "" {
		path = "/metrics"
	}
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	s := &Server{srv: &http.Server{
		Addr:              cfg.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}}

	log := logger.Component("metrics")
	go func() {
		log.Info().Str("addr", cfg.Address).Str("path", path).Msg("指标服务启动")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("指标服务异常退出")
		}
	}()
	return s
}

// Shutdown 优雅关闭；nil 接收者安全
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
