package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	PageRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "archive_page_requests_total",
		Help: "Количество запросов страниц архива по типу представления",
	}, []string{"view"})

	PermalinkCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "archive_permalink_cache_total",
		Help: "Обращения к кэшу постоянных ссылок",
	}, []string{"result"})

	DayPageBuildSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "archive_day_page_build_seconds",
		Help:    "Время построения дневной страницы",
		Buckets: prometheus.DefBuckets,
	})

	IngestLinesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "archive_ingest_lines_total",
		Help: "Принятые строки файрхоза по результату обработки",
	}, []string{"result"})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		PageRequestsTotal,
		PermalinkCacheTotal,
		DayPageBuildSeconds,
		IngestLinesTotal,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// IncPageRequest увеличивает счётчик запросов страниц.
func IncPageRequest(view string) {
	PageRequestsTotal.WithLabelValues(view).Inc()
}

// IncPermalinkCache фиксирует попадание или промах кэша постоянных ссылок.
func IncPermalinkCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	PermalinkCacheTotal.WithLabelValues(result).Inc()
}

// IncIngestStored фиксирует сохранённую строку файрхоза.
func IncIngestStored() {
	IngestLinesTotal.WithLabelValues("stored").Inc()
}

// IncIngestSkipped фиксирует пропущенную строку файрхоза.
func IncIngestSkipped() {
	IngestLinesTotal.WithLabelValues("skipped").Inc()
}
