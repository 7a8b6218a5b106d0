// Package observability expone métricas Prometheus del listener y los reportes.
package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alejandrodnm/signalroom/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics agrupa las métricas de la aplicación. Cada instancia usa su propio
// registry. Un *Metrics nil es válido y no registra nada.
type Metrics struct {
	registry *prometheus.Registry

	// Ingesta
	MessagesReceived     *prometheus.CounterVec
	MessagesStored       prometheus.Counter
	MessagesUnclassified prometheus.Counter
	RecordsSkipped       prometheus.Counter

	// Clasificación
	EventsClassified *prometheus.CounterVec

	// Reportes
	ReportsGenerated *prometheus.CounterVec
	ReportDuration   prometheus.Histogram
	LastReport       prometheus.Gauge
	NetPnL           prometheus.Gauge
}

// NewMetrics crea las métricas y las registra en un registry nuevo.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "signalroom"
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		MessagesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "messages_received_total",
			Help:      "Total number of room messages received by source",
		}, []string{"source"}),
		MessagesStored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "messages_stored_total",
			Help:      "Total number of new messages written to storage",
		}),
		MessagesUnclassified: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "messages_unclassified_total",
			Help:      "Total number of messages that matched no rule",
		}),
		RecordsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "records_skipped_total",
			Help:      "Total number of source records skipped as malformed",
		}),

		EventsClassified: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "events_classified_total",
			Help:      "Total number of classified events by kind",
		}, []string{"kind"}),

		ReportsGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "generated_total",
			Help:      "Total number of reports generated by status",
		}, []string{"status"}),
		ReportDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "duration_seconds",
			Help:      "Time to load, classify and aggregate a report",
			Buckets:   prometheus.DefBuckets,
		}),
		LastReport: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "last_success_timestamp",
			Help:      "Unix time of the last successful report",
		}),
		NetPnL: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "net_pnl",
			Help:      "Simulated net P&L of the last report",
		}),
	}
}

// Registry devuelve el registry de estas métricas.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler devuelve el handler HTTP para /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordReceived cuenta un mensaje recibido de la fuente dada.
func (m *Metrics) RecordReceived(source string) {
	if m == nil {
		return
	}
	m.MessagesReceived.WithLabelValues(source).Inc()
}

// RecordStored cuenta mensajes nuevos guardados.
func (m *Metrics) RecordStored(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.MessagesStored.Add(float64(n))
}

// RecordClassified cuenta el resultado de clasificar un mensaje.
func (m *Metrics) RecordClassified(ev domain.Event, ok bool) {
	if m == nil {
		return
	}
	if !ok {
		m.MessagesUnclassified.Inc()
		return
	}
	m.EventsClassified.WithLabelValues(ev.Kind().String()).Inc()
}

// RecordSkipped cuenta registros descartados.
func (m *Metrics) RecordSkipped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RecordsSkipped.Add(float64(n))
}

// RecordReport registra un reporte generado (o fallido).
func (m *Metrics) RecordReport(r domain.Report, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.ReportDuration.Observe(d.Seconds())
	if err != nil {
		m.ReportsGenerated.WithLabelValues("error").Inc()
		return
	}
	m.ReportsGenerated.WithLabelValues("ok").Inc()
	m.LastReport.Set(float64(r.GeneratedAt.Unix()))
	m.NetPnL.Set(r.Snapshot.PnL.Net.InexactFloat64())
}

// Serve expone /metrics en addr hasta que ctx se cancela.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("metrics server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("observability.Serve: shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("observability.Serve: %w", err)
	}
}
