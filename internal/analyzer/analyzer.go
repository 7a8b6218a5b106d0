// Package analyzer orquesta el pipeline fuente → clasificador → agregador →
// reporters, en modo único, importación o escucha en vivo.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/signalroom/internal/aggregator"
	"github.com/alejandrodnm/signalroom/internal/classifier"
	"github.com/alejandrodnm/signalroom/internal/domain"
	"github.com/alejandrodnm/signalroom/internal/observability"
	"github.com/alejandrodnm/signalroom/internal/ports"
)

const defaultRecentLimit = 50

// Config contiene la configuración del analyzer.
type Config struct {
	Range       domain.DateRange
	RecentLimit int
	Location    *time.Location
}

// DefaultConfig devuelve una configuración sin filtro de fechas.
func DefaultConfig() Config {
	return Config{
		RecentLimit: defaultRecentLimit,
		Location:    time.UTC,
	}
}

// Analyzer recalcula el reporte completo en cada consulta.
type Analyzer struct {
	cfg        Config
	source     ports.MessageSource
	classifier *classifier.Classifier
	aggregator *aggregator.Aggregator
	reporters  []ports.Reporter
	metrics    *observability.Metrics
	now        func() time.Time
}

// New crea un Analyzer con todas las dependencias inyectadas.
func New(
	cfg Config,
	source ports.MessageSource,
	cls *classifier.Classifier,
	agg *aggregator.Aggregator,
	reporters ...ports.Reporter,
) *Analyzer {
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = defaultRecentLimit
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Analyzer{
		cfg:        cfg,
		source:     source,
		classifier: cls,
		aggregator: agg,
		reporters:  reporters,
		now:        time.Now,
	}
}

// WithMetrics activa el registro de métricas.
func (a *Analyzer) WithMetrics(m *observability.Metrics) *Analyzer {
	a.metrics = m
	return a
}

// RunOnce construye el reporte del rango configurado y lo publica.
func (a *Analyzer) RunOnce(ctx context.Context) (domain.Report, error) {
	return a.Publish(ctx, a.cfg.Range)
}

// Publish construye el reporte de rng y lo entrega a todos los reporters.
// Un reporter que falla no impide que los demás reciban el reporte.
func (a *Analyzer) Publish(ctx context.Context, rng domain.DateRange) (domain.Report, error) {
	report, err := a.Build(ctx, rng)
	if err != nil {
		return domain.Report{}, err
	}

	for _, r := range a.reporters {
		if err := r.Report(ctx, report); err != nil {
			slog.Warn("reporter error", "err", err)
		}
	}
	return report, nil
}

// Build hace load → classify → aggregate para rng. No publica nada.
func (a *Analyzer) Build(ctx context.Context, rng domain.DateRange) (domain.Report, error) {
	start := time.Now()

	batch, err := a.source.Load(ctx, rng)
	if err != nil {
		err = fmt.Errorf("analyzer.Build: load: %w", err)
		a.metrics.RecordReport(domain.Report{}, time.Since(start), err)
		return domain.Report{}, err
	}

	events := a.classifier.ClassifyAll(batch.Messages)
	snap := a.aggregator.Aggregate(events)

	report := domain.Report{
		GeneratedAt: a.now().In(a.cfg.Location),
		Range:       rng,
		Messages:    len(batch.Messages),
		Classified:  len(events),
		Snapshot:    snap,
		Events:      events,
		Recent:      aggregator.Recent(events, a.cfg.RecentLimit),
		Skipped:     batch.Skipped,
	}

	a.metrics.RecordReport(report, time.Since(start), nil)
	slog.Info("report built",
		"range", rng.String(),
		"messages", report.Messages,
		"events", report.Classified,
		"skipped", len(report.Skipped),
		"net", snap.PnL.Net.StringFixed(2),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	if !snap.Empty() && !snap.Consistency.OK() {
		slog.Warn("funnel counts are inconsistent", "warnings", report.Warnings())
	}
	return report, nil
}

// Today devuelve el rango del día actual en la zona configurada.
func (a *Analyzer) Today() domain.DateRange {
	return domain.Today(a.now().In(a.cfg.Location))
}
