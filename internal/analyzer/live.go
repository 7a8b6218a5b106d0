package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/signalroom/internal/domain"
	"github.com/alejandrodnm/signalroom/internal/ports"
	"github.com/robfig/cron/v3"
)

// Live consume mensajes a medida que llegan: los clasifica para el log y las
// métricas y los guarda. Los reportes siempre se recalculan desde el store.
type Live struct {
	analyzer *Analyzer
	store    ports.MessageStore
	source   string
}

// NewLive crea el consumidor en vivo. source etiqueta la sesión en el store.
func NewLive(a *Analyzer, store ports.MessageStore, source string) *Live {
	return &Live{analyzer: a, store: store, source: source}
}

// Consume procesa in hasta que se cierra o ctx se cancela. Toda la sesión
// queda registrada como una única importación.
func (l *Live) Consume(ctx context.Context, in <-chan domain.RawMessage) error {
	id, err := l.store.BeginImport(ctx, l.source)
	if err != nil {
		return fmt.Errorf("analyzer.Consume: begin session: %w", err)
	}
	slog.Info("live session started", "session_id", id, "source", l.source)

	received := 0
	defer func() {
		finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := l.store.FinishImport(finishCtx, id, 0); err != nil {
			slog.Warn("failed to close live session", "session_id", id, "err", err)
		}
		slog.Info("live session stopped", "session_id", id, "received", received)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-in:
			if !ok {
				return nil
			}
			received++
			l.handle(ctx, id, msg)
		}
	}
}

func (l *Live) handle(ctx context.Context, sessionID string, msg domain.RawMessage) {
	m := l.analyzer.metrics
	m.RecordReceived(l.source)

	ev, ok := l.analyzer.classifier.Classify(msg)
	m.RecordClassified(ev, ok)
	if ok {
		slog.Info("event",
			"kind", ev.Kind().String(),
			"pair", ev.Instrument(),
			"gale", ev.GaleLevel(),
			"at", ev.Time().Format(time.DateTime),
		)
	} else {
		slog.Debug("message not classified", "id", msg.ID)
	}

	n, err := l.store.SaveMessages(ctx, sessionID, []domain.RawMessage{msg})
	if err != nil {
		slog.Error("failed to store message", "id", msg.ID, "err", err)
		return
	}
	m.RecordStored(n)
}

// Schedule programa la publicación del reporte del día según expr (cron con
// segundos, en la zona configurada). El llamador debe hacer Stop.
func (a *Analyzer) Schedule(ctx context.Context, expr string) (*cron.Cron, error) {
	c := cron.New(cron.WithSeconds(), cron.WithLocation(a.cfg.Location))
	if _, err := c.AddFunc(expr, func() {
		if _, err := a.Publish(ctx, a.Today()); err != nil {
			slog.Error("scheduled report failed", "err", err)
		}
	}); err != nil {
		return nil, fmt.Errorf("analyzer.Schedule: %q: %w", expr, err)
	}
	c.Start()
	slog.Info("report scheduled", "cron", expr)
	return c, nil
}
