package analyzer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/signalroom/internal/domain"
	"github.com/alejandrodnm/signalroom/internal/observability"
	"github.com/alejandrodnm/signalroom/internal/ports"
)

// importBatchSize limita cuántos mensajes van en cada transacción.
const importBatchSize = 500

// ImportResult resume una importación.
type ImportResult struct {
	ImportID string
	Read     int
	Inserted int
	Skipped  int
}

// Import copia los mensajes de src dentro de rng al store, bajo una
// importación nueva etiquetada con label.
func Import(
	ctx context.Context,
	src ports.MessageSource,
	store ports.MessageStore,
	label string,
	rng domain.DateRange,
	metrics *observability.Metrics,
) (ImportResult, error) {
	batch, err := src.Load(ctx, rng)
	if err != nil {
		return ImportResult{}, fmt.Errorf("analyzer.Import: load: %w", err)
	}

	id, err := store.BeginImport(ctx, label)
	if err != nil {
		return ImportResult{}, fmt.Errorf("analyzer.Import: begin: %w", err)
	}

	res := ImportResult{ImportID: id, Read: len(batch.Messages), Skipped: len(batch.Skipped)}
	for start := 0; start < len(batch.Messages); start += importBatchSize {
		end := min(start+importBatchSize, len(batch.Messages))
		n, err := store.SaveMessages(ctx, id, batch.Messages[start:end])
		if err != nil {
			return res, fmt.Errorf("analyzer.Import: save: %w", err)
		}
		res.Inserted += n
		metrics.RecordStored(n)
	}
	metrics.RecordSkipped(res.Skipped)

	if err := store.FinishImport(ctx, id, res.Skipped); err != nil {
		return res, fmt.Errorf("analyzer.Import: finish: %w", err)
	}

	slog.Info("import complete",
		"import_id", id,
		"source", label,
		"read", res.Read,
		"inserted", res.Inserted,
		"duplicates", res.Read-res.Inserted,
		"skipped", res.Skipped,
	)
	return res, nil
}
