package ports

import (
	"context"

	"github.com/alejandrodnm/signalroom/internal/domain"
)

// MessageSource entrega los mensajes de la sala dentro de un rango de fechas.
type MessageSource interface {
	// Load devuelve los mensajes del rango en orden cronológico.
	// Los registros ilegibles no abortan la lectura: van en Batch.Skipped.
	Load(ctx context.Context, r domain.DateRange) (domain.Batch, error)
}
