package ports

import (
	"context"

	"github.com/alejandrodnm/signalroom/internal/domain"
)

// MessageStore persiste los mensajes crudos de la sala. Las métricas no se
// guardan: se recalculan en cada consulta.
type MessageStore interface {
	// BeginImport registra una importación nueva y devuelve su ID.
	BeginImport(ctx context.Context, source string) (string, error)

	// SaveMessages guarda un lote bajo la importación dada. Los mensajes ya
	// guardados (misma fuente e ID) se ignoran. Devuelve cuántos se insertaron.
	SaveMessages(ctx context.Context, importID string, msgs []domain.RawMessage) (int, error)

	// FinishImport cierra la importación con el conteo de descartados.
	FinishImport(ctx context.Context, importID string, skipped int) error

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
