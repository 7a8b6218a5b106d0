package ports

import (
	"context"

	"github.com/alejandrodnm/signalroom/internal/domain"
)

// Reporter presenta un reporte al usuario.
type Reporter interface {
	// Report muestra el snapshot y las operaciones recientes.
	// En la implementación de consola, imprime tablas formateadas.
	Report(ctx context.Context, report domain.Report) error
}
