package domain

import (
	"fmt"
	"time"
)

// Report es lo que recibe la capa de presentación: el snapshot más los
// eventos clasificados que lo produjeron.
type Report struct {
	GeneratedAt time.Time
	Range       DateRange

	Messages   int // mensajes leídos dentro del rango
	Classified int // mensajes que produjeron un evento

	Snapshot Snapshot
	Events   []Event // eventos clasificados en orden cronológico
	Recent   []Event // últimas operaciones, la más reciente primero
	Skipped  []SkippedRecord
}

// Warnings devuelve los avisos legibles del reporte: registros descartados
// y embudo inconsistente.
func (r Report) Warnings() []string {
	var out []string
	if n := len(r.Skipped); n > 0 {
		out = append(out, pluralize(n, "record skipped", "records skipped")+" while reading the source")
	}
	if !r.Snapshot.Empty() {
		if !r.Snapshot.Consistency.EntryCovered {
			out = append(out, "signals do not cover direct wins + gale 1 calls")
		}
		if !r.Snapshot.Consistency.Gale1Covered {
			out = append(out, "gale 1 calls do not cover G1 wins + gale 2 calls")
		}
		if !r.Snapshot.Consistency.Gale2Covered {
			out = append(out, "gale 2 calls do not cover G2 wins + stops")
		}
	}
	return out
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}
