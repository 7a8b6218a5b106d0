package domain

import (
	"fmt"
	"strings"
	"time"
)

// RawMessage es un mensaje tal como llega de la sala de señales.
// Text vacío equivale a un mensaje sin texto (sticker, foto, etc.).
type RawMessage struct {
	ID        string
	Sender    string
	Timestamp time.Time
	Text      string
}

// SkippedRecord describe un registro descartado al leer una fuente.
type SkippedRecord struct {
	Source string // archivo o tabla de origen
	Line   int    // 0 si la fuente no tiene líneas
	Reason string
}

// Batch es el resultado de leer una fuente: mensajes válidos en orden
// cronológico más los registros descartados.
type Batch struct {
	Messages []RawMessage
	Skipped  []SkippedRecord
}

// DateRange filtra por fecha de calendario, ambos extremos inclusive.
// Un extremo en cero significa "sin límite".
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains devuelve true si t cae dentro del rango (por fecha, no por hora).
func (r DateRange) Contains(t time.Time) bool {
	day := truncateDay(t)
	if !r.From.IsZero() && day.Before(truncateDay(r.From.In(t.Location()))) {
		return false
	}
	if !r.To.IsZero() && day.After(truncateDay(r.To.In(t.Location()))) {
		return false
	}
	return true
}

// IsZero devuelve true si el rango no filtra nada.
func (r DateRange) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Bounds devuelve los instantes [start, end) equivalentes al rango en loc.
// Los extremos abiertos se devuelven en cero.
func (r DateRange) Bounds(loc *time.Location) (start, end time.Time) {
	if !r.From.IsZero() {
		start = truncateDay(r.From.In(loc))
	}
	if !r.To.IsZero() {
		end = truncateDay(r.To.In(loc)).AddDate(0, 0, 1)
	}
	return start, end
}

// String devuelve el rango en formato legible para reportes.
func (r DateRange) String() string {
	from, to := "…", "…"
	if !r.From.IsZero() {
		from = r.From.Format(DateLayout)
	}
	if !r.To.IsZero() {
		to = r.To.Format(DateLayout)
	}
	return from + " → " + to
}

// DateLayout es el formato de fecha usado en reportes y flags.
const DateLayout = "2006-01-02"

// DefaultTimeLayouts son los formatos de timestamp que aparecen en las
// exportaciones de la sala (CSV y log en tiempo real).
var DefaultTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05.999999-07:00",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// ParseTimestamp prueba los layouts en orden. Los timestamps sin zona horaria
// se interpretan en naive (la exportación de Telegram escribe UTC); el
// resultado siempre se devuelve en loc.
func ParseTimestamp(s string, layouts []string, naive, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if naive == nil {
		naive = time.UTC
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, naive); err == nil {
			return t.In(loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// Today devuelve el rango que cubre solo el día de now.
func Today(now time.Time) DateRange {
	d := truncateDay(now)
	return DateRange{From: d, To: d}
}

// LastDays devuelve el rango de los últimos n días, hoy incluido.
func LastDays(now time.Time, n int) DateRange {
	r := Today(now)
	if n > 1 {
		r.From = r.From.AddDate(0, 0, -(n - 1))
	}
	return r
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
