package aggregator

import (
	"slices"
	"time"

	"github.com/alejandrodnm/signalroom/internal/domain"
)

// ByInstrument desglosa las operaciones cerradas por par, ordenadas por nombre.
func ByInstrument(events []domain.Event) []domain.InstrumentStats {
	groups := GroupBy(events, terminalKey(func(ev domain.Event) string {
		return ev.Instrument()
	}), addOutcome)

	out := make([]domain.InstrumentStats, 0, len(groups))
	for _, g := range groups {
		out = append(out, domain.InstrumentStats{Instrument: g.Key, OutcomeStats: finish(g.Value)})
	}
	return out
}

// ByDay desglosa las operaciones cerradas por día de calendario, en orden cronológico.
// El día se toma en la zona horaria del timestamp del evento.
func ByDay(events []domain.Event) []domain.DailyStats {
	groups := GroupBy(events, terminalKey(func(ev domain.Event) string {
		return ev.Time().Format(domain.DateLayout)
	}), addOutcome)

	out := make([]domain.DailyStats, 0, len(groups))
	for _, g := range groups {
		day, err := time.ParseInLocation(domain.DateLayout, g.Key, time.UTC)
		if err != nil {
			continue
		}
		out = append(out, domain.DailyStats{Day: day, OutcomeStats: finish(g.Value)})
	}
	return out
}

// ByHour cuenta señales por hora del día. Solo devuelve las horas con señales.
func ByHour(events []domain.Event) []domain.HourStats {
	groups := GroupBy(events,
		func(ev domain.Event) (int, bool) {
			return ev.Time().Hour(), ev.Kind() == domain.KindSignal
		},
		func(n int, _ domain.Event) int { return n + 1 },
	)

	out := make([]domain.HourStats, 0, len(groups))
	for _, g := range groups {
		out = append(out, domain.HourStats{Hour: g.Key, Signals: g.Value})
	}
	return out
}

// Directions cuenta las señales por dirección.
func Directions(events []domain.Event) domain.DirectionSplit {
	var d domain.DirectionSplit
	for _, ev := range events {
		dir, ok := domain.DirectionOf(ev)
		if !ok {
			continue
		}
		switch dir {
		case domain.DirectionCall:
			d.Call++
		case domain.DirectionPut:
			d.Put++
		default:
			d.Unknown++
		}
	}
	return d
}

// Recent devuelve las últimas operaciones (señales, wins y stops), la más
// reciente primero. Las llamadas a gale no se listan.
func Recent(events []domain.Event, limit int) []domain.Event {
	if limit <= 0 {
		return nil
	}
	out := make([]domain.Event, 0, min(limit, len(events)))
	for _, ev := range slices.Backward(events) {
		if ev.Kind() == domain.KindGaleCall1 || ev.Kind() == domain.KindGaleCall2 {
			continue
		}
		out = append(out, ev)
	}
	// Los eventos ya llegan en orden cronológico; el sort estable solo
	// corrige fuentes que mezclan el orden.
	slices.SortStableFunc(out, func(a, b domain.Event) int {
		return b.Time().Compare(a.Time())
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// terminalKey adapta una función de clave para que solo acepte operaciones cerradas.
func terminalKey(key func(domain.Event) string) func(domain.Event) (string, bool) {
	return func(ev domain.Event) (string, bool) {
		if !domain.IsTerminal(ev) {
			return "", false
		}
		return key(ev), true
	}
}

func addOutcome(s domain.OutcomeStats, ev domain.Event) domain.OutcomeStats {
	s.Total++
	switch ev.Result() {
	case domain.ResultWin:
		s.Wins++
	case domain.ResultLoss:
		s.Losses++
	}
	return s
}

func finish(s domain.OutcomeStats) domain.OutcomeStats {
	s.Accuracy = domain.Percent(s.Wins, s.Total)
	return s
}

func timeSpan(events []domain.Event) (first, last time.Time) {
	for _, ev := range events {
		t := ev.Time()
		if t.IsZero() {
			continue
		}
		if first.IsZero() || t.Before(first) {
			first = t
		}
		if last.IsZero() || t.After(last) {
			last = t
		}
	}
	return first, last
}
