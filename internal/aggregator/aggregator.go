// Package aggregator reduce una secuencia de eventos clasificados a un Snapshot
// de métricas. No guarda estado entre llamadas.
package aggregator

import (
	"github.com/alejandrodnm/signalroom/internal/domain"
)

// Aggregator calcula snapshots con un modelo de pago fijo.
type Aggregator struct {
	model domain.PayoutModel
}

// New crea un Aggregator. El modelo se asume validado.
func New(model domain.PayoutModel) *Aggregator {
	return &Aggregator{model: model}
}

// Aggregate recorre los eventos una vez y construye el snapshot completo.
// Entrada vacía → snapshot con todo en cero y desgloses vacíos.
func (a *Aggregator) Aggregate(events []domain.Event) domain.Snapshot {
	var c domain.Counts
	for _, ev := range events {
		c.Add(ev)
	}

	s := domain.Snapshot{
		Counts:       c,
		Rates:        ComputeRates(c),
		Funnel:       BuildFunnel(c),
		GaleEfficacy: GaleEfficacy(c),
		Consistency:  CheckConsistency(c),
		PnL:          a.model.Simulate(c),
		ByInstrument: ByInstrument(events),
		ByDay:        ByDay(events),
		ByHour:       ByHour(events),
		Directions:   Directions(events),
	}
	s.FirstAt, s.LastAt = timeSpan(events)
	return s
}

// ComputeRates calcula las métricas derivadas de los conteos.
func ComputeRates(c domain.Counts) domain.Rates {
	return domain.Rates{
		OverallAccuracy:  domain.Percent(c.TotalWins(), c.TotalOperations()),
		AccuracyNoGale:   domain.Percent(c.WinDirect, c.Signals),
		Gale1Usage:       domain.Percent(c.Gale1Calls, c.Signals),
		Gale2Usage:       domain.Percent(c.Gale2Calls, c.Signals),
		RecoveryG1:       domain.Percent(c.WinGale1, c.Gale1Calls),
		RecoveryG2:       domain.Percent(c.WinGale2, c.Gale2Calls),
		RecoveryCombined: domain.Percent(c.WinGale1+c.WinGale2, c.Gale1Calls),
	}
}

// BuildFunnel arma el embudo entrada → gale 1 → gale 2.
// Cada paso se normaliza contra sus propias entradas, no contra las señales.
func BuildFunnel(c domain.Counts) domain.Funnel {
	return domain.Funnel{
		Entry: stage("Entrada", c.Signals, c.WinDirect, c.Gale1Calls),
		Gale1: stage("Gale 1", c.Gale1Calls, c.WinGale1, c.Gale2Calls),
		Gale2: stage("Gale 2", c.Gale2Calls, c.WinGale2, c.Stops),
	}
}

func stage(name string, entered, resolved, escalated int) domain.FunnelStage {
	return domain.FunnelStage{
		Name:         name,
		Entered:      entered,
		Resolved:     resolved,
		Escalated:    escalated,
		ResolvedPct:  domain.Percent(resolved, entered),
		EscalatedPct: domain.Percent(escalated, entered),
	}
}

// GaleEfficacy devuelve la tasa de acierto de cada nivel del martingale.
func GaleEfficacy(c domain.Counts) []domain.LevelEfficacy {
	levels := []struct {
		label    string
		attempts int
		wins     int
	}{
		{"Entrada", c.Signals, c.WinDirect},
		{"Gale 1", c.Gale1Calls, c.WinGale1},
		{"Gale 2", c.Gale2Calls, c.WinGale2},
	}

	out := make([]domain.LevelEfficacy, 0, len(levels))
	for i, l := range levels {
		out = append(out, domain.LevelEfficacy{
			Level:    i,
			Label:    l.label,
			Attempts: l.attempts,
			Wins:     l.wins,
			Rate:     domain.Percent(l.wins, l.attempts),
		})
	}
	return out
}

// CheckConsistency compara las salidas de cada paso del embudo con sus entradas.
func CheckConsistency(c domain.Counts) domain.Consistency {
	return domain.Consistency{
		EntryCovered: c.Signals >= c.WinDirect+c.Gale1Calls,
		Gale1Covered: c.Gale1Calls >= c.WinGale1+c.Gale2Calls,
		Gale2Covered: c.Gale2Calls >= c.WinGale2+c.Stops,
	}
}
