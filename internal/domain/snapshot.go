package domain

import "time"

// Counts son los conteos crudos por tipo de evento.
type Counts struct {
	Signals    int
	WinDirect  int
	WinGale1   int
	WinGale2   int
	Stops      int
	Gale1Calls int
	Gale2Calls int
}

// TotalWins = WinDirect + WinGale1 + WinGale2.
func (c Counts) TotalWins() int {
	return c.WinDirect + c.WinGale1 + c.WinGale2
}

// TotalOperations = TotalWins + Stops (operaciones cerradas).
func (c Counts) TotalOperations() int {
	return c.TotalWins() + c.Stops
}

// Add suma un evento al conteo correspondiente.
func (c *Counts) Add(ev Event) {
	switch ev.Kind() {
	case KindSignal:
		c.Signals++
	case KindWin:
		c.WinDirect++
	case KindWinGale1:
		c.WinGale1++
	case KindWinGale2:
		c.WinGale2++
	case KindStop:
		c.Stops++
	case KindGaleCall1:
		c.Gale1Calls++
	case KindGaleCall2:
		c.Gale2Calls++
	}
}

// Rates son las métricas derivadas, todas en porcentaje 0–100.
type Rates struct {
	OverallAccuracy  float64 // wins / operaciones cerradas
	AccuracyNoGale   float64 // wins directos / señales
	Gale1Usage       float64 // gale 1 / señales
	Gale2Usage       float64 // gale 2 / señales
	RecoveryG1       float64 // wins G1 / llamadas gale 1
	RecoveryG2       float64 // wins G2 / llamadas gale 2
	RecoveryCombined float64 // (wins G1 + wins G2) / llamadas gale 1
}

// FunnelStage es un paso del embudo entrada → gale 1 → gale 2.
// Cada paso usa sus propias entradas como denominador.
type FunnelStage struct {
	Name         string
	Entered      int
	Resolved     int // wins en este paso
	Escalated    int // pasan al siguiente paso (o stop en el último)
	ResolvedPct  float64
	EscalatedPct float64
}

// Funnel agrupa los tres pasos del martingale.
type Funnel struct {
	Entry FunnelStage
	Gale1 FunnelStage
	Gale2 FunnelStage
}

// Stages devuelve los pasos en orden.
func (f Funnel) Stages() []FunnelStage {
	return []FunnelStage{f.Entry, f.Gale1, f.Gale2}
}

// LevelEfficacy es la tasa de acierto de un nivel: wins / intentos.
type LevelEfficacy struct {
	Level    int
	Label    string
	Attempts int
	Wins     int
	Rate     float64
}

// Consistency indica si los conteos del embudo cuadran entre sí.
// Los conteos vienen de mensajes independientes; no se corrigen, solo se avisa.
type Consistency struct {
	EntryCovered bool // señales ≥ wins directos + gale1
	Gale1Covered bool // gale1 ≥ winsG1 + gale2
	Gale2Covered bool // gale2 ≥ winsG2 + stops
}

// OK devuelve true si ningún paso del embudo tiene más salidas que entradas.
func (c Consistency) OK() bool {
	return c.EntryCovered && c.Gale1Covered && c.Gale2Covered
}

// OutcomeStats son wins/losses de operaciones cerradas agrupadas por una clave.
type OutcomeStats struct {
	Total    int
	Wins     int
	Losses   int
	Accuracy float64
}

// InstrumentStats es el desglose por par.
type InstrumentStats struct {
	Instrument string
	OutcomeStats
}

// DailyStats es el desglose por día de calendario.
type DailyStats struct {
	Day time.Time
	OutcomeStats
}

// HourStats cuenta señales por hora del día (0–23).
type HourStats struct {
	Hour    int
	Signals int
}

// DirectionSplit cuenta las señales por dirección anunciada.
type DirectionSplit struct {
	Call    int
	Put     int
	Unknown int
}

// CallPct devuelve el porcentaje de CALL sobre las señales con dirección conocida.
func (d DirectionSplit) CallPct() float64 {
	return Percent(d.Call, d.Call+d.Put)
}

// PutPct devuelve el porcentaje de PUT sobre las señales con dirección conocida.
func (d DirectionSplit) PutPct() float64 {
	return Percent(d.Put, d.Call+d.Put)
}

// Snapshot es el resultado inmutable de agregar una secuencia de eventos.
type Snapshot struct {
	Counts
	Rates

	Funnel       Funnel
	GaleEfficacy []LevelEfficacy
	Consistency  Consistency
	PnL          PnL

	ByInstrument []InstrumentStats
	ByDay        []DailyStats
	ByHour       []HourStats
	Directions   DirectionSplit

	FirstAt time.Time
	LastAt  time.Time
}

// Empty devuelve true si el snapshot no vio ningún evento.
func (s Snapshot) Empty() bool {
	return s.Counts == Counts{}
}

// Percent devuelve num/den en porcentaje, acotado a [0, 100].
// Devuelve 0 si el denominador no es positivo.
func Percent(num, den int) float64 {
	if den <= 0 || num <= 0 {
		return 0
	}
	p := float64(num) / float64(den) * 100
	if p > 100 {
		return 100
	}
	return p
}
