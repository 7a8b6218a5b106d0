package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidPayout se devuelve cuando el modelo de pago no tiene sentido.
var ErrInvalidPayout = errors.New("invalid payout model")

// PayoutModel describe la simulación martingale de la sala.
//
// Cada nivel k (0 = entrada, 1 = gale 1, 2 = gale 2) apuesta Stake × GaleMultipliers[k].
// Un win en el nivel k cobra el payout de esa apuesta menos lo perdido en los
// niveles anteriores; un stop pierde la suma de todas las apuestas.
//
// Con stake 10, payout 0.90 y multiplicadores 1/2/4: +9, +8, +6 y −70.
type PayoutModel struct {
	Stake           decimal.Decimal
	Payout          decimal.Decimal
	GaleMultipliers []decimal.Decimal
}

// DefaultPayoutModel devuelve los valores nominales de la sala.
func DefaultPayoutModel() PayoutModel {
	return PayoutModel{
		Stake:  decimal.NewFromInt(10),
		Payout: decimal.RequireFromString("0.90"),
		GaleMultipliers: []decimal.Decimal{
			decimal.NewFromInt(1),
			decimal.NewFromInt(2),
			decimal.NewFromInt(4),
		},
	}
}

// NewPayoutModel construye y valida un modelo a partir de valores de configuración.
func NewPayoutModel(stake, payout float64, multipliers []float64) (PayoutModel, error) {
	m := PayoutModel{
		Stake:           decimal.NewFromFloat(stake),
		Payout:          decimal.NewFromFloat(payout),
		GaleMultipliers: make([]decimal.Decimal, 0, len(multipliers)),
	}
	for _, x := range multipliers {
		m.GaleMultipliers = append(m.GaleMultipliers, decimal.NewFromFloat(x))
	}
	if err := m.Validate(); err != nil {
		return PayoutModel{}, err
	}
	return m, nil
}

// Validate comprueba que stake, payout y multiplicadores sean positivos y que
// haya exactamente un multiplicador por nivel.
func (m PayoutModel) Validate() error {
	if !m.Stake.IsPositive() {
		return fmt.Errorf("%w: stake must be > 0, got %s", ErrInvalidPayout, m.Stake)
	}
	if !m.Payout.IsPositive() {
		return fmt.Errorf("%w: payout must be > 0, got %s", ErrInvalidPayout, m.Payout)
	}
	if len(m.GaleMultipliers) != MaxGaleLevel+1 {
		return fmt.Errorf("%w: want %d gale multipliers, got %d",
			ErrInvalidPayout, MaxGaleLevel+1, len(m.GaleMultipliers))
	}
	for i, x := range m.GaleMultipliers {
		if !x.IsPositive() {
			return fmt.Errorf("%w: multiplier %d must be > 0, got %s", ErrInvalidPayout, i, x)
		}
	}
	return nil
}

// StakeAt devuelve lo apostado en el nivel dado.
func (m PayoutModel) StakeAt(level int) decimal.Decimal {
	if level < 0 || level >= len(m.GaleMultipliers) {
		return decimal.Zero
	}
	return m.Stake.Mul(m.GaleMultipliers[level])
}

// WinProfit devuelve el resultado neto de un win en el nivel dado.
func (m PayoutModel) WinProfit(level int) decimal.Decimal {
	profit := m.StakeAt(level).Mul(m.Payout)
	for j := 0; j < level; j++ {
		profit = profit.Sub(m.StakeAt(j))
	}
	return profit
}

// StopLoss devuelve el resultado (negativo) de un stop tras todos los gales.
func (m PayoutModel) StopLoss() decimal.Decimal {
	loss := decimal.Zero
	for j := range m.GaleMultipliers {
		loss = loss.Add(m.StakeAt(j))
	}
	return loss.Neg()
}

// PnL es el resultado simulado de un conjunto de operaciones.
type PnL struct {
	// Resultado por operación
	UnitDirect decimal.Decimal
	UnitGale1  decimal.Decimal
	UnitGale2  decimal.Decimal
	UnitStop   decimal.Decimal

	// Totales por categoría
	Direct decimal.Decimal
	Gale1  decimal.Decimal
	Gale2  decimal.Decimal
	Stops  decimal.Decimal

	Net decimal.Decimal
}

// Simulate aplica el modelo a los conteos observados.
func (m PayoutModel) Simulate(c Counts) PnL {
	p := PnL{
		UnitDirect: m.WinProfit(0),
		UnitGale1:  m.WinProfit(1),
		UnitGale2:  m.WinProfit(2),
		UnitStop:   m.StopLoss(),
	}
	p.Direct = p.UnitDirect.Mul(decimal.NewFromInt(int64(c.WinDirect)))
	p.Gale1 = p.UnitGale1.Mul(decimal.NewFromInt(int64(c.WinGale1)))
	p.Gale2 = p.UnitGale2.Mul(decimal.NewFromInt(int64(c.WinGale2)))
	p.Stops = p.UnitStop.Mul(decimal.NewFromInt(int64(c.Stops)))
	p.Net = p.Direct.Add(p.Gale1).Add(p.Gale2).Add(p.Stops)
	return p
}
