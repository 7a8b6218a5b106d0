package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPayoutModel_NominalUnits(t *testing.T) {
	m := DefaultPayoutModel()
	require.NoError(t, m.Validate())

	assert.True(t, dec("9").Equal(m.WinProfit(0)), "direct: %s", m.WinProfit(0))
	assert.True(t, dec("8").Equal(m.WinProfit(1)), "gale 1: %s", m.WinProfit(1))
	assert.True(t, dec("6").Equal(m.WinProfit(2)), "gale 2: %s", m.WinProfit(2))
	assert.True(t, dec("-70").Equal(m.StopLoss()), "stop: %s", m.StopLoss())
}

func TestPayoutModel_Simulate(t *testing.T) {
	m := DefaultPayoutModel()

	// 10 directos, 5 G1, 3 G2, 2 stops → 90 + 40 + 18 − 140 = 8
	p := m.Simulate(Counts{WinDirect: 10, WinGale1: 5, WinGale2: 3, Stops: 2})

	assert.True(t, dec("90").Equal(p.Direct))
	assert.True(t, dec("40").Equal(p.Gale1))
	assert.True(t, dec("18").Equal(p.Gale2))
	assert.True(t, dec("-140").Equal(p.Stops))
	assert.True(t, dec("8").Equal(p.Net), "net: %s", p.Net)
}

func TestPayoutModel_SimulateEmpty(t *testing.T) {
	p := DefaultPayoutModel().Simulate(Counts{})
	assert.True(t, p.Net.IsZero())
}

func TestNewPayoutModel_Custom(t *testing.T) {
	m, err := NewPayoutModel(20, 0.8, []float64{1, 2.5, 6})
	require.NoError(t, err)

	assert.True(t, dec("16").Equal(m.WinProfit(0)))
	assert.True(t, dec("20").Equal(m.WinProfit(1))) // 50×0.8 − 20
	assert.True(t, dec("26").Equal(m.WinProfit(2))) // 120×0.8 − 20 − 50
	assert.True(t, dec("-190").Equal(m.StopLoss())) // 20 + 50 + 120
}

func TestNewPayoutModel_Invalid(t *testing.T) {
	tests := []struct {
		name        string
		stake       float64
		payout      float64
		multipliers []float64
	}{
		{"zero stake", 0, 0.9, []float64{1, 2, 4}},
		{"negative payout", 10, -0.1, []float64{1, 2, 4}},
		{"missing level", 10, 0.9, []float64{1, 2}},
		{"zero multiplier", 10, 0.9, []float64{1, 0, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPayoutModel(tt.stake, tt.payout, tt.multipliers)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidPayout))
		})
	}
}

func TestPayoutModel_StakeAtOutOfRange(t *testing.T) {
	m := DefaultPayoutModel()
	assert.True(t, m.StakeAt(-1).IsZero())
	assert.True(t, m.StakeAt(3).IsZero())
}
