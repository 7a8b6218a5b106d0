package aggregator_test

import (
	"testing"
	"time"

	"github.com/alejandrodnm/signalroom/internal/aggregator"
	"github.com/alejandrodnm/signalroom/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(day, hour, minute int) time.Time {
	return time.Date(2024, 3, day, hour, minute, 0, 0, time.UTC)
}

func TestGroupBy_SortedAndFiltered(t *testing.T) {
	words := []string{"pear", "apple", "plum", "avocado", "", "peach"}

	groups := aggregator.GroupBy(words,
		func(w string) (byte, bool) {
			if w == "" {
				return 0, false
			}
			return w[0], true
		},
		func(n int, _ string) int { return n + 1 },
	)

	require.Len(t, groups, 2)
	assert.Equal(t, byte('a'), groups[0].Key)
	assert.Equal(t, 2, groups[0].Value)
	assert.Equal(t, byte('p'), groups[1].Key)
	assert.Equal(t, 3, groups[1].Value)
}

func TestGroupBy_Empty(t *testing.T) {
	groups := aggregator.GroupBy([]int(nil),
		func(n int) (int, bool) { return n, true },
		func(a int, n int) int { return a + n },
	)
	assert.Empty(t, groups)
}

func TestByInstrument_OnlyTerminalEvents(t *testing.T) {
	events := []domain.Event{
		domain.Signal{Pair: "EUR/USD", At: at(1, 9, 0)},
		domain.Win{Pair: "EUR/USD", At: at(1, 9, 5)},
		domain.GaleCall{Pair: "GBP/JPY", Level: 1, At: at(1, 9, 10)},
		domain.Win{Pair: "GBP/JPY", Level: 1, At: at(1, 9, 15)},
		domain.Stop{Pair: "EUR/USD", At: at(1, 9, 20)},
		domain.Stop{At: at(1, 9, 25)},
	}

	stats := aggregator.ByInstrument(events)

	require.Len(t, stats, 3)
	assert.Equal(t, "EUR/USD", stats[0].Instrument)
	assert.Equal(t, 2, stats[0].Total)
	assert.Equal(t, 1, stats[0].Wins)
	assert.Equal(t, 1, stats[0].Losses)
	assert.InDelta(t, 50.0, stats[0].Accuracy, 1e-9)

	assert.Equal(t, "GBP/JPY", stats[1].Instrument)
	assert.InDelta(t, 100.0, stats[1].Accuracy, 1e-9)

	assert.Equal(t, domain.UnknownInstrument, stats[2].Instrument)
	assert.Equal(t, 0.0, stats[2].Accuracy)
}

func TestByDay_Chronological(t *testing.T) {
	events := []domain.Event{
		domain.Win{Pair: "EUR/USD", At: at(2, 10, 0)},
		domain.Win{Pair: "EUR/USD", At: at(1, 23, 59)},
		domain.Stop{Pair: "EUR/USD", At: at(2, 0, 0)},
		domain.Signal{Pair: "EUR/USD", At: at(3, 8, 0)},
	}

	days := aggregator.ByDay(events)

	require.Len(t, days, 2, "signals do not create a day row")
	assert.Equal(t, at(1, 0, 0), days[0].Day)
	assert.Equal(t, 1, days[0].Wins)
	assert.Equal(t, at(2, 0, 0), days[1].Day)
	assert.Equal(t, 2, days[1].Total)
	assert.InDelta(t, 50.0, days[1].Accuracy, 1e-9)
}

func TestByHour_CountsSignalsOnly(t *testing.T) {
	events := []domain.Event{
		domain.Signal{At: at(1, 9, 0)},
		domain.Signal{At: at(2, 9, 30)},
		domain.Signal{At: at(1, 14, 0)},
		domain.Win{At: at(1, 14, 5)},
	}

	hours := aggregator.ByHour(events)

	require.Len(t, hours, 2)
	assert.Equal(t, domain.HourStats{Hour: 9, Signals: 2}, hours[0])
	assert.Equal(t, domain.HourStats{Hour: 14, Signals: 1}, hours[1])
}

func TestDirections(t *testing.T) {
	events := []domain.Event{
		domain.Signal{Direction: domain.DirectionCall},
		domain.Signal{Direction: domain.DirectionCall},
		domain.Signal{Direction: domain.DirectionPut},
		domain.Signal{},
		domain.Win{},
	}

	d := aggregator.Directions(events)

	assert.Equal(t, domain.DirectionSplit{Call: 2, Put: 1, Unknown: 1}, d)
}

func TestRecent_NewestFirstWithoutGaleCalls(t *testing.T) {
	events := []domain.Event{
		domain.Signal{Pair: "EUR/USD", At: at(1, 9, 0)},
		domain.GaleCall{Pair: "EUR/USD", Level: 1, At: at(1, 9, 5)},
		domain.Win{Pair: "EUR/USD", Level: 1, At: at(1, 9, 10)},
		domain.Signal{Pair: "GBP/JPY", At: at(1, 9, 15)},
		domain.Stop{Pair: "GBP/JPY", At: at(1, 9, 30)},
	}

	recent := aggregator.Recent(events, 3)

	require.Len(t, recent, 3)
	assert.Equal(t, domain.KindStop, recent[0].Kind())
	assert.Equal(t, domain.KindSignal, recent[1].Kind())
	assert.Equal(t, "GBP/JPY", recent[1].Instrument())
	assert.Equal(t, domain.KindWinGale1, recent[2].Kind())
}

func TestRecent_ZeroLimit(t *testing.T) {
	assert.Empty(t, aggregator.Recent([]domain.Event{domain.Win{}}, 0))
}
