package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercent(t *testing.T) {
	assert.Equal(t, 0.0, Percent(5, 0))
	assert.Equal(t, 0.0, Percent(0, 10))
	assert.InDelta(t, 50.0, Percent(1, 2), 1e-9)
	assert.Equal(t, 100.0, Percent(12, 10), "clamped when inputs disagree")
}

func TestCounts_Totals(t *testing.T) {
	c := Counts{WinDirect: 10, WinGale1: 5, WinGale2: 3, Stops: 2}
	assert.Equal(t, 18, c.TotalWins())
	assert.Equal(t, 20, c.TotalOperations())
}

func TestCounts_Add(t *testing.T) {
	var c Counts
	for _, ev := range []Event{
		Signal{}, Signal{}, Win{}, Win{Level: 1}, Win{Level: 2},
		Stop{}, GaleCall{Level: 1}, GaleCall{Level: 2},
	} {
		c.Add(ev)
	}

	assert.Equal(t, Counts{
		Signals: 2, WinDirect: 1, WinGale1: 1, WinGale2: 1,
		Stops: 1, Gale1Calls: 1, Gale2Calls: 1,
	}, c)
}

func TestDirectionSplit_Pct(t *testing.T) {
	d := DirectionSplit{Call: 3, Put: 1, Unknown: 7}
	assert.InDelta(t, 75.0, d.CallPct(), 1e-9)
	assert.InDelta(t, 25.0, d.PutPct(), 1e-9)
	assert.Equal(t, 0.0, DirectionSplit{}.CallPct())
}

func TestDateRange_Contains(t *testing.T) {
	r := DateRange{
		From: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
	}

	assert.True(t, r.Contains(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, r.Contains(time.Date(2024, 3, 2, 23, 59, 59, 0, time.UTC)), "end day is inclusive")
	assert.False(t, r.Contains(time.Date(2024, 2, 29, 23, 59, 0, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)))
	assert.True(t, DateRange{}.Contains(time.Now()))
}

func TestDateRange_Bounds(t *testing.T) {
	r := DateRange{To: time.Date(2024, 3, 2, 15, 0, 0, 0, time.UTC)}
	start, end := r.Bounds(time.UTC)

	assert.True(t, start.IsZero())
	assert.Equal(t, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), end)
}

func TestLastDays(t *testing.T) {
	now := time.Date(2024, 3, 10, 18, 30, 0, 0, time.UTC)

	r := LastDays(now, 7)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), r.From)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), r.To)

	assert.Equal(t, Today(now), LastDays(now, 0))
}

func TestReport_Warnings(t *testing.T) {
	r := Report{
		Skipped: []SkippedRecord{{Line: 3, Reason: "bad timestamp"}},
		Snapshot: Snapshot{
			Counts:      Counts{Signals: 1, WinGale1: 2},
			Consistency: Consistency{EntryCovered: true, Gale1Covered: false, Gale2Covered: true},
		},
	}

	w := r.Warnings()
	assert.Len(t, w, 2)
	assert.Contains(t, w[0], "1 record skipped")
	assert.Contains(t, w[1], "gale 1")
}

func TestReport_NoWarningsWhenEmpty(t *testing.T) {
	assert.Empty(t, Report{}.Warnings())
}

func TestParseTimestamp(t *testing.T) {
	sp := time.FixedZone("BRT", -3*3600)

	got, err := ParseTimestamp("2024-03-01 12:00:00", DefaultTimeLayouts, time.UTC, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), got)

	got, err = ParseTimestamp("2024-03-01 12:00:00+00:00", DefaultTimeLayouts, time.UTC, sp)
	require.NoError(t, err)
	assert.Equal(t, 9, got.Hour(), "converted to the configured zone")

	_, err = ParseTimestamp("01/03/2024", DefaultTimeLayouts, time.UTC, time.UTC)
	assert.Error(t, err)

	_, err = ParseTimestamp("  ", DefaultTimeLayouts, time.UTC, time.UTC)
	assert.Error(t, err)
}

func TestParseTimestamp_NaiveZone(t *testing.T) {
	sp := time.FixedZone("BRT", -3*3600)
	want := time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)

	naive, err := ParseTimestamp("2024-03-01 23:30:00", DefaultTimeLayouts, time.UTC, sp)
	require.NoError(t, err)
	withOffset, err := ParseTimestamp("2024-03-01 23:30:00+00:00", DefaultTimeLayouts, time.UTC, sp)
	require.NoError(t, err)

	assert.True(t, naive.Equal(want))
	assert.True(t, withOffset.Equal(want))
	assert.Equal(t, sp, naive.Location())
	assert.Equal(t, 20, naive.Hour())

	local, err := ParseTimestamp("2024-03-01 23:30:00", DefaultTimeLayouts, sp, sp)
	require.NoError(t, err)
	assert.True(t, local.Equal(want.Add(3*time.Hour)), "naive zone set to the room zone")
}
