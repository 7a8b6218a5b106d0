package notify_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/signalroom/internal/adapters/notify"
	"github.com/alejandrodnm/signalroom/internal/aggregator"
	"github.com/alejandrodnm/signalroom/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeReport(events []domain.Event) domain.Report {
	snap := aggregator.New(domain.DefaultPayoutModel()).Aggregate(events)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return domain.Report{
		GeneratedAt: time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC),
		Range:       domain.DateRange{From: day, To: day},
		Messages:    len(events) + 3,
		Classified:  len(events),
		Snapshot:    snap,
		Events:      events,
		Recent:      aggregator.Recent(events, 50),
	}
}

func sampleEvents() []domain.Event {
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return []domain.Event{
		domain.Signal{Pair: "EUR/USD", Direction: domain.DirectionCall, At: at},
		domain.Win{Pair: "EUR/USD", At: at.Add(5 * time.Minute)},
		domain.Signal{Pair: "GBP/JPY", Direction: domain.DirectionPut, At: at.Add(time.Hour)},
		domain.GaleCall{Pair: "GBP/JPY", Level: 1, At: at.Add(time.Hour + 5*time.Minute)},
		domain.Win{Pair: "GBP/JPY", Level: 1, At: at.Add(time.Hour + 10*time.Minute)},
	}
}

func TestConsole_Report_Table(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, true)

	err := c.Report(context.Background(), makeReport(sampleEvents()))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "SIGNAL ROOM REPORT")
	assert.Contains(t, out, "2024-03-01 → 2024-03-01")
	assert.Contains(t, out, "EUR/USD")
	assert.Contains(t, out, "GBP/JPY")
	assert.Contains(t, out, "100.0%")
	assert.Contains(t, out, "+9.00")  // win directo
	assert.Contains(t, out, "+8.00")  // win G1
	assert.Contains(t, out, "-70.00") // stop unitario
	assert.Contains(t, out, "+17.00") // neto
	assert.Contains(t, out, "WIN_GALE1")
	assert.NotContains(t, out, "GALE_CALL1", "gale calls are not listed as operations")
}

func TestConsole_Report_Compact(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false)

	err := c.Report(context.Background(), makeReport(sampleEvents()))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "sig:2 ops:2 W:1/1/0 S:0")
	assert.Contains(t, out, "acc 100.0%")
	assert.Contains(t, out, "net +17.00")
	assert.NotContains(t, out, "SIGNAL ROOM REPORT")
}

func TestConsole_Report_Empty(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, true)

	r := makeReport(nil)
	r.Skipped = []domain.SkippedRecord{{Source: "x.csv", Line: 4, Reason: "bad timestamp"}}

	err := c.Report(context.Background(), r)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "no operations found")
	assert.Contains(t, out, "1 record skipped")
	assert.Contains(t, out, "x.csv:4 bad timestamp")
}

func TestConsole_Report_InconsistencyWarning(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf, false)

	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	r := makeReport([]domain.Event{domain.Win{Pair: "EUR/USD", At: at}})

	require.NoError(t, c.Report(context.Background(), r))
	assert.Contains(t, buf.String(), "signals do not cover")
}
