package textlog_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alejandrodnm/signalroom/internal/adapters/textlog"
	"github.com/alejandrodnm/signalroom/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const logFile = "[2024-03-01 09:00:00+00:00] 777: 🚨 Novo Sinal Encontrado\n" +
	"**Par:** `EUR/USD`\n" +
	"🟢⬆️ Comprar\n" +
	"[2024-03-01 09:05:00+00:00] 777: Faça o GALE 1 para EUR/USD\n" +
	"[ontem] 777: WIN em EUR/USD\n" +
	"continuação perdida\n" +
	"[2024-03-02 09:10:00+00:00] 777: ✅ WIN (G1) em EUR/USD\n"

func TestReader_Decode(t *testing.T) {
	r := textlog.NewReader("realtime.log", nil, time.UTC)

	batch, err := r.Decode(context.Background(), strings.NewReader(logFile), domain.DateRange{})
	require.NoError(t, err)

	require.Len(t, batch.Messages, 3)
	first := batch.Messages[0]
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "777", first.Sender)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), first.Timestamp)
	assert.Equal(t, "🚨 Novo Sinal Encontrado\n**Par:** `EUR/USD`\n🟢⬆️ Comprar", first.Text)

	assert.Equal(t, "Faça o GALE 1 para EUR/USD", batch.Messages[1].Text)
	assert.Equal(t, "✅ WIN (G1) em EUR/USD", batch.Messages[2].Text)

	require.Len(t, batch.Skipped, 1)
	assert.Equal(t, 5, batch.Skipped[0].Line)
}

func TestReader_DecodeRange(t *testing.T) {
	r := textlog.NewReader("realtime.log", nil, time.UTC)
	day := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

	batch, err := r.Decode(context.Background(), strings.NewReader(logFile), domain.DateRange{From: day, To: day})
	require.NoError(t, err)

	require.Len(t, batch.Messages, 1)
	assert.Contains(t, batch.Messages[0].Text, "WIN (G1)")
}

func TestReader_LeadingGarbage(t *testing.T) {
	in := "sem cabeçalho\nainda sem\n[2024-03-01 09:00:00] 1: STOP em EUR/USD\n"
	r := textlog.NewReader("x.log", nil, nil)

	batch, err := r.Decode(context.Background(), strings.NewReader(in), domain.DateRange{})
	require.NoError(t, err)

	require.Len(t, batch.Messages, 1)
	require.Len(t, batch.Skipped, 1, "consecutive orphan lines are reported once")
	assert.Equal(t, 1, batch.Skipped[0].Line)
}

func TestReader_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "realtime.log")
	require.NoError(t, os.WriteFile(path, []byte(logFile), 0o600))

	batch, err := textlog.NewReader(path, nil, time.UTC).Load(context.Background(), domain.DateRange{})
	require.NoError(t, err)
	assert.Len(t, batch.Messages, 3)
}

func TestReader_OversizeLineIsSkipped(t *testing.T) {
	in := "[2024-03-01 09:00:00+00:00] 777: ✅ WIN em EUR/USD\n" +
		strings.Repeat("x", 2<<20) + "\n" +
		"mais ruído\n" +
		"[2024-03-01 09:10:00+00:00] 777: STOP em EUR/USD\n"
	r := textlog.NewReader("realtime.log", nil, time.UTC)

	batch, err := r.Decode(context.Background(), strings.NewReader(in), domain.DateRange{})
	require.NoError(t, err)

	require.Len(t, batch.Messages, 2)
	assert.Equal(t, "✅ WIN em EUR/USD", batch.Messages[0].Text)
	assert.Equal(t, "STOP em EUR/USD", batch.Messages[1].Text)
	assert.Equal(t, "4", batch.Messages[1].ID)

	require.Len(t, batch.Skipped, 1)
	assert.Equal(t, 2, batch.Skipped[0].Line)
	assert.Contains(t, batch.Skipped[0].Reason, "longer than")
}

func TestReader_LastLineWithoutNewline(t *testing.T) {
	in := "[2024-03-01 09:00:00] 777: WIN em EUR/USD\r\n[2024-03-01 09:10:00] 777: STOP em EUR/USD"
	r := textlog.NewReader("realtime.log", nil, time.UTC)

	batch, err := r.Decode(context.Background(), strings.NewReader(in), domain.DateRange{})
	require.NoError(t, err)

	require.Len(t, batch.Messages, 2)
	assert.Equal(t, "WIN em EUR/USD", batch.Messages[0].Text)
	assert.Equal(t, "STOP em EUR/USD", batch.Messages[1].Text)
}
