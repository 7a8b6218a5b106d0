package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/signalroom/internal/adapters/storage"
	"github.com/alejandrodnm/signalroom/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeMessage(id string, at time.Time, text string) domain.RawMessage {
	return domain.RawMessage{
		ID:        id,
		Sender:    "777",
		Timestamp: at,
		Text:      text,
	}
}

func newStore(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	db, err := storage.NewSQLiteStorage(":memory:", time.UTC)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteStorage_SaveAndLoad(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()

	importID, err := db.BeginImport(ctx, "mensagens.csv")
	require.NoError(t, err)
	require.NotEmpty(t, importID)

	day := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	msgs := []domain.RawMessage{
		makeMessage("2", day.Add(10*time.Minute), "✅ WIN em EUR/USD"),
		makeMessage("1", day, "🚨 Novo Sinal Encontrado\n**Par:** `EUR/USD`"),
	}

	n, err := db.SaveMessages(ctx, importID, msgs)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, db.FinishImport(ctx, importID, 0))

	batch, err := db.Load(ctx, domain.DateRange{})
	require.NoError(t, err)
	require.Len(t, batch.Messages, 2)

	// Ordenados por timestamp
	assert.Equal(t, "1", batch.Messages[0].ID)
	assert.Equal(t, "777", batch.Messages[0].Sender)
	assert.Equal(t, day, batch.Messages[0].Timestamp)
	assert.Equal(t, "🚨 Novo Sinal Encontrado\n**Par:** `EUR/USD`", batch.Messages[0].Text)
	assert.Equal(t, "2", batch.Messages[1].ID)
}

func TestSQLiteStorage_ReimportIsIdempotent(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	msgs := []domain.RawMessage{makeMessage("1", at, "WIN em EUR/USD")}

	first, err := db.BeginImport(ctx, "mensagens.csv")
	require.NoError(t, err)
	n, err := db.SaveMessages(ctx, first, msgs)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	second, err := db.BeginImport(ctx, "mensagens.csv")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	n, err = db.SaveMessages(ctx, second, msgs)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "same source and id should not insert twice")

	// Otra fuente con el mismo id sí se guarda.
	other, err := db.BeginImport(ctx, "realtime.log")
	require.NoError(t, err)
	n, err = db.SaveMessages(ctx, other, msgs)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	batch, err := db.Load(ctx, domain.DateRange{})
	require.NoError(t, err)
	assert.Len(t, batch.Messages, 2)
}

func TestSQLiteStorage_MessagesWithoutIDAreKept(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	importID, err := db.BeginImport(ctx, "x.csv")
	require.NoError(t, err)
	n, err := db.SaveMessages(ctx, importID, []domain.RawMessage{
		makeMessage("", at, "WIN em EUR/USD"),
		makeMessage("", at, "WIN em EUR/USD"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSQLiteStorage_LoadRange(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()

	importID, err := db.BeginImport(ctx, "mensagens.csv")
	require.NoError(t, err)
	_, err = db.SaveMessages(ctx, importID, []domain.RawMessage{
		makeMessage("1", time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC), "a"),
		makeMessage("2", time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), "b"),
		makeMessage("3", time.Date(2024, 3, 2, 23, 59, 59, 0, time.UTC), "c"),
		makeMessage("4", time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), "d"),
	})
	require.NoError(t, err)

	day := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	batch, err := db.Load(ctx, domain.DateRange{From: day, To: day})
	require.NoError(t, err)
	require.Len(t, batch.Messages, 2)
	assert.Equal(t, "2", batch.Messages[0].ID)
	assert.Equal(t, "3", batch.Messages[1].ID)

	// Solo desde
	batch, err = db.Load(ctx, domain.DateRange{From: day})
	require.NoError(t, err)
	assert.Len(t, batch.Messages, 3)
}

func TestSQLiteStorage_SaveEmptySlice(t *testing.T) {
	db := newStore(t)

	n, err := db.SaveMessages(context.Background(), "whatever", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLiteStorage_UnknownImport(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()
	msgs := []domain.RawMessage{makeMessage("1", time.Now(), "x")}

	_, err := db.SaveMessages(ctx, "missing", msgs)
	assert.ErrorIs(t, err, storage.ErrUnknownImport)

	err = db.FinishImport(ctx, "missing", 0)
	assert.ErrorIs(t, err, storage.ErrUnknownImport)
}

func TestSQLiteStorage_Prune(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()

	importID, err := db.BeginImport(ctx, "telegram")
	require.NoError(t, err)
	old := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err = db.SaveMessages(ctx, importID, []domain.RawMessage{
		makeMessage("1", old, "a"),
		makeMessage("2", recent, "b"),
	})
	require.NoError(t, err)

	n, err := db.Prune(ctx, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	batch, err := db.Load(ctx, domain.DateRange{})
	require.NoError(t, err)
	require.Len(t, batch.Messages, 1)
	assert.Equal(t, "2", batch.Messages[0].ID)
}
