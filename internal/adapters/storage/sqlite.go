package storage

// sqlite.go — histórico de mensajes crudos de la sala.
//
// Estrategia:
//   - `imports`: una fila por importación (CSV, log o sesión del listener), con UUID.
//   - `messages`: una fila por mensaje. (source, source_id) es único, así
//     reimportar el mismo archivo no duplica nada.
//   - Las métricas no se guardan: cada reporte reclasifica y reagrega.
//   - sent_at en milisegundos UTC para que los rangos sean comparaciones enteras.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alejandrodnm/signalroom/internal/domain"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS imports (
    id          TEXT PRIMARY KEY,
    source      TEXT     NOT NULL,
    started_at  DATETIME NOT NULL,
    finished_at DATETIME,
    inserted    INTEGER  NOT NULL DEFAULT 0,
    skipped     INTEGER  NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS messages (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    import_id TEXT    NOT NULL REFERENCES imports(id),
    source    TEXT    NOT NULL,
    source_id TEXT    NOT NULL,
    sender    TEXT    NOT NULL DEFAULT '',
    sent_at   INTEGER NOT NULL,
    text      TEXT    NOT NULL DEFAULT ''
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_messages_source ON messages(source, source_id) WHERE source_id <> '';
CREATE INDEX IF NOT EXISTS idx_messages_sent ON messages(sent_at);
`

// ErrUnknownImport se devuelve si el importID no existe.
var ErrUnknownImport = errors.New("unknown import")

// SQLiteStorage implementa ports.MessageStore y ports.MessageSource usando
// SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db  *sql.DB
	loc *time.Location
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y aplica el schema.
// Los timestamps leídos se devuelven en loc (UTC si es nil).
func NewSQLiteStorage(path string, loc *time.Location) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	if loc == nil {
		loc = time.UTC
	}
	return &SQLiteStorage{db: db, loc: loc}, nil
}

// BeginImport registra una importación nueva y devuelve su UUID.
func (s *SQLiteStorage) BeginImport(ctx context.Context, source string) (string, error) {
	id := uuid.New().String()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO imports (id, source, started_at) VALUES (?, ?, ?)`,
		id, source, time.Now().UTC(),
	); err != nil {
		return "", fmt.Errorf("storage.BeginImport: insert: %w", err)
	}
	return id, nil
}

// SaveMessages inserta el lote en una transacción. Los duplicados por
// (source, source_id) se ignoran. Devuelve cuántos se insertaron.
func (s *SQLiteStorage) SaveMessages(ctx context.Context, importID string, msgs []domain.RawMessage) (int, error) {
	if len(msgs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("storage.SaveMessages: begin tx: %w", err)
	}
	defer tx.Rollback()

	var source string
	err = tx.QueryRowContext(ctx, `SELECT source FROM imports WHERE id = ?`, importID).Scan(&source)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("storage.SaveMessages: %w: %s", ErrUnknownImport, importID)
	}
	if err != nil {
		return 0, fmt.Errorf("storage.SaveMessages: lookup import: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO messages (import_id, source, source_id, sender, sent_at, text)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("storage.SaveMessages: prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, m := range msgs {
		res, err := stmt.ExecContext(ctx,
			importID,
			source,
			m.ID,
			m.Sender,
			m.Timestamp.UTC().UnixMilli(),
			m.Text,
		)
		if err != nil {
			return 0, fmt.Errorf("storage.SaveMessages: insert %s: %w", m.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE imports SET inserted = inserted + ? WHERE id = ?`, inserted, importID,
	); err != nil {
		return 0, fmt.Errorf("storage.SaveMessages: update import: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("storage.SaveMessages: commit: %w", err)
	}
	return inserted, nil
}

// FinishImport marca la importación como terminada.
func (s *SQLiteStorage) FinishImport(ctx context.Context, importID string, skipped int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE imports SET finished_at = ?, skipped = ? WHERE id = ?`,
		time.Now().UTC(), skipped, importID,
	)
	if err != nil {
		return fmt.Errorf("storage.FinishImport: update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("storage.FinishImport: %w: %s", ErrUnknownImport, importID)
	}
	return nil
}

// Load devuelve los mensajes del rango en orden cronológico.
func (s *SQLiteStorage) Load(ctx context.Context, rng domain.DateRange) (domain.Batch, error) {
	start, end := rng.Bounds(s.loc)

	query := `SELECT source_id, sender, sent_at, text FROM messages WHERE 1 = 1`
	var args []any
	if !start.IsZero() {
		query += ` AND sent_at >= ?`
		args = append(args, start.UTC().UnixMilli())
	}
	if !end.IsZero() {
		query += ` AND sent_at < ?`
		args = append(args, end.UTC().UnixMilli())
	}
	query += ` ORDER BY sent_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return domain.Batch{}, fmt.Errorf("storage.Load: query: %w", err)
	}
	defer rows.Close()

	var batch domain.Batch
	for rows.Next() {
		var m domain.RawMessage
		var sentAt int64
		if err := rows.Scan(&m.ID, &m.Sender, &sentAt, &m.Text); err != nil {
			return domain.Batch{}, fmt.Errorf("storage.Load: scan row: %w", err)
		}
		m.Timestamp = time.UnixMilli(sentAt).In(s.loc)
		batch.Messages = append(batch.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return domain.Batch{}, fmt.Errorf("storage.Load: iterate: %w", err)
	}
	return batch, nil
}

// Prune elimina los mensajes anteriores a before. Devuelve cuántos se borraron.
func (s *SQLiteStorage) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM messages WHERE sent_at < ?`, before.UTC().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("storage.Prune: delete: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
