// Package csvfile lee la exportación CSV de la sala (id, data, autor_id, mensagem).
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/alejandrodnm/signalroom/internal/domain"
)

// Nombres aceptados para cada columna. La exportación original usa los primeros.
var (
	idColumns     = []string{"id", "message_id"}
	timeColumns   = []string{"data", "date", "timestamp"}
	senderColumns = []string{"autor_id", "sender", "sender_id", "author"}
	textColumns   = []string{"mensagem", "message", "text"}
)

// ErrMissingColumn se devuelve si el header no trae timestamp o texto.
var ErrMissingColumn = errors.New("missing required column")

// Reader implementa ports.MessageSource sobre un archivo CSV.
type Reader struct {
	path    string
	layouts []string
	naive   *time.Location
	loc     *time.Location
}

// NewReader crea un Reader. Sin layouts usa domain.DefaultTimeLayouts;
// loc nil equivale a UTC.
func NewReader(path string, layouts []string, loc *time.Location) *Reader {
	if len(layouts) == 0 {
		layouts = domain.DefaultTimeLayouts
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Reader{path: path, layouts: layouts, naive: time.UTC, loc: loc}
}

// WithNaiveZone fija la zona de los timestamps que no traen offset.
// Por defecto es UTC.
func (r *Reader) WithNaiveZone(naive *time.Location) *Reader {
	if naive != nil {
		r.naive = naive
	}
	return r
}

// Load abre el archivo y devuelve los mensajes del rango.
func (r *Reader) Load(ctx context.Context, rng domain.DateRange) (domain.Batch, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return domain.Batch{}, fmt.Errorf("csvfile.Load: open %q: %w", r.path, err)
	}
	defer f.Close()

	batch, err := r.Decode(ctx, f, rng)
	if err != nil {
		return domain.Batch{}, fmt.Errorf("csvfile.Load: %w", err)
	}
	return batch, nil
}

// Decode lee CSV desde rd. Las filas con timestamp ilegible se descartan con
// un aviso y la lectura continúa.
func (r *Reader) Decode(ctx context.Context, rd io.Reader, rng domain.DateRange) (domain.Batch, error) {
	cr := csv.NewReader(rd)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return domain.Batch{}, nil
	}
	if err != nil {
		return domain.Batch{}, fmt.Errorf("read header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return domain.Batch{}, err
	}

	var batch domain.Batch
	for {
		if err := ctx.Err(); err != nil {
			return domain.Batch{}, err
		}

		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				batch.Skipped = append(batch.Skipped, r.skip(perr.Line, perr.Err.Error()))
				continue
			}
			return domain.Batch{}, fmt.Errorf("read record: %w", err)
		}
		line, _ := cr.FieldPos(0)

		ts, err := domain.ParseTimestamp(cols.get(record, cols.time), r.layouts, r.naive, r.loc)
		if err != nil {
			batch.Skipped = append(batch.Skipped, r.skip(line, err.Error()))
			continue
		}
		if !rng.Contains(ts) {
			continue
		}

		batch.Messages = append(batch.Messages, domain.RawMessage{
			ID:        cols.get(record, cols.id),
			Sender:    cols.get(record, cols.sender),
			Timestamp: ts,
			Text:      cols.get(record, cols.text),
		})
	}

	slices.SortStableFunc(batch.Messages, func(a, b domain.RawMessage) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	slog.Debug("csv decoded",
		"path", r.path,
		"messages", len(batch.Messages),
		"skipped", len(batch.Skipped),
	)
	return batch, nil
}

func (r *Reader) skip(line int, reason string) domain.SkippedRecord {
	slog.Warn("skipping csv row", "path", r.path, "line", line, "reason", reason)
	return domain.SkippedRecord{Source: r.path, Line: line, Reason: reason}
}

// columns guarda el índice de cada columna; -1 si no existe.
type columns struct {
	id, time, sender, text int
}

func (c columns) get(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}

func mapColumns(header []string) (columns, error) {
	c := columns{id: -1, time: -1, sender: -1, text: -1}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		switch {
		case c.id < 0 && slices.Contains(idColumns, name):
			c.id = i
		case c.time < 0 && slices.Contains(timeColumns, name):
			c.time = i
		case c.sender < 0 && slices.Contains(senderColumns, name):
			c.sender = i
		case c.text < 0 && slices.Contains(textColumns, name):
			c.text = i
		}
	}
	if c.time < 0 {
		return c, fmt.Errorf("%w: timestamp (one of %v)", ErrMissingColumn, timeColumns)
	}
	if c.text < 0 {
		return c, fmt.Errorf("%w: text (one of %v)", ErrMissingColumn, textColumns)
	}
	return c, nil
}
