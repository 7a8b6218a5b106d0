// Package textlog lee el log del listener en tiempo real:
//
//	[2024-03-01 09:00:00+00:00] 123456: 🚨 Novo Sinal Encontrado
//	**Par:** `EUR/USD`
//
// Las líneas que no empiezan con "[timestamp]" continúan el mensaje anterior.
package textlog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/signalroom/internal/domain"
)

var headerLine = regexp.MustCompile(`^\[([^\]]+)\] ([^:]*): ?(.*)$`)

const maxLineBytes = 1 << 20

// Reader implementa ports.MessageSource sobre el log de texto.
type Reader struct {
	path    string
	layouts []string
	naive   *time.Location
	loc     *time.Location
}

// NewReader crea un Reader. Sin layouts usa domain.DefaultTimeLayouts.
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

// Load abre el log y devuelve los mensajes del rango.
func (r *Reader) Load(ctx context.Context, rng domain.DateRange) (domain.Batch, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return domain.Batch{}, fmt.Errorf("textlog.Load: open %q: %w", r.path, err)
	}
	defer f.Close()

	batch, err := r.Decode(ctx, f, rng)
	if err != nil {
		return domain.Batch{}, fmt.Errorf("textlog.Load: %w", err)
	}
	return batch, nil
}

// Decode parsea el log desde rd. El ID de cada mensaje es su número de línea.
// Una línea de más de maxLineBytes se descarta como registro inválido.
func (r *Reader) Decode(ctx context.Context, rd io.Reader, rng domain.DateRange) (domain.Batch, error) {
	br := bufio.NewReaderSize(rd, 64*1024)

	var (
		batch   domain.Batch
		current *domain.RawMessage
		lineNo  int
	)
	flush := func() {
		if current != nil && rng.Contains(current.Timestamp) {
			current.Text = strings.TrimRight(current.Text, "\n")
			batch.Messages = append(batch.Messages, *current)
		}
		current = nil
	}

	orphan := false // líneas de continuación de un registro descartado
	for {
		line, tooLong, err := readLine(br, maxLineBytes)
		if err == io.EOF {
			break
		}
		if err != nil {
			return domain.Batch{}, fmt.Errorf("read line %d: %w", lineNo+1, err)
		}
		lineNo++
		if lineNo%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return domain.Batch{}, err
			}
		}

		if tooLong {
			flush()
			batch.Skipped = append(batch.Skipped, r.skip(lineNo, fmt.Sprintf("line longer than %d bytes", maxLineBytes)))
			orphan = true
			continue
		}

		m := headerLine.FindStringSubmatch(line)
		if m == nil {
			switch {
			case current != nil:
				current.Text += "\n" + line
			case !orphan && strings.TrimSpace(line) != "":
				batch.Skipped = append(batch.Skipped, r.skip(lineNo, "line without header"))
				orphan = true
			}
			continue
		}

		flush()
		ts, err := domain.ParseTimestamp(m[1], r.layouts, r.naive, r.loc)
		if err != nil {
			batch.Skipped = append(batch.Skipped, r.skip(lineNo, err.Error()))
			orphan = true
			continue
		}
		orphan = false
		current = &domain.RawMessage{
			ID:        strconv.Itoa(lineNo),
			Sender:    strings.TrimSpace(m[2]),
			Timestamp: ts,
			Text:      m[3],
		}
	}
	flush()

	slices.SortStableFunc(batch.Messages, func(a, b domain.RawMessage) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return batch, nil
}

// readLine lee una línea sin el salto final. Si supera limit bytes consume el
// resto de la línea y devuelve tooLong sin su contenido.
func readLine(br *bufio.Reader, limit int) (line string, tooLong bool, err error) {
	var buf []byte
	for {
		chunk, err := br.ReadSlice('\n')
		if !tooLong && len(buf)+len(chunk) <= limit {
			buf = append(buf, chunk...)
		} else {
			tooLong = true
			buf = nil
		}

		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if len(buf) == 0 && !tooLong {
				return "", false, io.EOF
			}
		case err != nil:
			return "", false, err
		}

		line = strings.TrimSuffix(string(buf), "\n")
		return strings.TrimSuffix(line, "\r"), tooLong, nil
	}
}

func (r *Reader) skip(line int, reason string) domain.SkippedRecord {
	slog.Warn("skipping log line", "path", r.path, "line", line, "reason", reason)
	return domain.SkippedRecord{Source: r.path, Line: line, Reason: reason}
}
