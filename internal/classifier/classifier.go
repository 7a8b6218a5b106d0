// Package classifier convierte mensajes de texto libre de la sala en eventos tipados.
package classifier

import (
	"fmt"
	"strings"

	"github.com/alejandrodnm/signalroom/internal/domain"
)

// Classifier aplica una lista ordenada de reglas. Es inmutable y seguro
// para uso concurrente.
type Classifier struct {
	rules []Rule
}

// New compila la tabla de patrones y construye las reglas.
func New(p Patterns) (*Classifier, error) {
	compiled, err := compilePatterns(p)
	if err != nil {
		return nil, fmt.Errorf("classifier.New: %w", err)
	}
	return &Classifier{rules: buildRules(compiled)}, nil
}

// Default devuelve un Classifier con DefaultPatterns.
func Default() *Classifier {
	c, err := New(DefaultPatterns())
	if err != nil {
		panic(err) // los patrones por defecto siempre compilan
	}
	return c
}

// Rules devuelve las reglas en orden de prioridad.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// ClassifyText devuelve el evento de la primera regla que matchea.
// Texto vacío o sin marcadores conocidos → false.
func (c *Classifier) ClassifyText(text string) (domain.Event, bool) {
	if strings.TrimSpace(text) == "" {
		return nil, false
	}
	for _, r := range c.rules {
		if ev, ok := r.Match(text); ok {
			return ev, true
		}
	}
	return nil, false
}

// Classify clasifica un mensaje y copia su timestamp al evento.
func (c *Classifier) Classify(msg domain.RawMessage) (domain.Event, bool) {
	ev, ok := c.ClassifyText(msg.Text)
	if !ok {
		return nil, false
	}
	return domain.WithTime(ev, msg.Timestamp), true
}

// ClassifyAll clasifica un lote manteniendo el orden y descartando los
// mensajes que no producen evento.
func (c *Classifier) ClassifyAll(msgs []domain.RawMessage) []domain.Event {
	events := make([]domain.Event, 0, len(msgs))
	for _, m := range msgs {
		if ev, ok := c.Classify(m); ok {
			events = append(events, ev)
		}
	}
	return events
}
