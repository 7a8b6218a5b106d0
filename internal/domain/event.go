package domain

import "time"

// UnknownInstrument se usa cuando el mensaje matchea una regla pero no trae el par.
const UnknownInstrument = "UNKNOWN"

// EventKind identifica el tipo de evento clasificado.
type EventKind int

const (
	KindSignal    EventKind = iota // 📡 entrada nueva
	KindWin                        // ✅ win directo, sin gale
	KindWinGale1                   // ✅ win recuperado en gale 1
	KindWinGale2                   // ✅ win recuperado en gale 2
	KindStop                       // ❌ stop loss tras agotar el gale 2
	KindGaleCall1                  // 🔁 la sala pide gale 1
	KindGaleCall2                  // 🔁 la sala pide gale 2
)

func (k EventKind) String() string {
	switch k {
	case KindSignal:
		return "SIGNAL"
	case KindWin:
		return "WIN"
	case KindWinGale1:
		return "WIN_GALE1"
	case KindWinGale2:
		return "WIN_GALE2"
	case KindStop:
		return "STOP"
	case KindGaleCall1:
		return "GALE_CALL1"
	case KindGaleCall2:
		return "GALE_CALL2"
	default:
		return "UNKNOWN"
	}
}

// Icon devuelve el emoji usado en la tabla de operaciones.
func (k EventKind) Icon() string {
	switch k {
	case KindSignal:
		return "📡"
	case KindWin, KindWinGale1, KindWinGale2:
		return "✅"
	case KindStop:
		return "❌"
	case KindGaleCall1, KindGaleCall2:
		return "🔁"
	default:
		return "?"
	}
}

// Direction es el lado de la entrada anunciada en una señal.
type Direction string

const (
	DirectionCall    Direction = "CALL"
	DirectionPut     Direction = "PUT"
	DirectionUnknown Direction = "UNKNOWN"
)

// Result es el desenlace de una operación. Solo WIN y STOP lo tienen.
type Result string

const (
	ResultNone Result = ""
	ResultWin  Result = "WIN"
	ResultLoss Result = "LOSS"
)

// Event es el resultado de clasificar un mensaje. Es una variante cerrada:
// solo Signal, Win, Stop y GaleCall la implementan.
type Event interface {
	Kind() EventKind
	Instrument() string
	GaleLevel() int
	Result() Result
	Time() time.Time

	sealed()
}

// Signal anuncia una entrada nueva.
type Signal struct {
	Pair      string
	Direction Direction
	At        time.Time
}

func (s Signal) Kind() EventKind    { return KindSignal }
func (s Signal) Instrument() string { return orUnknown(s.Pair) }
func (s Signal) GaleLevel() int     { return 0 }
func (s Signal) Result() Result     { return ResultNone }
func (s Signal) Time() time.Time    { return s.At }

func (Signal) sealed() {}

// Win es una operación ganada. Level indica en qué paso del martingale: 0, 1 o 2.
type Win struct {
	Pair  string
	Level int
	At    time.Time
}

func (w Win) Kind() EventKind {
	switch w.Level {
	case 1:
		return KindWinGale1
	case 2:
		return KindWinGale2
	default:
		return KindWin
	}
}
func (w Win) Instrument() string { return orUnknown(w.Pair) }
func (w Win) GaleLevel() int     { return w.Level }
func (w Win) Result() Result     { return ResultWin }
func (w Win) Time() time.Time    { return w.At }

func (Win) sealed() {}

// Stop es una operación perdida después del último gale.
type Stop struct {
	Pair string
	At   time.Time
}

func (s Stop) Kind() EventKind    { return KindStop }
func (s Stop) Instrument() string { return orUnknown(s.Pair) }
func (s Stop) GaleLevel() int     { return MaxGaleLevel }
func (s Stop) Result() Result     { return ResultLoss }
func (s Stop) Time() time.Time    { return s.At }

func (Stop) sealed() {}

// GaleCall es la instrucción de la sala de entrar en el siguiente gale (1 o 2).
type GaleCall struct {
	Pair  string
	Level int
	At    time.Time
}

func (g GaleCall) Kind() EventKind {
	if g.Level == 2 {
		return KindGaleCall2
	}
	return KindGaleCall1
}
func (g GaleCall) Instrument() string { return orUnknown(g.Pair) }
func (g GaleCall) GaleLevel() int     { return g.Level }
func (g GaleCall) Result() Result     { return ResultNone }
func (g GaleCall) Time() time.Time    { return g.At }

func (GaleCall) sealed() {}

// MaxGaleLevel es el último paso del martingale antes del stop.
const MaxGaleLevel = 2

// WithTime devuelve una copia del evento con el timestamp dado.
func WithTime(ev Event, at time.Time) Event {
	switch e := ev.(type) {
	case Signal:
		e.At = at
		return e
	case Win:
		e.At = at
		return e
	case Stop:
		e.At = at
		return e
	case GaleCall:
		e.At = at
		return e
	default:
		return ev
	}
}

// DirectionOf devuelve la dirección si el evento es una señal.
func DirectionOf(ev Event) (Direction, bool) {
	s, ok := ev.(Signal)
	if !ok {
		return "", false
	}
	if s.Direction == "" {
		return DirectionUnknown, true
	}
	return s.Direction, true
}

// IsTerminal devuelve true si el evento cierra una operación (WIN* o STOP).
func IsTerminal(ev Event) bool {
	return ev.Result() != ResultNone
}

func orUnknown(pair string) string {
	if pair == "" {
		return UnknownInstrument
	}
	return pair
}
