package classifier

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidPattern se devuelve cuando una regex de la tabla no compila
// o no tiene grupo de captura para el par.
var ErrInvalidPattern = errors.New("invalid classifier pattern")

// Marker es un texto que activa una regla más la regex que extrae el par.
// La regex debe tener un grupo de captura; si no matchea, el par queda UNKNOWN.
type Marker struct {
	Contains   string `yaml:"contains"`
	Instrument string `yaml:"instrument"`
}

// Patterns es la tabla de marcadores de la sala. Los campos vacíos se
// completan con DefaultPatterns, así el YAML solo necesita lo que cambia.
type Patterns struct {
	Signal      Marker   `yaml:"signal"`
	PutMarkers  []string `yaml:"put_markers"`
	CallMarkers []string `yaml:"call_markers"`

	Win        Marker   `yaml:"win"`
	WinExclude []string `yaml:"win_exclude"` // si aparece alguno, no es win directo
	WinGale1   Marker   `yaml:"win_gale1"`
	WinGale2   Marker   `yaml:"win_gale2"`
	Stop       Marker   `yaml:"stop"`

	GaleCall1 Marker `yaml:"gale_call1"`
	GaleCall2 Marker `yaml:"gale_call2"`
}

// DefaultPatterns devuelve los marcadores que usa la sala (portugués).
func DefaultPatterns() Patterns {
	return Patterns{
		Signal: Marker{
			Contains:   "Novo Sinal Encontrado",
			Instrument: "\\*\\*Par:\\*\\* `([^`]+)`",
		},
		PutMarkers:  []string{"🔴⬇️", "Vender"},
		CallMarkers: []string{"🟢⬆️", "Comprar"},

		Win:        Marker{Contains: "WIN em", Instrument: `WIN em ([A-Z/]+)`},
		WinExclude: []string{"G1", "G2"},
		WinGale1:   Marker{Contains: "WIN (G1)", Instrument: `WIN \(G1\) em ([A-Z/]+)`},
		WinGale2:   Marker{Contains: "WIN (G2)", Instrument: `WIN \(G2\) em ([A-Z/]+)`},
		Stop:       Marker{Contains: "STOP em", Instrument: `STOP em ([A-Z/]+)`},

		GaleCall1: Marker{Contains: "Faça o GALE 1", Instrument: `para ([A-Z/]+)`},
		GaleCall2: Marker{Contains: "Faça o GALE 2", Instrument: `para ([A-Z/]+)`},
	}
}

// withDefaults completa los campos vacíos con los valores por defecto.
func (p Patterns) withDefaults() Patterns {
	d := DefaultPatterns()
	p.Signal = p.Signal.or(d.Signal)
	p.Win = p.Win.or(d.Win)
	p.WinGale1 = p.WinGale1.or(d.WinGale1)
	p.WinGale2 = p.WinGale2.or(d.WinGale2)
	p.Stop = p.Stop.or(d.Stop)
	p.GaleCall1 = p.GaleCall1.or(d.GaleCall1)
	p.GaleCall2 = p.GaleCall2.or(d.GaleCall2)
	if len(p.PutMarkers) == 0 {
		p.PutMarkers = d.PutMarkers
	}
	if len(p.CallMarkers) == 0 {
		p.CallMarkers = d.CallMarkers
	}
	if p.WinExclude == nil {
		p.WinExclude = d.WinExclude
	}
	return p
}

func (m Marker) or(def Marker) Marker {
	if m.Contains == "" {
		m.Contains = def.Contains
	}
	if m.Instrument == "" {
		m.Instrument = def.Instrument
	}
	return m
}

// compiledMarker es un Marker con la regex ya compilada.
type compiledMarker struct {
	contains   string
	instrument *regexp.Regexp
}

func (m Marker) compile(name string) (compiledMarker, error) {
	re, err := regexp.Compile(m.Instrument)
	if err != nil {
		return compiledMarker{}, fmt.Errorf("%w: %s: %v", ErrInvalidPattern, name, err)
	}
	if re.NumSubexp() < 1 {
		return compiledMarker{}, fmt.Errorf("%w: %s: %q has no capture group", ErrInvalidPattern, name, m.Instrument)
	}
	return compiledMarker{contains: m.Contains, instrument: re}, nil
}

// extract devuelve el primer grupo capturado o "" si no hay match.
func (m compiledMarker) extract(text string) string {
	sub := m.instrument.FindStringSubmatch(text)
	if len(sub) < 2 {
		return ""
	}
	return sub[1]
}
