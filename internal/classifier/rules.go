package classifier

import (
	"strings"

	"github.com/alejandrodnm/signalroom/internal/domain"
)

// Rule es una regla pura: recibe el texto y devuelve el evento si matchea.
// El evento sale sin timestamp; Classify lo completa con el del mensaje.
type Rule struct {
	Name  string
	Match func(text string) (domain.Event, bool)
}

// compiledPatterns es la tabla lista para construir las reglas.
type compiledPatterns struct {
	signal      compiledMarker
	putMarkers  []string
	callMarkers []string
	win         compiledMarker
	winExclude  []string
	winGale1    compiledMarker
	winGale2    compiledMarker
	stop        compiledMarker
	galeCall1   compiledMarker
	galeCall2   compiledMarker
}

func compilePatterns(p Patterns) (compiledPatterns, error) {
	p = p.withDefaults()
	out := compiledPatterns{
		putMarkers:  p.PutMarkers,
		callMarkers: p.CallMarkers,
		winExclude:  p.WinExclude,
	}

	markers := []struct {
		name string
		src  Marker
		dst  *compiledMarker
	}{
		{"signal", p.Signal, &out.signal},
		{"win", p.Win, &out.win},
		{"win_gale1", p.WinGale1, &out.winGale1},
		{"win_gale2", p.WinGale2, &out.winGale2},
		{"stop", p.Stop, &out.stop},
		{"gale_call1", p.GaleCall1, &out.galeCall1},
		{"gale_call2", p.GaleCall2, &out.galeCall2},
	}
	for _, m := range markers {
		c, err := m.src.compile(m.name)
		if err != nil {
			return compiledPatterns{}, err
		}
		*m.dst = c
	}
	return out, nil
}

// buildRules devuelve las reglas en orden de prioridad. Gana la primera que matchea.
func buildRules(p compiledPatterns) []Rule {
	return []Rule{
		{Name: "signal", Match: signalRule(p)},
		{Name: "win", Match: winRule(p)},
		{Name: "win_gale1", Match: winGaleRule(p.winGale1, 1)},
		{Name: "win_gale2", Match: winGaleRule(p.winGale2, 2)},
		{Name: "stop", Match: stopRule(p.stop)},
		{Name: "gale_call1", Match: galeCallRule(p.galeCall1, 1)},
		{Name: "gale_call2", Match: galeCallRule(p.galeCall2, 2)},
	}
}

func signalRule(p compiledPatterns) func(string) (domain.Event, bool) {
	return func(text string) (domain.Event, bool) {
		if !strings.Contains(text, p.signal.contains) {
			return nil, false
		}
		return domain.Signal{
			Pair:      p.signal.extract(text),
			Direction: direction(text, p.putMarkers, p.callMarkers),
		}, true
	}
}

// direction: PUT tiene prioridad si el texto trae marcadores de ambos lados.
func direction(text string, put, call []string) domain.Direction {
	switch {
	case containsAny(text, put):
		return domain.DirectionPut
	case containsAny(text, call):
		return domain.DirectionCall
	default:
		return domain.DirectionUnknown
	}
}

func winRule(p compiledPatterns) func(string) (domain.Event, bool) {
	return func(text string) (domain.Event, bool) {
		if !strings.Contains(text, p.win.contains) || containsAny(text, p.winExclude) {
			return nil, false
		}
		return domain.Win{Pair: p.win.extract(text), Level: 0}, true
	}
}

func winGaleRule(m compiledMarker, level int) func(string) (domain.Event, bool) {
	return func(text string) (domain.Event, bool) {
		if !strings.Contains(text, m.contains) {
			return nil, false
		}
		return domain.Win{Pair: m.extract(text), Level: level}, true
	}
}

func stopRule(m compiledMarker) func(string) (domain.Event, bool) {
	return func(text string) (domain.Event, bool) {
		if !strings.Contains(text, m.contains) {
			return nil, false
		}
		return domain.Stop{Pair: m.extract(text)}, true
	}
}

func galeCallRule(m compiledMarker, level int) func(string) (domain.Event, bool) {
	return func(text string) (domain.Event, bool) {
		if !strings.Contains(text, m.contains) {
			return nil, false
		}
		return domain.GaleCall{Pair: m.extract(text), Level: level}, true
	}
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(text, n) {
			return true
		}
	}
	return false
}
