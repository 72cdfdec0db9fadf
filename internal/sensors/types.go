// Package sensors obsahuje datový model, se kterým pracuje vizualizační vrstva dashboardu.
// Data vlastní volající (backend / live feed), grafy si z nich berou jen snímek pro jedno překreslení.
package sensors

import "strings"

// Kind je kategorie senzoru. Slouží jen pro výběr ikony, barvy a jednotky v UI.
type Kind string

const (
	KindTemperature Kind = "temperature"
	KindHumidity    Kind = "humidity"
	KindLight       Kind = "light"
	KindPressure    Kind = "pressure"
	KindCamera      Kind = "camera"
	KindOther       Kind = "other"
)

// Kinds vrací známé kategorie v pevném pořadí (pořadí grafů na stránce).
func Kinds() []Kind {
	return []Kind{KindTemperature, KindHumidity, KindLight, KindPressure, KindCamera, KindOther}
}

// ParseKind převede řetězec z API na Kind.
// Neznámý typ (např. "air_quality") nepovažujeme za chybu, jen ho zařadíme do "other".
func ParseKind(s string) Kind {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindTemperature, KindHumidity, KindLight, KindPressure, KindCamera:
		return k
	default:
		return KindOther
	}
}

// Sample je jeden bod časové řady.
type Sample struct {
	// Timestamp: epoch v milisekundách (formát, který posílá backend).
	Timestamp int64 `json:"timestamp"`

	// Value je pointer, protože senzor může poslat null (výpadek měření).
	// nil nechceme zobrazit jako 0.
	Value *float64 `json:"value"`
}

// Float je pomocník pro vytvoření ne-nil hodnoty (hlavně v testech a při příjmu z MQTT).
func Float(v float64) *float64 {
	return &v
}

// Series je historie jednoho senzoru.
// History je seřazená vzestupně podle času; duplicitní časy jsou povolené (platí poslední zápis).
type Series struct {
	ID      string   `json:"id,omitempty"`
	Name    string   `json:"name"`
	Kind    Kind     `json:"kind"`
	Unit    string   `json:"unit,omitempty"`
	History []Sample `json:"history"`
}

// Latest vrací poslední vzorek, pokud nějaký existuje.
func (s Series) Latest() (Sample, bool) {
	if len(s.History) == 0 {
		return Sample{}, false
	}
	return s.History[len(s.History)-1], true
}

// Points vrátí historii připravenou pro graf: duplicitní časové značky sloučí tak,
// že zůstane poslední zapsaná hodnota. Vstupní řez se nemění.
func (s Series) Points() []Sample {
	out := make([]Sample, 0, len(s.History))
	for _, p := range s.History {
		if n := len(out); n > 0 && out[n-1].Timestamp == p.Timestamp {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}
