package sensors

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Snapshot je mapa "id senzoru -> Series", která si pamatuje pořadí vložení.
// Go mapa pořadí nedrží, grafy ale musí vykreslit řady přesně v pořadí vstupu.
type Snapshot struct {
	order []string
	byID  map[string]Series
}

// NewSnapshot vytvoří prázdný snímek.
func NewSnapshot() *Snapshot {
	return &Snapshot{byID: make(map[string]Series)}
}

// Set vloží nebo přepíše senzor. Přepis zachová původní pozici.
func (s *Snapshot) Set(id string, series Series) {
	if s.byID == nil {
		s.byID = make(map[string]Series)
	}
	if _, exists := s.byID[id]; !exists {
		s.order = append(s.order, id)
	}
	if series.ID == "" {
		series.ID = id
	}
	s.byID[id] = series
}

// Get vrací senzor podle id.
func (s *Snapshot) Get(id string) (Series, bool) {
	if s == nil {
		return Series{}, false
	}
	series, ok := s.byID[id]
	return series, ok
}

// Len vrací počet senzorů.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// IDs vrací klíče v pořadí vložení.
func (s *Snapshot) IDs() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.order...)
}

// Each projde senzory v pořadí vložení. Pokud fn vrátí false, iterace končí.
func (s *Snapshot) Each(fn func(id string, series Series) bool) {
	if s == nil {
		return
	}
	for _, id := range s.order {
		if !fn(id, s.byID[id]) {
			return
		}
	}
}

// Filter vrátí nový snímek jen se senzory, pro které keep vrátí true (pořadí zůstává).
func (s *Snapshot) Filter(keep func(Series) bool) *Snapshot {
	out := NewSnapshot()
	s.Each(func(id string, series Series) bool {
		if keep(series) {
			out.Set(id, series)
		}
		return true
	})
	return out
}

// MarshalJSON zapíše snímek jako JSON objekt, klíče v pořadí vložení.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range s.IDs() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(s.byID[id])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON čte JSON objekt token po tokenu, aby se zachovalo pořadí klíčů z backendu.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("snapshot: očekáván JSON objekt, přišlo %v", tok)
	}

	fresh := NewSnapshot()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		id, ok := tok.(string)
		if !ok {
			return fmt.Errorf("snapshot: neplatný klíč %v", tok)
		}
		var series Series
		if err := dec.Decode(&series); err != nil {
			return fmt.Errorf("snapshot: senzor %q: %w", id, err)
		}
		series.Kind = ParseKind(string(series.Kind))
		fresh.Set(id, series)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = *fresh
	return nil
}
