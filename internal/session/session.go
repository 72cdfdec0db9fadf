// Package session modeluje "stránku" jednoho dashboardu jako explicitní objekt.
//
// Místo globálních singletonů (jeden kontejner pro upozornění, jeden jmenný prostor grafů)
// vlastní Session mapu id -> prostředek. Každá komponenta dostane Session v konstruktoru,
// takže dvě nezávislé session (např. v testech) se nikdy nepotkají.
//
// Session je bezpečná pro souběžné použití. Posluchače resize volá mimo zámek.
package session

import (
	"log/slog"
	"sort"
	"sync"
)

// ListenerID identifikuje zaregistrovaného posluchače změny velikosti okna.
type ListenerID uint64

// Size je velikost v pixelech.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Session drží sdílený stav jedné stránky.
type Session struct {
	logger *slog.Logger

	mu        sync.Mutex
	surfaces  map[string]*Surface
	regions   map[string]*Region
	styles    map[string]string
	styleIDs  []string
	listeners map[ListenerID]func(Size)
	nextID    ListenerID
	window    Size
}

// New vytvoří prázdnou session. Výchozí velikost okna je 1280x800.
func New(logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		logger:    logger,
		surfaces:  make(map[string]*Surface),
		regions:   make(map[string]*Region),
		styles:    make(map[string]string),
		listeners: make(map[ListenerID]func(Size)),
		window:    Size{Width: 1280, Height: 800},
	}
}

// Logger vrací logger session (komponenty ho použijí, pokud nedostanou vlastní).
func (s *Session) Logger() *slog.Logger {
	return s.logger
}

// --- PLOCHY GRAFŮ (kontejnery, které musí existovat předem) ---

// AddSurface zaregistruje kontejner grafu s danou velikostí.
// Pokud už existuje, jen se mu nastaví nová velikost a vrátí se původní (zachová připojený engine).
func (s *Session) AddSurface(id string, width, height int) *Surface {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sf, ok := s.surfaces[id]; ok {
		sf.SetSize(width, height)
		return sf
	}
	sf := &Surface{id: id, size: Size{Width: width, Height: height}}
	s.surfaces[id] = sf
	return sf
}

// Surface vyhledá kontejner podle id.
func (s *Session) Surface(id string) (*Surface, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sf, ok := s.surfaces[id]
	return sf, ok
}

// SurfaceIDs vrací id všech kontejnerů (seřazená).
func (s *Session) SurfaceIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.surfaces))
	for id := range s.surfaces {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RemoveSurface odstraní kontejner ze stránky.
func (s *Session) RemoveSurface(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.surfaces[id]
	delete(s.surfaces, id)
	return ok
}

// --- OBLASTI (kontejnery vytvářené líně, např. pro upozornění) ---

// EnsureRegion vrátí oblast s daným id; pokud neexistuje, vytvoří ji.
// created říká, zda oblast vznikla právě teď.
func (s *Session) EnsureRegion(id string) (region *Region, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.regions[id]; ok {
		return r, false
	}
	r := &Region{id: id}
	s.regions[id] = r
	s.logger.Debug("session: vytvořena oblast", "region", id)
	return r, true
}

// Region vrací existující oblast.
func (s *Session) Region(id string) (*Region, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.regions[id]
	return r, ok
}

// RegionCount vrací počet oblastí (kontrola, že se nic neduplikuje).
func (s *Session) RegionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.regions)
}

// --- STYLY ---

// InjectStyle vloží CSS pod daným id. Pokud styl s tímto id už existuje, nic nemění a vrací false.
func (s *Session) InjectStyle(id, css string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.styles[id]; ok {
		return false
	}
	s.styles[id] = css
	s.styleIDs = append(s.styleIDs, id)
	return true
}

// Styles vrací vložené styly v pořadí vložení (pro vykreslení do <head>).
func (s *Session) Styles() []Style {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Style, 0, len(s.styleIDs))
	for _, id := range s.styleIDs {
		out = append(out, Style{ID: id, CSS: s.styles[id]})
	}
	return out
}

// Style je jeden vložený blok CSS.
type Style struct {
	ID  string
	CSS string
}

// --- ZMĚNA VELIKOSTI OKNA ---

// AddResizeListener zaregistruje posluchače. Vlastník si musí ID uložit a při zániku ho odhlásit.
func (s *Session) AddResizeListener(fn func(Size)) ListenerID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.listeners[s.nextID] = fn
	return s.nextID
}

// RemoveResizeListener odhlásí posluchače. Vrací false, pokud už neexistoval.
func (s *Session) RemoveResizeListener(id ListenerID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.listeners[id]
	delete(s.listeners, id)
	return ok
}

// ListenerCount vrací počet aktivních posluchačů.
func (s *Session) ListenerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

// Window vrací aktuální velikost okna.
func (s *Session) Window() Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.window
}

// ResizeWindow nastaví novou velikost okna a zavolá všechny posluchače (v pořadí registrace).
func (s *Session) ResizeWindow(width, height int) {
	s.mu.Lock()
	s.window = Size{Width: width, Height: height}
	size := s.window
	ids := make([]ListenerID, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]func(Size), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.mu.Unlock()

	// Mimo zámek: posluchač smí volat zpět do session.
	for _, fn := range fns {
		fn(size)
	}
}
