// Package charts spravuje grafy jedné stránky: pro každé id právě jeden Handle,
// navázaný na kontejner v session, na vykreslovací engine a na posluchače změny velikosti okna.
package charts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"telemetry-dashboard/internal/sensors"
	"telemetry-dashboard/internal/session"
	"telemetry-dashboard/internal/viewstate"
)

var (
	// ErrMissingTarget: kontejner grafu na stránce neexistuje. Volající to může zkusit později.
	ErrMissingTarget = errors.New("charts: kontejner grafu neexistuje")
	// ErrUnknownChart: pro id není zaregistrovaný žádný graf.
	ErrUnknownChart = errors.New("charts: graf není zaregistrován")
	// ErrInvalidZoom: výřez mimo 0-100 nebo start >= end.
	ErrInvalidZoom = errors.New("charts: neplatný výřez")
)

// Zoom je uložený výřez osy X v procentech.
type Zoom struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (z Zoom) valid() bool {
	return z.Start >= 0 && z.End <= 100 && z.Start < z.End
}

// Handle váže id grafu na kontejner, engine a aktuální popis.
type Handle struct {
	id       string
	surface  *session.Surface
	engine   Engine
	listener session.ListenerID

	mu   sync.Mutex
	spec Spec
}

// ID vrací id grafu.
func (h *Handle) ID() string { return h.id }

// Surface vrací kontejner grafu.
func (h *Handle) Surface() *session.Surface { return h.surface }

// Engine vrací vykreslovací instanci.
func (h *Handle) Engine() Engine { return h.engine }

// Spec vrací kopii aktuálního popisu.
func (h *Handle) Spec() Spec {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.spec.Clone()
}

func (h *Handle) setSpec(spec Spec) {
	h.mu.Lock()
	h.spec = spec.Clone()
	h.mu.Unlock()
	h.engine.SetOption(spec)
}

// Resize přizpůsobí graf aktuální velikosti kontejneru.
func (h *Handle) Resize() {
	h.engine.Resize(h.surface.Size())
}

// Render vykreslí graf do w.
func (h *Handle) Render(w io.Writer) error {
	return h.engine.Render(w)
}

// Registry drží grafy jedné session.
type Registry struct {
	sess      *session.Session
	logger    *slog.Logger
	store     *viewstate.Store
	theme     Theme
	newEngine EngineFactory

	mu      sync.Mutex
	handles map[string]*Handle
	order   []string
}

// Option upravuje Registry.
type Option func(*Registry)

// WithStore zapne ukládání a obnovu výřezu (zoom) grafů.
func WithStore(s *viewstate.Store) Option {
	return func(r *Registry) { r.store = s }
}

// WithLogger nastaví logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithTheme nastaví barvy pro grafy trendu.
func WithTheme(t Theme) Option {
	return func(r *Registry) { r.theme = t }
}

// WithEngineFactory vymění vykreslovací engine (testy, jiný výstup).
func WithEngineFactory(f EngineFactory) Option {
	return func(r *Registry) { r.newEngine = f }
}

// NewRegistry vytvoří správce grafů nad session.
func NewRegistry(sess *session.Session, opts ...Option) *Registry {
	r := &Registry{
		sess:      sess,
		logger:    sess.Logger(),
		theme:     DefaultTheme(),
		newEngine: NewSVGEngine,
		handles:   make(map[string]*Handle),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// InitChart vytvoří (nebo nahradí) graf s daným id a aplikuje popis.
//
// Pokud kontejner na stránce není, zaloguje chybu a vrátí ErrMissingTarget; nic nepadá.
// Engine kontejneru se znovu použije, pokud už existuje. Předchozí handle stejného id
// se nejdřív odpojí od resize událostí, teprve pak se připojí nový.
func (r *Registry) InitChart(id string, spec Spec) (*Handle, error) {
	sf, ok := r.sess.Surface(id)
	if !ok {
		r.logger.Error("charts: kontejner grafu nenalezen", "chart", id)
		return nil, fmt.Errorf("%w: %s", ErrMissingTarget, id)
	}

	eng, ok := sf.AttachIfAbsent(func() any { return r.newEngine(sf) }).(Engine)
	if !ok {
		// Ke kontejneru je připojené něco jiného než engine; přebereme ho.
		sf.Detach()
		eng = sf.AttachIfAbsent(func() any { return r.newEngine(sf) }).(Engine)
	}

	spec = r.applyStoredZoom(id, spec)
	h := &Handle{id: id, surface: sf, engine: eng}
	h.setSpec(spec)

	r.mu.Lock()
	if old, exists := r.handles[id]; exists {
		r.sess.RemoveResizeListener(old.listener)
	} else {
		r.order = append(r.order, id)
	}
	h.listener = r.sess.AddResizeListener(func(session.Size) { h.Resize() })
	r.handles[id] = h
	r.mu.Unlock()

	return h, nil
}

// CreateSensorTrendChart sestaví graf trendu ze snímku senzorů a předá ho InitChart.
func (r *Registry) CreateSensorTrendChart(id string, snap *sensors.Snapshot, opts ...TrendOption) (*Handle, error) {
	return r.InitChart(id, BuildTrendSpec(snap, r.theme, opts...))
}

// ResizeAll přizpůsobí všechny grafy (změny layoutu, které okno nezachytí, např. postranní panel).
func (r *Registry) ResizeAll() {
	for _, h := range r.snapshot() {
		h.Resize()
	}
}

// Handle vrací graf podle id.
func (r *Registry) Handle(id string) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[id]
	return h, ok
}

// IDs vrací id grafů v pořadí prvního vytvoření.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

// Dispose zruší graf: odhlásí posluchače, uvolní engine a odpojí ho od kontejneru.
func (r *Registry) Dispose(id string) bool {
	r.mu.Lock()
	h, ok := r.handles[id]
	if ok {
		delete(r.handles, id)
		if i := slices.Index(r.order, id); i >= 0 {
			r.order = slices.Delete(r.order, i, i+1)
		}
		r.sess.RemoveResizeListener(h.listener)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	h.engine.Dispose()
	h.surface.Detach()
	return true
}

// Close zruší všechny grafy registru.
func (r *Registry) Close() {
	for _, id := range r.IDs() {
		r.Dispose(id)
	}
}

// SetZoom uloží výřez grafu do view-state úložiště a hned ho aplikuje.
// Selhání zápisu se jen zaloguje, výřez se na stránce i tak projeví.
func (r *Registry) SetZoom(id string, z Zoom) error {
	if !z.valid() {
		return fmt.Errorf("%w: %+v", ErrInvalidZoom, z)
	}
	h, ok := r.Handle(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownChart, id)
	}

	if r.store != nil {
		if st := r.store.Set(context.Background(), viewstate.ZoomKey(id), z); !st.OK() {
			r.logger.Warn("charts: výřez nelze uložit", "chart", id, "status", st.String())
		}
	}

	spec := h.Spec()
	spec.DataZoom = []DataZoom{{Type: "inside", Start: z.Start, End: z.End}}
	h.setSpec(spec)
	return nil
}

func (r *Registry) applyStoredZoom(id string, spec Spec) Spec {
	if r.store == nil {
		return spec
	}
	z, st := viewstate.Lookup[Zoom](context.Background(), r.store, viewstate.ZoomKey(id))
	if st != viewstate.StatusOK || !z.valid() {
		return spec
	}
	spec.DataZoom = []DataZoom{{Type: "inside", Start: z.Start, End: z.End}}
	return spec
}

func (r *Registry) snapshot() []*Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Handle, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.handles[id])
	}
	return out
}
