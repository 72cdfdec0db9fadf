// Package notify zobrazuje krátkodobá upozornění v jedné pevné oblasti stránky.
//
// Životní cyklus záznamu: created -> visible -> dismissed. Zavřený záznam se už nikdy nevrátí,
// zmizí z fronty i z oblasti. Zavření je buď automatické (vypršení TTL), nebo ruční přes Handle.
package notify

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"telemetry-dashboard/internal/session"
	"telemetry-dashboard/internal/viewstate"
)

const (
	// RegionID je id oblasti, do které se upozornění vkládají (jedna na session).
	RegionID = "notification-container"
	// StyleID je id vloženého CSS s přechody.
	StyleID = "notification-styles"
	// DefaultTTL je doba zobrazení, pokud volající nic neurčí.
	DefaultTTL = 5 * time.Second
)

// State je stav záznamu.
type State int

const (
	StateCreated State = iota
	StateVisible
	StateDismissed
)

// Entry je neměnný popis jednoho upozornění.
type Entry struct {
	ID       string        `json:"id"`
	Key      string        `json:"key,omitempty"`
	Message  string        `json:"message"`
	Severity Severity      `json:"severity"`
	Title    string        `json:"title"`
	Accent   string        `json:"accent"`
	Created  time.Time     `json:"created"`
	TTL      time.Duration `json:"ttl"`
}

// Handle umožňuje ruční zavření záznamu.
type Handle struct {
	q     *Queue
	entry Entry

	// Stav a timer chrání q.mu.
	state State
	timer *time.Timer
}

// ID vrací id záznamu.
func (h *Handle) ID() string { return h.entry.ID }

// Entry vrací popis záznamu.
func (h *Handle) Entry() Entry { return h.entry }

// State vrací aktuální stav.
func (h *Handle) State() State {
	h.q.mu.Lock()
	defer h.q.mu.Unlock()
	return h.state
}

// Dismiss zavře záznam a zruší jeho automatický timer.
// Opakované volání je no-op a neovlivní ostatní záznamy.
func (h *Handle) Dismiss() {
	if h == nil {
		return
	}
	h.q.dismiss(h, true)
}

// Queue je fronta viditelných upozornění jedné session.
type Queue struct {
	sess   *session.Session
	region *session.Region
	logger *slog.Logger
	store  *viewstate.Store
	ttl    time.Duration

	mu      sync.Mutex
	visible []*Handle

	// dismissed: klíče upozornění, která uživatel zavřel ručně (načteno líně ze store).
	dismissed     map[string]struct{}
	dismissedOnce sync.Once
}

// Option upravuje frontu.
type Option func(*Queue)

// WithStore zapne pamatování ručně zavřených klíčovaných upozornění.
func WithStore(s *viewstate.Store) Option {
	return func(q *Queue) { q.store = s }
}

// WithLogger nastaví logger.
func WithLogger(l *slog.Logger) Option {
	return func(q *Queue) { q.logger = l }
}

// WithDefaultTTL změní výchozí dobu zobrazení, kterou použijí zkratky Success/Error/... při ttl 0.
func WithDefaultTTL(d time.Duration) Option {
	return func(q *Queue) { q.ttl = d }
}

// NewQueue připraví frontu nad session. Oblast i styl se v session vytvoří jen jednou;
// další fronta nad stejnou session je sdílí.
func NewQueue(sess *session.Session, opts ...Option) *Queue {
	q := &Queue{
		sess:   sess,
		logger: sess.Logger(),
		ttl:    DefaultTTL,
	}
	for _, opt := range opts {
		opt(q)
	}

	region, created := sess.EnsureRegion(RegionID)
	q.region = region
	injected := sess.InjectStyle(StyleID, styles)
	q.logger.Debug("notify: fronta připravena", "region_created", created, "style_injected", injected)
	return q
}

// DefaultTTL vrací výchozí dobu zobrazení fronty.
func (q *Queue) DefaultTTL() time.Duration { return q.ttl }

// Show vytvoří a zobrazí upozornění. ttl <= 0 znamená "dokud ho někdo nezavře".
func (q *Queue) Show(message string, sev Severity, ttl time.Duration) *Handle {
	return q.show("", message, sev, ttl)
}

func (q *Queue) show(key, message string, sev Severity, ttl time.Duration) *Handle {
	h := q.newHandle(key, message, sev, ttl)

	q.mu.Lock()
	defer q.mu.Unlock()
	q.appendLocked(h)
	return h
}

// newHandle připraví záznam ve stavu created. Do fronty ho vloží appendLocked.
func (q *Queue) newHandle(key, message string, sev Severity, ttl time.Duration) *Handle {
	st := styleFor(sev)
	h := &Handle{
		q: q,
		entry: Entry{
			ID:       uuid.NewString(),
			Key:      key,
			Message:  message,
			Severity: st.severity,
			Title:    st.title,
			Accent:   st.accent,
			Created:  time.Now(),
			TTL:      ttl,
		},
		state: StateCreated,
	}
	if !sev.Known() {
		q.logger.Warn("notify: neznámá závažnost, použit styl info", "severity", string(sev))
	}
	return h
}

// appendLocked zobrazí záznam a spustí jeho timer. Volat pod q.mu.
func (q *Queue) appendLocked(h *Handle) {
	q.visible = append(q.visible, h)
	q.region.Append(session.Element{
		ID:    h.entry.ID,
		Class: "notification notification-" + string(h.entry.Severity),
		Data:  h.entry,
	})
	h.state = StateVisible

	if ttl := h.entry.TTL; ttl > 0 {
		h.timer = time.AfterFunc(ttl, func() { q.dismiss(h, false) })
	}
}

// Success, Error, Warning a Info jsou zkratky pro Show s pevnou závažností.
// ttl 0 znamená výchozí TTL fronty; záporné ttl znamená ruční zavření.
func (q *Queue) Success(message string, ttl time.Duration) *Handle {
	return q.Show(message, SeveritySuccess, q.resolveTTL(ttl))
}

func (q *Queue) Error(message string, ttl time.Duration) *Handle {
	return q.Show(message, SeverityError, q.resolveTTL(ttl))
}

func (q *Queue) Warning(message string, ttl time.Duration) *Handle {
	return q.Show(message, SeverityWarning, q.resolveTTL(ttl))
}

func (q *Queue) Info(message string, ttl time.Duration) *Handle {
	return q.Show(message, SeverityInfo, q.resolveTTL(ttl))
}

func (q *Queue) resolveTTL(ttl time.Duration) time.Duration {
	if ttl == 0 {
		return q.ttl
	}
	return ttl
}

// ShowKeyed zobrazí upozornění identifikované klíčem (např. "backend-unreachable").
// Pokud ho uživatel už dříve ručně zavřel, nezobrazí se (vrací nil, false).
// Pokud je stejný klíč právě viditelný, vrátí existující handle a false.
func (q *Queue) ShowKeyed(key, message string, sev Severity, ttl time.Duration) (*Handle, bool) {
	q.loadDismissed()
	h := q.newHandle(key, message, sev, ttl)

	// Kontrola i vložení pod jedním zámkem: souběžná volání se stejným klíčem vytvoří jediný záznam.
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, gone := q.dismissed[key]; gone {
		return nil, false
	}
	for _, v := range q.visible {
		if v.entry.Key == key {
			return v, false
		}
	}
	q.appendLocked(h)
	return h, true
}

// DismissKey zavře viditelné upozornění s daným klíčem (např. když problém pominul).
// Nejde o ruční zavření uživatelem, klíč se proto neukládá.
func (q *Queue) DismissKey(key string) bool {
	q.mu.Lock()
	var target *Handle
	for _, h := range q.visible {
		if h.entry.Key == key {
			target = h
			break
		}
	}
	q.mu.Unlock()

	if target == nil {
		return false
	}
	return q.dismiss(target, false)
}

// Forget znovu povolí klíčované upozornění, které uživatel dříve zavřel.
func (q *Queue) Forget(key string) {
	q.loadDismissed()

	q.mu.Lock()
	delete(q.dismissed, key)
	keys := q.dismissedKeys()
	q.mu.Unlock()

	q.persistDismissed(keys)
}

// Lookup najde viditelný záznam podle id (pro HTTP endpoint zavření).
func (q *Queue) Lookup(id string) (*Handle, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, h := range q.visible {
		if h.entry.ID == id {
			return h, true
		}
	}
	return nil, false
}

// Entries vrací viditelné záznamy v pořadí vytvoření (nejstarší první).
func (q *Queue) Entries() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Entry, 0, len(q.visible))
	for _, h := range q.visible {
		out = append(out, h.entry)
	}
	return out
}

// Len vrací počet viditelných záznamů.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.visible)
}

// Close zavře všechny záznamy a zastaví jejich timery (teardown při zániku stránky).
func (q *Queue) Close() {
	q.mu.Lock()
	all := append([]*Handle(nil), q.visible...)
	q.mu.Unlock()

	for _, h := range all {
		q.dismiss(h, false)
	}
}

// dismiss provede přechod visible -> dismissed. manual = zavřel uživatel / volající přes Handle.
func (q *Queue) dismiss(h *Handle, manual bool) bool {
	if manual && h.entry.Key != "" {
		// Uložená množina musí obsahovat i klíče z minulých návštěv.
		q.loadDismissed()
	}

	q.mu.Lock()
	if h.state == StateDismissed {
		q.mu.Unlock()
		return false
	}
	h.state = StateDismissed
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	if i := slices.Index(q.visible, h); i >= 0 {
		q.visible = slices.Delete(q.visible, i, i+1)
	}
	q.region.Remove(h.entry.ID)

	var keys []string
	remember := manual && h.entry.Key != "" && q.store != nil
	if remember {
		if q.dismissed == nil {
			q.dismissed = make(map[string]struct{})
		}
		q.dismissed[h.entry.Key] = struct{}{}
		keys = q.dismissedKeys()
	}
	q.mu.Unlock()

	if remember {
		q.persistDismissed(keys)
	}
	return true
}

// loadDismissed načte zavřené klíče ze store jen jednou. Souběžní volající počkají,
// než načtení doběhne.
func (q *Queue) loadDismissed() {
	q.dismissedOnce.Do(func() {
		if q.store == nil {
			return
		}
		keys := viewstate.Get[[]string](context.Background(), q.store, viewstate.DismissedKey, nil)

		q.mu.Lock()
		if q.dismissed == nil {
			q.dismissed = make(map[string]struct{})
		}
		for _, k := range keys {
			q.dismissed[k] = struct{}{}
		}
		q.mu.Unlock()
	})
}

// dismissedKeys vrací seřazené klíče; volat pod q.mu.
func (q *Queue) dismissedKeys() []string {
	keys := make([]string, 0, len(q.dismissed))
	for k := range q.dismissed {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (q *Queue) persistDismissed(keys []string) {
	if q.store == nil {
		return
	}
	if st := q.store.Set(context.Background(), viewstate.DismissedKey, keys); !st.OK() {
		q.logger.Warn("notify: nelze uložit zavřená upozornění", "status", st.String())
	}
}
