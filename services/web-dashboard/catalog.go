package main

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"telemetry-dashboard/internal/sensors"
)

// MaxLivePoints omezuje historii jednoho senzoru v paměti.
// Živá data z MQTT přibývají, dokud je další obnova z API nenahradí.
const MaxLivePoints = 2000

// SensorEvent je zpráva, kterou Ingestor publikuje do "events/<id>" po zpracování měření.
type SensorEvent struct {
	SensorID  int64     `json:"sensor_id"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// catalogEntry je senzor i s historií pro grafy.
type catalogEntry struct {
	meta    SensorDTO
	history []sensors.Sample
}

// Catalog drží seznam senzorů a jejich historii získanou z Home API.
// Čtení (render stránky, grafy) běží souběžně, zápisy (obnova, živá data z MQTT) se střídají pod zámkem.
type Catalog struct {
	source       SensorSource
	logger       *slog.Logger
	historyRange string
	maxPoints    int

	// mu chrání entries i order. Mapa v Go není thread-safe.
	mu      sync.RWMutex
	entries map[int64]*catalogEntry
	order   []int64 // pořadí senzorů tak, jak je vrací API
	loaded  time.Time
}

// NewCatalog - konstruktor
func NewCatalog(source SensorSource, historyRange string, logger *slog.Logger) *Catalog {
	return &Catalog{
		source:       source,
		logger:       logger,
		historyRange: historyRange,
		maxPoints:    MaxLivePoints,
		entries:      make(map[int64]*catalogEntry),
	}
}

// LoadSensors stáhne seznam senzorů a historii každého z nich a vymění obsah cache.
// Chyba u historie jednoho senzoru se jen zaloguje (senzor zůstane bez grafu).
// Chyba u seznamu senzorů znamená, že API není dostupné; stará data pak zůstávají.
func (c *Catalog) LoadSensors(ctx context.Context) error {
	list, err := c.source.GetSensors(ctx)
	if err != nil {
		return fmt.Errorf("seznam senzorů: %w", err)
	}

	// Read-Copy-Update: novou mapu postavíme bokem, zámek držíme jen na prohození.
	newEntries := make(map[int64]*catalogEntry, len(list))
	newOrder := make([]int64, 0, len(list))
	for _, s := range list {
		points, err := c.source.GetHistory(ctx, s.ID, c.historyRange)
		if err != nil {
			c.logger.Warn("Historii senzoru nelze načíst", "sensor_id", s.ID, "error", err)
		}
		history := make([]sensors.Sample, 0, len(points))
		for _, p := range points {
			history = append(history, p.Sample())
		}
		if _, dup := newEntries[s.ID]; !dup {
			newOrder = append(newOrder, s.ID)
		}
		newEntries[s.ID] = &catalogEntry{meta: s, history: c.trim(history)}
	}

	c.mu.Lock()
	c.entries = newEntries
	c.order = newOrder
	c.loaded = time.Now()
	c.mu.Unlock()

	c.logger.Info("Katalog senzorů obnoven", "sensors", len(newOrder))
	return nil
}

// ApplyEvent připíše živou hodnotu k historii senzoru.
// Vrací metadata senzoru; false znamená, že senzor katalog nezná (API ho ještě nevrátilo).
func (c *Catalog) ApplyEvent(ev SensorEvent) (SensorDTO, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[ev.SensorID]
	if !ok {
		return SensorDTO{}, false
	}
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	sample := sensors.Sample{Timestamp: ts.UnixMilli(), Value: sensors.Float(ev.Value)}

	// Historie je vzestupně podle času. Opožděná zpráva se zařadí na své místo
	// (za vzorky se stejným časem) a aktuální hodnotu nepřepíše.
	i := sort.Search(len(e.history), func(i int) bool { return e.history[i].Timestamp > sample.Timestamp })
	latest := i == len(e.history)
	e.history = c.trim(slices.Insert(e.history, i, sample))
	if latest {
		v := ev.Value
		e.meta.CurrentValue = &v
	}
	return e.meta, true
}

func (c *Catalog) trim(h []sensors.Sample) []sensors.Sample {
	if c.maxPoints > 0 && len(h) > c.maxPoints {
		return append([]sensors.Sample(nil), h[len(h)-c.maxPoints:]...)
	}
	return h
}

// Sensors vrací metadata senzorů v pořadí z API.
func (c *Catalog) Sensors() []SensorDTO {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]SensorDTO, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.entries[id].meta)
	}
	return out
}

// Snapshot sestaví snímek pro grafy. keep == nil znamená všechny senzory.
// Historie se kopíruje, volající ji může držet i po další obnově.
func (c *Catalog) Snapshot(keep func(SensorDTO) bool) *sensors.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := sensors.NewSnapshot()
	for _, id := range c.order {
		e := c.entries[id]
		if keep != nil && !keep(e.meta) {
			continue
		}
		snap.Set(e.meta.Key(), sensors.Series{
			Name:    e.meta.Name,
			Kind:    e.meta.Kind(),
			Unit:    e.meta.Unit,
			History: append([]sensors.Sample(nil), e.history...),
		})
	}
	return snap
}

// Kinds vrací kategorie, pro které katalog má aspoň jeden senzor, v pevném pořadí sensors.Kinds().
func (c *Catalog) Kinds() []sensors.Kind {
	c.mu.RLock()
	present := make(map[sensors.Kind]bool)
	for _, e := range c.entries {
		present[e.meta.Kind()] = true
	}
	c.mu.RUnlock()

	var out []sensors.Kind
	for _, k := range sensors.Kinds() {
		if present[k] {
			out = append(out, k)
		}
	}
	return out
}

// LastUpdate vrací čas posledního vzorku senzoru (epoch ms), nil pokud žádný není.
func (c *Catalog) LastUpdate(id int64) *int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[id]
	if !ok {
		return nil
	}
	last, ok := sensors.Series{History: e.history}.Latest()
	if !ok {
		return nil
	}
	return &last.Timestamp
}

// LoadedAt vrací čas poslední úspěšné obnovy (nulový, pokud žádná nebyla).
func (c *Catalog) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// StartAutoRefresh spouští smyčku na pozadí, která periodicky obnoví katalog.
// Výsledek každé obnovy (i neúspěšné) dostane onRefresh, aby mohl hlásit výpadek API.
func (c *Catalog) StartAutoRefresh(ctx context.Context, interval time.Duration, onRefresh func(error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := c.LoadSensors(ctx)
			if err != nil {
				c.logger.Error("Automatická obnova katalogu selhala", "error", err)
			}
			if onRefresh != nil {
				onRefresh(err)
			}
		}
	}
}
