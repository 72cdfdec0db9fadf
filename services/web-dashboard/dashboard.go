package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"telemetry-dashboard/internal/charts"
	"telemetry-dashboard/internal/debounce"
	"telemetry-dashboard/internal/format"
	"telemetry-dashboard/internal/notify"
	"telemetry-dashboard/internal/sensors"
	"telemetry-dashboard/internal/session"
	"telemetry-dashboard/internal/viewstate"
)

// Rozměry layoutu stránky (v pixelech). Grafy zabírají šířku obsahu, výška je pevná.
const (
	SidebarWidth   = 250
	ContentPadding = 48
	ChartHeight    = 320
	MinChartWidth  = 320
)

// Klíče upozornění, která se nemají opakovat, dokud trvá stejný problém.
const (
	alertBackend = "backend-unreachable"
	alertMQTT    = "mqtt-connection"
)

// OverviewChartID je graf se všemi senzory.
const OverviewChartID = "overview"

// TrendChartID vrací id grafu trendu jedné kategorie.
func TrendChartID(kind sensors.Kind) string {
	return "trend-" + string(kind)
}

// kindTitle vrací nadpis grafu kategorie ("temperature" -> "Temperature").
func kindTitle(kind sensors.Kind) string {
	s := string(kind)
	if s == "" {
		return charts.DefaultTrendTitle
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Dashboard je stránka s grafy a upozorněními nad jednou session.
// Události z MQTT, obnovy katalogu i HTTP požadavky chodí z různých goroutin;
// komponenty mají vlastní zámky, Dashboard drží jen stav layoutu.
type Dashboard struct {
	sess    *session.Session
	queue   *notify.Queue
	charts  *charts.Registry
	catalog *Catalog
	logger  *slog.Logger

	redraw   *debounce.Debouncer[struct{}]
	viewport *debounce.Debouncer[session.Size]

	mu          sync.Mutex
	sidebarOpen bool
	mqttLost    bool
	backendDown bool
}

// NewDashboard sestaví stránku. store může být nil (nic se neukládá).
func NewDashboard(cfg Config, catalog *Catalog, store *viewstate.Store, logger *slog.Logger) *Dashboard {
	sess := session.New(logger)
	d := &Dashboard{
		sess: sess,
		queue: notify.NewQueue(sess,
			notify.WithStore(store),
			notify.WithLogger(logger),
			notify.WithDefaultTTL(cfg.NotifyTTL)),
		charts: charts.NewRegistry(sess,
			charts.WithStore(store),
			charts.WithLogger(logger)),
		catalog:     catalog,
		logger:      logger,
		sidebarOpen: true,
	}
	d.redraw = debounce.New(func(struct{}) { d.Redraw() }, cfg.RedrawDebounce)
	d.viewport = debounce.New(d.applyViewport, cfg.ResizeDebounce)
	return d
}

// Session, Queue a Charts zpřístupňují komponenty stránky (handler, testy).
func (d *Dashboard) Session() *session.Session { return d.sess }
func (d *Dashboard) Queue() *notify.Queue      { return d.queue }
func (d *Dashboard) Charts() *charts.Registry  { return d.charts }
func (d *Dashboard) Catalog() *Catalog         { return d.catalog }

// RequestRedraw naplánuje překreslení. Dávka událostí vyvolá jediné překreslení.
func (d *Dashboard) RequestRedraw() {
	d.redraw.Call(struct{}{})
}

// Redraw postaví grafy podle aktuálního katalogu: přehled a jeden graf na kategorii.
// Grafy kategorií, které z katalogu zmizely, se zruší i s kontejnerem.
func (d *Dashboard) Redraw() {
	width := d.chartWidth()
	wanted := map[string]bool{OverviewChartID: true}

	d.sess.AddSurface(OverviewChartID, width, ChartHeight)
	if _, err := d.charts.CreateSensorTrendChart(OverviewChartID, d.catalog.Snapshot(nil),
		charts.WithTitle(charts.DefaultTrendTitle)); err != nil {
		d.logger.Error("Graf přehledu nelze vykreslit", "error", err)
	}

	for _, kind := range d.catalog.Kinds() {
		id := TrendChartID(kind)
		wanted[id] = true
		d.sess.AddSurface(id, width, ChartHeight)

		k := kind
		snap := d.catalog.Snapshot(func(s SensorDTO) bool { return s.Kind() == k })
		if _, err := d.charts.CreateSensorTrendChart(id, snap, charts.WithTitle(kindTitle(kind))); err != nil {
			d.logger.Error("Graf kategorie nelze vykreslit", "chart", id, "error", err)
		}
	}

	for _, id := range d.charts.IDs() {
		if !wanted[id] {
			d.charts.Dispose(id)
			d.sess.RemoveSurface(id)
		}
	}
	// Kontejnery mohly dostat novou šířku, engine je převzatý z minula.
	d.charts.ResizeAll()
}

// --- LAYOUT ---

// chartWidth spočítá šířku grafu z velikosti okna a stavu postranního panelu.
func (d *Dashboard) chartWidth() int {
	d.mu.Lock()
	open := d.sidebarOpen
	d.mu.Unlock()
	return contentWidth(d.sess.Window(), open)
}

func contentWidth(window session.Size, sidebarOpen bool) int {
	w := window.Width - ContentPadding
	if sidebarOpen {
		w -= SidebarWidth
	}
	if w < MinChartWidth {
		w = MinChartWidth
	}
	return w
}

// resizeSurfaces nastaví všem kontejnerům grafů šířku obsahu.
func (d *Dashboard) resizeSurfaces(width int) {
	for _, id := range d.charts.IDs() {
		if sf, ok := d.sess.Surface(id); ok {
			sf.SetSize(width, ChartHeight)
		}
	}
}

// RequestViewport zaznamená novou velikost okna prohlížeče.
// Při tažení okna chodí desítky událostí, grafy se přizpůsobí až po utichnutí.
func (d *Dashboard) RequestViewport(size session.Size) {
	d.viewport.Call(size)
}

func (d *Dashboard) applyViewport(size session.Size) {
	d.mu.Lock()
	open := d.sidebarOpen
	d.mu.Unlock()

	d.resizeSurfaces(contentWidth(size, open))
	// Posluchači registru grafů zavolají Resize na každém grafu.
	d.sess.ResizeWindow(size.Width, size.Height)
}

// SetSidebar otevře/zavře postranní panel. Okno se nemění, takže resize listenery nic
// nezachytí; grafy se přizpůsobí explicitně přes ResizeAll.
func (d *Dashboard) SetSidebar(open bool) {
	d.mu.Lock()
	changed := d.sidebarOpen != open
	d.sidebarOpen = open
	d.mu.Unlock()

	if !changed {
		return
	}
	d.resizeSurfaces(contentWidth(d.sess.Window(), open))
	d.charts.ResizeAll()
}

// SidebarOpen vrací stav postranního panelu.
func (d *Dashboard) SidebarOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sidebarOpen
}

// --- UDÁLOSTI ---

// HandleEvent zpracuje živé měření z MQTT.
func (d *Dashboard) HandleEvent(ev SensorEvent) {
	meta, ok := d.catalog.ApplyEvent(ev)
	if !ok {
		d.logger.Debug("Událost pro neznámý senzor", "sensor_id", ev.SensorID)
		return
	}
	if meta.OutOfLimits(ev.Value) {
		d.queue.Warning(fmt.Sprintf("%s: %s is outside limits", meta.Name, format.Value(&ev.Value, meta.Unit)), 0)
	}
	d.RequestRedraw()
}

// Refresh obnoví katalog a ohlásí výpadek nebo návrat API.
func (d *Dashboard) Refresh(ctx context.Context) error {
	err := d.catalog.LoadSensors(ctx)
	d.refreshResult(err)
	return err
}

// refreshResult přepne stav backendu a při změně zobrazí upozornění.
// Výpadek je klíčované upozornění bez TTL: když ho uživatel zavře, dál se neukazuje.
func (d *Dashboard) refreshResult(err error) {
	d.mu.Lock()
	wasDown := d.backendDown
	d.backendDown = err != nil
	d.mu.Unlock()

	switch {
	case err != nil && !wasDown:
		d.queue.ShowKeyed(alertBackend, "Backend unreachable, showing last known data", notify.SeverityError, -1)
	case err == nil && wasDown:
		d.queue.DismissKey(alertBackend)
		// Zavření platí jen pro tento výpadek, další se zase ukáže.
		d.queue.Forget(alertBackend)
		d.queue.Success("Backend reachable again", 0)
	}
	if err == nil {
		d.RequestRedraw()
	}
}

// StartAutoRefresh obnovuje katalog v intervalu, dokud ctx neskončí.
func (d *Dashboard) StartAutoRefresh(ctx context.Context, interval time.Duration) {
	d.catalog.StartAutoRefresh(ctx, interval, d.refreshResult)
}

// ConnectionLost je callback MQTT klienta při ztrátě spojení s brokerem.
func (d *Dashboard) ConnectionLost(err error) {
	d.mu.Lock()
	d.mqttLost = true
	d.mu.Unlock()

	d.logger.Warn("Spojení s MQTT brokerem ztraceno", "error", err)
	d.queue.ShowKeyed(alertMQTT, "Live updates interrupted, reconnecting", notify.SeverityWarning, -1)
}

// ConnectionRestored je callback po (opětovném) připojení k brokeru.
func (d *Dashboard) ConnectionRestored() {
	d.mu.Lock()
	wasLost := d.mqttLost
	d.mqttLost = false
	d.mu.Unlock()

	if !wasLost {
		return
	}
	d.queue.DismissKey(alertMQTT)
	// Po návratu spojení se klíč zapomene, další výpadek se zase ukáže.
	d.queue.Forget(alertMQTT)
	d.queue.Success("Live updates restored", 0)
}

// Close zastaví časovače a uvolní grafy i upozornění.
func (d *Dashboard) Close() {
	d.redraw.Stop()
	d.viewport.Stop()
	d.charts.Close()
	d.queue.Close()
}
