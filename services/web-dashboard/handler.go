package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"

	"telemetry-dashboard/internal/charts"
	"telemetry-dashboard/internal/format"
	"telemetry-dashboard/internal/sensors"
	"telemetry-dashboard/internal/session"
)

// WebHandler slouží jako "Controller". Připravuje data pro šablony a JSON API stránky.
type WebHandler struct {
	dash   *Dashboard
	logger *slog.Logger
	tmpl   *template.Template
	now    func() time.Time
}

// SensorCard je jedna karta senzoru na přehledu.
type SensorCard struct {
	ID      int64
	Name    string
	Kind    sensors.Kind
	Unit    string
	Value   *float64
	Updated *int64
}

// NewWebHandler načte šablony z templateDir a zaregistruje pomocné funkce.
func NewWebHandler(dash *Dashboard, templateDir string, logger *slog.Logger) (*WebHandler, error) {
	h := &WebHandler{dash: dash, logger: logger, now: time.Now}

	// FuncMap se musí zaregistrovat PŘED parsováním souborů, jinak šablony funkce neznají.
	funcMap := template.FuncMap{
		"value": format.Value,
		"ago": func(ms *int64) string {
			return format.RelativeMillis(ms, h.now())
		},
		"icon":  format.IconFor,
		"color": format.ColorFor,
		// Styly vkládané komponentami stránky (notify). Jsou to naše konstanty, ne vstup uživatele.
		"css": func(s string) template.CSS { return template.CSS(s) },
		"to_json": func(v any) template.JS {
			a, err := json.Marshal(v)
			if err != nil {
				// Při chybě vrátíme null, aby JS nespadl.
				return template.JS("null")
			}
			return template.JS(a)
		},
	}

	tmpl, err := template.New("base").Funcs(funcMap).ParseGlob(filepath.Join(templateDir, "*.html"))
	if err != nil {
		return nil, err
	}
	h.tmpl = tmpl
	return h, nil
}

// Routes vrátí router se všemi cestami stránky.
func (h *WebHandler) Routes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", h.HandleIndex).Methods(http.MethodGet)
	r.HandleFunc("/charts/{id}.svg", h.HandleChartSVG).Methods(http.MethodGet)

	// API cesty jsou přímo na hlavním routeru: subrouter z PathPrefix vrací při špatné
	// metodě 404 místo 405.
	r.HandleFunc("/api/charts", h.HandleChartList).Methods(http.MethodGet)
	r.HandleFunc("/api/charts/{id}", h.HandleChartSpec).Methods(http.MethodGet)
	r.HandleFunc("/api/charts/{id}/zoom", h.HandleZoom).Methods(http.MethodPost)
	r.HandleFunc("/api/notifications", h.HandleNotifications).Methods(http.MethodGet)
	r.HandleFunc("/api/notifications/{id}/dismiss", h.HandleDismiss).Methods(http.MethodPost)
	r.HandleFunc("/api/viewport", h.HandleViewport).Methods(http.MethodPost)
	r.HandleFunc("/api/layout", h.HandleLayout).Methods(http.MethodPost)

	// Healthcheck pro Docker.
	r.HandleFunc("/health", h.HandleHealth).Methods(http.MethodGet)
	return r
}

// HandleIndex: Dashboard (karty senzorů, grafy, upozornění)
func (h *WebHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	cat := h.dash.Catalog()
	list := cat.Sensors()
	cards := make([]SensorCard, 0, len(list))
	for _, s := range list {
		cards = append(cards, SensorCard{
			ID:      s.ID,
			Name:    s.Name,
			Kind:    s.Kind(),
			Unit:    s.Unit,
			Value:   s.CurrentValue,
			Updated: cat.LastUpdate(s.ID),
		})
	}

	specs := make(map[string]charts.Spec)
	ids := h.dash.Charts().IDs()
	for _, id := range ids {
		if ch, ok := h.dash.Charts().Handle(id); ok {
			specs[id] = ch.Spec()
		}
	}

	data := map[string]any{
		"Title":         "IoT Dashboard",
		"Cards":         cards,
		"ChartIDs":      ids,
		"ChartSpecs":    specs,
		"Notifications": h.dash.Queue().Entries(),
		"Styles":        h.dash.Session().Styles(),
		"SidebarOpen":   h.dash.SidebarOpen(),
	}

	// Renderujeme do bufferu: chyba v šabloně nesmí poslat klientovi půlku stránky.
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		h.logger.Error("Chyba renderování", "error", err)
		http.Error(w, "Chyba renderování", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

// HandleChartSVG: aktuální stav grafu jako obrázek
func (h *WebHandler) HandleChartSVG(w http.ResponseWriter, r *http.Request) {
	ch, ok := h.dash.Charts().Handle(mux.Vars(r)["id"])
	if !ok {
		http.NotFound(w, r)
		return
	}

	var buf bytes.Buffer
	if err := ch.Render(&buf); err != nil {
		h.logger.Error("Graf nelze vykreslit", "chart", ch.ID(), "error", err)
		http.Error(w, "Graf nelze vykreslit", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	buf.WriteTo(w)
}

// HandleChartList: id grafů v pořadí stránky
func (h *WebHandler) HandleChartList(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.dash.Charts().IDs())
}

// HandleChartSpec: popis grafu pro klientskou knihovnu
func (h *WebHandler) HandleChartSpec(w http.ResponseWriter, r *http.Request) {
	ch, ok := h.dash.Charts().Handle(mux.Vars(r)["id"])
	if !ok {
		http.NotFound(w, r)
		return
	}
	h.writeJSON(w, http.StatusOK, ch.Spec())
}

// HandleZoom: uživatel změnil výřez grafu, uložíme ho pro příští návštěvu
func (h *WebHandler) HandleZoom(w http.ResponseWriter, r *http.Request) {
	var z charts.Zoom
	if err := json.NewDecoder(r.Body).Decode(&z); err != nil {
		http.Error(w, "Neplatný JSON", http.StatusBadRequest)
		return
	}

	err := h.dash.Charts().SetZoom(mux.Vars(r)["id"], z)
	switch {
	case errors.Is(err, charts.ErrUnknownChart):
		http.NotFound(w, r)
	case errors.Is(err, charts.ErrInvalidZoom):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case err != nil:
		h.logger.Error("Výřez nelze nastavit", "error", err)
		http.Error(w, "Chyba", http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleNotifications: viditelná upozornění (nejstarší první)
func (h *WebHandler) HandleNotifications(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.dash.Queue().Entries())
}

// HandleDismiss: uživatel zavřel upozornění křížkem
func (h *WebHandler) HandleDismiss(w http.ResponseWriter, r *http.Request) {
	n, ok := h.dash.Queue().Lookup(mux.Vars(r)["id"])
	if !ok {
		http.NotFound(w, r)
		return
	}
	n.Dismiss()
	w.WriteHeader(http.StatusNoContent)
}

// HandleViewport: prohlížeč hlásí velikost okna (posílá ho při každé resize události)
func (h *WebHandler) HandleViewport(w http.ResponseWriter, r *http.Request) {
	var size session.Size
	if err := json.NewDecoder(r.Body).Decode(&size); err != nil || size.Width <= 0 || size.Height <= 0 {
		http.Error(w, "Neplatná velikost okna", http.StatusBadRequest)
		return
	}
	h.dash.RequestViewport(size)
	w.WriteHeader(http.StatusAccepted)
}

// layoutRequest je tělo POST /api/layout.
type layoutRequest struct {
	Sidebar bool `json:"sidebar"`
}

// HandleLayout: přepnutí postranního panelu
func (h *WebHandler) HandleLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Neplatný JSON", http.StatusBadRequest)
		return
	}
	h.dash.SetSidebar(req.Sidebar)
	w.WriteHeader(http.StatusNoContent)
}

// HandleHealth: stav služby
func (h *WebHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, CollectHealth(h.dash))
}

func (h *WebHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Chyba zápisu JSON odpovědi", "error", err)
	}
}
