package charts

import (
	"telemetry-dashboard/internal/format"
	"telemetry-dashboard/internal/sensors"
)

// Theme určuje barvy grafu. Výchozí téma jen odkazuje na CSS proměnné stránky,
// jejich hodnoty definuje šablona (světlý/tmavý režim), ne tento kód.
type Theme struct {
	Text       string
	Background string
	Border     string
	Grid       string
}

// DefaultTheme vrací téma napojené na CSS proměnné.
func DefaultTheme() Theme {
	return Theme{
		Text:       "var(--text-color)",
		Background: "var(--card-bg)",
		Border:     "var(--border-color)",
		Grid:       "var(--grid-color)",
	}
}

// TrendOption upravuje graf trendu.
type TrendOption func(*trendConfig)

type trendConfig struct {
	title string
}

// WithTitle nastaví nadpis grafu.
func WithTitle(title string) TrendOption {
	return func(c *trendConfig) { c.title = title }
}

// DefaultTrendTitle je nadpis, pokud volající žádný neurčí.
const DefaultTrendTitle = "Sensor trends"

// BuildTrendSpec sestaví popis časového grafu: jedna vyhlazená čára na senzor.
// Senzory s prázdnou historií se tiše přeskočí. Pořadí čar = pořadí ve snímku.
func BuildTrendSpec(snap *sensors.Snapshot, theme Theme, opts ...TrendOption) Spec {
	cfg := trendConfig{title: DefaultTrendTitle}
	for _, opt := range opts {
		opt(&cfg)
	}

	spec := Spec{
		Title: Title{Text: cfg.title, Left: "center", TextStyle: TextStyle{Color: theme.Text}},
		Tooltip: Tooltip{
			Trigger:         "axis",
			BackgroundColor: theme.Background,
			BorderColor:     theme.Border,
			TextStyle:       TextStyle{Color: theme.Text},
		},
		Legend: Legend{Data: []string{}, Top: "bottom", TextStyle: TextStyle{Color: theme.Text}},
		Grid:   Grid{Left: "3%", Right: "4%", Bottom: "12%", ContainLabel: true},
		XAxis: Axis{
			Type:      "time",
			AxisLine:  SplitLine{LineStyle: LineStyle{Color: theme.Border}},
			AxisLabel: TextStyle{Color: theme.Text},
		},
		YAxis: Axis{
			Type:      "value",
			AxisLine:  SplitLine{LineStyle: LineStyle{Color: theme.Border}},
			AxisLabel: TextStyle{Color: theme.Text},
			SplitLine: SplitLine{LineStyle: LineStyle{Color: theme.Grid}},
		},
		Series:          []LineSeries{},
		BackgroundColor: "transparent",
	}

	units := map[string]struct{}{}
	snap.Each(func(id string, s sensors.Series) bool {
		if len(s.History) == 0 {
			return true
		}
		name := s.Name
		if name == "" {
			name = id
		}
		unit := s.Unit
		if unit == "" {
			unit = format.UnitFor(s.Kind)
		}
		units[unit] = struct{}{}

		points := s.Points()
		data := make([]Point, 0, len(points))
		for _, p := range points {
			data = append(data, Point{T: p.Timestamp, V: p.Value})
		}

		spec.Series = append(spec.Series, LineSeries{
			Name:      name,
			Type:      "line",
			Smooth:    true,
			ItemStyle: ItemStyle{Color: format.ColorFor(s.Kind)},
			Data:      data,
		})
		spec.Legend.Data = append(spec.Legend.Data, name)
		return true
	})

	// Jednotku na osu Y dáme jen tehdy, když ji sdílí všechny čáry.
	if len(units) == 1 {
		for u := range units {
			spec.YAxis.Name = u
		}
	}
	return spec
}
