package charts

import (
	"fmt"
	"html"
	"io"
	"strings"
	"sync"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"telemetry-dashboard/internal/session"
)

// Engine je vykreslovací instance připojená ke kontejneru grafu (jedna na kontejner).
type Engine interface {
	// SetOption nahradí celý popis grafu.
	SetOption(spec Spec)
	// Resize přizpůsobí graf nové velikosti kontejneru.
	Resize(size session.Size)
	// Render zapíše aktuální stav grafu (SVG).
	Render(w io.Writer) error
	// Dispose uvolní instanci.
	Dispose()
}

// EngineFactory vytvoří engine pro kontejner.
type EngineFactory func(sf *session.Surface) Engine

// NewSVGEngine je výchozí engine: popis grafu vykresluje přes go-chart do SVG.
func NewSVGEngine(sf *session.Surface) Engine {
	return &svgEngine{size: sf.Size()}
}

type svgEngine struct {
	mu       sync.Mutex
	spec     Spec
	size     session.Size
	resizes  int
	disposed bool
}

func (e *svgEngine) SetOption(spec Spec) {
	e.mu.Lock()
	e.spec = spec.Clone()
	e.mu.Unlock()
}

func (e *svgEngine) Resize(size session.Size) {
	e.mu.Lock()
	e.size = size
	e.resizes++
	e.mu.Unlock()
}

func (e *svgEngine) Dispose() {
	e.mu.Lock()
	e.disposed = true
	e.mu.Unlock()
}

// Minimální rozměry, pod které go-chart nevykreslí osy.
const (
	minWidth  = 200
	minHeight = 120
)

func (e *svgEngine) Render(w io.Writer) error {
	e.mu.Lock()
	spec := e.spec.Clone()
	size := e.size
	disposed := e.disposed
	e.mu.Unlock()

	if disposed {
		return fmt.Errorf("charts: engine byl uvolněn")
	}
	if size.Width < minWidth {
		size.Width = minWidth
	}
	if size.Height < minHeight {
		size.Height = minHeight
	}

	series := goChartSeries(spec)
	if len(series) == 0 {
		// go-chart neumí graf bez dat ("invalid data range"), vykreslíme prázdnou plochu.
		return renderPlaceholder(w, spec.Title.Text, size)
	}

	graph := chart.Chart{
		Title:      spec.Title.Text,
		Width:      size.Width,
		Height:     size.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("02.01. 15:04"),
		},
		YAxis:  chart.YAxis{Name: spec.YAxis.Name},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.SVG, w); err != nil {
		return fmt.Errorf("charts: go-chart render: %w", err)
	}
	return nil
}

// goChartSeries převede čáry popisu na go-chart řady.
// null hodnoty se vynechají, výřez (DataZoom) se uplatní ořezem bodů.
func goChartSeries(spec Spec) []chart.Series {
	lo, hi := zoomWindow(spec)

	out := make([]chart.Series, 0, len(spec.Series))
	for _, ls := range spec.Series {
		xs := make([]time.Time, 0, len(ls.Data))
		ys := make([]float64, 0, len(ls.Data))
		for _, p := range ls.Data {
			if p.V == nil || p.T < lo || p.T > hi {
				continue
			}
			xs = append(xs, time.UnixMilli(p.T))
			ys = append(ys, *p.V)
		}
		if len(xs) == 0 {
			continue
		}
		if len(xs) == 1 {
			// Jeden bod: go-chart potřebuje aspoň dvě hodnoty X, doplníme bod o sekundu později.
			xs = append(xs, xs[0].Add(time.Second))
			ys = append(ys, ys[0])
		}
		out = append(out, chart.TimeSeries{
			Name:    ls.Name,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: parseColor(ls.ItemStyle.Color),
				StrokeWidth: 2,
			},
		})
	}
	return out
}

// zoomWindow přepočte procentní výřez na rozsah časů [lo, hi].
func zoomWindow(spec Spec) (int64, int64) {
	var minT, maxT int64
	first := true
	for _, ls := range spec.Series {
		for _, p := range ls.Data {
			if first || p.T < minT {
				minT = p.T
			}
			if first || p.T > maxT {
				maxT = p.T
			}
			first = false
		}
	}
	if first || len(spec.DataZoom) == 0 {
		return minT, maxT
	}
	z := spec.DataZoom[0]
	span := float64(maxT - minT)
	return minT + int64(span*z.Start/100), minT + int64(span*z.End/100)
}

// parseColor přijme jen hex barvu; CSS proměnné (var(--x)) server nezná, použije se výchozí šedá.
func parseColor(c string) drawing.Color {
	if strings.HasPrefix(c, "#") {
		return drawing.ColorFromHex(strings.TrimPrefix(c, "#"))
	}
	return chart.ColorAlternateGray
}

func renderPlaceholder(w io.Writer, title string, size session.Size) error {
	_, err := fmt.Fprintf(w,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><text x="50%%" y="30" text-anchor="middle">%s</text><text x="50%%" y="50%%" text-anchor="middle" fill="#95a5a6">no data</text></svg>`,
		size.Width, size.Height, html.EscapeString(title))
	return err
}
