package charts

import (
	"encoding/json"
)

// Spec je popis grafu ve tvaru "option" objektu, který na stránce předáváme ECharts.
// Stejný popis umí vykreslit i serverový engine (SVG), takže graf funguje i bez JS.
type Spec struct {
	Title    Title        `json:"title"`
	Tooltip  Tooltip      `json:"tooltip"`
	Legend   Legend       `json:"legend"`
	Grid     Grid         `json:"grid"`
	XAxis    Axis         `json:"xAxis"`
	YAxis    Axis         `json:"yAxis"`
	DataZoom []DataZoom   `json:"dataZoom,omitempty"`
	Series   []LineSeries `json:"series"`

	BackgroundColor string `json:"backgroundColor,omitempty"`
}

// Clone vrací hlubokou kopii (handle ji vydává ven, engine si drží vlastní).
func (s Spec) Clone() Spec {
	out := s
	out.Legend.Data = append([]string(nil), s.Legend.Data...)
	out.DataZoom = append([]DataZoom(nil), s.DataZoom...)
	out.Series = make([]LineSeries, len(s.Series))
	for i, ls := range s.Series {
		ls.Data = append([]Point(nil), ls.Data...)
		out.Series[i] = ls
	}
	return out
}

// SeriesNames vrací jména řad v pořadí vykreslení.
func (s Spec) SeriesNames() []string {
	names := make([]string, 0, len(s.Series))
	for _, ls := range s.Series {
		names = append(names, ls.Name)
	}
	return names
}

type TextStyle struct {
	Color string `json:"color,omitempty"`
}

type Title struct {
	Text      string    `json:"text"`
	Left      string    `json:"left,omitempty"`
	TextStyle TextStyle `json:"textStyle"`
}

type Tooltip struct {
	Trigger         string    `json:"trigger"`
	BackgroundColor string    `json:"backgroundColor,omitempty"`
	BorderColor     string    `json:"borderColor,omitempty"`
	TextStyle       TextStyle `json:"textStyle"`
}

type Legend struct {
	Data      []string  `json:"data"`
	Top       string    `json:"top,omitempty"`
	TextStyle TextStyle `json:"textStyle"`
}

type Grid struct {
	Left         string `json:"left"`
	Right        string `json:"right"`
	Bottom       string `json:"bottom"`
	ContainLabel bool   `json:"containLabel"`
}

type LineStyle struct {
	Color string `json:"color,omitempty"`
	Width int    `json:"width,omitempty"`
}

type SplitLine struct {
	LineStyle LineStyle `json:"lineStyle"`
}

// Axis: Type je "time" (osa X) nebo "value" (osa Y).
type Axis struct {
	Type      string    `json:"type"`
	Name      string    `json:"name,omitempty"`
	AxisLine  SplitLine `json:"axisLine"`
	AxisLabel TextStyle `json:"axisLabel"`
	SplitLine SplitLine `json:"splitLine"`
}

// DataZoom je výřez osy X v procentech (0-100).
type DataZoom struct {
	Type  string  `json:"type"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type ItemStyle struct {
	Color string `json:"color,omitempty"`
}

// LineSeries je jedna čára grafu.
type LineSeries struct {
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Smooth     bool      `json:"smooth"`
	ShowSymbol bool      `json:"showSymbol"`
	ItemStyle  ItemStyle `json:"itemStyle"`
	Data       []Point   `json:"data"`
}

// Point je dvojice [čas v ms, hodnota]. Chybějící hodnota se zapíše jako null (mezera v čáře).
type Point struct {
	T int64
	V *float64
}

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{p.T, p.V})
}

func (p *Point) UnmarshalJSON(data []byte) error {
	var raw [2]*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw[0] != nil {
		p.T = int64(*raw[0])
	}
	p.V = raw[1]
	return nil
}
