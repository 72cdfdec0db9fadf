// Package format převádí surové hodnoty senzorů a časové značky na texty pro UI.
// Všechny funkce jsou čisté (bez stavu) a totální: pro žádný vstup nevrací chybu.
package format

import (
	"strconv"
	"time"

	"telemetry-dashboard/internal/sensors"
)

// Sentinely pro chybějící data.
const (
	NeverUpdated = "never updated"
	NoValue      = "--"
	JustNow      = "just now"
)

// RelativeTime vrací "před kolika" vůči aktuálnímu času.
func RelativeTime(ts *time.Time) string {
	return RelativeTimeAt(ts, time.Now())
}

// RelativeTimeAt je deterministická varianta RelativeTime (čas "teď" dodá volající).
//
// Hranice patří vždy do vyššího koše: přesně 60 s je už "1 minutes ago".
// Počty jednotek se zaokrouhlují dolů (celočíselné dělení durací).
func RelativeTimeAt(ts *time.Time, now time.Time) string {
	if ts == nil {
		return NeverUpdated
	}
	elapsed := now.Sub(*ts)

	switch {
	case elapsed < time.Minute:
		// Sem spadají i časy v budoucnosti (rozjeté hodiny senzoru).
		return JustNow
	case elapsed < time.Hour:
		return strconv.FormatInt(int64(elapsed/time.Minute), 10) + " minutes ago"
	case elapsed < 24*time.Hour:
		return strconv.FormatInt(int64(elapsed/time.Hour), 10) + " hours ago"
	default:
		return strconv.FormatInt(int64(elapsed/(24*time.Hour)), 10) + " days ago"
	}
}

// RelativeMillis je varianta pro epoch milisekundy, ve kterých posílá časy backend.
func RelativeMillis(ms *int64, now time.Time) string {
	if ms == nil {
		return NeverUpdated
	}
	ts := time.UnixMilli(*ms)
	return RelativeTimeAt(&ts, now)
}

// Value spojí hodnotu a jednotku mezerou. Chybějící hodnota je "--" (jednotka se ignoruje).
// Číslo se píše v nejkratším přesném tvaru: 5 -> "5", 21.5 -> "21.5".
func Value(v *float64, unit string) string {
	if v == nil {
		return NoValue
	}
	return strconv.FormatFloat(*v, 'f', -1, 64) + " " + unit
}

// kindStyle drží statické údaje o typu senzoru pro UI.
type kindStyle struct {
	icon  string
	color string
	unit  string
}

// Tabulka odpovídá ikonám Font Awesome, které používá šablona stránky.
var kindStyles = map[sensors.Kind]kindStyle{
	sensors.KindTemperature: {icon: "fa-thermometer-half", color: "#e74c3c", unit: "°C"},
	sensors.KindHumidity:    {icon: "fa-tint", color: "#3498db", unit: "%"},
	sensors.KindLight:       {icon: "fa-sun", color: "#f39c12", unit: "lux"},
	sensors.KindPressure:    {icon: "fa-tachometer-alt", color: "#9b59b6", unit: "hPa"},
	sensors.KindCamera:      {icon: "fa-camera", color: "#2ecc71", unit: "image"},
}

var fallbackStyle = kindStyle{icon: "fa-microchip", color: "#95a5a6", unit: ""}

func styleFor(kind sensors.Kind) kindStyle {
	if st, ok := kindStyles[kind]; ok {
		return st
	}
	return fallbackStyle
}

// IconFor vrací CSS třídu ikony. Neznámý typ dostane obecnou ikonu čipu.
func IconFor(kind sensors.Kind) string {
	return styleFor(kind).icon
}

// ColorFor vrací akcentovou barvu typu (barva čáry v grafu).
func ColorFor(kind sensors.Kind) string {
	return styleFor(kind).color
}

// UnitFor vrací výchozí jednotku typu, pokud ji backend neposlal.
func UnitFor(kind sensors.Kind) string {
	return styleFor(kind).unit
}
