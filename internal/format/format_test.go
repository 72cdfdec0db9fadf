package format

import (
	"testing"
	"time"

	"telemetry-dashboard/internal/sensors"
)

func TestRelativeTimeBuckets(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}

	cases := []struct {
		name string
		ts   *time.Time
		want string
	}{
		{"nil", nil, NeverUpdated},
		{"zero", at(0), JustNow},
		{"future", at(-5 * time.Minute), JustNow},
		{"59.999s", at(time.Minute - time.Millisecond), JustNow},
		{"exactly 60s", at(time.Minute), "1 minutes ago"},
		{"119s floors", at(119 * time.Second), "1 minutes ago"},
		{"59m59s", at(time.Hour - time.Second), "59 minutes ago"},
		{"exactly 1h", at(time.Hour), "1 hours ago"},
		{"23h59m", at(24*time.Hour - time.Minute), "23 hours ago"},
		{"exactly 24h", at(24 * time.Hour), "1 days ago"},
		{"47h", at(47 * time.Hour), "1 days ago"},
		{"10d", at(10 * 24 * time.Hour), "10 days ago"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RelativeTimeAt(tc.ts, now); got != tc.want {
				t.Fatalf("RelativeTimeAt = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRelativeTimeGranularityIsMonotonic(t *testing.T) {
	now := time.Now()
	rank := func(s string) int {
		switch {
		case s == JustNow:
			return 0
		case len(s) > 11 && s[len(s)-11:] == "minutes ago":
			return 1
		case len(s) > 9 && s[len(s)-9:] == "hours ago":
			return 2
		default:
			return 3
		}
	}
	prev := 0
	for d := time.Duration(0); d < 3*24*time.Hour; d += 17 * time.Second {
		ts := now.Add(-d)
		r := rank(RelativeTimeAt(&ts, now))
		if r < prev {
			t.Fatalf("granularity went back at %v", d)
		}
		prev = r
	}
}

func TestRelativeMillis(t *testing.T) {
	now := time.UnixMilli(10 * 60 * 1000)
	ms := int64(0)
	if got := RelativeMillis(&ms, now); got != "10 minutes ago" {
		t.Fatalf("got %q", got)
	}
	if got := RelativeMillis(nil, now); got != NeverUpdated {
		t.Fatalf("got %q", got)
	}
}

func TestValue(t *testing.T) {
	if got := Value(nil, "C"); got != "--" {
		t.Errorf("Value(nil) = %q", got)
	}
	if got := Value(sensors.Float(5), "C"); got != "5 C" {
		t.Errorf("Value(5, C) = %q", got)
	}
	if got := Value(sensors.Float(5), ""); got != "5 " {
		t.Errorf("Value(5) = %q", got)
	}
	if got := Value(sensors.Float(21.5), "°C"); got != "21.5 °C" {
		t.Errorf("Value(21.5) = %q", got)
	}
}

func TestIconForIsTotal(t *testing.T) {
	known := map[sensors.Kind]string{
		sensors.KindTemperature: "fa-thermometer-half",
		sensors.KindHumidity:    "fa-tint",
		sensors.KindLight:       "fa-sun",
		sensors.KindPressure:    "fa-tachometer-alt",
		sensors.KindCamera:      "fa-camera",
	}
	for kind, want := range known {
		if got := IconFor(kind); got != want {
			t.Errorf("IconFor(%s) = %q, want %q", kind, got, want)
		}
	}
	for _, kind := range []sensors.Kind{sensors.KindOther, "", "motion"} {
		if got := IconFor(kind); got != "fa-microchip" {
			t.Errorf("IconFor(%q) = %q, want fallback", kind, got)
		}
	}
	if ColorFor("nonsense") == "" || UnitFor(sensors.KindHumidity) != "%" {
		t.Error("colour/unit tables broken")
	}
}
