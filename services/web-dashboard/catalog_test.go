package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"telemetry-dashboard/internal/sensors"
)

// fakeSource nahrazuje Home API.
type fakeSource struct {
	mu         sync.Mutex
	sensors    []SensorDTO
	history    map[int64][]HistoryPoint
	failList   bool
	failSensor int64
}

func (f *fakeSource) GetSensors(context.Context) ([]SensorDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failList {
		return nil, errors.New("connection refused")
	}
	return append([]SensorDTO(nil), f.sensors...), nil
}

func (f *fakeSource) GetHistory(_ context.Context, id int64, _ string) ([]HistoryPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id == f.failSensor {
		return nil, errors.New("timeout")
	}
	return f.history[id], nil
}

func (f *fakeSource) setFail(v bool) {
	f.mu.Lock()
	f.failList = v
	f.mu.Unlock()
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr(v float64) *float64 { return &v }

var t0 = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func newFakeSource() *fakeSource {
	return &fakeSource{
		sensors: []SensorDTO{
			{ID: 2, Name: "Bath", Type: "humidity", Unit: "%"},
			{ID: 1, Name: "Living room", Type: "temperature", Unit: "°C", CurrentValue: ptr(21), MaxValue: ptr(30)},
			{ID: 3, Name: "Garden", Type: "temperature", Unit: "°C"},
		},
		history: map[int64][]HistoryPoint{
			1: {{Time: t0, Value: 20}, {Time: t0.Add(time.Minute), Value: 21}},
			2: {{Time: t0, Value: 55}},
		},
	}
}

func TestCatalogLoadKeepsAPIOrder(t *testing.T) {
	src := newFakeSource()
	src.failSensor = 3
	c := NewCatalog(src, "24h", quietLogger())

	if err := c.LoadSensors(context.Background()); err != nil {
		t.Fatal(err)
	}

	snap := c.Snapshot(nil)
	ids := snap.IDs()
	if len(ids) != 3 || ids[0] != "2" || ids[1] != "1" || ids[2] != "3" {
		t.Fatalf("ids = %v", ids)
	}
	// Senzor s chybou historie zůstává, jen bez dat.
	if s, _ := snap.Get("3"); len(s.History) != 0 {
		t.Fatalf("garden history = %v", s.History)
	}
	if s, _ := snap.Get("1"); len(s.History) != 2 || s.Kind != sensors.KindTemperature || s.Unit != "°C" {
		t.Fatalf("living room = %+v", s)
	}

	kinds := c.Kinds()
	if len(kinds) != 2 || kinds[0] != sensors.KindTemperature || kinds[1] != sensors.KindHumidity {
		t.Fatalf("kinds = %v", kinds)
	}
	if c.LoadedAt().IsZero() {
		t.Fatal("LoadedAt not set")
	}
}

func TestCatalogFailedLoadKeepsOldData(t *testing.T) {
	src := newFakeSource()
	c := NewCatalog(src, "24h", quietLogger())
	c.LoadSensors(context.Background())

	src.setFail(true)
	if err := c.LoadSensors(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(c.Sensors()) != 3 {
		t.Fatal("old catalog must survive a failed refresh")
	}
}

func TestCatalogApplyEvent(t *testing.T) {
	c := NewCatalog(newFakeSource(), "24h", quietLogger())
	c.LoadSensors(context.Background())

	if _, ok := c.ApplyEvent(SensorEvent{SensorID: 42, Value: 1}); ok {
		t.Fatal("unknown sensor accepted")
	}

	meta, ok := c.ApplyEvent(SensorEvent{SensorID: 1, Value: 35, Timestamp: t0.Add(2 * time.Minute)})
	if !ok || *meta.CurrentValue != 35 || !meta.OutOfLimits(35) {
		t.Fatalf("meta = %+v", meta)
	}
	last := c.LastUpdate(1)
	if last == nil || *last != t0.Add(2*time.Minute).UnixMilli() {
		t.Fatalf("LastUpdate = %v", last)
	}
	if c.LastUpdate(3) != nil {
		t.Fatal("sensor without history must have no last update")
	}

	// Snímek je kopie: další událost ho nezmění.
	snap := c.Snapshot(func(s SensorDTO) bool { return s.ID == 1 })
	c.ApplyEvent(SensorEvent{SensorID: 1, Value: 22, Timestamp: t0.Add(3 * time.Minute)})
	if s, _ := snap.Get("1"); len(s.History) != 3 || snap.Len() != 1 {
		t.Fatalf("snapshot changed: %+v", s.History)
	}
}

func TestCatalogHistoryIsBounded(t *testing.T) {
	c := NewCatalog(newFakeSource(), "24h", quietLogger())
	c.maxPoints = 5
	c.LoadSensors(context.Background())

	for i := 0; i < 20; i++ {
		c.ApplyEvent(SensorEvent{SensorID: 2, Value: float64(i), Timestamp: t0.Add(time.Duration(i+1) * time.Second)})
	}
	s, _ := c.Snapshot(nil).Get("2")
	if len(s.History) != 5 || *s.History[4].Value != 19 || *s.History[0].Value != 15 {
		t.Fatalf("history = %d points", len(s.History))
	}
}

func TestCatalogLateEventKeepsHistoryOrdered(t *testing.T) {
	c := NewCatalog(newFakeSource(), "24h", quietLogger())
	c.LoadSensors(context.Background())

	c.ApplyEvent(SensorEvent{SensorID: 1, Value: 23, Timestamp: t0.Add(5 * time.Minute)})
	meta, ok := c.ApplyEvent(SensorEvent{SensorID: 1, Value: 19, Timestamp: t0.Add(30 * time.Second)})
	if !ok || *meta.CurrentValue != 23 {
		t.Fatalf("late event changed current value: %+v", meta.CurrentValue)
	}
	c.ApplyEvent(SensorEvent{SensorID: 1, Value: 22, Timestamp: t0.Add(time.Minute)})

	s, _ := c.Snapshot(nil).Get("1")
	for i := 1; i < len(s.History); i++ {
		if s.History[i].Timestamp < s.History[i-1].Timestamp {
			t.Fatalf("history out of order at %d: %+v", i, s.History)
		}
	}
	// Duplicitní čas: vyhrává poslední zápis.
	points := s.Points()
	if len(points) != 4 || *points[2].Value != 22 || *points[1].Value != 19 {
		t.Fatalf("points = %+v", points)
	}
	if last := c.LastUpdate(1); last == nil || *last != t0.Add(5*time.Minute).UnixMilli() {
		t.Fatalf("LastUpdate = %v", last)
	}
}
