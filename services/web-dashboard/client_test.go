package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAPIClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/sensors":
			w.Write([]byte(`[{"id":5,"topic":"/msh/t1","name":"Living room","type":"Temperature","unit":"°C","current_value":21.5,"max_value":30},
				{"id":6,"topic":"/msh/h1","name":"Bath","type":"humidity","unit":"%","current_value":null}]`))
		case "/api/sensors/5/history":
			if r.URL.Query().Get("range") != "6h" {
				http.Error(w, "bad range", http.StatusBadRequest)
				return
			}
			w.Write([]byte(`[{"t":"2024-01-01T10:00:00Z","v":20.5},{"t":"2024-01-01T10:01:00Z","v":21}]`))
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL)
	ctx := context.Background()

	t.Run("sensors", func(t *testing.T) {
		list, err := c.GetSensors(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(list) != 2 || list[0].Kind() != "temperature" || list[1].CurrentValue != nil {
			t.Fatalf("unexpected sensors %+v", list)
		}
		if list[0].MinValue != nil || list[0].MaxValue == nil || !list[0].OutOfLimits(31) || list[0].OutOfLimits(-50) {
			t.Fatal("limits not decoded")
		}
	})

	t.Run("history", func(t *testing.T) {
		points, err := c.GetHistory(ctx, 5, "6h")
		if err != nil {
			t.Fatal(err)
		}
		want := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC).UnixMilli()
		if len(points) != 2 || points[0].Sample().Timestamp != want || *points[1].Sample().Value != 21 {
			t.Fatalf("unexpected points %+v", points)
		}
	})

	t.Run("error status", func(t *testing.T) {
		if _, err := c.GetHistory(ctx, 99, "24h"); err == nil {
			t.Fatal("expected error for 500")
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		dead := NewAPIClient("http://127.0.0.1:1")
		if _, err := dead.GetSensors(ctx); err == nil {
			t.Fatal("expected network error")
		}
	})
}
