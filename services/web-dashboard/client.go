package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"telemetry-dashboard/internal/sensors"
)

// --- DATOVÉ MODELY (DTO) ---
// Tyto struktury definují formát JSON dat, která nám vrací Home API.
// Musí přesně odpovídat tomu, co API posílá.

// SensorDTO reprezentuje jeden senzor v seznamu.
type SensorDTO struct {
	ID    int64  `json:"id"`
	Topic string `json:"topic"`
	Name  string `json:"name"` // Friendly name (např. "Teplota Obývák")
	Type  string `json:"type"` // Typ (např. "temperature")
	Unit  string `json:"unit"` // Jednotka (např. "°C")

	// CurrentValue je pointer, protože senzor ještě nemusel nic poslat (null).
	CurrentValue *float64 `json:"current_value"`

	// Limity typu senzoru. API je posílá jen tehdy, když jsou v DB nastavené.
	MinValue *float64 `json:"min_value,omitempty"`
	MaxValue *float64 `json:"max_value,omitempty"`
}

// Kind vrací kategorii senzoru pro UI.
func (s SensorDTO) Kind() sensors.Kind {
	return sensors.ParseKind(s.Type)
}

// Key je id senzoru jako řetězec (klíč ve snímku pro grafy).
func (s SensorDTO) Key() string {
	return strconv.FormatInt(s.ID, 10)
}

// OutOfLimits hlásí, zda hodnota překročila limity typu senzoru.
func (s SensorDTO) OutOfLimits(v float64) bool {
	return (s.MinValue != nil && v < *s.MinValue) || (s.MaxValue != nil && v > *s.MaxValue)
}

// HistoryPoint reprezentuje jeden bod v grafu (čas a hodnota).
type HistoryPoint struct {
	Time  time.Time `json:"t"`
	Value float64   `json:"v"`
}

// Sample převede bod z API na vzorek časové řady (epoch ms).
func (p HistoryPoint) Sample() sensors.Sample {
	return sensors.Sample{Timestamp: p.Time.UnixMilli(), Value: sensors.Float(p.Value)}
}

// SensorSource je to, co Catalog potřebuje od backendu. APIClient ho implementuje,
// testy si dosadí vlastní náhradu.
type SensorSource interface {
	GetSensors(ctx context.Context) ([]SensorDTO, error)
	GetHistory(ctx context.Context, sensorID int64, rangeStr string) ([]HistoryPoint, error)
}

// APIClient zapouzdřuje logiku HTTP volání na backend.
type APIClient struct {
	BaseURL    string
	httpClient *http.Client
}

// NewAPIClient vytváří instanci klienta. Timeout je povinný, defaultní http.Client žádný nemá.
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		BaseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// GetSensors zavolá endpoint GET /api/sensors a vrátí seznam objektů.
func (c *APIClient) GetSensors(ctx context.Context) ([]SensorDTO, error) {
	var sensors []SensorDTO
	if err := c.getJSON(ctx, c.BaseURL+"/api/sensors", &sensors); err != nil {
		return nil, err
	}
	return sensors, nil
}

// GetHistory zavolá endpoint GET /api/sensors/{id}/history
func (c *APIClient) GetHistory(ctx context.Context, sensorID int64, rangeStr string) ([]HistoryPoint, error) {
	u := fmt.Sprintf("%s/api/sensors/%d/history?range=%s", c.BaseURL, sensorID, url.QueryEscape(rangeStr))

	var points []HistoryPoint
	if err := c.getJSON(ctx, u, &points); err != nil {
		return nil, err
	}
	return points, nil
}

// getJSON provede GET, zkontroluje status a dekóduje JSON přímo ze streamu.
func (c *APIClient) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("neplatný požadavek: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("chyba sítě při volání API: %w", err)
	}
	// Body musíme vždy zavřít, jinak tečou file descriptory.
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API vrátilo chybný status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("chyba při parsování JSONu: %w", err)
	}
	return nil
}
