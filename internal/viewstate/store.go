// Package viewstate je trvalé úložiště "klíč -> JSON hodnota" pro stav zobrazení dashboardu
// (poslední zoom grafu, odmítnutá upozornění...). Přežije restart i obnovení stránky.
//
// Úložiště nikdy nepanikaří a nevrací chyby nahoru: výsledek operace je Status,
// takže volající rozliší "klíč neexistuje" od "zápis selhal". Data nejsou šifrovaná,
// nepatří sem tajemství. Žádné TTL ani vyřazování, hodnota platí do přepsání.
package viewstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrNotFound vrací Backend, pokud klíč neexistuje.
var ErrNotFound = errors.New("viewstate: klíč neexistuje")

// Backend je fyzické médium (paměť, Redis/Valkey, Postgres).
// Pracuje už jen se serializovaným textem.
type Backend interface {
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Status popisuje výsledek operace nad úložištěm.
type Status int

const (
	StatusOK Status = iota
	StatusNotFound
	StatusSerialization // hodnotu nejde převést do JSON (Set)
	StatusWrite         // médium zápis odmítlo (plné, nedostupné)
	StatusRead          // médium selhalo při čtení
	StatusCorrupt       // uložený text není platný JSON pro požadovaný typ
)

// OK je booleovská podoba výsledku (původní kontrakt set() -> true/false).
func (s Status) OK() bool { return s == StatusOK }

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotFound:
		return "not_found"
	case StatusSerialization:
		return "serialization_failed"
	case StatusWrite:
		return "write_failed"
	case StatusRead:
		return "read_failed"
	case StatusCorrupt:
		return "corrupt"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Store zapouzdřuje Backend, serializaci a logování chyb.
type Store struct {
	backend Backend
	logger  *slog.Logger

	// timeout: ochrana proti "visícímu" médiu (síťový Redis/Postgres).
	timeout time.Duration
}

// Option upravuje Store při vytvoření.
type Option func(*Store)

// WithLogger nastaví logger pro diagnostiku selhání.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithTimeout nastaví limit pro jednu operaci nad médiem.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// New vytvoří Store nad daným médiem.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  slog.Default(),
		timeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Set serializuje hodnotu a zapíše ji pod klíč.
// Pokud serializace selže, na médium se nic nezapíše a předchozí hodnota zůstává.
func (s *Store) Set(ctx context.Context, key string, value any) Status {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("viewstate: hodnotu nelze serializovat", "key", key, "error", err)
		return StatusSerialization
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if err := s.backend.Write(ctx, key, data); err != nil {
		s.logger.Warn("viewstate: zápis selhal", "key", key, "error", err)
		return StatusWrite
	}
	return StatusOK
}

// Delete odstraní klíč. Neexistující klíč není chyba.
func (s *Store) Delete(ctx context.Context, key string) Status {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if err := s.backend.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Warn("viewstate: mazání selhalo", "key", key, "error", err)
		return StatusWrite
	}
	return StatusOK
}

// raw načte surová data a přeloží chyby média na Status.
func (s *Store) raw(ctx context.Context, key string) ([]byte, Status) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	data, err := s.backend.Read(ctx, key)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil, StatusNotFound
	case err != nil:
		s.logger.Warn("viewstate: čtení selhalo", "key", key, "error", err)
		return nil, StatusRead
	}
	return data, StatusOK
}

// Lookup načte a deserializuje hodnotu pod klíčem.
// Při jakémkoliv neúspěchu vrací nulovou hodnotu T a Status s důvodem.
func Lookup[T any](ctx context.Context, s *Store, key string) (T, Status) {
	var out T
	if s == nil {
		return out, StatusRead
	}
	data, st := s.raw(ctx, key)
	if st != StatusOK {
		return out, st
	}
	if err := json.Unmarshal(data, &out); err != nil {
		s.logger.Warn("viewstate: uložená data nejsou platný JSON", "key", key, "error", err)
		var zero T
		return zero, StatusCorrupt
	}
	return out, StatusOK
}

// Get vrací uloženou hodnotu, nebo def, pokud klíč chybí nebo čtení/parsování selže.
func Get[T any](ctx context.Context, s *Store, key string, def T) T {
	v, st := Lookup[T](ctx, s, key)
	if st != StatusOK {
		return def
	}
	return v
}

// Klíče sdílené mezi komponentami. Verzování schématu je na volajícím.
const (
	zoomKeyPrefix = "lastChartZoom:"
	DismissedKey  = "dismissedAlerts"
)

// ZoomKey vrací klíč pro poslední zoom daného grafu.
func ZoomKey(chartID string) string {
	return zoomKeyPrefix + chartID
}
