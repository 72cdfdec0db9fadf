package viewstate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// --- PAMĚŤ ---

// MemoryBackend drží data jen v RAM procesu. Pro testy a lokální vývoj (STORE_BACKEND=memory).
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte

	// FailWrites simuluje plné/nedostupné médium.
	FailWrites bool
}

// NewMemoryBackend vytvoří prázdné paměťové médium.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

func (m *MemoryBackend) Read(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryBackend) Write(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrites {
		return errors.New("memory backend: quota exceeded")
	}
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Put zapíše surový text mimo Store (testy poškozených dat, "externí" zásah).
func (m *MemoryBackend) Put(key string, raw []byte) {
	m.mu.Lock()
	m.data[key] = raw
	m.mu.Unlock()
}

// --- VALKEY / REDIS ---

// RedisBackend ukládá stav do Valkey/Redis pod prefixem "viewstate:".
// Na rozdíl od live hodnot senzorů ("sensor:last:<id>", 24h expirace) zde expirace není.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisBackend vytvoří médium nad existujícím klientem.
func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client, prefix: "viewstate:"}
}

func (r *RedisBackend) Read(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return val, nil
}

func (r *RedisBackend) Write(ctx context.Context, key string, data []byte) error {
	// Expirace 0 = bez TTL.
	if err := r.client.Set(ctx, r.prefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// --- POSTGRES / TIMESCALEDB ---

// PostgresBackend ukládá stav do tabulky view_state ve stejné DB jako historie měření.
// Hodnotu držíme jako text (ne jsonb), aby se vrátila přesně tak, jak byla zapsána.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// NewPostgresBackend vytvoří médium a zajistí existenci tabulky.
func NewPostgresBackend(ctx context.Context, pool *pgxpool.Pool) (*PostgresBackend, error) {
	query := `
		CREATE TABLE IF NOT EXISTS view_state (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`
	if _, err := pool.Exec(ctx, query); err != nil {
		return nil, fmt.Errorf("nelze vytvořit tabulku view_state: %w", err)
	}
	return &PostgresBackend{pool: pool}, nil
}

func (p *PostgresBackend) Read(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := p.pool.QueryRow(ctx, `SELECT value FROM view_state WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select view_state: %w", err)
	}
	return []byte(value), nil
}

func (p *PostgresBackend) Write(ctx context.Context, key string, data []byte) error {
	// UPSERT: přepisujeme stále dokola poslední stav.
	query := `
		INSERT INTO view_state (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	if _, err := p.pool.Exec(ctx, query, key, string(data)); err != nil {
		return fmt.Errorf("upsert view_state: %w", err)
	}
	return nil
}

func (p *PostgresBackend) Delete(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM view_state WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete view_state: %w", err)
	}
	return nil
}
