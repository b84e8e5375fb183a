package settings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
)

const globalID = "global"

type store interface {
	// Get returns found=false when nothing has been saved yet.
	Get(ctx context.Context) (Settings, bool, error)
	Put(ctx context.Context, s Settings) error
	Delete(ctx context.Context) error
}

type memoryStore struct {
	mu    sync.Mutex
	value *Settings
}

func newMemoryStore() *memoryStore {
	return &memoryStore{}
}

func (m *memoryStore) Get(ctx context.Context) (Settings, bool, error) {
	if err := ctx.Err(); err != nil {
		return Settings{}, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.value == nil {
		return Settings{}, false, nil
	}
	return *m.value, true, nil
}

func (m *memoryStore) Put(ctx context.Context, s Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = &s
	return nil
}

func (m *memoryStore) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = nil
	return nil
}

type pgStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed settings store.
func NewPGStore(db *sql.DB) *pgStore {
	return &pgStore{DB: db}
}

func (p *pgStore) Get(ctx context.Context) (Settings, bool, error) {
	var payload []byte
	err := p.DB.QueryRowContext(ctx, `SELECT payload FROM system_settings WHERE id = $1`, globalID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Settings{}, false, nil
		}
		return Settings{}, false, err
	}
	s := Defaults()
	if err := json.Unmarshal(payload, &s); err != nil {
		return Settings{}, false, err
	}
	return s, true, nil
}

func (p *pgStore) Put(ctx context.Context, s Settings) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = p.DB.ExecContext(ctx, `
INSERT INTO system_settings (id, payload, updated_by, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`,
		globalID, payload, s.UpdatedBy, s.UpdatedAt)
	return err
}

func (p *pgStore) Delete(ctx context.Context) error {
	_, err := p.DB.ExecContext(ctx, `DELETE FROM system_settings WHERE id = $1`, globalID)
	return err
}
