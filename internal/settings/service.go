package settings

import (
	"context"
	"sync"
	"time"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/shared/telemetry"
)

// Service caches the settings document behind a lock. Readers get a copy.
type Service struct {
	store store
	Now   func() time.Time

	mu      sync.RWMutex
	current Settings
}

// NewService constructs a Service with an in-memory store.
func NewService() *Service {
	return &Service{store: newMemoryStore(), current: Defaults()}
}

// NewPostgresService constructs a Service backed by Postgres.
func NewPostgresService(pgStore store) *Service {
	return &Service{store: pgStore, current: Defaults()}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Load reads the stored document into the cache. Defaults are used when
// nothing has been saved.
func (s *Service) Load(ctx context.Context) (Settings, error) {
	stored, found, err := s.store.Get(ctx)
	if err != nil {
		return Settings{}, err
	}
	if !found {
		stored = Defaults()
	}
	s.swap(stored)
	return clone(stored), nil
}

// Current returns the cached settings.
func (s *Service) Current() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.current)
}

// Save validates and persists next, then swaps it into the cache. A masked
// or empty SMTP password keeps the stored one.
func (s *Service) Save(ctx context.Context, userID string, next Settings) (Settings, error) {
	next, err := next.normalize()
	if err != nil {
		return Settings{}, err
	}
	if next.Email.Password == "" || next.Email.Password == passwordMask {
		next.Email.Password = s.Current().Email.Password
	}
	next.UpdatedBy = userID
	next.UpdatedAt = s.now()
	if err := s.store.Put(ctx, next); err != nil {
		return Settings{}, err
	}
	s.swap(next)
	telemetry.Info("settings.saved", map[string]any{"user_id": userID})
	return clone(next), nil
}

// Reset restores defaults.
func (s *Service) Reset(ctx context.Context, userID string) (Settings, error) {
	if err := s.store.Delete(ctx); err != nil {
		return Settings{}, err
	}
	def := Defaults()
	s.swap(def)
	telemetry.Info("settings.reset", map[string]any{"user_id": userID})
	return clone(def), nil
}

func (s *Service) swap(next Settings) {
	s.mu.Lock()
	s.current = clone(next)
	s.mu.Unlock()
}

func clone(s Settings) Settings {
	s.Email.Recipients = append([]string(nil), s.Email.Recipients...)
	s.Compliance.CompetitorNames = append([]string(nil), s.Compliance.CompetitorNames...)
	return s
}
