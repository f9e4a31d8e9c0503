package cache

import (
	"sync"
	"time"

	"github.com/fakhrymubarak/weather-forward/internal/adcode"
	"github.com/fakhrymubarak/weather-forward/internal/model"
)

// Key identifies one cached payload. Both modes share a single namespace.
type Key struct {
	Mode model.Mode
	Code adcode.Code
}

// Entry is replaced wholesale on refresh and never mutated in place.
type Entry struct {
	FetchedAt time.Time
	Payload   model.NormalizedWeather
}

// ModeStatus describes the cache slot of one mode for a region.
// ExpiresInSeconds goes negative once the entry is stale but not yet replaced.
type ModeStatus struct {
	Cached           bool
	AgeSeconds       int
	ExpiresInSeconds int
}

type Status struct {
	Code       adcode.Code
	Current    ModeStatus
	Forecast   ModeStatus
	TotalItems int
}

// Store is the process-local weather cache.
type Store interface {
	Get(key Key, now time.Time) (model.NormalizedWeather, bool)
	Put(key Key, now time.Time, payload model.NormalizedWeather)
	Invalidate(code adcode.Code) int
	Status(code adcode.Code, now time.Time) Status
	Sweep(now time.Time) int
	Len() int
	TTL() time.Duration
}

// MemoryStore is a concurrency-safe in-memory Store with a single TTL.
// Expiry is evaluated when entries are read; stale entries stay until
// overwritten, invalidated or swept.
type MemoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[Key]Entry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[Key]Entry),
	}
}

func (s *MemoryStore) Get(key Key, now time.Time) (model.NormalizedWeather, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok || now.Sub(e.FetchedAt) >= s.ttl {
		return nil, false
	}
	return e.Payload, true
}

func (s *MemoryStore) Put(key Key, now time.Time, payload model.NormalizedWeather) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = Entry{FetchedAt: now, Payload: payload}
}

// Invalidate drops both modes for code and returns how many entries existed.
func (s *MemoryStore) Invalidate(code adcode.Code) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, mode := range []model.Mode{model.ModeCurrent, model.ModeForecast} {
		key := Key{Mode: mode, Code: code}
		if _, ok := s.entries[key]; ok {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) Status(code adcode.Code, now time.Time) Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		Code:       code,
		Current:    s.modeStatus(Key{Mode: model.ModeCurrent, Code: code}, now),
		Forecast:   s.modeStatus(Key{Mode: model.ModeForecast, Code: code}, now),
		TotalItems: len(s.entries),
	}
}

// modeStatus expects s.mu to be held.
func (s *MemoryStore) modeStatus(key Key, now time.Time) ModeStatus {
	e, ok := s.entries[key]
	if !ok {
		return ModeStatus{}
	}
	age := now.Sub(e.FetchedAt)
	return ModeStatus{
		Cached:           true,
		AgeSeconds:       int(age / time.Second),
		ExpiresInSeconds: int((s.ttl - age) / time.Second),
	}
}

// Sweep removes entries that are no longer fresh and returns how many were dropped.
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.entries {
		if now.Sub(e.FetchedAt) >= s.ttl {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) TTL() time.Duration {
	return s.ttl
}
