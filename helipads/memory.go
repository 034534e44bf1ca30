package helipads

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps helipads in process. It is used when no database is
// configured.
type MemoryStore struct {
	mu     sync.RWMutex
	pads   []Helipad
	nextID int64
	now    func() time.Time
}

// NewMemoryStore returns a store holding seed, with ids assigned in order.
func NewMemoryStore(seed ...Helipad) *MemoryStore {
	s := &MemoryStore{nextID: 1, now: time.Now}
	for _, h := range seed {
		_, _ = s.Create(context.Background(), h)
	}
	return s
}

func (s *MemoryStore) List(_ context.Context) ([]Helipad, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Helipad, 0, len(s.pads))
	for _, h := range s.pads {
		out = append(out, clonePad(h))
	}
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id int64) (Helipad, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, h := range s.pads {
		if h.ID == id {
			return clonePad(h), nil
		}
	}
	return Helipad{}, ErrNotFound
}

func (s *MemoryStore) Create(_ context.Context, h Helipad) (Helipad, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h = clonePad(h)
	h.ID = s.nextID
	h.CreatedAt = s.now().UTC()
	s.nextID++
	s.pads = append(s.pads, h)
	return clonePad(h), nil
}

func (s *MemoryStore) Nearest(_ context.Context, lat, lon, maxNM float64) (Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := nearest(s.pads, lat, lon, maxNM)
	if !ok {
		return Match{}, ErrNotFound
	}
	m.Helipad = clonePad(m.Helipad)
	return m, nil
}

func clonePad(h Helipad) Helipad {
	h.Obstacles = h.Obstacles.Clone()
	if h.SurveyedOn != nil {
		t := *h.SurveyedOn
		h.SurveyedOn = &t
	}
	return h
}
