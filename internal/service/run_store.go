package service

import (
	"sync"
	"time"

	"github.com/noah-isme/campus-scheduler/internal/dto"
)

type runRecord struct {
	response  dto.ScheduleRunResponse
	expiresAt time.Time
}

// runStore keeps async run results in memory until they expire.
type runStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]runRecord
}

func newRunStore(ttl time.Duration) *runStore {
	return &runStore{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]runRecord),
	}
}

func (s *runStore) Save(run dto.ScheduleRunResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, rec := range s.items {
		if now.After(rec.expiresAt) {
			delete(s.items, id)
		}
	}
	s.items[run.RunID] = runRecord{response: run, expiresAt: now.Add(s.ttl)}
}

func (s *runStore) Get(id string) (dto.ScheduleRunResponse, bool) {
	s.mu.RLock()
	rec, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return dto.ScheduleRunResponse{}, false
	}
	if s.now().After(rec.expiresAt) {
		s.Delete(id)
		return dto.ScheduleRunResponse{}, false
	}
	return rec.response, true
}

// Update applies fn to a stored run. It reports false when the run is gone.
func (s *runStore) Update(id string, fn func(*dto.ScheduleRunResponse)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[id]
	if !ok {
		return false
	}
	fn(&rec.response)
	s.items[id] = rec
	return true
}

func (s *runStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
