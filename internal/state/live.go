package state

import (
	"sync"

	"github.com/pingdeck/pingdeck/internal/tower"
)

// LiveStore is the authoritative holder of push-sourced service status.
// It keeps exactly one current value per service id, never history.
// Writes come only from the push manager's read loop; everything else
// reads copied snapshots.
type LiveStore struct {
	mu      sync.RWMutex
	byID    map[string]tower.ServiceStatus
	order   []string
	version uint64
}

// NewLiveStore returns an empty live collection.
func NewLiveStore() *LiveStore {
	return &LiveStore{byID: make(map[string]tower.ServiceStatus)}
}

// ApplySnapshot replaces the whole collection with the given services.
// Ids absent from the snapshot are discarded; this is the only way an
// entry ever leaves the collection. Order follows the snapshot.
func (s *LiveStore) ApplySnapshot(services []tower.ServiceStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := make(map[string]tower.ServiceStatus, len(services))
	order := make([]string, 0, len(services))
	for _, svc := range services {
		if _, seen := byID[svc.ID]; !seen {
			order = append(order, svc.ID)
		}
		byID[svc.ID] = svc
	}
	s.byID = byID
	s.order = order
	s.version++
}

// ApplyUpdate upserts a single service. An update may be the first
// sighting of an id; existing entries are replaced in place without
// disturbing the order of the rest. Last write wins, no timestamp
// arbitration.
func (s *LiveStore) ApplyUpdate(service tower.ServiceStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[service.ID]; !ok {
		s.order = append(s.order, service.ID)
	}
	s.byID[service.ID] = service
	s.version++
}

// Services returns the collection as an order-stable copy.
func (s *LiveStore) Services() []tower.ServiceStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]tower.ServiceStatus, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Get returns the current status for one id.
func (s *LiveStore) Get(id string) (tower.ServiceStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	svc, ok := s.byID[id]
	return svc, ok
}

// Len reports the number of live entries.
func (s *LiveStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Version increments on every applied message. The UI compares versions
// to skip redundant re-renders.
func (s *LiveStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}
