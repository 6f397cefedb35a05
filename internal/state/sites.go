package state

import (
	"context"
	"fmt"
	"sync"

	"github.com/pingdeck/pingdeck/internal/tower"
)

// SitesSnapshot is an immutable view of the configuration cache.
type SitesSnapshot struct {
	Sites   []tower.SiteConfig
	Current *tower.SiteConfig
	Loading bool
	Error   string
}

// SiteStore manages the request/response lifecycle for site
// configuration, independently of the push channel. Every operation
// moves through pending -> fulfilled/rejected; the cached list is only
// mutated after a confirmed success, never speculatively. Concurrent
// operations share one Loading/Error pair; the last completion wins.
type SiteStore struct {
	client tower.ConfigAPI

	mu      sync.RWMutex
	sites   []tower.SiteConfig
	current *tower.SiteConfig
	loading bool
	lastErr string
}

// NewSiteStore builds a store around the given configuration API.
func NewSiteStore(client tower.ConfigAPI) *SiteStore {
	return &SiteStore{client: client}
}

// Fetch reloads the full site list, replacing the cache on success.
func (s *SiteStore) Fetch(ctx context.Context) error {
	s.begin()
	sites, err := s.client.ListSites(ctx)
	if err != nil {
		return s.reject("fetch sites", err)
	}

	s.mu.Lock()
	s.sites = sites
	s.loading = false
	s.mu.Unlock()
	return nil
}

// FetchByID loads one site and makes it the current selection.
func (s *SiteStore) FetchByID(ctx context.Context, id string) error {
	s.begin()
	site, err := s.client.GetSite(ctx, id)
	if err != nil {
		return s.reject("fetch site", err)
	}

	s.mu.Lock()
	s.current = site
	s.loading = false
	s.mu.Unlock()
	return nil
}

// Create registers a new site and appends the tower's response to the
// cached list.
func (s *SiteStore) Create(ctx context.Context, body tower.CreateSiteConfig) (*tower.SiteConfig, error) {
	s.begin()
	site, err := s.client.CreateSite(ctx, body)
	if err != nil {
		return nil, s.reject("create site", err)
	}

	s.mu.Lock()
	s.sites = append(s.sites, *site)
	s.loading = false
	s.mu.Unlock()
	return site, nil
}

// Update applies a partial update and replaces the matching cached
// entry, along with the current selection when it matches.
func (s *SiteStore) Update(ctx context.Context, id string, body tower.UpdateSiteConfig) error {
	s.begin()
	site, err := s.client.UpdateSite(ctx, id, body)
	if err != nil {
		return s.reject("update site", err)
	}

	s.mu.Lock()
	for i := range s.sites {
		if s.sites[i].ID == site.ID {
			s.sites[i] = *site
			break
		}
	}
	if s.current != nil && s.current.ID == site.ID {
		copied := *site
		s.current = &copied
	}
	s.loading = false
	s.mu.Unlock()
	return nil
}

// Delete removes a site, dropping it from the cache and clearing the
// current selection when it matches.
func (s *SiteStore) Delete(ctx context.Context, id string) error {
	s.begin()
	if err := s.client.DeleteSite(ctx, id); err != nil {
		return s.reject("delete site", err)
	}

	s.mu.Lock()
	kept := s.sites[:0]
	for _, site := range s.sites {
		if site.ID != id {
			kept = append(kept, site)
		}
	}
	s.sites = kept
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	s.loading = false
	s.mu.Unlock()
	return nil
}

// RunCheck asks the tower to probe a site now. It is fire-and-forget:
// the cache is not touched, the resulting status arrives over the push
// channel or through an explicit Fetch.
func (s *SiteStore) RunCheck(ctx context.Context, id string) error {
	s.begin()
	if err := s.client.RunCheck(ctx, id); err != nil {
		return s.reject("run check", err)
	}

	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
	return nil
}

// ApplyCheckResult patches the last-known result fields of a cached
// site in place, mirroring inline status updates pushed by the tower.
// Unknown ids are ignored.
func (s *SiteStore) ApplyCheckResult(id string, status tower.SiteStatus, responseTimeMs *float64, lastCheckAt string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sites {
		if s.sites[i].ID != id {
			continue
		}
		s.sites[i].LastStatus = status
		if responseTimeMs != nil {
			s.sites[i].LastResponseTimeMs = responseTimeMs
		}
		if lastCheckAt != "" {
			s.sites[i].LastCheckAt = lastCheckAt
		}
		break
	}
	if s.current != nil && s.current.ID == id {
		s.current.LastStatus = status
		if responseTimeMs != nil {
			s.current.LastResponseTimeMs = responseTimeMs
		}
		if lastCheckAt != "" {
			s.current.LastCheckAt = lastCheckAt
		}
	}
}

// SetCurrent selects a cached site by id. An empty or unknown id simply
// clears the selection; that is not an error.
func (s *SiteStore) SetCurrent(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	if id == "" {
		return
	}
	for i := range s.sites {
		if s.sites[i].ID == id {
			copied := s.sites[i]
			s.current = &copied
			return
		}
	}
}

// ClearError resets the shared error signal.
func (s *SiteStore) ClearError() {
	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
}

// Snapshot returns a defensive copy of the cache for rendering.
func (s *SiteStore) Snapshot() SitesSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := SitesSnapshot{
		Loading: s.loading,
		Error:   s.lastErr,
	}
	if len(s.sites) > 0 {
		snap.Sites = make([]tower.SiteConfig, len(s.sites))
		copy(snap.Sites, s.sites)
	}
	if s.current != nil {
		copied := *s.current
		snap.Current = &copied
	}
	return snap
}

func (s *SiteStore) begin() {
	s.mu.Lock()
	s.loading = true
	s.lastErr = ""
	s.mu.Unlock()
}

func (s *SiteStore) reject(op string, err error) error {
	wrapped := fmt.Errorf("%s: %w", op, err)
	s.mu.Lock()
	s.loading = false
	s.lastErr = wrapped.Error()
	s.mu.Unlock()
	return wrapped
}
