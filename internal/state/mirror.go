package state

import "github.com/pingdeck/pingdeck/internal/tower"

// StatusMirror fans inbound push messages out to both stores. Every
// message drives the live collection; updates additionally patch the
// matching cached site's last-known check result, so the configuration
// view reflects a check without an extra REST round trip.
type StatusMirror struct {
	live  *LiveStore
	sites *SiteStore
}

// NewStatusMirror wraps the two stores as a single push applier.
func NewStatusMirror(live *LiveStore, sites *SiteStore) *StatusMirror {
	return &StatusMirror{live: live, sites: sites}
}

// ApplySnapshot replaces the live collection. The configuration cache is
// untouched; snapshots carry live status, not config.
func (m *StatusMirror) ApplySnapshot(services []tower.ServiceStatus) {
	m.live.ApplySnapshot(services)
}

// ApplyUpdate upserts the live entry and mirrors the verdict into the
// config cache. Push data carries a binary health flag, so the mirrored
// verdict is GREEN or RED; YELLOW only ever arrives via REST.
func (m *StatusMirror) ApplyUpdate(service tower.ServiceStatus) {
	m.live.ApplyUpdate(service)

	status := tower.StatusRed
	if service.IsOnline {
		status = tower.StatusGreen
	}
	var responseTime *float64
	if service.LatencyAvgMs > 0 {
		v := service.LatencyAvgMs
		responseTime = &v
	}
	m.sites.ApplyCheckResult(service.ID, status, responseTime, service.LastCheckedAt)
}
