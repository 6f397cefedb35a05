package tower

import "time"

// SiteStatus is the tower-side verdict for a configured site.
type SiteStatus string

const (
	StatusGreen  SiteStatus = "GREEN"
	StatusYellow SiteStatus = "YELLOW"
	StatusRed    SiteStatus = "RED"
)

// EndpointProbe is one sub-resource probe attached to a live service.
// Code uses the tower wire values: 0 unknown, 1 ok, 2 warn, 3 crit.
type EndpointProbe struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Code int    `json:"status"`
}

// ServiceStatus is the canonical live entity pushed over the dashboard
// channel. Exactly one current value exists per ID; the tower never
// pushes history. Optional probe metrics are pointers so "not measured"
// stays distinguishable from zero; formatting of absent values belongs
// to the UI, not the data model.
type ServiceStatus struct {
	ID                string
	Name              string
	Environment       string
	StatusLabel       string
	LatencyP95Ms      float64
	LatencyAvgMs      float64
	UptimePercent     float64
	SuccessfulChecks  int
	DOMLoadMs         *float64
	TimeToFirstByteMs *float64
	TLSExpiryDays     *float64
	LastCheckedAt     string
	IsOnline          bool
	Endpoints         []EndpointProbe
}

// ParsedLastCheckedAt returns the last-check timestamp as time.Time when possible.
func (s ServiceStatus) ParsedLastCheckedAt() time.Time {
	return parseTime(s.LastCheckedAt)
}

// SiteConfig mirrors the payload returned by /api/services.
type SiteConfig struct {
	ID                     string     `json:"id"`
	Name                   string     `json:"name"`
	URL                    string     `json:"url"`
	Environment            string     `json:"environment"`
	IntervalSec            int        `json:"intervalSec"`
	TimeoutSec             int        `json:"timeoutSec"`
	DegradationThresholdMs int        `json:"degradationThresholdMs"`
	Enabled                bool       `json:"enabled"`
	CreatedAt              string     `json:"createdAt,omitempty"`
	UpdatedAt              string     `json:"updatedAt,omitempty"`
	LastStatus             SiteStatus `json:"lastStatus,omitempty"`
	LastCheckAt            string     `json:"lastCheckAt,omitempty"`
	LastResponseTimeMs     *float64   `json:"lastResponseTimeMs,omitempty"`
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (c SiteConfig) ParsedCreatedAt() time.Time {
	return parseTime(c.CreatedAt)
}

// ParsedLastCheckAt returns the parsed LastCheckAt timestamp.
func (c SiteConfig) ParsedLastCheckAt() time.Time {
	return parseTime(c.LastCheckAt)
}

// CreateSiteConfig is the request body for creating a site. The tower
// assigns the ID and the audit timestamps.
type CreateSiteConfig struct {
	Name                   string `json:"name"`
	URL                    string `json:"url"`
	Environment            string `json:"environment"`
	IntervalSec            int    `json:"intervalSec"`
	TimeoutSec             int    `json:"timeoutSec"`
	DegradationThresholdMs int    `json:"degradationThresholdMs"`
	Enabled                bool   `json:"enabled"`
}

// UpdateSiteConfig is a partial update; nil fields are left untouched
// by the tower.
type UpdateSiteConfig struct {
	Name                   *string `json:"name,omitempty"`
	URL                    *string `json:"url,omitempty"`
	Environment            *string `json:"environment,omitempty"`
	IntervalSec            *int    `json:"intervalSec,omitempty"`
	TimeoutSec             *int    `json:"timeoutSec,omitempty"`
	DegradationThresholdMs *int    `json:"degradationThresholdMs,omitempty"`
	Enabled                *bool   `json:"enabled,omitempty"`
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
