// Package view derives what the dashboard actually renders: the pure
// combination of the live collection, the configuration cache, and the
// persisted filter selections. Nothing here mutates a store.
package view

import "github.com/pingdeck/pingdeck/internal/tower"

// StatusCode is the dashboard status classification used by the filter
// chips. The values match the tower wire codes.
type StatusCode int

const (
	CodeUnknown StatusCode = 0
	CodeOK      StatusCode = 1
	CodeWarn    StatusCode = 2
	CodeCrit    StatusCode = 3
)

// FilterState holds the user's filter selections. An empty set means
// "show all"; that is the deliberate default, not an edge case.
type FilterState struct {
	Status []StatusCode
	Env    []string
}

// StatusCodeOf classifies a live entity. Push data carries a binary
// health flag, so only OK and CRIT are derivable here; WARN exists only
// on the configuration side (SiteConfig.LastStatus).
func StatusCodeOf(svc tower.ServiceStatus) StatusCode {
	if svc.IsOnline {
		return CodeOK
	}
	return CodeCrit
}

// ComputeVisible filters the live collection by the given state,
// preserving relative order. An entity passes when its status code is
// in the status set (or the set is empty) and its environment is in the
// env set (or that set is empty).
func ComputeVisible(services []tower.ServiceStatus, filter FilterState) []tower.ServiceStatus {
	if len(filter.Status) == 0 && len(filter.Env) == 0 {
		out := make([]tower.ServiceStatus, len(services))
		copy(out, services)
		return out
	}

	out := make([]tower.ServiceStatus, 0, len(services))
	for _, svc := range services {
		if !codeSelected(filter.Status, StatusCodeOf(svc)) {
			continue
		}
		if !envSelected(filter.Env, svc.Environment) {
			continue
		}
		out = append(out, svc)
	}
	return out
}

func codeSelected(selected []StatusCode, code StatusCode) bool {
	if len(selected) == 0 {
		return true
	}
	for _, c := range selected {
		if c == code {
			return true
		}
	}
	return false
}

func envSelected(selected []string, env string) bool {
	if len(selected) == 0 {
		return true
	}
	for _, e := range selected {
		if e == env {
			return true
		}
	}
	return false
}

// EnvStat is a per-environment service count.
type EnvStat struct {
	Env   string
	Count int
}

// EnvStats counts services per environment in first-seen order.
func EnvStats(services []tower.ServiceStatus) []EnvStat {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, svc := range services {
		if _, seen := counts[svc.Environment]; !seen {
			order = append(order, svc.Environment)
		}
		counts[svc.Environment]++
	}
	stats := make([]EnvStat, 0, len(order))
	for _, env := range order {
		stats = append(stats, EnvStat{Env: env, Count: counts[env]})
	}
	return stats
}

// Summary aggregates headline numbers for the dashboard header.
type Summary struct {
	Total        int
	Healthy      int
	Down         int
	AvgLatencyMs float64
}

// Summarize computes header stats over the given (usually already
// filtered) services.
func Summarize(services []tower.ServiceStatus) Summary {
	sum := Summary{Total: len(services)}
	var latency float64
	for _, svc := range services {
		if svc.IsOnline {
			sum.Healthy++
		} else {
			sum.Down++
		}
		latency += svc.LatencyAvgMs
	}
	if sum.Total > 0 {
		sum.AvgLatencyMs = latency / float64(sum.Total)
	}
	return sum
}

// Row pairs a live entity with its configuration, when one exists. The
// derived view is the only place the two collections meet.
type Row struct {
	Status tower.ServiceStatus
	Config *tower.SiteConfig
}

// Join attaches site configuration to visible services by id. Services
// without configuration keep a nil Config; configured sites without
// live data are not invented.
func Join(services []tower.ServiceStatus, sites []tower.SiteConfig) []Row {
	byID := make(map[string]int, len(sites))
	for i := range sites {
		byID[sites[i].ID] = i
	}
	rows := make([]Row, 0, len(services))
	for _, svc := range services {
		row := Row{Status: svc}
		if i, ok := byID[svc.ID]; ok {
			copied := sites[i]
			row.Config = &copied
		}
		rows = append(rows, row)
	}
	return rows
}
