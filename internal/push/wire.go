package push

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pingdeck/pingdeck/internal/tower"
)

// Message types used by the dashboard channel.
const (
	msgSnapshot = "SNAPSHOT"
	msgUpdate   = "UPDATE"
	msgError    = "ERROR"

	msgRefreshRequest = "REFRESH_REQUEST"
)

// envelope is the wire frame wrapping every inbound message.
type envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
}

// refreshRequest is the outbound frame asking the tower for a fresh snapshot.
type refreshRequest struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

func unmarshalEnvelope(data []byte, env *envelope) error {
	if err := json.Unmarshal(data, env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	return nil
}

// wireService is the legacy abbreviated shape the tower pushes. It exists
// only at this boundary; everything past decode uses tower.ServiceStatus.
type wireService struct {
	ID                string                `json:"id"`
	Name              string                `json:"n"`
	Environment       string                `json:"e"`
	StatusLabel       string                `json:"st"`
	LatencyP95Ms      float64               `json:"p95"`
	LatencyAvgMs      float64               `json:"avg"`
	UptimePercent     float64               `json:"up"`
	SuccessfulChecks  int                   `json:"ok"`
	DOMLoadMs         *float64              `json:"dlt"`
	TimeToFirstByteMs *float64              `json:"ttfb"`
	TLSExpiryDays     *float64              `json:"ssl"`
	LastCheckedAt     string                `json:"lc"`
	IsOnline          bool                  `json:"io"`
	Endpoints         []tower.EndpointProbe `json:"endpoints"`
}

func (w wireService) canonical() tower.ServiceStatus {
	return tower.ServiceStatus{
		ID:                w.ID,
		Name:              w.Name,
		Environment:       w.Environment,
		StatusLabel:       w.StatusLabel,
		LatencyP95Ms:      w.LatencyP95Ms,
		LatencyAvgMs:      w.LatencyAvgMs,
		UptimePercent:     w.UptimePercent,
		SuccessfulChecks:  w.SuccessfulChecks,
		DOMLoadMs:         w.DOMLoadMs,
		TimeToFirstByteMs: w.TimeToFirstByteMs,
		TLSExpiryDays:     w.TLSExpiryDays,
		LastCheckedAt:     w.LastCheckedAt,
		IsOnline:          w.IsOnline,
		Endpoints:         w.Endpoints,
	}
}

func decodeSnapshot(data json.RawMessage) ([]tower.ServiceStatus, error) {
	// "null" or a scalar would unmarshal into a nil slice and read as an
	// authoritative empty snapshot, wiping the collection. Only an actual
	// array may do that.
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("decode snapshot: data is not an array")
	}
	var raw []wireService
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	services := make([]tower.ServiceStatus, 0, len(raw))
	for _, w := range raw {
		if strings.TrimSpace(w.ID) == "" {
			return nil, fmt.Errorf("decode snapshot: entry missing id")
		}
		services = append(services, w.canonical())
	}
	return services, nil
}

func decodeUpdate(data json.RawMessage) (tower.ServiceStatus, error) {
	var raw wireService
	if err := json.Unmarshal(data, &raw); err != nil {
		return tower.ServiceStatus{}, fmt.Errorf("decode update: %w", err)
	}
	if strings.TrimSpace(raw.ID) == "" {
		return tower.ServiceStatus{}, fmt.Errorf("decode update: missing id")
	}
	return raw.canonical(), nil
}

func decodeDiagnostic(data json.RawMessage) string {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return string(data)
	}
	return text
}
