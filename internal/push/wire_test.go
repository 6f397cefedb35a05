package push

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDecodeSnapshot_AbbreviatedKeys(t *testing.T) {
	raw := json.RawMessage(`[
		{"id":"a","n":"api","e":"prod","st":"operational","p95":120.5,"avg":80,"up":99.95,"ok":1440,"dlt":310.2,"ttfb":45.1,"ssl":62,"lc":"2026-08-28T10:00:00Z","io":true,
		 "endpoints":[{"id":"a-1","url":"https://a/health","status":1},{"id":"a-2","url":"https://a/ready","status":3}]},
		{"id":"b","n":"web","e":"stage","io":false}
	]`)

	services, err := decodeSnapshot(raw)
	if err != nil {
		t.Fatalf("decodeSnapshot returned error: %v", err)
	}
	if len(services) != 2 {
		t.Fatalf("decoded %d services, want 2", len(services))
	}

	a := services[0]
	if a.Name != "api" || a.Environment != "prod" || a.StatusLabel != "operational" {
		t.Fatalf("entity a = %#v, want expanded field names", a)
	}
	if a.LatencyP95Ms != 120.5 || a.UptimePercent != 99.95 || a.SuccessfulChecks != 1440 {
		t.Fatalf("entity a metrics = %#v", a)
	}
	if a.DOMLoadMs == nil || *a.DOMLoadMs != 310.2 {
		t.Fatalf("dlt = %v, want 310.2", a.DOMLoadMs)
	}
	if len(a.Endpoints) != 2 || a.Endpoints[1].Code != 3 {
		t.Fatalf("endpoints = %#v, want two probes", a.Endpoints)
	}

	// Absent optional metrics stay nil rather than becoming zero.
	b := services[1]
	if b.DOMLoadMs != nil || b.TimeToFirstByteMs != nil || b.TLSExpiryDays != nil {
		t.Fatalf("entity b optionals = %#v, want all nil", b)
	}
	if b.IsOnline {
		t.Fatal("entity b should be offline")
	}
}

func TestDecodeSnapshot_RejectsMissingID(t *testing.T) {
	_, err := decodeSnapshot(json.RawMessage(`[{"id":"a","io":true},{"n":"anonymous"}]`))
	if err == nil || !strings.Contains(err.Error(), "missing id") {
		t.Fatalf("error = %v, want missing id", err)
	}

	_, err = decodeSnapshot(json.RawMessage(`{"id":"not-a-list"}`))
	if err == nil {
		t.Fatal("decodeSnapshot accepted a non-array payload")
	}
}

func TestDecodeSnapshot_RejectsNonArrayData(t *testing.T) {
	// None of these may read as an authoritative empty snapshot; applying
	// one would wipe the live collection.
	for _, payload := range []string{`null`, ``, `  `, `"text"`, `42`} {
		if _, err := decodeSnapshot(json.RawMessage(payload)); err == nil {
			t.Fatalf("decodeSnapshot(%q) accepted non-array data", payload)
		}
	}

	// A literal empty array is still a valid, deliberate wipe.
	services, err := decodeSnapshot(json.RawMessage(`[]`))
	if err != nil {
		t.Fatalf("decodeSnapshot([]) returned error: %v", err)
	}
	if len(services) != 0 {
		t.Fatalf("decoded %d services from empty array", len(services))
	}
}

func TestDecodeUpdate(t *testing.T) {
	svc, err := decodeUpdate(json.RawMessage(`{"id":"svc-9","n":"payments","io":false}`))
	if err != nil {
		t.Fatalf("decodeUpdate returned error: %v", err)
	}
	if svc.ID != "svc-9" || svc.Name != "payments" || svc.IsOnline {
		t.Fatalf("service = %#v", svc)
	}

	if _, err := decodeUpdate(json.RawMessage(`{"n":"no id","io":true}`)); err == nil {
		t.Fatal("decodeUpdate accepted an entry without an id")
	}
	if _, err := decodeUpdate(json.RawMessage(`{"id":"   "}`)); err == nil {
		t.Fatal("decodeUpdate accepted a whitespace id")
	}
}

func TestDecodeDiagnostic(t *testing.T) {
	if got := decodeDiagnostic(json.RawMessage(`"checker backlog full"`)); got != "checker backlog full" {
		t.Fatalf("diagnostic = %q", got)
	}
	// Non-string payloads are passed through verbatim so they are at
	// least visible to the operator.
	if got := decodeDiagnostic(json.RawMessage(`{"code":7}`)); got != `{"code":7}` {
		t.Fatalf("diagnostic = %q", got)
	}
}

func TestUnmarshalEnvelope(t *testing.T) {
	var env envelope
	err := unmarshalEnvelope([]byte(`{"type":"SNAPSHOT","data":[],"timestamp":"2026-08-28T10:00:00Z"}`), &env)
	if err != nil {
		t.Fatalf("unmarshalEnvelope returned error: %v", err)
	}
	if env.Type != msgSnapshot || env.Timestamp == "" {
		t.Fatalf("envelope = %#v", env)
	}

	if err := unmarshalEnvelope([]byte(`nonsense`), &env); err == nil {
		t.Fatal("unmarshalEnvelope accepted garbage")
	}
}
