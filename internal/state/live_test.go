package state

import (
	"reflect"
	"testing"

	"github.com/pingdeck/pingdeck/internal/tower"
)

func svc(id string, online bool) tower.ServiceStatus {
	return tower.ServiceStatus{ID: id, Name: "svc " + id, Environment: "prod", IsOnline: online}
}

func ids(services []tower.ServiceStatus) []string {
	out := make([]string, 0, len(services))
	for _, s := range services {
		out = append(out, s.ID)
	}
	return out
}

func TestLiveStore_SnapshotReplacesEverything(t *testing.T) {
	s := NewLiveStore()

	s.ApplySnapshot([]tower.ServiceStatus{svc("a", true), svc("b", true)})
	s.ApplyUpdate(svc("c", false))

	if got := ids(s.Services()); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("ids = %v, want [a b c]", got)
	}

	// A snapshot omitting ids discards them; they must not reappear.
	s.ApplySnapshot([]tower.ServiceStatus{svc("b", false)})
	if got := ids(s.Services()); !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("ids after snapshot = %v, want [b]", got)
	}
	if _, ok := s.Get("a"); ok {
		t.Fatal("id a should be gone after snapshot that omits it")
	}
	if _, ok := s.Get("c"); ok {
		t.Fatal("id c should be gone after snapshot that omits it")
	}
}

func TestLiveStore_UpdateUpsertsAndKeepsOrder(t *testing.T) {
	s := NewLiveStore()
	s.ApplySnapshot([]tower.ServiceStatus{svc("a", true), svc("b", true), svc("c", true)})

	// Replacing an existing entry keeps its position and leaves the
	// others untouched.
	updated := svc("b", false)
	updated.LatencyAvgMs = 250
	s.ApplyUpdate(updated)

	services := s.Services()
	if got := ids(services); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("ids = %v, want [a b c]", got)
	}
	if services[1].IsOnline || services[1].LatencyAvgMs != 250 {
		t.Fatalf("entry b = %#v, want offline with latency 250", services[1])
	}
	if !reflect.DeepEqual(services[0], svc("a", true)) || !reflect.DeepEqual(services[2], svc("c", true)) {
		t.Fatal("unrelated entries changed by update")
	}

	// An update may be the first sighting of an id.
	s.ApplyUpdate(svc("d", true))
	if got := ids(s.Services()); !reflect.DeepEqual(got, []string{"a", "b", "c", "d"}) {
		t.Fatalf("ids after upsert = %v, want [a b c d]", got)
	}
}

func TestLiveStore_SnapshotIdempotent(t *testing.T) {
	s := NewLiveStore()
	snapshot := []tower.ServiceStatus{svc("a", true), svc("b", false)}

	s.ApplySnapshot(snapshot)
	first := s.Services()
	s.ApplySnapshot(snapshot)
	second := s.Services()

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated snapshot changed state: %#v vs %#v", first, second)
	}
}

func TestLiveStore_LastWriteWinsPerID(t *testing.T) {
	s := NewLiveStore()
	s.ApplySnapshot([]tower.ServiceStatus{svc("a", true)})

	// No timestamp arbitration: the most recent message wins even if
	// its payload looks "older".
	stale := svc("a", false)
	stale.LastCheckedAt = "2020-01-01T00:00:00Z"
	s.ApplyUpdate(stale)

	got, ok := s.Get("a")
	if !ok || got.IsOnline {
		t.Fatalf("entry a = %#v, want offline", got)
	}
}

func TestLiveStore_ServicesReturnsCopy(t *testing.T) {
	s := NewLiveStore()
	s.ApplySnapshot([]tower.ServiceStatus{svc("a", true)})

	out := s.Services()
	out[0].Name = "mutated"

	again := s.Services()
	if again[0].Name != "svc a" {
		t.Fatalf("store leaked internal state: %q", again[0].Name)
	}
}

func TestLiveStore_VersionAdvances(t *testing.T) {
	s := NewLiveStore()
	v0 := s.Version()
	s.ApplyUpdate(svc("a", true))
	v1 := s.Version()
	s.ApplySnapshot(nil)
	v2 := s.Version()

	if !(v0 < v1 && v1 < v2) {
		t.Fatalf("versions = %d %d %d, want strictly increasing", v0, v1, v2)
	}
	if s.Len() != 0 {
		t.Fatalf("Len = %d, want 0 after empty snapshot", s.Len())
	}
}
