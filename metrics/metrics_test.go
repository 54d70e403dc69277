package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRegistryCountersAppearOnHandler(t *testing.T) {
	r := New()
	r.PacketProduced("preemph")
	r.PacketProduced("preemph")
	r.CacheHit()
	r.CacheMiss()
	r.Decision("speech")

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	for _, want := range []string{
		`flow_packets_produced_total{node="preemph"} 2`,
		`flow_cache_hits_total 1`,
		`flow_cache_misses_total 1`,
		`flow_classifier_decisions_total{label="speech"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected metrics output to contain %q, got:\n%s", want, body)
		}
	}
}

func TestNilRegistryMethodsAreNoOps(t *testing.T) {
	var r *Registry
	r.PacketProduced("x")
	r.CacheHit()
	r.CacheMiss()
	r.Decision("y")
	if r.Handler() == nil {
		t.Fatal("expected a non-nil handler even for a nil registry")
	}
}
