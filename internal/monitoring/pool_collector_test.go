package monitoring

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func gather(t *testing.T, c prometheus.Collector) map[string]float64 {
	t.Helper()
	reg := prometheus.NewRegistry()
	reg.MustRegister(c)
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	out := make(map[string]float64, len(families))
	for _, mf := range families {
		out[mf.GetName()] = mf.GetMetric()[0].GetGauge().GetValue()
	}
	return out
}

func TestPoolCollector(t *testing.T) {
	c := NewPoolCollector(func(ctx context.Context) PoolStats {
		return PoolStats{Acquired: 3, Idle: 2, Total: 5, Max: 10, Up: true, Latency: 4 * time.Millisecond}
	})

	got := gather(t, c)
	want := map[string]float64{
		"pos_db_connections_acquired": 3,
		"pos_db_connections_idle":     2,
		"pos_db_connections_total":    5,
		"pos_db_connections_max":      10,
		"pos_db_up":                   1,
		"pos_db_ping_seconds":         0.004,
	}
	if len(got) != len(want) {
		t.Fatalf("gathered %d metrics, want %d: %v", len(got), len(want), got)
	}
	for name, v := range want {
		if got[name] != v {
			t.Errorf("%s = %v, want %v", name, got[name], v)
		}
	}
}

func TestPoolCollector_Down(t *testing.T) {
	c := NewPoolCollector(func(ctx context.Context) PoolStats { return PoolStats{} })
	if got := gather(t, c)["pos_db_up"]; got != 0 {
		t.Errorf("pos_db_up = %v, want 0", got)
	}
}
