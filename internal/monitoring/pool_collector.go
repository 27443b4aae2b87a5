// Package monitoring exports database health as Prometheus metrics.
package monitoring

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStats is a point-in-time view of the connection pool
type PoolStats struct {
	Acquired int32
	Idle     int32
	Total    int32
	Max      int32
	Up       bool
	Latency  time.Duration
}

// StatsFunc samples the pool; it is called on every scrape.
type StatsFunc func(ctx context.Context) PoolStats

// FromPool samples a pgx pool, pinging it with a short timeout.
func FromPool(pool *pgxpool.Pool) StatsFunc {
	return func(ctx context.Context) PoolStats {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		start := time.Now()
		err := pool.Ping(ctx)
		latency := time.Since(start)

		st := pool.Stat()
		return PoolStats{
			Acquired: st.AcquiredConns(),
			Idle:     st.IdleConns(),
			Total:    st.TotalConns(),
			Max:      st.MaxConns(),
			Up:       err == nil,
			Latency:  latency,
		}
	}
}

type PoolCollector struct {
	stats StatsFunc

	acquired *prometheus.Desc
	idle     *prometheus.Desc
	total    *prometheus.Desc
	max      *prometheus.Desc
	up       *prometheus.Desc
	latency  *prometheus.Desc
}

func NewPoolCollector(stats StatsFunc) *PoolCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName("pos", "db", name), help, nil, nil)
	}
	return &PoolCollector{
		stats:    stats,
		acquired: desc("connections_acquired", "Connections currently checked out of the pool"),
		idle:     desc("connections_idle", "Idle connections in the pool"),
		total:    desc("connections_total", "Open connections in the pool"),
		max:      desc("connections_max", "Configured pool size"),
		up:       desc("up", "1 if the database answered the last ping"),
		latency:  desc("ping_seconds", "Latency of the last database ping"),
	}
}

func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquired
	ch <- c.idle
	ch <- c.total
	ch <- c.max
	ch <- c.up
	ch <- c.latency
}

func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats(context.Background())
	up := 0.0
	if s.Up {
		up = 1
	}
	ch <- prometheus.MustNewConstMetric(c.acquired, prometheus.GaugeValue, float64(s.Acquired))
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(s.Idle))
	ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(s.Total))
	ch <- prometheus.MustNewConstMetric(c.max, prometheus.GaugeValue, float64(s.Max))
	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, up)
	ch <- prometheus.MustNewConstMetric(c.latency, prometheus.GaugeValue, s.Latency.Seconds())
}
