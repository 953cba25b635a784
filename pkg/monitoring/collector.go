package monitoring

import (
	"context"
	"strconv"
	"time"
)

// Sample is one observation of the engine's queues and pool.
type Sample struct {
	UnrankedDepth int
	RankedDepth   int
	Active        map[uint64]uint32
}

// Collector periodically samples the engine and updates the gauges.
type Collector struct {
	interval time.Duration
	sample   func() Sample
}

// NewCollector creates a collector calling sample every interval.
func NewCollector(interval time.Duration, sample func() Sample) *Collector {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Collector{interval: interval, sample: sample}
}

// Name implements jobs.Loop.
func (c *Collector) Name() string { return "metrics-collector" }

// Run updates the queue depth and busy count gauges until ctx is done.
func (c *Collector) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := c.sample()
			QueueDepth.WithLabelValues("unranked").Set(float64(s.UnrankedDepth))
			QueueDepth.WithLabelValues("ranked").Set(float64(s.RankedDepth))
			for id, active := range s.Active {
				ModelActiveRequests.WithLabelValues(strconv.FormatUint(id, 10)).Set(float64(active))
			}
		}
	}
}
