package metrics

import (
	"time"

	"ffservice/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the aggregate call history
type Stats struct {
	TotalCalls  int
	DoneCalls   int
	FailedCalls int
	BytesIn     int64
	BytesOut    int64
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	HistoryCalls.WithLabelValues("done").Set(float64(stats.DoneCalls))
	HistoryCalls.WithLabelValues("failed").Set(float64(stats.FailedCalls))
	HistoryBytes.WithLabelValues("in").Set(float64(stats.BytesIn))
	HistoryBytes.WithLabelValues("out").Set(float64(stats.BytesOut))

	logging.Debug("Metrics collected: calls=%d, done=%d, failed=%d, bytes_in=%d, bytes_out=%d",
		stats.TotalCalls, stats.DoneCalls, stats.FailedCalls, stats.BytesIn, stats.BytesOut)
}
