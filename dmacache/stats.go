package dmacache

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// Statistics counts what a cache has done since it was created
type Statistics struct {
	Buffers        int
	Mappings       int
	HardwareMaps   int
	HardwareUnmaps int
	Reuses         int
	Conflicts      int
	Retries        int
	Orphans        int
}

// CalculateStatistics fills stats with the cache's current counters
func (c *Cache) CalculateStatistics(stats *Statistics) {
	*stats = Statistics{
		HardwareMaps:   int(c.hardwareMaps.Load()),
		HardwareUnmaps: int(c.hardwareUnmaps.Load()),
		Reuses:         int(c.reuses.Load()),
		Conflicts:      int(c.conflicts.Load()),
		Retries:        int(c.retries.Load()),
		Orphans:        int(c.orphans.Load()),
	}

	for _, m := range c.snapshot() {
		m.mutex.RLock()
		stats.Buffers++
		stats.Mappings += len(m.maps)
		m.mutex.RUnlock()
	}
}

func (c *Cache) snapshot() []*meta {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	metas := make([]*meta, 0, c.index.Count())
	c.index.Iter(func(_ BufferID, m *meta) bool {
		metas = append(metas, m)
		return false
	})
	return metas
}

// BuildStatsString returns a JSON document describing the counters and every cached mapping
func (c *Cache) BuildStatsString() string {
	c.logger.Debug("Cache::BuildStatsString")

	var stats Statistics
	c.CalculateStatistics(&stats)

	writer := jwriter.NewWriter()
	root := writer.Object()

	total := root.Name("Total").Object()
	total.Name("Buffers").Int(stats.Buffers)
	total.Name("Mappings").Int(stats.Mappings)
	total.Name("HardwareMaps").Int(stats.HardwareMaps)
	total.Name("HardwareUnmaps").Int(stats.HardwareUnmaps)
	total.Name("Reuses").Int(stats.Reuses)
	total.Name("Conflicts").Int(stats.Conflicts)
	total.Name("Retries").Int(stats.Retries)
	total.Name("Orphans").Int(stats.Orphans)
	total.End()

	buffers := root.Name("Buffers").Array()
	for _, m := range c.snapshot() {
		o := buffers.Object()
		m.printParameters(&o)
		o.End()
	}
	buffers.End()

	root.End()
	return string(writer.Bytes())
}
