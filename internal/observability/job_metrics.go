package observability

import (
	"sort"
	"sync"
	"time"
)

// JobCounts are the outcome counters for one job type.
type JobCounts struct {
	Claimed uint64 `json:"claimed"`
	Done    uint64 `json:"done"`
	Retried uint64 `json:"retried"`
	Failed  uint64 `json:"failed"`
	// Permanent counts failures that skipped the remaining attempts.
	Permanent uint64 `json:"permanent"`
}

func (c *JobCounts) add(o JobCounts) {
	c.Claimed += o.Claimed
	c.Done += o.Done
	c.Retried += o.Retried
	c.Failed += o.Failed
	c.Permanent += o.Permanent
}

// JobMetrics keeps in-process worker counters for the worker's /readyz. The
// Prometheus series in Prom carry the same outcomes for scraping.
type JobMetrics struct {
	mu     sync.Mutex
	byType map[string]*JobCounts

	durationCount uint64
	durationTotal time.Duration
	durationMax   time.Duration
}

func NewJobMetrics() *JobMetrics {
	return &JobMetrics{byType: make(map[string]*JobCounts)}
}

func (m *JobMetrics) bump(jobType string, fn func(c *JobCounts)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.byType[jobType]
	if !ok {
		c = &JobCounts{}
		m.byType[jobType] = c
	}
	fn(c)
}

func (m *JobMetrics) IncClaimed(jobType string) { m.bump(jobType, func(c *JobCounts) { c.Claimed++ }) }
func (m *JobMetrics) IncDone(jobType string)    { m.bump(jobType, func(c *JobCounts) { c.Done++ }) }
func (m *JobMetrics) IncRetried(jobType string) { m.bump(jobType, func(c *JobCounts) { c.Retried++ }) }

// IncFailed records a job that will not run again.
func (m *JobMetrics) IncFailed(jobType string, permanent bool) {
	m.bump(jobType, func(c *JobCounts) {
		c.Failed++
		if permanent {
			c.Permanent++
		}
	})
}

func (m *JobMetrics) ObserveDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.durationCount++
	m.durationTotal += d
	if d > m.durationMax {
		m.durationMax = d
	}
}

type JobMetricsSnapshot struct {
	JobCounts
	ByType          map[string]JobCounts
	Types           []string // sorted keys of ByType
	DurationCount   uint64
	AverageDuration time.Duration
	MaxDuration     time.Duration
}

func (m *JobMetrics) Snapshot() JobMetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := JobMetricsSnapshot{
		ByType:        make(map[string]JobCounts, len(m.byType)),
		DurationCount: m.durationCount,
		MaxDuration:   m.durationMax,
	}
	for t, c := range m.byType {
		s.ByType[t] = *c
		s.Types = append(s.Types, t)
		s.add(*c)
	}
	sort.Strings(s.Types)

	if m.durationCount > 0 {
		s.AverageDuration = m.durationTotal / time.Duration(m.durationCount)
	}
	return s
}
