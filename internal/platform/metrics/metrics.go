package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Domain counter names.
const (
	InvoicesCreated      = "invoicesCreated"
	InvoicePDFsRendered  = "invoicePdfsRendered"
	InvoicePDFsFailed    = "invoicePdfsFailed"
	JobsDropped          = "jobsDropped"
	TimesheetsSubmitted  = "timesheetsSubmitted"
	TimelineCacheHits    = "timelineCacheHits"
	TimelineCacheMisses  = "timelineCacheMisses"
	CertificateBatches   = "certificateBatches"
	DailyHoursRejections = "dailyHoursRejections"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	mu       sync.Mutex
	counters map[string]*uint64
}

func New() *Collector {
	return &Collector{counters: map[string]*uint64{}}
}

func (c *Collector) Record(status int, duration time.Duration) {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// Inc bumps a named domain counter. A nil collector ignores the call.
func (c *Collector) Inc(name string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	counter, ok := c.counters[name]
	if !ok {
		counter = new(uint64)
		c.counters[name] = counter
	}
	c.mu.Unlock()
	atomic.AddUint64(counter, 1)
}

func (c *Collector) Count(name string) uint64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	counter, ok := c.counters[name]
	c.mu.Unlock()
	if !ok {
		return 0
	}
	return atomic.LoadUint64(counter)
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}

	c.mu.Lock()
	names := make([]string, 0, len(c.counters))
	for name := range c.counters {
		names = append(names, name)
	}
	c.mu.Unlock()
	sort.Strings(names)
	domain := make(map[string]uint64, len(names))
	for _, name := range names {
		domain[name] = c.Count(name)
	}

	return map[string]any{
		"requestsTotal":    total,
		"errorsTotal":      errs,
		"rateLimitedTotal": limited,
		"avgDurationMs":    avg,
		"totalDurationMs":  totalMs,
		"domain":           domain,
	}
}
