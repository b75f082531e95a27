package observability

import (
	"sort"
	"sync"
	"time"
)

// Counters is an in-process implementation of every hook interface that
// tallies events by name. Safe for concurrent use.
type Counters struct {
	mu     sync.Mutex
	counts map[string]int64
}

// NewCounters creates an empty tally.
func NewCounters() *Counters {
	return &Counters{counts: make(map[string]int64)}
}

func (c *Counters) inc(name string) {
	c.mu.Lock()
	c.counts[name]++
	c.mu.Unlock()
}

// Get returns the count for name.
func (c *Counters) Get(name string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[name]
}

// Snapshot returns a copy of all counts.
func (c *Counters) Snapshot() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int64, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// Names returns the counter names in sorted order.
func (c *Counters) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.counts))
	for k := range c.counts {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (c *Counters) OnSearch(kind string, found bool, _ float64) {
	if found {
		c.inc("search.hit." + kind)
	} else {
		c.inc("search.miss." + kind)
	}
}

func (c *Counters) OnConnect(_, _, kind string)     { c.inc("connect." + kind) }
func (c *Counters) OnDisconnect(_, _, kind string)  { c.inc("disconnect." + kind) }
func (c *Counters) OnBump(string, float64, float64) { c.inc("bump") }
func (c *Counters) OnFieldChange(string, string)    { c.inc("field.change") }
func (c *Counters) OnInvariant(op string, _ error)  { c.inc("invariant." + op) }

func (c *Counters) OnMemoHit(table string)  { c.inc("memo.hit." + table) }
func (c *Counters) OnMemoMiss(table string) { c.inc("memo.miss." + table) }

func (c *Counters) OnRequest(method, route string) { c.inc("http." + method + " " + route) }
func (c *Counters) OnResponse(_, _ string, status int, _ time.Duration) {
	switch {
	case status >= 500:
		c.inc("http.5xx")
	case status >= 400:
		c.inc("http.4xx")
	default:
		c.inc("http.ok")
	}
}

var (
	_ WorkspaceHooks = (*Counters)(nil)
	_ MemoHooks      = (*Counters)(nil)
	_ HTTPHooks      = (*Counters)(nil)
)
