package epoch

import "sync"

// Epoch-based reclamation. Readers pin the current epoch with a Guard
// before touching shared records; a record retired with Defer is only
// destroyed once every guard pinned at or before the retirement has been
// released. Until then concurrent readers that observed the old pointer
// value can keep dereferencing it safely.

type Collector struct {
	mu     sync.Mutex
	epoch  uint64
	active map[*Guard]uint64
	bags   []bag
}

// bag collects destructors retired during a single epoch
type bag struct {
	epoch uint64
	fns   []func()
}

// Guard pins one epoch for one goroutine; it is not safe to share
type Guard struct {
	c        *Collector
	epoch    uint64
	released bool
}

func NewCollector() *Collector {
	return &Collector{active: make(map[*Guard]uint64)}
}

// Pin enters the current epoch. Every Pin must be paired with Release.
func (c *Collector) Pin() *Guard {
	c.mu.Lock()
	defer c.mu.Unlock()

	g := &Guard{c: c, epoch: c.epoch}
	c.active[g] = g.epoch
	return g
}

// Defer schedules fn to run once no guard pinned at or before the current
// epoch remains active. The epoch is advanced so that later pins can never
// hold the retired value back.
func (g *Guard) Defer(fn func()) {
	if g.released {
		panic("epoch: Defer on a released guard")
	}

	c := g.c
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.epoch
	c.epoch++

	if n := len(c.bags); n > 0 && c.bags[n-1].epoch == e {
		c.bags[n-1].fns = append(c.bags[n-1].fns, fn)
		return
	}
	c.bags = append(c.bags, bag{epoch: e, fns: []func(){fn}})
}

// Release unpins the guard and runs any destructors that became
// unreachable. Releasing twice is a programming error.
func (g *Guard) Release() {
	if g.released {
		panic("epoch: guard released twice")
	}
	g.released = true

	c := g.c
	c.mu.Lock()
	delete(c.active, g)
	ready := c.collect()
	c.mu.Unlock()

	// run outside the lock, destructors may pin again
	for _, fn := range ready {
		fn()
	}
}

// collect pops every bag no active guard could still observe.
// Caller holds c.mu.
func (c *Collector) collect() []func() {
	min := c.epoch
	for _, e := range c.active {
		if e < min {
			min = e
		}
	}

	var ready []func()
	i := 0
	for ; i < len(c.bags) && c.bags[i].epoch < min; i++ {
		ready = append(ready, c.bags[i].fns...)
	}
	c.bags = append([]bag(nil), c.bags[i:]...)
	return ready
}

var defaultCollector = NewCollector()

// Pin pins the process-wide collector
func Pin() *Guard {
	return defaultCollector.Pin()
}
