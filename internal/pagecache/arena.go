package pagecache

import (
	"fmt"
	"sync"
)

// The resident arena stands in for the raw addresses a native page cache
// would pack into pointer payloads. Handles are minted below 2^48 so they
// survive the 6-byte narrowing, and a handle resolves to a typed record,
// which keeps the meta/counter/node downcast safe: the record carries its
// own type instead of being reinterpreted by layout.
//
// The arena is process-global for the same reason an address space is.

// ResidentHandle is the 48-bit payload of an InMemory pointer
type ResidentHandle uint64

const maxHandle = uint64(1)<<48 - 1

type residentTable struct {
	mu    sync.RWMutex
	next  uint64
	freed []uint64
	slots map[uint64]any
}

var residents = &residentTable{
	// handle 0 is never minted so an all-zero payload stays invalid
	next:  1,
	slots: make(map[uint64]any),
}

func (t *residentTable) insert(rec any) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	var h uint64
	if n := len(t.freed); n > 0 {
		h = t.freed[n-1]
		t.freed = t.freed[:n-1]
	} else {
		if t.next > maxHandle {
			panic("pagecache: resident handle space exhausted, payload is limited to 48 bits")
		}
		h = t.next
		t.next++
	}

	t.slots[h] = rec
	return h
}

func (t *residentTable) resolve(h uint64) any {
	t.mu.RLock()
	rec, ok := t.slots[h]
	t.mu.RUnlock()

	if !ok {
		// a live pointer must never outlast its record; the epoch
		// discipline was broken somewhere upstream
		panic(fmt.Sprintf("pagecache: pointer to reclaimed record %#x", h))
	}
	return rec
}

func (t *residentTable) release(h uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.slots[h]; !ok {
		panic(fmt.Sprintf("pagecache: record %#x released twice", h))
	}
	delete(t.slots, h)
	t.freed = append(t.freed, h)
}

// AllocResident publishes a record in the arena and returns the handle a
// NewInMemory pointer packs. rec must be a *PersistedMeta,
// *PersistedCounter or *PersistedNode; the page table is expected to put
// the record behind page id 0, 1 or >=2 respectively.
func AllocResident(rec any) ResidentHandle {
	switch rec.(type) {
	case *PersistedMeta, *PersistedCounter, *PersistedNode:
	default:
		panic(fmt.Sprintf("pagecache: AllocResident called with %T", rec))
	}
	return ResidentHandle(residents.insert(rec))
}
