package pagetable

import (
	"errors"
	"sync/atomic"

	"go.pageloc/internal/epoch"
	"go.pageloc/internal/pagecache"
)

var ErrPageOutOfRange = errors.New("page id out of range")

// Table holds one pointer per page id as raw bits in an atomic word.
// Lock-free by construction: all updates go through compare-and-swap, and
// a thread that wins a swap owes the old value a DeferDestroy so readers
// that already decoded it stay safe until the epoch moves on.
type Table struct {
	slots []atomic.Uint64
}

func New(capacity uint64) *Table {
	t := &Table{slots: make([]atomic.Uint64, capacity)}

	unassigned := pagecache.Unassigned().Bits()
	for i := range t.slots {
		t.slots[i].Store(unassigned)
	}
	return t
}

func (t *Table) Len() uint64 {
	return uint64(len(t.slots))
}

// Get loads the current pointer for pid. The guard pins the epoch so a
// subsequent Read of a memory-resident pointer stays valid.
func (t *Table) Get(pid pagecache.PageID, g *epoch.Guard) (pagecache.PagePointer, error) {
	if g == nil {
		panic("pagetable: Get without a pinned guard")
	}
	if uint64(pid) >= uint64(len(t.slots)) {
		return pagecache.PagePointer{}, ErrPageOutOfRange
	}
	return pagecache.FromBits(t.slots[pid].Load()), nil
}

// CompareAndSwap installs next if pid still holds old. On success the old
// value's record, if it owned one, is handed to the collector; the caller
// must not destroy it again.
func (t *Table) CompareAndSwap(pid pagecache.PageID, old, next pagecache.PagePointer, g *epoch.Guard) (bool, error) {
	if g == nil {
		panic("pagetable: CompareAndSwap without a pinned guard")
	}
	if uint64(pid) >= uint64(len(t.slots)) {
		return false, ErrPageOutOfRange
	}

	if !t.slots[pid].CompareAndSwap(old.Bits(), next.Bits()) {
		return false, nil
	}

	// the sentinel decodes to an error and owns nothing
	if read, err := old.Read(); err == nil {
		read.DeferDestroy(g)
	}
	return true, nil
}

// Free retires pid to a free pointer at the reclaimed log position and
// returns the marker wrapping whatever it superseded.
func (t *Table) Free(pid pagecache.PageID, at pagecache.LogOffset, g *epoch.Guard) (pagecache.PersistedFree, error) {
	freed := pagecache.NewFree(at)
	for {
		old, err := t.Get(pid, g)
		if err != nil {
			return pagecache.PersistedFree{}, err
		}

		ok, err := t.CompareAndSwap(pid, old, freed, g)
		if err != nil {
			return pagecache.PersistedFree{}, err
		}
		if ok {
			return pagecache.PersistedFree{PagePointer: old}, nil
		}
	}
}
