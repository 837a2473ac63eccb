package pagecache

import (
	"iter"

	"go.pageloc/internal/heap"
)

// Resident records are the heap-managed structures an InMemory or
// LogAndHeap payload addresses. They are immutable once published: an
// update builds a new record and swaps a new pointer into the page table,
// and the old record is only destroyed after the reclamation epoch has
// moved past every reader that could have observed it.

// Meta is the singleton page behind page id 0, mapping named trees to
// their root page ids.
type Meta struct {
	Roots map[string]PageID
}

// Node is the opaque payload of an ordinary page; interpreting it is the
// tree's business, not the page cache's.
type Node struct {
	Data []byte
}

// PersistedNode is a node plus its provenance chain: Base is the pointer
// the node was materialized from, Frags are applied but not yet merged
// delta pointers.
type PersistedNode struct {
	Node  Node
	Base  PagePointer
	Frags []PagePointer
	TS    uint64
}

// LogOffsets yields the base offset first, then fragment offsets in
// insertion order. Fragments without a log offset are skipped.
func (n *PersistedNode) LogOffsets() iter.Seq[LogOffset] {
	return func(yield func(LogOffset) bool) {
		if at, ok := n.Base.LogOffset(); ok {
			if !yield(at) {
				return
			}
		}
		for _, frag := range n.Frags {
			if at, ok := frag.LogOffset(); ok {
				if !yield(at) {
					return
				}
			}
		}
	}
}

// PersistedMeta is the resident record behind page id 0
type PersistedMeta struct {
	Meta Meta
	Base PagePointer
}

// PersistedCounter is the resident record behind page id 1
type PersistedCounter struct {
	Counter uint64
	Base    PagePointer
}

// PersistedFree marks a reclaimed slot, wrapping the pointer it superseded
type PersistedFree struct {
	PagePointer PagePointer
}

// LogAndHeap records both locations of a value that still exists in the
// log and in the heap store, before compaction consolidates it.
type LogAndHeap struct {
	LogOffset TruncatedLogOffset
	HeapID    heap.ID
	LogLSN    LSN
}

func (lh *LogAndHeap) Lid() LogOffset {
	return lh.LogOffset.LogOffset()
}

// PagePointer rebuilds the log-only pointer for this record, sized at the
// slab slot that backs it.
func (lh *LogAndHeap) PagePointer() PagePointer {
	return NewLog(KindLog, SizeClassFor(lh.HeapID.SlabSize()), lh.Lid())
}
