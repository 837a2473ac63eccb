package pagecache

import (
	"fmt"
	"iter"

	"go.pageloc/internal/epoch"
)

// PointerRead is the decoded, read-only view of a PagePointer. For
// memory-resident kinds it borrows the addressed record, so it stays
// valid only while the epoch guard that covered the Read is held.
type PointerRead struct {
	kind      PointerKind
	class     SizeClass
	base      TruncatedLogOffset
	heapIndex uint32
	handle    uint64
	rec       any
}

func (r PointerRead) Kind() PointerKind {
	return r.kind
}

// LogOffsetEntries enumerates every log offset reachable from this
// pointer, for segment liveness analysis. The sequence is finite and
// built fresh on each call.
//
// Heap pointers reach nothing. Log and Free pointers reach their embedded
// offset. LogAndHeap reaches the offset in the combined record. InMemory
// depends on the page id: the meta and counter singletons reach their
// base offset, a node reaches its base offset and then every fragment
// offset in insertion order, skipping heap-only fragments.
func (r PointerRead) LogOffsetEntries(pid PageID) iter.Seq[LogOffset] {
	return func(yield func(LogOffset) bool) {
		switch r.kind {
		case KindHeap:
		case KindLog, KindFree:
			yield(r.base.LogOffset())
		case KindLogAndHeap:
			yield(r.AsLogAndHeap().Lid())
		case KindInMemory:
			switch pid {
			case 0:
				if at, ok := r.AsMeta().Base.LogOffset(); ok {
					yield(at)
				}
			case 1:
				if at, ok := r.AsCounter().Base.LogOffset(); ok {
					yield(at)
				}
			default:
				r.AsNode().LogOffsets()(yield)
			}
		}
	}
}

// ExistsOnSegment reports whether any reachable offset falls inside the
// segment containing the given offset. The compactor uses this to decide
// whether a page must be rewritten before the segment is reclaimed.
func (r PointerRead) ExistsOnSegment(segment LogOffset, segmentSize uint64, pid PageID) bool {
	sid := uint64(segment) / segmentSize
	for at := range r.LogOffsetEntries(pid) {
		if uint64(at)/segmentSize == sid {
			return true
		}
	}
	return false
}

// DeferDestroy hands the addressed record to the collector, to be
// destroyed once no guard active right now could still observe it. Only
// memory-resident kinds own a record; the rest are a no-op. Must be
// called exactly once per superseded pointer value, by the thread whose
// compare-and-swap replaced it.
func (r PointerRead) DeferDestroy(g *epoch.Guard) {
	switch r.kind {
	case KindInMemory, KindLogAndHeap:
		h := r.handle
		g.Defer(func() {
			residents.release(h)
		})
	}
}

func (r PointerRead) IsFree() bool {
	return r.kind == KindFree
}

// EncodedSize is the size class's power-of-two size; a Free pointer
// occupies nothing.
func (r PointerRead) EncodedSize() uint64 {
	if r.kind == KindFree {
		return 0
	}
	return r.class.Size()
}

func (r PointerRead) AsLogAndHeap() *LogAndHeap {
	if r.kind != KindLogAndHeap {
		panic(fmt.Sprintf("pagecache: AsLogAndHeap called on %s read", r.kind))
	}
	return r.rec.(*LogAndHeap)
}

func (r PointerRead) AsNode() *PersistedNode {
	if r.kind != KindInMemory {
		panic(fmt.Sprintf("pagecache: AsNode called on %s read", r.kind))
	}
	n, ok := r.rec.(*PersistedNode)
	if !ok {
		panic(fmt.Sprintf("pagecache: AsNode called on a %T record", r.rec))
	}
	return n
}

func (r PointerRead) AsMeta() *PersistedMeta {
	if r.kind != KindInMemory {
		panic(fmt.Sprintf("pagecache: AsMeta called on %s read", r.kind))
	}
	m, ok := r.rec.(*PersistedMeta)
	if !ok {
		panic(fmt.Sprintf("pagecache: AsMeta called on a %T record", r.rec))
	}
	return m
}

func (r PointerRead) AsCounter() *PersistedCounter {
	if r.kind != KindInMemory {
		panic(fmt.Sprintf("pagecache: AsCounter called on %s read", r.kind))
	}
	c, ok := r.rec.(*PersistedCounter)
	if !ok {
		panic(fmt.Sprintf("pagecache: AsCounter called on a %T record", r.rec))
	}
	return c
}

func (r PointerRead) String() string {
	switch r.kind {
	case KindInMemory, KindLogAndHeap:
		return fmt.Sprintf("PointerRead{%s, handle: %#x, size: %d}", r.kind, r.handle, r.class.Size())
	case KindHeap:
		return fmt.Sprintf("PointerRead{%s, index: %d, size: %d}", r.kind, r.heapIndex, r.class.Size())
	case KindLog:
		return fmt.Sprintf("PointerRead{%s, offset: %d, size: %d}", r.kind, r.base.LogOffset(), r.class.Size())
	case KindFree:
		return fmt.Sprintf("PointerRead{%s, offset: %d}", r.kind, r.base.LogOffset())
	default:
		return fmt.Sprintf("PointerRead{%s}", r.kind)
	}
}
