package pagecache

import (
	"encoding/binary"
	"fmt"

	"go.pageloc/internal/epoch"
	"go.pageloc/internal/heap"
)

// PageID is the stable logical identifier of a page. Id 0 is the meta
// page, id 1 the monotonic counter, everything above is an ordinary node.
type PageID uint64

type PointerKind uint8

const (
	KindInMemory PointerKind = iota
	KindHeap
	KindLog
	KindLogAndHeap
	KindFree
	KindUnassigned
)

func (k PointerKind) String() string {
	switch k {
	case KindInMemory:
		return "InMemory"
	case KindHeap:
		return "Heap"
	case KindLog:
		return "Log"
	case KindLogAndHeap:
		return "LogAndHeap"
	case KindFree:
		return "Free"
	case KindUnassigned:
		return "Unassigned"
	default:
		return fmt.Sprintf("PointerKind(%d)", uint8(k))
	}
}

// PagePointer is the 8-byte location of a logical page. The page table
// stores one per page id and swaps it with compare-and-swap on the Bits
// form, so the whole location fits in a single atomic word.
//
// Byte layout:
// bytes 0-5: payload, meaning depends on the kind
// byte 6:    size class exponent
// byte 7:    kind discriminant
//
// InMemory and LogAndHeap payloads are 48-bit resident arena handles and
// own the record they address while they sit in the page table; once
// superseded the record goes to the epoch collector via DeferDestroy. The
// other kinds carry self-contained data and own nothing.
type PagePointer [8]byte

// Unassigned is the sentinel a fresh page table slot holds. Reading it is
// an error, never a payload interpretation.
func Unassigned() PagePointer {
	return PagePointer{7: byte(KindUnassigned)}
}

// FromBits reverses Bits, byte-exact
func FromBits(bits uint64) PagePointer {
	var p PagePointer
	binary.LittleEndian.PutUint64(p[:], bits)
	return p
}

// Bits returns the pointer as the integer the page table CASes on
func (p PagePointer) Bits() uint64 {
	return binary.LittleEndian.Uint64(p[:])
}

func (p PagePointer) Kind() PointerKind {
	return PointerKind(p[7])
}

func (p PagePointer) SizeClass() SizeClass {
	return SizeClass(p[6])
}

// payload48 widens the 6 payload bytes back to an integer
func (p PagePointer) payload48() uint64 {
	var b [8]byte
	copy(b[:6], p[:6])
	return binary.LittleEndian.Uint64(b[:])
}

func (p PagePointer) truncatedOffset() TruncatedLogOffset {
	var t TruncatedLogOffset
	copy(t[:], p[:6])
	return t
}

// pack asserts the payload fits 48 bits and writes the layout above
func pack(payload uint64, class SizeClass, kind PointerKind) PagePointer {
	if payload > maxHandle {
		panic(fmt.Sprintf("pagecache: payload %#x does not fit in 48 bits", payload))
	}

	var p PagePointer
	binary.LittleEndian.PutUint64(p[:], payload)
	p[6] = byte(class)
	p[7] = byte(kind)
	return p
}

// NewInMemory packs a pointer to a resident record previously published
// with AllocResident.
func NewInMemory(class SizeClass, rec ResidentHandle) PagePointer {
	if rec == 0 || uint64(rec) > maxHandle {
		panic(fmt.Sprintf("pagecache: invalid resident handle %#x", uint64(rec)))
	}
	return pack(uint64(rec), class, KindInMemory)
}

// NewHeap packs slab coordinates; the size class byte doubles as the slab
// index plus the floor, so the slab comes back out of HeapID without any
// extra payload bytes.
func NewHeap(id heap.ID) PagePointer {
	class := SizeClass(id.Slab + heap.MinTrailingZeros)
	return pack(uint64(id.Index), class, KindHeap)
}

// NewLog packs a pointer whose payload is a bare log offset. The kind is
// explicit at the call site and validated: only KindLog carries an offset
// payload. A LogAndHeap payload is a record handle that NewLogAndHeap
// allocates, so tagging an offset with it would make the pointer
// unreadable.
func NewLog(kind PointerKind, class SizeClass, at LogOffset) PagePointer {
	if kind != KindLog {
		panic(fmt.Sprintf("pagecache: NewLog cannot tag a bare offset as %s", kind))
	}
	t := TruncateLogOffset(at)

	var p PagePointer
	copy(p[:6], t[:])
	p[6] = byte(class)
	p[7] = byte(kind)
	return p
}

// NewFree marks a reclaimed log position. Free pointers carry no size.
func NewFree(at LogOffset) PagePointer {
	t := TruncateLogOffset(at)

	var p PagePointer
	copy(p[:6], t[:])
	p[7] = byte(KindFree)
	return p
}

// NewLogAndHeap is the one constructor with a side effect: it allocates
// the combined location record in the resident arena and packs its
// handle. The guard keeps the allocation inside a pinned epoch; the
// record is released when the thread that later supersedes this pointer
// calls DeferDestroy on it.
func NewLogAndHeap(g *epoch.Guard, class SizeClass, at LogOffset, id heap.ID, lsn LSN) PagePointer {
	if g == nil {
		panic("pagecache: NewLogAndHeap requires a pinned guard")
	}

	rec := &LogAndHeap{
		LogOffset: TruncateLogOffset(at),
		HeapID:    id,
		LogLSN:    lsn,
	}
	return pack(residents.insert(rec), class, KindLogAndHeap)
}

// Read decodes the pointer. It is total: the Unassigned sentinel and any
// discriminant outside the defined kinds come back as errors instead of
// being treated as unreachable. Decoding a memory-resident kind resolves
// the payload against the arena and is only valid under a held epoch
// guard; the other kinds are pure data extraction.
func (p PagePointer) Read() (PointerRead, error) {
	switch kind := p.Kind(); kind {
	case KindInMemory, KindLogAndHeap:
		h := p.payload48()
		return PointerRead{
			kind:   kind,
			class:  p.SizeClass(),
			handle: h,
			rec:    residents.resolve(h),
		}, nil
	case KindHeap:
		return PointerRead{
			kind:      kind,
			class:     p.SizeClass(),
			heapIndex: binary.LittleEndian.Uint32(p[0:4]),
		}, nil
	case KindLog:
		return PointerRead{
			kind:  kind,
			class: p.SizeClass(),
			base:  p.truncatedOffset(),
		}, nil
	case KindFree:
		return PointerRead{
			kind: kind,
			base: p.truncatedOffset(),
		}, nil
	case KindUnassigned:
		return PointerRead{}, ErrUnassignedPointer
	default:
		return PointerRead{}, fmt.Errorf("%w: %d", ErrUnknownPointerKind, p[7])
	}
}

// ForgetHeapLogCoordinates collapses a LogAndHeap pointer to a plain Heap
// pointer once the log copy is no longer needed after compaction,
// dropping the offset and lsn. No-op on every other kind, so applying it
// twice is the same as applying it once. The combined record itself is
// still released by whoever supersedes the original table value.
func (p *PagePointer) ForgetHeapLogCoordinates() {
	if p.Kind() != KindLogAndHeap {
		return
	}
	rec := residents.resolve(p.payload48()).(*LogAndHeap)
	*p = NewHeap(rec.HeapID)
}

// LogOffset returns the embedded offset of a Log or Free pointer
func (p PagePointer) LogOffset() (LogOffset, bool) {
	switch p.Kind() {
	case KindLog, KindFree:
		return p.truncatedOffset().LogOffset(), true
	}
	return 0, false
}

// IsHeapResident reports whether the payload lives in the heap store
func (p PagePointer) IsHeapResident() bool {
	kind := p.Kind()
	return kind == KindHeap || kind == KindLogAndHeap
}

// HeapID unpacks the slab coordinates of a Heap pointer. Calling it on
// any other kind is a contract violation.
func (p PagePointer) HeapID() heap.ID {
	if p.Kind() != KindHeap {
		panic(fmt.Sprintf("pagecache: HeapID called on %s pointer", p.Kind()))
	}
	return heap.ID{
		Slab:  heap.SlabForExponent(p.SizeClass().Exponent()),
		Index: binary.LittleEndian.Uint32(p[0:4]),
	}
}

// IsLoneLogAndHeap reports a value still present in both the log and the
// heap store, pre-compaction.
func (p PagePointer) IsLoneLogAndHeap() bool {
	return p.Kind() == KindLogAndHeap
}

// IsInline reports a value that lives solely in the log
func (p PagePointer) IsInline() bool {
	return p.Kind() == KindLog
}

// IsMergedIntoSnapshot reports whether the pointer needs no further
// handling before a snapshot writer may persist its location.
func (p PagePointer) IsMergedIntoSnapshot() bool {
	return p.Kind() != KindLogAndHeap
}

// String formats from the raw bytes only, so it is safe on pointers whose
// record has already been reclaimed.
func (p PagePointer) String() string {
	switch kind := p.Kind(); kind {
	case KindInMemory, KindLogAndHeap:
		return fmt.Sprintf("PagePointer{%s, handle: %#x, size: %d}", kind, p.payload48(), p.SizeClass().Size())
	case KindHeap:
		return fmt.Sprintf("PagePointer{%s, index: %d, size: %d}", kind, binary.LittleEndian.Uint32(p[0:4]), p.SizeClass().Size())
	case KindLog:
		return fmt.Sprintf("PagePointer{%s, offset: %d, size: %d}", kind, p.truncatedOffset().LogOffset(), p.SizeClass().Size())
	case KindFree:
		return fmt.Sprintf("PagePointer{%s, offset: %d}", kind, p.truncatedOffset().LogOffset())
	default:
		return fmt.Sprintf("PagePointer{%s}", kind)
	}
}
