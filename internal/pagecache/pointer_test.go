package pagecache_test

import (
	"testing"

	"go.pageloc/internal/epoch"
	"go.pageloc/internal/heap"
	"go.pageloc/internal/pagecache"
)

func TestBitsRoundTrip(t *testing.T) {
	g := epoch.Pin()
	defer g.Release()

	handle := pagecache.AllocResident(&pagecache.PersistedNode{})

	pointers := []pagecache.PagePointer{
		pagecache.Unassigned(),
		pagecache.NewFree(4096),
		pagecache.NewLog(pagecache.KindLog, pagecache.SizeClassFor(900), 8192),
		pagecache.NewHeap(heap.ID{Slab: 3, Index: 42}),
		pagecache.NewInMemory(pagecache.SizeClassFor(128), handle),
		pagecache.NewLogAndHeap(g, pagecache.SizeClassFor(1<<16), 1<<20, heap.ID{Slab: 1, Index: 9}, 77),
	}

	for _, p := range pointers {
		if got := pagecache.FromBits(p.Bits()); got != p {
			t.Fatalf("FromBits(Bits(%s)) = %s", p, got)
		}
	}
}

func TestKindIsolation(t *testing.T) {
	g := epoch.Pin()
	defer g.Release()

	handle := pagecache.AllocResident(&pagecache.PersistedNode{})

	cases := []struct {
		name string
		p    pagecache.PagePointer
		kind pagecache.PointerKind
	}{
		{"in-memory", pagecache.NewInMemory(0, handle), pagecache.KindInMemory},
		{"heap", pagecache.NewHeap(heap.ID{Slab: 0, Index: 1}), pagecache.KindHeap},
		{"log", pagecache.NewLog(pagecache.KindLog, 4, 512), pagecache.KindLog},
		{"log-and-heap", pagecache.NewLogAndHeap(g, 16, 512, heap.ID{Slab: 0, Index: 2}, 1), pagecache.KindLogAndHeap},
		{"free", pagecache.NewFree(512), pagecache.KindFree},
	}

	for _, tc := range cases {
		read, err := tc.p.Read()
		if err != nil {
			t.Fatalf("%s: Read failed: %v", tc.name, err)
		}
		if read.Kind() != tc.kind {
			t.Fatalf("%s: decoded as %s, want %s", tc.name, read.Kind(), tc.kind)
		}

		if tc.kind != pagecache.KindHeap {
			mustPanic(t, tc.name+": HeapID", func() { tc.p.HeapID() })
		}
		if tc.kind != pagecache.KindLogAndHeap {
			mustPanic(t, tc.name+": AsLogAndHeap", func() { read.AsLogAndHeap() })
		}
		if tc.kind != pagecache.KindInMemory {
			mustPanic(t, tc.name+": AsNode", func() { read.AsNode() })
		}

		if _, ok := tc.p.LogOffset(); ok != (tc.kind == pagecache.KindLog || tc.kind == pagecache.KindFree) {
			t.Fatalf("%s: LogOffset present = %v", tc.name, ok)
		}
	}
}

func TestNewLogKindIsExplicit(t *testing.T) {
	p := pagecache.NewLog(pagecache.KindLog, 4, 2048)
	if p.Kind() != pagecache.KindLog {
		t.Fatalf("NewLog tagged the pointer %s", p.Kind())
	}
	if !p.IsInline() {
		t.Fatal("a log-only pointer must be inline")
	}
	if !p.IsMergedIntoSnapshot() {
		t.Fatal("a log-only pointer is safe to persist")
	}

	// an offset payload must never masquerade as a record handle
	mustPanic(t, "NewLog with LogAndHeap kind", func() {
		pagecache.NewLog(pagecache.KindLogAndHeap, 4, 2048)
	})
	mustPanic(t, "NewLog with Free kind", func() {
		pagecache.NewLog(pagecache.KindFree, 4, 2048)
	})
}

func TestUnassignedReadIsHandled(t *testing.T) {
	if _, err := pagecache.Unassigned().Read(); err != pagecache.ErrUnassignedPointer {
		t.Fatalf("Read on the sentinel returned %v", err)
	}

	var corrupt pagecache.PagePointer
	corrupt[7] = 9
	if _, err := corrupt.Read(); err == nil {
		t.Fatal("Read accepted an undefined discriminant")
	}
}

func TestHeapPointerRoundTrip(t *testing.T) {
	p := pagecache.NewHeap(heap.ID{Slab: 2, Index: 7})

	id := p.HeapID()
	if id.Slab != 2 || id.Index != 7 {
		t.Fatalf("HeapID came back as %s", id)
	}
	if !p.IsHeapResident() {
		t.Fatal("heap pointer does not report heap residency")
	}

	read, err := p.Read()
	if err != nil {
		t.Fatal(err)
	}
	want := uint64(1) << (2 + heap.MinTrailingZeros)
	if got := read.EncodedSize(); got != want {
		t.Fatalf("EncodedSize() = %d, want %d", got, want)
	}
}

func TestFreeScenario(t *testing.T) {
	p := pagecache.NewFree(4096)

	read, err := p.Read()
	if err != nil {
		t.Fatal(err)
	}
	if !read.IsFree() {
		t.Fatal("free pointer does not read as free")
	}
	at, ok := p.LogOffset()
	if !ok || at != 4096 {
		t.Fatalf("LogOffset() = %d, %v", at, ok)
	}
	if read.EncodedSize() != 0 {
		t.Fatalf("EncodedSize() = %d on a free pointer", read.EncodedSize())
	}
}

func TestForgetHeapLogCoordinatesIdempotent(t *testing.T) {
	g := epoch.Pin()
	defer g.Release()

	id := heap.ID{Slab: 1, Index: 33}
	orig := pagecache.NewLogAndHeap(g, 16, 9000, id, 5)

	p := orig
	p.ForgetHeapLogCoordinates()
	if p.Kind() != pagecache.KindHeap {
		t.Fatalf("collapsed to %s, want Heap", p.Kind())
	}
	if got := p.HeapID(); got != id {
		t.Fatalf("collapsed pointer addresses %s, want %s", got, id)
	}

	once := p
	p.ForgetHeapLogCoordinates()
	if p != once {
		t.Fatalf("second application changed the pointer: %s != %s", p, once)
	}

	// the combined record is still owned by the original value
	read, err := orig.Read()
	if err != nil {
		t.Fatal(err)
	}
	read.DeferDestroy(g)
}

func TestInMemoryDowncasts(t *testing.T) {
	g := epoch.Pin()

	node := &pagecache.PersistedNode{Node: pagecache.Node{Data: []byte("n")}, TS: 3}
	p := pagecache.NewInMemory(pagecache.SizeClassFor(64), pagecache.AllocResident(node))

	read, err := p.Read()
	if err != nil {
		t.Fatal(err)
	}
	if read.AsNode() != node {
		t.Fatal("AsNode did not return the published record")
	}
	mustPanic(t, "AsMeta on a node record", func() { read.AsMeta() })
	mustPanic(t, "AsCounter on a node record", func() { read.AsCounter() })

	read.DeferDestroy(g)

	// the record stays reachable while the guard is held
	if _, err := p.Read(); err != nil {
		t.Fatal(err)
	}

	g.Release()

	// reclaimed now, resolving the handle is a hard failure
	mustPanic(t, "Read after reclamation", func() { _, _ = p.Read() })
}
