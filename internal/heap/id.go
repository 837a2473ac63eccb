package heap

import "fmt"

// MinTrailingZeros is the slab floor: no slab holds slots smaller than
// 1<<MinTrailingZeros bytes, so slab k stores slots of
// 1<<(k+MinTrailingZeros) bytes and a size-class exponent maps to a slab
// by subtracting the floor.
const MinTrailingZeros = 15

// ID addresses one slot in the heap store
type ID struct {
	Slab  uint8
	Index uint32
}

func (id ID) SlabSize() uint64 {
	return 1 << (uint64(id.Slab) + MinTrailingZeros)
}

func (id ID) String() string {
	return fmt.Sprintf("heap.ID{slab: %d, index: %d}", id.Slab, id.Index)
}

// SlabForExponent converts a size-class exponent to its slab.
// Exponents below the floor have no slab and are a contract violation.
func SlabForExponent(e uint8) uint8 {
	if e < MinTrailingZeros {
		panic(fmt.Sprintf("heap: size class exponent %d is below the slab floor %d", e, MinTrailingZeros))
	}
	return e - MinTrailingZeros
}
