package pagecache

import (
	"encoding/binary"
	"fmt"
)

// LogOffset is a byte offset into the append-only log
type LogOffset uint64

// LSN is a monotonically increasing log write identifier
type LSN int64

// MaxLogOffset is the largest offset a pointer payload can carry; the low
// 48 bits are all that survive truncation.
const MaxLogOffset = LogOffset(1)<<48 - 1

// TruncatedLogOffset is a log offset narrowed to 6 little-endian bytes so
// it packs into a pointer payload alongside the size and kind bytes.
type TruncatedLogOffset [6]byte

// TruncateLogOffset narrows at to 48 bits. Offsets past MaxLogOffset
// cannot be encoded and indicate a corrupt caller, so this fails fast
// instead of silently dropping bits.
func TruncateLogOffset(at LogOffset) TruncatedLogOffset {
	if at > MaxLogOffset {
		panic(fmt.Sprintf("pagecache: log offset %d does not fit in 48 bits", at))
	}

	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(at))

	var t TruncatedLogOffset
	copy(t[:], b[:6])
	return t
}

func (t TruncatedLogOffset) LogOffset() LogOffset {
	var b [8]byte
	copy(b[:6], t[:])
	return LogOffset(binary.LittleEndian.Uint64(b[:]))
}
