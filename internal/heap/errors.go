package heap

import "errors"

var (
	ErrChecksumMismatch = errors.New("checksum does not match")
	ErrSlabOutOfRange   = errors.New("slab index out of range")
	ErrSlotOutOfRange   = errors.New("slot index past end of slab")
	ErrValueTooLarge    = errors.New("value does not fit in any slab")
	ErrStoreClosed      = errors.New("heap store is closed")
)
