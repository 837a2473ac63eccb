package pagecache

import "errors"

var (
	// decode
	ErrUnassignedPointer  = errors.New("pointer is unassigned")
	ErrUnknownPointerKind = errors.New("unknown pointer kind")
)
