package pagecache_test

import (
	"testing"

	"go.pageloc/internal/pagecache"
)

func mustPanic(t *testing.T, msg string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("%s: expected a panic", msg)
		}
	}()
	fn()
}

func TestTruncatedLogOffsetRoundTrip(t *testing.T) {
	offsets := []pagecache.LogOffset{0, 1, 4096, 1<<32 + 7, pagecache.MaxLogOffset}
	for _, at := range offsets {
		got := pagecache.TruncateLogOffset(at).LogOffset()
		if got != at {
			t.Fatalf("round trip of %d came back as %d", at, got)
		}
	}
}

func TestTruncatedLogOffsetBound(t *testing.T) {
	// the last representable offset encodes, one past it fails fast
	pagecache.TruncateLogOffset(pagecache.MaxLogOffset)

	mustPanic(t, "offset at 2^48", func() {
		pagecache.TruncateLogOffset(pagecache.MaxLogOffset + 1)
	})
}
