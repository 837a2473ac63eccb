package heap

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/ristretto/v2"

	"go.pageloc/internal/logger"
)

// Store keeps oversized values out of line from the log, in one file per
// size-classed slab. Slots are fixed-size, so a freed slot can be handed
// straight to the next value of the same class.
//
// Slot layout on disk:
// Checksum: uint64 (xxhash of the payload)
// Length:   uint32
// Payload:  []byte, zero padded to the slab's slot size

const maxSlabs = 8

type Store struct {
	dir   string
	log   *logger.Logger
	cache *ristretto.Cache[uint64, []byte]

	mu     sync.Mutex
	slabs  [maxSlabs]*slab
	closed bool
}

type slab struct {
	file *os.File
	next uint32
	// freed slots are tracked in memory only; recovery rebuilds the list
	// from the log, the store never persists it
	free []uint32
}

const slotHeaderSize = 12

func slotStride(k uint8) int64 {
	return slotHeaderSize + int64(ID{Slab: k}.SlabSize())
}

func Open(dir string, cacheBytes int64, log *logger.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	cache, err := ristretto.NewCache(&ristretto.Config[uint64, []byte]{
		NumCounters: 1e6,
		MaxCost:     cacheBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return &Store{
		dir:   dir,
		log:   log,
		cache: cache,
	}, nil
}

func cacheKey(id ID) uint64 {
	return uint64(id.Slab)<<32 | uint64(id.Index)
}

// slabFor picks the smallest slab whose slots hold n bytes
func slabFor(n int) (uint8, error) {
	e := MinTrailingZeros
	if n > 1<<MinTrailingZeros {
		e = bits.Len64(uint64(n) - 1)
	}
	if e-MinTrailingZeros >= maxSlabs {
		return 0, fmt.Errorf("%w (%d bytes)", ErrValueTooLarge, n)
	}
	return uint8(e - MinTrailingZeros), nil
}

// getSlab opens the slab file on first use. Caller holds s.mu.
func (s *Store) getSlab(k uint8) (*slab, error) {
	if sl := s.slabs[k]; sl != nil {
		return sl, nil
	}

	path := filepath.Join(s.dir, fmt.Sprintf("slab-%02d", k))
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	sl := &slab{
		file: f,
		next: uint32(info.Size() / slotStride(k)),
	}
	s.slabs[k] = sl
	s.log.Debugf("opened slab %d with %d slots", k, sl.next)
	return sl, nil
}

// Write stores data in the smallest slab that fits it and returns the
// slot coordinates. Freed slots are reused before the slab grows.
func (s *Store) Write(data []byte) (ID, error) {
	k, err := slabFor(len(data))
	if err != nil {
		return ID{}, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ID{}, ErrStoreClosed
	}
	sl, err := s.getSlab(k)
	if err != nil {
		s.mu.Unlock()
		return ID{}, err
	}

	var index uint32
	if n := len(sl.free); n > 0 {
		index = sl.free[n-1]
		sl.free = sl.free[:n-1]
	} else {
		index = sl.next
		sl.next++
	}
	s.mu.Unlock()

	buf := make([]byte, slotStride(k))
	binary.LittleEndian.PutUint64(buf[0:8], xxhash.Sum64(data))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(data)))
	copy(buf[slotHeaderSize:], data)

	if _, err := sl.file.WriteAt(buf, int64(index)*slotStride(k)); err != nil {
		return ID{}, err
	}

	return ID{Slab: k, Index: index}, nil
}

// Read returns the payload at id, verifying its checksum. Hot slots come
// out of the read cache; callers must not mutate the returned slice.
func (s *Store) Read(id ID) ([]byte, error) {
	if id.Slab >= maxSlabs {
		return nil, fmt.Errorf("%w: %d", ErrSlabOutOfRange, id.Slab)
	}

	if data, ok := s.cache.Get(cacheKey(id)); ok {
		return data, nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrStoreClosed
	}
	sl, err := s.getSlab(id.Slab)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if id.Index >= sl.next {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %d", ErrSlotOutOfRange, id.Index)
	}
	s.mu.Unlock()

	buf := make([]byte, slotStride(id.Slab))
	if _, err := sl.file.ReadAt(buf, int64(id.Index)*slotStride(id.Slab)); err != nil {
		return nil, err
	}

	sum := binary.LittleEndian.Uint64(buf[0:8])
	length := binary.LittleEndian.Uint32(buf[8:12])
	if uint64(length) > id.SlabSize() {
		return nil, fmt.Errorf("%w (%s)", ErrChecksumMismatch, id)
	}

	data := buf[slotHeaderSize : slotHeaderSize+int(length)]
	if xxhash.Sum64(data) != sum {
		s.log.Errorf("Read: checksum mismatch on %s", id)
		return nil, fmt.Errorf("%w (%s)", ErrChecksumMismatch, id)
	}

	s.cache.Set(cacheKey(id), data, int64(len(data)))
	return data, nil
}

// Free returns the slot to its slab free list
func (s *Store) Free(id ID) error {
	if id.Slab >= maxSlabs {
		return fmt.Errorf("%w: %d", ErrSlabOutOfRange, id.Slab)
	}

	s.cache.Del(cacheKey(id))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	sl, err := s.getSlab(id.Slab)
	if err != nil {
		return err
	}
	if id.Index >= sl.next {
		return fmt.Errorf("%w: %d", ErrSlotOutOfRange, id.Index)
	}

	sl.free = append(sl.free, id.Index)
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var firstErr error
	for _, sl := range s.slabs {
		if sl == nil {
			continue
		}
		if err := sl.file.Sync(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := sl.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	s.cache.Close()
	return firstErr
}
