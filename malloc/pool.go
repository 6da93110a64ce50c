// Functions and methods are not thread safe, arena takes the bridge's
// allocator lock around every entry point that reaches them.

package malloc

import "unsafe"

// poolflist manages one window claimed from the region, sliced into
// equal sized chunks, with a stack of free chunk indexes. Windows are
// never returned to the region. Chunk addresses are derived from the
// window base with unsafe.Add so they stay inside the reservation the
// runtime knows about.
type poolflist struct {
	// 64-bit aligned stats
	mallocated int64

	arena    *Arena
	base     unsafe.Pointer // start of the claimed window
	size     int64          // chunk size, owner header included
	capacity int64          // size * number of chunks
	freelist []uint16
	freeoff  int
	next     *poolflist
}

// window claimed from the region, chunk size and no. of chunks.
func newpoolflist(
	arena *Arena, base unsafe.Pointer,
	size, n int64, next *poolflist) *poolflist {

	pool := &poolflist{
		arena:    arena,
		base:     base,
		size:     size,
		capacity: size * n,
		freelist: make([]uint16, n),
		freeoff:  int(n - 1),
		next:     next,
	}
	for i := int64(0); i < n; i++ {
		pool.freelist[i] = uint16(i)
	}
	return pool
}

// allocchunk pop a free chunk, stamp its owner header and hand out the
// window past the header.
func (pool *poolflist) allocchunk() (unsafe.Pointer, bool) {
	if pool.freeoff < 0 {
		return nil, false
	}
	nthchunk := int64(pool.freelist[pool.freeoff])
	pool.freelist = pool.freelist[:pool.freeoff]
	pool.freeoff--
	chunk := unsafe.Add(pool.base, nthchunk*pool.size)
	mask := uintptr(Alignment - 1)
	if (uintptr(chunk) & mask) != 0 {
		panicerr("chunk %p is not %v byte aligned", chunk, Alignment)
	}
	initblock(chunk, pool.size)
	*(**poolflist)(chunk) = pool
	pool.mallocated += pool.size
	pool.arena.allocated += pool.size
	return unsafe.Add(chunk, Chunkheader), true
}

// free push the chunk holding `ptr` back on the free list.
func (pool *poolflist) free(ptr unsafe.Pointer) {
	chunk := unsafe.Add(ptr, -Chunkheader)
	diffptr := uint64(uintptr(chunk) - uintptr(pool.base))
	if (diffptr % uint64(pool.size)) != 0 {
		panicerr("free of unaligned pointer: %x,%v", diffptr, pool.size)
	}
	nthchunk := uint16(diffptr / uint64(pool.size))
	pool.freelist = append(pool.freelist, nthchunk)
	pool.freeoff++
	pool.mallocated -= pool.size
	pool.arena.allocated -= pool.size
}

func (pool *poolflist) info() (capacity, alloc, overhead int64) {
	self := int64(unsafe.Sizeof(*pool))
	slicesz := int64(cap(pool.freelist)) * int64(unsafe.Sizeof(uint16(0)))
	return pool.capacity, pool.mallocated, self + slicesz
}
