package heap

import "unsafe"

import "github.com/DRNadler/FreeRTOS-helpers/api"

// Maxregionsize maximum size of a heap region. Can be used as default
// capacity for NewRegion().
const Maxregionsize = int64(1024 * 1024 * 1024 * 1024) // 1TB

// Region owns the bounded address range shared by every task's dynamic
// allocation, and the monotone boundary between memory already handed
// to the downstream allocator and memory not yet claimed. The boundary
// never retreats. Book-keeping is held as offsets into the reservation
// and materialized as pointers only at the point of use, so claimed
// windows are always addresses the runtime can account for. Not thread
// safe: callers must hold the bridge's allocator critical section
// around Extend.
type Region struct {
	// 64-bit aligned stats
	nextends int64 // extension requests serviced
	sbrked   int64 // cumulative bytes claimed

	block  []byte // the reservation
	size   int64  // bytes usable by extension, reserve excluded
	curend int64  // offset of the claim boundary within block

	remaining int64 // always size - curend
}

// NewRegion reserve a fresh region of `capacity` bytes, keeping the
// top `reserve` bytes out of reach of extension requests, the way an
// interrupt stack is carved off the top of the heap area.
func NewRegion(capacity, reserve int64) *Region {
	if capacity <= 0 {
		panicerr("region capacity %v, must be positive", capacity)
	} else if capacity > Maxregionsize {
		panicerr("region capacity %v exceeds %v", capacity, Maxregionsize)
	}
	return FromBuffer(make([]byte, capacity), reserve)
}

// FromBuffer adopt an externally supplied reservation, typically carved
// out by the host the way linker symbols carve out a heap area. The
// buffer must outlive the region.
func FromBuffer(block []byte, reserve int64) *Region {
	if len(block) == 0 {
		panicerr("region over empty buffer")
	} else if reserve < 0 || reserve >= int64(len(block)) {
		panicerr("reserve %v outside region of %v bytes", reserve, len(block))
	}
	size := int64(len(block)) - reserve
	return &Region{block: block, size: size, remaining: size}
}

// Extend claim `incr` more bytes from the unclaimed tail, returning the
// previous boundary, which is the start of the claimed window. Zero
// `incr` returns the current boundary; on a fully claimed region that
// boundary has no byte to address and the window is nil. Negative
// `incr` is caller misuse: the region never shrinks. On exhaustion
// nothing is mutated and ErrorOutofMemory is returned.
func (r *Region) Extend(incr int64) (unsafe.Pointer, error) {
	if incr < 0 {
		panicerr("region cannot shrink, extension of %v bytes", incr)
	}
	if incr > r.remaining {
		return nil, api.ErrorOutofMemory
	}
	prev := r.curend
	r.curend += incr
	r.remaining -= incr
	r.nextends++
	r.sbrked += incr
	if prev == int64(len(r.block)) { // zero incr, nothing left to address
		return nil, nil
	}
	return unsafe.Pointer(&r.block[prev]), nil
}

// Available bytes not yet claimed from the region.
func (r *Region) Available() int64 {
	return r.remaining
}

// Size of the region usable by extension requests.
func (r *Region) Size() int64 {
	return r.size
}

// Extended bytes claimed from the region so far.
func (r *Region) Extended() int64 {
	return r.curend
}

// Base address of the region, for diagnostics.
func (r *Region) Base() uintptr {
	return uintptr(unsafe.Pointer(&r.block[0]))
}

// Stats for this region.
func (r *Region) Stats() map[string]interface{} {
	return map[string]interface{}{
		"size":      r.size,
		"extended":  r.curend,
		"remaining": r.remaining,
		"nextends":  r.nextends,
		"sbrked":    r.sbrked,
	}
}
