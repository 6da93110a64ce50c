package api

import "unsafe"

import "github.com/DRNadler/FreeRTOS-helpers/sched"

// Mallocer interface for the downstream allocator the heap bridge
// forwards application allocations to. Implementations draw raw memory
// through a Grower and take the Locker around their own critical
// sections.
type Mallocer interface {
	// Slabs allocatable slab of sizes.
	Slabs() (sizes []int64)

	// Alloc allocate a chunk of `n` bytes on behalf of task. Allocated
	// memory is always 64-bit aligned. Returns nil when the backing
	// region is exhausted.
	Alloc(t *sched.Task, n int64) unsafe.Pointer

	// Slabsize return the size of the chunk's slab.
	Slabsize(ptr unsafe.Pointer) int64

	// Chunklen return the length of the chunk usable by application.
	Chunklen(ptr unsafe.Pointer) int64

	// Free chunk back to its pool. Safe on nil pointer. Never returns
	// memory to the backing region.
	Free(t *sched.Task, ptr unsafe.Pointer)

	// Release arena, all its pools and resources.
	Release()

	// Info of memory accounting for this arena. `heap` counts bytes
	// drawn from the Grower, `alloc` counts bytes handed to the
	// application, their difference is the allocator's free-block
	// estimate.
	Info() (capacity, heap, alloc, overhead int64)

	// Utilization map of slab-size and its utilization.
	Utilization() ([]int, []float64)
}

// Grower supplies raw contiguous memory from a bounded region, the
// program-break extension primitive. Implemented by the heap bridge.
type Grower interface {
	// Sbrk claim `incr` more bytes from the region's unclaimed tail,
	// returning a pointer to the start of the claimed window. On
	// exhaustion returns nil and ErrorOutofMemory after the bridge's
	// configured policy has run.
	Sbrk(t *sched.Task, incr int64) (unsafe.Pointer, error)
}

// Locker is the allocator lock a Mallocer must hold around every
// allocation and free, protecting both its internal structures and the
// region boundary. Implemented by the heap bridge. Fatal when acquired
// from an interrupt context.
type Locker interface {
	MallocLock(t *sched.Task)
	MallocUnlock(t *sched.Task)
}
