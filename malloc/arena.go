package malloc

import "sort"
import "unsafe"

import "github.com/DRNadler/FreeRTOS-helpers/api"
import "github.com/DRNadler/FreeRTOS-helpers/sched"
import s "github.com/bnclabs/gosettings"

// Arena implements api.Mallocer{} over a heap region: slab sized pools
// whose backing windows are claimed through the api.Grower, with the
// api.Locker held across every allocation and free. Accounting fields
// are consistent only under that lock.
type Arena struct {
	// 64-bit aligned stats
	heapbytes int64 // bytes drawn through the grower
	allocated int64 // bytes handed out, chunk headers included

	slabs  []int64 // sorted list of slab sizes in this arena
	mpools map[int64]*poolflist
	grower api.Grower
	locker api.Locker

	// settings
	capacity int64 // region size, sizes the pools
	minslab  int64
	maxslab  int64
	setts    s.Settings
}

// NewArena create a new arena drawing raw memory from `grower`,
// serialized by `locker`. `capacity` should be the backing region's
// size, it decides pool dimensions.
func NewArena(
	grower api.Grower, locker api.Locker,
	capacity int64, setts s.Settings) *Arena {

	arena := &Arena{grower: grower, locker: locker, capacity: capacity}
	setts = make(s.Settings).Mixin(Defaultsettings(32, 1024), setts)
	arena.minslab = setts.Int64("minslab")
	arena.maxslab = setts.Int64("maxslab")
	arena.slabs = Slabsizes(arena.minslab, arena.maxslab)
	if int64(len(arena.slabs)) > Maxpools {
		panicerr("number of slabs %v exceeds %v", len(arena.slabs), Maxpools)
	}
	arena.mpools = make(map[int64]*poolflist)
	arena.setts = setts
	return arena
}

//---- operations

// Alloc implement api.Mallocer{} interface.
func (arena *Arena) Alloc(t *sched.Task, n int64) unsafe.Pointer {
	arena.locker.MallocLock(t)
	defer arena.locker.MallocUnlock(t)

	if arena.mpools == nil {
		panicerr("arena released")
	}
	n += Chunkheader
	if largest := arena.slabs[len(arena.slabs)-1]; n > largest {
		panicerr("Alloc size %v exceeds maxslab %v", n-Chunkheader, largest)
	}
	size := SuitableSlab(arena.slabs, n)
	for pool := arena.mpools[size]; pool != nil; pool = pool.next {
		if ptr, ok := pool.allocchunk(); ok {
			return ptr
		}
	}
	pool, err := arena.newpool(t, size)
	if err != nil {
		return nil // out-of-memory policy already ran in the Sbrk path
	}
	ptr, _ := pool.allocchunk()
	return ptr
}

// Free implement api.Mallocer{} interface.
func (arena *Arena) Free(t *sched.Task, ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	arena.locker.MallocLock(t)
	defer arena.locker.MallocUnlock(t)

	chunkpool(ptr).free(ptr)
}

// Release implement api.Mallocer{} interface. Marks the arena dead;
// claimed windows stay with the region, which never shrinks.
func (arena *Arena) Release() {
	arena.slabs, arena.mpools = nil, nil
}

// newpool claim a fresh window for `size` chunks. Pool dimensions
// shrink when the region's tail cannot fit the preferred window, down
// to a single chunk before giving up.
func (arena *Arena) newpool(t *sched.Task, size int64) (*poolflist, error) {
	numchunks := arena.numchunks(size)
	base, err := arena.grower.Sbrk(t, size*numchunks)
	for err != nil && numchunks > 1 {
		numchunks = numchunks >> 1
		base, err = arena.grower.Sbrk(t, size*numchunks)
	}
	if err != nil {
		return nil, err
	}
	pool := newpoolflist(arena, base, size, numchunks, arena.mpools[size])
	arena.mpools[size] = pool
	arena.heapbytes += size * numchunks
	return pool, nil
}

// pool dimensions: an even share of the region per slab size, capped
// by Maxchunks, rounded to a multiple of 8 chunks.
func (arena *Arena) numchunks(size int64) int64 {
	numchunks := (arena.capacity / int64(len(arena.slabs))) / size
	if numchunks > Maxchunks {
		numchunks = Maxchunks
	}
	if (numchunks & 0x7) > 0 {
		numchunks = (numchunks >> 3) << 3
	}
	if numchunks < 8 {
		numchunks = 8
	}
	return numchunks
}

//---- statistics and maintenance

// Slabs implement api.Mallocer{} interface.
func (arena *Arena) Slabs() []int64 {
	return arena.slabs
}

// Slabsize implement api.Mallocer{} interface.
func (arena *Arena) Slabsize(ptr unsafe.Pointer) int64 {
	return chunkpool(ptr).size
}

// Chunklen implement api.Mallocer{} interface.
func (arena *Arena) Chunklen(ptr unsafe.Pointer) int64 {
	return chunkpool(ptr).size - Chunkheader
}

// Info implement api.Mallocer{} interface.
func (arena *Arena) Info() (capacity, heap, alloc, overhead int64) {
	self := int64(unsafe.Sizeof(*arena))
	slicesz := int64(cap(arena.slabs)) * int64(unsafe.Sizeof(int64(1)))
	overhead = self + slicesz
	for _, pool := range arena.mpools {
		for ; pool != nil; pool = pool.next {
			_, _, o := pool.info()
			overhead += o
		}
	}
	return arena.capacity, arena.heapbytes, arena.allocated, overhead
}

// Utilization implement api.Mallocer{} interface.
func (arena *Arena) Utilization() ([]int, []float64) {
	var sizes []int
	for _, size := range arena.slabs {
		sizes = append(sizes, int(size))
	}
	sort.Ints(sizes)

	ss, zs := make([]int, 0), make([]float64, 0)
	for _, size := range sizes {
		capacity, allocated := float64(0), float64(0)
		for pool := arena.mpools[int64(size)]; pool != nil; pool = pool.next {
			capacity += float64(pool.capacity)
			allocated += float64(pool.mallocated)
		}
		if capacity > 0 {
			ss = append(ss, size)
			zs = append(zs, (allocated/capacity)*100)
		}
	}
	return ss, zs
}

// owner pool from the chunk header just below the application window.
func chunkpool(ptr unsafe.Pointer) *poolflist {
	return *(**poolflist)(unsafe.Add(ptr, -Chunkheader))
}
