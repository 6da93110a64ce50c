package heap

import "unsafe"
import "sync/atomic"

import "github.com/DRNadler/FreeRTOS-helpers/api"
import "github.com/DRNadler/FreeRTOS-helpers/sched"

// Accounting decorates a Mallocer with allocation-request counting, to
// help debug who requests memory and how much. Composed at
// initialization via the "accounting" setting; everything forwards to
// the wrapped allocator unchanged. Counters only grow.
type Accounting struct {
	// 64-bit aligned stats
	ncalls int64 // allocation requests seen
	nbytes int64 // cumulative requested bytes

	malloc api.Mallocer
}

// NewAccounting wrap a Mallocer with request accounting.
func NewAccounting(m api.Mallocer) *Accounting {
	return &Accounting{malloc: m}
}

// Counts of allocation requests and cumulative requested bytes.
func (acc *Accounting) Counts() (calls, bytes int64) {
	return atomic.LoadInt64(&acc.ncalls), atomic.LoadInt64(&acc.nbytes)
}

//---- api.Mallocer{} interface.

// Alloc implement api.Mallocer{} interface.
func (acc *Accounting) Alloc(t *sched.Task, n int64) unsafe.Pointer {
	atomic.AddInt64(&acc.ncalls, 1)
	atomic.AddInt64(&acc.nbytes, n)
	return acc.malloc.Alloc(t, n)
}

// Free implement api.Mallocer{} interface.
func (acc *Accounting) Free(t *sched.Task, ptr unsafe.Pointer) {
	acc.malloc.Free(t, ptr)
}

// Slabs implement api.Mallocer{} interface.
func (acc *Accounting) Slabs() []int64 {
	return acc.malloc.Slabs()
}

// Slabsize implement api.Mallocer{} interface.
func (acc *Accounting) Slabsize(ptr unsafe.Pointer) int64 {
	return acc.malloc.Slabsize(ptr)
}

// Chunklen implement api.Mallocer{} interface.
func (acc *Accounting) Chunklen(ptr unsafe.Pointer) int64 {
	return acc.malloc.Chunklen(ptr)
}

// Release implement api.Mallocer{} interface.
func (acc *Accounting) Release() {
	acc.malloc.Release()
}

// Info implement api.Mallocer{} interface.
func (acc *Accounting) Info() (capacity, heap, alloc, overhead int64) {
	return acc.malloc.Info()
}

// Utilization implement api.Mallocer{} interface.
func (acc *Accounting) Utilization() ([]int, []float64) {
	return acc.malloc.Utilization()
}
