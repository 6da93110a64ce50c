package heap

import "fmt"
import "unsafe"

import "github.com/DRNadler/FreeRTOS-helpers/api"
import "github.com/DRNadler/FreeRTOS-helpers/sched"
import s "github.com/bnclabs/gosettings"
import humanize "github.com/dustin/go-humanize"

// Bridge glues one heap region, the scheduler's suspend/resume
// primitive and a downstream allocator into the runtime's allocation
// API. Control flow for a growing allocation:
//
//   Malloc -> Mallocer.Alloc -> Sbrk -> Region.Extend
//
// with the allocator lock held across the whole chain and the Sbrk
// critical section nested inside it.
type Bridge struct {
	name      string
	sched     *sched.Scheduler
	region    *Region
	allocator api.Mallocer
	hook      func()
	halt      func() // hardstop trap, injectable for tests

	// settings
	capacity   int64
	reserve    int64
	policy     OOMPolicy
	accounting bool
	setts      s.Settings
	logprefix  string
}

// NewBridge create a bridge over a freshly reserved region. Settings
// are documented in Defaultsettings.
func NewBridge(name string, scheduler *sched.Scheduler, setts s.Settings) *Bridge {
	b := newbridge(name, scheduler, setts)
	b.region = NewRegion(b.capacity, b.reserve)
	b.logboot()
	return b
}

// NewBridgeFrom create a bridge over an externally supplied
// reservation; the "capacity" setting is ignored and the buffer's size
// governs.
func NewBridgeFrom(
	name string, scheduler *sched.Scheduler,
	block []byte, setts s.Settings) *Bridge {

	b := newbridge(name, scheduler, setts)
	b.capacity = int64(len(block))
	b.region = FromBuffer(block, b.reserve)
	b.logboot()
	return b
}

func newbridge(name string, scheduler *sched.Scheduler, setts s.Settings) *Bridge {
	b := &Bridge{name: name, sched: scheduler}
	b.logprefix = fmt.Sprintf("HEAP [%s]", name)
	setts = make(s.Settings).Mixin(Defaultsettings(), setts)
	b.readsettings(setts)
	b.halt = func() { select {} }
	return b
}

func (b *Bridge) logboot() {
	infof(
		"%v boot with %v region, %v reserved, policy %q\n",
		b.logprefix, humanize.Bytes(uint64(b.capacity)),
		humanize.Bytes(uint64(b.reserve)), b.policy)
}

// SetAllocator attach the downstream allocator the runtime API forwards
// to, decorated with call accounting when the "accounting" setting is
// true. Returns the Mallocer actually installed.
func (b *Bridge) SetAllocator(m api.Mallocer) api.Mallocer {
	if b.accounting {
		m = NewAccounting(m)
	}
	b.allocator = m
	return m
}

// Region backing this bridge.
func (b *Bridge) Region() *Region {
	return b.region
}

//---- api.Grower{} interface.

// Sbrk implement api.Grower{} interface. Claims `incr` more bytes from
// the region inside its own critical section, normally nested inside
// the allocator lock already taken by the downstream allocator. On
// exhaustion the configured out-of-memory policy runs and the error is
// returned for the allocator to propagate as nil.
func (b *Bridge) Sbrk(t *sched.Task, incr int64) (unsafe.Pointer, error) {
	ptr, err := b.extend(t, incr)
	if err != nil {
		return nil, b.failed(t, incr)
	}
	debugf("%v sbrk %v -> %v remaining\n", b.logprefix, incr, b.region.Available())
	return ptr, nil
}

// critical section around the region, released even when Extend panics
// on caller misuse. The out-of-memory policy runs outside of it.
func (b *Bridge) extend(t *sched.Task, incr int64) (unsafe.Pointer, error) {
	b.sched.SuspendAll(t)
	defer b.sched.ResumeAll(t)
	return b.region.Extend(incr)
}

//---- runtime allocation API.

// Malloc allocate `size` bytes on behalf of task. Returns nil when the
// region is exhausted; the out-of-memory handling already happened
// inside the extension path, this call does not retry or report.
func (b *Bridge) Malloc(t *sched.Task, size int64) unsafe.Pointer {
	if b.allocator == nil {
		panicerr("%v no allocator attached", b.logprefix)
	}
	return b.allocator.Alloc(t, size)
}

// Free release an allocated chunk back to the downstream allocator.
// Safe on nil. Never returns memory to the region.
func (b *Bridge) Free(t *sched.Task, ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	if b.allocator == nil {
		panicerr("%v no allocator attached", b.logprefix)
	}
	b.allocator.Free(t, ptr)
}

// FreeHeapSize estimate of allocatable memory: the downstream
// allocator's free blocks plus region bytes not yet claimed. An
// approximation, since chunks sitting in the allocator's pools are
// counted by the allocator, not the region.
func (b *Bridge) FreeHeapSize(t *sched.Task) int64 {
	b.MallocLock(t)
	defer b.MallocUnlock(t)

	free := b.region.Available()
	if b.allocator != nil {
		_, heap, alloc, _ := b.allocator.Info()
		free += heap - alloc
	}
	return free
}

// InitialiseBlocks kept for callers expecting a pool-based allocator's
// initialization step. No-op.
func (b *Bridge) InitialiseBlocks() {
}

// ReleaseBlocks kept for callers expecting a pool-based allocator's
// teardown step. No-op: the region never shrinks.
func (b *Bridge) ReleaseBlocks() {
}

// Stats for this bridge and its region.
func (b *Bridge) Stats() map[string]interface{} {
	stats := b.region.Stats()
	stats["policy"] = b.policy.String()
	if acc, ok := b.allocator.(*Accounting); ok {
		calls, bytes := acc.Counts()
		stats["accounting.calls"] = calls
		stats["accounting.bytes"] = bytes
	}
	return stats
}
