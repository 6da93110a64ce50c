package heap

import "github.com/DRNadler/FreeRTOS-helpers/sched"

// Two named locks are exposed to the downstream allocator: the
// allocator lock, taken around every malloc/free and around region
// extension, and the environment lock, taken around global environment
// storage. Both are realized by suspending task switching, so their
// critical sections must stay O(1); they nest through the task's
// suspend depth and are logically independent lock identities.

// MallocLock acquire the allocator lock on behalf of task. Safe before
// the scheduler has started. Fatal from an interrupt context: a malloc
// reached from an interrupt handler is caught here, not discovered
// later as memory corruption.
func (b *Bridge) MallocLock(t *sched.Task) {
	if t.InISR() {
		panicerr("%v allocator lock from interrupt context %q", b.logprefix, t.Name())
	}
	b.sched.SuspendAll(t)
}

// MallocUnlock release one nesting level of the allocator lock.
func (b *Bridge) MallocUnlock(t *sched.Task) {
	b.sched.ResumeAll(t)
}

// EnvLock acquire the environment lock on behalf of task. Same
// discipline as MallocLock.
func (b *Bridge) EnvLock(t *sched.Task) {
	if t.InISR() {
		panicerr("%v environment lock from interrupt context %q", b.logprefix, t.Name())
	}
	b.sched.SuspendAll(t)
}

// EnvUnlock release one nesting level of the environment lock.
func (b *Bridge) EnvUnlock(t *sched.Task) {
	b.sched.ResumeAll(t)
}

// WithAllocatorLock run action inside the allocator critical section.
func (b *Bridge) WithAllocatorLock(t *sched.Task, action func()) {
	b.MallocLock(t)
	defer b.MallocUnlock(t)
	action()
}

// WithEnvironmentLock run action inside the environment critical
// section.
func (b *Bridge) WithEnvironmentLock(t *sched.Task, action func()) {
	b.EnvLock(t)
	defer b.EnvUnlock(t)
	action()
}
