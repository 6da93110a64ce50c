package heap

import "github.com/DRNadler/FreeRTOS-helpers/api"
import "github.com/DRNadler/FreeRTOS-helpers/sched"

// OOMPolicy behavior when an extension request cannot be satisfied.
// Resolved once from settings when the bridge is created; exactly one
// policy is active per bridge.
type OOMPolicy byte

const (
	// PolicyErrno set the task's error indicator and return failure to
	// the downstream allocator, which propagates nil to the caller.
	PolicyErrno OOMPolicy = iota + 1

	// PolicyFailureHook invoke the registered zero-argument hook, then
	// behave as PolicyErrno.
	PolicyFailureHook

	// PolicyHardStop halt in a debuggable trap, blocking forever.
	PolicyHardStop
)

func (p OOMPolicy) String() string {
	switch p {
	case PolicyErrno:
		return "errno"
	case PolicyFailureHook:
		return "hook"
	case PolicyHardStop:
		return "hardstop"
	}
	panic("unexpected oom policy") // should never reach here
}

func string2policy(p string) OOMPolicy {
	switch p {
	case "errno":
		return PolicyErrno
	case "hook":
		return PolicyFailureHook
	case "hardstop":
		return PolicyHardStop
	}
	panicerr("invalid oom policy %q", p)
	return 0 // unreachable
}

// SetFailureHook register the application callback invoked on extension
// failure under the "hook" policy. Pass nil to unregister.
func (b *Bridge) SetFailureHook(hook func()) {
	b.hook = hook
}

// failed applies the configured policy after a rejected extension.
// Caller has already left the critical section.
func (b *Bridge) failed(t *sched.Task, incr int64) error {
	errorf("%v out of memory extending %v bytes\n", b.logprefix, incr)
	switch b.policy {
	case PolicyHardStop:
		fatalf("%v hard stop\n", b.logprefix)
		b.halt() // blocks forever
	case PolicyFailureHook:
		if hook := b.hook; hook != nil {
			hook()
		}
	}
	t.Errno = api.ErrorOutofMemory
	return api.ErrorOutofMemory
}
