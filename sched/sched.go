// Package sched captures the cooperative-scheduler contract consumed by
// the heap bridge, with a limited scope:
//
//  * Tasks run cooperatively, one logical task body at a time; asynchronous
//    interrupt contexts can still fire.
//  * SuspendAll/ResumeAll disable and re-enable task switching process
//    wide; they nest, and switching resumes only when the outermost
//    level releases.
//  * Both calls are safe before the scheduler has started, where they
//    degrade to depth book-keeping alone.
//  * Neither call is legal from an interrupt context.
//
// The real scheduler in a deployment is an external collaborator; this
// package supplies its contract and a reference mechanism good enough
// to host the heap bridge and its tests.
package sched

import "fmt"
import "sync"
import "sync/atomic"

// State of the scheduler.
type State int32

const (
	// NotStarted scheduler is not yet running tasks, boot context is
	// the only execution context.
	NotStarted State = iota + 1

	// Running scheduler is switching between tasks.
	Running
)

func (st State) String() string {
	switch st {
	case NotStarted:
		return "notstarted"
	case Running:
		return "running"
	}
	panic("unexpected scheduler state") // should never reach here
}

// Scheduler provides the global suspend/resume primitive shared by all
// tasks. Zero or one task holds the world at any time.
type Scheduler struct {
	ntasks int64 // 64-bit aligned, tasks created so far

	world sync.Mutex
	state int32
}

// Ntasks number of task handles created on this scheduler.
func (s *Scheduler) Ntasks() int64 {
	return atomic.LoadInt64(&s.ntasks)
}

// NewScheduler create a scheduler in NotStarted state.
func NewScheduler() *Scheduler {
	s := &Scheduler{}
	atomic.StoreInt32(&s.state, int32(NotStarted))
	return s
}

// Start moves the scheduler to Running state. Tasks created before Start
// shall not run until Start returns, and boot-context critical sections
// must have completed.
func (s *Scheduler) Start() {
	atomic.StoreInt32(&s.state, int32(Running))
}

// State return the scheduler's current state.
func (s *Scheduler) State() State {
	return State(atomic.LoadInt32(&s.state))
}

// NewTask create a handle for a cooperative task. The handle must be
// threaded through every heap entry point the task calls.
func (s *Scheduler) NewTask(name string) *Task {
	atomic.AddInt64(&s.ntasks, 1)
	return &Task{name: name}
}

// NewISR create a handle representing an interrupt context. Suspending
// the scheduler from such a handle is a programming error.
func (s *Scheduler) NewISR(name string) *Task {
	return &Task{name: name, isr: true}
}

// SuspendAll stop switching to any task other than `t`. Nests; only the
// matching outermost ResumeAll re-enables switching. Callable before
// Start, fatal from interrupt context.
func (s *Scheduler) SuspendAll(t *Task) {
	if t.isr {
		panicerr("SuspendAll from interrupt context %q", t.name)
	}
	t.depth++
	if t.depth > 1 {
		return
	}
	if s.State() == Running {
		s.world.Lock()
		t.holding = true
	}
}

// ResumeAll undo one level of SuspendAll. Task switching resumes when
// the outermost level releases. Fatal on unbalanced calls and from
// interrupt context.
func (s *Scheduler) ResumeAll(t *Task) {
	if t.isr {
		panicerr("ResumeAll from interrupt context %q", t.name)
	}
	t.depth--
	if t.depth > 0 {
		return
	} else if t.depth < 0 {
		panicerr("unbalanced ResumeAll on task %q", t.name)
	}
	if t.holding {
		t.holding = false
		s.world.Unlock()
	}
}

// Task is the explicit execution-context handle threaded through heap
// entry points, carrying the per-task suspend nesting and the per-task
// error slot, equivalent to an RTOS task control block with an embedded
// reentrancy structure.
type Task struct {
	name    string
	isr     bool
	depth   int32
	holding bool

	// Errno per-task error indicator, set by the heap bridge when an
	// extension request is rejected.
	Errno error
}

// Name of the task.
func (t *Task) Name() string {
	return t.name
}

// InISR whether this handle represents an interrupt context.
func (t *Task) InISR() bool {
	return t.isr
}

// SuspendDepth current nesting level of SuspendAll on this task.
func (t *Task) SuspendDepth() int32 {
	return t.depth
}

func panicerr(fmsg string, args ...interface{}) {
	panic(fmt.Errorf(fmsg, args...))
}
