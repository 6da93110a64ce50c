package heap

import "testing"
import "unsafe"

import "github.com/DRNadler/FreeRTOS-helpers/api"
import "github.com/DRNadler/FreeRTOS-helpers/sched"
import s "github.com/bnclabs/gosettings"

func newbridgetest(capacity int64, setts s.Settings) (*Bridge, *sched.Scheduler) {
	scheduler := sched.NewScheduler()
	scheduler.Start()
	setts = make(s.Settings).Mixin(s.Settings{"capacity": capacity}, setts)
	return NewBridge("test", scheduler, setts), scheduler
}

func TestBridgeSbrk(t *testing.T) {
	b, scheduler := newbridgetest(4096, nil)
	task := scheduler.NewTask("main")

	ptr, err := b.Sbrk(task, 100)
	if err != nil {
		t.Fatalf("unexpected %v", err)
	} else if off := uintptr(ptr) - b.Region().Base(); off != 0 {
		t.Errorf("expected offset 0, got %v", off)
	} else if task.SuspendDepth() != 0 {
		t.Errorf("critical section leaked, depth %v", task.SuspendDepth())
	}

	// nested inside the allocator lock, as the downstream allocator
	// drives it.
	b.WithAllocatorLock(task, func() {
		if _, err := b.Sbrk(task, 100); err != nil {
			t.Errorf("unexpected %v", err)
		}
		if task.SuspendDepth() != 1 {
			t.Errorf("expected depth 1, got %v", task.SuspendDepth())
		}
	})
	if task.SuspendDepth() != 0 {
		t.Errorf("expected depth 0, got %v", task.SuspendDepth())
	}
}

func TestBridgeSbrkMisuse(t *testing.T) {
	// a shrink request panics, and the panic must not leave the world
	// suspended.
	b, scheduler := newbridgetest(4096, nil)
	task := scheduler.NewTask("main")

	func() {
		defer func() {
			if recover() == nil {
				t.Errorf("expected panic")
			}
		}()
		b.Sbrk(task, -1)
	}()
	if task.SuspendDepth() != 0 {
		t.Fatalf("critical section leaked, depth %v", task.SuspendDepth())
	}

	// other tasks can still enter the critical section.
	other := scheduler.NewTask("other")
	b.WithAllocatorLock(other, func() {})
	if _, err := b.Sbrk(other, 100); err != nil {
		t.Errorf("unexpected %v", err)
	}
}

func TestBridgeErrnoPolicy(t *testing.T) {
	b, scheduler := newbridgetest(4096, nil)
	task := scheduler.NewTask("main")

	ptr, err := b.Sbrk(task, 8192)
	if err != api.ErrorOutofMemory {
		t.Fatalf("expected %v, got %v", api.ErrorOutofMemory, err)
	} else if ptr != nil {
		t.Errorf("expected nil window")
	} else if task.Errno != api.ErrorOutofMemory {
		t.Errorf("expected task errno set, got %v", task.Errno)
	}
	// nothing moved.
	if b.Region().Extended() != 0 {
		t.Errorf("failed extension moved the boundary")
	}
}

func TestBridgeHookPolicy(t *testing.T) {
	b, scheduler := newbridgetest(4096, s.Settings{"oom.policy": "hook"})
	task := scheduler.NewTask("main")

	ncalls := 0
	b.SetFailureHook(func() { ncalls++ })

	if _, err := b.Sbrk(task, 8192); err != api.ErrorOutofMemory {
		t.Fatalf("expected %v, got %v", api.ErrorOutofMemory, err)
	}
	if ncalls != 1 {
		t.Errorf("expected hook called once, got %v", ncalls)
	}
	if task.Errno != api.ErrorOutofMemory {
		t.Errorf("expected task errno set, got %v", task.Errno)
	}

	// unregistered hook degrades to errno behavior.
	b.SetFailureHook(nil)
	task.Errno = nil
	if _, err := b.Sbrk(task, 8192); err != api.ErrorOutofMemory {
		t.Fatalf("expected %v, got %v", api.ErrorOutofMemory, err)
	}
	if task.Errno != api.ErrorOutofMemory {
		t.Errorf("expected task errno set, got %v", task.Errno)
	}
}

func TestBridgeHardStop(t *testing.T) {
	b, scheduler := newbridgetest(4096, s.Settings{"oom.policy": "hardstop"})
	task := scheduler.NewTask("main")

	b.halt = func() { panic("halted") }
	func() {
		defer func() {
			if r := recover(); r != "halted" {
				t.Errorf("expected halt, got %v", r)
			}
		}()
		b.Sbrk(task, 8192)
	}()
}

func TestBridgeISRDiscipline(t *testing.T) {
	b, scheduler := newbridgetest(4096, nil)
	isr := scheduler.NewISR("uart")

	func() {
		defer func() {
			if recover() == nil {
				t.Errorf("expected panic")
			}
		}()
		b.MallocLock(isr)
	}()
	func() {
		defer func() {
			if recover() == nil {
				t.Errorf("expected panic")
			}
		}()
		b.EnvLock(isr)
	}()
	func() {
		defer func() {
			if recover() == nil {
				t.Errorf("expected panic")
			}
		}()
		b.Sbrk(isr, 32)
	}()
}

func TestBridgeLocks(t *testing.T) {
	b, scheduler := newbridgetest(4096, nil)
	task := scheduler.NewTask("main")

	// the two locks are independent identities over one suspension
	// mechanism, and nest.
	b.WithAllocatorLock(task, func() {
		b.WithEnvironmentLock(task, func() {
			if task.SuspendDepth() != 2 {
				t.Errorf("expected depth 2, got %v", task.SuspendDepth())
			}
		})
		if task.SuspendDepth() != 1 {
			t.Errorf("expected depth 1, got %v", task.SuspendDepth())
		}
	})
	if task.SuspendDepth() != 0 {
		t.Errorf("expected depth 0, got %v", task.SuspendDepth())
	}
}

func TestBridgePrestart(t *testing.T) {
	// locks are usable before the scheduler starts.
	scheduler := sched.NewScheduler()
	b := NewBridge("boot", scheduler, s.Settings{"capacity": int64(4096)})
	boot := scheduler.NewTask("boot")

	b.WithAllocatorLock(boot, func() {
		if _, err := b.Sbrk(boot, 128); err != nil {
			t.Errorf("unexpected %v", err)
		}
	})
	if b.Region().Extended() != 128 {
		t.Errorf("expected %v, got %v", 128, b.Region().Extended())
	}
}

func TestBridgeFreeHeapSize(t *testing.T) {
	b, scheduler := newbridgetest(4096, nil)
	task := scheduler.NewTask("main")

	est1 := b.FreeHeapSize(task)
	if est1 != 4096 {
		t.Errorf("expected %v, got %v", 4096, est1)
	}
	b.Sbrk(task, 100)
	if est2 := b.FreeHeapSize(task); est1-est2 != 100 {
		t.Errorf("expected estimate to drop by 100, got %v", est1-est2)
	}
}

func TestBridgeStubs(t *testing.T) {
	b, scheduler := newbridgetest(4096, nil)
	task := scheduler.NewTask("main")

	before := b.FreeHeapSize(task)
	b.InitialiseBlocks()
	b.ReleaseBlocks()
	if after := b.FreeHeapSize(task); after != before {
		t.Errorf("stub mutated the heap: %v != %v", after, before)
	}
}

func TestBridgeNoAllocator(t *testing.T) {
	b, scheduler := newbridgetest(4096, nil)
	task := scheduler.NewTask("main")

	b.Free(task, nil) // nil-safe without an allocator

	func() {
		defer func() {
			if recover() == nil {
				t.Errorf("expected panic")
			}
		}()
		b.Malloc(task, 100)
	}()
}

func TestBridgeFrom(t *testing.T) {
	scheduler := sched.NewScheduler()
	scheduler.Start()
	block := make([]byte, 8192)
	b := NewBridgeFrom("hosted", scheduler, block, s.Settings{
		"isrstack.reserve": int64(4096),
	})
	if b.Region().Size() != 4096 {
		t.Errorf("expected %v, got %v", 4096, b.Region().Size())
	}
	if ptr := mustsbrk(t, b, scheduler.NewTask("main"), 64); ptr == nil {
		t.Errorf("unexpected failure")
	}
}

func mustsbrk(t *testing.T, b *Bridge, task *sched.Task, incr int64) unsafe.Pointer {
	t.Helper()
	ptr, err := b.Sbrk(task, incr)
	if err != nil {
		t.Fatalf("unexpected %v", err)
	}
	return ptr
}

func TestBridgeStats(t *testing.T) {
	b, scheduler := newbridgetest(4096, nil)
	task := scheduler.NewTask("main")
	b.Sbrk(task, 96)

	stats := b.Stats()
	if stats["extended"].(int64) != 96 {
		t.Errorf("expected %v, got %v", 96, stats["extended"])
	} else if stats["policy"].(string) != "errno" {
		t.Errorf("expected errno, got %v", stats["policy"])
	}
}

func TestBadPolicy(t *testing.T) {
	func() {
		defer func() {
			if recover() == nil {
				t.Errorf("expected panic")
			}
		}()
		newbridgetest(4096, s.Settings{"oom.policy": "retry"})
	}()
}
