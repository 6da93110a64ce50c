package heap

import "testing"
import "unsafe"

import "github.com/DRNadler/FreeRTOS-helpers/api"
import "github.com/DRNadler/FreeRTOS-helpers/sched"
import s "github.com/bnclabs/gosettings"

// fixed-size bump mallocer, just enough to stand behind the decorator.
type testmallocer struct {
	b     *Bridge
	chunk int64
}

func (m *testmallocer) Slabs() []int64 {
	return []int64{m.chunk}
}

func (m *testmallocer) Alloc(t *sched.Task, n int64) unsafe.Pointer {
	if n > m.chunk {
		panic("size greater than configured")
	}
	ptr, err := m.b.Sbrk(t, m.chunk)
	if err != nil {
		return nil
	}
	return ptr
}

func (m *testmallocer) Slabsize(ptr unsafe.Pointer) int64 { return m.chunk }

func (m *testmallocer) Chunklen(ptr unsafe.Pointer) int64 { return m.chunk }

func (m *testmallocer) Free(t *sched.Task, ptr unsafe.Pointer) {}

func (m *testmallocer) Release() {}

func (m *testmallocer) Info() (capacity, heap, alloc, overhead int64) {
	used := m.b.Region().Extended()
	return m.b.Region().Size(), used, used, 0
}

func (m *testmallocer) Utilization() ([]int, []float64) {
	return nil, nil
}

func TestAccounting(t *testing.T) {
	b, scheduler := newbridgetest(4096, s.Settings{"accounting": true})
	task := scheduler.NewTask("main")

	installed := b.SetAllocator(&testmallocer{b: b, chunk: 64})
	acc, ok := installed.(*Accounting)
	if !ok {
		t.Fatalf("expected accounting decorator, got %T", installed)
	}

	p1 := b.Malloc(task, 40)
	p2 := b.Malloc(task, 24)
	if p1 == nil || p2 == nil {
		t.Fatalf("unexpected allocation failure")
	}
	if calls, bytes := acc.Counts(); calls != 2 {
		t.Errorf("expected %v, got %v", 2, calls)
	} else if bytes != 64 {
		t.Errorf("expected %v, got %v", 64, bytes)
	}

	// frees are not allocation requests.
	b.Free(task, p1)
	if calls, _ := acc.Counts(); calls != 2 {
		t.Errorf("expected %v, got %v", 2, calls)
	}

	// decorator forwards unchanged.
	if slabs := acc.Slabs(); len(slabs) != 1 || slabs[0] != 64 {
		t.Errorf("unexpected slabs %v", slabs)
	}
	if sz := acc.Slabsize(p2); sz != 64 {
		t.Errorf("expected %v, got %v", 64, sz)
	}

	stats := b.Stats()
	if stats["accounting.calls"].(int64) != 2 {
		t.Errorf("expected %v, got %v", 2, stats["accounting.calls"])
	}
}

func TestAccountingOff(t *testing.T) {
	b, scheduler := newbridgetest(4096, nil)
	task := scheduler.NewTask("main")

	installed := b.SetAllocator(&testmallocer{b: b, chunk: 64})
	if _, ok := installed.(*Accounting); ok {
		t.Errorf("unexpected decorator")
	}
	if ptr := b.Malloc(task, 10); ptr == nil {
		t.Errorf("unexpected allocation failure")
	}
	if task.Errno != nil {
		t.Errorf("unexpected errno %v", task.Errno)
	}
}

var _ api.Mallocer = (*testmallocer)(nil)
var _ api.Mallocer = (*Accounting)(nil)
var _ api.Grower = (*Bridge)(nil)
var _ api.Locker = (*Bridge)(nil)
