package syncx

import (
	"sync"
	"testing"
)

func TestGuardGetSet(t *testing.T) {
	g := NewGuard(10)
	if g.Get() != 10 {
		t.Errorf("Get() = %d, want 10", g.Get())
	}
	g.Set(20)
	if g.Get() != 20 {
		t.Errorf("Get() = %d, want 20", g.Get())
	}
}

func TestGuardConcurrentSetGet(t *testing.T) {
	g := NewGuard([2]int{})
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			g.Set([2]int{i, i})
		}()
		go func() {
			defer wg.Done()
			if v := g.Get(); v[0] != v[1] {
				t.Errorf("torn read %v", v)
			}
		}()
	}
	wg.Wait()
}

func TestSlotLatestWins(t *testing.T) {
	s := NewSlot[string]()

	if dropped := s.Put("first"); dropped {
		t.Error("first put should not drop")
	}
	if dropped := s.Put("second"); !dropped {
		t.Error("second put should report dropping the first")
	}

	v, ok := s.Take()
	if !ok || v != "second" {
		t.Errorf("Take() = %q, %v; want second, true", v, ok)
	}
	if _, ok := s.Take(); ok {
		t.Error("slot should be empty after Take")
	}
}

func TestSlotReadySignal(t *testing.T) {
	s := NewSlot[int]()
	s.Put(1)
	s.Put(2)

	select {
	case <-s.Ready():
	default:
		t.Fatal("ready should be signalled")
	}
	select {
	case <-s.Ready():
		t.Fatal("ready should hold at most one signal")
	default:
	}
}
