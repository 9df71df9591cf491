package kernel

import (
	"sync"
	"testing"
	"time"
)

func TestPriorityPreemptionOrdering(t *testing.T) {
	k := newTestKernel()

	var mu sync.Mutex
	var order []string
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	loopIters := 0
	_, lowDone := spawn(k, PriorityLow, func(*Thread) {
		for loopIters < 3 {
			loopIters++
			k.Yield()
		}
		record("low")
	})
	_, highDone := spawn(k, PriorityHigh, func(*Thread) {
		record("high")
	})

	select {
	case <-highDone:
	case <-time.After(time.Second):
		t.Fatalf("high-priority thread did not complete")
	}
	select {
	case <-lowDone:
	case <-time.After(time.Second):
		t.Fatalf("low-priority thread did not complete")
	}

	if len(order) != 2 || order[0] != "high" || order[1] != "low" {
		t.Fatalf("order = %v, want [high low]", order)
	}
}

func TestYieldFIFOWithinPriority(t *testing.T) {
	k := newTestKernel()

	var mu sync.Mutex
	var order []int
	var dones []chan struct{}
	for i := 0; i < 4; i++ {
		i := i
		_, done := spawn(k, PriorityNormal, func(*Thread) {
			k.Yield()
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
		dones = append(dones, done)
	}
	for _, d := range dones {
		<-d
	}
	if len(order) != 4 {
		t.Fatalf("len(order) = %d, want 4", len(order))
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v, want ascending 0..3", order)
		}
	}
}

// TestSetPriorityReordersReadySet holds the scheduler critical section
// open across two Start calls and a SetPriority so neither thread can
// run until the outermost Unlock, then checks that the boosted thread
// was dispatched first despite being enqueued second.
func TestSetPriorityReordersReadySet(t *testing.T) {
	k := newTestKernel()

	var mu sync.Mutex
	var order []string

	prev := k.Lock()
	aTh, res := k.NewThread(ThreadAttr{Priority: PriorityLow}, func(any) {
		mu.Lock()
		order = append(order, "a")
		mu.Unlock()
	}, nil)
	if res != OK {
		t.Fatalf("NewThread(a): %s", res)
	}
	bTh, res := k.NewThread(ThreadAttr{Priority: PriorityLow}, func(any) {
		mu.Lock()
		order = append(order, "b")
		mu.Unlock()
	}, nil)
	if res != OK {
		t.Fatalf("NewThread(b): %s", res)
	}
	k.Start(aTh)
	k.Start(bTh)
	k.SetPriority(bTh, PriorityHigh)
	k.Unlock(prev)

	deadline := time.After(time.Second)
	for {
		mu.Lock()
		n := len(order)
		mu.Unlock()
		if n == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("threads did not both complete")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if order[0] != "b" || order[1] != "a" {
		t.Fatalf("order = %v, want [b a] after boosting b ahead of a", order)
	}
}
