package impair

import (
	"sync"
	"testing"
	"time"
)

func TestBurstLossAlwaysDropsDuringBurst(t *testing.T) {
	b := newBurstLoss(Config{BurstLossP: 1, BurstLen: 3}.withDefaults())
	for i := 0; i < 3; i++ {
		if !b.shouldDrop() {
			t.Fatalf("shouldDrop() frame %d in burst = false, want true", i)
		}
	}
}

func TestBurstLossNeverDropsWhenDisabled(t *testing.T) {
	b := newBurstLoss(Config{}.withDefaults())
	for i := 0; i < 100; i++ {
		if b.shouldDrop() {
			t.Fatalf("shouldDrop() frame %d with zero loss config = true, want false", i)
		}
	}
}

func TestTokenBucketGatesOverBudget(t *testing.T) {
	b := newTokenBucket(8, 1) // 1 byte/sec, 1 byte bucket
	if w := b.wait(1); w != 0 {
		t.Fatalf("first wait(1) = %v, want 0 (bucket starts full)", w)
	}
	if w := b.wait(1); w <= 0 {
		t.Fatalf("second immediate wait(1) = %v, want > 0 (bucket drained)", w)
	}
}

func TestDelayQueueOrdersByDueTime(t *testing.T) {
	q := newDelayQueue(8)
	now := time.Now()
	q.add(&delayedFrame{frame: []byte("late"), dueAt: now.Add(50 * time.Millisecond)}, 0, false)
	q.add(&delayedFrame{frame: []byte("early"), dueAt: now.Add(1 * time.Millisecond)}, 0, false)

	item, ok := q.peekDue(now.Add(100 * time.Millisecond))
	if !ok {
		t.Fatal("peekDue: ok = false, want true")
	}
	if string(item.frame) != "early" {
		t.Fatalf("peekDue() = %q, want %q", item.frame, "early")
	}
}

func TestDelayQueueFullRejectsBeyondBound(t *testing.T) {
	q := newDelayQueue(2)
	q.add(&delayedFrame{frame: []byte("a"), dueAt: time.Now()}, 0, false)
	q.add(&delayedFrame{frame: []byte("b"), dueAt: time.Now()}, 0, false)
	if !q.full() {
		t.Fatal("full() = false after reaching bound, want true")
	}
}

func TestPipelinePreservesOrderWithoutImpairments(t *testing.T) {
	var mu sync.Mutex
	var got [][]byte
	p := New(Config{}, func(frame []byte) {
		mu.Lock()
		got = append(got, frame)
		mu.Unlock()
	})
	defer p.Close()

	for i := 0; i < 5; i++ {
		p.Submit([]byte{byte(i)})
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 5 {
		t.Fatalf("len(got) = %d, want 5", len(got))
	}
	for i, frame := range got {
		if frame[0] != byte(i) {
			t.Fatalf("got[%d] = %v, want frame %d (order not preserved)", i, frame, i)
		}
	}
}

func TestPipelineDropsAllWithFullLoss(t *testing.T) {
	var count int
	var mu sync.Mutex
	p := New(Config{LossP: 1}, func(frame []byte) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	defer p.Close()

	for i := 0; i < 10; i++ {
		p.Submit([]byte{byte(i)})
	}

	mu.Lock()
	defer mu.Unlock()
	if count != 0 {
		t.Fatalf("sink called %d times with LossP=1, want 0", count)
	}
	if st := p.Stats(); st.Dropped != 10 {
		t.Fatalf("Stats().Dropped = %d, want 10", st.Dropped)
	}
}
