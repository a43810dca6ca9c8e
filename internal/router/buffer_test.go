package router

import (
	"sync"
	"testing"
	"time"
)

func TestGrowableBuffer_SendReceive(t *testing.T) {
	b := NewGrowableBuffer[int](4)

	for i := 1; i <= 3; i++ {
		if !b.Send(i) {
			t.Fatalf("Send(%d) = false, want true", i)
		}
	}

	for want := 1; want <= 3; want++ {
		got, ok := b.Receive()
		if !ok {
			t.Fatalf("Receive() ok = false, want true")
		}
		if got != want {
			t.Errorf("Receive() = %d, want %d", got, want)
		}
	}

	if n := b.Len(); n != 0 {
		t.Errorf("Len() = %d, want 0", n)
	}
}

func TestGrowableBuffer_GrowsWhenFull(t *testing.T) {
	b := NewGrowableBuffer[int](2)

	for i := 1; i <= 5; i++ {
		if !b.Send(i) {
			t.Fatalf("Send(%d) = false, want true", i)
		}
	}

	if c := b.Cap(); c < 5 {
		t.Errorf("Cap() = %d after 5 sends into capacity 2, want >= 5", c)
	}

	// FIFO order survives the grow.
	for want := 1; want <= 5; want++ {
		got, ok := b.TryReceive()
		if !ok || got != want {
			t.Errorf("TryReceive() = (%d, %v), want (%d, true)", got, ok, want)
		}
	}

	stats := b.Stats()
	if stats.Grows < 1 {
		t.Errorf("Stats().Grows = %d, want >= 1", stats.Grows)
	}
	if stats.TotalIn != 5 || stats.TotalOut != 5 {
		t.Errorf("Stats() in/out = %d/%d, want 5/5", stats.TotalIn, stats.TotalOut)
	}
}

func TestGrowableBuffer_GrowPreservesWrappedOrder(t *testing.T) {
	b := NewGrowableBuffer[int](4)

	// Advance head so the ring wraps before growing.
	for i := 1; i <= 4; i++ {
		b.Send(i)
	}
	b.TryReceive() // drop 1
	b.TryReceive() // drop 2
	for i := 5; i <= 10; i++ {
		b.Send(i) // forces a grow with head > 0
	}

	for want := 3; want <= 10; want++ {
		got, ok := b.TryReceive()
		if !ok || got != want {
			t.Fatalf("TryReceive() = (%d, %v), want (%d, true)", got, ok, want)
		}
	}
}

func TestGrowableBuffer_TryReceiveEmpty(t *testing.T) {
	b := NewGrowableBuffer[string](4)

	got, ok := b.TryReceive()
	if ok {
		t.Errorf("TryReceive() on empty buffer = (%q, true), want ok=false", got)
	}
}

func TestGrowableBuffer_CloseDrainsRemainder(t *testing.T) {
	b := NewGrowableBuffer[int](4)
	b.Send(1)
	b.Send(2)
	b.Close()

	if b.Send(3) {
		t.Error("Send() after Close() = true, want false")
	}

	for want := 1; want <= 2; want++ {
		got, ok := b.Receive()
		if !ok || got != want {
			t.Errorf("Receive() = (%d, %v), want (%d, true)", got, ok, want)
		}
	}

	if _, ok := b.Receive(); ok {
		t.Error("Receive() on closed drained buffer = ok, want !ok")
	}
}

func TestGrowableBuffer_ReceiveBlocksUntilSend(t *testing.T) {
	b := NewGrowableBuffer[int](4)

	result := make(chan int, 1)
	go func() {
		v, ok := b.Receive()
		if ok {
			result <- v
		}
	}()

	// Give the receiver time to park on the condition variable.
	time.Sleep(20 * time.Millisecond)
	b.Send(42)

	select {
	case got := <-result:
		if got != 42 {
			t.Errorf("Receive() = %d, want 42", got)
		}
	case <-time.After(time.Second):
		t.Fatal("Receive() did not wake after Send()")
	}
}

func TestGrowableBuffer_CloseUnblocksReceivers(t *testing.T) {
	b := NewGrowableBuffer[int](4)

	done := make(chan bool, 1)
	go func() {
		_, ok := b.Receive()
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	b.Close()

	select {
	case ok := <-done:
		if ok {
			t.Error("Receive() after Close() on empty buffer = ok, want !ok")
		}
	case <-time.After(time.Second):
		t.Fatal("Receive() did not unblock after Close()")
	}
}

func TestGrowableBuffer_ConcurrentProducersConsumers(t *testing.T) {
	const (
		producers = 4
		perProd   = 250
	)

	b := NewGrowableBuffer[int](8)

	var prodWG sync.WaitGroup
	for p := 0; p < producers; p++ {
		prodWG.Add(1)
		go func() {
			defer prodWG.Done()
			for i := 0; i < perProd; i++ {
				b.Send(i)
			}
		}()
	}

	received := make(chan int, producers*perProd)
	var consWG sync.WaitGroup
	for c := 0; c < 2; c++ {
		consWG.Add(1)
		go func() {
			defer consWG.Done()
			for {
				v, ok := b.Receive()
				if !ok {
					return
				}
				received <- v
			}
		}()
	}

	prodWG.Wait()
	b.Close()
	consWG.Wait()
	close(received)

	count := 0
	for range received {
		count++
	}
	if count != producers*perProd {
		t.Errorf("received %d items, want %d", count, producers*perProd)
	}
}
