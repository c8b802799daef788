package ist_test

import (
	"testing"
	"time"

	"github.com/dutow/galera/ist"
)

func TestAsyncSenderMap_RunThenSelfRemoves(t *testing.T) {
	t.Parallel()
	// --- given ---
	handler := newRecordingHandler()
	recv, addr := newLoopbackReceiver(t, handler, 2)
	recv.Ready(1)

	cache := newMemCache([]ist.CacheBuffer{
		{Seqno: 1, Type: ist.ActionWriteset, Payload: []byte{1}},
		{Seqno: 2, Type: ist.ActionWriteset, Payload: []byte{2}},
	})
	pool := ist.NewAsyncSenderMap()

	// --- when ---
	pool.Run(addr, ist.CurrentVersion, nil, cache, ist.Range{First: 1, Last: 2})

	// --- then ---
	waitForEnd(t, handler)
	deadline := time.Now().Add(2 * time.Second)
	for pool.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := pool.Len(); got != 0 {
		t.Errorf("pool.Len() = %d after completion, want 0", got)
	}
}

func TestAsyncSenderMap_Cancel_StopsInFlightSends(t *testing.T) {
	t.Parallel()
	// --- given: a receiver that never calls Ready, so after the handshake
	// the donor's send blocks forever waiting for the receiver to close ---
	handler := newRecordingHandler()
	recv, addr := newLoopbackReceiver(t, handler, 100)
	defer recv.Finished()

	cache := newMemCache([]ist.CacheBuffer{{Seqno: 1, Type: ist.ActionWriteset, Payload: []byte{1}}})
	pool := ist.NewAsyncSenderMap()
	pool.Run(addr, ist.CurrentVersion, nil, cache, ist.Range{First: 1, Last: 1})

	// give the goroutine a moment to actually dial and start the handshake
	time.Sleep(50 * time.Millisecond)

	// --- when ---
	done := make(chan struct{})
	go func() {
		pool.Cancel()
		close(done)
	}()

	// --- then: Cancel returns instead of blocking forever ---
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Cancel() did not return; cancellation did not unblock the send")
	}
	if got := pool.Len(); got != 0 {
		t.Errorf("pool.Len() = %d after Cancel, want 0", got)
	}
}
