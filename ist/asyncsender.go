package ist

import (
	"context"
	"crypto/tls"
	"sync"

	"github.com/dutow/galera/internal/log"
)

// asyncSender tracks one in-flight donor-side send so AsyncSenderMap can
// cancel it and wait for it to exit.
type asyncSender struct {
	sender *Sender
	cancel context.CancelFunc
	done   chan struct{}
}

// AsyncSenderMap is the pool of concurrently running donor sends a
// multi-primary node may be asked to serve at once. Each send runs in its
// own goroutine and removes itself from the pool on completion; Cancel
// stops every still-running send and waits for all of them to exit. All
// sends in the pool share one FairMux, so a single large transfer can't
// starve the others.
type AsyncSenderMap struct {
	mu      sync.Mutex
	senders map[*asyncSender]struct{}
	mux     *FairMux
}

// NewAsyncSenderMap builds an empty pool.
func NewAsyncSenderMap() *AsyncSenderMap {
	return &AsyncSenderMap{senders: make(map[*asyncSender]struct{}), mux: NewFairMux()}
}

// Run starts streaming rng to peerAddr in a new goroutine and returns
// immediately. The goroutine removes itself from the pool when it exits,
// reporting a join seqno of rng.Last on success or the negated error code
// on failure.
func (m *AsyncSenderMap) Run(peerAddr string, version uint8, tlsConfig *tls.Config, cache Cache, rng Range) {
	s := NewSender(peerAddr, version, tlsConfig, cache)
	s.UseFairMux(m.mux)
	ctx, cancel := context.WithCancel(context.Background())
	as := &asyncSender{sender: s, cancel: cancel, done: make(chan struct{})}

	m.mu.Lock()
	m.senders[as] = struct{}{}
	m.mu.Unlock()

	go func() {
		defer close(as.done)
		err := s.Run(ctx, rng)
		joinSeqno := int64(rng.Last)
		if err != nil {
			joinSeqno = -int64(codeFromError(err))
			log.Warn("ist: async send to %s failed: %v", peerAddr, err)
		}
		m.remove(as, joinSeqno)
	}()
}

func (m *AsyncSenderMap) remove(as *asyncSender, joinSeqno int64) {
	m.mu.Lock()
	_, ok := m.senders[as]
	if ok {
		delete(m.senders, as)
	}
	m.mu.Unlock()

	if !ok {
		// Cancel() already removed this entry while the send was winding
		// down; the pool may have been torn down underneath us.
		log.Debug("ist: async sender not found at self-removal, join_seqno=%d", joinSeqno)
		return
	}
	log.Debug("ist: async sender finished, join_seqno=%d", joinSeqno)
}

// Cancel requests cancellation of every currently running send and blocks
// until each has exited. It never holds the pool's lock across a thread
// join: it takes a snapshot of the live set, cancels and joins each one
// lock-free, then removes it.
func (m *AsyncSenderMap) Cancel() {
	m.mu.Lock()
	pending := make([]*asyncSender, 0, len(m.senders))
	for as := range m.senders {
		pending = append(pending, as)
	}
	m.mu.Unlock()

	for _, as := range pending {
		as.cancel()
		<-as.done
		m.mu.Lock()
		delete(m.senders, as)
		m.mu.Unlock()
	}
}

// Len reports how many sends are currently in flight.
func (m *AsyncSenderMap) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.senders)
}
