package ist

import (
	"net"
	"sync"

	"github.com/dutow/galera/fsq"
	"github.com/dutow/galera/internal/log"
)

// FairMux multiplexes the write side of several concurrent donor sends
// onto their own connections through a single Fair Segment Queue, so one
// large transfer can't starve the others sharing this node's donor
// bandwidth. Each concurrent Sender registers its connection under its
// own segment; handshake bytes bypass the mux entirely since they're
// small, synchronous, and need an immediate reply on their own conn.
type FairMux struct {
	mu      sync.Mutex
	cond    *sync.Cond
	q       *fsq.Queue
	conns   map[int]net.Conn
	pending map[int]int
	nextSeg int
	closed  bool
}

// NewFairMux builds a mux and starts its background delivery pump.
func NewFairMux() *FairMux {
	m := &FairMux{
		q:       fsq.New(),
		conns:   make(map[int]net.Conn),
		pending: make(map[int]int),
	}
	m.cond = sync.NewCond(&m.mu)
	go m.pump()
	return m
}

// Register assigns conn a fresh segment id to write datagrams under.
func (m *FairMux) Register(conn net.Conn) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	seg := m.nextSeg
	m.nextSeg++
	m.conns[seg] = conn
	return seg
}

// Unregister drops segment's connection mapping once its send is done.
// Safe to call more than once.
func (m *FairMux) Unregister(segment int) {
	m.mu.Lock()
	delete(m.conns, segment)
	delete(m.pending, segment)
	m.mu.Unlock()
}

// Write enqueues p for fair delivery on segment's connection.
func (m *FairMux) Write(segment int, p []byte) {
	buf := make([]byte, len(p))
	copy(buf, p)

	m.mu.Lock()
	m.q.PushBack(segment, fsq.Datagram(buf))
	m.pending[segment]++
	m.cond.Signal()
	m.mu.Unlock()
}

// Drain blocks until every datagram queued for segment has actually been
// written to its connection.
func (m *FairMux) Drain(segment int) {
	m.mu.Lock()
	for m.pending[segment] > 0 && !m.closed {
		m.cond.Wait()
	}
	m.mu.Unlock()
}

func (m *FairMux) pump() {
	for {
		m.mu.Lock()
		for m.q.Empty() && !m.closed {
			m.cond.Wait()
		}
		if m.q.Empty() && m.closed {
			m.mu.Unlock()
			return
		}
		seg := m.q.CurrentSegment()
		d := m.q.PopFront()
		conn := m.conns[seg]
		m.mu.Unlock()

		if conn != nil {
			if _, err := conn.Write(d); err != nil {
				log.Warn("ist: fair mux write on segment %d failed: %v", seg, err)
			}
		}

		m.mu.Lock()
		if m.pending[seg] > 0 {
			m.pending[seg]--
		}
		m.cond.Broadcast()
		m.mu.Unlock()
	}
}

// Close stops the pump goroutine once the queue has drained.
func (m *FairMux) Close() {
	m.mu.Lock()
	m.closed = true
	m.cond.Broadcast()
	m.mu.Unlock()
}
