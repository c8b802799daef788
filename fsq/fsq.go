// Package fsq implements a fair per-segment outbound queue.
//
// Datagrams are tagged with a segment id by the caller (a bandwidth-fairness
// class, e.g. one per WAN link). Queue dequeues in round-robin order across
// non-empty segments so a single busy segment cannot starve the others.
package fsq

import "sort"

// NoSegment is the sentinel value of CurrentSegment when the queue is empty.
const NoSegment = -1

// Datagram is an opaque outbound unit of bytes tagged with a segment.
type Datagram []byte

type subQueue struct {
	items []Datagram
	head  int
	bytes int
}

func (q *subQueue) len() int {
	return len(q.items) - q.head
}

func (q *subQueue) pushBack(d Datagram) {
	q.items = append(q.items, d)
	q.bytes += len(d)
}

func (q *subQueue) front() Datagram {
	return q.items[q.head]
}

func (q *subQueue) back() Datagram {
	return q.items[len(q.items)-1]
}

func (q *subQueue) popFront() Datagram {
	d := q.items[q.head]
	q.items[q.head] = nil
	q.head++
	q.bytes -= len(d)
	// compact once the dead prefix dominates, so the backing array doesn't
	// grow without bound on a long-lived segment.
	if q.head > 0 && q.head*2 >= len(q.items) {
		q.items = append(q.items[:0], q.items[q.head:]...)
		q.head = 0
	}
	return d
}

// Queue is a fair, round-robin multiplexer over per-segment FIFOs.
//
// Not safe for concurrent use; callers that share a Queue across goroutines
// must provide their own synchronization.
type Queue struct {
	segs       map[int]*subQueue
	order      []int // sorted ids of non-empty segments
	current    int   // CurrentSegment, NoSegment when empty
	lastPushed int
	bytes      int
}

// New returns an empty Queue.
func New() *Queue {
	return &Queue{
		segs:    map[int]*subQueue{},
		current: NoSegment,
	}
}

// Empty reports whether the queue holds no datagrams in any segment.
func (q *Queue) Empty() bool {
	return q.current == NoSegment
}

// Size returns the total number of datagrams queued across all segments.
func (q *Queue) Size() int {
	n := 0
	for _, id := range q.order {
		n += q.segs[id].len()
	}
	return n
}

// QueuedBytes returns the sum of datagram lengths across all segments.
func (q *Queue) QueuedBytes() int {
	return q.bytes
}

// CurrentSegment returns the segment id that Front/PopFront would act on,
// or NoSegment if the queue is empty.
func (q *Queue) CurrentSegment() int {
	return q.current
}

// Segments returns a snapshot of (segment id, queue length) pairs for every
// non-empty segment, in ascending segment id order.
func (q *Queue) Segments() []SegmentStat {
	stats := make([]SegmentStat, len(q.order))
	for i, id := range q.order {
		stats[i] = SegmentStat{Segment: id, Size: q.segs[id].len()}
	}
	return stats
}

// SegmentStat is a snapshot of one segment's queue depth.
type SegmentStat struct {
	Segment int
	Size    int
}

// PushBack appends datagram to segment's sub-queue.
func (q *Queue) PushBack(segment int, d Datagram) {
	sq, ok := q.segs[segment]
	if !ok {
		sq = &subQueue{}
		q.segs[segment] = sq
		q.insertOrder(segment)
	}
	sq.pushBack(d)
	q.bytes += len(d)
	q.lastPushed = segment
	if q.current == NoSegment {
		q.current = segment
	}
}

// Front returns the first datagram of the current segment. It is undefined
// behavior to call Front on an empty queue.
func (q *Queue) Front() Datagram {
	return q.segs[q.current].front()
}

// Back returns the most recently pushed datagram, i.e. the tail of
// last_pushed_segment's sub-queue.
func (q *Queue) Back() Datagram {
	return q.segs[q.lastPushed].back()
}

// PopFront removes and returns the front datagram of the current segment,
// then advances CurrentSegment to the next non-empty segment in round-robin
// order.
func (q *Queue) PopFront() Datagram {
	sq := q.segs[q.current]
	d := sq.popFront()
	q.bytes -= len(d)

	if sq.len() == 0 {
		q.removeOrder(q.current)
		delete(q.segs, q.current)
	}

	q.advance()
	return d
}

func (q *Queue) insertOrder(segment int) {
	i := sort.SearchInts(q.order, segment)
	q.order = append(q.order, 0)
	copy(q.order[i+1:], q.order[i:])
	q.order[i] = segment
}

func (q *Queue) removeOrder(segment int) {
	i := sort.SearchInts(q.order, segment)
	if i < len(q.order) && q.order[i] == segment {
		q.order = append(q.order[:i], q.order[i+1:]...)
	}
}

// advance moves current to the successor of the prior current value in
// ascending, wrap-around segment id order, stopping at the first non-empty
// segment it finds (equivalently: the only one left, since removeOrder
// already dropped the one just emptied).
func (q *Queue) advance() {
	if len(q.order) == 0 {
		q.current = NoSegment
		return
	}
	i := sort.SearchInts(q.order, q.current)
	if i < len(q.order) && q.order[i] == q.current {
		// the segment just popped from is still non-empty and still occupies
		// this slot: move past it to give the next segment a turn.
		i++
	}
	// otherwise the segment was removed (went empty) and i already points at
	// its successor (or one past the end).
	if i >= len(q.order) {
		i = 0
	}
	q.current = q.order[i]
}
