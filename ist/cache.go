package ist

// CacheBuffer is one contiguous replication event as stored by the
// donor-side write-set cache.
type CacheBuffer struct {
	Seqno   Seqno
	Type    ActionType
	Payload []byte
}

// Cache is the donor-side write-set store IST streams from. It is an
// external collaborator: the certification index and storage engine that
// back it are out of scope for this package, which only needs to pull
// ordered buffers out of it and hold its seqno lock for the duration of a
// send so the cache can't be rotated out from under an in-flight IST.
type Cache interface {
	// SeqnoGetBuffers fills dst with up to len(dst) consecutive buffers
	// starting at first and returns how many were filled. It returns an
	// error if first has already been purged from the cache.
	SeqnoGetBuffers(dst []CacheBuffer, first Seqno) (n int, err error)

	// Lock/Unlock bracket a send so the cache cannot discard buffers the
	// sender still intends to read. Unlock must be safe to call even if
	// Lock's critical section exited abnormally (cancellation).
	Lock()
	Unlock()
}
