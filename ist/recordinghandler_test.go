package ist_test

import (
	"sync"

	"github.com/dutow/galera/ist"
)

type recordedEvent struct {
	seqno     ist.Seqno
	typ       ist.ActionType
	mustApply bool
	preload   bool
	dummy     bool
}

// recordingHandler is an ist.Handler that records every callback for
// assertions, standing in for the certification/apply pipeline.
type recordingHandler struct {
	mu     sync.Mutex
	events []recordedEvent
	ended  bool
	code   ist.ErrorCode
	done   chan struct{}
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{done: make(chan struct{})}
}

func (h *recordingHandler) IstTrx(tr *ist.TrxHandle, mustApply, preload bool) error {
	h.mu.Lock()
	h.events = append(h.events, recordedEvent{
		seqno: tr.Seqno, typ: ist.ActionWriteset, mustApply: mustApply, preload: preload, dummy: tr.Dummy,
	})
	h.mu.Unlock()
	ist.ReleaseTrxHandle(tr)
	return nil
}

func (h *recordingHandler) IstCC(a *ist.Action, mustApply, preload bool) error {
	h.mu.Lock()
	h.events = append(h.events, recordedEvent{
		seqno: a.Seqno, typ: ist.ActionCChange, mustApply: mustApply, preload: preload,
	})
	h.mu.Unlock()
	return nil
}

func (h *recordingHandler) IstEnd(code ist.ErrorCode) {
	h.mu.Lock()
	h.ended = true
	h.code = code
	h.mu.Unlock()
	close(h.done)
}

func (h *recordingHandler) snapshot() []recordedEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]recordedEvent, len(h.events))
	copy(out, h.events)
	return out
}
