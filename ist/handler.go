package ist

import (
	"sync"

	"github.com/dutow/galera/internal/log"
)

// TrxHandle wraps one streamed write-set event for delivery to a Handler.
// Dummy is set for events whose payload was withheld upstream (replayed
// from local storage instead); handlers must not dereference Payload when
// Dummy is true. Handlers release a TrxHandle back to the pool with
// ReleaseTrxHandle once they're done with it.
type TrxHandle struct {
	Seqno    Seqno
	Payload  []byte
	NonLocal bool
	Dummy    bool
}

var trxHandlePool = sync.Pool{New: func() interface{} { return new(TrxHandle) }}

func acquireTrxHandle() *TrxHandle {
	return trxHandlePool.Get().(*TrxHandle)
}

// ReleaseTrxHandle returns a TrxHandle to the pool. Callers must not touch
// the handle again afterward.
func ReleaseTrxHandle(h *TrxHandle) {
	*h = TrxHandle{}
	trxHandlePool.Put(h)
}

// Handler receives the events a Receiver streams in. mustApply tells the
// handler whether the event falls within the range it asked to have
// applied (as opposed to merely preloaded into the certification index);
// preload tells it whether the event also needs preloading.
type Handler interface {
	IstTrx(h *TrxHandle, mustApply, preload bool) error
	IstCC(a *Action, mustApply, preload bool) error
	IstEnd(code ErrorCode)
}

type loggingHandler struct {
	next Handler
}

// WithLogging wraps a Handler with a debug-level trace of every callback.
func WithLogging(h Handler) Handler {
	return &loggingHandler{next: h}
}

func (l *loggingHandler) IstTrx(h *TrxHandle, mustApply, preload bool) error {
	log.Debug("ist: trx seqno=%d must_apply=%v preload=%v dummy=%v", h.Seqno, mustApply, preload, h.Dummy)
	return l.next.IstTrx(h, mustApply, preload)
}

func (l *loggingHandler) IstCC(a *Action, mustApply, preload bool) error {
	log.Debug("ist: cc seqno=%d must_apply=%v preload=%v", a.Seqno, mustApply, preload)
	return l.next.IstCC(a, mustApply, preload)
}

func (l *loggingHandler) IstEnd(code ErrorCode) {
	log.Debug("ist: end code=%s", code)
	l.next.IstEnd(code)
}
