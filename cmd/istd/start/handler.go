package start

import (
	"github.com/dutow/galera/internal/log"
	"github.com/dutow/galera/ist"
)

// applyHandler is the joiner-side Handler wired into the receiver. The
// certification index and storage engine that would actually apply a
// write-set are out of scope for this daemon; this handler stands in for
// them with a log line per event, the same boundary the teacher draws
// around its own executor package (out of scope for replication/).
type applyHandler struct{}

func newApplyHandler() *applyHandler {
	return &applyHandler{}
}

func (h *applyHandler) IstTrx(tr *ist.TrxHandle, mustApply, preload bool) error {
	defer ist.ReleaseTrxHandle(tr)
	if tr.Dummy {
		log.Debug("ist: skipping dummy writeset seqno=%d", tr.Seqno)
		return nil
	}
	if mustApply {
		log.Info("ist: applying writeset seqno=%d (%d bytes)", tr.Seqno, len(tr.Payload))
	}
	if preload {
		log.Debug("ist: preloading writeset seqno=%d into certification index", tr.Seqno)
	}
	return nil
}

func (h *applyHandler) IstCC(a *ist.Action, mustApply, preload bool) error {
	log.Info("ist: applying configuration change seqno=%d", a.Seqno)
	return nil
}

func (h *applyHandler) IstEnd(code ist.ErrorCode) {
	if code == ist.ErrNone {
		log.Info("ist: joiner caught up successfully")
		return
	}
	log.Error("ist: joiner IST ended with error: %s", code)
}
