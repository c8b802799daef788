package ist

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/dutow/galera/internal/config"
)

// recordingTestHandler is a minimal Handler for the white-box tests in this
// file, which need package-internal wire helpers and so can't reuse
// ist_test's recordingHandler.
type recordingTestHandler struct {
	mu     sync.Mutex
	seqnos []Seqno
	done   chan struct{}
	code   ErrorCode
}

func newRecordingTestHandler() *recordingTestHandler {
	return &recordingTestHandler{done: make(chan struct{})}
}

func (h *recordingTestHandler) IstTrx(tr *TrxHandle, mustApply, preload bool) error {
	h.mu.Lock()
	h.seqnos = append(h.seqnos, tr.Seqno)
	h.mu.Unlock()
	ReleaseTrxHandle(tr)
	return nil
}

func (h *recordingTestHandler) IstCC(a *Action, mustApply, preload bool) error {
	h.mu.Lock()
	h.seqnos = append(h.seqnos, a.Seqno)
	h.mu.Unlock()
	return nil
}

func (h *recordingTestHandler) IstEnd(code ErrorCode) {
	h.mu.Lock()
	h.code = code
	h.mu.Unlock()
	close(h.done)
}

// TestReceiver_OutOfOrderEvent_IsProtocolError drives the receiver with a
// raw, hand-written stream rather than a real Sender, so it can send
// seqnos 3, 5, 4 in that order: the donor advertising 3 then jumping to 5
// before backfilling 4. The receiver must accept 3, then fail as soon as
// 5 arrives instead of the expected 4, without ever seeing the dangling 4.
func TestReceiver_OutOfOrderEvent_IsProtocolError(t *testing.T) {
	t.Parallel()
	// --- given ---
	handler := newRecordingTestHandler()
	cfg := &config.Config{RecvAddr: "127.0.0.1:0"}
	r := NewReceiver(cfg, handler, CurrentVersion, 20)
	if err := r.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	r.Ready(3)

	conn, err := net.Dial("tcp", r.ListenAddr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if _, err := readHandshake(conn); err != nil {
		t.Fatalf("readHandshake: %v", err)
	}
	if err := writeHandshakeResponse(conn, handshakeResponseMsg{Version: CurrentVersion, First: 3, Last: 20}); err != nil {
		t.Fatalf("writeHandshakeResponse: %v", err)
	}
	if code, err := readCtrl(conn); err != nil || code != CtrlOK {
		t.Fatalf("readCtrl: code=%v err=%v", code, err)
	}

	// --- when: donor streams 3, 5, 4 instead of 3, 4, 5 ---
	for _, seqno := range []Seqno{3, 5, 4} {
		if err := writeActionFrame(conn, Action{Seqno: seqno, Type: ActionWriteset, Payload: []byte{byte(seqno)}}, false); err != nil {
			t.Fatalf("writeActionFrame(%d): %v", seqno, err)
		}
	}

	// --- then ---
	select {
	case <-handler.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for IstEnd")
	}

	handler.mu.Lock()
	seqnos := append([]Seqno(nil), handler.seqnos...)
	code := handler.code
	handler.mu.Unlock()

	if len(seqnos) != 1 || seqnos[0] != 3 {
		t.Errorf("seqnos delivered = %v, want [3] (never reaching the dangling 4)", seqnos)
	}
	if code != ErrProtocol {
		t.Errorf("IstEnd code = %v, want ErrProtocol", code)
	}
}

// TestReceiver_FirstEventAboveFirstSeqno_IsProtocolError covers spec §5's
// "the first recv_ordered that returns a real action must satisfy
// seqno <= first_seqno" requirement: a donor that starts its stream above
// the seqno the joiner asked to have applied must be rejected immediately,
// before any event reaches the handler.
func TestReceiver_FirstEventAboveFirstSeqno_IsProtocolError(t *testing.T) {
	t.Parallel()
	// --- given: joiner wants everything from seqno 10 onward ---
	handler := newRecordingTestHandler()
	cfg := &config.Config{RecvAddr: "127.0.0.1:0"}
	r := NewReceiver(cfg, handler, CurrentVersion, 20)
	if err := r.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	r.Ready(10)

	conn, err := net.Dial("tcp", r.ListenAddr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if _, err := readHandshake(conn); err != nil {
		t.Fatalf("readHandshake: %v", err)
	}
	if err := writeHandshakeResponse(conn, handshakeResponseMsg{Version: CurrentVersion, First: 10, Last: 20}); err != nil {
		t.Fatalf("writeHandshakeResponse: %v", err)
	}
	if code, err := readCtrl(conn); err != nil || code != CtrlOK {
		t.Fatalf("readCtrl: code=%v err=%v", code, err)
	}

	// --- when: donor's very first event is above first_seqno ---
	if err := writeActionFrame(conn, Action{Seqno: 11, Type: ActionWriteset, Payload: []byte{11}}, false); err != nil {
		t.Fatalf("writeActionFrame(11): %v", err)
	}

	// --- then ---
	select {
	case <-handler.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for IstEnd")
	}

	handler.mu.Lock()
	seqnos := append([]Seqno(nil), handler.seqnos...)
	code := handler.code
	handler.mu.Unlock()

	if len(seqnos) != 0 {
		t.Errorf("seqnos delivered = %v, want none (rejected before dispatch)", seqnos)
	}
	if code != ErrProtocol {
		t.Errorf("IstEnd code = %v, want ErrProtocol", code)
	}
}
