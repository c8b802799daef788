package ist

import (
	"bytes"
	"io"
	"testing"
)

func TestHandshake_RoundTrip(t *testing.T) {
	t.Parallel()
	// --- given ---
	var buf bytes.Buffer
	want := handshakeMsg{Version: 7, Capabilities: 0xDEADBEEF}

	// --- when ---
	if err := writeHandshake(&buf, want); err != nil {
		t.Fatalf("writeHandshake: %v", err)
	}
	got, err := readHandshake(&buf)

	// --- then ---
	if err != nil {
		t.Fatalf("readHandshake: %v", err)
	}
	if got != want {
		t.Errorf("readHandshake() = %+v, want %+v", got, want)
	}
}

func TestHandshakeResponse_RoundTrip(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	want := handshakeResponseMsg{Version: 7, First: 101, Last: 9999}

	if err := writeHandshakeResponse(&buf, want); err != nil {
		t.Fatalf("writeHandshakeResponse: %v", err)
	}
	got, err := readHandshakeResponse(&buf)
	if err != nil {
		t.Fatalf("readHandshakeResponse: %v", err)
	}
	if got != want {
		t.Errorf("readHandshakeResponse() = %+v, want %+v", got, want)
	}
}

func TestCtrl_RoundTrip(t *testing.T) {
	t.Parallel()
	for _, code := range []CtrlCode{CtrlOK, CtrlEOF, -17} {
		var buf bytes.Buffer
		if err := writeCtrl(&buf, code); err != nil {
			t.Fatalf("writeCtrl(%d): %v", code, err)
		}
		got, err := readCtrl(&buf)
		if err != nil {
			t.Fatalf("readCtrl: %v", err)
		}
		if got != code {
			t.Errorf("readCtrl() = %d, want %d", got, code)
		}
	}
}

func TestActionFrame_RoundTrip_WithPreloadFlag(t *testing.T) {
	t.Parallel()
	// --- given ---
	var buf bytes.Buffer
	a := Action{Seqno: 42, Type: ActionWriteset, Payload: []byte("hello")}

	// --- when ---
	if err := writeActionFrame(&buf, a, true); err != nil {
		t.Fatalf("writeActionFrame: %v", err)
	}
	got, preload, err := recvOrdered(&buf)

	// --- then ---
	if err != nil {
		t.Fatalf("recvOrdered: %v", err)
	}
	if !preload {
		t.Error("expected preload flag to round-trip as true")
	}
	if got.Seqno != a.Seqno || got.Type != a.Type || !bytes.Equal(got.Payload, a.Payload) {
		t.Errorf("recvOrdered() = %+v, want %+v", got, a)
	}
}

func TestActionFrame_RoundTrip_EmptyPayload_NoPreload(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	a := Action{Seqno: 7, Type: ActionCChange}

	if err := writeActionFrame(&buf, a, false); err != nil {
		t.Fatalf("writeActionFrame: %v", err)
	}
	got, preload, err := recvOrdered(&buf)
	if err != nil {
		t.Fatalf("recvOrdered: %v", err)
	}
	if preload {
		t.Error("expected preload flag to be false")
	}
	if got.Seqno != 7 || got.Type != ActionCChange || len(got.Payload) != 0 {
		t.Errorf("recvOrdered() = %+v", got)
	}
}

func TestRecvOrdered_CtrlEOF_SurfacesAsActionUnknown(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if err := writeCtrl(&buf, CtrlEOF); err != nil {
		t.Fatalf("writeCtrl: %v", err)
	}

	a, _, err := recvOrdered(&buf)
	if err != nil {
		t.Fatalf("recvOrdered: %v", err)
	}
	if a.Type != ActionUnknown {
		t.Errorf("expected ActionUnknown for ctrl(C_EOF), got %v", a.Type)
	}
}

func TestRecvOrdered_UnexpectedCtrlCodeMidStream_IsProtocolError(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if err := writeCtrl(&buf, CtrlOK); err != nil {
		t.Fatalf("writeCtrl: %v", err)
	}

	_, _, err := recvOrdered(&buf)
	if err == nil {
		t.Error("expected an error for an unexpected ctrl(C_OK) mid-stream")
	}
}

func TestRecvOrdered_TruncatedFrame_ReturnsError(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if err := writeActionFrame(&buf, Action{Seqno: 1, Type: ActionWriteset, Payload: []byte("abcdef")}, false); err != nil {
		t.Fatalf("writeActionFrame: %v", err)
	}
	truncated := buf.Bytes()[:buf.Len()-3]

	_, _, err := recvOrdered(bytes.NewReader(truncated))
	if err == nil || err == io.EOF {
		// io.ErrUnexpectedEOF is the expected shape; a plain io.EOF would
		// mean we silently accepted a short frame.
		t.Errorf("expected a truncation error, got %v", err)
	}
}

func TestRecvOrdered_OversizedLength_IsRejectedBeforeAllocating(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	buf.WriteByte(frameAction)
	buf.WriteByte(byte(ActionWriteset))
	binaryPutUint64(&buf, 1)
	binaryPutUint32(&buf, maxPayloadSize+1)

	_, _, err := recvOrdered(&buf)
	if err == nil {
		t.Error("expected an error for an oversized declared payload length")
	}
}

func TestSendEOFAndDrain_LogsButDoesNotFailOnTrailingBytes(t *testing.T) {
	t.Parallel()
	r, w := io.Pipe()
	go func() {
		w.Write([]byte("unexpected"))
		w.Close()
	}()

	if err := sendEOFAndDrain(&loopback{r: r, w: io.Discard}); err != nil {
		t.Fatalf("sendEOFAndDrain: %v", err)
	}
}

// loopback adapts a separate reader/writer pair to io.ReadWriter for tests
// that don't need a full net.Conn.
type loopback struct {
	r io.Reader
	w io.Writer
}

func (l *loopback) Read(p []byte) (int, error)  { return l.r.Read(p) }
func (l *loopback) Write(p []byte) (int, error) { return l.w.Write(p) }

func binaryPutUint64(buf *bytes.Buffer, v uint64) {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	buf.Write(b)
}

func binaryPutUint32(buf *bytes.Buffer, v uint32) {
	b := make([]byte, 4)
	for i := 0; i < 4; i++ {
		b[i] = byte(v >> (8 * i))
	}
	buf.Write(b)
}
