package ist

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dutow/galera/internal/log"
)

// Frame kinds. A connection, after the fixed handshake exchange, is a
// stream of frames of either kind until a ctrl(C_EOF) frame or a closed
// socket ends it.
const (
	frameAction byte = 0
	frameCtrl   byte = 1
)

// CtrlCode is the payload of a ctrl frame: zero accepts, negative rejects
// or signals end-of-stream.
type CtrlCode int32

const (
	CtrlOK  CtrlCode = 0
	CtrlEOF CtrlCode = -1
)

const preloadBit uint8 = 0x80

// handshakeMsg is sent by the receiver (the TCP server) immediately after
// accepting the connection (and completing any TLS handshake).
type handshakeMsg struct {
	Version      uint8
	Capabilities uint32
}

// handshakeResponseMsg is the sender's (the TCP client's) reply, echoing
// the negotiated version and confirming the range it is about to stream.
type handshakeResponseMsg struct {
	Version uint8
	First   int64
	Last    int64
}

func writeHandshake(w io.Writer, m handshakeMsg) error {
	buf := make([]byte, 5)
	buf[0] = m.Version
	binary.LittleEndian.PutUint32(buf[1:], m.Capabilities)
	_, err := w.Write(buf)
	return err
}

func readHandshake(r io.Reader) (handshakeMsg, error) {
	buf := make([]byte, 5)
	if _, err := io.ReadFull(r, buf); err != nil {
		return handshakeMsg{}, err
	}
	return handshakeMsg{
		Version:      buf[0],
		Capabilities: binary.LittleEndian.Uint32(buf[1:]),
	}, nil
}

func writeHandshakeResponse(w io.Writer, m handshakeResponseMsg) error {
	buf := make([]byte, 17)
	buf[0] = m.Version
	binary.LittleEndian.PutUint64(buf[1:], uint64(m.First))
	binary.LittleEndian.PutUint64(buf[9:], uint64(m.Last))
	_, err := w.Write(buf)
	return err
}

func readHandshakeResponse(r io.Reader) (handshakeResponseMsg, error) {
	buf := make([]byte, 17)
	if _, err := io.ReadFull(r, buf); err != nil {
		return handshakeResponseMsg{}, err
	}
	return handshakeResponseMsg{
		Version: buf[0],
		First:   int64(binary.LittleEndian.Uint64(buf[1:])),
		Last:    int64(binary.LittleEndian.Uint64(buf[9:])),
	}, nil
}

func writeCtrl(w io.Writer, code CtrlCode) error {
	_, err := w.Write(encodeCtrl(code))
	return err
}

func readCtrl(r io.Reader) (CtrlCode, error) {
	kind, err := readByte(r)
	if err != nil {
		return 0, err
	}
	if kind != frameCtrl {
		return 0, fmt.Errorf("ist: expected ctrl frame, got frame kind %d", kind)
	}
	buf := make([]byte, 4)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, err
	}
	return CtrlCode(int32(binary.LittleEndian.Uint32(buf))), nil
}

func readByte(r io.Reader) (byte, error) {
	buf := make([]byte, 1)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// encodeActionFrame builds one streamed event's wire form as a single
// buffer, so a concurrent Close() from a cancellation watcher can't tear
// it mid-write and so it can be handed off whole to a FairMux.
func encodeActionFrame(a Action, preload bool) []byte {
	typeByte := uint8(a.Type)
	if preload {
		typeByte |= preloadBit
	}
	buf := make([]byte, 1+1+8+4+len(a.Payload))
	buf[0] = frameAction
	buf[1] = typeByte
	binary.LittleEndian.PutUint64(buf[2:], uint64(a.Seqno))
	binary.LittleEndian.PutUint32(buf[10:], uint32(len(a.Payload)))
	copy(buf[14:], a.Payload)
	return buf
}

func encodeCtrl(code CtrlCode) []byte {
	buf := make([]byte, 5)
	buf[0] = frameCtrl
	binary.LittleEndian.PutUint32(buf[1:], uint32(int32(code)))
	return buf
}

// writeActionFrame encodes one streamed event as a single buffer so a
// concurrent Close() from a cancellation watcher can't tear it mid-write.
func writeActionFrame(w io.Writer, a Action, preload bool) error {
	_, err := w.Write(encodeActionFrame(a, preload))
	return err
}

// maxPayloadSize bounds a single frame's declared payload length, guarding
// recvOrdered against a corrupt or malicious peer claiming a huge length
// and exhausting memory on an allocation before any data has arrived.
const maxPayloadSize = 256 * 1024 * 1024

// recvOrdered reads the next frame. A ctrl(C_EOF) frame is surfaced as an
// Action with Type == ActionUnknown; any other ctrl code mid-stream is a
// protocol error.
func recvOrdered(r io.Reader) (Action, bool, error) {
	kind, err := readByte(r)
	if err != nil {
		return Action{}, false, err
	}
	switch kind {
	case frameCtrl:
		buf := make([]byte, 4)
		if _, err := io.ReadFull(r, buf); err != nil {
			return Action{}, false, err
		}
		code := CtrlCode(int32(binary.LittleEndian.Uint32(buf)))
		if code == CtrlEOF {
			return Action{Type: ActionUnknown}, false, nil
		}
		return Action{}, false, fmt.Errorf("ist: unexpected ctrl code %d mid-stream", code)
	case frameAction:
		head := make([]byte, 1+8+4)
		if _, err := io.ReadFull(r, head); err != nil {
			return Action{}, false, err
		}
		typeByte := head[0]
		preload := typeByte&preloadBit != 0
		typ := ActionType(typeByte &^ preloadBit)
		seqno := Seqno(binary.LittleEndian.Uint64(head[1:9]))
		length := binary.LittleEndian.Uint32(head[9:13])
		if length > maxPayloadSize {
			return Action{}, false, fmt.Errorf("ist: frame payload length %d exceeds limit", length)
		}
		var payload []byte
		if length > 0 {
			payload = make([]byte, length)
			if _, err := io.ReadFull(r, payload); err != nil {
				return Action{}, false, err
			}
		}
		return Action{Seqno: seqno, Type: typ, Payload: payload}, preload, nil
	default:
		return Action{}, false, fmt.Errorf("ist: unknown frame kind %d", kind)
	}
}

// sendOrdered writes one cache buffer as an action frame.
func sendOrdered(w io.Writer, b CacheBuffer, preload bool) error {
	return writeActionFrame(w, Action{Seqno: b.Seqno, Type: b.Type, Payload: b.Payload}, preload)
}

// sendEOFAndDrain signals end-of-stream and then blocks reading until the
// peer closes its end, logging (but not failing on) any unexpected bytes
// it sees in the meantime.
func sendEOFAndDrain(conn io.ReadWriter) error {
	if err := writeCtrl(conn, CtrlEOF); err != nil {
		return err
	}
	drainUntilClose(conn)
	return nil
}

func drainUntilClose(r io.Reader) {
	buf := make([]byte, 256)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			log.Warn("ist: unexpected %d bytes from peer during post-EOF drain, ignoring", n)
		}
		if err != nil {
			return
		}
	}
}
