package ist

import (
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/dutow/galera/internal/config"
	"github.com/dutow/galera/internal/metrics"
)

// Receiver is the joiner side of IST. It accepts exactly one connection on
// its configured address, negotiates the handshake immediately, then
// blocks the streaming loop until Ready is called with the seqno SST
// actually left off at — letting the TCP accept and handshake race ahead
// of SST instead of stalling the donor's connection attempt.
type Receiver struct {
	cfg     *config.Config
	handler Handler
	version uint8

	addr      string
	tlsConfig *tls.Config

	mu          sync.Mutex
	cond        *sync.Cond
	prepared    bool
	ready       bool
	interrupted bool
	errorCode   ErrorCode

	firstSeqno   Seqno
	lastSeqno    Seqno
	currentSeqno Seqno

	listener net.Listener
	conn     net.Conn
	wg       sync.WaitGroup
	progress *progressTracker
}

// NewReceiver builds a Receiver that treats a stream ending before seqno
// lastSeqno as a protocol error; lastSeqno 0 turns that check off.
// handler is wrapped with WithLogging.
func NewReceiver(cfg *config.Config, handler Handler, version uint8, lastSeqno Seqno) *Receiver {
	r := &Receiver{
		cfg:       cfg,
		handler:   WithLogging(handler),
		version:   version,
		lastSeqno: lastSeqno,
		errorCode: ErrNone,
	}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Prepare resolves the bind address, starts listening, and spawns the
// background goroutine that accepts the single donor connection and runs
// the handshake. It returns once the listener is up so the caller can
// safely hand the resolved address to group communication.
func (r *Receiver) Prepare() error {
	bind, err := r.cfg.ResolveRecvBind()
	if err != nil {
		return NewError(ErrInvalid, err)
	}
	addr, err := r.cfg.ResolveRecvAddr()
	if err != nil {
		return NewError(ErrInvalid, err)
	}
	r.addr = addr

	tlsConfig, err := buildTLSConfig(r.cfg.TLS)
	if err != nil {
		return NewError(ErrInvalid, err)
	}
	r.tlsConfig = tlsConfig

	network, hostport := splitNetworkAddr(bind)
	lis, err := net.Listen(network, hostport)
	if err != nil {
		return NewError(ErrIO, err)
	}
	r.listener = lis

	r.mu.Lock()
	r.prepared = true
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run()
	return nil
}

// Addr returns the configured address the receiver is listening on, valid
// once Prepare has returned successfully.
func (r *Receiver) Addr() string {
	return r.addr
}

// ListenAddr returns the listener's actual bound address, useful when Addr
// names an ephemeral port (":0") and the real port is needed to hand to a
// donor out of band.
func (r *Receiver) ListenAddr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listener == nil {
		return nil
	}
	return r.listener.Addr()
}

// Ready unblocks the streaming loop, recording firstSeqno as the seqno
// SST actually left the joiner's state at.
func (r *Receiver) Ready(firstSeqno Seqno) {
	r.mu.Lock()
	r.firstSeqno = firstSeqno
	r.ready = true
	r.cond.Broadcast()
	r.mu.Unlock()
}

// Finished requests the Receiver stop, interrupting it if it is currently
// blocked (either waiting for Ready or inside the streaming loop), and
// waits for its background goroutine to exit. It returns the final error,
// if any, obeying first-error-wins.
//
// The wsrep original unblocks a stuck accept()/recv() by dialing its own
// listening address to push a clean EOF through the socket, a workaround
// for C++ networking code with no native cancellation. Go's net.Listener
// and net.Conn both unblock a concurrent blocked call on Close with a
// well-defined error, so that is used directly here instead; see
// DESIGN.md for why the self-connect trick itself isn't needed.
func (r *Receiver) Finished() error {
	r.mu.Lock()
	if !r.prepared {
		r.mu.Unlock()
		return nil
	}
	r.interrupted = true
	r.cond.Broadcast()
	lis, conn := r.listener, r.conn
	r.mu.Unlock()

	if lis != nil {
		lis.Close()
	}
	if conn != nil {
		conn.Close()
	}

	r.wg.Wait()

	r.mu.Lock()
	code := r.errorCode
	r.mu.Unlock()
	if code != ErrNone {
		return NewError(code, nil)
	}
	return nil
}

func (r *Receiver) run() {
	defer r.wg.Done()

	conn, err := r.listener.Accept()
	r.listener.Close()
	if err != nil {
		r.mu.Lock()
		interrupted := r.interrupted
		r.mu.Unlock()
		if interrupted {
			r.finish(NewError(ErrInterrupted, nil))
		} else {
			r.finish(NewError(ErrIO, err))
		}
		return
	}
	defer conn.Close()

	r.mu.Lock()
	if r.interrupted {
		r.mu.Unlock()
		r.finish(NewError(ErrInterrupted, nil))
		return
	}
	r.conn = conn
	r.mu.Unlock()

	if r.tlsConfig != nil {
		tlsConn := tls.Server(conn, r.tlsConfig)
		if err := tlsConn.Handshake(); err != nil {
			r.finish(NewError(ErrIO, err))
			return
		}
		conn = tlsConn
	}

	peerVersion, herr := r.serverHandshake(conn)
	if herr != nil {
		r.finish(herr)
		return
	}

	if r.tlsConfig != nil {
		if err := verifyPeerPresented(conn.(*tls.Conn).ConnectionState(), peerVersion); err != nil {
			r.finish(NewError(ErrProtocol, err))
			return
		}
	}

	r.mu.Lock()
	for !r.ready && !r.interrupted {
		r.cond.Wait()
	}
	interrupted := r.interrupted
	r.mu.Unlock()
	if interrupted {
		r.finish(NewError(ErrInterrupted, nil))
		return
	}

	r.streamLoop(conn)
}

// serverHandshake runs the receiver's half of the handshake: announce our
// version, read the sender's response, and accept it.
func (r *Receiver) serverHandshake(conn net.Conn) (uint8, *Error) {
	if err := writeHandshake(conn, handshakeMsg{Version: r.version}); err != nil {
		return 0, NewError(ErrIO, err)
	}
	resp, err := readHandshakeResponse(conn)
	if err != nil {
		return 0, NewError(ErrIO, err)
	}
	if err := writeCtrl(conn, CtrlOK); err != nil {
		return 0, NewError(ErrIO, err)
	}
	return resp.Version, nil
}

func (r *Receiver) streamLoop(conn net.Conn) {
	first := true
	for {
		action, preload, err := recvOrdered(conn)
		if err != nil {
			r.mu.Lock()
			interrupted := r.interrupted
			r.mu.Unlock()
			if interrupted {
				r.finish(NewError(ErrInterrupted, nil))
			} else {
				r.finish(NewError(ErrIO, err))
			}
			return
		}
		if action.Type == ActionUnknown {
			break
		}

		if first {
			if action.Seqno > r.firstSeqno {
				r.finish(NewError(ErrProtocol, fmt.Errorf(
					"ist: stream started with wrong seqno: got %d, expected <= %d", action.Seqno, r.firstSeqno)))
				return
			}
			r.currentSeqno = action.Seqno
			r.progress = newProgressTracker(r.lastSeqno - r.currentSeqno + 1)
			metrics.ProgressLastSeqno.Set(float64(r.lastSeqno))
			first = false
		} else {
			r.currentSeqno++
			if action.Seqno != r.currentSeqno {
				r.finish(NewError(ErrProtocol, fmt.Errorf(
					"ist: out-of-order event: got seqno %d, expected %d", action.Seqno, r.currentSeqno)))
				return
			}
		}

		mustApply := r.currentSeqno >= r.firstSeqno
		if err := r.dispatch(action, mustApply, preload); err != nil {
			r.finish(NewError(ErrProtocol, err))
			return
		}

		metrics.EventsStreamed.WithLabelValues("joiner", action.Type.String()).Inc()
		metrics.BytesTransferred.WithLabelValues("joiner").Add(float64(len(action.Payload)))
		if r.progress != nil {
			r.progress.tick(r.currentSeqno)
		}
	}

	if r.lastSeqno > 0 && r.currentSeqno < r.lastSeqno {
		r.finish(NewError(ErrProtocol, fmt.Errorf(
			"ist: short stream: received up to %d, wanted %d", r.currentSeqno, r.lastSeqno)))
		return
	}
	r.finish(nil)
}

func (r *Receiver) dispatch(a Action, mustApply, preload bool) error {
	switch a.Type {
	case ActionWriteset:
		h := acquireTrxHandle()
		h.Seqno = a.Seqno
		if len(a.Payload) == 0 {
			h.Dummy = true
		} else {
			h.Payload = a.Payload
			h.NonLocal = true
		}
		return r.handler.IstTrx(h, mustApply, preload)
	case ActionCChange:
		return r.handler.IstCC(&a, mustApply, preload)
	default:
		return fmt.Errorf("ist: peer sent invalid action type %d", a.Type)
	}
}

func (r *Receiver) finish(err *Error) {
	code := ErrNone
	if err != nil {
		code = err.Code
	}
	r.mu.Lock()
	if r.errorCode == ErrNone {
		r.errorCode = code
	}
	final := r.errorCode
	r.mu.Unlock()
	r.handler.IstEnd(final)
}

func splitNetworkAddr(addr string) (network, hostport string) {
	switch {
	case strings.HasPrefix(addr, "tcp://"):
		return "tcp", strings.TrimPrefix(addr, "tcp://")
	case strings.HasPrefix(addr, "ssl://"):
		return "tcp", strings.TrimPrefix(addr, "ssl://")
	default:
		return "tcp", addr
	}
}
