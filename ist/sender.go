package ist

import (
	"context"
	"crypto/tls"
	"net"
	"strings"

	"github.com/dutow/galera/internal/config"
	"github.com/dutow/galera/internal/log"
	"github.com/dutow/galera/internal/metrics"
)

// sendBatchSize bounds a single SeqnoGetBuffers call.
const sendBatchSize = 1024

// Sender is the donor side of IST: it dials the joiner's listening
// address, performs the client half of the handshake, and streams a
// requested Range out of a Cache.
type Sender struct {
	peerAddr  string
	version   uint8
	tlsConfig *tls.Config
	cache     Cache

	mux     *FairMux
	segment int
}

// NewSender builds a Sender for one donor run. tlsConfig may be nil for a
// plaintext connection.
func NewSender(peerAddr string, version uint8, tlsConfig *tls.Config, cache Cache) *Sender {
	return &Sender{peerAddr: peerAddr, version: version, tlsConfig: tlsConfig, cache: cache}
}

// UseFairMux routes this Sender's streamed frames through mux instead of
// writing them to its connection directly, so its bandwidth is shared
// fairly with any other concurrent donor send registered on the same
// mux. Must be called before Run.
func (s *Sender) UseFairMux(mux *FairMux) {
	s.mux = mux
}

// Run dials the peer, negotiates the handshake, and streams rng. It
// returns nil only after the full range (or an empty range) has been
// acknowledged; any other outcome is returned as an *Error.
func (s *Sender) Run(ctx context.Context, rng Range) error {
	conn, err := dialAddr(s.peerAddr, s.tlsConfig)
	if err != nil {
		return NewError(ErrIO, err)
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	if err := clientHandshake(conn, s.version, rng); err != nil {
		return err
	}

	if s.mux != nil {
		s.segment = s.mux.Register(conn)
		defer s.mux.Unregister(s.segment)
	}

	if rng.Empty(s.version) {
		log.Debug("ist: sender range is empty, sending EOF immediately")
		if err := s.sendEOF(conn); err != nil {
			return NewError(ErrIO, err)
		}
		return nil
	}

	s.cache.Lock()
	defer s.cache.Unlock()

	first := rng.First
	for first <= rng.Last {
		want := sendBatchSize
		if remaining := int64(rng.Last) - int64(first) + 1; remaining < int64(want) {
			want = int(remaining)
		}
		buffers := make([]CacheBuffer, want)
		n, err := s.cache.SeqnoGetBuffers(buffers, first)
		if err != nil {
			return NewError(ErrIO, err)
		}
		if n == 0 {
			return NewError(ErrProtocol, errCacheExhausted(first, rng.Last))
		}

		for i := 0; i < n; i++ {
			b := buffers[i]
			preload := rng.PreloadStart > 0 && b.Seqno >= rng.PreloadStart
			if err := s.sendFrame(conn, b, preload); err != nil {
				return NewError(ErrIO, err)
			}
			metrics.EventsStreamed.WithLabelValues("donor", b.Type.String()).Inc()
			metrics.BytesTransferred.WithLabelValues("donor").Add(float64(len(b.Payload)))

			if b.Seqno == rng.Last {
				if err := s.sendEOF(conn); err != nil {
					return NewError(ErrIO, err)
				}
				return nil
			}
		}
		first += Seqno(n)
	}
	return nil
}

// sendFrame writes one streamed event, through the fair mux if one is in
// use, or directly to conn otherwise.
func (s *Sender) sendFrame(conn net.Conn, b CacheBuffer, preload bool) error {
	if s.mux != nil {
		s.mux.Write(s.segment, encodeActionFrame(Action{Seqno: b.Seqno, Type: b.Type, Payload: b.Payload}, preload))
		return nil
	}
	return sendOrdered(conn, b, preload)
}

// sendEOF signals end-of-stream, waiting for any mux-queued frames ahead
// of it to actually reach the wire first, then drains conn until the peer
// closes it.
func (s *Sender) sendEOF(conn net.Conn) error {
	if s.mux != nil {
		s.mux.Write(s.segment, encodeCtrl(CtrlEOF))
		s.mux.Drain(s.segment)
	} else if err := writeCtrl(conn, CtrlEOF); err != nil {
		return err
	}
	drainUntilClose(conn)
	return nil
}

// clientHandshake runs the sender's half of the handshake: read the
// receiver's announcement, echo the version and confirmed range, then
// read its accept/reject ctrl frame.
func clientHandshake(conn net.Conn, version uint8, rng Range) error {
	hs, err := readHandshake(conn)
	if err != nil {
		return NewError(ErrIO, err)
	}
	if hs.Version != version {
		log.Warn("ist: peer announced protocol version %d, we speak %d", hs.Version, version)
	}

	if err := writeHandshakeResponse(conn, handshakeResponseMsg{
		Version: version,
		First:   int64(rng.First),
		Last:    int64(rng.Last),
	}); err != nil {
		return NewError(ErrIO, err)
	}

	code, err := readCtrl(conn)
	if err != nil {
		return NewError(ErrIO, err)
	}
	if code != CtrlOK {
		return NewError(ErrProtocol, errHandshakeRejected(code))
	}
	return nil
}

func dialAddr(addr string, tlsConfig *tls.Config) (net.Conn, error) {
	network := "tcp"
	hostport := addr
	switch {
	case strings.HasPrefix(addr, "tcp://"):
		hostport = strings.TrimPrefix(addr, "tcp://")
	case strings.HasPrefix(addr, "ssl://"):
		hostport = strings.TrimPrefix(addr, "ssl://")
	}

	if tlsConfig != nil {
		return tls.Dial(network, hostport, tlsConfig)
	}
	return net.Dial(network, hostport)
}

// ResolveTLSConfig is a convenience wrapper so cmd/istd doesn't need to
// reach into this package's unexported buildTLSConfig directly for the
// common "build from a parsed Config" case.
func ResolveTLSConfig(c *config.Config) (*tls.Config, error) {
	return buildTLSConfig(c.TLS)
}

// Ping dials addr, runs the handshake with an empty range, and reports
// whether a receiver is listening and reachable there without streaming
// any real events. It's the basis for "istd connect --ping".
func Ping(addr string, version uint8, tlsConfig *tls.Config) error {
	conn, err := dialAddr(addr, tlsConfig)
	if err != nil {
		return NewError(ErrIO, err)
	}
	defer conn.Close()

	if err := clientHandshake(conn, version, Range{}); err != nil {
		return err
	}
	return sendEOFAndDrain(conn)
}
