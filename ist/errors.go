package ist

import (
	"errors"
	"fmt"
	"syscall"
)

// ErrorCode is the small, POSIX-errno-shaped vocabulary IST uses to report
// outcomes across the Handler.IstEnd callback and the async sender pool's
// join_seqno encoding. Zero means success.
type ErrorCode int

const (
	ErrNone        ErrorCode = 0
	ErrInterrupted ErrorCode = ErrorCode(syscall.EINTR)
	ErrProtocol    ErrorCode = ErrorCode(syscall.EPROTO)
	ErrInvalid     ErrorCode = ErrorCode(syscall.EINVAL)
	ErrIO          ErrorCode = ErrorCode(syscall.EIO)
)

func (c ErrorCode) String() string {
	switch c {
	case ErrNone:
		return "OK"
	case ErrInterrupted:
		return "EINTR"
	case ErrProtocol:
		return "EPROTO"
	case ErrInvalid:
		return "EINVAL"
	case ErrIO:
		return "EIO"
	default:
		return fmt.Sprintf("errno(%d)", int(c))
	}
}

// Error pairs an ErrorCode with the Go error that caused it, if any. IST's
// first-error-wins rule operates on the Code, not on error identity.
type Error struct {
	Code ErrorCode
	Err  error
}

func NewError(code ErrorCode, cause error) *Error {
	return &Error{Code: code, Err: cause}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func errCacheExhausted(first, last Seqno) error {
	return fmt.Errorf("ist: cache exhausted at seqno %d before reaching requested last %d", first, last)
}

func errHandshakeRejected(code CtrlCode) error {
	return fmt.Errorf("ist: peer rejected handshake with ctrl code %d", code)
}

// codeFromError extracts an ErrorCode from any error, defaulting to EIO for
// errors that didn't originate from this package (a closed connection
// surfaced by the standard library, for instance).
func codeFromError(err error) ErrorCode {
	if err == nil {
		return ErrNone
	}
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Code
	}
	return ErrIO
}
