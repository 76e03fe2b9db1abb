package proxy

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"

	"github.com/flashdb/redisproxy/internal/protocol"
)

var (
	// ErrInvalidArgument is returned by Connect for an empty host.
	ErrInvalidArgument = errors.New("proxy: invalid argument")
	// ErrAlreadyConnected is returned by Connect when a session is open.
	ErrAlreadyConnected = errors.New("proxy: already connected")
	// ErrConnect wraps a failure to open a session.
	ErrConnect = errors.New("proxy: connect failed")
	// ErrTimeoutConfig is returned when the timeout cannot be applied to a session.
	ErrTimeoutConfig = errors.New("proxy: cannot apply timeout")
	// ErrNotConnected is returned when an operation needs a session and there is none.
	ErrNotConnected = errors.New("proxy: not connected")
	// ErrRequest means no reply was obtained: the attempt budget ran out or
	// the reconnect between attempts failed.
	ErrRequest = errors.New("proxy: request failed")
	// ErrShutdownRejected is returned by Shutdown when the server replies.
	ErrShutdownRejected = errors.New("proxy: shutdown rejected")
	// ErrUnexpectedReply is recorded when a reply arrives with a shape the
	// operation does not accept.
	ErrUnexpectedReply = errors.New("proxy: unexpected reply")
)

// ServerError is a reply of type error. The command reached the store and
// was refused, so it is never retried.
type ServerError struct {
	Msg string
}

func (e *ServerError) Error() string {
	return "proxy: server error: " + e.Msg
}

// errorClass buckets transport failures the way the retry loop cares about.
type errorClass uint8

const (
	classNone errorClass = iota
	classIO
	classEOF
	classProtocol
	classOther
)

func (c errorClass) String() string {
	switch c {
	case classNone:
		return "none"
	case classIO:
		return "io"
	case classEOF:
		return "eof"
	case classProtocol:
		return "protocol"
	default:
		return "other"
	}
}

// needsReconnect reports whether the session must be replaced before the
// next send. A framing error leaves unread bytes on the stream, so the
// session is as unusable as after an IO error.
func (c errorClass) needsReconnect() bool {
	return c == classIO || c == classEOF || c == classProtocol
}

// classify maps a send/receive failure onto an errorClass. Timeouts surface
// as net.Error and land in classIO.
func classify(err error) errorClass {
	var netErr net.Error
	switch {
	case err == nil:
		return classNone
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return classEOF
	case errors.Is(err, protocol.ErrInvalidProtocol):
		return classProtocol
	case errors.As(err, &netErr), errors.Is(err, net.ErrClosed),
		errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE):
		return classIO
	default:
		return classOther
	}
}

func requestError(cause error) error {
	return fmt.Errorf("%w: %w", ErrRequest, cause)
}
