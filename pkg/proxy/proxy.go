// Package proxy provides a resilient client-side handle to a single
// Redis-compatible store endpoint.
//
// A Proxy owns at most one connection. Every typed operation formats one
// command, sends it through a shared retry loop and maps the reply onto a
// small outcome enumeration. Transport failures (no reply at all) are
// absorbed by closing the session, reconnecting to the endpoint captured at
// Connect time and resending, up to RetryCount extra attempts. Error replies
// from the server are returned at once and never resent.
//
// Basic usage:
//
//	p := proxy.New()
//	if err := p.Connect("localhost", 6379); err != nil {
//		log.Fatal(err)
//	}
//	defer p.Close()
//
//	p.Set("greeting", []byte("hello"))
//	v, outcome := p.Get("greeting")
//
// A Proxy is not safe for concurrent use. Give each goroutine its own
// Proxy; Duplicate makes one with the same endpoint and settings.
package proxy

import (
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultRetryCount is the number of resends after the first attempt.
	DefaultRetryCount = 1
	// DefaultTimeout bounds each read and write on the session.
	DefaultTimeout = 2000 * time.Millisecond
)

// DialFunc opens the transport connection. It has the signature of
// net.DialTimeout.
type DialFunc func(network, address string, timeout time.Duration) (net.Conn, error)

// Config holds Proxy settings.
type Config struct {
	// RetryCount is how many times a command is resent after a transport
	// failure; RetryCount+1 attempts in total.
	RetryCount uint
	// Timeout applies to connect, and to each read and write on the session.
	// Zero disables deadlines.
	Timeout time.Duration
	// Logger receives diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
	// Dial opens connections. Defaults to net.DialTimeout.
	Dial DialFunc
}

// DefaultConfig returns the default Proxy configuration.
func DefaultConfig() Config {
	return Config{
		RetryCount: DefaultRetryCount,
		Timeout:    DefaultTimeout,
		Logger:     slog.Default(),
		Dial:       net.DialTimeout,
	}
}

// State is the connection state of a Proxy.
type State int

const (
	// StateUnconnected: no session.
	StateUnconnected State = iota
	// StateConnected: a session exists and the last round-trip succeeded.
	StateConnected
	// StateDegraded: a session exists but the last attempt failed at the
	// transport level; the next attempt reconnects first.
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateUnconnected:
		return "unconnected"
	case StateConnected:
		return "connected"
	case StateDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// Proxy is the user-facing handle to one store endpoint.
type Proxy struct {
	id         uuid.UUID
	host       string
	port       int
	retryCount uint
	timeout    time.Duration
	dial       DialFunc
	base       *slog.Logger
	logger     *slog.Logger

	sess      *session
	lastClass errorClass
	lastErr   error
}

// New creates an unconnected Proxy with the default configuration.
func New() *Proxy {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates an unconnected Proxy. Zero-valued Logger and Dial
// fall back to the defaults.
func NewWithConfig(cfg Config) *Proxy {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Dial == nil {
		cfg.Dial = net.DialTimeout
	}
	id := uuid.New()
	return &Proxy{
		id:         id,
		retryCount: cfg.RetryCount,
		timeout:    cfg.Timeout,
		dial:       cfg.Dial,
		base:       cfg.Logger,
		logger:     cfg.Logger.With(slog.String("proxy_id", id.String())),
	}
}

// ID identifies this Proxy in log records.
func (p *Proxy) ID() uuid.UUID { return p.id }

// Host returns the endpoint host given to Connect.
func (p *Proxy) Host() string { return p.host }

// Port returns the endpoint port given to Connect.
func (p *Proxy) Port() int { return p.port }

// RetryCount returns the number of resends allowed after a transport failure.
func (p *Proxy) RetryCount() uint { return p.retryCount }

// SetRetryCount changes the retry budget for subsequent operations.
func (p *Proxy) SetRetryCount(n uint) { p.retryCount = n }

// Timeout returns the per-read/write timeout.
func (p *Proxy) Timeout() time.Duration { return p.timeout }

// SetTimeout changes the timeout. It takes effect on the next round-trip.
func (p *Proxy) SetTimeout(d time.Duration) { p.timeout = d }

// State reports the connection state.
func (p *Proxy) State() State {
	switch {
	case p.sess == nil:
		return StateUnconnected
	case p.lastClass.needsReconnect():
		return StateDegraded
	default:
		return StateConnected
	}
}

// LastError returns the cause of the most recent failed operation, or nil if
// the most recent operation got a non-error reply. Use errors.Is with
// ErrRequest and errors.As with *ServerError to tell the two apart.
func (p *Proxy) LastError() error { return p.lastErr }
