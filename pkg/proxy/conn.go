package proxy

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/flashdb/redisproxy/internal/protocol"
)

// session is one live transport connection with its RESP codec.
type session struct {
	conn net.Conn
	rd   *protocol.Reader
	wr   *protocol.Writer
}

// applyDeadline arms the read and write deadline for one round-trip.
func (s *session) applyDeadline(timeout time.Duration) error {
	if timeout <= 0 {
		return s.conn.SetDeadline(time.Time{})
	}
	return s.conn.SetDeadline(time.Now().Add(timeout))
}

// do sends one command and reads its reply. A nil error means a reply was
// received, which may itself be of type error.
func (s *session) do(timeout time.Duration, name string, args ...protocol.Arg) (protocol.Value, error) {
	if err := s.applyDeadline(timeout); err != nil {
		return protocol.Value{}, err
	}
	if err := s.wr.WriteCommand(name, args...); err != nil {
		return protocol.Value{}, err
	}
	return s.rd.ReadValue()
}

func (s *session) close() error {
	return s.conn.Close()
}

// Connect opens a session to host:port and remembers the endpoint for
// reconnects. It fails if a session is already open.
func (p *Proxy) Connect(host string, port int) error {
	if host == "" {
		p.logger.Warn("proxy: illegal host")
		return fmt.Errorf("%w: empty host", ErrInvalidArgument)
	}
	if p.sess != nil {
		p.logger.Warn("proxy: connect while connected", slog.String("host", p.host), slog.Int("port", p.port))
		return ErrAlreadyConnected
	}
	p.host = host
	p.port = port
	if err := p.connect(); err != nil {
		return err
	}
	p.lastClass = classNone
	return nil
}

// connect dials the saved endpoint.
func (p *Proxy) connect() error {
	log := p.logger.With(slog.String("host", p.host), slog.Int("port", p.port))
	if p.timeout < 0 {
		log.Warn("proxy: set timeout error", slog.Duration("timeout", p.timeout))
		return fmt.Errorf("%w: negative timeout %s", ErrTimeoutConfig, p.timeout)
	}

	addr := net.JoinHostPort(p.host, strconv.Itoa(p.port))
	conn, err := p.dial("tcp", addr, p.timeout)
	if err != nil {
		log.Warn("proxy: init connect error", slog.String("msg", errorText(err)))
		return fmt.Errorf("%w: %s: %w", ErrConnect, addr, err)
	}

	rd := protocol.NewReader(conn)
	rd.SetLimits(0, 0)
	s := &session{conn: conn, rd: rd, wr: protocol.NewWriter(conn)}
	if err := s.applyDeadline(p.timeout); err != nil {
		log.Warn("proxy: set timeout error", slog.Duration("timeout", p.timeout), slog.Any("err", err))
		conn.Close()
		return fmt.Errorf("%w: %w", ErrTimeoutConfig, err)
	}
	p.sess = s
	return nil
}

// errorText distinguishes transport failures from anything else the dialer
// reports.
func errorText(err error) string {
	if classify(err) == classIO {
		return "IO error: " + err.Error()
	}
	return err.Error()
}

// Close releases the session. It is safe to call on an unconnected Proxy.
// After Close, operations fail with ErrNotConnected until Connect is called.
func (p *Proxy) Close() {
	p.closeSession()
	p.lastClass = classNone
}

func (p *Proxy) closeSession() {
	if p.sess == nil {
		return
	}
	if err := p.sess.close(); err != nil && !errors.Is(err, net.ErrClosed) {
		p.logger.Debug("proxy: close session", slog.Any("err", err))
	}
	p.sess = nil
}

// IsAlive sends PING through the retry loop and reports whether the reply
// was a PONG status.
func (p *Proxy) IsAlive() bool {
	reply, err := p.execute("PING")
	return err == nil && reply.IsStatus("PONG")
}

// Duplicate returns a new Proxy for the same endpoint, retry count, timeout
// and logger, with its own freshly dialed connection.
func (p *Proxy) Duplicate() (*Proxy, error) {
	dup := NewWithConfig(Config{
		RetryCount: p.retryCount,
		Timeout:    p.timeout,
		Dial:       p.dial,
		Logger:     p.base,
	})
	if err := dup.Connect(p.host, p.port); err != nil {
		return nil, err
	}
	return dup, nil
}

// Shutdown asks the server to shut down. A well-behaved server closes the
// connection without replying, so receiving no reply counts as success and
// the session is closed. A network failure at this point cannot be told
// apart from a real shutdown and is also reported as success. Any reply
// means the server refused; the session is left untouched.
func (p *Proxy) Shutdown() error {
	if p.sess == nil {
		return ErrNotConnected
	}
	reply, err := p.sess.do(p.timeout, "SHUTDOWN")
	if err != nil {
		p.logger.Debug("proxy: no reply to shutdown", slog.Any("err", err))
		p.Close()
		p.lastErr = nil
		return nil
	}
	p.logger.Warn("proxy: shutdown error", slog.String("host", p.host), slog.Int("port", p.port),
		slog.String("reply", reply.String()))
	return fmt.Errorf("%w: %s", ErrShutdownRejected, reply.String())
}
