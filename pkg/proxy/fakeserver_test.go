package proxy

import (
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/flashdb/redisproxy/internal/protocol"

	"github.com/stretchr/testify/require"
)

// fakeConn is one accepted connection as seen by a handler. id counts from 1
// in accept order.
type fakeConn struct {
	net.Conn
	id int
	w  *protocol.Writer
}

// fakeHandler answers one request. Returning false closes the connection
// without a reply.
type fakeHandler func(c *fakeConn, args []string) bool

// fakeServer is a scripted RESP server on loopback for fault injection.
type fakeServer struct {
	ln     net.Listener
	handle fakeHandler

	mu       sync.Mutex
	closed   bool
	accepted int
	conns    []net.Conn
	received [][]string
}

func newFakeServer(t *testing.T, handle fakeHandler) *fakeServer {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &fakeServer{ln: ln, handle: handle}
	go s.serve()
	t.Cleanup(s.Close)
	return s
}

func (s *fakeServer) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.accepted++
		c := &fakeConn{Conn: conn, id: s.accepted, w: protocol.NewWriter(conn)}
		s.conns = append(s.conns, conn)
		s.mu.Unlock()
		go s.serveConn(c)
	}
}

func (s *fakeServer) serveConn(c *fakeConn) {
	defer c.Close()
	rd := protocol.NewReader(c)
	for {
		req, err := rd.ReadValue()
		if err != nil {
			return
		}
		args := make([]string, len(req.Array))
		for i, a := range req.Array {
			args[i] = a.Str
		}
		s.mu.Lock()
		s.received = append(s.received, args)
		s.mu.Unlock()
		if !s.handle(c, args) {
			return
		}
	}
}

// Close stops listening and drops every open connection.
func (s *fakeServer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.ln.Close()
	for _, c := range s.conns {
		c.Close()
	}
}

func (s *fakeServer) Accepted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accepted
}

func (s *fakeServer) Received() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.received...)
}

func (s *fakeServer) endpoint(t *testing.T) (string, int) {
	host, portStr, err := net.SplitHostPort(s.ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

// answer is a handler that behaves like a tiny store for the commands the
// tests use.
func answer(c *fakeConn, args []string) bool {
	switch args[0] {
	case "PING":
		return c.w.WriteSimpleString("PONG") == nil
	case "SET", "SETEX", "LTRIM":
		return c.w.WriteSimpleString("OK") == nil
	case "GET", "HGET":
		return c.w.WriteNull() == nil
	case "ZRANGE":
		return c.w.WriteArray([][]byte{[]byte("a"), []byte("1"), []byte("b"), []byte("2")}) == nil
	default:
		return c.w.WriteInteger(1) == nil
	}
}

// dialCounter wraps net.DialTimeout and counts calls. fail makes every call
// after the first n fail.
type dialCounter struct {
	mu    sync.Mutex
	calls int
	fail  int
}

func (d *dialCounter) dial(network, address string, timeout time.Duration) (net.Conn, error) {
	d.mu.Lock()
	d.calls++
	n := d.calls
	d.mu.Unlock()
	if d.fail > 0 && n > d.fail {
		return nil, &net.OpError{Op: "dial", Net: network, Err: errRefused}
	}
	return net.DialTimeout(network, address, timeout)
}

func (d *dialCounter) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type refusedError struct{}

func (refusedError) Error() string { return "connection refused" }

var errRefused error = refusedError{}

// connectFake returns a connected Proxy whose dials are counted.
func connectFake(t *testing.T, s *fakeServer, cfg Config) (*Proxy, *dialCounter) {
	dc := &dialCounter{}
	cfg.Dial = dc.dial
	p := NewWithConfig(cfg)
	host, port := s.endpoint(t)
	require.NoError(t, p.Connect(host, port))
	t.Cleanup(p.Close)
	return p, dc
}
