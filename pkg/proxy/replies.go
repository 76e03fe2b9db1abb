package proxy

import (
	"fmt"

	"github.com/flashdb/redisproxy/internal/protocol"
)

// unexpected records a reply of the wrong shape as the last error.
func (p *Proxy) unexpected(cmd string, reply protocol.Value) {
	p.lastErr = fmt.Errorf("%w to %s: %s", ErrUnexpectedReply, cmd, reply.String())
}

// okStatus runs a command that answers +OK.
func (p *Proxy) okStatus(name string, args ...protocol.Arg) Status {
	reply, err := p.execute(name, args...)
	if err != nil {
		return StatusErr
	}
	if !reply.IsStatus("OK") {
		p.unexpected(name, reply)
		return StatusErr
	}
	return StatusOK
}

// integer runs a command that answers with an integer.
func (p *Proxy) integer(name string, args ...protocol.Arg) (int64, Status) {
	reply, err := p.execute(name, args...)
	if err != nil {
		return 0, StatusErr
	}
	if reply.Type != protocol.TypeInteger {
		p.unexpected(name, reply)
		return 0, StatusErr
	}
	return reply.Num, StatusOK
}

// array runs a command that answers with an array.
func (p *Proxy) array(name string, args ...protocol.Arg) ([]protocol.Value, Status) {
	reply, err := p.execute(name, args...)
	if err != nil {
		return nil, StatusErr
	}
	if reply.Type != protocol.TypeArray {
		p.unexpected(name, reply)
		return nil, StatusErr
	}
	return reply.Array, StatusOK
}

// lookup runs a command that answers with a bulk string or nil.
func (p *Proxy) lookup(name string, args ...protocol.Arg) ([]byte, Lookup) {
	reply, err := p.execute(name, args...)
	if err != nil {
		return nil, LookupErr
	}
	switch {
	case reply.Type == protocol.TypeBulkString && reply.IsNil():
		return nil, LookupNotFound
	case reply.Type == protocol.TypeBulkString:
		return reply.Bytes(), LookupOK
	default:
		p.unexpected(name, reply)
		return nil, LookupUnknown
	}
}

// bulkValues copies the payload of each array element.
func bulkValues(items []protocol.Value) [][]byte {
	out := make([][]byte, len(items))
	for i, item := range items {
		out[i] = item.Bytes()
	}
	return out
}
