package proxy

import (
	"fmt"
	"math"

	"github.com/flashdb/redisproxy/internal/protocol"
)

// Set stores value under key.
func (p *Proxy) Set(key string, value []byte) Status {
	return p.okStatus("SET", protocol.String(key), protocol.Bytes(value))
}

// Get returns the value stored under key. A missing key yields
// LookupNotFound; a reply that is neither a bulk string nor nil yields
// LookupUnknown.
func (p *Proxy) Get(key string) ([]byte, Lookup) {
	return p.lookup("GET", protocol.String(key))
}

// SetEx stores value under key with a time to live in seconds. A ttl above
// math.MaxInt64 is not sent and records ErrInvalidArgument.
func (p *Proxy) SetEx(key string, value []byte, seconds uint64) Status {
	if seconds > math.MaxInt64 {
		p.lastErr = fmt.Errorf("%w: setex ttl %d out of range", ErrInvalidArgument, seconds)
		return StatusErr
	}
	return p.okStatus("SETEX", protocol.String(key), protocol.Int(int64(seconds)), protocol.Bytes(value))
}

// Incr increments the integer stored under key and returns the new value.
func (p *Proxy) Incr(key string) (int64, Status) {
	return p.integer("INCR", protocol.String(key))
}

// Del removes key. Any reply other than the integers 0 and 1 yields
// DeletionUnknown.
func (p *Proxy) Del(key string) Deletion {
	reply, err := p.execute("DEL", protocol.String(key))
	if err != nil {
		return DeletionErr
	}
	switch {
	case reply.Type == protocol.TypeInteger && reply.Num == 0:
		return DeletionNotExist
	case reply.Type == protocol.TypeInteger && reply.Num == 1:
		return DeletionOK
	default:
		p.unexpected("DEL", reply)
		return DeletionUnknown
	}
}

// Exists reports whether key is present. Any reply other than the integers
// 0 and 1 yields ExistsErr.
func (p *Proxy) Exists(key string) Existence {
	reply, err := p.execute("EXISTS", protocol.String(key))
	if err != nil {
		return ExistsErr
	}
	switch {
	case reply.Type == protocol.TypeInteger && reply.Num == 0:
		return ExistsNo
	case reply.Type == protocol.TypeInteger && reply.Num == 1:
		return ExistsYes
	default:
		p.unexpected("EXISTS", reply)
		return ExistsErr
	}
}
