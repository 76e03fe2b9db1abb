package proxy

import "github.com/flashdb/redisproxy/internal/protocol"

// LPush prepends value to the list at key and returns the new length.
func (p *Proxy) LPush(key string, value []byte) (int64, Status) {
	return p.integer("LPUSH", protocol.String(key), protocol.Bytes(value))
}

// RPush appends value to the list at key and returns the new length.
func (p *Proxy) RPush(key string, value []byte) (int64, Status) {
	return p.integer("RPUSH", protocol.String(key), protocol.Bytes(value))
}

// LRange returns the elements between start and stop, inclusive. Negative
// indexes count from the tail.
func (p *Proxy) LRange(key string, start, stop int64) ([][]byte, Status) {
	items, status := p.array("LRANGE", protocol.String(key), protocol.Int(start), protocol.Int(stop))
	if status != StatusOK {
		return nil, status
	}
	return bulkValues(items), StatusOK
}

// LTrim keeps only the elements between start and stop, inclusive.
func (p *Proxy) LTrim(key string, start, stop int64) Status {
	return p.okStatus("LTRIM", protocol.String(key), protocol.Int(start), protocol.Int(stop))
}
