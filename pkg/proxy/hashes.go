package proxy

import "github.com/flashdb/redisproxy/internal/protocol"

// HGet returns the value of field in the hash at key.
func (p *Proxy) HGet(key, field string) ([]byte, Lookup) {
	return p.lookup("HGET", protocol.String(key), protocol.String(field))
}
