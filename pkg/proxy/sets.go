package proxy

import "github.com/flashdb/redisproxy/internal/protocol"

// SMembers returns every member of the set at key.
func (p *Proxy) SMembers(key string) ([][]byte, Status) {
	items, status := p.array("SMEMBERS", protocol.String(key))
	if status != StatusOK {
		return nil, status
	}
	return bulkValues(items), StatusOK
}

// SAdd adds member to the set at key and returns how many members were
// added (0 if it was already present).
func (p *Proxy) SAdd(key string, member []byte) (int64, Status) {
	return p.integer("SADD", protocol.String(key), protocol.Bytes(member))
}

// SRem removes member from the set at key and returns how many members
// were removed.
func (p *Proxy) SRem(key string, member []byte) (int64, Status) {
	return p.integer("SREM", protocol.String(key), protocol.Bytes(member))
}
