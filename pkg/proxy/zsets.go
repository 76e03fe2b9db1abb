package proxy

import "github.com/flashdb/redisproxy/internal/protocol"

// ZAdd adds member with score to the sorted set at key and returns how many
// members were added.
func (p *Proxy) ZAdd(key string, member []byte, score int64) (int64, Status) {
	return p.integer("ZADD", protocol.String(key), protocol.Int(score), protocol.Bytes(member))
}

// ZCard returns the number of members in the sorted set at key.
func (p *Proxy) ZCard(key string) (int64, Status) {
	return p.integer("ZCARD", protocol.String(key))
}

// ZIncr adds increment to the score of member and returns the new score as
// the server formats it.
func (p *Proxy) ZIncr(key string, member []byte, increment int64) (string, Status) {
	reply, err := p.execute("ZINCRBY", protocol.String(key), protocol.Int(increment), protocol.Bytes(member))
	if err != nil {
		return "", StatusErr
	}
	if reply.Type != protocol.TypeBulkString || reply.Null {
		p.unexpected("ZINCRBY", reply)
		return "", StatusErr
	}
	return reply.Str, StatusOK
}

// ZScore returns the score of member as the server formats it.
func (p *Proxy) ZScore(key string, member []byte) (string, Lookup) {
	score, outcome := p.lookup("ZSCORE", protocol.String(key), protocol.Bytes(member))
	return string(score), outcome
}

// ZRem removes member and returns how many members were removed.
func (p *Proxy) ZRem(key string, member []byte) (int64, Status) {
	return p.integer("ZREM", protocol.String(key), protocol.Bytes(member))
}

// ZRange returns the members ranked between start and stop, inclusive. With
// withScores the reply interleaves member and score; it is split by
// position so members[i] has scores[i]. scores is nil without withScores.
func (p *Proxy) ZRange(key string, start, stop int64, withScores bool) (members [][]byte, scores []string, status Status) {
	args := []protocol.Arg{protocol.String(key), protocol.Int(start), protocol.Int(stop)}
	if withScores {
		args = append(args, protocol.String("WITHSCORES"))
	}
	items, status := p.array("ZRANGE", args...)
	if status != StatusOK {
		return nil, nil, status
	}
	if !withScores {
		return bulkValues(items), nil, StatusOK
	}

	members = make([][]byte, 0, (len(items)+1)/2)
	scores = make([]string, 0, len(items)/2)
	for i, item := range items {
		if i%2 == 1 {
			scores = append(scores, item.Str)
		} else {
			members = append(members, item.Bytes())
		}
	}
	return members, scores, StatusOK
}

// ZRemRangeByRank removes the members ranked between start and stop,
// inclusive, and returns how many were removed.
func (p *Proxy) ZRemRangeByRank(key string, start, stop int64) (int64, Status) {
	return p.integer("ZREMRANGEBYRANK", protocol.String(key), protocol.Int(start), protocol.Int(stop))
}
