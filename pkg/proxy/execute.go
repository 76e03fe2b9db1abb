package proxy

import (
	"fmt"
	"log/slog"

	"github.com/flashdb/redisproxy/internal/protocol"
)

// Reply is one RESP reply. It is a plain value owned by the caller.
type Reply = protocol.Value

// Arg is a typed command argument for Do.
type Arg = protocol.Arg

// StringArg returns a plain token argument such as a key or keyword.
func StringArg(s string) Arg { return protocol.String(s) }

// BytesArg returns a binary-safe argument.
func BytesArg(b []byte) Arg { return protocol.Bytes(b) }

// IntArg returns an integer argument.
func IntArg(n int64) Arg { return protocol.Int(n) }

// Do runs an arbitrary command through the retry loop. The error is nil, an
// ErrRequest wrap, or a *ServerError carrying the error reply.
func (p *Proxy) Do(name string, args ...Arg) (Reply, error) {
	return p.execute(name, args...)
}

// execute is the round-trip shared by every operation. It makes at most
// retryCount+1 attempts. Before an attempt, a session left broken by the
// previous transport failure is closed and redialed; if that redial fails
// the request fails without using up the remaining attempts. An error
// reply ends the loop immediately.
func (p *Proxy) execute(name string, args ...protocol.Arg) (protocol.Value, error) {
	if p.host == "" {
		p.lastErr = requestError(ErrNotConnected)
		return protocol.Value{}, p.lastErr
	}

	attempts := p.retryCount + 1
	var cause error
	for i := uint(0); i < attempts; i++ {
		if p.lastClass.needsReconnect() {
			p.logger.Debug("proxy: reconnecting", slog.String("cmd", name), slog.Uint64("attempt", uint64(i)),
				slog.String("after", p.lastClass.String()))
			p.closeSession()
			if err := p.connect(); err != nil {
				p.lastErr = requestError(fmt.Errorf("reconnect: %w", err))
				return protocol.Value{}, p.lastErr
			}
		}
		if p.sess == nil {
			p.lastErr = requestError(ErrNotConnected)
			return protocol.Value{}, p.lastErr
		}

		reply, err := p.sess.do(p.timeout, name, args...)
		if err != nil {
			p.lastClass = classify(err)
			cause = err
			p.logger.Warn("proxy: get reply failed", slog.String("cmd", name), slog.Uint64("attempt", uint64(i)),
				slog.String("class", p.lastClass.String()), slog.String("msg", errorText(err)))
			continue
		}
		p.lastClass = classNone

		if reply.Type == protocol.TypeError {
			p.logger.Warn("proxy: return error", slog.String("cmd", name), slog.String("msg", reply.Str))
			p.lastErr = &ServerError{Msg: reply.Str}
			return reply, p.lastErr
		}
		p.lastErr = nil
		return reply, nil
	}

	p.lastErr = requestError(fmt.Errorf("%d attempts: %w", attempts, cause))
	return protocol.Value{}, p.lastErr
}
