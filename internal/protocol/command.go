package protocol

import (
	"strconv"
	"strings"
)

// ArgKind tags the payload carried by an Arg.
type ArgKind uint8

const (
	ArgString ArgKind = iota // plain token: keys, fields, keywords
	ArgBytes                 // binary-safe value with explicit length
	ArgInt                   // decimal integer
)

// Arg is a single typed command argument. Build it with String, Bytes or Int.
type Arg struct {
	kind ArgKind
	str  string
	buf  []byte
	num  int64
}

// String returns a plain token argument.
func String(s string) Arg { return Arg{kind: ArgString, str: s} }

// Bytes returns a binary-safe argument. The slice is not copied.
func Bytes(b []byte) Arg { return Arg{kind: ArgBytes, buf: b} }

// Int returns an integer argument, sent in decimal.
func Int(n int64) Arg { return Arg{kind: ArgInt, num: n} }

// token renders a as it travels on the wire.
func (a Arg) token() []byte {
	switch a.kind {
	case ArgBytes:
		return a.buf
	case ArgInt:
		return strconv.AppendInt(nil, a.num, 10)
	default:
		return []byte(a.str)
	}
}

// FormatCommand turns a command name and its arguments into the token
// sequence sent as one multi-bulk request. Every token keeps its exact
// length, so spaces and NUL bytes inside values survive the trip.
func FormatCommand(name string, args ...Arg) [][]byte {
	tokens := make([][]byte, 0, len(args)+1)
	tokens = append(tokens, []byte(strings.ToUpper(name)))
	for _, a := range args {
		tokens = append(tokens, a.token())
	}
	return tokens
}
