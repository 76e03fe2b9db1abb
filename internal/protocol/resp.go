// Package protocol implements the RESP (Redis Serialization Protocol) reply parser
// and command encoder used by the proxy's transport sessions.
package protocol

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrInvalidProtocol indicates malformed RESP data
	ErrInvalidProtocol = errors.New("protocol: invalid RESP format")
	// ErrTooLarge indicates a bulk string or array above the reader's limits
	ErrTooLarge = errors.New("protocol: reply exceeds reader limit")
)

// Value represents a RESP reply. Str holds status text, error text or bulk
// payload; bulk payloads are read by their explicit length so they may carry
// any byte, including NUL and CR/LF.
type Value struct {
	Type  byte
	Str   string
	Num   int64
	Array []Value
	Null  bool
}

// RESP type constants
const (
	TypeSimpleString = '+'
	TypeError        = '-'
	TypeInteger      = ':'
	TypeBulkString   = '$'
	TypeArray        = '*'
)

const (
	// DefaultMaxBulkLength and DefaultMaxArrayLength are the limits a new
	// Reader starts with.
	DefaultMaxBulkLength  = 512 * 1024 * 1024 // 512 MiB
	DefaultMaxArrayLength = 1_000_000
	defaultBufSize        = 64 * 1024 // 64 KiB read/write buffers

	// preallocLimit caps what is allocated up front for a bulk payload or
	// array, whatever length the header announces.
	preallocLimit = 4096
)

var crlfBytes = []byte("\r\n")

// IsNil reports whether v is a null bulk string or null array.
func (v Value) IsNil() bool {
	return v.Null && (v.Type == TypeBulkString || v.Type == TypeArray)
}

// IsStatus reports whether v is a simple string equal to s, ignoring case.
func (v Value) IsStatus(s string) bool {
	return v.Type == TypeSimpleString && strings.EqualFold(v.Str, s)
}

// Bytes returns a copy of the payload.
func (v Value) Bytes() []byte {
	return []byte(v.Str)
}

// String renders v the way redis-cli does, for diagnostics and the CLI.
func (v Value) String() string {
	switch v.Type {
	case TypeSimpleString:
		return v.Str
	case TypeError:
		return "(error) " + v.Str
	case TypeInteger:
		return "(integer) " + strconv.FormatInt(v.Num, 10)
	case TypeBulkString:
		if v.Null {
			return "(nil)"
		}
		return strconv.Quote(v.Str)
	case TypeArray:
		if v.Null {
			return "(nil)"
		}
		if len(v.Array) == 0 {
			return "(empty array)"
		}
		var sb strings.Builder
		for i, item := range v.Array {
			if i > 0 {
				sb.WriteByte('\n')
			}
			fmt.Fprintf(&sb, "%d) %s", i+1, item.String())
		}
		return sb.String()
	default:
		return fmt.Sprintf("(unknown %q)", v.Type)
	}
}

// Reader wraps a bufio.Reader for RESP parsing
type Reader struct {
	rd       *bufio.Reader
	maxBulk  int64
	maxArray int64
}

// NewReader creates a new RESP Reader with an optimised buffer and the
// default size limits.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		rd:       bufio.NewReaderSize(r, defaultBufSize),
		maxBulk:  DefaultMaxBulkLength,
		maxArray: DefaultMaxArrayLength,
	}
}

// SetLimits changes the largest bulk string and array the reader accepts.
// Zero disables the corresponding limit.
func (r *Reader) SetLimits(maxBulk, maxArray int64) {
	r.maxBulk = maxBulk
	r.maxArray = maxArray
}

// ReadValue reads a single RESP value from the reader
func (r *Reader) ReadValue() (Value, error) {
	typeByte, err := r.rd.ReadByte()
	if err != nil {
		return Value{}, err
	}

	switch typeByte {
	case TypeSimpleString:
		return r.readLineValue(TypeSimpleString)
	case TypeError:
		return r.readLineValue(TypeError)
	case TypeInteger:
		return r.readInteger()
	case TypeBulkString:
		return r.readBulkString()
	case TypeArray:
		return r.readArray()
	default:
		return Value{}, fmt.Errorf("%w: unknown type %q", ErrInvalidProtocol, typeByte)
	}
}

// readLine reads a line until \r\n
func (r *Reader) readLine() (string, error) {
	line, err := r.rd.ReadString('\n')
	if err != nil {
		return "", err
	}
	if len(line) < 2 || line[len(line)-2] != '\r' {
		return "", ErrInvalidProtocol
	}
	return line[:len(line)-2], nil
}

func (r *Reader) readLineValue(t byte) (Value, error) {
	line, err := r.readLine()
	if err != nil {
		return Value{}, err
	}
	return Value{Type: t, Str: line}, nil
}

func (r *Reader) readInteger() (Value, error) {
	line, err := r.readLine()
	if err != nil {
		return Value{}, err
	}
	num, err := strconv.ParseInt(line, 10, 64)
	if err != nil {
		return Value{}, fmt.Errorf("%w: invalid integer", ErrInvalidProtocol)
	}
	return Value{Type: TypeInteger, Num: num}, nil
}

// readLength parses a bulk or array header. ok is false for the -1 null marker.
func (r *Reader) readLength(what string, limit int64) (n int64, ok bool, err error) {
	line, err := r.readLine()
	if err != nil {
		return 0, false, err
	}
	n, err = strconv.ParseInt(line, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: invalid %s length", ErrInvalidProtocol, what)
	}
	if n == -1 {
		return 0, false, nil
	}
	if n < 0 {
		return 0, false, fmt.Errorf("%w: negative %s length", ErrInvalidProtocol, what)
	}
	if n > math.MaxInt64-2 {
		return 0, false, fmt.Errorf("%w: %s length %d overflows", ErrInvalidProtocol, what, n)
	}
	if limit > 0 && n > limit {
		return 0, false, fmt.Errorf("%w: %w: %s of %d", ErrInvalidProtocol, ErrTooLarge, what, n)
	}
	return n, true, nil
}

func (r *Reader) readBulkString() (Value, error) {
	length, ok, err := r.readLength("bulk string", r.maxBulk)
	if err != nil {
		return Value{}, err
	}
	if !ok {
		return Value{Type: TypeBulkString, Null: true}, nil
	}

	// Memory follows the bytes that arrive, not the announced length.
	var buf bytes.Buffer
	buf.Grow(int(min(length, preallocLimit)))
	if _, err := io.CopyN(&buf, r.rd, length); err != nil {
		if errors.Is(err, io.EOF) {
			return Value{}, io.ErrUnexpectedEOF
		}
		return Value{}, err
	}
	var crlf [2]byte
	if _, err := io.ReadFull(r.rd, crlf[:]); err != nil {
		return Value{}, err
	}
	if crlf[0] != '\r' || crlf[1] != '\n' {
		return Value{}, ErrInvalidProtocol
	}

	return Value{Type: TypeBulkString, Str: buf.String()}, nil
}

func (r *Reader) readArray() (Value, error) {
	count, ok, err := r.readLength("array", r.maxArray)
	if err != nil {
		return Value{}, err
	}
	if !ok {
		return Value{Type: TypeArray, Null: true}, nil
	}

	array := make([]Value, 0, min(count, preallocLimit))
	for i := int64(0); i < count; i++ {
		val, err := r.ReadValue()
		if err != nil {
			return Value{}, err
		}
		array = append(array, val)
	}

	return Value{Type: TypeArray, Array: array}, nil
}

// Writer wraps a bufio.Writer for RESP encoding. Every Write* call flushes,
// so one call is one complete frame on the wire.
type Writer struct {
	wr *bufio.Writer
}

// NewWriter creates a new RESP Writer with an optimised buffer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{wr: bufio.NewWriterSize(w, defaultBufSize)}
}

// writeTypedInt writes the type byte, n and CRLF.
func (w *Writer) writeTypedInt(prefix byte, n int64) error {
	if err := w.wr.WriteByte(prefix); err != nil {
		return err
	}
	var scratch [20]byte
	if _, err := w.wr.Write(strconv.AppendInt(scratch[:0], n, 10)); err != nil {
		return err
	}
	_, err := w.wr.Write(crlfBytes)
	return err
}

func (w *Writer) writeBulk(b []byte) error {
	if err := w.writeTypedInt(TypeBulkString, int64(len(b))); err != nil {
		return err
	}
	if _, err := w.wr.Write(b); err != nil {
		return err
	}
	_, err := w.wr.Write(crlfBytes)
	return err
}

func (w *Writer) writeLine(prefix byte, s string) error {
	if err := w.wr.WriteByte(prefix); err != nil {
		return err
	}
	if _, err := w.wr.WriteString(s); err != nil {
		return err
	}
	_, err := w.wr.Write(crlfBytes)
	return err
}

// WriteCommand encodes name and args as a multi-bulk request.
func (w *Writer) WriteCommand(name string, args ...Arg) error {
	tokens := FormatCommand(name, args...)
	if err := w.writeTypedInt(TypeArray, int64(len(tokens))); err != nil {
		return err
	}
	for _, tok := range tokens {
		if err := w.writeBulk(tok); err != nil {
			return err
		}
	}
	return w.wr.Flush()
}

// The reply encoders below are what an in-process test server answers with.

// WriteSimpleString writes a status reply.
func (w *Writer) WriteSimpleString(s string) error {
	if err := w.writeLine(TypeSimpleString, s); err != nil {
		return err
	}
	return w.wr.Flush()
}

// WriteError writes an error reply. msg is sent verbatim, so it should start
// with an error code such as ERR or WRONGTYPE.
func (w *Writer) WriteError(msg string) error {
	if err := w.writeLine(TypeError, msg); err != nil {
		return err
	}
	return w.wr.Flush()
}

// WriteInteger writes an integer reply
func (w *Writer) WriteInteger(n int64) error {
	if err := w.writeTypedInt(TypeInteger, n); err != nil {
		return err
	}
	return w.wr.Flush()
}

// WriteBulkString writes a bulk string reply
func (w *Writer) WriteBulkString(b []byte) error {
	if err := w.writeBulk(b); err != nil {
		return err
	}
	return w.wr.Flush()
}

// WriteNull writes a null bulk string reply
func (w *Writer) WriteNull() error {
	if err := w.writeTypedInt(TypeBulkString, -1); err != nil {
		return err
	}
	return w.wr.Flush()
}

// WriteArray writes an array of bulk strings
func (w *Writer) WriteArray(items [][]byte) error {
	if err := w.writeTypedInt(TypeArray, int64(len(items))); err != nil {
		return err
	}
	for _, item := range items {
		if err := w.writeBulk(item); err != nil {
			return err
		}
	}
	return w.wr.Flush()
}
