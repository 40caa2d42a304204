// Package wire implements the NetworkTables 2.0 binary framing: message
// encode/decode and the string/typed-value sub-encodings. The codec is
// purely functional — no state, no I/O beyond the caller-supplied
// io.Reader/io.Writer — mirroring the teacher's xdr packages
// (internal/protocol/xdr), adapted from RFC 4506 opaque/string framing to
// NetworkTables' u16-length-prefixed strings and big-endian scalars.
package wire

import (
	"encoding/binary"
	"io"
	"unicode/utf8"

	nterrors "github.com/nt2go/ntclient/pkg/networktables/errors"
	"github.com/nt2go/ntclient/pkg/networktables/types"
)

// IDResolver answers, for a given confirmed id, the entry's name and the
// tag of its current value. parse_update consults a resolver to learn what
// type the update's payload must be decoded as, since ENTRY_UPDATE carries
// no type byte of its own.
type IDResolver func(id uint16) (name string, current types.Value, ok bool)

// ReadTag reads the one-byte message tag that begins every frame. A short
// read here means the stream is no longer trustworthy and is always fatal
// to the caller.
func ReadTag(r io.Reader) (uint8, error) {
	return readUint8(r)
}

// WriteHello emits HELLO followed by the protocol version.
func WriteHello(w io.Writer) error {
	if err := writeUint8(w, types.MsgHello); err != nil {
		return err
	}
	return writeUint16(w, types.ProtocolVersion)
}

// WriteKeepAlive emits a zero-payload KEEP_ALIVE message.
func WriteKeepAlive(w io.Writer) error {
	return writeUint8(w, types.MsgKeepAlive)
}

// WriteAssignment emits ENTRY_ASSIGNMENT for entry: name, value-type,
// id, sequence, then payload. Used both for server-originated assignments
// (not written by this client) and client-originated create requests where
// entry.Id is types.ClientRequestID.
func WriteAssignment(w io.Writer, entry types.Entry) error {
	if err := writeUint8(w, types.MsgEntryAssignment); err != nil {
		return err
	}
	if err := writeString(w, entry.Name); err != nil {
		return err
	}
	if err := writeUint8(w, entry.Value.WireType()); err != nil {
		return err
	}
	if err := writeUint16(w, entry.Id); err != nil {
		return err
	}
	if err := writeUint16(w, entry.Sequence.Uint16()); err != nil {
		return err
	}
	return writeValue(w, entry.Value)
}

// WriteUpdate emits ENTRY_UPDATE for entry: id, sequence, then payload
// (no name, no value-type byte — the receiver already knows both from the
// id).
func WriteUpdate(w io.Writer, entry types.Entry) error {
	if err := writeUint8(w, types.MsgEntryUpdate); err != nil {
		return err
	}
	if err := writeUint16(w, entry.Id); err != nil {
		return err
	}
	if err := writeUint16(w, entry.Sequence.Uint16()); err != nil {
		return err
	}
	return writeValue(w, entry.Value)
}

// ParseAssignment decodes the body of an ENTRY_ASSIGNMENT message. The
// caller has already consumed the leading type tag byte.
func ParseAssignment(r io.Reader) (types.Entry, error) {
	name, err := readString(r)
	if err != nil {
		return types.Entry{}, err
	}

	valueType, err := readUint8(r)
	if err != nil {
		return types.Entry{}, err
	}

	id, err := readUint16(r)
	if err != nil {
		return types.Entry{}, err
	}

	seq, err := readUint16(r)
	if err != nil {
		return types.Entry{}, err
	}

	value, err := readValue(r, valueType)
	if err != nil {
		return types.Entry{}, err
	}

	return types.Entry{
		Name:     name,
		Id:       id,
		Sequence: types.SequenceNumber(seq),
		Value:    value,
	}, nil
}

// ParseUpdate decodes the body of an ENTRY_UPDATE message. Since the update
// carries no name or type tag, resolve looks up the id's name and current
// value tag so the payload can be decoded against the right type.
func ParseUpdate(r io.Reader, resolve IDResolver) (types.Entry, error) {
	id, err := readUint16(r)
	if err != nil {
		return types.Entry{}, err
	}

	seq, err := readUint16(r)
	if err != nil {
		return types.Entry{}, err
	}

	name, current, ok := resolve(id)
	if !ok {
		return types.Entry{}, nterrors.NewIdDoesntExist(id)
	}

	value, err := readValue(r, current.WireType())
	if err != nil {
		return types.Entry{}, err
	}

	return types.Entry{
		Name:     name,
		Id:       id,
		Sequence: types.SequenceNumber(seq),
		Value:    value,
	}, nil
}

// writeValue encodes a Value's payload only (no type tag — callers that
// need the tag write it separately, since ENTRY_UPDATE omits it).
func writeValue(w io.Writer, v types.Value) error {
	switch v.Kind {
	case types.KindBoolean:
		var b uint8
		if v.Bool {
			b = 0x01
		}
		return writeUint8(w, b)
	case types.KindNumber:
		if err := binary.Write(w, binary.BigEndian, v.Number); err != nil {
			return nterrors.NewNetworkProblem(err)
		}
		return nil
	case types.KindString:
		return writeString(w, v.Str)
	default:
		return nterrors.NewUnsupportedType(0)
	}
}

// readValue decodes a Value's payload given its wire type tag.
func readValue(r io.Reader, valueType uint8) (types.Value, error) {
	switch valueType {
	case types.TypeBoolean:
		b, err := readUint8(r)
		if err != nil {
			return types.Value{}, err
		}
		return types.Boolean(b != 0), nil
	case types.TypeNumber:
		var n float64
		if err := binary.Read(r, binary.BigEndian, &n); err != nil {
			return types.Value{}, wrapReadErr(err)
		}
		return types.Number(n), nil
	case types.TypeString:
		s, err := readString(r)
		if err != nil {
			return types.Value{}, err
		}
		return types.String(s), nil
	default:
		return types.Value{}, nterrors.NewUnsupportedType(valueType)
	}
}

// writeString emits a u16 length prefix followed by the UTF-8 bytes.
func writeString(w io.Writer, s string) error {
	if err := writeUint16(w, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	if err != nil {
		return nterrors.NewNetworkProblem(err)
	}
	return nil
}

// readString decodes a u16-length-prefixed UTF-8 string.
func readString(r io.Reader) (string, error) {
	length, err := readUint16(r)
	if err != nil {
		return "", err
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", wrapReadErr(err)
	}

	if !utf8.Valid(buf) {
		return "", nterrors.NewStringConversionError()
	}
	return string(buf), nil
}

func writeUint8(w io.Writer, b uint8) error {
	if _, err := w.Write([]byte{b}); err != nil {
		return nterrors.NewNetworkProblem(err)
	}
	return nil
}

func readUint8(r io.Reader) (uint8, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, wrapReadErr(err)
	}
	return buf[0], nil
}

func writeUint16(w io.Writer, v uint16) error {
	if err := binary.Write(w, binary.BigEndian, v); err != nil {
		return nterrors.NewNetworkProblem(err)
	}
	return nil
}

func readUint16(r io.Reader) (uint16, error) {
	var v uint16
	if err := binary.Read(r, binary.BigEndian, &v); err != nil {
		return 0, wrapReadErr(err)
	}
	return v, nil
}

// wrapReadErr normalizes short reads and EOF into a NetworkProblem, since
// any failure to fully decode a framed message means the stream itself is
// no longer trustworthy.
func wrapReadErr(err error) error {
	return nterrors.NewNetworkProblem(err)
}
