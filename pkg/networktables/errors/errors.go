// Package errors defines the closed set of error kinds raised by the
// NetworkTables client. This is a leaf package with no internal dependencies
// so it can be imported by the wire codec and the entry store without
// causing an import cycle.
//
// Import graph: errors <- wire <- store <- networktables
package errors

import (
	"fmt"
)

// Kind identifies the category of a client error.
type Kind int

const (
	// UnsupportedType means a value-type byte on the wire was not one of
	// the supported scalar tags (boolean, number, string).
	UnsupportedType Kind = iota + 1

	// StringConversionError means bytes advertised as a string were not
	// valid UTF-8.
	StringConversionError

	// KeyAlreadyExists means a server-assigned name collides with an
	// already-confirmed entry.
	KeyAlreadyExists

	// IdAlreadyExists means a server-assigned id collides with an
	// already-confirmed entry.
	IdAlreadyExists

	// IdDoesntExist means an update referenced an id the store has never
	// seen assigned.
	IdDoesntExist

	// OutOfOrderSequenceNumbers means an update's sequence number was not
	// strictly greater than the entry's current sequence number.
	OutOfOrderSequenceNumbers

	// NetworkProblem wraps a transport failure. The underlying cause is
	// preserved and reachable through errors.Unwrap.
	NetworkProblem
)

// String returns a human-readable name for the error kind.
func (k Kind) String() string {
	switch k {
	case UnsupportedType:
		return "UnsupportedType"
	case StringConversionError:
		return "StringConversionError"
	case KeyAlreadyExists:
		return "KeyAlreadyExists"
	case IdAlreadyExists:
		return "IdAlreadyExists"
	case IdDoesntExist:
		return "IdDoesntExist"
	case OutOfOrderSequenceNumbers:
		return "OutOfOrderSequenceNumbers"
	case NetworkProblem:
		return "NetworkProblem"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// NtError is the concrete error type returned by the codec, the store, and
// the client. It carries enough detail to reconstruct the original message
// without re-parsing strings.
type NtError struct {
	Kind Kind

	// Detail fields, populated depending on Kind. Zero values are ignored
	// when not relevant to the kind.
	Type       uint8
	Name       string
	Id         uint16
	OldSeq     uint16
	NewSeq     uint16
	underlying error
}

// Error implements the error interface.
func (e *NtError) Error() string {
	switch e.Kind {
	case UnsupportedType:
		return fmt.Sprintf("unsupported entry type 0x%02x", e.Type)
	case StringConversionError:
		return "error parsing string: invalid utf-8"
	case KeyAlreadyExists:
		return fmt.Sprintf("key %q already exists", e.Name)
	case IdAlreadyExists:
		return fmt.Sprintf("id %d already exists", e.Id)
	case IdDoesntExist:
		return fmt.Sprintf("id %d doesn't exist", e.Id)
	case OutOfOrderSequenceNumbers:
		return fmt.Sprintf("out of order sequence numbers: old=%d new=%d", e.OldSeq, e.NewSeq)
	case NetworkProblem:
		return fmt.Sprintf("network problem: %v", e.underlying)
	default:
		return e.Kind.String()
	}
}

// Unwrap exposes the underlying I/O cause, if any, for errors.Is/errors.As.
func (e *NtError) Unwrap() error {
	return e.underlying
}

// NewUnsupportedType builds an UnsupportedType error.
func NewUnsupportedType(t uint8) *NtError {
	return &NtError{Kind: UnsupportedType, Type: t}
}

// NewStringConversionError builds a StringConversionError error.
func NewStringConversionError() *NtError {
	return &NtError{Kind: StringConversionError}
}

// NewKeyAlreadyExists builds a KeyAlreadyExists error.
func NewKeyAlreadyExists(name string) *NtError {
	return &NtError{Kind: KeyAlreadyExists, Name: name}
}

// NewIdAlreadyExists builds an IdAlreadyExists error.
func NewIdAlreadyExists(id uint16) *NtError {
	return &NtError{Kind: IdAlreadyExists, Id: id}
}

// NewIdDoesntExist builds an IdDoesntExist error.
func NewIdDoesntExist(id uint16) *NtError {
	return &NtError{Kind: IdDoesntExist, Id: id}
}

// NewOutOfOrderSequenceNumbers builds an OutOfOrderSequenceNumbers error.
func NewOutOfOrderSequenceNumbers(old, new uint16) *NtError {
	return &NtError{Kind: OutOfOrderSequenceNumbers, OldSeq: old, NewSeq: new}
}

// NewNetworkProblem wraps an I/O error as a NetworkProblem.
func NewNetworkProblem(cause error) *NtError {
	return &NtError{Kind: NetworkProblem, underlying: cause}
}

// IsFatal reports whether an error kind is fatal in itself, wherever it
// surfaces: NetworkProblem (a transport failure) and IdDoesntExist (the rest
// of an update cannot be parsed without the id's type tag).
// KeyAlreadyExists, IdAlreadyExists, and OutOfOrderSequenceNumbers are
// data-integrity problems the caller logs and drops instead. UnsupportedType
// and StringConversionError also report false here, although the receive
// loop ends the connection when either surfaces while decoding a message.
func IsFatal(k Kind) bool {
	switch k {
	case NetworkProblem, IdDoesntExist:
		return true
	default:
		return false
	}
}
