package types

// ProtocolVersion is the NetworkTables 2.0 protocol version this client
// speaks. It is the value sent in the HELLO message.
const ProtocolVersion uint16 = 0x0200

// ClientRequestID is the sentinel id a client uses in an assignment-shaped
// message when it is asking the server to allocate a real id for a
// newly-created name.
const ClientRequestID uint16 = 0xFFFF

// Message tags, one byte each, always the first byte of a frame.
const (
	MsgKeepAlive          uint8 = 0x00
	MsgHello              uint8 = 0x01
	MsgVersionUnsupported uint8 = 0x02 // receive-only, not handled
	MsgHelloComplete      uint8 = 0x03
	MsgEntryAssignment    uint8 = 0x10
	MsgEntryUpdate        uint8 = 0x11
)

// Value-type tags used inside ENTRY_ASSIGNMENT and ENTRY_UPDATE payloads.
const (
	TypeBoolean uint8 = 0x00
	TypeNumber  uint8 = 0x01
	TypeString  uint8 = 0x02

	// Array tags are recognized by the protocol but not materialized by
	// this client; decoding one of these is an UnsupportedType error.
	TypeBooleanArray uint8 = 0x10
	TypeNumberArray  uint8 = 0x11
	TypeStringArray  uint8 = 0x12
)

// MaxStringLength is the largest name or string payload the wire format can
// carry: a u16 length prefix tops out at 65535 bytes.
const MaxStringLength = 65535
