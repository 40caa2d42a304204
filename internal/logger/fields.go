package logger

import "log/slog"

// Standard field keys for structured logging, narrowed from the teacher's
// protocol-agnostic set down to what the NetworkTables client emits.
const (
	KeyConnID     = "conn_id"     // this client's connection correlation id
	KeyAddress    = "address"     // host:port of the server
	KeyMessage    = "message"     // message tag name (HELLO, KEEP_ALIVE, etc.)
	KeyEntryName  = "entry"       // entry name an operation concerns
	KeyEntryID    = "entry_id"    // server-assigned entry id
	KeyErrorKind  = "error_kind"  // NtError kind name
	KeyDurationMs = "duration_ms" // operation duration in milliseconds
	KeyError      = "error"       // error message
)

// ConnID returns a slog.Attr for the connection correlation id.
func ConnID(id string) slog.Attr { return slog.String(KeyConnID, id) }

// Address returns a slog.Attr for a host:port address.
func Address(addr string) slog.Attr { return slog.String(KeyAddress, addr) }

// Message returns a slog.Attr for a protocol message tag name.
func Message(name string) slog.Attr { return slog.String(KeyMessage, name) }

// EntryName returns a slog.Attr for an entry name.
func EntryName(name string) slog.Attr { return slog.String(KeyEntryName, name) }

// EntryID returns a slog.Attr for a server-assigned entry id.
func EntryID(id uint16) slog.Attr { return slog.Any(KeyEntryID, id) }

// ErrorKind returns a slog.Attr for an NtError kind name.
func ErrorKind(kind string) slog.Attr { return slog.String(KeyErrorKind, kind) }

// DurationMs returns a slog.Attr for a duration in milliseconds.
func DurationMs(ms float64) slog.Attr { return slog.Float64(KeyDurationMs, ms) }

// Err returns a slog.Attr for an error, or a zero Attr for nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
