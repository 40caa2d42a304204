package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys this client's spans carry, narrowed from the teacher's
// protocol-agnostic set down to what a NetworkTables connection reports.
const (
	AttrConnID      = "conn.id"
	AttrMessageType = "nt.message_type"
	AttrEntryName   = "nt.entry_name"
	AttrErrorKind   = "nt.error_kind"
)

// ConnID returns the span attribute for a connection's correlation id.
func ConnID(id string) attribute.KeyValue {
	return attribute.String(AttrConnID, id)
}

// MessageType returns the span attribute for a wire message tag name.
func MessageType(name string) attribute.KeyValue {
	return attribute.String(AttrMessageType, name)
}

// EntryName returns the span attribute for an entry name.
func EntryName(name string) attribute.KeyValue {
	return attribute.String(AttrEntryName, name)
}

// ErrorKind returns the span attribute for an NtError kind name.
func ErrorKind(kind string) attribute.KeyValue {
	return attribute.String(AttrErrorKind, kind)
}

// StartDispatchSpan starts a span for a single receive-loop dispatch of one
// wire message.
func StartDispatchSpan(ctx context.Context, connID, messageType string) (context.Context, trace.Span) {
	return StartSpan(ctx, "networktables.dispatch", trace.WithAttributes(
		ConnID(connID),
		MessageType(messageType),
	))
}

// StartFlushSpan starts a span for a single send-loop queue flush.
func StartFlushSpan(ctx context.Context, connID string) (context.Context, trace.Span) {
	return StartSpan(ctx, "networktables.flush", trace.WithAttributes(
		ConnID(connID),
	))
}
