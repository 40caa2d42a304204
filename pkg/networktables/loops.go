package networktables

import (
	"context"
	"time"

	"github.com/nt2go/ntclient/internal/logger"
	"github.com/nt2go/ntclient/internal/telemetry"
	nterrors "github.com/nt2go/ntclient/pkg/networktables/errors"
	"github.com/nt2go/ntclient/pkg/networktables/types"
	"github.com/nt2go/ntclient/pkg/networktables/wire"
)

// ticksPerKeepAlive derives the number of send-loop ticks between
// keep-alives from the configured keep-alive period and tick interval,
// mirroring the Rust source's keep_alive_cutoff = keep_alive / tick_interval.
// Always at least 1, so a keep-alive period shorter than the tick interval
// still emits one every tick rather than never.
func ticksPerKeepAlive(keepAlive, tickInterval time.Duration) int {
	n := int(keepAlive / tickInterval)
	if n < 1 {
		return 1
	}
	return n
}

// receiveLoop runs from construction until a fatal error or the socket is
// closed. It reads one message tag at a time and dispatches: HELLO_COMPLETE
// only flips the state machine, ENTRY_ASSIGNMENT and ENTRY_UPDATE decode and
// install through the store, and unknown tags are logged and skipped. Any
// decode error surfacing from a known tag is fatal, matching the codec's
// asymmetric leniency (open question 3): unrecognized top-level tags are
// forward-compatibility noise, but a recognized tag with unparseable bytes
// means the stream itself can no longer be trusted.
func (c *Client) receiveLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		tag, err := wire.ReadTag(c.conn)
		if err != nil {
			c.fatal(ctx, nterrors.NewNetworkProblem(err))
			return
		}

		spanCtx, span := telemetry.StartDispatchSpan(ctx, c.id, messageTagName(tag))

		switch tag {
		case types.MsgHelloComplete:
			c.Store.MarkConnected()
			logger.InfoCtx(ctx, "connected")

		case types.MsgEntryAssignment:
			entry, err := wire.ParseAssignment(c.conn)
			if err != nil {
				span.End()
				c.fatal(ctx, asNtError(err))
				return
			}
			c.Store.InstallAssignment(entry)
			logger.DebugCtx(ctx, "installed assignment", logger.EntryName(entry.Name), logger.EntryID(entry.Id))

		case types.MsgEntryUpdate:
			entry, err := wire.ParseUpdate(c.conn, c.Store.IDLookup)
			if err != nil {
				span.End()
				c.fatal(ctx, asNtError(err))
				return
			}
			if err := c.Store.InstallUpdate(entry); err != nil {
				span.End()
				c.fatal(spanCtx, asNtError(err))
				return
			}
			logger.DebugCtx(ctx, "installed update", logger.EntryID(entry.Id))

		default:
			logger.DebugCtx(ctx, "ignoring unknown message tag", logger.Message(messageTagName(tag)))
		}

		span.End()
	}
}

// sendLoop runs on a fixed tick, draining the send queue and writing each
// entry as an ENTRY_ASSIGNMENT (pending creations) or ENTRY_UPDATE
// (confirmed entries), then emitting a keep-alive every keepAlive period
// worth of ticks. Any I/O error is fatal.
func (c *Client) sendLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	keepAliveTicks := ticksPerKeepAlive(c.keepAlive, c.tickInterval)
	ticks := 0

	for {
		select {
		case <-c.shutdown:
			return
		case <-ticker.C:
			_, span := telemetry.StartFlushSpan(ctx, c.id)

			if err := c.flush(); err != nil {
				span.End()
				c.fatal(ctx, asNtError(err))
				return
			}

			ticks++
			if ticks >= keepAliveTicks {
				ticks = 0
				if err := wire.WriteKeepAlive(c.conn); err != nil {
					span.End()
					c.fatal(ctx, asNtError(err))
					return
				}
				if c.metrics != nil {
					c.metrics.KeepAliveSent()
				}
				logger.DebugCtx(ctx, "sent keep-alive")
			}

			span.End()
		}
	}
}

// flush drains the send queue and writes each entry to the connection,
// timing the whole operation for the tick-duration metric.
func (c *Client) flush() error {
	start := time.Now()
	defer func() {
		if c.metrics != nil {
			c.metrics.TickDuration(time.Since(start))
		}
	}()

	for _, entry := range c.Store.DrainQueue() {
		if entry.IsPendingCreation() {
			if err := wire.WriteAssignment(c.conn, entry); err != nil {
				return err
			}
			continue
		}
		if err := wire.WriteUpdate(c.conn, entry); err != nil {
			return err
		}
	}
	return nil
}

// asNtError normalizes an error from the codec or store into *NtError so
// callers can inspect its Kind. The codec and store only ever return
// *NtError or nil, but this guards against a future non-typed error leaking
// through without panicking the loop.
func asNtError(err error) *nterrors.NtError {
	if ntErr, ok := err.(*nterrors.NtError); ok {
		return ntErr
	}
	return nterrors.NewNetworkProblem(err)
}

// messageTagName returns a human-readable name for a message tag, for
// logging and tracing only.
func messageTagName(tag uint8) string {
	switch tag {
	case types.MsgKeepAlive:
		return "KEEP_ALIVE"
	case types.MsgHello:
		return "HELLO"
	case types.MsgVersionUnsupported:
		return "VERSION_UNSUPPORTED"
	case types.MsgHelloComplete:
		return "HELLO_COMPLETE"
	case types.MsgEntryAssignment:
		return "ENTRY_ASSIGNMENT"
	case types.MsgEntryUpdate:
		return "ENTRY_UPDATE"
	default:
		return "UNKNOWN"
	}
}
