// Package networktables implements a NetworkTables 2.0 protocol client: a
// single long-lived TCP connection to a server, a background receive loop
// that installs server-originated assignments and updates into a local
// store, a background send loop that flushes local mutations on a fixed
// tick, and a typed facade callers use to get and set entries.
package networktables

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/nt2go/ntclient/internal/logger"
	"github.com/nt2go/ntclient/internal/telemetry"
	nterrors "github.com/nt2go/ntclient/pkg/networktables/errors"
	"github.com/nt2go/ntclient/pkg/networktables/store"
	"github.com/nt2go/ntclient/pkg/networktables/wire"
	"github.com/nt2go/ntclient/pkg/metrics"
)

// defaultKeepAlive and defaultTickInterval are the fixed cadence spec.md
// describes; Config overrides exist but default to exactly these values so
// existing protocol behavior is unchanged unless a caller deliberately
// overrides them.
const (
	defaultKeepAlive    = time.Second
	defaultTickInterval = 20 * time.Millisecond
)

// Option configures optional ambient wiring on a Client at construction.
type Option func(*Client)

// WithMetrics installs a metrics sink the store publishes to. Passing nil is
// equivalent to omitting the option.
func WithMetrics(m metrics.StoreMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithTelemetry marks telemetry as enabled for this client's spans. Span
// emission is always safe to call (StartSpan falls back to a no-op tracer
// when telemetry.Init was never called or was called with Enabled: false);
// this option only affects whether Client records its own lifecycle span.
func WithTelemetry(enabled bool) Option {
	return func(c *Client) {
		c.telemetryEnabled = enabled
	}
}

// WithKeepAlive overrides the keep-alive cadence. The wire protocol itself
// has no hard cadence requirement.
func WithKeepAlive(d time.Duration) Option {
	return func(c *Client) {
		c.keepAlive = d
	}
}

// WithTickInterval overrides the send loop's poll interval.
func WithTickInterval(d time.Duration) Option {
	return func(c *Client) {
		c.tickInterval = d
	}
}

// Client is a connected NetworkTables 2.0 client: a store holding the local
// view of the shared table, a TCP connection, and the two background loops
// that keep the store synchronized with the server.
type Client struct {
	id   string
	conn net.Conn

	Store *store.Store

	metrics          metrics.StoreMetrics
	telemetryEnabled bool
	keepAlive        time.Duration
	tickInterval     time.Duration

	wg           sync.WaitGroup
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// New dials address, sends HELLO, and spawns the receive and send loops. The
// returned Client is usable immediately; its State() starts at Initializing
// and transitions to Connected once the server's HELLO_COMPLETE arrives.
func New(address string, opts ...Option) (*Client, error) {
	conn, err := net.Dial("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("networktables: dial %s: %w", address, err)
	}

	c := &Client{
		id:           uuid.NewString(),
		conn:         conn,
		Store:        store.New(),
		keepAlive:    defaultKeepAlive,
		tickInterval: defaultTickInterval,
		shutdown:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Store.SetMetrics(c.metrics)

	ctx := logger.WithConnID(context.Background(), c.id)

	if c.telemetryEnabled {
		var span trace.Span
		ctx, span = telemetry.StartSpan(ctx, "networktables.connect", trace.WithAttributes(telemetry.ConnID(c.id)))
		defer span.End()
	}

	if err := wire.WriteHello(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("networktables: sending hello: %w", err)
	}
	logger.InfoCtx(ctx, "sent hello", logger.Address(address))

	c.wg.Add(2)
	go c.receiveLoop(ctx)
	go c.sendLoop(ctx)

	return c, nil
}

// ID returns the connection's correlation id, used to tag log lines and
// trace spans.
func (c *Client) ID() string {
	return c.id
}

// State returns the current connection state.
func (c *Client) State() store.ConnectionPhase {
	return c.Store.State.Phase()
}

// Errors returns a snapshot of the accumulated non-fatal error log.
func (c *Client) Errors() []*nterrors.NtError {
	return c.Store.Errors()
}

// Close closes the socket and the shutdown channel and marks the connection
// state Closed; a state already in Error stays Error. Idempotent: calls after
// the first have no further effect and return nil. Close does not join the
// background loops: the send loop returns on seeing the closed shutdown
// channel, and the receive loop returns once its read on the closed socket
// fails, matching the source's behavior (open question 4 — no join is a
// deliberate simplification, not an oversight).
func (c *Client) Close() error {
	var err error
	c.shutdownOnce.Do(func() {
		if c.telemetryEnabled {
			ctx := logger.WithConnID(context.Background(), c.id)
			_, span := telemetry.StartSpan(ctx, "networktables.close", trace.WithAttributes(telemetry.ConnID(c.id)))
			defer span.End()
		}
		close(c.shutdown)
		c.Store.Close()
		err = c.conn.Close()
	})
	return err
}

func (c *Client) fatal(ctx context.Context, err *nterrors.NtError) {
	logger.ErrorCtx(ctx, "fatal error, closing connection", logger.ErrorKind(err.Kind.String()), logger.Err(err))
	telemetry.RecordError(ctx, err)
	c.Store.LogFatal(err)
	_ = c.conn.Close()
}
