// Package metrics defines the narrow observability interface the entry
// store and the background loops publish to. Implementations are optional:
// passing nil wherever a metrics.StoreMetrics is accepted disables
// collection with zero overhead, the same contract the teacher's NFS/cache
// metrics interfaces use.
package metrics

import "time"

// StoreMetrics observes the entry store and the loops that drive it.
//
// Example usage:
//
//	reg := prometheus.NewRegistry()
//	m := prometheus.NewPrometheusMetrics(reg)
//	client, err := networktables.New(addr, networktables.WithMetrics(m))
//
//	// Without metrics (pass nil for zero overhead)
//	client, err := networktables.New(addr)
type StoreMetrics interface {
	// EntriesInstalled counts a successful InstallAssignment or
	// InstallUpdate, labeled by kind ("assignment" or "update").
	EntriesInstalled(kind string)

	// QueueDepth reports the send queue's length immediately after a local
	// Set enqueues a new entry.
	QueueDepth(n int)

	// DispatchError counts a dropped or fatal condition, labeled by the
	// error kind's string name.
	DispatchError(kind string)

	// KeepAliveSent counts one keep-alive emitted by the send loop.
	KeepAliveSent()

	// TickDuration observes how long one send-loop tick took, from queue
	// drain through the last write.
	TickDuration(d time.Duration)
}
