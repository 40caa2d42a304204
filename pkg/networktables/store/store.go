// Package store holds the client's view of the shared table: the two maps
// that index confirmed entries by name and by id, the outgoing send queue,
// the connection state cell, and the non-fatal error log. It is the single
// point of synchronization shared by the caller, the receive loop, and the
// send loop.
//
// Lock order. Any operation that must hold more than one of the four
// collections below acquires them in this order, top to bottom, and never
// the reverse:
//
//	entries_by_name -> entries_by_id -> send_queue -> state
//
// Releases may happen in any order. This order is the contract; callers
// that need a subset of the locks simply skip the ones they don't need,
// still respecting the relative order of the ones they do.
package store

import (
	"sync"

	nterrors "github.com/nt2go/ntclient/pkg/networktables/errors"
	"github.com/nt2go/ntclient/pkg/networktables/types"
	"github.com/nt2go/ntclient/pkg/metrics"
)

// Store is the entry store described above. The zero value is not usable;
// construct with New.
type Store struct {
	namesMu sync.RWMutex
	byName  map[string]types.Entry

	idsMu sync.RWMutex
	byID  map[uint16]types.Entry

	queueMu sync.Mutex
	queue   []types.Entry

	State *ConnectionState

	errMu sync.Mutex
	errs  []*nterrors.NtError

	// metrics is nil unless SetMetrics is called, in which case every
	// publishing call site below becomes a no-op against a nil receiver.
	metrics metrics.StoreMetrics
}

// New returns an empty store with a fresh Initializing connection state and
// metrics collection disabled.
func New() *Store {
	return &Store{
		byName: make(map[string]types.Entry),
		byID:   make(map[uint16]types.Entry),
		State:  newConnectionState(),
	}
}

// SetMetrics installs the metrics sink this store publishes to. Passing nil
// disables collection with zero overhead. Intended to be called once, by
// Client.New, before the background loops start.
func (s *Store) SetMetrics(m metrics.StoreMetrics) {
	s.metrics = m
}

// Get looks up the current value for name. Read-only; acquires only
// entries_by_name.
func (s *Store) Get(name string) (types.Value, bool) {
	s.namesMu.RLock()
	defer s.namesMu.RUnlock()
	e, ok := s.byName[name]
	if !ok {
		return types.Value{}, false
	}
	return e.Value, true
}

// Set applies a local mutation for name. If an entry already exists, it is
// cloned, its value overwritten, its sequence incremented, and the clone is
// appended to the send queue — note entries_by_name is deliberately NOT
// rewritten here; a local Get for name keeps returning the old value until
// the server's echo arrives and the receive loop installs it. If name is
// unknown, a pending-creation entry is queued with id ClientRequestID and
// sequence incremented from zero to one, so the first assignment for a name
// always arrives on the wire with sequence 1.
//
// Acquires entries_by_name then send_queue.
func (s *Store) Set(name string, value types.Value) {
	s.namesMu.Lock()
	defer s.namesMu.Unlock()

	existing, ok := s.byName[name]

	var next types.Entry
	if ok {
		next = existing.Clone()
		next.Value = value
		next.Sequence = next.Sequence.Increment()
	} else {
		next = types.Entry{
			Name:     name,
			Id:       types.ClientRequestID,
			Sequence: types.SequenceNumber(0).Increment(),
			Value:    value,
		}
	}

	s.queueMu.Lock()
	s.queue = append(s.queue, next)
	depth := len(s.queue)
	s.queueMu.Unlock()

	if s.metrics != nil {
		s.metrics.QueueDepth(depth)
	}
}

// DrainQueue takes ownership of the send queue's contents and resets it to
// empty, bounding the time the lock is held so the send loop can perform I/O
// on the extracted copy without blocking local Set calls.
func (s *Store) DrainQueue() []types.Entry {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	if len(s.queue) == 0 {
		return nil
	}
	drained := s.queue
	s.queue = nil
	return drained
}

// InstallAssignment applies a server-originated assignment. If either the
// name or the id collides with an already-confirmed entry, the message is
// dropped and a non-fatal KeyAlreadyExists or IdAlreadyExists is logged.
// Otherwise the entry is inserted into both maps.
//
// Acquires entries_by_name then entries_by_id.
func (s *Store) InstallAssignment(entry types.Entry) {
	s.namesMu.Lock()
	defer s.namesMu.Unlock()
	s.idsMu.Lock()
	defer s.idsMu.Unlock()

	if _, exists := s.byName[entry.Name]; exists {
		s.logError(nterrors.NewKeyAlreadyExists(entry.Name))
		s.publishDispatchError(nterrors.KeyAlreadyExists)
		return
	}
	if _, exists := s.byID[entry.Id]; exists {
		s.logError(nterrors.NewIdAlreadyExists(entry.Id))
		s.publishDispatchError(nterrors.IdAlreadyExists)
		return
	}

	s.byName[entry.Name] = entry
	s.byID[entry.Id] = entry

	if s.metrics != nil {
		s.metrics.EntriesInstalled("assignment")
	}
}

// InstallUpdate applies a server-originated update, whose value tag was
// already resolved by IDLookup during decoding — entry carries only id,
// sequence, and value. If no confirmed entry exists for entry.Id, this is
// protocol corruption: the id was confirmed to exist at resolve time, so
// its disappearance means the store was mutated inconsistently, and the
// caller should treat the connection as fatally broken. If the existing
// entry's sequence is not strictly less than the incoming one, the update
// is dropped and a non-fatal OutOfOrderSequenceNumbers is logged. Otherwise
// both maps are rewritten with the new entry.
//
// Acquires entries_by_name then entries_by_id.
func (s *Store) InstallUpdate(entry types.Entry) error {
	s.namesMu.Lock()
	defer s.namesMu.Unlock()
	s.idsMu.Lock()
	defer s.idsMu.Unlock()

	existing, ok := s.byID[entry.Id]
	if !ok {
		s.publishDispatchError(nterrors.IdDoesntExist)
		return nterrors.NewIdDoesntExist(entry.Id)
	}

	if !existing.Sequence.Less(entry.Sequence) {
		s.logError(nterrors.NewOutOfOrderSequenceNumbers(existing.Sequence.Uint16(), entry.Sequence.Uint16()))
		s.publishDispatchError(nterrors.OutOfOrderSequenceNumbers)
		return nil
	}

	updated := entry
	updated.Name = existing.Name
	s.byName[existing.Name] = updated
	s.byID[updated.Id] = updated

	if s.metrics != nil {
		s.metrics.EntriesInstalled("update")
	}
	return nil
}

// publishDispatchError reports a dropped or fatal condition to the metrics
// sink, if one is configured.
func (s *Store) publishDispatchError(kind nterrors.Kind) {
	if s.metrics != nil {
		s.metrics.DispatchError(kind.String())
	}
}

// IDLookup resolves a confirmed id to its name and current value, so the
// wire codec can learn which type tag an incoming update's payload must be
// decoded against. It satisfies wire.IDResolver.
func (s *Store) IDLookup(id uint16) (string, types.Value, bool) {
	s.idsMu.RLock()
	defer s.idsMu.RUnlock()
	e, ok := s.byID[id]
	if !ok {
		return "", types.Value{}, false
	}
	return e.Name, e.Value, true
}

// logError appends a non-fatal error to the log. Callers must already hold
// whatever locks the lock order requires for the condition being reported;
// this only touches the error log itself.
func (s *Store) logError(err *nterrors.NtError) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	s.errs = append(s.errs, err)
}

// LogError appends a non-fatal error to the log. Exported for callers (the
// receive and send loops) reporting conditions that don't also require the
// entry-map locks.
func (s *Store) LogError(err *nterrors.NtError) {
	s.logError(err)
}

// LogFatal transitions the connection state to Error(kind) if it is not
// already terminal; if it is, the kind is appended to the non-fatal error
// log instead, keeping Closed/Error sticky.
func (s *Store) LogFatal(err *nterrors.NtError) {
	if !s.State.markFatal(err.Kind) {
		s.logError(err)
	}
}

// MarkConnected applies the Initializing -> Connected transition on the
// first HELLO_COMPLETE.
func (s *Store) MarkConnected() {
	s.State.markConnected()
}

// Close applies the Initializing|Connected -> Closed transition. A no-op if
// already terminal; callers still perform socket shutdown unconditionally.
func (s *Store) Close() {
	s.State.markClosed()
}

// Errors returns a snapshot copy of the accumulated non-fatal error log.
func (s *Store) Errors() []*nterrors.NtError {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	out := make([]*nterrors.NtError, len(s.errs))
	copy(out, s.errs)
	return out
}

// EntryByID returns a confirmed entry by id, for tests and diagnostics.
func (s *Store) EntryByID(id uint16) (types.Entry, bool) {
	s.idsMu.RLock()
	defer s.idsMu.RUnlock()
	e, ok := s.byID[id]
	return e, ok
}

// EntryByName returns a confirmed entry by name, for tests and diagnostics.
func (s *Store) EntryByName(name string) (types.Entry, bool) {
	s.namesMu.RLock()
	defer s.namesMu.RUnlock()
	e, ok := s.byName[name]
	return e, ok
}
