package store

import (
	"sync"

	nterrors "github.com/nt2go/ntclient/pkg/networktables/errors"
)

// ConnectionPhase identifies which of the four connection states the client
// is currently in.
type ConnectionPhase int

const (
	Initializing ConnectionPhase = iota
	Connected
	Closed
	Error
)

// String renders the phase for logging and diagnostics.
func (p ConnectionPhase) String() string {
	switch p {
	case Initializing:
		return "Initializing"
	case Connected:
		return "Connected"
	case Closed:
		return "Closed"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// ConnectionState is the four-state machine over ConnectionPhase plus, when
// in Error, the kind that caused the transition. Closed and Error are
// terminal: once entered, further fatal conditions are appended to the
// non-fatal error log instead of re-transitioning, so the first fatal cause
// is the one preserved in the kind.
type ConnectionState struct {
	mu        sync.RWMutex
	phase     ConnectionPhase
	errorKind nterrors.Kind
}

func newConnectionState() *ConnectionState {
	return &ConnectionState{phase: Initializing}
}

// Phase returns the current phase.
func (s *ConnectionState) Phase() ConnectionPhase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// ErrorKind returns the kind that moved the state to Error. Only meaningful
// when Phase() == Error.
func (s *ConnectionState) ErrorKind() nterrors.Kind {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errorKind
}

// markConnected applies Initializing -> Connected on the first
// HELLO_COMPLETE. A no-op from any other phase.
func (s *ConnectionState) markConnected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == Initializing {
		s.phase = Connected
	}
}

// markClosed applies Initializing|Connected -> Closed. A no-op if already
// Closed or Error; the caller still performs socket shutdown in every case.
func (s *ConnectionState) markClosed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == Initializing || s.phase == Connected {
		s.phase = Closed
	}
}

// markFatal applies Initializing|Connected -> Error(kind). Returns true if
// the transition happened; false means the state was already terminal and
// the caller must log the error non-fatally instead.
func (s *ConnectionState) markFatal(kind nterrors.Kind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == Closed || s.phase == Error {
		return false
	}
	s.phase = Error
	s.errorKind = kind
	return true
}
