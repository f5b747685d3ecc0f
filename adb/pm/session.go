package pm

import (
	"sync"

	"github.com/pkg/errors"
)

// SessionState is where an install session is in its life
type SessionState int

// Install session states
const (
	StateCreated SessionState = iota
	StateSessionOpen
	StateWriting
	StateCommitted
	StateFailed
)

var stateNames = [...]string{
	StateCreated:     "created",
	StateSessionOpen: "open",
	StateWriting:     "writing",
	StateCommitted:   "committed",
	StateFailed:      "failed",
}

// String turns a state into a string
func (s SessionState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "invalid"
	}
	return stateNames[s]
}

// Terminal returns true for committed and failed sessions
func (s SessionState) Terminal() bool {
	return s == StateCommitted || s == StateFailed
}

// InstallSession is a package install transaction on a device
//
// Writes may run concurrently so the state is guarded.
type InstallSession struct {
	ID string

	mu     sync.Mutex
	state  SessionState
	writes int
}

func newInstallSession() *InstallSession {
	return &InstallSession{state: StateCreated}
}

// State returns the current state
func (is *InstallSession) State() SessionState {
	is.mu.Lock()
	defer is.mu.Unlock()
	return is.state
}

// Writes returns the number of APKs written successfully
func (is *InstallSession) Writes() int {
	is.mu.Lock()
	defer is.mu.Unlock()
	return is.writes
}

// String describes the session for logging
func (is *InstallSession) String() string {
	if is.ID == "" {
		return "install session"
	}
	return "install session " + is.ID
}

// check returns ErrInvalidSessionState unless the session is in one
// of allowed
func (is *InstallSession) check(op string, allowed ...SessionState) error {
	is.mu.Lock()
	defer is.mu.Unlock()
	for _, s := range allowed {
		if is.state == s {
			return nil
		}
	}
	return errors.Wrapf(ErrInvalidSessionState, "can't %s %s in state %v", op, is, is.state)
}

// open records the id returned by install-create
func (is *InstallSession) open(id string) {
	is.mu.Lock()
	defer is.mu.Unlock()
	is.ID = id
	is.state = StateSessionOpen
}

// set moves the session to state unless it has already finished
func (is *InstallSession) set(state SessionState) {
	is.mu.Lock()
	defer is.mu.Unlock()
	if is.state.Terminal() {
		return
	}
	if state == StateWriting {
		is.writes++
	}
	is.state = state
}
