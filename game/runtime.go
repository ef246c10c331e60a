// File: game/runtime.go
package game

import (
	"sync"
	"sync/atomic"
)

// Runtime is the per-level mutable record shared by the dispatch loop
// and the actor goroutines: the stop flag and the single pending-command
// slot. Commands overwrite each other deliberately (latest wins); the
// pacman actor's tempo is the input throttle.
type Runtime struct {
	Board     *Board
	SessionID int

	stop atomic.Bool

	cmdMu      sync.Mutex
	pendingCmd byte
}

// NewRuntime builds the runtime for one level of one session.
func NewRuntime(board *Board, sessionID int) *Runtime {
	return &Runtime{Board: board, SessionID: sessionID}
}

// Stop requests cooperative termination of the dispatch loop and all
// actors.
func (rt *Runtime) Stop() { rt.stop.Store(true) }

// Stopped reports whether termination was requested.
func (rt *Runtime) Stopped() bool { return rt.stop.Load() }

// PostCommand stores one pending command, overwriting any unread prior.
func (rt *Runtime) PostCommand(cmd byte) {
	rt.cmdMu.Lock()
	rt.pendingCmd = cmd
	rt.cmdMu.Unlock()
}

// TakeCommand consumes and clears the pending command; zero means no
// input arrived since the last take.
func (rt *Runtime) TakeCommand() byte {
	rt.cmdMu.Lock()
	cmd := rt.pendingCmd
	rt.pendingCmd = 0
	rt.cmdMu.Unlock()
	return cmd
}
