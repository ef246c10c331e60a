// File: game/ghost_actor.go
package game

// RunGhostActor is the ticker loop for one ghost: sleep its effective
// period, then move one step of its recorded patrol under the write
// lock. It exits when the runtime stops or the level ends.
func RunGhostActor(rt *Runtime, index int) {
	board := rt.Board

	for !rt.Stopped() {
		ghost := &board.Ghosts[index]
		sleepTicks(board.Tempo, ghost.Step)

		board.Lock()
		if rt.Stopped() || board.GameOver || board.Victory {
			board.Unlock()
			return
		}

		play := &ghost.Moves[ghost.CurrentMove%len(ghost.Moves)]
		result := MoveGhost(board, index, play)
		ghost.CurrentMove += advance(play)

		if result == DeadPacman {
			board.GameOver = true
			rt.Stop()
		}
		board.Unlock()
	}
}
