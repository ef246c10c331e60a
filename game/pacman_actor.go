// File: game/pacman_actor.go
package game

import "time"

// RunPacmanActor is the pacman ticker loop: sleep one effective period,
// then move once under the write lock. It exits when the runtime stops,
// the level ends, or the pacman dies. Run as a goroutine; the session
// joins it through its WaitGroup.
func RunPacmanActor(rt *Runtime) {
	board := rt.Board

	for !rt.Stopped() {
		pacman := &board.Pacmans[0]
		sleepTicks(board.Tempo, pacman.Step)

		board.Lock()
		if rt.Stopped() || board.GameOver || board.Victory || !pacman.Alive {
			board.Unlock()
			return
		}

		var play *Command
		if len(pacman.Moves) == 0 {
			cmd := rt.TakeCommand()
			if cmd == 0 {
				board.Unlock()
				continue
			}
			if cmd == 'Q' {
				board.GameOver = true
				rt.Stop()
				board.Unlock()
				return
			}
			// Manual control: a single-turn command built on the fly.
			play = &Command{Letter: cmd, Turns: 1, TurnsLeft: 1}
		} else {
			play = &pacman.Moves[pacman.CurrentMove%len(pacman.Moves)]
		}

		result := MovePacman(board, 0, play)
		if len(pacman.Moves) > 0 {
			pacman.CurrentMove += advance(play)
		}

		switch {
		case result == ReachedPortal:
			board.Victory = true
			rt.Stop()
		case result == DeadPacman:
			board.GameOver = true
			rt.Stop()
		case !board.Victory && !board.GameOver && board.RemainingDots() == 0:
			board.Victory = true
			rt.Stop()
		}
		board.Unlock()
	}
}

func sleepTicks(tempo, step int) {
	time.Sleep(time.Duration(tempo*(1+step)) * time.Millisecond)
}
