// File: server/session.go
package server

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/lguibr/pacgo/game"
	"github.com/lguibr/pacgo/protocol"
)

// runSession plays every level for one client, in ascending file order,
// carrying points across level transitions. It returns when the game is
// over, the client goes away, or a level fails to load.
func (s *Server) runSession(ctx *SessionCtx) {
	logger := s.logger.With().Int("client", ctx.ID).Logger()
	outcome := "game_over"

	defer func() {
		unix.Close(ctx.ReqFD)
		unix.Close(ctx.NotifFD)
		s.scores.Remove(ctx.ID)
		metricSessions.WithLabelValues(outcome).Inc()
	}()

	levels, err := game.Levels(ctx.LevelsDir)
	if err != nil || len(levels) == 0 {
		logger.Error().Err(err).Str("dir", ctx.LevelsDir).Msg("no playable levels")
		return
	}

	carryPoints := 0
	for idx, name := range levels {
		board, err := game.LoadLevel(ctx.LevelsDir, name, carryPoints)
		if err != nil {
			logger.Error().Err(err).Str("level", name).Msg("level load failed")
			return
		}
		logger.Info().
			Str("level", name).
			Int("width", board.Width).Int("height", board.Height).
			Int("tempo", board.Tempo).Int("dots", board.RemainingDots()).
			Msg("level loaded")

		rt := game.NewRuntime(board, ctx.ID)

		var actors sync.WaitGroup
		actors.Add(1)
		go func() {
			defer actors.Done()
			game.RunPacmanActor(rt)
		}()
		for g := range board.Ghosts {
			actors.Add(1)
			go func(g int) {
				defer actors.Done()
				game.RunGhostActor(rt, g)
			}(g)
		}

		s.dispatchLoop(ctx, rt, logger)

		rt.Stop()
		actors.Wait()

		hasNext := idx+1 < len(levels)

		board.Lock()
		if board.Victory && hasNext {
			// Signal a level transition, not a final game over.
			board.GameOver = false
		} else {
			board.GameOver = true
		}
		victory := board.Victory
		finalPoints := board.AccumulatedPoints
		frame := snapshotFrame(board)
		board.Unlock()

		// A broken pipe on the final frame is not fatal: the client may
		// already be gone.
		if err := writeFull(ctx.NotifFD, protocol.EncodeBoard(frame)); err == nil {
			metricBoardsSent.Inc()
		}

		s.scores.Update(ctx.ID, finalPoints)
		carryPoints = finalPoints
		game.UnloadLevel(board)

		if !(victory && hasNext) {
			if victory {
				outcome = "victory"
			}
			return
		}
	}
}

// dispatchLoop is the per-tick heart of a session: drain client input,
// snapshot and send the board, update the score, pace by the tempo. It
// returns once the runtime stops. No board lock is ever held while
// blocking on a pipe.
func (s *Server) dispatchLoop(ctx *SessionCtx, rt *game.Runtime, logger zerolog.Logger) {
	board := rt.Board
	buf := make([]byte, 32)

	for !rt.Stopped() {
		n, err := unix.Read(ctx.ReqFD, buf)
		switch {
		case err == nil && n == 0:
			// EOF: the client closed its request pipe.
			board.Lock()
			board.GameOver = true
			board.Unlock()
			rt.Stop()
		case err == nil && n > 0:
			s.consumeInput(rt, buf[:n])
		default:
			// EAGAIN and friends: no input this tick.
		}

		board.RLock()
		points := board.AccumulatedPoints
		victory := board.Victory
		gameOver := board.GameOver
		frame := snapshotFrame(board)
		board.RUnlock()

		if err := writeFull(ctx.NotifFD, protocol.EncodeBoard(frame)); err != nil {
			if errors.Is(err, unix.EPIPE) {
				logger.Info().Msg("client closed notif pipe")
			} else {
				logger.Error().Err(err).Msg("board write failed")
			}
			rt.Stop()
			return
		}
		metricBoardsSent.Inc()

		s.scores.Update(ctx.ID, points)

		if victory || gameOver {
			rt.Stop()
			return
		}

		time.Sleep(time.Duration(board.Tempo) * time.Millisecond)
	}
}

// consumeInput walks a request-pipe read as (opcode, payload) pairs.
// Play commands overwrite each other (latest wins); an unknown opcode
// ends the walk for this read.
func (s *Server) consumeInput(rt *game.Runtime, buf []byte) {
	board := rt.Board
	for i := 0; i < len(buf); i += 2 {
		switch buf[i] {
		case protocol.OpPlay:
			if i+1 < len(buf) {
				rt.PostCommand(upper(buf[i+1]))
			}
		case protocol.OpDisconnect:
			board.Lock()
			board.GameOver = true
			board.Unlock()
			rt.Stop()
		default:
			return
		}
	}
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

// snapshotFrame renders the board into a wire frame. Caller holds at
// least the read lock.
func snapshotFrame(b *game.Board) protocol.BoardFrame {
	return protocol.BoardFrame{
		Width:             int32(b.Width),
		Height:            int32(b.Height),
		Tempo:             int32(b.Tempo),
		Victory:           boolToInt32(b.Victory),
		GameOver:          boolToInt32(b.GameOver),
		AccumulatedPoints: int32(b.AccumulatedPoints),
		Cells:             b.RenderCells(),
	}
}

func boolToInt32(v bool) int32 {
	if v {
		return 1
	}
	return 0
}
