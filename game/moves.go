// File: game/moves.go
package game

import "github.com/lguibr/pacgo/utils"

const pointsPerDot = utils.PointsPerDot

// MoveResult is what a single move attempt did to the game state.
type MoveResult int

const (
	MoveOK MoveResult = iota
	ReachedPortal
	DeadPacman
)

func direction(letter byte) (dx, dy int, ok bool) {
	switch letter {
	case 'W':
		return 0, -1, true
	case 'S':
		return 0, 1, true
	case 'A':
		return -1, 0, true
	case 'D':
		return 1, 0, true
	}
	return 0, 0, false
}

// MovePacman advances pacman i one tile in the command's direction.
// Walls block (the turn is spent). Walking into a ghost kills the
// pacman. Dots score PointsPerDot; a portal tile ends the level.
// Caller holds the write lock.
func MovePacman(b *Board, i int, cmd *Command) MoveResult {
	p := &b.Pacmans[i]
	if !p.Alive {
		return DeadPacman
	}
	dx, dy, ok := direction(cmd.Letter)
	if !ok {
		return MoveOK
	}
	nx, ny := p.X+dx, p.Y+dy
	if b.IsWall(nx, ny) {
		return MoveOK
	}
	if b.GhostAt(nx, ny) >= 0 {
		p.Alive = false
		return DeadPacman
	}
	p.X, p.Y = nx, ny
	cell := &b.Cells[b.index(nx, ny)]
	if cell.HasPortal {
		return ReachedPortal
	}
	if cell.HasDot {
		cell.HasDot = false
		b.AccumulatedPoints += pointsPerDot
	}
	return MoveOK
}

// MoveGhost advances ghost i one tile. Walls block. Moving onto the
// live pacman kills it. Ghosts never consume dots or portals. Caller
// holds the write lock.
func MoveGhost(b *Board, i int, cmd *Command) MoveResult {
	g := &b.Ghosts[i]
	dx, dy, ok := direction(cmd.Letter)
	if !ok {
		return MoveOK
	}
	nx, ny := g.X+dx, g.Y+dy
	if b.IsWall(nx, ny) {
		return MoveOK
	}
	if p := b.PacmanAt(nx, ny); p >= 0 {
		b.Pacmans[p].Alive = false
		g.X, g.Y = nx, ny
		return DeadPacman
	}
	if b.GhostAt(nx, ny) >= 0 {
		// Ghosts do not stack.
		return MoveOK
	}
	g.X, g.Y = nx, ny
	return MoveOK
}

// advance spends one turn of a recorded move and reports the cursor
// delta once the command is exhausted.
func advance(cmd *Command) int {
	cmd.TurnsLeft--
	if cmd.TurnsLeft > 0 {
		return 0
	}
	cmd.TurnsLeft = cmd.Turns
	return 1
}
