// Package game holds the pacman simulation: the shared board, the level
// loader, the movement rules, and the per-entity actor loops. Each
// session owns exactly one Board; all mutation happens under the board's
// write lock and every coherent multi-field read under at least the read
// lock.
package game

import "sync"

// Command is one scripted or manual move: a WASD letter repeated for a
// number of turns.
type Command struct {
	Letter    byte
	Turns     int
	TurnsLeft int
}

// Cell is one static board tile.
type Cell struct {
	Content   byte // 'W' for wall, 0 otherwise
	HasDot    bool
	HasPortal bool
}

// Pacman is the player avatar. Step slows the actor relative to the
// board tempo: its effective period is tempo*(1+Step).
type Pacman struct {
	X, Y        int
	Alive       bool
	Step        int
	Moves       []Command // recorded moves; empty means manual control
	CurrentMove int
}

// Ghost is one autonomous opponent. Charged ghosts render as 'G'.
type Ghost struct {
	X, Y        int
	Charged     bool
	Step        int
	Moves       []Command
	CurrentMove int
}

// Board is the mutable state of one level in play. The embedded RWMutex
// is the state lock from the session's reader/writer discipline.
type Board struct {
	mu sync.RWMutex

	Width  int
	Height int
	Tempo  int // milliseconds per tick

	Cells   []Cell // len == Width*Height, row-major
	Pacmans []Pacman
	Ghosts  []Ghost

	AccumulatedPoints int
	Victory           bool
	GameOver          bool

	LevelName string
}

// Lock acquires the write side of the state lock.
func (b *Board) Lock() { b.mu.Lock() }

// Unlock releases the write side.
func (b *Board) Unlock() { b.mu.Unlock() }

// RLock acquires the read side of the state lock.
func (b *Board) RLock() { b.mu.RLock() }

// RUnlock releases the read side.
func (b *Board) RUnlock() { b.mu.RUnlock() }

func (b *Board) index(x, y int) int { return y*b.Width + x }

func (b *Board) inBounds(x, y int) bool {
	return x >= 0 && x < b.Width && y >= 0 && y < b.Height
}

// IsWall reports whether the tile at (x, y) blocks movement. Out of
// bounds counts as wall so actors never leave the board.
func (b *Board) IsWall(x, y int) bool {
	if !b.inBounds(x, y) {
		return true
	}
	return b.Cells[b.index(x, y)].Content == 'W'
}

// GhostAt returns the index of the ghost occupying (x, y), or -1.
func (b *Board) GhostAt(x, y int) int {
	for i := range b.Ghosts {
		if b.Ghosts[i].X == x && b.Ghosts[i].Y == y {
			return i
		}
	}
	return -1
}

// PacmanAt returns the index of the live pacman occupying (x, y), or -1.
func (b *Board) PacmanAt(x, y int) int {
	for i := range b.Pacmans {
		if b.Pacmans[i].Alive && b.Pacmans[i].X == x && b.Pacmans[i].Y == y {
			return i
		}
	}
	return -1
}

// RemainingDots counts the dots still on the board. Caller holds at
// least the read lock.
func (b *Board) RemainingDots() int {
	dots := 0
	for i := range b.Cells {
		if b.Cells[i].HasDot {
			dots++
		}
	}
	return dots
}

// RenderCells produces the display byte for every tile, row-major.
// Priority per cell: charged ghost 'G', ghost 'M', live pacman 'C', then
// the static tile ('#' wall, '@' portal, '.' dot, ' ' empty). Caller
// holds at least the read lock.
func (b *Board) RenderCells() []byte {
	out := make([]byte, b.Width*b.Height)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			out[b.index(x, y)] = b.renderCell(x, y)
		}
	}
	return out
}

func (b *Board) renderCell(x, y int) byte {
	if g := b.GhostAt(x, y); g >= 0 {
		if b.Ghosts[g].Charged {
			return 'G'
		}
		return 'M'
	}
	if b.PacmanAt(x, y) >= 0 {
		return 'C'
	}
	cell := b.Cells[b.index(x, y)]
	switch {
	case cell.Content == 'W':
		return '#'
	case cell.HasPortal:
		return '@'
	case cell.HasDot:
		return '.'
	default:
		return ' '
	}
}
