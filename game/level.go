// File: game/level.go
package game

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/lguibr/pacgo/utils"
)

// defaultGhostPatrol drives ghosts whose level file does not script
// them: a small clockwise square.
func defaultGhostPatrol() []Command {
	return []Command{
		{Letter: 'W', Turns: 2, TurnsLeft: 2},
		{Letter: 'D', Turns: 2, TurnsLeft: 2},
		{Letter: 'S', Turns: 2, TurnsLeft: 2},
		{Letter: 'A', Turns: 2, TurnsLeft: 2},
	}
}

// Levels lists the playable level file names inside dir: files ending in
// ".lvl" (case-sensitive, no recursion), ascending byte-wise order,
// capped at MaxLevels.
func Levels(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading levels dir %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if len(name) > len(utils.LevelSuffix) && strings.HasSuffix(name, utils.LevelSuffix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if len(names) > utils.MaxLevels {
		names = names[:utils.MaxLevels]
	}
	return names, nil
}

// LoadLevel parses one .lvl file into a fresh Board. carryPoints is the
// accumulated score of the previous level (0 for the first).
//
// Format:
//
//	tempo <ms>
//	<map rows: W wall, . dot, @ portal, C pacman, M ghost, G charged
//	 ghost, space empty>
//
//	pacman step <n>
//	pacman moves <SEQ>
//	ghost <i> step <n>
//	ghost <i> moves <SEQ>
//
// The directive block after the map is optional. SEQ is a space
// separated list of WASD letters, each optionally followed by a repeat
// count, e.g. "W2 D S3".
func LoadLevel(dir, name string, carryPoints int) (*Board, error) {
	path := filepath.Join(dir, name)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening level %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)

	if !scanner.Scan() {
		return nil, fmt.Errorf("level %s: empty file", name)
	}
	tempo, err := parseTempo(scanner.Text())
	if err != nil {
		return nil, fmt.Errorf("level %s: %w", name, err)
	}

	var rows []string
	var directives []string
	inMap := true
	for scanner.Scan() {
		line := scanner.Text()
		if inMap {
			if strings.TrimSpace(line) == "" {
				inMap = false
				continue
			}
			rows = append(rows, line)
			continue
		}
		if strings.TrimSpace(line) != "" {
			directives = append(directives, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("level %s: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("level %s: no map rows", name)
	}

	board := &Board{
		Height:            len(rows),
		Tempo:             tempo,
		AccumulatedPoints: carryPoints,
		LevelName:         name,
	}
	for _, row := range rows {
		if len(row) > board.Width {
			board.Width = len(row)
		}
	}
	board.Cells = make([]Cell, board.Width*board.Height)

	for y, row := range rows {
		for x := 0; x < board.Width; x++ {
			var ch byte = ' '
			if x < len(row) {
				ch = row[x]
			}
			idx := board.index(x, y)
			switch ch {
			case 'W':
				board.Cells[idx].Content = 'W'
			case '.':
				board.Cells[idx].HasDot = true
			case '@':
				board.Cells[idx].HasPortal = true
			case 'C':
				board.Pacmans = append(board.Pacmans, Pacman{X: x, Y: y, Alive: true})
			case 'M':
				board.Ghosts = append(board.Ghosts, Ghost{X: x, Y: y})
			case 'G':
				board.Ghosts = append(board.Ghosts, Ghost{X: x, Y: y, Charged: true})
			case ' ':
			default:
				return nil, fmt.Errorf("level %s: unknown tile %q at %d,%d", name, ch, x, y)
			}
		}
	}
	if len(board.Pacmans) == 0 {
		return nil, fmt.Errorf("level %s: no pacman start position", name)
	}

	for _, d := range directives {
		if err := applyDirective(board, d); err != nil {
			return nil, fmt.Errorf("level %s: %w", name, err)
		}
	}

	for i := range board.Ghosts {
		if len(board.Ghosts[i].Moves) == 0 {
			board.Ghosts[i].Moves = defaultGhostPatrol()
		}
	}

	return board, nil
}

// UnloadLevel releases a board at the end of a level. State is garbage
// collected; the hook exists so callers mirror the load/unload contract.
func UnloadLevel(b *Board) {
	if b == nil {
		return
	}
	b.Lock()
	b.Cells = nil
	b.Pacmans = nil
	b.Ghosts = nil
	b.Unlock()
}

func parseTempo(line string) (int, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 || fields[0] != "tempo" {
		return 0, fmt.Errorf("first line must be \"tempo <ms>\", got %q", line)
	}
	tempo, err := strconv.Atoi(fields[1])
	if err != nil || tempo <= 0 {
		return 0, fmt.Errorf("invalid tempo %q", fields[1])
	}
	return tempo, nil
}

func applyDirective(b *Board, line string) error {
	fields := strings.Fields(line)
	switch {
	case len(fields) >= 3 && fields[0] == "pacman" && fields[1] == "step":
		step, err := strconv.Atoi(fields[2])
		if err != nil || step < 0 {
			return fmt.Errorf("invalid pacman step %q", fields[2])
		}
		b.Pacmans[0].Step = step

	case len(fields) >= 3 && fields[0] == "pacman" && fields[1] == "moves":
		moves, err := parseMoves(fields[2:])
		if err != nil {
			return err
		}
		b.Pacmans[0].Moves = moves

	case len(fields) >= 4 && fields[0] == "ghost":
		idx, err := strconv.Atoi(fields[1])
		if err != nil || idx < 0 || idx >= len(b.Ghosts) {
			return fmt.Errorf("invalid ghost index %q", fields[1])
		}
		switch fields[2] {
		case "step":
			step, err := strconv.Atoi(fields[3])
			if err != nil || step < 0 {
				return fmt.Errorf("invalid ghost step %q", fields[3])
			}
			b.Ghosts[idx].Step = step
		case "moves":
			moves, err := parseMoves(fields[3:])
			if err != nil {
				return err
			}
			b.Ghosts[idx].Moves = moves
		default:
			return fmt.Errorf("unknown ghost directive %q", fields[2])
		}

	default:
		return fmt.Errorf("unknown directive %q", line)
	}
	return nil
}

func parseMoves(tokens []string) ([]Command, error) {
	moves := make([]Command, 0, len(tokens))
	for _, tok := range tokens {
		if len(tok) == 0 {
			continue
		}
		letter := tok[0]
		if letter != 'W' && letter != 'A' && letter != 'S' && letter != 'D' {
			return nil, fmt.Errorf("unknown move letter in %q", tok)
		}
		turns := 1
		if len(tok) > 1 {
			t, err := strconv.Atoi(tok[1:])
			if err != nil || t <= 0 {
				return nil, fmt.Errorf("invalid repeat count in %q", tok)
			}
			turns = t
		}
		moves = append(moves, Command{Letter: letter, Turns: turns, TurnsLeft: turns})
	}
	if len(moves) == 0 {
		return nil, fmt.Errorf("empty move list")
	}
	return moves, nil
}
