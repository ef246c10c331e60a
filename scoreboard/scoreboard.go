// Package scoreboard tracks the current score of every connected client
// and the five highest peak scores observed since the process started.
// One mutex serializes every operation, including the signal-triggered
// dump, so any goroutine may call into it.
package scoreboard

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/lguibr/pacgo/utils"
)

// entry pairs a client id with a points value. Id 0 marks an empty
// top-5 slot.
type entry struct {
	id     int
	points int
}

// Scoreboard is the process-wide score registry.
type Scoreboard struct {
	mu     sync.Mutex
	active []entry
	best   [5]entry

	// dump target, overwritten on every Dump
	path string
}

// New builds a scoreboard that dumps to the given file path.
func New(path string) *Scoreboard {
	return &Scoreboard{path: path}
}

// Add registers a client, resetting its score to zero if it already
// exists. At most MaxClients records are kept; extras are dropped.
func (s *Scoreboard) Add(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.active {
		if s.active[i].id == id {
			s.active[i].points = 0
			return
		}
	}
	if len(s.active) < utils.MaxClients {
		s.active = append(s.active, entry{id: id})
	}
	s.updateBest(id, 0)
}

// Update sets a client's current score and folds it into the top-5 if
// it is a new peak.
func (s *Scoreboard) Update(id, points int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.active {
		if s.active[i].id == id {
			s.active[i].points = points
			s.updateBest(id, points)
			return
		}
	}
}

// Remove drops a client's active record. Its peak stays in the top-5.
func (s *Scoreboard) Remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.active {
		if s.active[i].id == id {
			last := len(s.active) - 1
			s.active[i] = s.active[last]
			s.active = s.active[:last]
			return
		}
	}
}

// updateBest keeps the top-5 sorted descending by peak points, one
// entry per id, empty slots (id 0) last. Caller holds the mutex.
func (s *Scoreboard) updateBest(id, points int) {
	for i := range s.best {
		if s.best[i].id == id {
			if points > s.best[i].points {
				s.best[i].points = points
			}
			// Bubble the raised entry back into descending order.
			for j := i; j > 0; j-- {
				if s.best[j].points > s.best[j-1].points {
					s.best[j-1], s.best[j] = s.best[j], s.best[j-1]
				}
			}
			return
		}
	}
	if points <= 0 {
		return
	}
	for i := range s.best {
		if s.best[i].id == 0 || points > s.best[i].points {
			copy(s.best[i+1:], s.best[i:len(s.best)-1])
			s.best[i] = entry{id: id, points: points}
			return
		}
	}
}

// Best returns the non-empty top-5 entries in order, as (id, points)
// pairs. Exposed for tests and the dump.
func (s *Scoreboard) Best() [][2]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out [][2]int
	for _, e := range s.best {
		if e.id != 0 {
			out = append(out, [2]int{e.id, e.points})
		}
	}
	return out
}

// Dump overwrites the scores file with the current top-5. Called from
// the signal goroutine; safe at any time.
func (s *Scoreboard) Dump() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sb strings.Builder
	sb.WriteString("=== TOP 5 CLIENTS ===\n")
	for _, e := range s.best {
		if e.id != 0 {
			fmt.Fprintf(&sb, "Client %d: %d points\n", e.id, e.points)
		}
	}
	if err := os.WriteFile(s.path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	return nil
}
