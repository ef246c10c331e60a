// Package server is the pacgo host: it owns the rendezvous fifo, admits
// clients up to a fixed concurrent-game cap, and runs each admitted
// session through its levels on a fixed worker pool.
package server

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/lguibr/pacgo/scoreboard"
	"github.com/lguibr/pacgo/utils"
)

// Options are the startup parameters of one server process.
type Options struct {
	LevelsDir   string
	MaxGames    int
	FifoPath    string
	MetricsAddr string
}

// Server ties the registrar, the session queue, the worker pool and the
// scoreboard together. It runs until the process is killed.
type Server struct {
	opts   Options
	logger zerolog.Logger
	scores *scoreboard.Scoreboard
	queue  *SessionQueue

	sessMu   sync.Mutex
	sessCond *sync.Cond
	active   int
}

// New builds a server. The scoreboard is shared with the signal handler
// and outlives any session.
func New(opts Options, scores *scoreboard.Scoreboard, logger zerolog.Logger) (*Server, error) {
	if opts.MaxGames < 1 || opts.MaxGames > utils.MaxClients {
		return nil, fmt.Errorf("max_games must be between 1 and %d, got %d", utils.MaxClients, opts.MaxGames)
	}
	s := &Server{
		opts:   opts,
		logger: logger.With().Str("component", "server").Logger(),
		scores: scores,
		queue:  NewSessionQueue(),
	}
	s.sessCond = sync.NewCond(&s.sessMu)
	return s, nil
}

// Run creates the rendezvous fifo, starts the workers and the signal
// goroutine, then serves connect requests forever. It only returns on a
// startup failure.
func (s *Server) Run() error {
	// Writes to a closed pipe must surface as EPIPE, never kill the
	// process.
	signal.Ignore(syscall.SIGPIPE)

	// Remove a stale fifo from a previous run before creating ours.
	_ = os.Remove(s.opts.FifoPath)
	if err := unix.Mkfifo(s.opts.FifoPath, 0o666); err != nil {
		return fmt.Errorf("mkfifo %s: %w", s.opts.FifoPath, err)
	}
	s.logger.Info().Str("fifo", s.opts.FifoPath).Msg("rendezvous fifo created")

	go s.handleDumpSignals()

	if s.opts.MetricsAddr != "" {
		go serveMetrics(s.opts.MetricsAddr, s.logger)
	}

	for i := 0; i < s.opts.MaxGames; i++ {
		go s.runWorker(i)
	}

	defer os.Remove(s.opts.FifoPath)
	return s.runRegistrar()
}

// waitForSlot blocks the registrar until the active-session count drops
// below the cap. Admission is FIFO back-pressure, never rejection.
func (s *Server) waitForSlot() {
	s.sessMu.Lock()
	for s.active >= s.opts.MaxGames {
		s.sessCond.Wait()
	}
	s.sessMu.Unlock()
}

func (s *Server) incSessions() {
	s.sessMu.Lock()
	s.active++
	s.sessMu.Unlock()
	metricActiveSessions.Inc()
}

func (s *Server) decSessions() {
	s.sessMu.Lock()
	s.active--
	s.sessCond.Broadcast()
	s.sessMu.Unlock()
	metricActiveSessions.Dec()
}

// ActiveSessions reports the in-flight session count. Exposed for tests.
func (s *Server) ActiveSessions() int {
	s.sessMu.Lock()
	defer s.sessMu.Unlock()
	return s.active
}

// handleDumpSignals serializes SIGUSR1 delivery onto one goroutine that
// never touches game state; the dump takes only the scoreboard mutex.
func (s *Server) handleDumpSignals() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGUSR1)
	for range ch {
		if err := s.scores.Dump(); err != nil {
			s.logger.Error().Err(err).Msg("leaderboard dump failed")
			continue
		}
		metricScoreDumps.Inc()
		s.logger.Info().Msg("leaderboard dumped")
	}
}
