// File: server/worker.go
package server

// runWorker is one slot of the fixed consumer pool. It pulls admitted
// sessions off the queue and runs each to completion; the active count
// brackets the whole session so the registrar's cap holds.
func (s *Server) runWorker(id int) {
	logger := s.logger.With().Int("worker", id).Logger()
	for {
		ctx := s.queue.Dequeue()
		s.incSessions()
		logger.Info().Int("client", ctx.ID).Msg("session started")
		s.runSession(ctx)
		s.decSessions()
		logger.Info().Int("client", ctx.ID).Msg("session closed")
	}
}
