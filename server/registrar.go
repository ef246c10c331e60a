// File: server/registrar.go
package server

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/lguibr/pacgo/protocol"
)

// runRegistrar is the accept loop. The rendezvous fifo is opened
// read-write so this end never observes EOF when the last client closes
// its writer. Every valid 81-byte connect request becomes a queued
// session; everything else is logged and discarded.
func (s *Server) runRegistrar() error {
	regFD, err := unix.Open(s.opts.FifoPath, unix.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open rendezvous fifo %s: %w", s.opts.FifoPath, err)
	}
	defer unix.Close(regFD)

	s.logger.Info().Str("fifo", s.opts.FifoPath).Msg("registrar listening")

	buf := make([]byte, protocol.ConnectRequestSize)
	for {
		n, err := unix.Read(regFD, buf)
		if err != nil || n <= 0 {
			s.logger.Warn().Err(err).Int("bytes", n).Msg("rendezvous read failed")
			continue
		}
		if n != protocol.ConnectRequestSize {
			s.logger.Warn().Int("bytes", n).Msg("ignoring incomplete connect request")
			metricConnectsRejected.Inc()
			continue
		}

		reqPath, notifPath, err := protocol.DecodeConnectRequest(buf)
		if err != nil {
			s.logger.Warn().Err(err).Msg("discarding malformed connect request")
			metricConnectsRejected.Inc()
			continue
		}
		clientID, err := protocol.ParseClientID(reqPath)
		if err != nil {
			s.logger.Warn().Err(err).Str("req_pipe", reqPath).Msg("discarding connect request")
			metricConnectsRejected.Inc()
			continue
		}

		// Back-pressure: hold the connect until a game slot frees up.
		s.waitForSlot()

		// Open ordering matters: notif-for-write before the accept
		// response, request-for-read non-blocking so the dispatch loop
		// can poll without deadlock.
		notifFD, err := unix.Open(notifPath, unix.O_WRONLY, 0)
		if err != nil {
			s.logger.Warn().Err(err).Str("notif_pipe", notifPath).Msg("cannot open notif pipe, dropping session")
			metricConnectsRejected.Inc()
			continue
		}
		reqFD, err := unix.Open(reqPath, unix.O_RDONLY|unix.O_NONBLOCK, 0)
		if err != nil {
			s.logger.Warn().Err(err).Str("req_pipe", reqPath).Msg("cannot open request pipe, dropping session")
			unix.Close(notifFD)
			metricConnectsRejected.Inc()
			continue
		}

		s.scores.Add(clientID)

		if err := writeFull(notifFD, protocol.EncodeConnectResponse(protocol.StatusAccepted)); err != nil {
			s.logger.Warn().Err(err).Int("client", clientID).Msg("connect response write failed, dropping session")
			unix.Close(reqFD)
			unix.Close(notifFD)
			s.scores.Remove(clientID)
			continue
		}

		ctx := &SessionCtx{
			ID:        clientID,
			ReqFD:     reqFD,
			NotifFD:   notifFD,
			ReqPath:   reqPath,
			NotifPath: notifPath,
			LevelsDir: s.opts.LevelsDir,
		}
		s.logger.Info().Int("client", clientID).Str("req_pipe", reqPath).Str("notif_pipe", notifPath).Msg("session admitted")
		metricConnects.Inc()
		s.queue.Enqueue(ctx)
	}
}

// writeFull pushes the whole buffer through one fd, retrying short
// writes. Pipe writes up to PIPE_BUF are atomic; frames can be larger.
func writeFull(fd int, buf []byte) error {
	for len(buf) > 0 {
		n, err := unix.Write(fd, buf)
		if err != nil {
			return err
		}
		buf = buf[n:]
	}
	return nil
}
