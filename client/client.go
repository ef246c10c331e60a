// Package client is the pacgo client-side API: it creates the private
// pipe pair, performs the rendezvous handshake, and then exchanges play
// commands for board frames. One Session per process half, mirroring
// the server's per-client session.
package client

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/lguibr/pacgo/protocol"
)

const (
	// The server fifo may not exist yet when the client starts; the
	// connect open retries this many times, spaced by retryDelay.
	openRetries = 100
	retryDelay  = 50 * time.Millisecond
)

// Session is one live connection to the server.
type Session struct {
	ID        int
	reqPipe   *os.File
	notifPipe *os.File
	reqPath   string
	notifPath string
}

// Connect creates both client FIFOs, sends the 81-byte connect request
// on the server's rendezvous fifo and completes the handshake. The
// request path must look like /tmp/<id>_request so the server can
// derive the session id.
func Connect(reqPath, notifPath, serverPath string) (*Session, error) {
	id, err := protocol.ParseClientID(reqPath)
	if err != nil {
		return nil, err
	}
	request, err := protocol.EncodeConnectRequest(reqPath, notifPath)
	if err != nil {
		return nil, err
	}

	// Replace any stale FIFOs from a previous run.
	_ = os.Remove(reqPath)
	_ = os.Remove(notifPath)
	if err := unix.Mkfifo(reqPath, 0o666); err != nil {
		return nil, fmt.Errorf("mkfifo %s: %w", reqPath, err)
	}
	if err := unix.Mkfifo(notifPath, 0o666); err != nil {
		return nil, fmt.Errorf("mkfifo %s: %w", notifPath, err)
	}

	serverPipe, err := openServerPipe(serverPath)
	if err != nil {
		return nil, err
	}
	if _, err := serverPipe.Write(request); err != nil {
		serverPipe.Close()
		return nil, fmt.Errorf("sending connect request: %w", err)
	}
	serverPipe.Close()

	// Blocks until the server opens our notif pipe for writing.
	notifPipe, err := os.OpenFile(notifPath, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("opening notif pipe: %w", err)
	}

	response := make([]byte, protocol.ConnectResponseSize)
	if _, err := io.ReadFull(notifPipe, response); err != nil {
		notifPipe.Close()
		return nil, fmt.Errorf("reading connect response: %w", err)
	}
	if err := protocol.DecodeConnectResponse(response); err != nil {
		notifPipe.Close()
		return nil, err
	}

	reqPipe, err := os.OpenFile(reqPath, os.O_WRONLY, 0)
	if err != nil {
		notifPipe.Close()
		return nil, fmt.Errorf("opening request pipe: %w", err)
	}

	return &Session{
		ID:        id,
		reqPipe:   reqPipe,
		notifPipe: notifPipe,
		reqPath:   reqPath,
		notifPath: notifPath,
	}, nil
}

// openServerPipe retries while the server fifo does not exist yet.
func openServerPipe(path string) (*os.File, error) {
	var lastErr error
	for i := 0; i < openRetries; i++ {
		f, err := os.OpenFile(path, os.O_WRONLY, 0)
		if err == nil {
			return f, nil
		}
		lastErr = err
		if !errors.Is(err, unix.ENOENT) && !errors.Is(err, unix.ENXIO) {
			return nil, fmt.Errorf("opening server pipe %s: %w", path, err)
		}
		time.Sleep(retryDelay)
	}
	return nil, fmt.Errorf("opening server pipe %s: %w", path, lastErr)
}

// Play sends one command key to the server. Commands issued faster than
// the pacman's tempo overwrite each other server-side.
func (s *Session) Play(command byte) error {
	if _, err := s.reqPipe.Write(protocol.EncodePlay(command)); err != nil {
		return fmt.Errorf("sending play: %w", err)
	}
	return nil
}

// Disconnect tells the server the game is over, closes both pipes and
// removes the client FIFOs.
func (s *Session) Disconnect() error {
	_, writeErr := s.reqPipe.Write(protocol.EncodeDisconnect())
	s.reqPipe.Close()
	s.notifPipe.Close()
	os.Remove(s.reqPath)
	os.Remove(s.notifPath)
	if writeErr != nil {
		return fmt.Errorf("sending disconnect: %w", writeErr)
	}
	return nil
}

// Close tears the session down without telling the server; the server
// notices through EOF on the request pipe.
func (s *Session) Close() {
	s.reqPipe.Close()
	s.notifPipe.Close()
	os.Remove(s.reqPath)
	os.Remove(s.notifPath)
}

// ReceiveBoard blocks for the next board frame.
func (s *Session) ReceiveBoard() (protocol.BoardFrame, error) {
	header := make([]byte, protocol.BoardHeaderSize)
	if _, err := io.ReadFull(s.notifPipe, header); err != nil {
		return protocol.BoardFrame{}, fmt.Errorf("reading board header: %w", err)
	}
	frame, err := protocol.DecodeBoardHeader(header)
	if err != nil {
		return protocol.BoardFrame{}, err
	}
	frame.Cells = make([]byte, int(frame.Width)*int(frame.Height))
	if _, err := io.ReadFull(s.notifPipe, frame.Cells); err != nil {
		return protocol.BoardFrame{}, fmt.Errorf("reading board cells: %w", err)
	}
	return frame, nil
}
