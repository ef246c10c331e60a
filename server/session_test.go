// File: server/session_test.go
package server

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/lguibr/pacgo/protocol"
	"github.com/lguibr/pacgo/scoreboard"
)

const (
	levelOneDot = "tempo 10\n" +
		"WWWWW\n" +
		"W.C@W\n" +
		"WWWWW\n"
	levelWide = "tempo 10\n" +
		"WWWWWW\n" +
		"WC.. W\n" +
		"WWWWWW\n"
)

// newSessionServer builds a server whose worker internals are driven
// directly by the tests; Run is never called.
func newSessionServer(t *testing.T, levels map[string]string) *Server {
	t.Helper()
	dir := t.TempDir()
	for name, content := range levels {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	scores := scoreboard.New(filepath.Join(t.TempDir(), "scores.log"))
	s, err := New(Options{
		LevelsDir: dir,
		MaxGames:  1,
		FifoPath:  filepath.Join(t.TempDir(), "registo"),
	}, scores, zerolog.Nop())
	require.NoError(t, err)
	return s
}

// fakeClient holds the client-side ends of one session's pipe pair.
type fakeClient struct {
	req   *os.File // write end of the request pipe
	notif *os.File // read end of the notification pipe
}

func (c *fakeClient) close() {
	if c.req != nil {
		c.req.Close()
	}
	if c.notif != nil {
		c.notif.Close()
	}
}

func (c *fakeClient) readFrame(t *testing.T) protocol.BoardFrame {
	t.Helper()
	header := make([]byte, protocol.BoardHeaderSize)
	_, err := io.ReadFull(c.notif, header)
	require.NoError(t, err, "reading board header")
	frame, err := protocol.DecodeBoardHeader(header)
	require.NoError(t, err)
	frame.Cells = make([]byte, int(frame.Width)*int(frame.Height))
	_, err = io.ReadFull(c.notif, frame.Cells)
	require.NoError(t, err, "reading board cells")
	return frame
}

// readUntil keeps consuming frames until pred matches, checking that
// accumulated points never decrease along the way.
func (c *fakeClient) readUntil(t *testing.T, pred func(protocol.BoardFrame) bool) protocol.BoardFrame {
	t.Helper()
	lastPoints := int32(-1)
	for i := 0; i < 1000; i++ {
		frame := c.readFrame(t)
		if frame.AccumulatedPoints < lastPoints {
			t.Fatalf("points regressed from %d to %d", lastPoints, frame.AccumulatedPoints)
		}
		lastPoints = frame.AccumulatedPoints
		if pred(frame) {
			return frame
		}
	}
	t.Fatal("predicate never matched")
	return protocol.BoardFrame{}
}

// openSessionPipes creates the session's fifo pair and opens both ends
// in the rendezvous order: client reads notif first, server opens notif
// for write, then the request pipe non-blocking for read.
func openSessionPipes(t *testing.T) (*SessionCtx, *fakeClient) {
	t.Helper()
	dir := t.TempDir()
	reqPath := filepath.Join(dir, "request")
	notifPath := filepath.Join(dir, "notif")
	require.NoError(t, unix.Mkfifo(reqPath, 0o666))
	require.NoError(t, unix.Mkfifo(notifPath, 0o666))

	clientCh := make(chan *fakeClient, 1)
	go func() {
		notif, err := os.OpenFile(notifPath, os.O_RDONLY, 0)
		if err != nil {
			clientCh <- &fakeClient{}
			return
		}
		req, err := os.OpenFile(reqPath, os.O_WRONLY, 0)
		if err != nil {
			notif.Close()
			clientCh <- &fakeClient{}
			return
		}
		clientCh <- &fakeClient{req: req, notif: notif}
	}()

	notifFD, err := unix.Open(notifPath, unix.O_WRONLY, 0)
	require.NoError(t, err)
	reqFD, err := unix.Open(reqPath, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	require.NoError(t, err)

	client := <-clientCh
	require.NotNil(t, client.req, "client side failed to open pipes")

	ctx := &SessionCtx{
		ID:        7,
		ReqFD:     reqFD,
		NotifFD:   notifFD,
		ReqPath:   reqPath,
		NotifPath: notifPath,
	}
	return ctx, client
}

// startSession launches runSession the way a worker would and reports
// completion on the returned channel.
func startSession(t *testing.T, s *Server, ctx *SessionCtx) chan struct{} {
	t.Helper()
	ctx.LevelsDir = s.opts.LevelsDir
	s.scores.Add(ctx.ID)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.runSession(ctx)
	}()
	return done
}

func waitDone(t *testing.T, done chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("session did not terminate")
	}
}

func TestSessionManualPlayToVictory(t *testing.T) {
	s := newSessionServer(t, map[string]string{"01.lvl": levelOneDot})
	ctx, client := openSessionPipes(t)
	defer client.close()

	done := startSession(t, s, ctx)

	first := client.readFrame(t)
	assert.Equal(t, int32(5), first.Width)
	assert.Equal(t, int32(3), first.Height)
	assert.Equal(t, int32(10), first.Tempo)
	assert.Equal(t, int32(0), first.GameOver)

	// Lower-case input: the dispatch loop upper-cases commands.
	_, err := client.req.Write(protocol.EncodePlay('a'))
	require.NoError(t, err)

	final := client.readUntil(t, func(f protocol.BoardFrame) bool {
		return f.GameOver == 1
	})
	assert.Equal(t, int32(1), final.Victory, "eating the last dot wins the level")
	assert.Equal(t, int32(10), final.AccumulatedPoints)

	waitDone(t, done)
}

func TestSessionQuitCommand(t *testing.T) {
	s := newSessionServer(t, map[string]string{"01.lvl": levelOneDot})
	ctx, client := openSessionPipes(t)
	defer client.close()

	done := startSession(t, s, ctx)

	client.readFrame(t)
	_, err := client.req.Write(protocol.EncodePlay('Q'))
	require.NoError(t, err)

	final := client.readUntil(t, func(f protocol.BoardFrame) bool {
		return f.GameOver == 1
	})
	assert.Equal(t, int32(0), final.Victory)

	waitDone(t, done)
}

func TestSessionDisconnectOpcode(t *testing.T) {
	s := newSessionServer(t, map[string]string{"01.lvl": levelOneDot})
	ctx, client := openSessionPipes(t)
	defer client.close()

	done := startSession(t, s, ctx)

	client.readFrame(t)
	_, err := client.req.Write(protocol.EncodeDisconnect())
	require.NoError(t, err)

	final := client.readUntil(t, func(f protocol.BoardFrame) bool {
		return f.GameOver == 1
	})
	assert.Equal(t, int32(0), final.Victory)

	waitDone(t, done)
}

func TestSessionClientEOF(t *testing.T) {
	s := newSessionServer(t, map[string]string{"01.lvl": levelOneDot})
	ctx, client := openSessionPipes(t)
	defer client.close()

	done := startSession(t, s, ctx)

	client.readFrame(t)
	// Closing the request pipe without a disconnect message: the server
	// observes EOF on the next tick and shuts the session down.
	require.NoError(t, client.req.Close())
	client.req = nil

	final := client.readUntil(t, func(f protocol.BoardFrame) bool {
		return f.GameOver == 1
	})
	assert.Equal(t, int32(0), final.Victory)

	waitDone(t, done)
}

func TestSessionCarriesPointsAcrossLevels(t *testing.T) {
	s := newSessionServer(t, map[string]string{
		"01.lvl": levelOneDot,
		"02.lvl": levelWide,
	})
	ctx, client := openSessionPipes(t)
	defer client.close()

	done := startSession(t, s, ctx)

	client.readFrame(t)
	_, err := client.req.Write(protocol.EncodePlay('A'))
	require.NoError(t, err)

	// Level transition: victory with more levels left is announced with
	// game_over still zero.
	transition := client.readUntil(t, func(f protocol.BoardFrame) bool {
		return f.Victory == 1
	})
	assert.Equal(t, int32(0), transition.GameOver)

	// The first board of level two reports the carried score.
	levelTwo := client.readUntil(t, func(f protocol.BoardFrame) bool {
		return f.Width == 6
	})
	assert.Equal(t, int32(10), levelTwo.AccumulatedPoints, "points carry over between levels")
	assert.Equal(t, int32(0), levelTwo.GameOver)
	assert.Equal(t, int32(0), levelTwo.Victory)

	_, err = client.req.Write(protocol.EncodePlay('Q'))
	require.NoError(t, err)
	final := client.readUntil(t, func(f protocol.BoardFrame) bool {
		return f.GameOver == 1
	})
	assert.Equal(t, int32(10), final.AccumulatedPoints)

	waitDone(t, done)
}

func TestSessionLevelLoadFailureEndsSession(t *testing.T) {
	s := newSessionServer(t, map[string]string{"01.lvl": "tempo broken\n"})
	ctx, client := openSessionPipes(t)
	defer client.close()

	done := startSession(t, s, ctx)
	waitDone(t, done)

	// The notif pipe closes without a single frame.
	buf := make([]byte, 1)
	_, err := client.notif.Read(buf)
	assert.ErrorIs(t, err, io.EOF)
}
