// File: test/helpers_test.go
package test

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/lguibr/pacgo/client"
	"github.com/lguibr/pacgo/protocol"
	"github.com/lguibr/pacgo/scoreboard"
	"github.com/lguibr/pacgo/server"
	"github.com/lguibr/pacgo/utils"
)

const oneDotLevel = "tempo 10\n" +
	"WWWWW\n" +
	"W.C@W\n" +
	"WWWWW\n"

// clientSeq disambiguates client ids across tests in one process.
var clientSeq atomic.Int32

// testHarness is one running server plus the paths the tests need.
type testHarness struct {
	fifoPath   string
	scoresPath string
	srv        *server.Server
}

// startServer writes the given levels, builds a server and launches Run
// in the background. The registrar goroutine is leaked per test; each
// harness uses its own fifo so tests never cross wires.
func startServer(t *testing.T, maxGames int, levels map[string]string) *testHarness {
	t.Helper()

	levelsDir := t.TempDir()
	for name, content := range levels {
		require.NoError(t, os.WriteFile(filepath.Join(levelsDir, name), []byte(content), 0o644))
	}

	h := &testHarness{
		fifoPath:   filepath.Join(t.TempDir(), "registo"),
		scoresPath: filepath.Join(t.TempDir(), "scores.log"),
	}

	scores := scoreboard.New(h.scoresPath)
	srv, err := server.New(server.Options{
		LevelsDir: levelsDir,
		MaxGames:  maxGames,
		FifoPath:  h.fifoPath,
	}, scores, zerolog.Nop())
	require.NoError(t, err)
	h.srv = srv

	go func() {
		if err := srv.Run(); err != nil {
			t.Errorf("server run: %v", err)
		}
	}()
	return h
}

// newClientPaths returns a fresh /tmp pipe pair in the naming scheme the
// server derives the client id from.
func newClientPaths(t *testing.T) (id int, reqPath, notifPath string) {
	t.Helper()
	id = os.Getpid()*100 + int(clientSeq.Add(1))
	reqPath = fmt.Sprintf("/tmp/%d_request", id)
	notifPath = fmt.Sprintf("/tmp/%d_notif", id)
	require.LessOrEqual(t, len(reqPath), utils.MaxPipePathLength)
	return id, reqPath, notifPath
}

// connect performs the full handshake against the harness server.
func (h *testHarness) connect(t *testing.T) *client.Session {
	t.Helper()
	_, reqPath, notifPath := newClientPaths(t)
	sess, err := client.Connect(reqPath, notifPath, h.fifoPath)
	require.NoError(t, err)
	return sess
}

// readUntil consumes board frames until pred matches.
func readUntil(t *testing.T, sess *client.Session, pred func(protocol.BoardFrame) bool) protocol.BoardFrame {
	t.Helper()
	for i := 0; i < 1000; i++ {
		frame, err := sess.ReceiveBoard()
		require.NoError(t, err)
		if pred(frame) {
			return frame
		}
	}
	t.Fatal("predicate never matched")
	return protocol.BoardFrame{}
}
