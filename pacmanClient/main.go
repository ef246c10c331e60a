// Command pacmanClient is the interactive terminal client: it connects
// to a pacgo server over the rendezvous fifo, maps WASD/Q keys to play
// commands in raw mode, and redraws each board frame in place.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/lguibr/asciiring/helpers"
	"golang.org/x/sys/unix"

	"github.com/lguibr/pacgo/client"
)

func setRawMode(fd uintptr) (*unix.Termios, error) {
	settings, err := unix.IoctlGetTermios(int(fd), unix.TCGETS)
	if err != nil {
		return nil, err
	}
	saved := *settings
	settings.Lflag &^= unix.ECHO | unix.ICANON
	settings.Cc[unix.VMIN] = 1
	settings.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(int(fd), unix.TCSETS, settings); err != nil {
		return nil, err
	}
	return &saved, nil
}

func restoreMode(fd uintptr, saved *unix.Termios) {
	_ = unix.IoctlSetTermios(int(fd), unix.TCSETS, saved)
}

func drawFrame(v view) {
	helpers.ClearScreen()
	for _, row := range v.Rows() {
		fmt.Println(row)
	}
	fmt.Println(v.Status())
}

type view struct {
	width, height int
	cells         []byte
	points        int32
	victory       bool
	gameOver      bool
}

func (v view) Rows() []string {
	rows := make([]string, 0, v.height)
	for y := 0; y < v.height; y++ {
		rows = append(rows, string(v.cells[y*v.width:(y+1)*v.width]))
	}
	return rows
}

func (v view) Status() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "points: %d", v.points)
	if v.victory {
		sb.WriteString("  VICTORY")
	}
	if v.gameOver {
		sb.WriteString("  GAME OVER")
	}
	return sb.String()
}

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <server_fifo> <client_id>\n", os.Args[0])
		os.Exit(1)
	}
	serverPath := os.Args[1]
	id, err := strconv.Atoi(os.Args[2])
	if err != nil || id <= 0 {
		fmt.Fprintf(os.Stderr, "invalid client id %q\n", os.Args[2])
		os.Exit(1)
	}

	reqPath := fmt.Sprintf("/tmp/%d_request", id)
	notifPath := fmt.Sprintf("/tmp/%d_notif", id)

	session, err := client.Connect(reqPath, notifPath, serverPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect failed:", err)
		os.Exit(1)
	}

	saved, err := setRawMode(os.Stdin.Fd())
	if err != nil {
		fmt.Fprintln(os.Stderr, "cannot set raw mode:", err)
		session.Close()
		os.Exit(1)
	}
	defer restoreMode(os.Stdin.Fd(), saved)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			frame, err := session.ReceiveBoard()
			if err != nil {
				return
			}
			drawFrame(view{
				width:    int(frame.Width),
				height:   int(frame.Height),
				cells:    frame.Cells,
				points:   frame.AccumulatedPoints,
				victory:  frame.Victory != 0,
				gameOver: frame.GameOver != 0,
			})
			if frame.GameOver != 0 {
				return
			}
		}
	}()

	key := make([]byte, 1)
	for {
		select {
		case <-done:
			_ = session.Disconnect()
			return
		default:
		}
		if _, err := os.Stdin.Read(key); err != nil {
			break
		}
		switch key[0] {
		case 'q', 'Q':
			_ = session.Play('Q')
			<-done
			_ = session.Disconnect()
			return
		case 'w', 'a', 's', 'd', 'W', 'A', 'S', 'D':
			if err := session.Play(key[0]); err != nil {
				_ = session.Disconnect()
				return
			}
		}
	}
	_ = session.Disconnect()
}
