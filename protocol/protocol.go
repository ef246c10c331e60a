// Package protocol implements the wire codec shared by the pacgo server
// and its clients. Three message kinds traverse the pipes: the connect
// handshake on the rendezvous fifo, play/disconnect commands on the
// request pipe, and rendered board frames on the notification pipe.
// All multi-byte integers are little-endian int32.
package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/lguibr/pacgo/utils"
)

// Opcodes. One byte on the wire.
const (
	OpConnect    byte = 1
	OpDisconnect byte = 2
	OpPlay       byte = 3
	OpBoard      byte = 4
)

const (
	// ConnectRequestSize is the exact size of a connect request:
	// opcode + two NUL-padded pipe paths.
	ConnectRequestSize = 1 + 2*utils.MaxPipePathLength

	// ConnectResponseSize is opcode + status.
	ConnectResponseSize = 2

	// BoardHeaderSize is opcode + six int32 fields.
	BoardHeaderSize = 1 + 6*4

	// StatusAccepted is the only status the server ever sends.
	StatusAccepted byte = 0
)

var (
	ErrShortMessage = errors.New("protocol: short message")
	ErrBadOpcode    = errors.New("protocol: unexpected opcode")
	ErrLongPath     = errors.New("protocol: pipe path exceeds wire width")
)

// BoardFrame is the decoded form of an OpBoard message. Cells holds the
// rendered display bytes in row-major order, len == Width*Height.
type BoardFrame struct {
	Width             int32
	Height            int32
	Tempo             int32
	Victory           int32
	GameOver          int32
	AccumulatedPoints int32
	Cells             []byte
}

// EncodeConnectRequest builds the fixed 81-byte connect request. Paths
// longer than the wire width are refused rather than truncated.
func EncodeConnectRequest(reqPath, notifPath string) ([]byte, error) {
	if len(reqPath) > utils.MaxPipePathLength || len(notifPath) > utils.MaxPipePathLength {
		return nil, ErrLongPath
	}
	msg := make([]byte, ConnectRequestSize)
	msg[0] = OpConnect
	copy(msg[1:1+utils.MaxPipePathLength], reqPath)
	copy(msg[1+utils.MaxPipePathLength:], notifPath)
	return msg, nil
}

// DecodeConnectRequest parses a connect request read off the rendezvous
// fifo. The caller guarantees it read exactly ConnectRequestSize bytes;
// anything else was already discarded as malformed framing.
func DecodeConnectRequest(msg []byte) (reqPath, notifPath string, err error) {
	if len(msg) != ConnectRequestSize {
		return "", "", ErrShortMessage
	}
	if msg[0] != OpConnect {
		return "", "", ErrBadOpcode
	}
	reqPath = trimPath(msg[1 : 1+utils.MaxPipePathLength])
	notifPath = trimPath(msg[1+utils.MaxPipePathLength:])
	return reqPath, notifPath, nil
}

func trimPath(field []byte) string {
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}
	return string(field)
}

// EncodeConnectResponse builds the 2-byte accept sent on the notif pipe.
func EncodeConnectResponse(status byte) []byte {
	return []byte{OpConnect, status}
}

// DecodeConnectResponse validates the server's handshake reply.
func DecodeConnectResponse(msg []byte) error {
	if len(msg) != ConnectResponseSize {
		return ErrShortMessage
	}
	if msg[0] != OpConnect {
		return ErrBadOpcode
	}
	if msg[1] != StatusAccepted {
		return fmt.Errorf("protocol: connect refused with status %d", msg[1])
	}
	return nil
}

// EncodePlay builds a 2-byte play message carrying one ASCII command.
func EncodePlay(command byte) []byte {
	return []byte{OpPlay, command}
}

// EncodeDisconnect builds the 1-byte disconnect message.
func EncodeDisconnect() []byte {
	return []byte{OpDisconnect}
}

// EncodeBoard serializes one board frame into a single buffer so the
// session can push it to the notif pipe in one write.
func EncodeBoard(frame BoardFrame) []byte {
	msg := make([]byte, BoardHeaderSize+len(frame.Cells))
	msg[0] = OpBoard
	off := 1
	for _, v := range []int32{
		frame.Width, frame.Height, frame.Tempo,
		frame.Victory, frame.GameOver, frame.AccumulatedPoints,
	} {
		binary.LittleEndian.PutUint32(msg[off:], uint32(v))
		off += 4
	}
	copy(msg[off:], frame.Cells)
	return msg
}

// DecodeBoardHeader parses the fixed frame header. The caller then reads
// Width*Height cell bytes from the pipe.
func DecodeBoardHeader(header []byte) (BoardFrame, error) {
	var frame BoardFrame
	if len(header) != BoardHeaderSize {
		return frame, ErrShortMessage
	}
	if header[0] != OpBoard {
		return frame, ErrBadOpcode
	}
	fields := []*int32{
		&frame.Width, &frame.Height, &frame.Tempo,
		&frame.Victory, &frame.GameOver, &frame.AccumulatedPoints,
	}
	off := 1
	for _, f := range fields {
		*f = int32(binary.LittleEndian.Uint32(header[off:]))
		off += 4
	}
	return frame, nil
}

// ParseClientID extracts the numeric session id from a request-pipe path
// of the form /tmp/<id>_request. Ids must be positive: zero marks an
// empty scoreboard slot and can never be ranked.
func ParseClientID(reqPath string) (int, error) {
	var id int
	var tail string
	n, err := fmt.Sscanf(reqPath, "/tmp/%d%s", &id, &tail)
	if err != nil || n != 2 || tail != "_request" || id <= 0 {
		return 0, fmt.Errorf("protocol: request pipe path %q does not match /tmp/<id>_request with a positive id", reqPath)
	}
	return id, nil
}
