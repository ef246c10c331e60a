// File: protocol/protocol_test.go
package protocol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lguibr/pacgo/utils"
)

func TestConnectRequestRoundTrip(t *testing.T) {
	reqPath := "/tmp/42_request"
	notifPath := "/tmp/42_notif"

	msg, err := EncodeConnectRequest(reqPath, notifPath)
	require.NoError(t, err)
	assert.Len(t, msg, ConnectRequestSize, "connect request must be exactly 81 bytes")
	assert.Equal(t, OpConnect, msg[0])

	gotReq, gotNotif, err := DecodeConnectRequest(msg)
	require.NoError(t, err)
	assert.Equal(t, reqPath, gotReq)
	assert.Equal(t, notifPath, gotNotif)
}

func TestConnectRequestRejectsLongPaths(t *testing.T) {
	long := "/tmp/" + strings.Repeat("9", utils.MaxPipePathLength) + "_request"
	_, err := EncodeConnectRequest(long, "/tmp/1_notif")
	assert.ErrorIs(t, err, ErrLongPath)
}

func TestDecodeConnectRequestFraming(t *testing.T) {
	short := make([]byte, ConnectRequestSize-1)
	_, _, err := DecodeConnectRequest(short)
	assert.ErrorIs(t, err, ErrShortMessage, "wrong length must be discarded")

	bad := make([]byte, ConnectRequestSize)
	bad[0] = OpPlay
	_, _, err = DecodeConnectRequest(bad)
	assert.ErrorIs(t, err, ErrBadOpcode, "wrong opcode must be discarded")
}

func TestConnectResponse(t *testing.T) {
	msg := EncodeConnectResponse(StatusAccepted)
	assert.Equal(t, []byte{OpConnect, 0}, msg)
	assert.NoError(t, DecodeConnectResponse(msg))

	assert.Error(t, DecodeConnectResponse([]byte{OpConnect, 1}), "non-zero status is a refusal")
	assert.ErrorIs(t, DecodeConnectResponse([]byte{OpConnect}), ErrShortMessage)
	assert.ErrorIs(t, DecodeConnectResponse([]byte{OpBoard, 0}), ErrBadOpcode)
}

func TestPlayAndDisconnectLayout(t *testing.T) {
	assert.Equal(t, []byte{OpPlay, 'W'}, EncodePlay('W'))
	assert.Equal(t, []byte{OpDisconnect}, EncodeDisconnect())
}

func TestBoardFrameRoundTrip(t *testing.T) {
	frame := BoardFrame{
		Width:             5,
		Height:            2,
		Tempo:             200,
		Victory:           0,
		GameOver:          1,
		AccumulatedPoints: 30,
		Cells:             []byte("##C.@# M #"),
	}
	msg := EncodeBoard(frame)
	require.Len(t, msg, BoardHeaderSize+10)
	assert.Equal(t, OpBoard, msg[0])

	got, err := DecodeBoardHeader(msg[:BoardHeaderSize])
	require.NoError(t, err)
	assert.Equal(t, frame.Width, got.Width)
	assert.Equal(t, frame.Height, got.Height)
	assert.Equal(t, frame.Tempo, got.Tempo)
	assert.Equal(t, frame.Victory, got.Victory)
	assert.Equal(t, frame.GameOver, got.GameOver)
	assert.Equal(t, frame.AccumulatedPoints, got.AccumulatedPoints)
	assert.Equal(t, frame.Cells, msg[BoardHeaderSize:])
}

func TestBoardIntegersAreLittleEndian(t *testing.T) {
	msg := EncodeBoard(BoardFrame{Width: 1, Height: 1, Tempo: 0x01020304, Cells: []byte{' '}})
	// tempo is the third int32 after the opcode
	off := 1 + 2*4
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, msg[off:off+4])
}

func TestParseClientID(t *testing.T) {
	id, err := ParseClientID("/tmp/123_request")
	require.NoError(t, err)
	assert.Equal(t, 123, id)

	for _, path := range []string{
		"/tmp/abc_request",
		"/tmp/123_notif",
		"/var/123_request",
		"123_request",
		"",
		"/tmp/0_request",  // id 0 is the scoreboard's empty-slot marker
		"/tmp/-7_request", // negative ids never rank either
	} {
		_, err := ParseClientID(path)
		assert.Error(t, err, "path %q must not parse", path)
	}
}
