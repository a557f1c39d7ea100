package proto

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoderReassemblesPartialFrame(t *testing.T) {
	d := NewDecoder()

	lines, err := d.Feed([]byte{CmdUsernameSubmit, ' ', 'a', 'l'})
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.Equal(t, 4, d.Pending())

	lines, err = d.Feed([]byte("ice\r\n"))
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, append([]byte{CmdUsernameSubmit, ' '}, "alice"...), lines[0])
	assert.Zero(t, d.Pending())
}

func TestDecoderEmitsMultipleFramesInOrder(t *testing.T) {
	d := NewDecoder()

	var chunk bytes.Buffer
	chunk.Write(Frame{Cmd: CmdRoomList, Content: "list"}.Encode())
	chunk.Write(Frame{Cmd: CmdRoomJoin, Content: "3"}.Encode())
	chunk.WriteByte(CmdRoomMessage) // trailing partial frame

	lines, err := d.Feed(chunk.Bytes())
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, CmdRoomList, lines[0][0])
	assert.Equal(t, CmdRoomJoin, lines[1][0])
	assert.Equal(t, 1, d.Pending())
}

func TestDecoderContentIsOpaque(t *testing.T) {
	// A lone \n inside content must not terminate the frame.
	d := NewDecoder()
	lines, err := d.Feed([]byte{CmdRoomMessage, ' ', 'a', '\n', 'b', '\r', '\n'})
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "a\nb", string(lines[0][2:]))
}

func TestDecoderDropsOversizedRun(t *testing.T) {
	d := NewDecoder()
	junk := bytes.Repeat([]byte{'x'}, maxBuffered+1)

	lines, err := d.Feed(junk)
	assert.Empty(t, lines)
	require.ErrorIs(t, err, ErrFrameTooLong)
	assert.Zero(t, d.Pending())

	// Decoder keeps working after the violation.
	lines, err = d.Feed(Frame{Cmd: CmdRoomList, Content: "list"}.Encode())
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestParseFrame(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantCmd  byte
		wantCode byte
		wantText string
	}{
		{name: "valid", line: string(CmdUsernameSubmit) + " alice", wantCmd: CmdUsernameSubmit},
		{name: "too short", line: string(CmdExit) + " ", wantCode: ErrInvalidFormat, wantText: "Message too short"},
		{name: "missing space", line: string(CmdUsernameSubmit) + "alice", wantCode: ErrInvalidFormat, wantText: "Missing space"},
		{name: "unknown command", line: "\x0f alice", wantCode: ErrInvalidFormat, wantText: "Command not found"},
		{name: "content too long", line: string(CmdRoomMessage) + " " + strings.Repeat("a", MaxContentLen+1), wantCode: ErrInvalidFormat, wantText: "too long"},
		{name: "blank content", line: string(CmdRoomMessage) + "    ", wantCode: ErrEmptyContent, wantText: "Content is Empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, werr := ParseFrame([]byte(tt.line))
			if tt.wantCode == 0 {
				require.Nil(t, werr)
				assert.Equal(t, tt.wantCmd, frame.Cmd)
				return
			}
			require.NotNil(t, werr)
			assert.Equal(t, tt.wantCode, werr.Code)
			assert.Contains(t, werr.Text, tt.wantText)
		})
	}
}

func TestEncodeAppendsTerminatorAndTruncates(t *testing.T) {
	wire := Frame{Cmd: CmdRoomMsg, Content: "alice: hi"}.Encode()
	assert.True(t, bytes.HasSuffix(wire, []byte("\r\n")))
	assert.Equal(t, CmdRoomMsg, wire[0])
	assert.Equal(t, byte(' '), wire[1])

	huge := Frame{Cmd: CmdRoomListResponse, Content: strings.Repeat("r", MaxOutboundContentLen+100)}
	assert.Len(t, huge.Encode(), MaxOutboundContentLen+4)
}
