// Package proto implements the line protocol spoken between roomchat clients
// and the server. A frame is a single command byte, a space, opaque content,
// and a CRLF terminator. Content never embeds the terminator.
package proto

// Client-to-server command bytes.
const (
	CmdExit           byte = 0x01
	CmdUsernameSubmit byte = 0x02
	CmdRoomCreate     byte = 0x03
	CmdRoomList       byte = 0x04
	CmdRoomJoin       byte = 0x05
	CmdRoomLeave      byte = 0x06
	CmdRoomMessage    byte = 0x07
)

// Server-to-client command bytes.
const (
	CmdWelcome          byte = 0x16
	CmdRoomNotifyJoined byte = 0x17
	CmdRoomCreateOK     byte = 0x18
	CmdRoomListResponse byte = 0x1a
	CmdRoomJoinOK       byte = 0x1b
	CmdRoomMsg          byte = 0x1c
	CmdRoomLeaveOK      byte = 0x1d
)

// Error bytes, sent as server-to-client frames. ErrUsernameMissing,
// ErrUsernameInvalid and ErrRoomNameExists are part of the wire contract even
// though the server only emits ErrRoomNameExists of the three; empty and
// oversize usernames surface as ErrEmptyContent and ErrUsernameLength.
const (
	ErrUsernameMissing  byte = 0x20
	ErrUsernameInvalid  byte = 0x21
	ErrRoomNameExists   byte = 0x23
	ErrRoomNameInvalid  byte = 0x24
	ErrRoomCapacityFull byte = 0x25
	ErrRoomNotFound     byte = 0x26
	ErrServerRoomFull   byte = 0x27
	ErrInvalidStateCmd  byte = 0x28
	ErrInvalidFormat    byte = 0x29
	ErrEmptyContent     byte = 0x2a
	ErrServerFull       byte = 0x2b
	ErrConnecting       byte = 0x2c
	ErrUsernameLength   byte = 0x2d
)

// Size limits shared by both sides of the protocol.
const (
	MaxUsernameLen        = 32
	MaxRoomNameLen        = 24
	MaxContentLen         = 128
	MaxInboundMessageLen  = 132
	MaxOutboundContentLen = 2700
)

const terminator = "\r\n"

// CommandName returns a stable label for a command byte, used for logging and
// metrics. Unknown bytes map to "unknown".
func CommandName(cmd byte) string {
	switch cmd {
	case CmdExit:
		return "exit"
	case CmdUsernameSubmit:
		return "username_submit"
	case CmdRoomCreate:
		return "room_create"
	case CmdRoomList:
		return "room_list"
	case CmdRoomJoin:
		return "room_join"
	case CmdRoomLeave:
		return "room_leave"
	case CmdRoomMessage:
		return "room_message"
	case CmdWelcome:
		return "welcome"
	case CmdRoomNotifyJoined:
		return "room_notify_joined"
	case CmdRoomCreateOK:
		return "room_create_ok"
	case CmdRoomListResponse:
		return "room_list_response"
	case CmdRoomJoinOK:
		return "room_join_ok"
	case CmdRoomMsg:
		return "room_msg"
	case CmdRoomLeaveOK:
		return "room_leave_ok"
	default:
		return "unknown"
	}
}

// ErrorName returns a stable label for an error byte, used for metrics.
func ErrorName(code byte) string {
	switch code {
	case ErrUsernameMissing:
		return "username_missing"
	case ErrUsernameInvalid:
		return "username_invalid"
	case ErrRoomNameExists:
		return "room_name_exists"
	case ErrRoomNameInvalid:
		return "room_name_invalid"
	case ErrRoomCapacityFull:
		return "room_capacity_full"
	case ErrRoomNotFound:
		return "room_not_found"
	case ErrServerRoomFull:
		return "server_room_full"
	case ErrInvalidStateCmd:
		return "invalid_state_cmd"
	case ErrInvalidFormat:
		return "invalid_format"
	case ErrEmptyContent:
		return "empty_content"
	case ErrServerFull:
		return "server_full"
	case ErrConnecting:
		return "connecting"
	case ErrUsernameLength:
		return "username_length"
	default:
		return "unknown"
	}
}
