package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat-server/internal/metrics"
	"github.com/vovakirdan/roomchat-server/internal/proto"
)

const welcomeBanner = "WELCOME TO THE SERVER: " +
	"THIS IS A FAMILY FRIENDLY SPACE, NO CURSING\n" +
	"Please enter Your User Name"

// Dispatcher drives the per-session state machine. Handle is invoked only by
// the worker goroutine that owns the session; the registry it calls into is
// the shared piece.
type Dispatcher struct {
	reg *Registry
	log *zerolog.Logger
}

// NewDispatcher wires a dispatcher to the shared room registry.
func NewDispatcher(reg *Registry, logger *zerolog.Logger) *Dispatcher {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Dispatcher{reg: reg, log: logger}
}

// Welcome runs the Connecting transition: greet the client and start waiting
// for a username.
func (d *Dispatcher) Welcome(s *Session) {
	s.Enqueue(proto.Frame{Cmd: proto.CmdWelcome, Content: welcomeBanner})
	s.State = StateAwaitingUsername
}

// Handle routes one validated frame through the state machine. The returned
// bool is true when the session requested a clean exit and the connection
// should be closed.
func (d *Dispatcher) Handle(s *Session, f proto.Frame) bool {
	if f.Cmd == proto.CmdExit {
		d.log.Debug().Str("session", s.ID).Msg("client requested exit")
		return true
	}

	switch s.State {
	case StateAwaitingUsername:
		d.handleAwaitingUsername(s, f)
	case StateLobby:
		d.handleLobby(s, f)
	case StateInRoom:
		d.handleInRoom(s, f)
	default:
		d.reject(s, proto.ErrInvalidStateCmd, "Connection is not ready for commands")
	}
	return false
}

// Teardown releases room membership for a dying session. It is idempotent
// across racing teardown paths and reports whether this call won the race.
func (d *Dispatcher) Teardown(s *Session) bool {
	if !s.Release() {
		return false
	}
	if s.State == StateInRoom && s.RoomID != NoRoom {
		if err := d.reg.LeaveRoom(s.RoomID, s); err != nil {
			d.log.Warn().Err(err).Str("session", s.ID).Int("room", s.RoomID).
				Msg("failed to leave room during teardown")
		}
		s.RoomID = NoRoom
	}
	return true
}

func (d *Dispatcher) handleAwaitingUsername(s *Session, f proto.Frame) {
	if f.Cmd != proto.CmdUsernameSubmit {
		d.reject(s, proto.ErrInvalidStateCmd,
			"CMD not correct for client in awaiting username state")
		return
	}

	name := strings.TrimSpace(f.Content)
	if len(name) > proto.MaxUsernameLen {
		d.reject(s, proto.ErrUsernameLength, "User name too long, must be less than 32")
		return
	}

	s.Username = name
	s.State = StateLobby
	d.log.Info().Str("session", s.ID).Str("user", name).Msg("username accepted")
	s.Enqueue(d.roomListFrame())
}

func (d *Dispatcher) handleLobby(s *Session, f proto.Frame) {
	switch f.Cmd {
	case proto.CmdRoomCreate:
		name := strings.TrimSpace(f.Content)
		id, err := d.reg.CreateRoom(name, s)
		if err != nil {
			d.rejectErr(s, err)
			return
		}
		s.State = StateInRoom
		s.RoomID = id
		s.Enqueue(proto.Frame{
			Cmd:     proto.CmdRoomCreateOK,
			Content: "Room created successfully: " + name,
		})

	case proto.CmdRoomJoin:
		id, ok := parseRoomNumber(f.Content)
		if !ok {
			d.reject(s, proto.ErrRoomNotFound,
				"Invalid room number format. Must be a number between 0-99")
			return
		}
		if err := d.reg.JoinRoom(id, s); err != nil {
			d.rejectErr(s, err)
			return
		}
		s.State = StateInRoom
		s.RoomID = id
		s.Enqueue(proto.Frame{Cmd: proto.CmdRoomJoinOK, Content: "Successfully joined room"})

	case proto.CmdRoomList:
		s.Enqueue(d.roomListFrame())

	default:
		d.reject(s, proto.ErrInvalidStateCmd, "Invalid command for lobby state")
	}
}

func (d *Dispatcher) handleInRoom(s *Session, f proto.Frame) {
	switch f.Cmd {
	case proto.CmdRoomMessage:
		if err := d.reg.Broadcast(s.RoomID, s, f.Content); err != nil {
			d.rejectErr(s, err)
		}

	case proto.CmdRoomLeave:
		if err := d.reg.LeaveRoom(s.RoomID, s); err != nil {
			d.rejectErr(s, err)
			return
		}
		s.State = StateLobby
		s.RoomID = NoRoom
		s.Enqueue(proto.Frame{Cmd: proto.CmdRoomLeaveOK, Content: "You have left the room"})

	default:
		d.reject(s, proto.ErrInvalidStateCmd, "Invalid command for in chat room state")
	}
}

func (d *Dispatcher) roomListFrame() proto.Frame {
	var b strings.Builder
	b.WriteString("=== Available Chat Rooms ===\n\n")

	infos := d.reg.Snapshot()
	if len(infos) == 0 {
		b.WriteString("No chat rooms available!\n" +
			"Use the create room command to start your own chat room.")
	} else {
		for _, ri := range infos {
			fmt.Fprintf(&b, "Room %d: %s (%d/%d)\n",
				ri.ID, ri.Name, ri.Members, d.reg.RoomCapacity())
		}
	}
	return proto.Frame{Cmd: proto.CmdRoomListResponse, Content: b.String()}
}

func (d *Dispatcher) reject(s *Session, code byte, text string) {
	metrics.ErrorFramesTotal.WithLabelValues(proto.ErrorName(code)).Inc()
	s.EnqueueError(code, text)
}

func (d *Dispatcher) rejectErr(s *Session, err error) {
	var ce *CoreError
	if errors.As(err, &ce) {
		metrics.ErrorFramesTotal.WithLabelValues(proto.ErrorName(ce.Code)).Inc()
		s.Enqueue(ce.Frame())
		return
	}
	d.log.Error().Err(err).Str("session", s.ID).Msg("unexpected dispatch error")
}

// parseRoomNumber accepts one or two digit room ids, mirroring the id range
// of the registry arena.
func parseRoomNumber(content string) (int, bool) {
	t := strings.TrimSpace(content)
	if len(t) == 0 || len(t) > 2 {
		return 0, false
	}
	for i := 0; i < len(t); i++ {
		if t[i] < '0' || t[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(t)
	if err != nil {
		return 0, false
	}
	return n, true
}
