package core

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/vovakirdan/roomchat-server/internal/proto"
)

// State is a session's position in the connection lifecycle.
type State int

const (
	StateConnecting State = iota
	StateAwaitingUsername
	StateLobby
	StateInRoom
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAwaitingUsername:
		return "awaiting_username"
	case StateLobby:
		return "lobby"
	case StateInRoom:
		return "in_room"
	default:
		return "invalid"
	}
}

// NoRoom is the RoomID value of a session that is not in any room.
const NoRoom = -1

// Session is the server-side state for one connection. State, Username,
// RoomID and the strike counter are owned by the worker goroutine that runs
// the session and must not be touched elsewhere. Enqueue and Release are safe
// from any goroutine, which is what lets a room fan out across workers.
type Session struct {
	ID       string
	Username string
	State    State
	RoomID   int

	// strikes counts consecutive malformed frames; any accepted frame
	// resets it.
	strikes int

	out          chan proto.Frame
	flushPending atomic.Bool
	released     atomic.Bool
	notify       func(*Session)
}

// NewSession builds a session in the Connecting state. notify is invoked
// (possibly from another worker's goroutine) whenever frames become pending
// on an idle outbound queue; the owning worker drains in response.
func NewSession(queueSize int, notify func(*Session)) *Session {
	if queueSize <= 0 {
		queueSize = 64
	}
	if notify == nil {
		notify = func(*Session) {}
	}
	return &Session{
		ID:     uuid.NewString(),
		State:  StateConnecting,
		RoomID: NoRoom,
		out:    make(chan proto.Frame, queueSize),
		notify: notify,
	}
}

// Enqueue queues a frame for delivery on the session's socket. The write
// itself always happens on the owning worker's loop. Frames for a session
// that cannot keep up are dropped; a disconnecting member skipping broadcasts
// silently is expected behavior.
func (s *Session) Enqueue(f proto.Frame) bool {
	select {
	case s.out <- f:
	default:
		return false
	}
	if s.flushPending.CompareAndSwap(false, true) {
		s.notify(s)
	}
	return true
}

// EnqueueError is shorthand for queueing a single error frame.
func (s *Session) EnqueueError(code byte, text string) {
	s.Enqueue(proto.ErrorFrame(code, text))
}

// Drain empties the outbound queue. Only the owning worker calls this. The
// pending flag is untouched; it is cleared solely by AckFlush so that one
// notify per session is outstanding at a time.
func (s *Session) Drain() []proto.Frame {
	var frames []proto.Frame
	for {
		select {
		case f := <-s.out:
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

// AckFlush clears the pending-notify flag. The owning worker calls it when
// it consumes a flush notification, and nowhere else; pairing the clear with
// the consumption keeps at most one notification per session in flight.
func (s *Session) AckFlush() {
	s.flushPending.Store(false)
}

// Release latches the session as torn down. It returns true exactly once, so
// simultaneous teardown paths (read error racing an explicit exit) release
// room membership and the admission slot a single time.
func (s *Session) Release() bool {
	return s.released.CompareAndSwap(false, true)
}

// Released reports whether teardown has already begun.
func (s *Session) Released() bool {
	return s.released.Load()
}

// Strike records a malformed frame and reports the running count.
func (s *Session) Strike() int {
	s.strikes++
	return s.strikes
}

// ClearStrikes resets the violation count after a well-formed frame.
func (s *Session) ClearStrikes() {
	s.strikes = 0
}
