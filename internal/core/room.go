package core

import "github.com/vovakirdan/roomchat-server/internal/proto"

// Room is a named channel with bounded membership. Members are kept in join
// order. All mutation happens under the registry lock; Room has no lock of
// its own.
type Room struct {
	ID       int
	Name     string
	members  []*Session
	capacity int
}

func newRoom(id int, name string, capacity int) *Room {
	return &Room{
		ID:       id,
		Name:     name,
		members:  make([]*Session, 0, capacity),
		capacity: capacity,
	}
}

func (r *Room) full() bool {
	return len(r.members) >= r.capacity
}

func (r *Room) add(s *Session) {
	r.members = append(r.members, s)
}

func (r *Room) remove(s *Session) bool {
	for i, m := range r.members {
		if m == s {
			r.members = append(r.members[:i], r.members[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Room) empty() bool {
	return len(r.members) == 0
}

// broadcast queues a frame on every member except the excluded session.
// Enqueue never blocks, so holding the registry lock here never waits on
// socket I/O; members mid-teardown simply drop the frame.
func (r *Room) broadcast(f proto.Frame, except *Session) {
	for _, m := range r.members {
		if m == except || m.Released() {
			continue
		}
		m.Enqueue(f)
	}
}
