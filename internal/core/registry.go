package core

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat-server/internal/metrics"
	"github.com/vovakirdan/roomchat-server/internal/proto"
)

// RoomInfo is one row of a registry snapshot.
type RoomInfo struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Members int    `json:"members"`
}

// Registry is the process-wide room table shared by all workers. Rooms live
// in a fixed arena of maxRooms slots; ids are slot indexes, allocated
// lowest-free and recycled when a room dies. One mutex guards the whole
// table, held only for the duration of a mapping update and never across
// socket I/O.
type Registry struct {
	mu           sync.Mutex
	slots        []*Room
	roomCapacity int
	log          *zerolog.Logger
}

// NewRegistry builds an empty registry with the given bounds.
func NewRegistry(maxRooms, roomCapacity int, logger *zerolog.Logger) *Registry {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Registry{
		slots:        make([]*Room, maxRooms),
		roomCapacity: roomCapacity,
		log:          logger,
	}
}

// CreateRoom allocates the lowest free room id, names it, and inserts the
// creator as first member. Active room names are unique; a duplicate is
// rejected before a slot is consumed.
func (r *Registry) CreateRoom(name string, creator *Session) (int, error) {
	if len(name) < 1 || len(name) > proto.MaxRoomNameLen {
		return NoRoom, coreError(proto.ErrRoomNameInvalid,
			"Room creation failed: Room name length invalid", ErrRoomNameInvalid)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	free := NoRoom
	for i, room := range r.slots {
		if room == nil {
			if free == NoRoom {
				free = i
			}
			continue
		}
		if room.Name == name {
			return NoRoom, coreError(proto.ErrRoomNameExists,
				"Room creation failed: Room name already in use", ErrRoomNameExists)
		}
	}
	if free == NoRoom {
		return NoRoom, coreError(proto.ErrRoomCapacityFull,
			"Room creation failed: Maximum number of rooms reached", ErrRegistryFull)
	}

	room := newRoom(free, name, r.roomCapacity)
	room.add(creator)
	r.slots[free] = room
	metrics.ActiveRooms.Inc()

	r.log.Info().Int("room", free).Str("name", name).
		Str("creator", creator.Username).Msg("room created")
	return free, nil
}

// JoinRoom adds the session to the room, atomically with the capacity check,
// and announces the arrival to the existing members.
func (r *Registry) JoinRoom(id int, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.roomLocked(id)
	if room == nil {
		return coreError(proto.ErrRoomNotFound, "Room does not exist", ErrRoomNotFound)
	}
	if room.full() {
		return coreError(proto.ErrRoomCapacityFull, "Cannot join room: Room is full", ErrRoomFull)
	}

	room.broadcast(proto.Frame{
		Cmd:     proto.CmdRoomMsg,
		Content: s.Username + " has entered the room",
	}, s)
	room.add(s)

	r.log.Info().Int("room", id).Str("user", s.Username).
		Int("members", len(room.members)).Msg("user joined room")
	return nil
}

// LeaveRoom removes the session, tells the remaining members, and destroys
// the room when the last member is gone so the id can be reused.
func (r *Registry) LeaveRoom(id int, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.roomLocked(id)
	if room == nil {
		return coreError(proto.ErrRoomNotFound, "Room does not exist", ErrRoomNotFound)
	}
	if !room.remove(s) {
		return coreError(proto.ErrRoomNotFound, "Room does not exist", ErrSessionDetached)
	}

	room.broadcast(proto.Frame{
		Cmd:     proto.CmdRoomMsg,
		Content: s.Username + " left the room",
	}, s)

	if room.empty() {
		r.slots[id] = nil
		metrics.ActiveRooms.Dec()
		r.log.Info().Int("room", id).Str("name", room.Name).Msg("room empty, destroyed")
	}
	return nil
}

// Broadcast fans a chat message out to every member except the sender.
func (r *Registry) Broadcast(id int, from *Session, text string) error {
	if strings.TrimSpace(text) == "" {
		return coreError(proto.ErrEmptyContent, "Content is Empty", ErrEmptyContent)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room := r.roomLocked(id)
	if room == nil {
		return coreError(proto.ErrRoomNotFound, "Room does not exist", ErrRoomNotFound)
	}
	room.broadcast(proto.Frame{
		Cmd:     proto.CmdRoomMsg,
		Content: from.Username + ": " + text,
	}, from)
	return nil
}

// Snapshot returns the active rooms ordered by id. Two snapshots with no
// intervening mutation are identical.
func (r *Registry) Snapshot() []RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	infos := make([]RoomInfo, 0, len(r.slots))
	for _, room := range r.slots {
		if room == nil {
			continue
		}
		infos = append(infos, RoomInfo{ID: room.ID, Name: room.Name, Members: len(room.members)})
	}
	return infos
}

// Count reports the number of active rooms.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, room := range r.slots {
		if room != nil {
			n++
		}
	}
	return n
}

// RoomCapacity is the per-room member bound.
func (r *Registry) RoomCapacity() int {
	return r.roomCapacity
}

// MaxRooms is the registry-wide room bound.
func (r *Registry) MaxRooms() int {
	return len(r.slots)
}

func (r *Registry) roomLocked(id int) *Room {
	if id < 0 || id >= len(r.slots) {
		return nil
	}
	return r.slots[id]
}
