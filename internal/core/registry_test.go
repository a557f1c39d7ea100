package core

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/roomchat-server/internal/proto"
)

func testSession(name string) *Session {
	s := NewSession(256, nil)
	s.Username = name
	s.State = StateLobby
	return s
}

func TestRegistryCreateAllocatesLowestFreeID(t *testing.T) {
	reg := NewRegistry(3, 4, nil)

	a, err := reg.CreateRoom("first", testSession("a"))
	require.NoError(t, err)
	b, err := reg.CreateRoom("second", testSession("b"))
	require.NoError(t, err)
	assert.Equal(t, 0, a)
	assert.Equal(t, 1, b)

	// Freeing the lower slot recycles its id before the tail is used.
	first := testSession("a")
	reg2 := NewRegistry(3, 4, nil)
	id0, _ := reg2.CreateRoom("one", first)
	reg2.CreateRoom("two", testSession("b"))
	require.NoError(t, reg2.LeaveRoom(id0, first))

	id, err := reg2.CreateRoom("three", testSession("c"))
	require.NoError(t, err)
	assert.Equal(t, id0, id)
}

func TestRegistryCreateValidatesNameAndCapacity(t *testing.T) {
	reg := NewRegistry(2, 4, nil)

	_, err := reg.CreateRoom(strings.Repeat("x", proto.MaxRoomNameLen+1), testSession("a"))
	require.ErrorIs(t, err, ErrRoomNameInvalid)

	_, err = reg.CreateRoom("", testSession("a"))
	require.ErrorIs(t, err, ErrRoomNameInvalid)

	_, err = reg.CreateRoom("lounge", testSession("a"))
	require.NoError(t, err)
	_, err = reg.CreateRoom("lounge", testSession("b"))
	require.ErrorIs(t, err, ErrRoomNameExists)

	var ce *CoreError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, proto.ErrRoomNameExists, ce.Code)

	_, err = reg.CreateRoom("other", testSession("c"))
	require.NoError(t, err)
	_, err = reg.CreateRoom("overflow", testSession("d"))
	require.ErrorIs(t, err, ErrRegistryFull)
}

func TestRegistryJoinEnforcesCapacityAtomically(t *testing.T) {
	const capacity = 8
	reg := NewRegistry(1, capacity, nil)

	creator := testSession("creator")
	id, err := reg.CreateRoom("busy", creator)
	require.NoError(t, err)

	// Many more joiners than seats, racing.
	const joiners = 64
	var wg sync.WaitGroup
	errs := make([]error, joiners)
	for i := 0; i < joiners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = reg.JoinRoom(id, testSession(fmt.Sprintf("j%d", i)))
		}(i)
	}
	wg.Wait()

	admitted := 0
	for _, err := range errs {
		if err == nil {
			admitted++
			continue
		}
		require.ErrorIs(t, err, ErrRoomFull)
	}
	assert.Equal(t, capacity-1, admitted) // creator holds one seat

	snap := reg.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, capacity, snap[0].Members)
}

func TestRegistryJoinUnknownRoom(t *testing.T) {
	reg := NewRegistry(4, 4, nil)
	err := reg.JoinRoom(2, testSession("a"))
	require.ErrorIs(t, err, ErrRoomNotFound)
	err = reg.JoinRoom(99, testSession("a"))
	require.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRegistryLeaveDestroysEmptyRoom(t *testing.T) {
	reg := NewRegistry(4, 4, nil)

	creator := testSession("creator")
	joiner := testSession("joiner")
	id, err := reg.CreateRoom("fleeting", creator)
	require.NoError(t, err)
	require.NoError(t, reg.JoinRoom(id, joiner))

	require.NoError(t, reg.LeaveRoom(id, creator))
	assert.Equal(t, 1, reg.Count())

	require.NoError(t, reg.LeaveRoom(id, joiner))
	assert.Equal(t, 0, reg.Count())
	assert.Empty(t, reg.Snapshot())
}

func TestRegistryBroadcastExcludesSenderAndBlanks(t *testing.T) {
	reg := NewRegistry(4, 4, nil)

	sender := testSession("sender")
	receiver := testSession("receiver")
	id, err := reg.CreateRoom("talk", sender)
	require.NoError(t, err)
	require.NoError(t, reg.JoinRoom(id, receiver))
	sender.Drain() // discard the join announcement

	require.NoError(t, reg.Broadcast(id, sender, "hello"))

	got := receiver.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, proto.CmdRoomMsg, got[0].Cmd)
	assert.Equal(t, "sender: hello", got[0].Content)
	assert.Empty(t, sender.Drain())

	err = reg.Broadcast(id, sender, "   ")
	require.ErrorIs(t, err, ErrEmptyContent)
	assert.Empty(t, receiver.Drain())
}

func TestRegistrySnapshotIdempotent(t *testing.T) {
	reg := NewRegistry(4, 4, nil)
	reg.CreateRoom("alpha", testSession("a"))
	reg.CreateRoom("beta", testSession("b"))

	first := reg.Snapshot()
	second := reg.Snapshot()
	assert.Equal(t, first, second)
}

func TestReleasedMemberSkippedSilently(t *testing.T) {
	reg := NewRegistry(4, 4, nil)

	sender := testSession("sender")
	ghost := testSession("ghost")
	id, _ := reg.CreateRoom("talk", sender)
	require.NoError(t, reg.JoinRoom(id, ghost))
	ghost.Drain()

	require.True(t, ghost.Release())
	require.NoError(t, reg.Broadcast(id, sender, "anyone there?"))
	assert.Empty(t, ghost.Drain())
}
