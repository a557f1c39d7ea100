package tcp

import (
	"net"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat-server/internal/metrics"
	"github.com/vovakirdan/roomchat-server/internal/proto"
)

const (
	serverFullText = "Sorry, the server is currently at full capacity. " +
		"Please try again later!"
	connectingErrText = "Sorry, there was an error connecting to the server. " +
		"Please try again!"
)

// admission is the single gate in front of the worker pool. The active
// counter is the only cross-worker state besides the room registry; it is
// bumped here on successful handoff and dropped exactly once per session at
// teardown (the worker calls release through the session's teardown latch).
type admission struct {
	max          int64
	active       atomic.Int64
	next         atomic.Int64
	workers      []*worker
	writeTimeout time.Duration
	log          *zerolog.Logger
}

// admit accepts or rejects the connection against the global cap, then hands
// it to a worker chosen round-robin among those with spare capacity.
func (a *admission) admit(conn net.Conn) {
	for {
		cur := a.active.Load()
		if cur >= a.max {
			metrics.AdmissionRejects.Inc()
			a.log.Warn().Str("remote", conn.RemoteAddr().String()).
				Int64("active", cur).Msg("admission rejected, server full")
			a.refuse(conn, proto.ErrServerFull, serverFullText)
			return
		}
		if a.active.CompareAndSwap(cur, cur+1) {
			break
		}
	}

	start := int(a.next.Add(1) - 1)
	for i := 0; i < len(a.workers); i++ {
		w := a.workers[(start+i)%len(a.workers)]
		if w.tryReserve() {
			w.attach(conn)
			return
		}
	}

	// Admitted under the global cap but every worker is saturated; roll the
	// counter back and refuse.
	a.active.Add(-1)
	metrics.AdmissionRejects.Inc()
	a.log.Error().Str("remote", conn.RemoteAddr().String()).
		Msg("no worker had capacity for admitted connection")
	a.refuse(conn, proto.ErrConnecting, connectingErrText)
}

// release returns one admission slot. Callers must hold the session teardown
// latch so a double teardown cannot release twice.
func (a *admission) release() {
	a.active.Add(-1)
}

func (a *admission) activeSessions() int64 {
	return a.active.Load()
}

// refuse flushes a single error frame and closes the socket.
func (a *admission) refuse(conn net.Conn, code byte, text string) {
	_ = conn.SetWriteDeadline(time.Now().Add(a.writeTimeout))
	if _, err := conn.Write(proto.ErrorFrame(code, text).Encode()); err != nil {
		a.log.Debug().Err(err).Msg("failed to send rejection frame")
	}
	if err := conn.Close(); err != nil {
		a.log.Debug().Err(err).Msg("failed to close rejected connection")
	}
}
