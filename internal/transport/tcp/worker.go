package tcp

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat-server/internal/core"
	"github.com/vovakirdan/roomchat-server/internal/metrics"
	"github.com/vovakirdan/roomchat-server/internal/proto"
)

// maxFormatStrikes is how many consecutive malformed frames a session may
// send before the connection is force-closed.
const maxFormatStrikes = 16

const readBufSize = 4096

type eventKind int

const (
	evAttach eventKind = iota
	evLine
	evOversize
	evClosed
)

type event struct {
	kind eventKind
	conn net.Conn
	sess *core.Session
	line []byte
	err  error
}

// worker runs a single-goroutine event loop owning a bounded set of
// sessions. Session state is mutated only on this loop, and every socket
// write for an owned session happens here, including frames enqueued by
// other workers' room broadcasts - those arrive through the session's
// outbound queue and the flush channel.
type worker struct {
	id           int
	capacity     int
	queueSize    int
	writeTimeout time.Duration

	load     atomic.Int64
	events   chan event
	flush    chan *core.Session
	sessions map[*core.Session]net.Conn
	done     chan struct{}

	dispatcher *core.Dispatcher
	release    func()
	log        zerolog.Logger
}

func newWorker(id, capacity, queueSize int, writeTimeout time.Duration,
	d *core.Dispatcher, release func(), logger *zerolog.Logger) *worker {
	return &worker{
		id:           id,
		capacity:     capacity,
		queueSize:    queueSize,
		writeTimeout: writeTimeout,
		events:       make(chan event, 256),
		// One flush token per session at most (the pending flag dedups),
		// so this never fills.
		flush:      make(chan *core.Session, capacity+16),
		sessions:   make(map[*core.Session]net.Conn),
		done:       make(chan struct{}),
		dispatcher: d,
		release:    release,
		log:        logger.With().Int("worker", id).Logger(),
	}
}

// tryReserve claims one session slot ahead of the handoff.
func (w *worker) tryReserve() bool {
	if w.load.Add(1) > int64(w.capacity) {
		w.load.Add(-1)
		return false
	}
	return true
}

// attach hands an admitted connection to the worker loop. Called from the
// accept goroutine after a successful reserve. A worker that has already
// shut down returns the reservation and the admission slot.
func (w *worker) attach(conn net.Conn) {
	select {
	case <-w.done:
		w.discard(conn)
		return
	default:
	}
	select {
	case w.events <- event{kind: evAttach, conn: conn}:
	case <-w.done:
		w.discard(conn)
	}
}

// discard returns an admitted connection's slots without it ever reaching
// the loop.
func (w *worker) discard(conn net.Conn) {
	w.load.Add(-1)
	w.release()
	_ = conn.Close()
}

func (w *worker) run(ctx context.Context) {
	for {
		select {
		case ev := <-w.events:
			w.handleEvent(ev)
		case s := <-w.flush:
			s.AckFlush()
			w.flushSession(s)
		case <-ctx.Done():
			w.closeAll()
			close(w.done)
			w.discardQueued()
			return
		}
	}
}

// discardQueued empties the event channel after shutdown. Attach events
// still queued carry connections that were admitted but never reached the
// loop; their slots are returned here.
func (w *worker) discardQueued() {
	for {
		select {
		case ev := <-w.events:
			if ev.kind == evAttach {
				w.discard(ev.conn)
			}
		default:
			return
		}
	}
}

func (w *worker) handleEvent(ev event) {
	switch ev.kind {
	case evAttach:
		w.handleAttach(ev.conn)
	case evLine:
		w.handleLine(ev.sess, ev.line)
	case evOversize:
		if _, ok := w.sessions[ev.sess]; ok {
			w.violation(ev.sess, proto.OversizeError())
		}
	case evClosed:
		w.log.Debug().Err(ev.err).Msg("connection closed by peer")
		w.teardown(ev.sess)
	}
}

func (w *worker) handleAttach(conn net.Conn) {
	s := core.NewSession(w.queueSize, w.nudge)
	w.sessions[s] = conn
	metrics.ActiveSessions.Inc()

	w.log.Info().Str("session", s.ID).
		Str("remote", conn.RemoteAddr().String()).
		Int64("load", w.load.Load()).Msg("session attached")

	w.dispatcher.Welcome(s)
	w.flushSession(s)
	go w.readLoop(s, conn)
}

func (w *worker) handleLine(s *core.Session, line []byte) {
	if _, ok := w.sessions[s]; !ok {
		// Torn down while the line was in flight.
		return
	}

	frame, werr := proto.ParseFrame(line)
	if werr != nil {
		w.violation(s, werr)
		return
	}
	s.ClearStrikes()

	name := proto.CommandName(frame.Cmd)
	metrics.FramesTotal.WithLabelValues(name).Inc()

	start := time.Now()
	exit := w.dispatcher.Handle(s, frame)
	metrics.DispatchDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	w.flushSession(s)
	if exit {
		w.teardown(s)
	}
}

// violation reports a malformed frame to the sender. The connection survives
// by default; repeated format violations escalate to a forced disconnect.
func (w *worker) violation(s *core.Session, werr *proto.WireError) {
	metrics.ErrorFramesTotal.WithLabelValues(proto.ErrorName(werr.Code)).Inc()
	s.Enqueue(werr.Frame())
	w.flushSession(s)

	if werr.Code != proto.ErrInvalidFormat {
		return
	}
	if strikes := s.Strike(); strikes >= maxFormatStrikes {
		w.log.Warn().Str("session", s.ID).Int("strikes", strikes).
			Msg("repeated protocol violations, disconnecting")
		w.teardown(s)
	}
}

// nudge marks a session as having pending outbound frames. Safe from any
// goroutine. The pending flag is cleared only when the loop consumes a
// token, so at most one token per session is ever in the channel and the
// buffered send cannot fill it.
func (w *worker) nudge(s *core.Session) {
	select {
	case w.flush <- s:
	default:
	}
}

func (w *worker) flushSession(s *core.Session) {
	conn, ok := w.sessions[s]
	if !ok {
		return
	}
	frames := s.Drain()
	if len(frames) == 0 {
		return
	}
	if err := w.writeFrames(conn, frames); err != nil {
		w.log.Debug().Err(err).Str("session", s.ID).Msg("write failed")
		w.teardown(s)
	}
}

func (w *worker) writeFrames(conn net.Conn, frames []proto.Frame) error {
	if err := conn.SetWriteDeadline(time.Now().Add(w.writeTimeout)); err != nil {
		return err
	}
	for _, f := range frames {
		if _, err := conn.Write(f.Encode()); err != nil {
			return err
		}
	}
	return conn.SetWriteDeadline(time.Time{})
}

// teardown closes out a session: final best-effort flush, room membership
// and admission release (exactly once via the session latch), socket close.
func (w *worker) teardown(s *core.Session) {
	conn, ok := w.sessions[s]
	if !ok {
		return
	}
	delete(w.sessions, s)

	if frames := s.Drain(); len(frames) > 0 {
		_ = w.writeFrames(conn, frames)
	}
	if w.dispatcher.Teardown(s) {
		w.release()
		metrics.ActiveSessions.Dec()
	}
	w.load.Add(-1)
	_ = conn.Close()

	w.log.Info().Str("session", s.ID).Str("user", s.Username).
		Int64("load", w.load.Load()).Msg("session torn down")
}

func (w *worker) closeAll() {
	for s := range w.sessions {
		w.teardown(s)
	}
}

// readLoop pulls bytes off the socket and feeds the frame decoder, posting
// complete lines to the worker loop in arrival order. It is the only
// goroutine reading this connection; it exits when the peer closes or the
// worker shuts down.
func (w *worker) readLoop(s *core.Session, conn net.Conn) {
	dec := proto.NewDecoder()
	buf := make([]byte, readBufSize)

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			lines, derr := dec.Feed(buf[:n])
			for _, line := range lines {
				if !w.post(event{kind: evLine, sess: s, line: line}) {
					return
				}
			}
			if derr != nil {
				if !w.post(event{kind: evOversize, sess: s}) {
					return
				}
			}
		}
		if err != nil {
			w.post(event{kind: evClosed, sess: s, err: err})
			return
		}
	}
}

func (w *worker) post(ev event) bool {
	select {
	case w.events <- ev:
		return true
	case <-w.done:
		return false
	}
}
