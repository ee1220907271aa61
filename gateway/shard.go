package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// DefaultURL is the gateway endpoint shards dial unless overridden.
const DefaultURL = "wss://gateway.discord.gg/?v=9&encoding=json"

// State is the connection state of a single shard.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateIdentifying
	StateConnected
	StateResuming
	StateDetached
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateIdentifying:
		return "identifying"
	case StateConnected:
		return "connected"
	case StateResuming:
		return "resuming"
	case StateDetached:
		return "detached"
	default:
		return "unknown"
	}
}

var (
	// ErrDetached is returned for operations on a shard that was detached.
	ErrDetached = errors.New("gateway: shard is detached")
	// ErrAlreadyRunning is returned by Start on a shard that is running.
	ErrAlreadyRunning = errors.New("gateway: shard is already running")
	// errReconnect signals connectOnce to come back through the retry loop.
	errReconnect = errors.New("gateway: reconnect requested")
)

// Gateway is one shard connection to the event stream.
type Gateway interface {
	// Start launches the connection loop and returns without waiting for the
	// session to reach Connected.
	Start(ctx context.Context, cfg Configuration) error
	// Send delivers a command over the socket. Commands sent while the
	// session is down are buffered and flushed after the next (re)connect.
	Send(cmd Command) error
	// Stop closes the session gracefully; the shard may be started again.
	Stop() error
	// Detach closes the session permanently and releases the event stream.
	// Idempotent.
	Detach() error
	// Ping reports the last measured heartbeat round-trip; ok is false while
	// no measurement exists yet.
	Ping() (time.Duration, bool)
	// Events is the shard's decoded event stream, in arrival order. It is
	// closed on Detach.
	Events() <-chan Event
}

// session holds the per-connection socket tasks: the read loop runs in the
// shard's run goroutine, the write loop and heartbeat ticker run here.
type session struct {
	conn      *websocket.Conn
	outgoing  chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newSession(conn *websocket.Conn) *session {
	return &session{
		conn:     conn,
		outgoing: make(chan []byte, 64),
		closed:   make(chan struct{}),
	}
}

func (s *session) writeLoop() {
	for {
		select {
		case msg := <-s.outgoing:
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.close()
				return
			}
		case <-s.closed:
			return
		}
	}
}

func (s *session) send(msg []byte) error {
	select {
	case s.outgoing <- msg:
		return nil
	case <-s.closed:
		return errReconnect
	}
}

// close tears the socket down, unblocking any pending read.
func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		if s.conn != nil {
			s.conn.Close()
		}
	})
}

// Shard is the default Gateway implementation: one websocket session per
// shard index with identify/resume/heartbeat lifecycle.
type Shard struct {
	logger *zap.Logger
	url    string
	dialer *websocket.Dialer

	mu       sync.Mutex
	state    State
	cfg      Configuration
	running  bool
	detached bool
	cancel   context.CancelFunc
	sess     *session
	pending  [][]byte

	sessionID     string
	sequence      *atomic.Int64
	firstDispatch bool

	ping    *atomic.Duration
	hasPing *atomic.Bool

	unackedBeats  *atomic.Int32
	heartbeatSent *atomic.Time

	events     chan Event
	eventsOnce sync.Once
	runDone    chan struct{}
}

// NewShard creates an unstarted shard connection.
func NewShard(log *zap.Logger) *Shard {
	return &Shard{
		logger:        log,
		url:           DefaultURL,
		dialer:        websocket.DefaultDialer,
		sequence:      atomic.NewInt64(0),
		ping:          atomic.NewDuration(0),
		hasPing:       atomic.NewBool(false),
		unackedBeats:  atomic.NewInt32(0),
		heartbeatSent: atomic.NewTime(time.Time{}),
		events:        make(chan Event, 64),
	}
}

func (s *Shard) Events() <-chan Event {
	return s.events
}

func (s *Shard) Ping() (time.Duration, bool) {
	if !s.hasPing.Load() {
		return 0, false
	}
	return s.ping.Load(), true
}

// StateNow reports the shard's current connection state.
func (s *Shard) StateNow() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Shard) Start(ctx context.Context, cfg Configuration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detached {
		return ErrDetached
	}
	if s.running {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cfg = cfg
	s.cancel = cancel
	s.running = true
	s.state = StateConnecting
	s.runDone = make(chan struct{})

	go s.run(ctx)
	return nil
}

func (s *Shard) Send(cmd Command) error {
	msg, err := marshalCommand(cmd)
	if err != nil {
		return fmt.Errorf("couldn't marshal gateway command: %w", err)
	}

	s.mu.Lock()
	if s.detached {
		s.mu.Unlock()
		return ErrDetached
	}
	if s.state != StateConnected || s.sess == nil {
		s.pending = append(s.pending, msg)
		s.mu.Unlock()
		return nil
	}
	sess := s.sess
	s.mu.Unlock()

	if err := sess.send(msg); err != nil {
		s.mu.Lock()
		s.pending = append(s.pending, msg)
		s.mu.Unlock()
	}
	return nil
}

func (s *Shard) Stop() error {
	s.mu.Lock()
	cancel, sess, done := s.cancel, s.sess, s.runDone
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if sess != nil {
		sess.close()
	}
	if done != nil {
		<-done
	}
	return nil
}

func (s *Shard) Detach() error {
	s.mu.Lock()
	if s.detached {
		s.mu.Unlock()
		return nil
	}
	s.detached = true
	s.state = StateDetached
	wasRunning := s.running
	cancel, sess, done := s.cancel, s.sess, s.runDone
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if sess != nil {
		sess.close()
	}
	if wasRunning && done != nil {
		<-done
	}
	s.eventsOnce.Do(func() { close(s.events) })
	return nil
}

// run owns the connect/reconnect cycle for one Start call.
func (s *Shard) run(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.sess = nil
		if s.state != StateDetached {
			s.state = StateDisconnected
		}
		done := s.runDone
		s.mu.Unlock()
		close(done)
	}()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = time.Minute
	bo.MaxElapsedTime = 0

	attempts := 0
	for {
		if ctx.Err() != nil {
			return
		}

		err := s.connectOnce(ctx)
		switch {
		case err == nil || errors.Is(err, context.Canceled):
			return
		case errors.Is(err, errReconnect):
			// fall through to backoff
		default:
			s.logger.Sugar().Errorf("Shard %d transport failure: %s.", s.cfg.Shard.Index, err)
		}

		attempts++
		if max := s.cfg.MaxReconnectAttempts; max > 0 && attempts >= max {
			s.logger.Sugar().Errorf("Shard %d exhausted %d reconnect attempts, giving up.", s.cfg.Shard.Index, attempts)
			return
		}

		wait := bo.NextBackOff()
		s.logger.Sugar().Infof("Shard %d reconnecting in %s.", s.cfg.Shard.Index, wait)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return
		}
	}
}

// connectOnce dials, reads frames until the connection drops, and reports
// whether the drop warrants a reconnect (errReconnect) or is terminal.
func (s *Shard) connectOnce(ctx context.Context) error {
	s.setState(StateConnecting)

	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("couldn't dial gateway: %w", err)
	}

	sess := newSession(conn)
	s.mu.Lock()
	if s.detached {
		s.mu.Unlock()
		sess.close()
		return nil
	}
	s.sess = sess
	s.firstDispatch = true
	s.mu.Unlock()

	s.unackedBeats.Store(0)
	go sess.writeLoop()
	defer sess.close()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("gateway read failed: %w", err)
		}

		frame, err := DecodeFrame(raw)
		if err != nil {
			s.logger.Sugar().Errorf("Shard %d received malformed frame: %s.", s.cfg.Shard.Index, err)
			return errReconnect
		}

		if err := s.handleFrame(ctx, sess, frame); err != nil {
			return err
		}
	}
}

func (s *Shard) handleFrame(ctx context.Context, sess *session, f *Frame) error {
	switch f.Opcode {
	case OpcodeHello:
		return s.handleHello(ctx, sess, f)
	case OpcodeDispatch:
		return s.handleDispatch(ctx, sess, f)
	case OpcodeHeartbeat:
		// The server may ask for an immediate beat outside the ticker.
		return s.sendHeartbeat(sess)
	case OpcodeHeartbeatAck:
		s.unackedBeats.Store(0)
		if sent := s.heartbeatSent.Load(); !sent.IsZero() {
			s.ping.Store(time.Since(sent))
			s.hasPing.Store(true)
		}
		return nil
	case OpcodeReconnect:
		s.logger.Sugar().Infof("Shard %d received reconnect request.", s.cfg.Shard.Index)
		return errReconnect
	case OpcodeInvalidSession:
		return s.handleInvalidSession(f)
	default:
		s.logger.Sugar().Debugf("Shard %d ignoring frame with opcode %d.", s.cfg.Shard.Index, f.Opcode)
		return nil
	}
}

func (s *Shard) handleHello(ctx context.Context, sess *session, f *Frame) error {
	hello := helloData{}
	if err := json.Unmarshal(f.Data, &hello); err != nil {
		return fmt.Errorf("malformed hello payload: %w", err)
	}

	go s.heartbeatLoop(ctx, sess, time.Duration(hello.HeartbeatInterval)*time.Millisecond)

	s.mu.Lock()
	sessionID, seq := s.sessionID, s.sequence.Load()
	s.mu.Unlock()

	if sessionID != "" {
		s.setState(StateResuming)
		msg, err := marshalCommand(Resume{Token: s.cfg.Token, SessionID: sessionID, Sequence: seq})
		if err != nil {
			return err
		}
		return sess.send(msg)
	}

	s.setState(StateIdentifying)
	msg, err := marshalCommand(Identify{
		Token:      s.cfg.Token,
		Properties: defaultProperties(),
		Shard:      [2]int{s.cfg.Shard.Index, s.cfg.Shard.Total},
		Intents:    s.cfg.Intents,
	})
	if err != nil {
		return err
	}
	return sess.send(msg)
}

func (s *Shard) handleDispatch(ctx context.Context, sess *session, f *Frame) error {
	if f.Sequence != nil {
		s.sequence.Store(*f.Sequence)
	}

	event, err := decodeDispatch(f.EventName, f.Data)
	if err != nil {
		s.logger.Sugar().Errorf("Shard %d couldn't decode %s dispatch: %s.", s.cfg.Shard.Index, f.EventName, err)
		return nil
	}

	if ready, ok := event.(Ready); ok {
		s.mu.Lock()
		s.sessionID = ready.SessionID
		s.mu.Unlock()
	}

	s.mu.Lock()
	first := s.firstDispatch
	s.firstDispatch = false
	s.state = StateConnected
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	if first {
		s.logger.Sugar().Infof("Shard %d connected.", s.cfg.Shard.Index)
		for _, msg := range pending {
			if err := sess.send(msg); err != nil {
				return err
			}
		}
	}

	select {
	case s.events <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// handleInvalidSession resumes when the server allows it, otherwise clears
// the session so the next connection identifies from scratch.
func (s *Shard) handleInvalidSession(f *Frame) error {
	resumable := false
	if len(f.Data) > 0 {
		if err := json.Unmarshal(f.Data, &resumable); err != nil {
			resumable = false
		}
	}

	if !resumable {
		s.mu.Lock()
		s.sessionID = ""
		s.mu.Unlock()
		s.sequence.Store(0)
		s.logger.Sugar().Infof("Shard %d session invalidated, re-identifying.", s.cfg.Shard.Index)
	} else {
		s.logger.Sugar().Infof("Shard %d session invalidated, resuming.", s.cfg.Shard.Index)
	}
	return errReconnect
}

func (s *Shard) sendHeartbeat(sess *session) error {
	msg, err := marshalCommand(Heartbeat(s.sequence.Load()))
	if err != nil {
		return err
	}
	s.heartbeatSent.Store(time.Now())
	return sess.send(msg)
}

// heartbeatLoop beats at the server-specified interval. Two unacknowledged
// beats mean the connection is dead: the socket is force-closed, which
// unblocks the read loop and triggers a reconnect with resume preferred.
func (s *Shard) heartbeatLoop(ctx context.Context, sess *session, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if s.unackedBeats.Inc() > 2 {
				s.logger.Sugar().Errorf("Shard %d missed two heartbeat acks, forcing reconnect.", s.cfg.Shard.Index)
				sess.close()
				return
			}
			if err := s.sendHeartbeat(sess); err != nil {
				return
			}
		case <-sess.closed:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Shard) setState(st State) {
	s.mu.Lock()
	if s.state != StateDetached {
		s.state = st
	}
	s.mu.Unlock()
}
