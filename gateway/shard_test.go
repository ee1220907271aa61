package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testShard() *Shard {
	s := NewShard(zap.NewNop())
	s.cfg = Configuration{Token: "token", Shard: ShardInfo{Index: 1, Total: 2}, Intents: 5}
	return s
}

// nextOutgoing decodes the next frame queued on the session's write loop.
func nextOutgoing(t *testing.T, sess *session) *Frame {
	t.Helper()
	select {
	case msg := <-sess.outgoing:
		frame, err := DecodeFrame(msg)
		require.NoError(t, err)
		return frame
	case <-time.After(time.Second):
		t.Fatal("no outgoing frame")
		return nil
	}
}

func TestDecodeFrame(t *testing.T) {
	t.Run("dispatch frame", func(t *testing.T) {
		seq := int64(42)
		raw := []byte(`{"op":0,"s":42,"t":"GUILD_CREATE","d":{"id":"1"}}`)

		frame, err := DecodeFrame(raw)
		require.NoError(t, err)
		assert.Equal(t, OpcodeDispatch, frame.Opcode)
		require.NotNil(t, frame.Sequence)
		assert.Equal(t, seq, *frame.Sequence)
		assert.Equal(t, "GUILD_CREATE", frame.EventName)
	})

	t.Run("malformed frame is an error", func(t *testing.T) {
		_, err := DecodeFrame([]byte(`{"op":`))
		assert.Error(t, err)
	})
}

func TestDecodeDispatch(t *testing.T) {
	t.Run("unknown event name decodes to UnknownDispatch", func(t *testing.T) {
		event, err := decodeDispatch("SOME_FUTURE_EVENT", json.RawMessage(`{"a":1}`))
		require.NoError(t, err)

		unknown, ok := event.(UnknownDispatch)
		require.True(t, ok)
		assert.Equal(t, "SOME_FUTURE_EVENT", unknown.Name)
	})

	t.Run("typed event decode", func(t *testing.T) {
		event, err := decodeDispatch("GUILD_ROLE_DELETE", json.RawMessage(`{"guild_id":"10","role_id":"20"}`))
		require.NoError(t, err)

		roleDelete, ok := event.(GuildRoleDelete)
		require.True(t, ok)
		assert.EqualValues(t, 10, roleDelete.GuildID)
		assert.EqualValues(t, 20, roleDelete.RoleID)
	})
}

func TestMarshalCommand(t *testing.T) {
	msg, err := marshalCommand(Heartbeat(42))
	require.NoError(t, err)
	assert.JSONEq(t, `{"op":1,"d":42}`, string(msg))
}

func TestShardHello(t *testing.T) {
	hello := &Frame{Opcode: OpcodeHello, Data: json.RawMessage(`{"heartbeat_interval":45000}`)}

	t.Run("cold start identifies", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		s := testShard()
		sess := newSession(nil)

		require.NoError(t, s.handleFrame(ctx, sess, hello))
		assert.Equal(t, StateIdentifying, s.StateNow())

		frame := nextOutgoing(t, sess)
		assert.Equal(t, OpcodeIdentify, frame.Opcode)

		identify := Identify{}
		require.NoError(t, json.Unmarshal(frame.Data, &identify))
		assert.Equal(t, "token", identify.Token)
		assert.Equal(t, [2]int{1, 2}, identify.Shard)
		assert.EqualValues(t, 5, identify.Intents)
	})

	t.Run("held session resumes", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		s := testShard()
		s.sessionID = "abc"
		s.sequence.Store(17)
		sess := newSession(nil)

		require.NoError(t, s.handleFrame(ctx, sess, hello))
		assert.Equal(t, StateResuming, s.StateNow())

		frame := nextOutgoing(t, sess)
		assert.Equal(t, OpcodeResume, frame.Opcode)

		resume := Resume{}
		require.NoError(t, json.Unmarshal(frame.Data, &resume))
		assert.Equal(t, "abc", resume.SessionID)
		assert.EqualValues(t, 17, resume.Sequence)
	})
}

func TestShardInvalidSession(t *testing.T) {
	ctx := context.Background()

	t.Run("non-resumable clears session and sequence", func(t *testing.T) {
		s := testShard()
		s.sessionID = "abc"
		s.sequence.Store(17)
		sess := newSession(nil)

		err := s.handleFrame(ctx, sess, &Frame{Opcode: OpcodeInvalidSession, Data: json.RawMessage(`false`)})
		assert.ErrorIs(t, err, errReconnect)
		assert.Empty(t, s.sessionID)
		assert.Zero(t, s.sequence.Load())
	})

	t.Run("resumable keeps session for the next attempt", func(t *testing.T) {
		s := testShard()
		s.sessionID = "abc"
		s.sequence.Store(17)
		sess := newSession(nil)

		err := s.handleFrame(ctx, sess, &Frame{Opcode: OpcodeInvalidSession, Data: json.RawMessage(`true`)})
		assert.ErrorIs(t, err, errReconnect)
		assert.Equal(t, "abc", s.sessionID)
		assert.EqualValues(t, 17, s.sequence.Load())
	})
}

func TestShardDispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("ready captures session id and connects", func(t *testing.T) {
		s := testShard()
		s.firstDispatch = true
		sess := newSession(nil)
		seq := int64(1)

		err := s.handleFrame(ctx, sess, &Frame{
			Opcode:    OpcodeDispatch,
			Sequence:  &seq,
			EventName: "READY",
			Data:      json.RawMessage(`{"v":9,"user":{"id":"1","username":"self"},"session_id":"sess-1"}`),
		})
		require.NoError(t, err)

		assert.Equal(t, "sess-1", s.sessionID)
		assert.Equal(t, StateConnected, s.StateNow())
		assert.EqualValues(t, 1, s.sequence.Load())

		select {
		case event := <-s.Events():
			ready, ok := event.(Ready)
			require.True(t, ok)
			assert.Equal(t, "sess-1", ready.SessionID)
		default:
			t.Fatal("no event emitted")
		}
	})

	t.Run("pending commands flush on first dispatch", func(t *testing.T) {
		s := testShard()
		require.NoError(t, s.Send(Heartbeat(3)))
		require.NoError(t, s.Send(RequestGuildMembers{GuildID: 9}))

		s.firstDispatch = true
		sess := newSession(nil)
		seq := int64(1)
		err := s.handleFrame(ctx, sess, &Frame{
			Opcode:    OpcodeDispatch,
			Sequence:  &seq,
			EventName: "RESUMED",
			Data:      json.RawMessage(`{}`),
		})
		require.NoError(t, err)

		// Buffered sends flush in the order they were issued.
		assert.Equal(t, OpcodeHeartbeat, nextOutgoing(t, sess).Opcode)
		assert.Equal(t, OpcodeRequestGuildMembers, nextOutgoing(t, sess).Opcode)
	})
}

func TestShardHeartbeatAck(t *testing.T) {
	s := testShard()
	sess := newSession(nil)

	_, ok := s.Ping()
	assert.False(t, ok, "no measurement before the first ack")

	require.NoError(t, s.sendHeartbeat(sess))
	require.NoError(t, s.handleFrame(context.Background(), sess, &Frame{Opcode: OpcodeHeartbeatAck}))

	ping, ok := s.Ping()
	assert.True(t, ok)
	assert.GreaterOrEqual(t, ping, time.Duration(0))
	assert.Zero(t, s.unackedBeats.Load())
}

func TestShardDetach(t *testing.T) {
	t.Run("idempotent and terminal", func(t *testing.T) {
		s := testShard()
		require.NoError(t, s.Detach())
		require.NoError(t, s.Detach())
		assert.Equal(t, StateDetached, s.StateNow())

		_, open := <-s.Events()
		assert.False(t, open, "events must be closed after detach")

		err := s.Start(context.Background(), s.cfg)
		assert.ErrorIs(t, err, ErrDetached)
		assert.ErrorIs(t, s.Send(Heartbeat(0)), ErrDetached)
	})

	t.Run("stop without start is a no-op", func(t *testing.T) {
		s := testShard()
		require.NoError(t, s.Stop())
		assert.Equal(t, StateDisconnected, s.StateNow())
	})
}

func TestShardReconnectRequest(t *testing.T) {
	s := testShard()
	sess := newSession(nil)

	err := s.handleFrame(context.Background(), sess, &Frame{Opcode: OpcodeReconnect})
	assert.True(t, errors.Is(err, errReconnect))
}
