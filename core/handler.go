package core

import (
	"github.com/ZeroTwo-Bot/kord/gateway"
)

// gatewayHandler is one per-domain synchronizer. Handle applies the minimal
// cache mutations for the event and returns the typed domain event, or nil
// when the handler does not cover the event (the next handler is tried) or
// the event has no public domain equivalent.
//
// Handlers must be idempotent under replay: resumed sessions may redeliver
// recent events.
type gatewayHandler interface {
	Handle(event gateway.Event, shard int, k *Kord) Event
}

func defaultHandlers() []gatewayHandler {
	return []gatewayHandler{
		&lifecycleEventHandler{},
		&guildEventHandler{},
		&channelEventHandler{},
		&voiceEventHandler{},
	}
}

// lifecycleEventHandler covers session-level dispatches.
type lifecycleEventHandler struct{}

func (h *lifecycleEventHandler) Handle(event gateway.Event, shard int, k *Kord) Event {
	switch e := event.(type) {
	case gateway.Ready:
		data := NewUserData(e.User)
		k.Cache.Users.Put(data.ID, data)
		return &ReadyEvent{shardEvent: shardEvent{shard}, Self: newUser(data, k), Guilds: e.Guilds}
	case gateway.Resumed:
		return &ResumedEvent{shardEvent: shardEvent{shard}}
	default:
		return nil
	}
}
