package core

import (
	"github.com/ZeroTwo-Bot/kord/gateway"
)

// voiceEventHandler synchronizes voice state records. The wire-level voice
// transport is out of scope; only the state bookkeeping lives here.
type voiceEventHandler struct{}

func (h *voiceEventHandler) Handle(event gateway.Event, shard int, k *Kord) Event {
	switch e := event.(type) {
	case gateway.VoiceStateUpdate:
		return h.handleVoiceStateUpdate(e, shard, k)
	case gateway.VoiceServerUpdate:
		return &VoiceServerUpdateEvent{
			shardEvent: shardEvent{shard},
			GuildID:    e.GuildID,
			Token:      e.Token,
			Endpoint:   e.Endpoint,
		}
	default:
		return nil
	}
}

func (h *voiceEventHandler) handleVoiceStateUpdate(e gateway.VoiceStateUpdate, shard int, k *Kord) Event {
	data := NewVoiceStateData(e.VoiceState.GuildID, e.VoiceState)

	var old *VoiceState
	if prior, ok := k.Cache.VoiceStates.Get(data.Key()); ok {
		old = newVoiceState(prior, k)
	}

	// A zero channel id means the user left voice entirely.
	if data.ChannelID.IsZero() {
		k.Cache.VoiceStates.Remove(data.Key())
	} else {
		k.Cache.VoiceStates.Put(data.Key(), data)
	}

	return &VoiceStateUpdateEvent{shardEvent: shardEvent{shard}, Old: old, New: newVoiceState(data, k)}
}
