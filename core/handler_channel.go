package core

import (
	"github.com/ZeroTwo-Bot/kord/gateway"
)

// channelEventHandler synchronizes channel records. Unlike the embedded
// channels of a guild payload, standalone channel dispatches carry their own
// guild_id (zero for top-level channels).
type channelEventHandler struct{}

func (h *channelEventHandler) Handle(event gateway.Event, shard int, k *Kord) Event {
	switch e := event.(type) {
	case gateway.ChannelCreate:
		data := NewChannelData(e.Channel)
		k.Cache.Channels.Put(data.ID, data)
		return &ChannelCreateEvent{shardEvent: shardEvent{shard}, Channel: newChannel(data, k)}
	case gateway.ChannelUpdate:
		data := NewChannelData(e.Channel)
		k.Cache.Channels.Put(data.ID, data)
		return &ChannelUpdateEvent{shardEvent: shardEvent{shard}, Channel: newChannel(data, k)}
	case gateway.ChannelDelete:
		var old *Channel
		if data, ok := k.Cache.Channels.Get(e.Channel.ID); ok {
			old = newChannel(data, k)
		}
		k.Cache.Channels.Remove(e.Channel.ID)
		return &ChannelDeleteEvent{shardEvent: shardEvent{shard}, ChannelID: e.Channel.ID, Old: old}
	case gateway.ChannelPinsUpdate:
		return &ChannelPinsUpdateEvent{
			shardEvent:       shardEvent{shard},
			GuildID:          e.GuildID,
			ChannelID:        e.ChannelID,
			LastPinTimestamp: e.LastPinTimestamp,
		}
	default:
		return nil
	}
}
