package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/ZeroTwo-Bot/kord/common"
)

// Event is one decoded gateway dispatch. The set of implementations is
// closed: consumers dispatch over it with a type switch and treat anything
// unmatched as UnknownDispatch.
type Event interface {
	isEvent()
}

// ShardEvent tags an event with the index of the shard that produced it.
type ShardEvent struct {
	Event Event
	Shard int
}

type Ready struct {
	Version   int                       `json:"v"`
	User      common.User               `json:"user"`
	Guilds    []common.UnavailableGuild `json:"guilds"`
	SessionID string                    `json:"session_id"`
	Shard     [2]int                    `json:"shard,omitempty"`
}

type Resumed struct{}

type GuildCreate struct{ Guild common.Guild }
type GuildUpdate struct{ Guild common.Guild }
type GuildDelete struct{ Guild common.UnavailableGuild }

type GuildBanAdd struct{ Ban common.Ban }
type GuildBanRemove struct{ Ban common.Ban }

type GuildEmojisUpdate struct {
	GuildID common.Snowflake `json:"guild_id"`
	Emojis  []common.Emoji   `json:"emojis"`
}

type GuildIntegrationsUpdate struct {
	GuildID common.Snowflake `json:"guild_id"`
}

type GuildMemberAdd struct{ Member common.Member }

type GuildMemberRemove struct {
	GuildID common.Snowflake `json:"guild_id"`
	User    common.User      `json:"user"`
}

type GuildMemberUpdate struct {
	GuildID common.Snowflake   `json:"guild_id"`
	RoleIDs []common.Snowflake `json:"roles"`
	User    common.User        `json:"user"`
	Nick    string             `json:"nick"`
}

type GuildRoleCreate struct {
	GuildID common.Snowflake `json:"guild_id"`
	Role    common.Role      `json:"role"`
}

type GuildRoleUpdate struct {
	GuildID common.Snowflake `json:"guild_id"`
	Role    common.Role      `json:"role"`
}

type GuildRoleDelete struct {
	GuildID common.Snowflake `json:"guild_id"`
	RoleID  common.Snowflake `json:"role_id"`
}

type GuildMembersChunk struct {
	GuildID    common.Snowflake  `json:"guild_id"`
	Members    []common.Member   `json:"members"`
	ChunkIndex int               `json:"chunk_index"`
	ChunkCount int               `json:"chunk_count"`
	Presences  []common.Presence `json:"presences,omitempty"`
}

type PresenceUpdate struct{ Presence common.Presence }

type VoiceStateUpdate struct{ VoiceState common.VoiceState }

type VoiceServerUpdate struct {
	Token    string           `json:"token"`
	GuildID  common.Snowflake `json:"guild_id"`
	Endpoint string           `json:"endpoint"`
}

type InviteCreate struct{ Invite common.Invite }

type InviteDelete struct {
	ChannelID common.Snowflake `json:"channel_id"`
	GuildID   common.Snowflake `json:"guild_id,omitempty"`
	Code      string           `json:"code"`
}

type ChannelCreate struct{ Channel common.Channel }
type ChannelUpdate struct{ Channel common.Channel }
type ChannelDelete struct{ Channel common.Channel }

type ChannelPinsUpdate struct {
	GuildID          common.Snowflake `json:"guild_id,omitempty"`
	ChannelID        common.Snowflake `json:"channel_id"`
	LastPinTimestamp string           `json:"last_pin_timestamp,omitempty"`
}

// UnknownDispatch carries a dispatch the decoder has no type for. Replacing
// it with a typed event is a localized change in decodeDispatch.
type UnknownDispatch struct {
	Name string
	Data json.RawMessage
}

func (Ready) isEvent()                   {}
func (Resumed) isEvent()                 {}
func (GuildCreate) isEvent()             {}
func (GuildUpdate) isEvent()             {}
func (GuildDelete) isEvent()             {}
func (GuildBanAdd) isEvent()             {}
func (GuildBanRemove) isEvent()          {}
func (GuildEmojisUpdate) isEvent()       {}
func (GuildIntegrationsUpdate) isEvent() {}
func (GuildMemberAdd) isEvent()          {}
func (GuildMemberRemove) isEvent()       {}
func (GuildMemberUpdate) isEvent()       {}
func (GuildRoleCreate) isEvent()         {}
func (GuildRoleUpdate) isEvent()         {}
func (GuildRoleDelete) isEvent()         {}
func (GuildMembersChunk) isEvent()       {}
func (PresenceUpdate) isEvent()          {}
func (VoiceStateUpdate) isEvent()        {}
func (VoiceServerUpdate) isEvent()       {}
func (InviteCreate) isEvent()            {}
func (InviteDelete) isEvent()            {}
func (ChannelCreate) isEvent()           {}
func (ChannelUpdate) isEvent()           {}
func (ChannelDelete) isEvent()           {}
func (ChannelPinsUpdate) isEvent()       {}
func (UnknownDispatch) isEvent()         {}

// decodeDispatch maps a dispatch frame to its typed event. Unrecognized
// event names decode to UnknownDispatch, never to an error.
func decodeDispatch(name string, data json.RawMessage) (Event, error) {
	unmarshal := func(v interface{}) error {
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("malformed %s payload: %w", name, err)
		}
		return nil
	}

	switch name {
	case "READY":
		e := Ready{}
		return e, unmarshal(&e)
	case "RESUMED":
		return Resumed{}, nil
	case "GUILD_CREATE":
		e := GuildCreate{}
		return e, unmarshal(&e.Guild)
	case "GUILD_UPDATE":
		e := GuildUpdate{}
		return e, unmarshal(&e.Guild)
	case "GUILD_DELETE":
		e := GuildDelete{}
		return e, unmarshal(&e.Guild)
	case "GUILD_BAN_ADD":
		e := GuildBanAdd{}
		return e, unmarshal(&e.Ban)
	case "GUILD_BAN_REMOVE":
		e := GuildBanRemove{}
		return e, unmarshal(&e.Ban)
	case "GUILD_EMOJIS_UPDATE":
		e := GuildEmojisUpdate{}
		return e, unmarshal(&e)
	case "GUILD_INTEGRATIONS_UPDATE":
		e := GuildIntegrationsUpdate{}
		return e, unmarshal(&e)
	case "GUILD_MEMBER_ADD":
		e := GuildMemberAdd{}
		return e, unmarshal(&e.Member)
	case "GUILD_MEMBER_REMOVE":
		e := GuildMemberRemove{}
		return e, unmarshal(&e)
	case "GUILD_MEMBER_UPDATE":
		e := GuildMemberUpdate{}
		return e, unmarshal(&e)
	case "GUILD_ROLE_CREATE":
		e := GuildRoleCreate{}
		return e, unmarshal(&e)
	case "GUILD_ROLE_UPDATE":
		e := GuildRoleUpdate{}
		return e, unmarshal(&e)
	case "GUILD_ROLE_DELETE":
		e := GuildRoleDelete{}
		return e, unmarshal(&e)
	case "GUILD_MEMBERS_CHUNK":
		e := GuildMembersChunk{}
		return e, unmarshal(&e)
	case "PRESENCE_UPDATE":
		e := PresenceUpdate{}
		return e, unmarshal(&e.Presence)
	case "VOICE_STATE_UPDATE":
		e := VoiceStateUpdate{}
		return e, unmarshal(&e.VoiceState)
	case "VOICE_SERVER_UPDATE":
		e := VoiceServerUpdate{}
		return e, unmarshal(&e)
	case "INVITE_CREATE":
		e := InviteCreate{}
		return e, unmarshal(&e.Invite)
	case "INVITE_DELETE":
		e := InviteDelete{}
		return e, unmarshal(&e)
	case "CHANNEL_CREATE":
		e := ChannelCreate{}
		return e, unmarshal(&e.Channel)
	case "CHANNEL_UPDATE":
		e := ChannelUpdate{}
		return e, unmarshal(&e.Channel)
	case "CHANNEL_DELETE":
		e := ChannelDelete{}
		return e, unmarshal(&e.Channel)
	case "CHANNEL_PINS_UPDATE":
		e := ChannelPinsUpdate{}
		return e, unmarshal(&e)
	default:
		return UnknownDispatch{Name: name, Data: data}, nil
	}
}
