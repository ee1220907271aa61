package core

import (
	"context"

	"github.com/ZeroTwo-Bot/kord/common"
)

// Event is one domain event produced by the synchronization pipeline.
// Implementations carry enough before/after data for observers to diff
// without touching the cache again.
type Event interface {
	// ShardIndex is the index of the shard the event originated on.
	ShardIndex() int
}

type shardEvent struct {
	Shard int
}

func (e shardEvent) ShardIndex() int { return e.Shard }

type ReadyEvent struct {
	shardEvent
	Self   *User
	Guilds []common.UnavailableGuild
}

type ResumedEvent struct {
	shardEvent
}

type GuildCreateEvent struct {
	shardEvent
	Guild *Guild
}

type GuildUpdateEvent struct {
	shardEvent
	Guild *Guild
}

// GuildDeleteEvent carries the snapshot that existed just before deletion;
// Old is nil when the guild was never cached.
type GuildDeleteEvent struct {
	shardEvent
	GuildID     common.Snowflake
	Unavailable bool
	Old         *Guild
}

type BanAddEvent struct {
	shardEvent
	GuildID common.Snowflake
	User    *User
}

type BanRemoveEvent struct {
	shardEvent
	GuildID common.Snowflake
	User    *User
}

// EmojisUpdateEvent exposes the complete new emoji set, not a delta. It can
// resolve its guild through the bound supplier.
type EmojisUpdateEvent struct {
	shardEvent
	GuildID common.Snowflake
	Emojis  []*GuildEmoji

	kord     *Kord
	supplier EntitySupplier
}

func (e *EmojisUpdateEvent) GetGuild(ctx context.Context) (*Guild, error) {
	return e.supplier.GetGuild(ctx, e.GuildID)
}

func (e *EmojisUpdateEvent) WithSupplier(s EntitySupplier) *EmojisUpdateEvent {
	return &EmojisUpdateEvent{shardEvent: e.shardEvent, GuildID: e.GuildID, Emojis: e.Emojis, kord: e.kord, supplier: s}
}

type IntegrationsUpdateEvent struct {
	shardEvent
	GuildID common.Snowflake

	kord     *Kord
	supplier EntitySupplier
}

func (e *IntegrationsUpdateEvent) GetGuild(ctx context.Context) (*Guild, error) {
	return e.supplier.GetGuild(ctx, e.GuildID)
}

func (e *IntegrationsUpdateEvent) WithSupplier(s EntitySupplier) *IntegrationsUpdateEvent {
	return &IntegrationsUpdateEvent{shardEvent: e.shardEvent, GuildID: e.GuildID, kord: e.kord, supplier: s}
}

type MemberJoinEvent struct {
	shardEvent
	Member *Member
}

type MemberLeaveEvent struct {
	shardEvent
	GuildID common.Snowflake
	User    *User
}

// MemberUpdateEvent: Old is nil when no prior member record existed; the
// new record is cached either way.
type MemberUpdateEvent struct {
	shardEvent
	Old *Member
	New *Member
}

type RoleCreateEvent struct {
	shardEvent
	Role *Role
}

type RoleUpdateEvent struct {
	shardEvent
	Role *Role
}

type RoleDeleteEvent struct {
	shardEvent
	GuildID common.Snowflake
	RoleID  common.Snowflake
	Old     *Role
}

type MembersChunkEvent struct {
	shardEvent
	GuildID    common.Snowflake
	Members    []*Member
	ChunkIndex int
	ChunkCount int
}

// PresenceUpdateEvent: User is resolved from the cache independently of the
// presence records and may be nil when the user record is absent.
type PresenceUpdateEvent struct {
	shardEvent
	User    *User
	GuildID common.Snowflake
	Old     *Presence
	New     *Presence
}

type VoiceStateUpdateEvent struct {
	shardEvent
	Old *VoiceState
	New *VoiceState
}

type VoiceServerUpdateEvent struct {
	shardEvent
	GuildID  common.Snowflake
	Token    string
	Endpoint string
}

type InviteCreateEvent struct {
	shardEvent
	Invite *Invite
}

type InviteDeleteEvent struct {
	shardEvent
	GuildID   common.Snowflake
	ChannelID common.Snowflake
	Code      string
}

type ChannelCreateEvent struct {
	shardEvent
	Channel *Channel
}

type ChannelUpdateEvent struct {
	shardEvent
	Channel *Channel
}

type ChannelDeleteEvent struct {
	shardEvent
	ChannelID common.Snowflake
	Old       *Channel
}

type ChannelPinsUpdateEvent struct {
	shardEvent
	GuildID          common.Snowflake
	ChannelID        common.Snowflake
	LastPinTimestamp string
}
