package core

import (
	"github.com/ZeroTwo-Bot/kord/cache"
	"github.com/ZeroTwo-Bot/kord/common"
)

// Cache record types. A record is the whole cached value for its key;
// handlers replace records wholesale, never field by field.

// GuildUserKey is the composite key for guild-scoped per-user records:
// members, presences and voice states.
type GuildUserKey struct {
	GuildID common.Snowflake
	UserID  common.Snowflake
}

// RoleKey is the composite key for role records.
type RoleKey struct {
	GuildID common.Snowflake
	RoleID  common.Snowflake
}

// EmojiKey is the composite key for guild emoji records.
type EmojiKey struct {
	GuildID common.Snowflake
	EmojiID common.Snowflake
}

// GuildData carries denormalized child-id lists; the emoji-set handler is
// responsible for keeping EmojiIDs consistent with the emoji records.
type GuildData struct {
	ID          common.Snowflake
	Name        string
	Icon        string
	OwnerID     common.Snowflake
	Region      string
	MemberCount int
	Unavailable bool
	RoleIDs     []common.Snowflake
	EmojiIDs    []common.Snowflake
}

func NewGuildData(g common.Guild) GuildData {
	data := GuildData{
		ID:          g.ID,
		Name:        g.Name,
		Icon:        g.Icon,
		OwnerID:     g.OwnerID,
		Region:      g.Region,
		MemberCount: g.MemberCount,
		Unavailable: g.Unavailable,
	}
	for _, r := range g.Roles {
		data.RoleIDs = append(data.RoleIDs, r.ID)
	}
	for _, e := range g.Emojis {
		data.EmojiIDs = append(data.EmojiIDs, e.ID)
	}
	return data
}

type UserData struct {
	ID            common.Snowflake
	Username      string
	Discriminator string
	Avatar        string
	Bot           bool
}

func NewUserData(u common.User) UserData {
	return UserData{ID: u.ID, Username: u.Username, Discriminator: u.Discriminator, Avatar: u.Avatar, Bot: u.Bot}
}

// MemberData is not meaningful without the corresponding UserData record.
type MemberData struct {
	UserID   common.Snowflake
	GuildID  common.Snowflake
	Nick     string
	RoleIDs  []common.Snowflake
	JoinedAt string
	Deaf     bool
	Mute     bool
}

func NewMemberData(userID, guildID common.Snowflake, m common.Member) MemberData {
	return MemberData{
		UserID:   userID,
		GuildID:  guildID,
		Nick:     m.Nick,
		RoleIDs:  m.RoleIDs,
		JoinedAt: m.JoinedAt,
		Deaf:     m.Deaf,
		Mute:     m.Mute,
	}
}

func (d MemberData) Key() GuildUserKey {
	return GuildUserKey{GuildID: d.GuildID, UserID: d.UserID}
}

type RoleData struct {
	ID          common.Snowflake
	GuildID     common.Snowflake
	Name        string
	Color       int
	Hoist       bool
	Position    int
	Permissions uint64
	Managed     bool
	Mentionable bool
}

func NewRoleData(guildID common.Snowflake, r common.Role) RoleData {
	return RoleData{
		ID:          r.ID,
		GuildID:     guildID,
		Name:        r.Name,
		Color:       r.Color,
		Hoist:       r.Hoist,
		Position:    r.Position,
		Permissions: r.Permissions,
		Managed:     r.Managed,
		Mentionable: r.Mentionable,
	}
}

func (d RoleData) Key() RoleKey {
	return RoleKey{GuildID: d.GuildID, RoleID: d.ID}
}

type ChannelData struct {
	ID       common.Snowflake
	Type     common.ChannelType
	GuildID  common.Snowflake
	ParentID common.Snowflake
	Name     string
	Topic    string
	Position int
	NSFW     bool
	Bitrate  int
}

func NewChannelData(c common.Channel) ChannelData {
	return ChannelData{
		ID:       c.ID,
		Type:     c.Type,
		GuildID:  c.GuildID,
		ParentID: c.ParentID,
		Name:     c.Name,
		Topic:    c.Topic,
		Position: c.Position,
		NSFW:     c.NSFW,
		Bitrate:  c.Bitrate,
	}
}

type PresenceData struct {
	UserID     common.Snowflake
	GuildID    common.Snowflake
	Status     string
	Activities []common.Activity
}

func NewPresenceData(guildID common.Snowflake, p common.Presence) PresenceData {
	return PresenceData{UserID: p.User.ID, GuildID: guildID, Status: p.Status, Activities: p.Activities}
}

func (d PresenceData) Key() GuildUserKey {
	return GuildUserKey{GuildID: d.GuildID, UserID: d.UserID}
}

type VoiceStateData struct {
	GuildID   common.Snowflake
	ChannelID common.Snowflake
	UserID    common.Snowflake
	SessionID string
	Deaf      bool
	Mute      bool
	SelfDeaf  bool
	SelfMute  bool
	Suppress  bool
}

func NewVoiceStateData(guildID common.Snowflake, v common.VoiceState) VoiceStateData {
	return VoiceStateData{
		GuildID:   guildID,
		ChannelID: v.ChannelID,
		UserID:    v.UserID,
		SessionID: v.SessionID,
		Deaf:      v.Deaf,
		Mute:      v.Mute,
		SelfDeaf:  v.SelfDeaf,
		SelfMute:  v.SelfMute,
		Suppress:  v.Suppress,
	}
}

func (d VoiceStateData) Key() GuildUserKey {
	return GuildUserKey{GuildID: d.GuildID, UserID: d.UserID}
}

type EmojiData struct {
	ID       common.Snowflake
	GuildID  common.Snowflake
	Name     string
	RoleIDs  []common.Snowflake
	UserID   common.Snowflake
	Managed  bool
	Animated bool
}

func NewEmojiData(guildID, emojiID common.Snowflake, e common.Emoji) EmojiData {
	data := EmojiData{
		ID:       emojiID,
		GuildID:  guildID,
		Name:     e.Name,
		RoleIDs:  e.RoleIDs,
		Managed:  e.Managed,
		Animated: e.Animated,
	}
	if e.User != nil {
		data.UserID = e.User.ID
	}
	return data
}

func (d EmojiData) Key() EmojiKey {
	return EmojiKey{GuildID: d.GuildID, EmojiID: d.ID}
}

// InviteData is keyed by invite code; no invite-list structure is kept
// beyond the single record.
type InviteData struct {
	Code         string
	GuildID      common.Snowflake
	ChannelID    common.Snowflake
	InviterID    common.Snowflake
	TargetUserID common.Snowflake
	MaxAge       int
	MaxUses      int
	Temporary    bool
	Uses         int
	CreatedAt    string
}

func NewInviteData(i common.Invite) InviteData {
	data := InviteData{
		Code:      i.Code,
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		MaxAge:    i.MaxAge,
		MaxUses:   i.MaxUses,
		Temporary: i.Temporary,
		Uses:      i.Uses,
		CreatedAt: i.CreatedAt,
	}
	if i.Inviter != nil {
		data.InviterID = i.Inviter.ID
	}
	if i.TargetUser != nil {
		data.TargetUserID = i.TargetUser.ID
	}
	return data
}

// DataCache composes one typed bucket per entity namespace. All gateway
// handlers and the cache supplier read and write through it; it is the
// single shared mutable resource between shards.
type DataCache struct {
	Guilds      *cache.Bucket[common.Snowflake, GuildData]
	Users       *cache.Bucket[common.Snowflake, UserData]
	Members     *cache.Bucket[GuildUserKey, MemberData]
	Roles       *cache.Bucket[RoleKey, RoleData]
	Channels    *cache.Bucket[common.Snowflake, ChannelData]
	Presences   *cache.Bucket[GuildUserKey, PresenceData]
	VoiceStates *cache.Bucket[GuildUserKey, VoiceStateData]
	Emojis      *cache.Bucket[EmojiKey, EmojiData]
	Invites     *cache.Bucket[string, InviteData]
}

// NewDataCache creates an empty cache.
func NewDataCache() *DataCache {
	return &DataCache{
		Guilds:      cache.NewBucket[common.Snowflake, GuildData](),
		Users:       cache.NewBucket[common.Snowflake, UserData](),
		Members:     cache.NewBucket[GuildUserKey, MemberData](),
		Roles:       cache.NewBucket[RoleKey, RoleData](),
		Channels:    cache.NewBucket[common.Snowflake, ChannelData](),
		Presences:   cache.NewBucket[GuildUserKey, PresenceData](),
		VoiceStates: cache.NewBucket[GuildUserKey, VoiceStateData](),
		Emojis:      cache.NewBucket[EmojiKey, EmojiData](),
		Invites:     cache.NewBucket[string, InviteData](),
	}
}
