package core

import (
	"context"
	"iter"

	"github.com/ZeroTwo-Bot/kord/common"
)

// Entities wrap a cache record together with the facade handle and the
// supplier that produced them. They never own the facade; WithSupplier
// rebinds the read strategy without rebuilding the entity.

type Guild struct {
	Data GuildData

	kord     *Kord
	supplier EntitySupplier
}

func newGuild(data GuildData, k *Kord) *Guild {
	return &Guild{Data: data, kord: k, supplier: k.defaultSupplier}
}

func (g *Guild) ID() common.Snowflake { return g.Data.ID }

// WithSupplier returns a copy of the guild bound to another read strategy.
func (g *Guild) WithSupplier(s EntitySupplier) *Guild {
	return &Guild{Data: g.Data, kord: g.kord, supplier: s}
}

// GetOwner fetches the guild owner through the bound supplier.
func (g *Guild) GetOwner(ctx context.Context) (*User, error) {
	return g.supplier.GetUser(ctx, g.Data.OwnerID)
}

// Channels streams the guild's channels through the bound supplier.
func (g *Guild) Channels(ctx context.Context) iter.Seq2[*Channel, error] {
	return g.supplier.GuildChannels(ctx, g.Data.ID)
}

// Roles streams the guild's roles through the bound supplier.
func (g *Guild) Roles(ctx context.Context) iter.Seq2[*Role, error] {
	return g.supplier.GuildRoles(ctx, g.Data.ID)
}

// Members streams the guild's members through the bound supplier.
func (g *Guild) Members(ctx context.Context) iter.Seq2[*Member, error] {
	return g.supplier.GuildMembers(ctx, g.Data.ID)
}

type User struct {
	Data UserData

	kord     *Kord
	supplier EntitySupplier
}

func newUser(data UserData, k *Kord) *User {
	return &User{Data: data, kord: k, supplier: k.defaultSupplier}
}

func (u *User) ID() common.Snowflake { return u.Data.ID }

func (u *User) WithSupplier(s EntitySupplier) *User {
	return &User{Data: u.Data, kord: u.kord, supplier: s}
}

// Member pairs the guild-scoped member record with the user record it
// references.
type Member struct {
	Data     MemberData
	UserData UserData

	kord     *Kord
	supplier EntitySupplier
}

func newMember(data MemberData, userData UserData, k *Kord) *Member {
	return &Member{Data: data, UserData: userData, kord: k, supplier: k.defaultSupplier}
}

func (m *Member) GuildID() common.Snowflake { return m.Data.GuildID }
func (m *Member) UserID() common.Snowflake  { return m.Data.UserID }

func (m *Member) WithSupplier(s EntitySupplier) *Member {
	return &Member{Data: m.Data, UserData: m.UserData, kord: m.kord, supplier: s}
}

// GetGuild fetches the member's guild through the bound supplier.
func (m *Member) GetGuild(ctx context.Context) (*Guild, error) {
	return m.supplier.GetGuild(ctx, m.Data.GuildID)
}

type Role struct {
	Data RoleData

	kord     *Kord
	supplier EntitySupplier
}

func newRole(data RoleData, k *Kord) *Role {
	return &Role{Data: data, kord: k, supplier: k.defaultSupplier}
}

func (r *Role) ID() common.Snowflake      { return r.Data.ID }
func (r *Role) GuildID() common.Snowflake { return r.Data.GuildID }

func (r *Role) WithSupplier(s EntitySupplier) *Role {
	return &Role{Data: r.Data, kord: r.kord, supplier: s}
}

type Channel struct {
	Data ChannelData

	kord     *Kord
	supplier EntitySupplier
}

func newChannel(data ChannelData, k *Kord) *Channel {
	return &Channel{Data: data, kord: k, supplier: k.defaultSupplier}
}

func (c *Channel) ID() common.Snowflake { return c.Data.ID }

// GuildID is zero for top-level channels that belong to no guild.
func (c *Channel) GuildID() common.Snowflake { return c.Data.GuildID }

func (c *Channel) WithSupplier(s EntitySupplier) *Channel {
	return &Channel{Data: c.Data, kord: c.kord, supplier: s}
}

// GetGuild fetches the owning guild; ErrEntityNotFound for top-level
// channels with no guild.
func (c *Channel) GetGuild(ctx context.Context) (*Guild, error) {
	if c.Data.GuildID.IsZero() {
		return nil, ErrEntityNotFound
	}
	return c.supplier.GetGuild(ctx, c.Data.GuildID)
}

type Presence struct {
	Data PresenceData

	kord *Kord
}

func newPresence(data PresenceData, k *Kord) *Presence {
	return &Presence{Data: data, kord: k}
}

type VoiceState struct {
	Data VoiceStateData

	kord *Kord
}

func newVoiceState(data VoiceStateData, k *Kord) *VoiceState {
	return &VoiceState{Data: data, kord: k}
}

type GuildEmoji struct {
	Data EmojiData

	kord     *Kord
	supplier EntitySupplier
}

func newGuildEmoji(data EmojiData, k *Kord) *GuildEmoji {
	return &GuildEmoji{Data: data, kord: k, supplier: k.defaultSupplier}
}

func (e *GuildEmoji) ID() common.Snowflake      { return e.Data.ID }
func (e *GuildEmoji) GuildID() common.Snowflake { return e.Data.GuildID }

func (e *GuildEmoji) WithSupplier(s EntitySupplier) *GuildEmoji {
	return &GuildEmoji{Data: e.Data, kord: e.kord, supplier: s}
}

type Invite struct {
	Data InviteData

	kord     *Kord
	supplier EntitySupplier
}

func newInvite(data InviteData, k *Kord) *Invite {
	return &Invite{Data: data, kord: k, supplier: k.defaultSupplier}
}

func (i *Invite) Code() string { return i.Data.Code }

func (i *Invite) WithSupplier(s EntitySupplier) *Invite {
	return &Invite{Data: i.Data, kord: i.kord, supplier: s}
}
