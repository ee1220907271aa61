package core

import (
	"github.com/ZeroTwo-Bot/kord/common"
	"github.com/ZeroTwo-Bot/kord/gateway"
)

// guildEventHandler synchronizes guild-scoped state: the guild itself plus
// members, roles, presences, bans, emojis, integrations and invites.
type guildEventHandler struct{}

func (h *guildEventHandler) Handle(event gateway.Event, shard int, k *Kord) Event {
	switch e := event.(type) {
	case gateway.GuildCreate:
		return h.handleGuildCreate(e, shard, k)
	case gateway.GuildUpdate:
		return h.handleGuildUpdate(e, shard, k)
	case gateway.GuildDelete:
		return h.handleGuildDelete(e, shard, k)
	case gateway.GuildBanAdd:
		return h.handleBanAdd(e, shard, k)
	case gateway.GuildBanRemove:
		return h.handleBanRemove(e, shard, k)
	case gateway.GuildEmojisUpdate:
		return h.handleEmojisUpdate(e, shard, k)
	case gateway.GuildIntegrationsUpdate:
		return &IntegrationsUpdateEvent{shardEvent: shardEvent{shard}, GuildID: e.GuildID, kord: k, supplier: k.defaultSupplier}
	case gateway.GuildMemberAdd:
		return h.handleMemberAdd(e, shard, k)
	case gateway.GuildMemberRemove:
		return h.handleMemberRemove(e, shard, k)
	case gateway.GuildMemberUpdate:
		return h.handleMemberUpdate(e, shard, k)
	case gateway.GuildRoleCreate:
		data := NewRoleData(e.GuildID, e.Role)
		k.Cache.Roles.Put(data.Key(), data)
		return &RoleCreateEvent{shardEvent: shardEvent{shard}, Role: newRole(data, k)}
	case gateway.GuildRoleUpdate:
		data := NewRoleData(e.GuildID, e.Role)
		k.Cache.Roles.Put(data.Key(), data)
		return &RoleUpdateEvent{shardEvent: shardEvent{shard}, Role: newRole(data, k)}
	case gateway.GuildRoleDelete:
		return h.handleRoleDelete(e, shard, k)
	case gateway.GuildMembersChunk:
		return h.handleMembersChunk(e, shard, k)
	case gateway.PresenceUpdate:
		return h.handlePresenceUpdate(e, shard, k)
	case gateway.InviteCreate:
		return h.handleInviteCreate(e, shard, k)
	case gateway.InviteDelete:
		k.Cache.Invites.Remove(e.Code)
		return &InviteDeleteEvent{shardEvent: shardEvent{shard}, GuildID: e.GuildID, ChannelID: e.ChannelID, Code: e.Code}
	default:
		return nil
	}
}

// cacheGuildChildren upserts every collection embedded in a guild payload as
// individual records. Channels arrive without their guild_id and are
// normalized here.
func (h *guildEventHandler) cacheGuildChildren(g common.Guild, k *Kord) {
	for _, member := range g.Members {
		if member.User == nil {
			continue
		}
		userData := NewUserData(*member.User)
		memberData := NewMemberData(userData.ID, g.ID, member)
		k.Cache.Users.Put(userData.ID, userData)
		k.Cache.Members.Put(memberData.Key(), memberData)
	}

	for _, role := range g.Roles {
		data := NewRoleData(g.ID, role)
		k.Cache.Roles.Put(data.Key(), data)
	}

	for _, channel := range g.Channels {
		channel.GuildID = g.ID
		data := NewChannelData(channel)
		k.Cache.Channels.Put(data.ID, data)
	}

	for _, presence := range g.Presences {
		data := NewPresenceData(g.ID, presence)
		k.Cache.Presences.Put(data.Key(), data)
	}

	for _, voiceState := range g.VoiceStates {
		data := NewVoiceStateData(g.ID, voiceState)
		k.Cache.VoiceStates.Put(data.Key(), data)
	}

	for _, emoji := range g.Emojis {
		data := NewEmojiData(g.ID, emoji.ID, emoji)
		k.Cache.Emojis.Put(data.Key(), data)
	}
}

func (h *guildEventHandler) handleGuildCreate(e gateway.GuildCreate, shard int, k *Kord) Event {
	data := NewGuildData(e.Guild)
	k.Cache.Guilds.Put(data.ID, data)
	h.cacheGuildChildren(e.Guild, k)

	return &GuildCreateEvent{shardEvent: shardEvent{shard}, Guild: newGuild(data, k)}
}

func (h *guildEventHandler) handleGuildUpdate(e gateway.GuildUpdate, shard int, k *Kord) Event {
	data := NewGuildData(e.Guild)
	k.Cache.Guilds.Put(data.ID, data)
	h.cacheGuildChildren(e.Guild, k)

	return &GuildUpdateEvent{shardEvent: shardEvent{shard}, Guild: newGuild(data, k)}
}

func (h *guildEventHandler) handleGuildDelete(e gateway.GuildDelete, shard int, k *Kord) Event {
	var old *Guild
	if data, ok := k.Cache.Guilds.Get(e.Guild.ID); ok {
		old = newGuild(data, k)
	}
	k.Cache.Guilds.Remove(e.Guild.ID)

	return &GuildDeleteEvent{
		shardEvent:  shardEvent{shard},
		GuildID:     e.Guild.ID,
		Unavailable: e.Guild.Unavailable,
		Old:         old,
	}
}

func (h *guildEventHandler) handleBanAdd(e gateway.GuildBanAdd, shard int, k *Kord) Event {
	data := NewUserData(e.Ban.User)
	k.Cache.Users.Put(data.ID, data)

	return &BanAddEvent{shardEvent: shardEvent{shard}, GuildID: e.Ban.GuildID, User: newUser(data, k)}
}

func (h *guildEventHandler) handleBanRemove(e gateway.GuildBanRemove, shard int, k *Kord) Event {
	data := NewUserData(e.Ban.User)
	k.Cache.Users.Put(data.ID, data)

	return &BanRemoveEvent{shardEvent: shardEvent{shard}, GuildID: e.Ban.GuildID, User: newUser(data, k)}
}

// handleEmojisUpdate replaces the guild's emoji-id list with exactly the new
// set, not a merge of old and new.
func (h *guildEventHandler) handleEmojisUpdate(e gateway.GuildEmojisUpdate, shard int, k *Kord) Event {
	records := make(map[EmojiKey]EmojiData, len(e.Emojis))
	ids := make([]common.Snowflake, 0, len(e.Emojis))
	emojis := make([]*GuildEmoji, 0, len(e.Emojis))
	for _, emoji := range e.Emojis {
		data := NewEmojiData(e.GuildID, emoji.ID, emoji)
		records[data.Key()] = data
		ids = append(ids, data.ID)
		emojis = append(emojis, newGuildEmoji(data, k))
	}
	k.Cache.Emojis.PutAll(records)

	k.Cache.Guilds.Update(e.GuildID, func(g GuildData) GuildData {
		g.EmojiIDs = ids
		return g
	})

	return &EmojisUpdateEvent{shardEvent: shardEvent{shard}, GuildID: e.GuildID, Emojis: emojis, kord: k, supplier: k.defaultSupplier}
}

func (h *guildEventHandler) handleMemberAdd(e gateway.GuildMemberAdd, shard int, k *Kord) Event {
	if e.Member.User == nil {
		return nil
	}
	userData := NewUserData(*e.Member.User)
	memberData := NewMemberData(userData.ID, e.Member.GuildID, e.Member)
	k.Cache.Users.Put(userData.ID, userData)
	k.Cache.Members.Put(memberData.Key(), memberData)

	return &MemberJoinEvent{shardEvent: shardEvent{shard}, Member: newMember(memberData, userData, k)}
}

// handleMemberRemove evicts only the member record for this guild. The
// global user record survives; a user leaving one guild must not make their
// memberships elsewhere unreadable.
func (h *guildEventHandler) handleMemberRemove(e gateway.GuildMemberRemove, shard int, k *Kord) Event {
	userData := NewUserData(e.User)
	k.Cache.Members.Remove(GuildUserKey{GuildID: e.GuildID, UserID: userData.ID})

	return &MemberLeaveEvent{shardEvent: shardEvent{shard}, GuildID: e.GuildID, User: newUser(userData, k)}
}

func (h *guildEventHandler) handleMemberUpdate(e gateway.GuildMemberUpdate, shard int, k *Kord) Event {
	userData := NewUserData(e.User)
	k.Cache.Users.Put(userData.ID, userData)

	key := GuildUserKey{GuildID: e.GuildID, UserID: userData.ID}
	var old *Member
	prior, hadPrior := k.Cache.Members.Get(key)
	if hadPrior {
		old = newMember(prior, userData, k)
	}

	newData := MemberData{
		UserID:  userData.ID,
		GuildID: e.GuildID,
		Nick:    e.Nick,
		RoleIDs: e.RoleIDs,
	}
	if hadPrior {
		// The update payload has no join date or voice flags; keep them.
		newData.JoinedAt = prior.JoinedAt
		newData.Deaf = prior.Deaf
		newData.Mute = prior.Mute
	}
	k.Cache.Members.Put(key, newData)

	return &MemberUpdateEvent{shardEvent: shardEvent{shard}, Old: old, New: newMember(newData, userData, k)}
}

func (h *guildEventHandler) handleRoleDelete(e gateway.GuildRoleDelete, shard int, k *Kord) Event {
	key := RoleKey{GuildID: e.GuildID, RoleID: e.RoleID}
	var old *Role
	if data, ok := k.Cache.Roles.Get(key); ok {
		old = newRole(data, k)
	}
	k.Cache.Roles.Remove(key)

	return &RoleDeleteEvent{shardEvent: shardEvent{shard}, GuildID: e.GuildID, RoleID: e.RoleID, Old: old}
}

func (h *guildEventHandler) handleMembersChunk(e gateway.GuildMembersChunk, shard int, k *Kord) Event {
	presences := make(map[GuildUserKey]PresenceData, len(e.Presences))
	for _, presence := range e.Presences {
		data := NewPresenceData(e.GuildID, presence)
		presences[data.Key()] = data
	}
	k.Cache.Presences.PutAll(presences)

	members := make([]*Member, 0, len(e.Members))
	for _, member := range e.Members {
		if member.User == nil {
			continue
		}
		userData := NewUserData(*member.User)
		memberData := NewMemberData(userData.ID, e.GuildID, member)
		k.Cache.Users.Put(userData.ID, userData)
		k.Cache.Members.Put(memberData.Key(), memberData)
		members = append(members, newMember(memberData, userData, k))
	}

	return &MembersChunkEvent{
		shardEvent: shardEvent{shard},
		GuildID:    e.GuildID,
		Members:    members,
		ChunkIndex: e.ChunkIndex,
		ChunkCount: e.ChunkCount,
	}
}

// handlePresenceUpdate resolves the associated user record independently of
// the presence records; the two may disagree when the user record is stale
// or absent.
func (h *guildEventHandler) handlePresenceUpdate(e gateway.PresenceUpdate, shard int, k *Kord) Event {
	data := NewPresenceData(e.Presence.GuildID, e.Presence)

	var old *Presence
	if prior, ok := k.Cache.Presences.Get(data.Key()); ok {
		old = newPresence(prior, k)
	}
	k.Cache.Presences.Put(data.Key(), data)

	var user *User
	if userData, ok := k.Cache.Users.Get(e.Presence.User.ID); ok {
		user = newUser(userData, k)
	}

	return &PresenceUpdateEvent{
		shardEvent: shardEvent{shard},
		User:       user,
		GuildID:    e.Presence.GuildID,
		Old:        old,
		New:        newPresence(data, k),
	}
}

// handleInviteCreate upserts the referenced users opportunistically; no
// invite-list structure is maintained beyond the single record.
func (h *guildEventHandler) handleInviteCreate(e gateway.InviteCreate, shard int, k *Kord) Event {
	data := NewInviteData(e.Invite)
	k.Cache.Invites.Put(data.Code, data)

	if e.Invite.Inviter != nil {
		userData := NewUserData(*e.Invite.Inviter)
		k.Cache.Users.Put(userData.ID, userData)
	}
	if e.Invite.TargetUser != nil {
		userData := NewUserData(*e.Invite.TargetUser)
		k.Cache.Users.Put(userData.ID, userData)
	}

	return &InviteCreateEvent{shardEvent: shardEvent{shard}, Invite: newInvite(data, k)}
}
