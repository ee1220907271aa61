package core

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/ZeroTwo-Bot/kord/common"
	"github.com/ZeroTwo-Bot/kord/rest"
)

// ErrEntityNotFound is the typed absence returned by must-exist supplier
// calls. Sequence calls express absence as an empty sequence instead.
var ErrEntityNotFound = errors.New("core: entity not found")

// EntitySupplier is the pluggable read path unifying cache reads with
// on-demand remote fetches. Point lookups return ErrEntityNotFound on
// absence; sequence calls yield zero items.
type EntitySupplier interface {
	GetGuild(ctx context.Context, guildID common.Snowflake) (*Guild, error)
	GetUser(ctx context.Context, userID common.Snowflake) (*User, error)
	GetMember(ctx context.Context, guildID, userID common.Snowflake) (*Member, error)
	GetChannel(ctx context.Context, channelID common.Snowflake) (*Channel, error)
	GetRole(ctx context.Context, guildID, roleID common.Snowflake) (*Role, error)
	GetEmoji(ctx context.Context, guildID, emojiID common.Snowflake) (*GuildEmoji, error)
	GetInvite(ctx context.Context, code string) (*Invite, error)

	GuildChannels(ctx context.Context, guildID common.Snowflake) iter.Seq2[*Channel, error]
	GuildRoles(ctx context.Context, guildID common.Snowflake) iter.Seq2[*Role, error]
	GuildEmojis(ctx context.Context, guildID common.Snowflake) iter.Seq2[*GuildEmoji, error]
	GuildMembers(ctx context.Context, guildID common.Snowflake) iter.Seq2[*Member, error]
}

// SupplyStrategy selects the supplier variant an entity-returning call site
// reads through.
type SupplyStrategy func(k *Kord) EntitySupplier

var (
	// CacheOnly reads exclusively from the cache.
	CacheOnly SupplyStrategy = func(k *Kord) EntitySupplier { return &cacheSupplier{kord: k} }
	// RestOnly always issues a remote call and writes the result through to
	// the cache, never reading from it.
	RestOnly SupplyStrategy = func(k *Kord) EntitySupplier { return &restSupplier{kord: k} }
	// CacheWithRestFallback reads the cache first and falls back to the
	// remote service on a miss. The default.
	CacheWithRestFallback SupplyStrategy = func(k *Kord) EntitySupplier {
		return &fallbackSupplier{cache: &cacheSupplier{kord: k}, rest: &restSupplier{kord: k}}
	}
)

func notFound(kind string, key fmt.Stringer) error {
	return fmt.Errorf("%s %s: %w", kind, key.String(), ErrEntityNotFound)
}

// cacheSupplier serves reads from the DataCache only; absence is a normal
// typed result, never a remote call.
type cacheSupplier struct {
	kord *Kord
}

func (s *cacheSupplier) GetGuild(_ context.Context, guildID common.Snowflake) (*Guild, error) {
	data, ok := s.kord.Cache.Guilds.Get(guildID)
	if !ok {
		return nil, notFound("guild", guildID)
	}
	return newGuild(data, s.kord), nil
}

func (s *cacheSupplier) GetUser(_ context.Context, userID common.Snowflake) (*User, error) {
	data, ok := s.kord.Cache.Users.Get(userID)
	if !ok {
		return nil, notFound("user", userID)
	}
	return newUser(data, s.kord), nil
}

func (s *cacheSupplier) GetMember(_ context.Context, guildID, userID common.Snowflake) (*Member, error) {
	member, ok := s.kord.Cache.Members.Get(GuildUserKey{GuildID: guildID, UserID: userID})
	if !ok {
		return nil, notFound("member", userID)
	}
	user, ok := s.kord.Cache.Users.Get(userID)
	if !ok {
		// A member record without its user record is not a valid member.
		return nil, notFound("member", userID)
	}
	return newMember(member, user, s.kord), nil
}

func (s *cacheSupplier) GetChannel(_ context.Context, channelID common.Snowflake) (*Channel, error) {
	data, ok := s.kord.Cache.Channels.Get(channelID)
	if !ok {
		return nil, notFound("channel", channelID)
	}
	return newChannel(data, s.kord), nil
}

func (s *cacheSupplier) GetRole(_ context.Context, guildID, roleID common.Snowflake) (*Role, error) {
	data, ok := s.kord.Cache.Roles.Get(RoleKey{GuildID: guildID, RoleID: roleID})
	if !ok {
		return nil, notFound("role", roleID)
	}
	return newRole(data, s.kord), nil
}

func (s *cacheSupplier) GetEmoji(_ context.Context, guildID, emojiID common.Snowflake) (*GuildEmoji, error) {
	data, ok := s.kord.Cache.Emojis.Get(EmojiKey{GuildID: guildID, EmojiID: emojiID})
	if !ok {
		return nil, notFound("emoji", emojiID)
	}
	return newGuildEmoji(data, s.kord), nil
}

func (s *cacheSupplier) GetInvite(_ context.Context, code string) (*Invite, error) {
	data, ok := s.kord.Cache.Invites.Get(code)
	if !ok {
		return nil, fmt.Errorf("invite %s: %w", code, ErrEntityNotFound)
	}
	return newInvite(data, s.kord), nil
}

func (s *cacheSupplier) GuildChannels(_ context.Context, guildID common.Snowflake) iter.Seq2[*Channel, error] {
	query := s.kord.Cache.Channels.Query(func(c ChannelData) bool { return c.GuildID == guildID })
	return func(yield func(*Channel, error) bool) {
		for data := range query {
			if !yield(newChannel(data, s.kord), nil) {
				return
			}
		}
	}
}

func (s *cacheSupplier) GuildRoles(_ context.Context, guildID common.Snowflake) iter.Seq2[*Role, error] {
	query := s.kord.Cache.Roles.Query(func(r RoleData) bool { return r.GuildID == guildID })
	return func(yield func(*Role, error) bool) {
		for data := range query {
			if !yield(newRole(data, s.kord), nil) {
				return
			}
		}
	}
}

func (s *cacheSupplier) GuildEmojis(_ context.Context, guildID common.Snowflake) iter.Seq2[*GuildEmoji, error] {
	query := s.kord.Cache.Emojis.Query(func(e EmojiData) bool { return e.GuildID == guildID })
	return func(yield func(*GuildEmoji, error) bool) {
		for data := range query {
			if !yield(newGuildEmoji(data, s.kord), nil) {
				return
			}
		}
	}
}

func (s *cacheSupplier) GuildMembers(_ context.Context, guildID common.Snowflake) iter.Seq2[*Member, error] {
	query := s.kord.Cache.Members.Query(func(m MemberData) bool { return m.GuildID == guildID })
	return func(yield func(*Member, error) bool) {
		for data := range query {
			user, ok := s.kord.Cache.Users.Get(data.UserID)
			if !ok {
				continue
			}
			if !yield(newMember(data, user, s.kord), nil) {
				return
			}
		}
	}
}

// restSupplier always calls the remote service and populates the cache as a
// side effect of every fetch.
type restSupplier struct {
	kord *Kord
}

// translate maps the remote 404-equivalent onto the supplier's typed
// absence; transport failures pass through untouched.
func translate(err error) error {
	if rest.IsNotFound(err) {
		return fmt.Errorf("%w: %w", err, ErrEntityNotFound)
	}
	return err
}

func (s *restSupplier) GetGuild(ctx context.Context, guildID common.Snowflake) (*Guild, error) {
	guild, err := s.kord.rest.GetGuild(ctx, guildID)
	if err != nil {
		return nil, translate(err)
	}
	data := NewGuildData(guild)
	s.kord.Cache.Guilds.Put(data.ID, data)
	return newGuild(data, s.kord), nil
}

func (s *restSupplier) GetUser(ctx context.Context, userID common.Snowflake) (*User, error) {
	user, err := s.kord.rest.GetUser(ctx, userID)
	if err != nil {
		return nil, translate(err)
	}
	data := NewUserData(user)
	s.kord.Cache.Users.Put(data.ID, data)
	return newUser(data, s.kord), nil
}

func (s *restSupplier) GetMember(ctx context.Context, guildID, userID common.Snowflake) (*Member, error) {
	member, err := s.kord.rest.GetMember(ctx, guildID, userID)
	if err != nil {
		return nil, translate(err)
	}
	if member.User == nil {
		return nil, notFound("member", userID)
	}
	userData := NewUserData(*member.User)
	memberData := NewMemberData(userData.ID, guildID, member)
	s.kord.Cache.Users.Put(userData.ID, userData)
	s.kord.Cache.Members.Put(memberData.Key(), memberData)
	return newMember(memberData, userData, s.kord), nil
}

func (s *restSupplier) GetChannel(ctx context.Context, channelID common.Snowflake) (*Channel, error) {
	channel, err := s.kord.rest.GetChannel(ctx, channelID)
	if err != nil {
		return nil, translate(err)
	}
	data := NewChannelData(channel)
	s.kord.Cache.Channels.Put(data.ID, data)
	return newChannel(data, s.kord), nil
}

// GetRole fetches the guild's full role list; the protocol offers no
// single-role request.
func (s *restSupplier) GetRole(ctx context.Context, guildID, roleID common.Snowflake) (*Role, error) {
	roles, err := s.kord.rest.GetGuildRoles(ctx, guildID)
	if err != nil {
		return nil, translate(err)
	}
	var found *Role
	for _, role := range roles {
		data := NewRoleData(guildID, role)
		s.kord.Cache.Roles.Put(data.Key(), data)
		if data.ID == roleID {
			found = newRole(data, s.kord)
		}
	}
	if found == nil {
		return nil, notFound("role", roleID)
	}
	return found, nil
}

func (s *restSupplier) GetEmoji(ctx context.Context, guildID, emojiID common.Snowflake) (*GuildEmoji, error) {
	emoji, err := s.kord.rest.GetEmoji(ctx, guildID, emojiID)
	if err != nil {
		return nil, translate(err)
	}
	data := NewEmojiData(guildID, emoji.ID, emoji)
	s.kord.Cache.Emojis.Put(data.Key(), data)
	return newGuildEmoji(data, s.kord), nil
}

func (s *restSupplier) GetInvite(ctx context.Context, code string) (*Invite, error) {
	invite, err := s.kord.rest.GetInvite(ctx, code)
	if err != nil {
		return nil, translate(err)
	}
	data := NewInviteData(invite)
	s.kord.Cache.Invites.Put(data.Code, data)
	return newInvite(data, s.kord), nil
}

func (s *restSupplier) GuildChannels(ctx context.Context, guildID common.Snowflake) iter.Seq2[*Channel, error] {
	return func(yield func(*Channel, error) bool) {
		channels, err := s.kord.rest.GetGuildChannels(ctx, guildID)
		if err != nil {
			yield(nil, translate(err))
			return
		}
		for _, channel := range channels {
			data := NewChannelData(channel)
			s.kord.Cache.Channels.Put(data.ID, data)
			if !yield(newChannel(data, s.kord), nil) {
				return
			}
		}
	}
}

func (s *restSupplier) GuildRoles(ctx context.Context, guildID common.Snowflake) iter.Seq2[*Role, error] {
	return func(yield func(*Role, error) bool) {
		roles, err := s.kord.rest.GetGuildRoles(ctx, guildID)
		if err != nil {
			yield(nil, translate(err))
			return
		}
		for _, role := range roles {
			data := NewRoleData(guildID, role)
			s.kord.Cache.Roles.Put(data.Key(), data)
			if !yield(newRole(data, s.kord), nil) {
				return
			}
		}
	}
}

func (s *restSupplier) GuildEmojis(ctx context.Context, guildID common.Snowflake) iter.Seq2[*GuildEmoji, error] {
	return func(yield func(*GuildEmoji, error) bool) {
		emojis, err := s.kord.rest.GetGuildEmojis(ctx, guildID)
		if err != nil {
			yield(nil, translate(err))
			return
		}
		for _, emoji := range emojis {
			data := NewEmojiData(guildID, emoji.ID, emoji)
			s.kord.Cache.Emojis.Put(data.Key(), data)
			if !yield(newGuildEmoji(data, s.kord), nil) {
				return
			}
		}
	}
}

const memberPageSize = 1000

func (s *restSupplier) GuildMembers(ctx context.Context, guildID common.Snowflake) iter.Seq2[*Member, error] {
	return func(yield func(*Member, error) bool) {
		var after common.Snowflake
		for {
			page, err := s.kord.rest.GetGuildMembers(ctx, guildID, after, memberPageSize)
			if err != nil {
				yield(nil, translate(err))
				return
			}
			if len(page) == 0 {
				return
			}
			for _, member := range page {
				if member.User == nil {
					continue
				}
				userData := NewUserData(*member.User)
				memberData := NewMemberData(userData.ID, guildID, member)
				s.kord.Cache.Users.Put(userData.ID, userData)
				s.kord.Cache.Members.Put(memberData.Key(), memberData)
				after = userData.ID
				if !yield(newMember(memberData, userData, s.kord), nil) {
					return
				}
			}
			if len(page) < memberPageSize {
				return
			}
		}
	}
}

// fallbackSupplier reads the cache first. A point miss falls back to the
// remote service; a sequence falls back only when the cache yields zero
// items, replacing the view wholesale rather than topping up a partial
// collection.
type fallbackSupplier struct {
	cache *cacheSupplier
	rest  *restSupplier
}

func fallbackGet[E any](ctx context.Context, fromCache func(context.Context) (E, error), fromRest func(context.Context) (E, error)) (E, error) {
	entity, err := fromCache(ctx)
	if err == nil {
		return entity, nil
	}
	if !errors.Is(err, ErrEntityNotFound) {
		return entity, err
	}
	return fromRest(ctx)
}

func fallbackSeq[E any](fromCache, fromRest iter.Seq2[E, error]) iter.Seq2[E, error] {
	return func(yield func(E, error) bool) {
		yielded := false
		for entity, err := range fromCache {
			yielded = true
			if !yield(entity, err) {
				return
			}
		}
		if yielded {
			return
		}
		for entity, err := range fromRest {
			if !yield(entity, err) {
				return
			}
		}
	}
}

func (s *fallbackSupplier) GetGuild(ctx context.Context, guildID common.Snowflake) (*Guild, error) {
	return fallbackGet(ctx,
		func(ctx context.Context) (*Guild, error) { return s.cache.GetGuild(ctx, guildID) },
		func(ctx context.Context) (*Guild, error) { return s.rest.GetGuild(ctx, guildID) })
}

func (s *fallbackSupplier) GetUser(ctx context.Context, userID common.Snowflake) (*User, error) {
	return fallbackGet(ctx,
		func(ctx context.Context) (*User, error) { return s.cache.GetUser(ctx, userID) },
		func(ctx context.Context) (*User, error) { return s.rest.GetUser(ctx, userID) })
}

func (s *fallbackSupplier) GetMember(ctx context.Context, guildID, userID common.Snowflake) (*Member, error) {
	return fallbackGet(ctx,
		func(ctx context.Context) (*Member, error) { return s.cache.GetMember(ctx, guildID, userID) },
		func(ctx context.Context) (*Member, error) { return s.rest.GetMember(ctx, guildID, userID) })
}

func (s *fallbackSupplier) GetChannel(ctx context.Context, channelID common.Snowflake) (*Channel, error) {
	return fallbackGet(ctx,
		func(ctx context.Context) (*Channel, error) { return s.cache.GetChannel(ctx, channelID) },
		func(ctx context.Context) (*Channel, error) { return s.rest.GetChannel(ctx, channelID) })
}

func (s *fallbackSupplier) GetRole(ctx context.Context, guildID, roleID common.Snowflake) (*Role, error) {
	return fallbackGet(ctx,
		func(ctx context.Context) (*Role, error) { return s.cache.GetRole(ctx, guildID, roleID) },
		func(ctx context.Context) (*Role, error) { return s.rest.GetRole(ctx, guildID, roleID) })
}

func (s *fallbackSupplier) GetEmoji(ctx context.Context, guildID, emojiID common.Snowflake) (*GuildEmoji, error) {
	return fallbackGet(ctx,
		func(ctx context.Context) (*GuildEmoji, error) { return s.cache.GetEmoji(ctx, guildID, emojiID) },
		func(ctx context.Context) (*GuildEmoji, error) { return s.rest.GetEmoji(ctx, guildID, emojiID) })
}

func (s *fallbackSupplier) GetInvite(ctx context.Context, code string) (*Invite, error) {
	return fallbackGet(ctx,
		func(ctx context.Context) (*Invite, error) { return s.cache.GetInvite(ctx, code) },
		func(ctx context.Context) (*Invite, error) { return s.rest.GetInvite(ctx, code) })
}

func (s *fallbackSupplier) GuildChannels(ctx context.Context, guildID common.Snowflake) iter.Seq2[*Channel, error] {
	return fallbackSeq(s.cache.GuildChannels(ctx, guildID), s.rest.GuildChannels(ctx, guildID))
}

func (s *fallbackSupplier) GuildRoles(ctx context.Context, guildID common.Snowflake) iter.Seq2[*Role, error] {
	return fallbackSeq(s.cache.GuildRoles(ctx, guildID), s.rest.GuildRoles(ctx, guildID))
}

func (s *fallbackSupplier) GuildEmojis(ctx context.Context, guildID common.Snowflake) iter.Seq2[*GuildEmoji, error] {
	return fallbackSeq(s.cache.GuildEmojis(ctx, guildID), s.rest.GuildEmojis(ctx, guildID))
}

func (s *fallbackSupplier) GuildMembers(ctx context.Context, guildID common.Snowflake) iter.Seq2[*Member, error] {
	return fallbackSeq(s.cache.GuildMembers(ctx, guildID), s.rest.GuildMembers(ctx, guildID))
}
