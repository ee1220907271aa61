package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ZeroTwo-Bot/kord/common"
	"github.com/ZeroTwo-Bot/kord/rest"
)

// fakeRestClient serves fixtures and counts calls, so a test can prove
// whether a read went remote.
type fakeRestClient struct {
	guilds   map[common.Snowflake]common.Guild
	users    map[common.Snowflake]common.User
	channels map[common.Snowflake][]common.Channel
	members  map[common.Snowflake][]common.Member
	calls    int
}

func newFakeRestClient() *fakeRestClient {
	return &fakeRestClient{
		guilds:   map[common.Snowflake]common.Guild{},
		users:    map[common.Snowflake]common.User{},
		channels: map[common.Snowflake][]common.Channel{},
		members:  map[common.Snowflake][]common.Member{},
	}
}

func (c *fakeRestClient) GetGuild(_ context.Context, guildID common.Snowflake) (common.Guild, error) {
	c.calls++
	guild, ok := c.guilds[guildID]
	if !ok {
		return common.Guild{}, &rest.NotFoundError{Resource: "guild", ID: guildID.String()}
	}
	return guild, nil
}

func (c *fakeRestClient) GetUser(_ context.Context, userID common.Snowflake) (common.User, error) {
	c.calls++
	user, ok := c.users[userID]
	if !ok {
		return common.User{}, &rest.NotFoundError{Resource: "user", ID: userID.String()}
	}
	return user, nil
}

func (c *fakeRestClient) GetMember(_ context.Context, guildID, userID common.Snowflake) (common.Member, error) {
	c.calls++
	for _, member := range c.members[guildID] {
		if member.User != nil && member.User.ID == userID {
			return member, nil
		}
	}
	return common.Member{}, &rest.NotFoundError{Resource: "member", ID: userID.String()}
}

func (c *fakeRestClient) GetChannel(_ context.Context, channelID common.Snowflake) (common.Channel, error) {
	c.calls++
	for _, channels := range c.channels {
		for _, channel := range channels {
			if channel.ID == channelID {
				return channel, nil
			}
		}
	}
	return common.Channel{}, &rest.NotFoundError{Resource: "channel", ID: channelID.String()}
}

func (c *fakeRestClient) GetGuildChannels(_ context.Context, guildID common.Snowflake) ([]common.Channel, error) {
	c.calls++
	return c.channels[guildID], nil
}

func (c *fakeRestClient) GetGuildRoles(_ context.Context, guildID common.Snowflake) ([]common.Role, error) {
	c.calls++
	return c.guilds[guildID].Roles, nil
}

func (c *fakeRestClient) GetEmoji(_ context.Context, guildID, emojiID common.Snowflake) (common.Emoji, error) {
	c.calls++
	for _, emoji := range c.guilds[guildID].Emojis {
		if emoji.ID == emojiID {
			return emoji, nil
		}
	}
	return common.Emoji{}, &rest.NotFoundError{Resource: "emoji", ID: emojiID.String()}
}

func (c *fakeRestClient) GetGuildEmojis(_ context.Context, guildID common.Snowflake) ([]common.Emoji, error) {
	c.calls++
	return c.guilds[guildID].Emojis, nil
}

func (c *fakeRestClient) GetInvite(_ context.Context, code string) (common.Invite, error) {
	c.calls++
	return common.Invite{}, &rest.NotFoundError{Resource: "invite", ID: code}
}

func (c *fakeRestClient) GetGuildMembers(_ context.Context, guildID, after common.Snowflake, limit int) ([]common.Member, error) {
	c.calls++
	var page []common.Member
	for _, member := range c.members[guildID] {
		if member.User != nil && member.User.ID > after {
			page = append(page, member)
		}
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

func restKord(t *testing.T, client rest.Client, strategy SupplyStrategy) *Kord {
	t.Helper()
	k, err := New(zap.NewNop(), Config{Token: "token", Rest: client, Strategy: strategy})
	require.NoError(t, err)
	return k
}

func TestCacheOnlySupplier(t *testing.T) {
	ctx := context.Background()
	client := newFakeRestClient()
	client.guilds[100] = common.Guild{ID: 100, Name: "remote"}
	k := restKord(t, client, CacheOnly)

	t.Run("miss is a typed absence, never a remote call", func(t *testing.T) {
		_, err := k.GetGuild(ctx, 100)
		assert.ErrorIs(t, err, ErrEntityNotFound)
		assert.Zero(t, client.calls)
	})

	t.Run("hit serves the cached record", func(t *testing.T) {
		k.Cache.Guilds.Put(100, GuildData{ID: 100, Name: "cached"})

		guild, err := k.GetGuild(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, "cached", guild.Data.Name)
		assert.Zero(t, client.calls)
	})

	t.Run("member requires its user record", func(t *testing.T) {
		k.Cache.Members.Put(GuildUserKey{GuildID: 100, UserID: 7}, MemberData{UserID: 7, GuildID: 100})

		_, err := k.DefaultSupplier().GetMember(ctx, 100, 7)
		assert.ErrorIs(t, err, ErrEntityNotFound)

		k.Cache.Users.Put(7, UserData{ID: 7, Username: "wanderer"})
		member, err := k.DefaultSupplier().GetMember(ctx, 100, 7)
		require.NoError(t, err)
		assert.Equal(t, "wanderer", member.UserData.Username)
	})
}

func TestRestOnlySupplier(t *testing.T) {
	ctx := context.Background()

	t.Run("fetch writes through to the cache", func(t *testing.T) {
		client := newFakeRestClient()
		client.users[7] = common.User{ID: 7, Username: "wanderer"}
		k := restKord(t, client, RestOnly)

		user, err := k.GetUser(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, "wanderer", user.Data.Username)

		cached, ok := k.Cache.Users.Get(7)
		require.True(t, ok)
		assert.Equal(t, "wanderer", cached.Username)
	})

	t.Run("never reads the cache", func(t *testing.T) {
		client := newFakeRestClient()
		k := restKord(t, client, RestOnly)
		k.Cache.Users.Put(7, UserData{ID: 7, Username: "stale"})

		_, err := k.GetUser(ctx, 7)
		assert.ErrorIs(t, err, ErrEntityNotFound)
		assert.Equal(t, 1, client.calls)
	})

	t.Run("remote absence maps to the typed sentinel", func(t *testing.T) {
		client := newFakeRestClient()
		k := restKord(t, client, RestOnly)

		_, err := k.GetGuild(ctx, 100)
		assert.ErrorIs(t, err, ErrEntityNotFound)
		assert.True(t, rest.IsNotFound(err), "the remote cause stays inspectable")
	})

	t.Run("single role read caches the whole role list", func(t *testing.T) {
		client := newFakeRestClient()
		client.guilds[100] = common.Guild{ID: 100, Roles: []common.Role{
			{ID: 200, Name: "admin"},
			{ID: 201, Name: "member"},
		}}
		k := restKord(t, client, RestOnly)

		role, err := k.DefaultSupplier().GetRole(ctx, 100, 201)
		require.NoError(t, err)
		assert.Equal(t, "member", role.Data.Name)

		_, ok := k.Cache.Roles.Get(RoleKey{GuildID: 100, RoleID: 200})
		assert.True(t, ok, "sibling roles from the same response are cached")
	})
}

func TestFallbackSupplier(t *testing.T) {
	ctx := context.Background()

	t.Run("cache hit skips the remote service", func(t *testing.T) {
		client := newFakeRestClient()
		k := restKord(t, client, CacheWithRestFallback)
		k.Cache.Guilds.Put(100, GuildData{ID: 100, Name: "cached"})

		guild, err := k.GetGuild(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, "cached", guild.Data.Name)
		assert.Zero(t, client.calls)
	})

	t.Run("miss falls back and caches, second read stays local", func(t *testing.T) {
		client := newFakeRestClient()
		client.guilds[100] = common.Guild{ID: 100, Name: "remote"}
		k := restKord(t, client, CacheWithRestFallback)

		guild, err := k.GetGuild(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, "remote", guild.Data.Name)
		assert.Equal(t, 1, client.calls)

		_, err = k.GetGuild(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, 1, client.calls, "the fallback result must have been cached")
	})

	t.Run("absence on both sides surfaces the sentinel", func(t *testing.T) {
		client := newFakeRestClient()
		k := restKord(t, client, CacheWithRestFallback)

		_, err := k.GetUser(ctx, 7)
		assert.ErrorIs(t, err, ErrEntityNotFound)
		assert.Equal(t, 1, client.calls)
	})

	t.Run("sequence falls back only when the cache is empty", func(t *testing.T) {
		client := newFakeRestClient()
		client.channels[100] = []common.Channel{
			{ID: 400, GuildID: 100, Name: "a"},
			{ID: 401, GuildID: 100, Name: "b"},
			{ID: 402, GuildID: 100, Name: "c"},
		}
		k := restKord(t, client, CacheWithRestFallback)

		var names []string
		for channel, err := range k.DefaultSupplier().GuildChannels(ctx, 100) {
			require.NoError(t, err)
			names = append(names, channel.Data.Name)
		}
		assert.Len(t, names, 3)
		assert.Equal(t, 1, client.calls)

		// The remote batch is now cached; the next iteration is local.
		count := 0
		for _, err := range k.DefaultSupplier().GuildChannels(ctx, 100) {
			require.NoError(t, err)
			count++
		}
		assert.Equal(t, 3, count)
		assert.Equal(t, 1, client.calls)
	})

	t.Run("partial cache is served as-is, not topped up", func(t *testing.T) {
		client := newFakeRestClient()
		client.channels[100] = []common.Channel{
			{ID: 400, GuildID: 100, Name: "a"},
			{ID: 401, GuildID: 100, Name: "b"},
		}
		k := restKord(t, client, CacheWithRestFallback)
		k.Cache.Channels.Put(400, ChannelData{ID: 400, GuildID: 100, Name: "a"})

		count := 0
		for _, err := range k.DefaultSupplier().GuildChannels(ctx, 100) {
			require.NoError(t, err)
			count++
		}
		assert.Equal(t, 1, count)
		assert.Zero(t, client.calls)
	})
}

func TestGuildMembersPagination(t *testing.T) {
	ctx := context.Background()
	client := newFakeRestClient()
	client.members[100] = []common.Member{
		{User: &common.User{ID: 1, Username: "a"}},
		{User: &common.User{ID: 2, Username: "b"}},
		{User: &common.User{ID: 3, Username: "c"}},
	}
	k := restKord(t, client, RestOnly)

	var ids []common.Snowflake
	for member, err := range k.DefaultSupplier().GuildMembers(ctx, 100) {
		require.NoError(t, err)
		ids = append(ids, member.UserID())
	}
	assert.Equal(t, []common.Snowflake{1, 2, 3}, ids)
	assert.Equal(t, 3, k.Cache.Members.Len())
}

func TestWithSupplierRebind(t *testing.T) {
	ctx := context.Background()
	client := newFakeRestClient()
	client.guilds[100] = common.Guild{ID: 100, Name: "remote", OwnerID: 7}
	client.users[7] = common.User{ID: 7, Username: "owner"}
	k := restKord(t, client, CacheOnly)
	k.Cache.Guilds.Put(100, GuildData{ID: 100, Name: "cached", OwnerID: 7})

	guild, err := k.GetGuild(ctx, 100)
	require.NoError(t, err)

	_, err = guild.GetOwner(ctx)
	assert.ErrorIs(t, err, ErrEntityNotFound, "default strategy reads the cache only")

	owner, err := guild.WithSupplier(k.Supplier(RestOnly)).GetOwner(ctx)
	require.NoError(t, err)
	assert.Equal(t, "owner", owner.Data.Username)
}
