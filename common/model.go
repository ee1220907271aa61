package common

// Wire models shared by gateway dispatch payloads and REST responses. Field
// sets are trimmed to what the cache pipeline consumes; unknown JSON fields
// are ignored on decode.

type User struct {
	ID            Snowflake `json:"id"`
	Username      string    `json:"username"`
	Discriminator string    `json:"discriminator"`
	Avatar        string    `json:"avatar"`
	Bot           bool      `json:"bot"`
}

type Member struct {
	User     *User       `json:"user,omitempty"`
	GuildID  Snowflake   `json:"guild_id,omitempty"`
	Nick     string      `json:"nick,omitempty"`
	RoleIDs  []Snowflake `json:"roles"`
	JoinedAt string      `json:"joined_at"`
	Deaf     bool        `json:"deaf"`
	Mute     bool        `json:"mute"`
}

type Role struct {
	ID          Snowflake `json:"id"`
	GuildID     Snowflake `json:"guild_id,omitempty"`
	Name        string    `json:"name"`
	Color       int       `json:"color"`
	Hoist       bool      `json:"hoist"`
	Position    int       `json:"position"`
	Permissions uint64    `json:"permissions,string"`
	Managed     bool      `json:"managed"`
	Mentionable bool      `json:"mentionable"`
}

// ChannelType discriminates the channel union on the wire.
type ChannelType int

const (
	ChannelTypeGuildText ChannelType = iota
	ChannelTypeDM
	ChannelTypeGuildVoice
	ChannelTypeGroupDM
	ChannelTypeGuildCategory
	ChannelTypeGuildNews
	ChannelTypeGuildStore
)

type Channel struct {
	ID       Snowflake   `json:"id"`
	Type     ChannelType `json:"type"`
	GuildID  Snowflake   `json:"guild_id,omitempty"`
	ParentID Snowflake   `json:"parent_id,omitempty"`
	Name     string      `json:"name,omitempty"`
	Topic    string      `json:"topic,omitempty"`
	Position int         `json:"position,omitempty"`
	NSFW     bool        `json:"nsfw,omitempty"`
	Bitrate  int         `json:"bitrate,omitempty"`
}

type Activity struct {
	Name string `json:"name"`
	Type int    `json:"type"`
	URL  string `json:"url,omitempty"`
}

type Presence struct {
	User       User       `json:"user"`
	GuildID    Snowflake  `json:"guild_id,omitempty"`
	Status     string     `json:"status"`
	Activities []Activity `json:"activities,omitempty"`
}

type VoiceState struct {
	GuildID   Snowflake `json:"guild_id,omitempty"`
	ChannelID Snowflake `json:"channel_id"`
	UserID    Snowflake `json:"user_id"`
	SessionID string    `json:"session_id"`
	Deaf      bool      `json:"deaf"`
	Mute      bool      `json:"mute"`
	SelfDeaf  bool      `json:"self_deaf"`
	SelfMute  bool      `json:"self_mute"`
	Suppress  bool      `json:"suppress"`
}

type Emoji struct {
	ID            Snowflake   `json:"id"`
	Name          string      `json:"name"`
	RoleIDs       []Snowflake `json:"roles,omitempty"`
	User          *User       `json:"user,omitempty"`
	RequireColons bool        `json:"require_colons,omitempty"`
	Managed       bool        `json:"managed,omitempty"`
	Animated      bool        `json:"animated,omitempty"`
}

// Guild is the full guild payload. The embedded collections are only
// delivered on GUILD_CREATE; embedded channels omit their guild_id.
type Guild struct {
	ID          Snowflake    `json:"id"`
	Name        string       `json:"name"`
	Icon        string       `json:"icon"`
	OwnerID     Snowflake    `json:"owner_id"`
	Region      string       `json:"region,omitempty"`
	MemberCount int          `json:"member_count,omitempty"`
	Unavailable bool         `json:"unavailable,omitempty"`
	Roles       []Role       `json:"roles,omitempty"`
	Emojis      []Emoji      `json:"emojis,omitempty"`
	Members     []Member     `json:"members,omitempty"`
	Channels    []Channel    `json:"channels,omitempty"`
	Presences   []Presence   `json:"presences,omitempty"`
	VoiceStates []VoiceState `json:"voice_states,omitempty"`
}

// UnavailableGuild is the GUILD_DELETE payload: unavailable set means the
// guild went offline, unset means the client was removed from it.
type UnavailableGuild struct {
	ID          Snowflake `json:"id"`
	Unavailable bool      `json:"unavailable,omitempty"`
}

type Ban struct {
	GuildID Snowflake `json:"guild_id"`
	User    User      `json:"user"`
	Reason  string    `json:"reason,omitempty"`
}

type Invite struct {
	Code       string    `json:"code"`
	GuildID    Snowflake `json:"guild_id,omitempty"`
	ChannelID  Snowflake `json:"channel_id"`
	Inviter    *User     `json:"inviter,omitempty"`
	TargetUser *User     `json:"target_user,omitempty"`
	MaxAge     int       `json:"max_age,omitempty"`
	MaxUses    int       `json:"max_uses,omitempty"`
	Temporary  bool      `json:"temporary,omitempty"`
	Uses       int       `json:"uses,omitempty"`
	CreatedAt  string    `json:"created_at,omitempty"`
}
