// Package rest defines the narrow request/response interface the core
// consumes for on-demand entity fetches. Implementations own their transport
// and rate-limit discipline; none is provided here.
package rest

import (
	"context"
	"errors"
	"fmt"

	"github.com/ZeroTwo-Bot/kord/common"
)

// NotFoundError reports that the remote service knows no entity for the
// requested key. It is distinct from transport failure; callers test for it
// with IsNotFound or errors.As.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("rest: %s %s not found", e.Resource, e.ID)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// Client performs request-by-id operations against the service. Every call
// either returns the record, a NotFoundError, or a transport error; nothing
// here retries.
type Client interface {
	GetGuild(ctx context.Context, guildID common.Snowflake) (common.Guild, error)
	GetUser(ctx context.Context, userID common.Snowflake) (common.User, error)
	GetMember(ctx context.Context, guildID, userID common.Snowflake) (common.Member, error)
	GetChannel(ctx context.Context, channelID common.Snowflake) (common.Channel, error)
	GetGuildChannels(ctx context.Context, guildID common.Snowflake) ([]common.Channel, error)
	GetGuildRoles(ctx context.Context, guildID common.Snowflake) ([]common.Role, error)
	GetEmoji(ctx context.Context, guildID, emojiID common.Snowflake) (common.Emoji, error)
	GetGuildEmojis(ctx context.Context, guildID common.Snowflake) ([]common.Emoji, error)
	GetInvite(ctx context.Context, code string) (common.Invite, error)

	// GetGuildMembers returns one page of at most limit members with an ID
	// greater than after. An empty page ends the pagination.
	GetGuildMembers(ctx context.Context, guildID, after common.Snowflake, limit int) ([]common.Member, error)
}
