package gateway

import (
	"runtime"

	"github.com/ZeroTwo-Bot/kord/common"
)

// Configuration is the shared identify configuration for a shard group. The
// group substitutes the Shard index per connection; everything else is
// common to all shards.
type Configuration struct {
	Token   string
	Shard   ShardInfo
	Intents common.Intents

	// MaxReconnectAttempts is the retry ceiling before a shard gives up and
	// stays Disconnected. Zero means retry forever.
	MaxReconnectAttempts int
}

// ShardInfo is the [index, total] pair sent in the identify payload.
type ShardInfo struct {
	Index int
	Total int
}

// withIndex derives a per-shard copy of the configuration.
func (c Configuration) withIndex(index int) Configuration {
	c.Shard.Index = index
	return c
}

func defaultProperties() IdentifyProperties {
	return IdentifyProperties{OS: runtime.GOOS, Browser: "kord", Device: "kord"}
}
