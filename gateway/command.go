package gateway

import (
	"encoding/json"

	"github.com/ZeroTwo-Bot/kord/common"
)

// Command is an outbound gateway message. Implementations are the closed set
// of payloads the protocol accepts from clients.
type Command interface {
	opcode() Opcode
}

// marshalCommand wraps a command payload in the gateway envelope.
func marshalCommand(c Command) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Frame{Opcode: c.opcode(), Data: data})
}

// IdentifyProperties describes the connecting client to the server.
type IdentifyProperties struct {
	OS      string `json:"$os"`
	Browser string `json:"$browser"`
	Device  string `json:"$device"`
}

// Identify opens a fresh session on a shard.
type Identify struct {
	Token      string             `json:"token"`
	Properties IdentifyProperties `json:"properties"`
	Shard      [2]int             `json:"shard"`
	Intents    common.Intents     `json:"intents"`
}

func (Identify) opcode() Opcode { return OpcodeIdentify }

// Resume reattaches to an existing logical session after a resumable drop.
type Resume struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
	Sequence  int64  `json:"seq"`
}

func (Resume) opcode() Opcode { return OpcodeResume }

// Heartbeat carries the last dispatch sequence number seen by the client.
type Heartbeat int64

func (Heartbeat) opcode() Opcode { return OpcodeHeartbeat }

// RequestGuildMembers asks the server to stream a guild's member list back
// in GuildMembersChunk dispatches.
type RequestGuildMembers struct {
	GuildID common.Snowflake `json:"guild_id"`
	Query   string           `json:"query"`
	Limit   int              `json:"limit"`
}

func (RequestGuildMembers) opcode() Opcode { return OpcodeRequestGuildMembers }

// UpdateStatus changes the presence shown for the connected client.
type UpdateStatus struct {
	Since      *int64            `json:"since"`
	Activities []common.Activity `json:"activities"`
	Status     string            `json:"status"`
	AFK        bool              `json:"afk"`
}

func (UpdateStatus) opcode() Opcode { return OpcodePresenceUpdate }

// UpdateVoiceState joins, moves or leaves a voice channel. A zero ChannelID
// leaves voice; the JSON form is null in that case.
type UpdateVoiceState struct {
	GuildID   common.Snowflake  `json:"guild_id"`
	ChannelID *common.Snowflake `json:"channel_id"`
	SelfMute  bool              `json:"self_mute"`
	SelfDeaf  bool              `json:"self_deaf"`
}

func (UpdateVoiceState) opcode() Opcode { return OpcodeVoiceStateUpdate }
