package gateway

import (
	"encoding/json"
	"fmt"
)

// Opcode identifies the kind of gateway frame.
type Opcode int

const (
	OpcodeDispatch            Opcode = 0
	OpcodeHeartbeat           Opcode = 1
	OpcodeIdentify            Opcode = 2
	OpcodePresenceUpdate      Opcode = 3
	OpcodeVoiceStateUpdate    Opcode = 4
	OpcodeResume              Opcode = 6
	OpcodeReconnect           Opcode = 7
	OpcodeRequestGuildMembers Opcode = 8
	OpcodeInvalidSession      Opcode = 9
	OpcodeHello               Opcode = 10
	OpcodeHeartbeatAck        Opcode = 11
)

// Frame is the gateway envelope: opcode, optional dispatch sequence number
// and event name, and the raw payload.
type Frame struct {
	Opcode    Opcode          `json:"op"`
	Sequence  *int64          `json:"s,omitempty"`
	EventName string          `json:"t,omitempty"`
	Data      json.RawMessage `json:"d,omitempty"`
}

// DecodeFrame parses one raw socket message into a Frame.
func DecodeFrame(raw []byte) (*Frame, error) {
	f := &Frame{}
	if err := json.Unmarshal(raw, f); err != nil {
		return nil, fmt.Errorf("malformed gateway frame: %w", err)
	}
	return f, nil
}

type helloData struct {
	HeartbeatInterval int64 `json:"heartbeat_interval"`
}
