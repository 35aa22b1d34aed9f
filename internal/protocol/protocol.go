package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	// client -> server
	TypeHello    = "HELLO"
	TypeTeleport = "TELEPORT"
	TypeActivate = "ACTIVATE"
	TypeSort     = "SORT"
	TypeBreak    = "BREAK"
	TypeEdit     = "EDIT"

	// server -> client
	TypeWelcome        = "WELCOME"
	TypeTeleportResult = "TELEPORT_RESULT"
	TypeTeleportEffect = "TELEPORT_EFFECT"
	TypeCooldowns      = "COOLDOWNS"
	TypeKnownWaystones = "KNOWN_WAYSTONES"
	TypeNotice         = "NOTICE"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
