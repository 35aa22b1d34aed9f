package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	PlayerID        string `json:"player_id"`
	Name            string `json:"name"`
	MaxQueue        int    `json:"max_queue,omitempty"`
}

// TELEPORT (client -> server)
type TeleportMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	RequestID       string `json:"request_id,omitempty"`
	WaystoneID      string `json:"waystone_id"`
	WarpMode        string `json:"warp_mode"`
	FromWaystoneID  string `json:"from_waystone_id,omitempty"`
}

// ACTIVATE (client -> server)
type ActivateMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	WaystoneID      string `json:"waystone_id"`
}

// SORT (client -> server): swap two entries of the known list.
type SortMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Index           int    `json:"index"`
	OtherIndex      int    `json:"other_index"`
}

// BREAK (client -> server)
type BreakMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	WaystoneID      string `json:"waystone_id"`
}

// EDIT (client -> server): rename and/or change the global flag.
type EditMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	WaystoneID      string `json:"waystone_id"`
	Name            string `json:"name,omitempty"`
	Global          *bool  `json:"global,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	PlayerID        string     `json:"player_id"`
	Dimension       string     `json:"dimension"`
	Pos             [3]float64 `json:"pos"`
	Levels          int        `json:"levels"`
	Creative        bool       `json:"creative,omitempty"`
}

// TELEPORT_RESULT (server -> client)
type TeleportResultMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	RequestID       string `json:"request_id,omitempty"`
	OK              bool   `json:"ok"`
	Outcome         string `json:"outcome"`
	Code            string `json:"code,omitempty"`
	Cost            int    `json:"cost,omitempty"`
}

// TELEPORT_EFFECT (server -> observers near pos)
type TeleportEffectMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Dimension       string `json:"dimension"`
	Pos             [3]int `json:"pos"`
}

// COOLDOWNS (server -> client), unix milliseconds.
type CooldownsMsg struct {
	Type                 string `json:"type"`
	ProtocolVersion      string `json:"protocol_version"`
	WarpStoneUntil       int64  `json:"warp_stone_until"`
	InventoryButtonUntil int64  `json:"inventory_button_until"`
}

// KNOWN_WAYSTONES (server -> client), in display order.
type KnownWaystonesMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	Waystones       []WaystoneInfo `json:"waystones"`
}

type WaystoneInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Dimension string `json:"dimension"`
	Pos       [3]int `json:"pos"`
	Global    bool   `json:"global,omitempty"`
}

// NOTICE (server -> client)
type NoticeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Code            string `json:"code"`
	Text            string `json:"text,omitempty"`
}
