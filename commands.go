package showdown

import "time"

// Protocol defaults.
const (
	// DefaultRoom is the room frames without a ">ROOM" header belong to.
	// Outbound frames for it are sent with an empty room prefix.
	DefaultRoom = "lobby"

	// MessageDelay is the minimum spacing between two outbound frames
	// enforced to stay under the server's flood control.
	MessageDelay = 500 * time.Millisecond

	// WebsocketPath is the fixed path of the server's websocket endpoint.
	WebsocketPath = "/showdown/websocket"

	// DefaultServerID is used for login when a server record carries no id.
	DefaultServerID = "showdown"
)

// Inbound commands with semantic decoding.
const (
	CmdChallenge  = "challstr"
	CmdUpdateUser = "updateuser"
	CmdChat       = "c:"
	CmdChatNoTime = "c"
	CmdPM         = "pm"
)

// Outbound commands.
const (
	CmdRename = "trn"
	CmdJoin   = "join"
	CmdLeave  = "leave"
)

// Close reasons
const (
	CloseReasonNormal    = "client disconnect"
	CloseReasonMalformed = "Invalid message format"
)
