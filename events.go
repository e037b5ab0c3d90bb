package showdown

// EventKind names a kind of event a Client emits.
type EventKind string

const (
	// KindConnection is emitted once the transport is up.
	KindConnection EventKind = "connection"
	// KindDisconnect is emitted when a connection's read loop ends.
	KindDisconnect EventKind = "disconnect"
	// KindRaw is emitted for every decoded frame.
	KindRaw EventKind = "raw"
	// KindChat is emitted for chat messages from other users.
	KindChat EventKind = "chat"
	// KindPM is emitted for private messages from other users.
	KindPM EventKind = "pm"
	// KindMessage is emitted for both chat and private messages.
	KindMessage EventKind = "message"
	// KindError is emitted for frames that could not be read or decoded.
	KindError EventKind = "error"
)

// RawKind returns the kind of the per-command event for command.
func RawKind(command string) EventKind {
	return EventKind("raw-" + command)
}

// Event is implemented by every event type. Handlers type-switch on the
// concrete type or assert the one matching the kind they registered for.
type Event interface {
	Kind() EventKind
}

// Handler handles events.
type Handler func(Event)

// ConnectionEvent reports a new connection.
type ConnectionEvent struct {
	ConnID string
	Server Server
}

// DisconnectEvent reports the end of a connection. Voluntary is true when
// the connection was closed by Disconnect or Reconnect.
type DisconnectEvent struct {
	ConnID    string
	Voluntary bool
	Err       error
}

// RawEvent carries every decoded frame.
type RawEvent struct {
	Command string
	Payload string
	Room    string
}

// CommandEvent carries a decoded frame to handlers of RawKind(Command).
type CommandEvent struct {
	Command string
	Payload string
	Room    string
}

// ChatEvent carries a chat message.
type ChatEvent struct {
	Message *ChatMessage
}

// PMEvent carries a private message.
type PMEvent struct {
	Message *PrivateMessage
}

// MessageEvent carries a chat or private message.
type MessageEvent struct {
	Message Message
}

// ErrorEvent reports a frame that could not be read or decoded.
type ErrorEvent struct {
	Err   error
	Frame string
}

func (ConnectionEvent) Kind() EventKind { return KindConnection }
func (DisconnectEvent) Kind() EventKind { return KindDisconnect }
func (RawEvent) Kind() EventKind        { return KindRaw }
func (e CommandEvent) Kind() EventKind  { return RawKind(e.Command) }
func (ChatEvent) Kind() EventKind       { return KindChat }
func (PMEvent) Kind() EventKind         { return KindPM }
func (MessageEvent) Kind() EventKind    { return KindMessage }
func (ErrorEvent) Kind() EventKind      { return KindError }
