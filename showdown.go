package showdown

import "context"

// Client defines a connection to a Showdown server.
//
// A Client is built idle and performs no I/O until Connect is called. One
// Client multiplexes every room over a single websocket connection and
// spaces outbound frames so the server's flood control is never triggered.
//
// Example usage:
//
//	import "github.com/luciancaetano/showdown/client"
//
//	c := client.New(client.DefaultConfig())
//	c.On(showdown.KindMessage, func(ev showdown.Event) {
//	    msg := ev.(showdown.MessageEvent).Message
//	    msg.Reply("hi " + msg.Author().Name)
//	})
//
//	if err := c.Connect(ctx, "showdown"); err != nil {
//	    return err
//	}
//	if err := c.Login(ctx, "name", "password"); err != nil {
//	    return err
//	}
type Client interface {
	Sender

	// Connect resolves a symbolic server name (for example "showdown" or
	// "sim.psim.us") and connects to it.
	//
	// Connect blocks until the transport reports success or failure. It does
	// not retry. Returns ErrAlreadyConnected if a connection is live.
	Connect(ctx context.Context, name string) error

	// ConnectServer connects to an explicit server record, skipping resolution.
	ConnectServer(ctx context.Context, server Server) error

	// Login authenticates as the given user.
	//
	// It waits for the server's login challenge, exchanges it for an
	// assertion with the Authenticator, renames the connection and waits for
	// the server's acknowledgment. A rejected login returns an error matching
	// ErrInvalidCredentials. Login is never retried.
	//
	// Login must not be called from an event handler: handlers run on the
	// goroutine that delivers the acknowledgment.
	Login(ctx context.Context, name, password string) error

	// JoinRoom asks the server to join a room.
	JoinRoom(room string) error

	// LeaveRoom asks the server to leave a room.
	LeaveRoom(room string) error

	// Disconnect closes the connection.
	//
	// Frames still queued are never flushed. Pending Login calls fail with
	// ErrDisconnected. Calling Disconnect while disconnected is a no-op.
	Disconnect() error

	// Reconnect disconnects and connects again to the last server, using a
	// fresh connection. Returns ErrNoServer if Connect was never successful.
	Reconnect(ctx context.Context) error

	// On registers a handler for events of the given kind. Handlers run in
	// registration order on the connection's read goroutine.
	//
	// The returned function removes the handler.
	//
	// Example:
	//
	//	off := c.On(showdown.RawKind("init"), func(ev showdown.Event) {
	//	    log.Printf("joined %s", ev.(showdown.CommandEvent).Room)
	//	})
	//	defer off()
	On(kind EventKind, handler Handler) func()

	// User returns the user the server last acknowledged for this connection.
	User() (*User, bool)

	// State returns the connection state.
	State() State

	// Server returns the server record of the last successful connect.
	Server() Server
}

// Sender is the part of a Client entities call back into.
type Sender interface {
	// Send sends "/command argument" in room. An empty room or the default
	// room sends without a room prefix.
	Send(command, argument, room string) error

	// Say sends a chat message to room, escaping text that the server would
	// otherwise interpret as a command, announcement or eval.
	Say(text, room string) error
}

// Server describes a Showdown server.
type Server struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	ID   string `json:"id"`
}

// Dialer opens duplex text-frame connections.
type Dialer interface {
	// Dial connects to url and returns once the handshake succeeded or failed.
	Dial(ctx context.Context, url string) (Conn, error)
}

// Conn is an open text-frame connection.
type Conn interface {
	// ReadFrame blocks until the next inbound text frame. A non-text frame
	// returns an error matching ErrNonTextFrame; the connection stays usable.
	ReadFrame() (string, error)

	// WriteFrame writes one outbound text frame.
	WriteFrame(frame string) error

	// CloseWithReason sends a close frame with the given websocket close code
	// and closes the connection.
	CloseWithReason(code int, reason string) error
}

// Resolver maps a symbolic server name to a server record.
type Resolver interface {
	Resolve(ctx context.Context, name string) (Server, error)
}

// Challenge is the login challenge sent by the server after connecting.
type Challenge struct {
	KeyID string
	Value string
}

// Authenticator exchanges a login challenge and credentials for an assertion
// the server accepts in the rename command.
type Authenticator interface {
	Authenticate(ctx context.Context, server Server, challenge Challenge, name, password string) (string, error)
}

// State is the lifecycle state of a Client.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}
