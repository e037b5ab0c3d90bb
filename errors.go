package showdown

import "github.com/pkg/errors"

// Connection errors
var (
	ErrNotConnected     = errors.New("client is not connected")
	ErrAlreadyConnected = errors.New("client is already connected")
	ErrNoServer         = errors.New("no server to reconnect to")
	ErrDisconnected     = errors.New("client disconnected")
	ErrConnectionClosed = errors.New("connection closed by peer")
)

// Protocol errors
var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrNonTextFrame   = errors.New("non-text frame received")
)

// Login and resolution errors
var (
	ErrUnknownServer      = errors.New("server not recognized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrLoginInProgress    = errors.New("login already in progress")
)
