package transport

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/luciancaetano/showdown"
)

const (
	writeTimeout     = 10 * time.Second
	closeGracePeriod = time.Second
	handshakeTimeout = 10 * time.Second
)

// Dialer dials websocket connections with gorilla/websocket.
type Dialer struct {
	dialer *websocket.Dialer
}

// NewDialer returns a Dialer. A nil dialer uses a copy of
// websocket.DefaultDialer with a handshake timeout.
func NewDialer(dialer *websocket.Dialer) *Dialer {
	if dialer == nil {
		d := *websocket.DefaultDialer
		d.HandshakeTimeout = handshakeTimeout
		dialer = &d
	}
	return &Dialer{dialer: dialer}
}

// Dial opens a connection to url.
func (d *Dialer) Dial(ctx context.Context, url string) (showdown.Conn, error) {
	conn, _, err := d.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", url)
	}
	return &Conn{conn: conn}, nil
}

// Conn adapts a websocket connection to text frames.
//
// ReadFrame may be called from one goroutine while WriteFrame and
// CloseWithReason are called from others.
type Conn struct {
	conn *websocket.Conn

	writeMu sync.Mutex
	closed  bool
}

// ReadFrame reads the next text frame.
func (c *Conn) ReadFrame() (string, error) {
	messageType, data, err := c.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return "", errors.Wrap(showdown.ErrConnectionClosed, err.Error())
		}
		return "", err
	}
	if messageType != websocket.TextMessage {
		return "", errors.Wrapf(showdown.ErrNonTextFrame, "message type %d", messageType)
	}
	return string(data), nil
}

// WriteFrame writes frame as a text message.
func (c *Conn) WriteFrame(frame string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closed {
		return showdown.ErrNotConnected
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return errors.Wrap(err, "set write deadline")
	}
	return c.conn.WriteMessage(websocket.TextMessage, []byte(frame))
}

// CloseWithReason sends a close message and closes the connection.
func (c *Conn) CloseWithReason(code int, reason string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	message := websocket.FormatCloseMessage(code, reason)
	writeErr := c.conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(closeGracePeriod))
	if err := c.conn.Close(); err != nil {
		return errors.Wrap(err, "close connection")
	}
	if writeErr != nil {
		return errors.Wrap(writeErr, "send close message")
	}
	return nil
}
