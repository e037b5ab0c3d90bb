package session

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/luciancaetano/showdown"
	"github.com/luciancaetano/showdown/internal/protocol"
)

// readLoop reads frames from c in arrival order and dispatches them on this
// goroutine until the transport fails or c is closed.
func (s *Session) readLoop(c *connection) {
	for {
		raw, err := c.conn.ReadFrame()
		if err != nil {
			if errors.Is(err, showdown.ErrNonTextFrame) {
				if c.live() {
					c.log.Warn("unsupported frame", zap.Error(err))
					s.bus.Emit(showdown.ErrorEvent{Err: err})
				}
				continue
			}
			s.connectionLost(c, err)
			return
		}
		if !c.live() {
			continue
		}

		c.log.Debug("rcv", zap.String("frame", raw))
		if err := s.dispatch(c, raw); err != nil {
			// a frame we cannot decode means the stream is out of sync
			c.log.Warn("malformed frame", zap.String("frame", raw), zap.Error(err))
			s.bus.Emit(showdown.ErrorEvent{Err: err, Frame: raw})
			c.close(closeProtocol, showdown.CloseReasonMalformed, err)
		}
	}
}

// connectionLost cleans up after the read loop of c ended.
func (s *Session) connectionLost(c *connection, readErr error) {
	c.close(closeGoingAway, "", readErr)

	cause := c.closeCause()
	if s.detachIf(c) {
		s.bus.CancelWaiters(waiterError(cause))
	}

	if cause != nil {
		c.log.Info("connection lost", zap.Error(cause))
	}
	s.bus.Emit(showdown.DisconnectEvent{ConnID: c.id, Voluntary: cause == nil, Err: cause})
}

// waiterError is the error pending waiters fail with when a connection ends.
func waiterError(cause error) error {
	switch {
	case cause == nil:
		return showdown.ErrDisconnected
	case errors.Is(cause, showdown.ErrConnectionClosed):
		return cause
	default:
		return errors.Wrap(showdown.ErrConnectionClosed, cause.Error())
	}
}

// dispatch decodes raw and emits its events. Only decode errors are
// returned; payloads that do not parse are reported as error events.
func (s *Session) dispatch(c *connection, raw string) error {
	frame, err := s.codec.Decode(raw)
	if err != nil {
		return err
	}

	switch frame.Command {
	case showdown.CmdChallenge:
		challenge, err := protocol.ParseChallenge(frame.Payload)
		if err != nil {
			s.bus.Emit(showdown.ErrorEvent{Err: err, Frame: raw})
		} else {
			c.challenge.Resolve(challenge)
		}
	case showdown.CmdUpdateUser:
		s.setUser(c, protocol.ParseUpdateUser(frame.Payload))
	}

	s.bus.Emit(showdown.RawEvent{Command: frame.Command, Payload: frame.Payload, Room: frame.Room})
	s.bus.Emit(showdown.CommandEvent{Command: frame.Command, Payload: frame.Payload, Room: frame.Room})

	switch frame.Command {
	case showdown.CmdChat:
		s.onChat(frame, raw, protocol.ParseChat)
	case showdown.CmdChatNoTime:
		s.onChat(frame, raw, protocol.ParseChatNoTime)
	case showdown.CmdPM:
		s.onPM(frame, raw)
	}
	return nil
}

func (s *Session) setUser(c *connection, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == c {
		s.user = showdown.NewUser(name, s)
	}
}

// isSelf reports whether u is the session's own user. Own messages can only
// be recognised once the server sent updateuser for this connection; chat
// arriving before that is delivered even if it is our own.
func (s *Session) isSelf(u *showdown.User) bool {
	self, ok := s.User()
	return ok && u.Equals(self)
}

func (s *Session) onChat(frame protocol.Frame, raw string, parse func(string) (protocol.Chat, error)) {
	chat, err := parse(frame.Payload)
	if err != nil {
		s.bus.Emit(showdown.ErrorEvent{Err: err, Frame: raw})
		return
	}

	user := showdown.NewUser(chat.User, s)
	if s.isSelf(user) {
		return
	}

	msg := &showdown.ChatMessage{
		Room: showdown.NewRoom(frame.Room, s),
		User: user,
		Text: chat.Text,
		Time: chat.Time,
	}
	s.bus.Emit(showdown.ChatEvent{Message: msg})
	s.bus.Emit(showdown.MessageEvent{Message: msg})
}

func (s *Session) onPM(frame protocol.Frame, raw string) {
	pm, err := protocol.ParsePM(frame.Payload)
	if err != nil {
		s.bus.Emit(showdown.ErrorEvent{Err: err, Frame: raw})
		return
	}

	user := showdown.NewUser(pm.Sender, s)
	if s.isSelf(user) {
		return
	}

	msg := &showdown.PrivateMessage{User: user, Text: pm.Text}
	s.bus.Emit(showdown.PMEvent{Message: msg})
	s.bus.Emit(showdown.MessageEvent{Message: msg})
}
