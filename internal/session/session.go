package session

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/luciancaetano/showdown"
	"github.com/luciancaetano/showdown/internal/event"
	"github.com/luciancaetano/showdown/internal/protocol"
)

const (
	closeNormal    = websocket.CloseNormalClosure
	closeProtocol  = websocket.CloseProtocolError
	closeGoingAway = websocket.CloseGoingAway
)

// Session implements the showdown.Client interface
type Session struct {
	cfg   Config
	codec protocol.Codec
	bus   *event.Bus
	log   *zap.Logger

	mu        sync.RWMutex
	state     showdown.State
	server    showdown.Server
	hasServer bool
	conn      *connection
	user      *showdown.User
	loggingIn bool
}

var _ showdown.Client = (*Session)(nil)

// New creates an idle session. It performs no I/O.
func New(cfg Config) *Session {
	cfg = cfg.withDefaults()
	return &Session{
		cfg:   cfg,
		codec: protocol.Codec{DefaultRoom: cfg.DefaultRoom},
		bus:   event.NewBus(),
		log:   cfg.Logger,
	}
}

// Connect resolves name and connects to the server it names
func (s *Session) Connect(ctx context.Context, name string) error {
	if s.State() != showdown.StateDisconnected {
		return showdown.ErrAlreadyConnected
	}

	server, err := s.cfg.Resolver.Resolve(ctx, name)
	if err != nil {
		return errors.Wrapf(err, "resolve server %q", name)
	}
	return s.ConnectServer(ctx, server)
}

// ConnectServer dials server and starts reading from it
func (s *Session) ConnectServer(ctx context.Context, server showdown.Server) error {
	s.mu.Lock()
	if s.state != showdown.StateDisconnected {
		s.mu.Unlock()
		return showdown.ErrAlreadyConnected
	}
	s.state = showdown.StateConnecting
	s.mu.Unlock()

	url := fmt.Sprintf("ws://%s%s", net.JoinHostPort(server.Host, strconv.Itoa(server.Port)), showdown.WebsocketPath)
	conn, err := s.cfg.Dialer.Dial(ctx, url)
	if err != nil {
		s.mu.Lock()
		s.state = showdown.StateDisconnected
		s.mu.Unlock()
		return errors.Wrapf(err, "connect to %s", url)
	}

	c := newConnection(conn, s.cfg)

	s.mu.Lock()
	s.conn = c
	s.server = server
	s.hasServer = true
	s.state = showdown.StateConnected
	s.mu.Unlock()

	c.log.Info("connected", zap.String("url", url))
	s.bus.Emit(showdown.ConnectionEvent{ConnID: c.id, Server: server})

	go s.readLoop(c)
	return nil
}

// Login authenticates the connection as name
func (s *Session) Login(ctx context.Context, name, password string) error {
	s.mu.Lock()
	c := s.conn
	server := s.server
	if c == nil {
		s.mu.Unlock()
		return showdown.ErrNotConnected
	}
	if s.loggingIn {
		s.mu.Unlock()
		return showdown.ErrLoginInProgress
	}
	s.loggingIn = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.loggingIn = false
		s.mu.Unlock()
	}()

	challenge, err := c.challenge.Wait(ctx)
	if err != nil {
		return errors.Wrap(err, "wait for login challenge")
	}

	assertion, err := s.cfg.Authenticator.Authenticate(ctx, server, challenge, name, password)
	if err != nil {
		return errors.Wrapf(err, "authenticate %s", name)
	}

	kind := showdown.RawKind(showdown.CmdUpdateUser)
	ack, err := s.bus.Await(kind, func(ev showdown.Event) bool {
		cmd, ok := ev.(showdown.CommandEvent)
		return ok && showdown.ToID(protocol.ParseUpdateUser(cmd.Payload)) == showdown.ToID(name)
	})
	if err != nil {
		return errors.Wrap(err, "arm login acknowledgment")
	}
	defer s.bus.Release(kind, ack)

	if err := s.Send(showdown.CmdRename, name+",0,"+assertion, ""); err != nil {
		return errors.Wrap(err, "send rename")
	}
	if _, err := ack.Wait(ctx); err != nil {
		return errors.Wrap(err, "wait for login acknowledgment")
	}

	s.mu.Lock()
	if s.conn == c {
		s.state = showdown.StateAuthenticated
	}
	s.mu.Unlock()

	c.log.Info("logged in", zap.String("user", name))
	return nil
}

// Send enqueues "/command argument" for room
func (s *Session) Send(command, argument, room string) error {
	c, err := s.current()
	if err != nil {
		return err
	}
	c.queue.Enqueue(s.codec.EncodeCommand(room, command, argument))
	return nil
}

// Say enqueues a chat message for room
func (s *Session) Say(text, room string) error {
	c, err := s.current()
	if err != nil {
		return err
	}
	c.queue.Enqueue(s.codec.EncodeChat(room, text))
	return nil
}

// JoinRoom joins room
func (s *Session) JoinRoom(room string) error {
	return s.Send(showdown.CmdJoin, room, "")
}

// LeaveRoom leaves room
func (s *Session) LeaveRoom(room string) error {
	return s.Send(showdown.CmdLeave, "", room)
}

// Disconnect closes the current connection
func (s *Session) Disconnect() error {
	c := s.detach()
	if c == nil {
		return nil
	}

	s.bus.CancelWaiters(showdown.ErrDisconnected)
	c.close(closeNormal, showdown.CloseReasonNormal, nil)
	c.log.Info("disconnected")
	return nil
}

// Reconnect replaces the connection with a fresh one to the same server
func (s *Session) Reconnect(ctx context.Context) error {
	s.mu.RLock()
	server, ok := s.server, s.hasServer
	s.mu.RUnlock()
	if !ok {
		return showdown.ErrNoServer
	}

	if err := s.Disconnect(); err != nil {
		return err
	}
	return s.ConnectServer(ctx, server)
}

// On registers handler for kind
func (s *Session) On(kind showdown.EventKind, handler showdown.Handler) func() {
	return s.bus.On(kind, handler)
}

// User returns the user acknowledged by the server, if any
func (s *Session) User() (*showdown.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.user != nil
}

// State returns the lifecycle state
func (s *Session) State() showdown.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Server returns the last server connected to
func (s *Session) Server() showdown.Server {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.server
}

func (s *Session) current() (*connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.conn == nil {
		return nil, showdown.ErrNotConnected
	}
	return s.conn, nil
}

// detach clears the current connection and returns it.
func (s *Session) detach() *connection {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.conn
	if c == nil {
		return nil
	}
	s.conn = nil
	s.user = nil
	s.state = showdown.StateDisconnected
	return c
}

// detachIf detaches c if it is still the current connection.
func (s *Session) detachIf(c *connection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != c {
		return false
	}
	s.conn = nil
	s.user = nil
	s.state = showdown.StateDisconnected
	return true
}
