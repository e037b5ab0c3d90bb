package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/luciancaetano/showdown"
)

var errHangup = errors.New("connection reset by peer")

type inbound struct {
	frame string
	err   error
}

type written struct {
	frame string
	at    time.Time
}

// fakeConn is an in-memory showdown.Conn
type fakeConn struct {
	in      chan inbound
	out     chan written
	closeCh chan struct{}

	once      sync.Once
	mu        sync.Mutex
	closeCode int
	readErr   error
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:      make(chan inbound, 64),
		out:     make(chan written, 64),
		closeCh: make(chan struct{}),
	}
}

func (c *fakeConn) ReadFrame() (string, error) {
	select {
	case msg := <-c.in:
		return msg.frame, msg.err
	case <-c.closeCh:
		c.mu.Lock()
		defer c.mu.Unlock()
		return "", c.readErr
	}
}

func (c *fakeConn) WriteFrame(frame string) error {
	select {
	case <-c.closeCh:
		return showdown.ErrNotConnected
	default:
	}
	c.out <- written{frame: frame, at: time.Now()}
	return nil
}

func (c *fakeConn) CloseWithReason(code int, reason string) error {
	c.shut(code, errors.New("use of closed connection"))
	return nil
}

// hangup simulates the server dropping the connection
func (c *fakeConn) hangup(err error) {
	c.shut(0, err)
}

func (c *fakeConn) shut(code int, readErr error) {
	c.once.Do(func() {
		c.mu.Lock()
		c.closeCode = code
		c.readErr = readErr
		c.mu.Unlock()
		close(c.closeCh)
	})
}

func (c *fakeConn) push(frame string) {
	c.in <- inbound{frame: frame}
}

func (c *fakeConn) code() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCode
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closeCh:
		return true
	default:
		return false
	}
}

// next returns the next written frame
func (c *fakeConn) next(t *testing.T) written {
	t.Helper()
	select {
	case w := <-c.out:
		return w
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for an outbound frame")
		return written{}
	}
}

// fakeDialer hands out a new fakeConn per dial
type fakeDialer struct {
	mu    sync.Mutex
	urls  []string
	conns []*fakeConn
	err   error
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (showdown.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.urls = append(d.urls, url)
	if d.err != nil {
		return nil, d.err
	}
	c := newFakeConn()
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) conn(t *testing.T, i int) *fakeConn {
	t.Helper()
	d.mu.Lock()
	defer d.mu.Unlock()
	require.Greater(t, len(d.conns), i, "connection %d was never dialed", i)
	return d.conns[i]
}

type fakeResolver struct {
	server showdown.Server
	err    error
}

func (r *fakeResolver) Resolve(ctx context.Context, name string) (showdown.Server, error) {
	return r.server, r.err
}

type fakeAuth struct {
	mu         sync.Mutex
	assertion  string
	err        error
	challenges []showdown.Challenge
}

func (a *fakeAuth) Authenticate(ctx context.Context, server showdown.Server, ch showdown.Challenge, name, password string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.challenges = append(a.challenges, ch)
	return a.assertion, a.err
}

type fixture struct {
	session *Session
	dialer  *fakeDialer
	auth    *fakeAuth
	logs    *observer.ObservedLogs
}

var testServer = showdown.Server{Host: "sim.example", Port: 8000, ID: "showdown"}

func newFixture(t *testing.T, delay time.Duration) *fixture {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	f := &fixture{
		dialer: &fakeDialer{},
		auth:   &fakeAuth{assertion: "ASSERTION"},
		logs:   logs,
	}
	f.session = New(Config{
		MessageDelay:  delay,
		Logger:        zap.New(core),
		Dialer:        f.dialer,
		Resolver:      &fakeResolver{server: testServer},
		Authenticator: f.auth,
	})
	t.Cleanup(func() { f.session.Disconnect() })
	return f
}

// connect connects the fixture's session and returns the dialed connection
func (f *fixture) connect(t *testing.T) *fakeConn {
	t.Helper()
	require.NoError(t, f.session.ConnectServer(context.Background(), testServer))
	f.dialer.mu.Lock()
	defer f.dialer.mu.Unlock()
	return f.dialer.conns[len(f.dialer.conns)-1]
}

// record collects events of kind
func record(s *Session, kind showdown.EventKind) chan showdown.Event {
	ch := make(chan showdown.Event, 64)
	s.On(kind, func(ev showdown.Event) { ch <- ev })
	return ch
}

func receive(t *testing.T, ch chan showdown.Event) showdown.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for an event")
		return nil
	}
}

func assertNoEvent(t *testing.T, ch chan showdown.Event, wait time.Duration) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %#v", ev)
	case <-time.After(wait):
	}
}
