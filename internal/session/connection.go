package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/luciancaetano/showdown"
	"github.com/luciancaetano/showdown/internal/event"
	"github.com/luciancaetano/showdown/internal/queue"
)

// connection is one live transport connection with its own outbound queue
// and login challenge. Reconnecting replaces it wholesale.
type connection struct {
	id        string
	conn      showdown.Conn
	queue     *queue.Queue
	challenge *event.Future[showdown.Challenge]
	log       *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc

	mu     sync.Mutex
	closed bool
	cause  error
}

func newConnection(conn showdown.Conn, cfg Config) *connection {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.New().String()

	c := &connection{
		id:        id,
		conn:      conn,
		challenge: event.NewFuture[showdown.Challenge](),
		log:       cfg.Logger.With(zap.String("conn", id)),
		ctx:       ctx,
		cancel:    cancel,
	}
	c.queue = queue.New(cfg.MessageDelay, c.write, queue.WithErrorHandler(c.writeFailed))
	return c
}

// live reports whether frames read from c should still be dispatched.
func (c *connection) live() bool {
	return c.ctx.Err() == nil
}

func (c *connection) write(frame string) error {
	c.log.Debug("snd", zap.String("frame", frame))
	return c.conn.WriteFrame(frame)
}

// writeFailed closes the connection; the read loop then reports the cause.
func (c *connection) writeFailed(frame string, err error) {
	c.log.Warn("write failed", zap.String("frame", frame), zap.Error(err))
	c.close(closeGoingAway, "write failed", err)
}

// close closes the transport once. cause is nil for closes requested by the
// owner of the session. It returns false if c was already closed.
func (c *connection) close(code int, reason string, cause error) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.closed = true
	c.cause = cause
	c.mu.Unlock()

	c.cancel()
	c.queue.Stop()
	if cause != nil {
		c.challenge.Fail(cause)
	} else {
		c.challenge.Fail(showdown.ErrDisconnected)
	}
	if err := c.conn.CloseWithReason(code, reason); err != nil {
		c.log.Debug("close", zap.Error(err))
	}
	return true
}

// closeCause returns the cause recorded by the first close.
func (c *connection) closeCause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cause
}
